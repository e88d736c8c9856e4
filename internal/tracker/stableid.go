// Package tracker gives detected issues an identity that survives re-scans
// and records each issue's disposition.
package tracker

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/jonathan/bias-detector/internal/types"
	"github.com/zeebo/blake3"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// idLength is the number of hex characters kept from the hash
const idLength = 16

// Normalize canonicalises matched text for identity: NFC, case folded,
// whitespace runs collapsed to one space.
func Normalize(text string) string {
	folded := cases.Fold().String(norm.NFC.String(text))
	return strings.Join(strings.Fields(folded), " ")
}

// StableID derives an issue id from what was matched, never from where.
// ordinal distinguishes repeated occurrences of the same text for the same
// rule within one scan, counted left to right.
//
// Edits that do not add or remove an occurrence of the same rule and text keep
// every id. Inserting such a duplicate before existing ones shifts the
// ordinals, so dispositions stay with the n-th occurrence rather than with the
// original span.
func StableID(category types.Category, ruleID, matchedText string, ordinal int) string {
	h := blake3.New()
	for _, part := range []string{string(category), ruleID, Normalize(matchedText), strconv.Itoa(ordinal)} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:idLength]
}
