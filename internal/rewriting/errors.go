// Package rewriting applies accepted suggestions to a text.
package rewriting

import "fmt"

// OverlappingEditError reports two selected issues whose spans overlap.
// It is recoverable: narrow the selection and retry, or use
// ApplyNonConflicting.
type OverlappingEditError struct {
	FirstID  string
	SecondID string
}

func (e *OverlappingEditError) Error() string {
	return fmt.Sprintf("overlapping edits: issues %s and %s cover the same text", e.FirstID, e.SecondID)
}

// SpanError reports an issue whose span does not fit the text it is applied
// to, typically a stale issue applied to a newer text.
type SpanError struct {
	IssueID string
	Start   int
	End     int
	Length  int
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("issue %s span [%d,%d) is outside text of length %d", e.IssueID, e.Start, e.End, e.Length)
}
