package scanner

import "unicode/utf8"

// runeIndex converts byte offsets in a string to code-point offsets. It is
// built once per scan and answers lookups in O(log n).
type runeIndex struct {
	starts []int // byte offset of each rune
	size   int   // total byte length
}

func newRuneIndex(text string) *runeIndex {
	idx := &runeIndex{starts: make([]int, 0, utf8.RuneCountInString(text)), size: len(text)}
	for i := range text {
		idx.starts = append(idx.starts, i)
	}
	return idx
}

// at returns the number of runes that start before byteOffset.
func (r *runeIndex) at(byteOffset int) int {
	if byteOffset >= r.size {
		return len(r.starts)
	}
	lo, hi := 0, len(r.starts)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.starts[mid] < byteOffset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
