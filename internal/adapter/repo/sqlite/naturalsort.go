package sqlite

import "strings"

// naturalSortPad is how many digits each numeric run is left-padded to
// before comparison, so "P999" sorts before "P1000" lexicographically.
const naturalSortPad = 20

// NaturalSortKey produces a key such that comparing two keys
// lexicographically orders the inputs the way a human would: numeric runs
// compare by value (zero-padded to naturalSortPad digits) and letter runs
// compare case-insensitively. It's registered as a SQLite scalar function
// (natural_sort_key) so ORDER BY can use it directly in SQL.
func NaturalSortKey(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 16)

	var buf strings.Builder
	var curIsDigit bool
	haveSegment := false

	flush := func() {
		if !haveSegment {
			return
		}
		seg := buf.String()
		if curIsDigit {
			if pad := naturalSortPad - len(seg); pad > 0 {
				out.WriteString(strings.Repeat("0", pad))
			}
			out.WriteString(seg)
		} else {
			out.WriteString(strings.ToLower(seg))
		}
		buf.Reset()
	}

	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if i == 0 {
			curIsDigit = isDigit
			haveSegment = true
			buf.WriteRune(r)
			continue
		}
		if isDigit == curIsDigit {
			buf.WriteRune(r)
			continue
		}
		flush()
		curIsDigit = isDigit
		buf.WriteRune(r)
	}
	flush()

	return out.String()
}
