package common

import "strings"

// ColumnIndex returns the index of the header cell matching the earliest of
// names, ignoring case and surrounding whitespace, or -1.
func ColumnIndex(header []string, names ...string) int {
	for _, name := range names {
		for i, h := range header {
			h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[i] trimmed, or "" when i is out of range.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
