package render

import "math"

// RowsPerPage returns how many rows of rowHeight fit in available points,
// never less than one.
func RowsPerPage(available, rowHeight float64) int {
	if rowHeight <= 0 {
		return 1
	}
	k := int(math.Floor(available / rowHeight))
	if k < 1 {
		return 1
	}
	return k
}

// Chunk splits rows into consecutive groups of at most k, keeping order.
// The result has ceil(len(rows)/k) non-empty groups.
func Chunk[T any](rows []T, k int) [][]T {
	if k < 1 {
		k = 1
	}
	var out [][]T
	for start := 0; start < len(rows); start += k {
		end := min(start+k, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
