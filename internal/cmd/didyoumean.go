package cmd

import "strings"

// levenshtein computes the edit distance between a and b using a single row.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = cur
		}
	}
	return row[len(b)]
}

// closest returns the candidate nearest to unknown, or "" when nothing is
// within three edits. Leading dashes are ignored so flags compare by name.
func closest(unknown string, candidates []string) string {
	want := strings.ToLower(strings.TrimLeft(unknown, "-"))
	if want == "" {
		return ""
	}
	best, bestDist := "", 4
	for _, c := range candidates {
		if d := levenshtein(want, strings.ToLower(strings.TrimLeft(c, "-"))); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
