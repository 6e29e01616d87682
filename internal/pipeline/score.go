package pipeline

import (
	"strings"

	"moviescout/discoveryservice/internal/domain"
)

// SimilarityScore is a fuzzy match ratio in [0,1] between a query and a
// candidate title, computed case-insensitively as 2*LCS / (len(a)+len(b)).
// Identical strings score 1, disjoint strings score 0.
func SimilarityScore(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	lcs := longestCommonSubsequence(a, b)
	return float64(2*lcs) / float64(len(a)+len(b))
}

func longestCommonSubsequence(a, b string) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for j := 1; j <= len(b); j++ {
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1] + 1
			} else if prev[i] >= curr[i-1] {
				curr[i] = prev[i]
			} else {
				curr[i] = curr[i-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

// yearBonus is added to the match score when the candidate's year equals the
// requested year filter, promoting exact-year hits above lexically closer
// titles from other years.
const yearBonus = 0.5

// scoreCandidate computes the relevance score for one candidate: fuzzy title
// similarity plus the fixed year bonus when the year filter matches exactly.
func scoreCandidate(query string, candidate domain.Candidate, yearFilter string) float64 {
	score := SimilarityScore(query, candidate.Title)
	if yearFilter != "" && strings.TrimSpace(candidate.Year) == yearFilter {
		score += yearBonus
	}
	return score
}
