package pipeline

import (
	"sort"
	"strings"

	"moviescout/discoveryservice/internal/domain"
)

// ratingSignal is the sort key for rating-ordered modes: the normalized
// average when present, otherwise -1 so unrated titles sink below genuine
// zero-rated ones.
func ratingSignal(result domain.EnrichedResult) float64 {
	if result.AverageRating == nil {
		return -1
	}
	return *result.AverageRating
}

func titleKey(result domain.EnrichedResult) string {
	return strings.ToLower(result.Title)
}

// sortSearchResults orders free-text search results. All three modes sort
// descending on their primary key with match score (or year) breaking ties.
func sortSearchResults(results []domain.EnrichedResult, mode domain.SortMode) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch mode {
		case domain.SortRecent:
			if ya, yb := yearValue(a.Year), yearValue(b.Year); ya != yb {
				return ya > yb
			}
			return a.MatchScore > b.MatchScore
		case domain.SortRating:
			if ra, rb := ratingSignal(a), ratingSignal(b); ra != rb {
				return ra > rb
			}
			return a.MatchScore > b.MatchScore
		default: // relevance
			if a.MatchScore != b.MatchScore {
				return a.MatchScore > b.MatchScore
			}
			return yearValue(a.Year) > yearValue(b.Year)
		}
	})
}

// sortBrowseResults orders genre-browse and box-office results. Direction
// applies to the primary key only; secondary keys always break ties in a
// fixed descending quality order, with title ascending as the final
// tie-break. Title modes sort on title alone; stable sort preserves the
// incoming order of equal titles.
func sortBrowseResults(results []domain.EnrichedResult, mode domain.SortMode) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch mode {
		case domain.SortTitleAsc:
			return titleKey(a) < titleKey(b)
		case domain.SortTitleDesc:
			return titleKey(a) > titleKey(b)
		case domain.SortRatingAsc, domain.SortRatingDesc:
			ra, rb := ratingSignal(a), ratingSignal(b)
			if ra != rb {
				if mode == domain.SortRatingAsc {
					return ra < rb
				}
				return ra > rb
			}
			if a.BoxOfficeValue != b.BoxOfficeValue {
				return a.BoxOfficeValue > b.BoxOfficeValue
			}
		case domain.SortYearAsc, domain.SortYearDesc:
			ya, yb := yearValue(a.Year), yearValue(b.Year)
			if ya != yb {
				if mode == domain.SortYearAsc {
					return ya < yb
				}
				return ya > yb
			}
			if ra, rb := ratingSignal(a), ratingSignal(b); ra != rb {
				return ra > rb
			}
			if a.BoxOfficeValue != b.BoxOfficeValue {
				return a.BoxOfficeValue > b.BoxOfficeValue
			}
		case domain.SortBoxOfficeAsc, domain.SortBoxOfficeDesc:
			if a.BoxOfficeValue != b.BoxOfficeValue {
				if mode == domain.SortBoxOfficeAsc {
					return a.BoxOfficeValue < b.BoxOfficeValue
				}
				return a.BoxOfficeValue > b.BoxOfficeValue
			}
			if ra, rb := ratingSignal(a), ratingSignal(b); ra != rb {
				return ra > rb
			}
		}
		return titleKey(a) < titleKey(b)
	})
}

// pinCurated moves entries whose id appears in curatedIDs to the front, in
// curated order, capped at limit. Remaining entries keep their sorted order.
func pinCurated(results []domain.EnrichedResult, curatedIDs []string, limit int) []domain.EnrichedResult {
	if len(curatedIDs) == 0 || len(results) == 0 {
		return results
	}
	if limit > 0 && len(curatedIDs) > limit {
		curatedIDs = curatedIDs[:limit]
	}

	byID := make(map[string]int, len(results))
	for i, result := range results {
		if result.ID != "" {
			byID[strings.ToLower(result.ID)] = i
		}
	}

	pinned := make([]domain.EnrichedResult, 0, len(curatedIDs))
	pinnedIDs := make(map[string]struct{}, len(curatedIDs))
	for _, id := range curatedIDs {
		key := strings.ToLower(id)
		if _, dup := pinnedIDs[key]; dup {
			continue
		}
		if idx, ok := byID[key]; ok {
			pinned = append(pinned, results[idx])
			pinnedIDs[key] = struct{}{}
		}
	}
	if len(pinned) == 0 {
		return results
	}

	rest := make([]domain.EnrichedResult, 0, len(results)-len(pinned))
	for _, result := range results {
		if _, ok := pinnedIDs[strings.ToLower(result.ID)]; ok {
			continue
		}
		rest = append(rest, result)
	}
	return append(pinned, rest...)
}
