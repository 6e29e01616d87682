package pipeline

import (
	"context"
	"strings"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/metrics"
)

// discrepancyThreshold is the normalized-point spread between the highest and
// lowest source rating above which a summary is flagged in the logs.
const discrepancyThreshold = 5.0

// RatingSummaries answers normalized rating summaries for a batch of targets,
// each an external id or a title. Failed targets are reported individually;
// the batch fails only when every target does.
func (s *Service) RatingSummaries(ctx context.Context, targets []string) (domain.RatingSummaryResponse, error) {
	cleaned := make([]string, 0, len(targets))
	for _, target := range targets {
		if trimmed := strings.TrimSpace(target); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return domain.RatingSummaryResponse{}, ErrInvalidTarget
	}

	response := domain.RatingSummaryResponse{
		Results: make([]domain.RatingSummary, 0, len(cleaned)),
	}
	for _, target := range cleaned {
		key := cache.RatingSummaryKey(target)

		var cached domain.RatingSummary
		if cache.GetJSON(ctx, s.store, key, &cached) {
			metrics.CacheHitsTotal.WithLabelValues("rating-summary").Inc()
			cached.Cached = true
			response.Results = append(response.Results, cached)
			continue
		}
		metrics.CacheMissesTotal.WithLabelValues("rating-summary").Inc()

		detail, fromCache, err := s.fetchDetail(ctx, target)
		if err != nil {
			response.Errors = append(response.Errors, domain.RatingSummaryError{
				Target: target,
				Error:  "Movie not found or unavailable.",
			})
			continue
		}

		ratings := ExtractRatings(detail)
		s.logRatingDiscrepancy(detail, ratings)

		summary := domain.RatingSummary{
			ID:      detail.ID,
			Title:   detail.Title,
			Year:    detail.Year,
			Poster:  detail.Poster,
			Ratings: ratings,
			Average: AverageRating(ratings),
			Cached:  fromCache,
		}
		response.Results = append(response.Results, summary)
		cache.SetJSON(ctx, s.store, key, summary, s.ttl)
	}

	response.Count = len(response.Results)
	if response.Count == 0 {
		return response, ErrNotFound
	}
	return response, nil
}

// logRatingDiscrepancy flags titles whose sources disagree by more than the
// threshold. Needs at least two sources to compare.
func (s *Service) logRatingDiscrepancy(detail domain.Detail, ratings map[string]float64) {
	if len(ratings) < 2 {
		return
	}
	var minScore, maxScore float64
	first := true
	for _, score := range ratings {
		if first {
			minScore, maxScore = score, score
			first = false
			continue
		}
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore-minScore > discrepancyThreshold {
		s.logger.Info("rating discrepancy between sources",
			"title", detail.Title,
			"identifier", detail.ID,
			"spread", round2(maxScore-minScore),
			"ratings", ratings,
		)
	}
}
