package pipeline

import (
	"context"
	"strings"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/metrics"
	"moviescout/discoveryservice/internal/providers/omdb"
)

const similarMoviesLimit = 6

// MovieDetail answers the full per-title payload: the detail record, its
// normalized ratings and a cached list of similar movies discovered through
// the title's primary genre.
func (s *Service) MovieDetail(ctx context.Context, identifier string) (domain.MovieResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.MovieResponse{}, ErrInvalidTarget
	}

	detail, fromCache, err := s.fetchDetail(ctx, identifier)
	if err != nil {
		return domain.MovieResponse{}, ErrNotFound
	}

	ratings := ExtractRatings(detail)
	response := domain.MovieResponse{
		Movie:         detail,
		Ratings:       ratings,
		AverageRating: AverageRating(ratings),
		BoxOffice:     ParseBoxOffice(detail.BoxOfficeRaw),
		Similar:       s.similarMovies(ctx, detail),
		Cached:        fromCache,
	}
	return response, nil
}

// similarMovies finds titles sharing the base title's primary genre. The
// computed list is cached per title; a base title with no genres has no
// similar set.
func (s *Service) similarMovies(ctx context.Context, base domain.Detail) []domain.SimilarMovie {
	if len(base.Genres) == 0 {
		return []domain.SimilarMovie{}
	}
	primaryGenre := strings.TrimSpace(base.Genres[0])
	if primaryGenre == "" {
		return []domain.SimilarMovie{}
	}

	key := cache.SimilarKey(base.ID)
	var cached []domain.SimilarMovie
	if cache.GetJSON(ctx, s.store, key, &cached) {
		metrics.CacheHitsTotal.WithLabelValues("similar").Inc()
		return cached
	}
	metrics.CacheMissesTotal.WithLabelValues("similar").Inc()

	pageResult, err := s.searchMovies(ctx, primaryGenre, 1, omdb.SearchFilter{})
	if err != nil {
		s.logger.Warn("similar movie search failed", "identifier", base.ID, "genre", primaryGenre, "error", err)
		return []domain.SimilarMovie{}
	}

	similar := make([]domain.SimilarMovie, 0, similarMoviesLimit)
	seen := map[string]struct{}{strings.ToLower(base.ID): {}}
	for _, candidate := range pageResult.Candidates {
		identifier := candidate.ID
		if identifier == "" {
			identifier = candidate.Title
		}
		lowered := strings.ToLower(identifier)
		if identifier == "" {
			continue
		}
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}

		detail, _, err := s.fetchDetail(ctx, identifier)
		if err != nil {
			continue
		}
		ratings := ExtractRatings(detail)
		similar = append(similar, domain.SimilarMovie{
			ID:            detail.ID,
			Title:         detail.Title,
			Year:          detail.Year,
			Poster:        detail.Poster,
			Genres:        detail.Genres,
			AverageRating: AverageRating(ratings),
		})
		if len(similar) == similarMoviesLimit {
			break
		}
	}

	cache.SetJSON(ctx, s.store, key, similar, s.ttl)
	return similar
}
