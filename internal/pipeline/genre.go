package pipeline

import (
	"context"
	"strconv"
	"strings"
	"time"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/metrics"
	"moviescout/discoveryservice/internal/providers/omdb"
	"moviescout/discoveryservice/internal/providers/tmdb"
)

const (
	genrePageSize          = 10
	genreMaxCandidates     = genrePageSize * 30
	genreSourcePages       = 5
	catalogSupplementPages = 2
)

// BrowseGenre assembles a genre listing: curated picks first, then
// dynamically discovered titles whose detail record confirms genre
// membership. The sorted, paginated page is cached as a dataset.
func (s *Service) BrowseGenre(ctx context.Context, req domain.GenreRequest) (domain.GenreResponse, error) {
	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		return domain.GenreResponse{}, ErrInvalidQuery
	}
	lowerGenre := strings.ToLower(genre)

	page := clampInt(req.Page, 1, 1, 10)
	sortMode := domain.NormalizeGenreSort(string(req.Sort))

	ratingToken := "none"
	if req.MinRating != nil {
		ratingToken = strconv.FormatFloat(*req.MinRating, 'f', -1, 64)
	}
	key := cache.GenreDatasetKey(genre, page,
		req.Year, strings.ToLower(req.Language), ratingToken, string(sortMode))

	var cached domain.GenreResponse
	if cache.GetJSON(ctx, s.store, key, &cached) {
		metrics.CacheHitsTotal.WithLabelValues("genre-dataset").Inc()
		cached.Cached = true
		return cached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("genre-dataset").Inc()

	start := time.Now()
	curatedIDs := genreCuratedIDs[lowerGenre]

	pool := newCandidatePool(genreMaxCandidates, genreTitleExclusion(genre))
	for _, id := range curatedIDs {
		if pool.add(domain.Candidate{ID: id}) {
			break
		}
	}
	if !pool.full() {
		terms := expandGenreTerms(genre, genreBrowseSuffixes)
		s.fillPool(ctx, pool, terms, genreSourcePages, omdb.SearchFilter{})
	}
	if !pool.full() {
		s.supplementFromCatalog(ctx, pool, lowerGenre, req.Year, req.Language)
	}

	if pool.size() == 0 {
		return domain.GenreResponse{Genre: genre}, ErrNotFound
	}

	enriched := s.enrichCandidates(ctx, unscoredCandidates(pool.candidates), enrichFilter{
		Year:       req.Year,
		prefixYear: true,
		Language:   req.Language,
		Genre:      genre,
		MinRating:  req.MinRating,
	})
	if len(enriched) == 0 {
		return domain.GenreResponse{Genre: genre}, ErrNotFound
	}

	sortBrowseResults(enriched, sortMode)
	ordered := pinCurated(enriched, curatedIDs, genrePageSize)
	window := paginate(ordered, page, genrePageSize)

	response := domain.GenreResponse{
		Genre:      genre,
		Page:       window.Page,
		PerPage:    genrePageSize,
		Results:    window.Results,
		TotalCount: window.TotalCount,
		TotalPages: window.TotalPages,
		HasPrev:    window.HasPrev,
		HasNext:    window.HasNext,
		Filters: domain.GenreFilters{
			Year:     req.Year,
			Language: req.Language,
			Rating:   req.MinRating,
			Sort:     sortMode,
		},
	}

	s.logger.Info("genre browse completed",
		"genre", genre,
		"page", window.Page,
		"candidates", pool.size(),
		"results", len(response.Results),
		"total", window.TotalCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	cache.SetJSON(ctx, s.store, key, response, s.ttl)
	return response, nil
}

// supplementFromCatalog adds discovery candidates from the optional catalog
// provider, resolved to external identifiers so enrichment can join them with
// the movie provider's details. Any catalog failure leaves the pool as-is.
func (s *Service) supplementFromCatalog(ctx context.Context, pool *candidatePool, lowerGenre, year, language string) {
	if !s.catalogEnabled() {
		return
	}

	genres, err := s.catalog.ListGenres(ctx)
	if err != nil {
		s.logger.Warn("catalog genre list failed", "error", err)
		return
	}
	genreID, ok := genres[lowerGenre]
	if !ok {
		return
	}

	query := tmdb.DiscoverQuery{Year: year, Language: language}
	for page := 1; page <= catalogSupplementPages; page++ {
		candidates, hasMore, err := s.catalog.DiscoverByGenre(ctx, genreID, page, query)
		if err != nil {
			s.logger.Warn("catalog discovery failed", "genre_id", genreID, "page", page, "error", err)
			return
		}
		for _, candidate := range candidates {
			catalogID, err := strconv.Atoi(candidate.ID)
			if err != nil {
				continue
			}
			externalID, err := s.catalog.ResolveExternalID(ctx, catalogID)
			if err != nil || externalID == "" {
				continue
			}
			candidate.ID = externalID
			if pool.add(candidate) {
				return
			}
		}
		if !hasMore {
			return
		}
	}
}

// MovieGenres answers the genre list for one title, located by external id or
// by title.
func (s *Service) MovieGenres(ctx context.Context, identifier string) (domain.MovieGenresResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.MovieGenresResponse{}, ErrInvalidTarget
	}

	detail, fromCache, err := s.fetchDetail(ctx, identifier)
	if err != nil {
		return domain.MovieGenresResponse{}, ErrNotFound
	}

	return domain.MovieGenresResponse{
		Movie: domain.Candidate{
			ID:     detail.ID,
			Title:  detail.Title,
			Year:   detail.Year,
			Poster: detail.Poster,
		},
		Genres: detail.Genres,
		Cached: fromCache,
	}, nil
}

// KnownGenres lists the genre names the browse surface advertises.
func KnownGenres() []string {
	out := make([]string, len(knownGenres))
	copy(out, knownGenres)
	return out
}
