package pipeline

import (
	"context"
	"strings"
	"time"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/metrics"
	"moviescout/discoveryservice/internal/providers/omdb"
)

const (
	searchMaxSourcePages = 3
	fallbackPageLimit    = 1
)

// Search runs the free-text discovery flow: validate, check the dataset
// cache, expand terms, aggregate candidates, enrich, sort and paginate.
// The finished page is cached under a key derived from every input that
// shapes it, so repeat requests are answered without provider traffic.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return domain.SearchResponse{}, ErrInvalidQuery
	}
	if len(query) > maxQueryLength {
		return domain.SearchResponse{}, ErrQueryTooLong
	}
	if !domain.ValidMediaType(req.MediaType) {
		return domain.SearchResponse{}, ErrInvalidMediaType
	}
	if req.Year != "" && !isNumeric(req.Year) {
		return domain.SearchResponse{}, ErrInvalidYear
	}

	page := clampInt(req.Page, 1, 1, 10)
	perPage := clampInt(req.PerPage, 10, 5, 10)
	sortMode := req.Sort
	if sortMode == "" {
		sortMode = domain.SortRelevance
	}

	key := cache.SearchDatasetKey(query, page, perPage,
		req.MediaType, req.Year, strings.ToLower(req.Language), string(sortMode))

	var cached domain.SearchResponse
	if cache.GetJSON(ctx, s.store, key, &cached) {
		metrics.CacheHitsTotal.WithLabelValues("search-dataset").Inc()
		cached.Cached = true
		return cached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("search-dataset").Inc()

	start := time.Now()
	startIndex := (page - 1) * perPage
	target := startIndex + perPage*2

	variants := ExpandTerms(query)
	maxPages := page + 1
	if maxPages > searchMaxSourcePages {
		maxPages = searchMaxSourcePages
	}

	filter := omdb.SearchFilter{MediaType: req.MediaType, Year: req.Year}
	candidates := s.collectCandidates(ctx, collectOptions{
		Terms:    variants,
		MaxPages: maxPages,
		Target:   target,
		Filter:   filter,
	})

	if len(candidates) == 0 {
		// Broaden once by toggling a trailing "s" before giving up.
		candidates = s.collectCandidates(ctx, collectOptions{
			Terms:    []string{fallbackTerm(query)},
			MaxPages: fallbackPageLimit,
			Filter:   filter,
		})
	}

	if len(candidates) == 0 {
		response := domain.SearchResponse{
			Query:      query,
			Page:       page,
			PerPage:    perPage,
			Results:    []domain.EnrichedResult{},
			TotalPages: 1,
			Variants:   variants,
			Filters:    searchFilters(req),
			Message:    noResultsMessage,
		}
		cache.SetJSON(ctx, s.store, key, response, s.ttl)
		return response, nil
	}

	scored := scoreCandidates(query, candidates, req.Year)
	enriched := s.enrichCandidates(ctx, scored, enrichFilter{
		Year:     req.Year,
		Language: req.Language,
	})

	sortSearchResults(enriched, sortMode)
	window := paginate(enriched, page, perPage)

	response := domain.SearchResponse{
		Query:        query,
		Page:         window.Page,
		PerPage:      perPage,
		Results:      window.Results,
		TotalResults: window.TotalCount,
		TotalPages:   window.TotalPages,
		HasNext:      window.HasNext,
		HasPrev:      window.HasPrev,
		Variants:     variants,
		Filters:      searchFilters(req),
	}
	if len(response.Results) == 0 {
		response.Results = []domain.EnrichedResult{}
		response.Message = noResultsMessage
	}

	s.logger.Info("search completed",
		"query", query,
		"page", window.Page,
		"per_page", perPage,
		"variants", len(variants),
		"candidates", len(candidates),
		"results", len(response.Results),
		"total", window.TotalCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	cache.SetJSON(ctx, s.store, key, response, s.ttl)
	return response, nil
}

func searchFilters(req domain.SearchRequest) domain.SearchFilters {
	return domain.SearchFilters{
		MediaType: req.MediaType,
		Year:      req.Year,
		Language:  req.Language,
	}
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// clampInt applies the shared integer-parameter policy: zero means "use the
// default", anything else is clamped into [minimum, maximum].
func clampInt(value, fallback, minimum, maximum int) int {
	if value == 0 {
		value = fallback
	}
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}
