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
	boxOfficePageSize     = 10
	boxOfficeQueryLimit   = 80
	boxOfficeBrowseLimit  = 250
	boxOfficeSourcePages  = 5
	boxOfficeSeedPages    = 4
	boxOfficeChartSize    = 10
	boxOfficeRecommendMax = 5
)

// TopBoxOffice builds a revenue-ranked listing. The expensive part, the
// enriched base dataset, is cached per (query, genre) seed independently of
// sort and pagination; filters and ordering are applied on every request.
func (s *Service) TopBoxOffice(ctx context.Context, req domain.BoxOfficeRequest) (domain.BoxOfficeResponse, error) {
	query := strings.TrimSpace(req.Query)
	genre := strings.TrimSpace(req.Genre)
	page := clampInt(req.Page, 1, 1, 10)
	sortMode := domain.NormalizeBoxOfficeSort(string(req.Sort))

	key := cache.BoxOfficeDatasetKey(query, genre)
	var base []domain.EnrichedResult
	datasetCached := false
	var datasetEnvelope struct {
		Results []domain.EnrichedResult `json:"results"`
	}
	if cache.GetJSON(ctx, s.store, key, &datasetEnvelope) && len(datasetEnvelope.Results) > 0 {
		metrics.CacheHitsTotal.WithLabelValues("boxoffice-dataset").Inc()
		base = datasetEnvelope.Results
		datasetCached = true
	} else {
		metrics.CacheMissesTotal.WithLabelValues("boxoffice-dataset").Inc()
		base = s.buildBoxOfficeDataset(ctx, query, genre)
		if len(base) > 0 {
			datasetEnvelope.Results = base
			cache.SetJSON(ctx, s.store, key, datasetEnvelope, s.ttl)
		}
	}

	filtered := base
	if genre != "" {
		lowered := strings.ToLower(genre)
		filtered = make([]domain.EnrichedResult, 0, len(base))
		for _, item := range base {
			joined := strings.ToLower(strings.Join(item.Genres, ", "))
			if strings.Contains(joined, lowered) {
				filtered = append(filtered, item)
			}
		}
	}

	sortBrowseResults(filtered, sortMode)
	if genre != "" && query == "" {
		filtered = pinCurated(filtered, genreCuratedIDs[strings.ToLower(genre)], boxOfficePageSize)
	}

	window := paginate(filtered, page, boxOfficePageSize)

	chart := make([]domain.ChartPoint, 0, boxOfficeChartSize)
	for _, item := range filtered {
		if len(chart) == boxOfficeChartSize {
			break
		}
		chart = append(chart, domain.ChartPoint{Title: item.Title, BoxOffice: item.BoxOfficeValue})
	}

	var totalBoxOffice int64
	for _, item := range filtered {
		totalBoxOffice += item.BoxOfficeValue
	}
	boxMetrics := domain.BoxOfficeMetrics{
		TotalBoxOffice: totalBoxOffice,
		TopBoxOffice:   "N/A",
	}
	if window.TotalCount > 0 {
		boxMetrics.AverageBoxOffice = round2(float64(totalBoxOffice) / float64(window.TotalCount))
		boxMetrics.TopBoxOffice = filtered[0].BoxOfficeLabel
	}

	label := query
	if label == "" {
		label = "top box office"
	}
	response := domain.BoxOfficeResponse{
		Query:       label,
		Page:        window.Page,
		PerPage:     boxOfficePageSize,
		Results:     window.Results,
		TotalCount:  window.TotalCount,
		TotalPages:  window.TotalPages,
		HasPrev:     window.HasPrev,
		HasNext:     window.HasNext,
		Chart:       chart,
		Recommended: recommendFromLeader(filtered),
		Metrics:     boxMetrics,
		Filters: domain.BoxOfficeFilters{
			Genre: genre,
			Sort:  sortMode,
		},
		Cached: datasetCached,
	}
	if response.Results == nil {
		response.Results = []domain.EnrichedResult{}
	}
	return response, nil
}

// buildBoxOfficeDataset aggregates and enriches the candidate pool behind a
// box-office listing. A query seeds the pool directly; without one, curated
// ids plus either genre terms or the blockbuster seed terms do.
func (s *Service) buildBoxOfficeDataset(ctx context.Context, query, genre string) []domain.EnrichedResult {
	start := time.Now()
	filter := omdb.SearchFilter{MediaType: string(domain.MediaTypeMovie)}

	var exclude func(domain.Candidate) bool
	if query == "" && genre != "" {
		exclude = genreTitleExclusion(genre)
	}

	var pool *candidatePool
	switch {
	case query != "":
		pool = newCandidatePool(boxOfficeQueryLimit, exclude)
		s.fillPool(ctx, pool, []string{query}, boxOfficeSourcePages, filter)
	case genre != "":
		pool = newCandidatePool(boxOfficeBrowseLimit, exclude)
		for _, id := range defaultBoxOfficeIDs {
			pool.add(domain.Candidate{ID: id})
		}
		for _, id := range genreCuratedIDs[strings.ToLower(genre)] {
			pool.add(domain.Candidate{ID: id})
		}
		terms := expandGenreTerms(genre, boxOfficeGenreSuffixes)
		s.fillPool(ctx, pool, terms, boxOfficeSourcePages, filter)
	default:
		pool = newCandidatePool(boxOfficeBrowseLimit, exclude)
		for _, id := range defaultBoxOfficeIDs {
			pool.add(domain.Candidate{ID: id})
		}
		s.fillPool(ctx, pool, boxOfficeSeedTerms, boxOfficeSeedPages, filter)
	}

	enriched := s.enrichCandidates(ctx, unscoredCandidates(pool.candidates), enrichFilter{})
	sortBrowseResults(enriched, domain.SortBoxOfficeDesc)

	s.logger.Info("box office dataset built",
		"query", query,
		"genre", genre,
		"candidates", pool.size(),
		"results", len(enriched),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return enriched
}

// recommendFromLeader suggests follow-up titles: other movies by the top
// result's director when there are any, otherwise the next best results.
func recommendFromLeader(results []domain.EnrichedResult) []domain.EnrichedResult {
	if len(results) == 0 {
		return []domain.EnrichedResult{}
	}
	leader := results[0]
	var recommended []domain.EnrichedResult
	if leader.Director != "" {
		for _, item := range results[1:] {
			if item.Director == leader.Director {
				recommended = append(recommended, item)
				if len(recommended) == boxOfficeRecommendMax {
					break
				}
			}
		}
	}
	if len(recommended) == 0 && len(results) > 1 {
		rest := results[1:]
		if len(rest) > boxOfficeRecommendMax {
			rest = rest[:boxOfficeRecommendMax]
		}
		recommended = append(recommended, rest...)
	}
	if recommended == nil {
		recommended = []domain.EnrichedResult{}
	}
	return recommended
}
