package pipeline

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/metrics"
)

// Rating source names as the provider spells them. Only these three are
// normalized; anything else in the raw ratings list is ignored.
const (
	sourceIMDB       = "Internet Movie Database"
	sourceRottenToma = "Rotten Tomatoes"
	sourceMetacritic = "Metacritic"
)

var ratingSources = []string{sourceIMDB, sourceRottenToma, sourceMetacritic}

// NormalizeRating converts one provider rating string onto the 0-100 scale.
// "X/Y" divides and scales, "P%" strips the sign. Malformed values and
// unrecognized sources normalize to nothing rather than an error.
func NormalizeRating(source, value string) (float64, bool) {
	switch source {
	case sourceIMDB, sourceMetacritic:
		num, den, ok := splitFraction(value)
		if !ok || den == 0 {
			return 0, false
		}
		return (num / den) * 100, true
	case sourceRottenToma:
		if !strings.HasSuffix(value, "%") {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func splitFraction(value string) (num, den float64, ok bool) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	den, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return num, den, true
}

// ExtractRatings normalizes the recognized rating sources from a detail
// record, rounded to two decimals. Sources with no parseable value are absent
// from the map.
func ExtractRatings(detail domain.Detail) map[string]float64 {
	ratings := make(map[string]float64, len(ratingSources))
	for _, source := range ratingSources {
		raw, ok := detail.RawRatings[source]
		if !ok || raw == "" {
			continue
		}
		normalized, ok := NormalizeRating(source, raw)
		if !ok {
			continue
		}
		ratings[source] = round2(normalized)
	}
	return ratings
}

// AverageRating is the arithmetic mean of the normalized ratings, rounded to
// two decimals. No ratings means no average, which is distinct from zero.
func AverageRating(ratings map[string]float64) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	var sum float64
	for _, score := range ratings {
		sum += score
	}
	avg := round2(sum / float64(len(ratings)))
	return &avg
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// ParseBoxOffice extracts the integer dollar value from a currency label like
// "$858,373,000". Absent or "N/A" labels parse to zero.
func ParseBoxOffice(label string) int64 {
	if label == "" || label == "N/A" {
		return 0
	}
	var digits strings.Builder
	for _, ch := range label {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// imdbScaleRating reads the provider's native 0-10 rating out of the raw
// ratings. Absent or unparseable values read as zero.
func imdbScaleRating(detail domain.Detail) float64 {
	raw, ok := detail.RawRatings[sourceIMDB]
	if !ok {
		return 0
	}
	num, den, ok := splitFraction(raw)
	if !ok || den == 0 {
		return 0
	}
	return num * (10 / den)
}

// yearValue parses the leading four digits of a year label, which may be a
// range like "2008-2013" for series. Unparseable years read as zero.
func yearValue(year string) int {
	trimmed := strings.TrimSpace(year)
	if len(trimmed) > 4 {
		trimmed = trimmed[:4]
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0
	}
	return parsed
}

// fetchDetail is the cache-aside detail lookup: hit the detail namespace
// first, fall back to the provider, store on success. Reports whether the
// record came from cache.
func (s *Service) fetchDetail(ctx context.Context, identifier string) (domain.Detail, bool, error) {
	key := cache.DetailKey(identifier)

	var cached domain.Detail
	if cache.GetJSON(ctx, s.store, key, &cached) {
		metrics.CacheHitsTotal.WithLabelValues("detail").Inc()
		return cached, true, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("detail").Inc()

	detail, err := s.fetchDetailDirect(ctx, identifier)
	if err != nil {
		return domain.Detail{}, false, err
	}
	cache.SetJSON(ctx, s.store, key, detail, s.ttl)
	return detail, false, nil
}

// enrichFilter is applied while joining candidates with details. A candidate
// that fails any predicate is dropped from the enriched set.
type enrichFilter struct {
	// Year, when set, requires an exact match against the detail's year
	// (or a prefix match for series ranges when prefixYear is set).
	Year       string
	prefixYear bool
	// Language, when set, must appear as a substring of the detail's
	// language list, case-insensitively.
	Language string
	// Genre, when set, must appear as a substring of the joined genre
	// list, case-insensitively.
	Genre string
	// MinRating drops titles whose native 0-10 rating is below the bound.
	MinRating *float64
}

func (f enrichFilter) keep(detail domain.Detail) bool {
	if f.Year != "" {
		year := strings.TrimSpace(detail.Year)
		if f.prefixYear {
			if !strings.HasPrefix(year, f.Year) {
				return false
			}
		} else if year != f.Year {
			return false
		}
	}
	if f.Language != "" && !strings.Contains(strings.ToLower(detail.Language), strings.ToLower(f.Language)) {
		return false
	}
	if f.Genre != "" {
		joined := strings.ToLower(strings.Join(detail.Genres, ", "))
		if !strings.Contains(joined, strings.ToLower(f.Genre)) {
			return false
		}
	}
	if f.MinRating != nil && imdbScaleRating(detail) < *f.MinRating {
		return false
	}
	return true
}

func enrichedFromDetail(detail domain.Detail, score float64) domain.EnrichedResult {
	ratings := ExtractRatings(detail)
	return domain.EnrichedResult{
		ID:             detail.ID,
		Title:          detail.Title,
		Year:           detail.Year,
		Poster:         detail.Poster,
		Genres:         detail.Genres,
		Plot:           detail.Plot,
		Director:       detail.Director,
		Language:       detail.Language,
		Runtime:        detail.Runtime,
		Released:       detail.Released,
		Ratings:        ratings,
		AverageRating:  AverageRating(ratings),
		BoxOfficeValue: ParseBoxOffice(detail.BoxOfficeRaw),
		BoxOfficeLabel: boxOfficeLabel(detail.BoxOfficeRaw),
		MatchScore:     score,
	}
}

func boxOfficeLabel(raw string) string {
	if raw == "" {
		return "N/A"
	}
	return raw
}

// enrichCandidates joins candidates with their detail records, applying the
// filter and preserving candidate order. Detail lookups run concurrently
// under the service-wide semaphore; failed or filtered candidates leave gaps
// that are compacted out.
func (s *Service) enrichCandidates(ctx context.Context, candidates []scoredCandidate, filter enrichFilter) []domain.EnrichedResult {
	slots := make([]*domain.EnrichedResult, len(candidates))
	var wg sync.WaitGroup

	for i, candidate := range candidates {
		identifier := candidate.Identifier()
		if identifier == "" {
			continue
		}
		if err := s.detailSem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(slot int, identifier string, score float64) {
			defer wg.Done()
			defer s.detailSem.Release(1)

			detail, _, err := s.fetchDetail(ctx, identifier)
			if err != nil {
				metrics.EnrichmentDropsTotal.WithLabelValues("detail_unavailable").Inc()
				s.logger.Debug("detail lookup failed during enrichment", "identifier", identifier, "error", err)
				return
			}
			if !filter.keep(detail) {
				metrics.EnrichmentDropsTotal.WithLabelValues("filtered").Inc()
				return
			}
			enriched := enrichedFromDetail(detail, score)
			slots[slot] = &enriched
		}(i, identifier, candidate.Score)
	}
	wg.Wait()

	results := make([]domain.EnrichedResult, 0, len(candidates))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	return results
}
