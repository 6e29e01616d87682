package domain

// Candidate is a lightweight, unverified reference to a title returned by a
// term search, prior to detail enrichment. Candidates are ephemeral: they live
// for one pipeline invocation and are deduplicated by lower-cased identifier
// (falling back to the lower-cased title when no identifier exists).
type Candidate struct {
	ID     string `json:"imdb_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Year   string `json:"year,omitempty"`
	Poster string `json:"poster,omitempty"`
}

// Detail is the full metadata record for one title, fetched once and cached.
// A Detail is immutable after creation within its TTL window; recomputation
// replaces, never edits in place.
type Detail struct {
	ID           string            `json:"imdb_id"`
	Title        string            `json:"title"`
	Year         string            `json:"year,omitempty"`
	Poster       string            `json:"poster,omitempty"`
	Runtime      string            `json:"runtime,omitempty"`
	Genres       []string          `json:"genres,omitempty"`
	Plot         string            `json:"plot,omitempty"`
	Director     string            `json:"director,omitempty"`
	Writer       string            `json:"writer,omitempty"`
	Actors       string            `json:"actors,omitempty"`
	RawRatings   map[string]string `json:"raw_ratings,omitempty"`
	BoxOfficeRaw string            `json:"box_office_raw,omitempty"`
	Released     string            `json:"released,omitempty"`
	Language     string            `json:"language,omitempty"`
	Awards       string            `json:"awards,omitempty"`
}

// EnrichedResult is a Candidate joined with its Detail, normalized rating
// signals, parsed financials and a fuzzy match score. It is the unit that gets
// filtered, sorted and paginated.
type EnrichedResult struct {
	ID             string             `json:"imdb_id,omitempty"`
	Title          string             `json:"title"`
	Year           string             `json:"year,omitempty"`
	Poster         string             `json:"poster,omitempty"`
	Genres         []string           `json:"genres,omitempty"`
	Plot           string             `json:"plot,omitempty"`
	Director       string             `json:"director,omitempty"`
	Language       string             `json:"language,omitempty"`
	Runtime        string             `json:"runtime,omitempty"`
	Released       string             `json:"released,omitempty"`
	Ratings        map[string]float64 `json:"ratings,omitempty"`
	AverageRating  *float64           `json:"average_rating"`
	BoxOfficeValue int64              `json:"box_office"`
	BoxOfficeLabel string             `json:"box_office_label,omitempty"`
	MatchScore     float64            `json:"match_score"`
}

type SortMode string

const (
	SortRelevance     SortMode = "relevance"
	SortRecent        SortMode = "recent"
	SortRating        SortMode = "rating"
	SortRatingDesc    SortMode = "rating_desc"
	SortRatingAsc     SortMode = "rating_asc"
	SortYearDesc      SortMode = "year_desc"
	SortYearAsc       SortMode = "year_asc"
	SortTitleAsc      SortMode = "title_asc"
	SortTitleDesc     SortMode = "title_desc"
	SortBoxOfficeDesc SortMode = "box_office_desc"
	SortBoxOfficeAsc  SortMode = "box_office_asc"
)

var searchSortModes = map[SortMode]struct{}{
	SortRelevance: {},
	SortRecent:    {},
	SortRating:    {},
}

var genreSortModes = map[SortMode]struct{}{
	SortRatingDesc: {},
	SortRatingAsc:  {},
	SortYearDesc:   {},
	SortYearAsc:    {},
	SortTitleAsc:   {},
	SortTitleDesc:  {},
}

var boxOfficeSortModes = map[SortMode]struct{}{
	SortBoxOfficeDesc: {},
	SortBoxOfficeAsc:  {},
	SortRatingDesc:    {},
	SortRatingAsc:     {},
	SortTitleAsc:      {},
	SortTitleDesc:     {},
}

// ValidSearchSort reports whether raw is an accepted free-text search sort
// mode. Empty input selects the default. Unknown modes are rejected rather
// than coerced: a bad sort on /api/search is a validation error.
func ValidSearchSort(raw string) (SortMode, bool) {
	if raw == "" {
		return SortRelevance, true
	}
	mode := SortMode(raw)
	_, ok := searchSortModes[mode]
	return mode, ok
}

// NormalizeGenreSort falls back to rating_desc for unrecognized modes.
func NormalizeGenreSort(raw string) SortMode {
	mode := SortMode(raw)
	if _, ok := genreSortModes[mode]; ok {
		return mode
	}
	return SortRatingDesc
}

// NormalizeBoxOfficeSort falls back to box_office_desc for unrecognized modes.
func NormalizeBoxOfficeSort(raw string) SortMode {
	mode := SortMode(raw)
	if _, ok := boxOfficeSortModes[mode]; ok {
		return mode
	}
	return SortBoxOfficeDesc
}

type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeSeries  MediaType = "series"
	MediaTypeEpisode MediaType = "episode"
)

// ValidMediaType accepts the empty string (no filter) and the three OMDb
// media types.
func ValidMediaType(raw string) bool {
	switch MediaType(raw) {
	case "", MediaTypeMovie, MediaTypeSeries, MediaTypeEpisode:
		return true
	default:
		return false
	}
}

type SearchRequest struct {
	Query     string
	Page      int
	PerPage   int
	MediaType string
	Year      string
	Language  string
	Sort      SortMode
}

type SearchFilters struct {
	MediaType string `json:"type,omitempty"`
	Year      string `json:"year,omitempty"`
	Language  string `json:"language,omitempty"`
}

type SearchResponse struct {
	Query        string           `json:"query"`
	Page         int              `json:"page"`
	PerPage      int              `json:"per_page"`
	Results      []EnrichedResult `json:"results"`
	TotalResults int              `json:"total_results"`
	TotalPages   int              `json:"total_pages"`
	HasNext      bool             `json:"has_next"`
	HasPrev      bool             `json:"has_prev"`
	Variants     []string         `json:"variants,omitempty"`
	Filters      SearchFilters    `json:"filters"`
	Message      string           `json:"message,omitempty"`
	Cached       bool             `json:"cached"`
}

type GenreRequest struct {
	Genre     string
	Page      int
	Year      string
	Language  string
	MinRating *float64
	Sort      SortMode
}

type GenreFilters struct {
	Year     string   `json:"year,omitempty"`
	Language string   `json:"language,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Sort     SortMode `json:"sort"`
}

type GenreResponse struct {
	Genre      string           `json:"genre"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	Results    []EnrichedResult `json:"results"`
	TotalCount int              `json:"total_count"`
	TotalPages int              `json:"total_pages"`
	HasPrev    bool             `json:"has_prev"`
	HasNext    bool             `json:"has_next"`
	Filters    GenreFilters     `json:"filters"`
	Message    string           `json:"message,omitempty"`
	Cached     bool             `json:"cached"`
}

type BoxOfficeRequest struct {
	Query string
	Page  int
	Genre string
	Sort  SortMode
}

type BoxOfficeFilters struct {
	Genre string   `json:"genre,omitempty"`
	Sort  SortMode `json:"sort"`
}

type ChartPoint struct {
	Title     string `json:"title"`
	BoxOffice int64  `json:"box_office"`
}

type BoxOfficeMetrics struct {
	TotalBoxOffice   int64   `json:"total_box_office"`
	AverageBoxOffice float64 `json:"average_box_office"`
	TopBoxOffice     string  `json:"top_box_office"`
}

type BoxOfficeResponse struct {
	Query       string           `json:"query"`
	Page        int              `json:"page"`
	PerPage     int              `json:"per_page"`
	Results     []EnrichedResult `json:"results"`
	TotalCount  int              `json:"total_count"`
	TotalPages  int              `json:"total_pages"`
	HasPrev     bool             `json:"has_prev"`
	HasNext     bool             `json:"has_next"`
	Chart       []ChartPoint     `json:"chart"`
	Recommended []EnrichedResult `json:"recommended"`
	Metrics     BoxOfficeMetrics `json:"metrics"`
	Filters     BoxOfficeFilters `json:"filters"`
	Cached      bool             `json:"cached"`
}

// MovieResponse is the full per-title payload for /api/movie/{id}.
type MovieResponse struct {
	Movie         Detail             `json:"movie"`
	Ratings       map[string]float64 `json:"ratings"`
	AverageRating *float64           `json:"average_rating"`
	BoxOffice     int64              `json:"box_office"`
	Similar       []SimilarMovie     `json:"similar_movies"`
	Cached        bool               `json:"cached"`
}

type SimilarMovie struct {
	ID            string   `json:"imdb_id,omitempty"`
	Title         string   `json:"title"`
	Year          string   `json:"year,omitempty"`
	Poster        string   `json:"poster,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	AverageRating *float64 `json:"average_rating"`
}

type RatingSummary struct {
	ID      string             `json:"imdb_id,omitempty"`
	Title   string             `json:"title"`
	Year    string             `json:"year,omitempty"`
	Poster  string             `json:"poster,omitempty"`
	Ratings map[string]float64 `json:"ratings,omitempty"`
	Average *float64           `json:"average"`
	Cached  bool               `json:"cached"`
}

type RatingSummaryError struct {
	Target string `json:"target"`
	Error  string `json:"error"`
}

type RatingSummaryResponse struct {
	Results []RatingSummary      `json:"results"`
	Count   int                  `json:"count"`
	Errors  []RatingSummaryError `json:"errors,omitempty"`
}

type MovieGenresResponse struct {
	Movie  Candidate `json:"movie"`
	Genres []string  `json:"genres"`
	Cached bool      `json:"cached"`
}

// ProviderDiagnostics mirrors the pipeline's per-provider health state for the
// diagnostics endpoint.
type ProviderDiagnostics struct {
	Name                string `json:"name"`
	Configured          bool   `json:"configured"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	BlockedUntil        string `json:"blocked_until,omitempty"`
	LastError           string `json:"last_error,omitempty"`
	LastLatencyMS       int64  `json:"last_latency_ms,omitempty"`
	TotalRequests       int64  `json:"total_requests"`
	TotalFailures       int64  `json:"total_failures"`
}
