package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/providers/omdb"
)

type fakeMovies struct {
	pages       map[string][]omdb.SearchPage
	details     map[string]domain.Detail
	searchErr   error
	searchCalls atomic.Int32
	detailCalls atomic.Int32
}

func (f *fakeMovies) SearchByTerm(_ context.Context, term string, page int, _ omdb.SearchFilter) (omdb.SearchPage, error) {
	f.searchCalls.Add(1)
	if f.searchErr != nil {
		return omdb.SearchPage{}, f.searchErr
	}
	pages := f.pages[strings.ToLower(term)]
	if page < 1 || page > len(pages) {
		return omdb.SearchPage{}, nil
	}
	return pages[page-1], nil
}

func (f *fakeMovies) GetDetails(_ context.Context, identifier string) (domain.Detail, error) {
	f.detailCalls.Add(1)
	detail, ok := f.details[strings.ToLower(identifier)]
	if !ok {
		return domain.Detail{}, fmt.Errorf("%w: %s", omdb.ErrNotFound, identifier)
	}
	return detail, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(movies *fakeMovies, opts ...ServiceOption) *Service {
	opts = append([]ServiceOption{WithLogger(testLogger())}, opts...)
	return NewService(movies, cache.NewMemoryStore(), opts...)
}

// fifteenMovies builds one provider dataset: the term and its plural variant
// answer overlapping pages totalling 15 unique candidates, each with a detail
// record.
func fifteenMovies() *fakeMovies {
	movies := &fakeMovies{
		pages:   map[string][]omdb.SearchPage{},
		details: map[string]domain.Detail{},
	}
	var first, second []domain.Candidate
	for i := 1; i <= 15; i++ {
		id := fmt.Sprintf("tt%04d", i)
		candidate := domain.Candidate{
			ID:    id,
			Title: fmt.Sprintf("Avenger %d", i),
			Year:  fmt.Sprintf("%d", 2000+i),
		}
		if i <= 10 {
			first = append(first, candidate)
		} else {
			second = append(second, candidate)
		}
		movies.details[id] = domain.Detail{
			ID:    id,
			Title: candidate.Title,
			Year:  candidate.Year,
			RawRatings: map[string]string{
				"Internet Movie Database": fmt.Sprintf("%d.0/10", 5+i%5),
			},
			BoxOfficeRaw: fmt.Sprintf("$%d,000,000", i),
			Language:     "English",
			Genres:       []string{"Action"},
		}
	}
	// The plural variant repeats a few first-page entries to exercise dedup.
	movies.pages["avenger"] = []omdb.SearchPage{{Candidates: first, TotalHint: 15}}
	movies.pages["avengers"] = []omdb.SearchPage{{Candidates: append(first[8:10:10], second...), TotalHint: 7}}
	return movies
}

func TestSearchAggregatesDeduplicatesAndPaginates(t *testing.T) {
	service := newTestService(fifteenMovies())

	response, err := service.Search(context.Background(), domain.SearchRequest{
		Query: "Avenger", Page: 1, PerPage: 10,
	})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if response.TotalResults != 15 {
		t.Fatalf("expected 15 unique results, got %d", response.TotalResults)
	}
	if response.TotalPages != 2 {
		t.Fatalf("expected 2 pages, got %d", response.TotalPages)
	}
	if len(response.Results) != 10 {
		t.Fatalf("expected 10 results on page 1, got %d", len(response.Results))
	}
	if !response.HasNext || response.HasPrev {
		t.Fatalf("unexpected neighbors: next=%v prev=%v", response.HasNext, response.HasPrev)
	}
	for i := 1; i < len(response.Results); i++ {
		if response.Results[i].MatchScore > response.Results[i-1].MatchScore {
			t.Fatalf("results not sorted by relevance at index %d", i)
		}
	}
	if len(response.Variants) == 0 || response.Variants[0] != "Avenger" {
		t.Fatalf("expected original term first in variants, got %v", response.Variants)
	}
}

func TestSearchSecondCallServedFromCache(t *testing.T) {
	movies := fifteenMovies()
	service := newTestService(movies)

	request := domain.SearchRequest{Query: "Avenger", Page: 1, PerPage: 10}
	first, err := service.Search(context.Background(), request)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if first.Cached {
		t.Fatal("first response must not be cached")
	}
	callsAfterFirst := movies.searchCalls.Load()

	second, err := service.Search(context.Background(), request)
	if err != nil {
		t.Fatalf("cached search error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second response should come from cache")
	}
	if movies.searchCalls.Load() != callsAfterFirst {
		t.Fatal("cached response must not touch the provider")
	}
	if second.TotalResults != first.TotalResults || len(second.Results) != len(first.Results) {
		t.Fatal("cached response differs from original")
	}
}

func TestSearchValidation(t *testing.T) {
	service := newTestService(&fakeMovies{})

	cases := []struct {
		name    string
		request domain.SearchRequest
		want    error
	}{
		{"empty query", domain.SearchRequest{Query: "  "}, ErrInvalidQuery},
		{"long query", domain.SearchRequest{Query: strings.Repeat("x", 101)}, ErrQueryTooLong},
		{"bad type", domain.SearchRequest{Query: "dune", MediaType: "cartoon"}, ErrInvalidMediaType},
		{"bad year", domain.SearchRequest{Query: "dune", Year: "199x"}, ErrInvalidYear},
	}
	for _, tc := range cases {
		if _, err := service.Search(context.Background(), tc.request); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestSearchSingularVariantBroadensQuery(t *testing.T) {
	movies := &fakeMovies{
		pages: map[string][]omdb.SearchPage{
			// Only the singular variant of "carss" matches anything.
			"cars": {{Candidates: []domain.Candidate{{ID: "tt0317219", Title: "Cars", Year: "2006"}}}},
		},
		details: map[string]domain.Detail{
			"tt0317219": {ID: "tt0317219", Title: "Cars", Year: "2006"},
		},
	}
	service := newTestService(movies)

	response, err := service.Search(context.Background(), domain.SearchRequest{Query: "carss"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if response.TotalResults != 1 || response.Results[0].ID != "tt0317219" {
		t.Fatalf("expected variant hit, got %+v", response)
	}
}

func TestSearchNoResultsMessage(t *testing.T) {
	service := newTestService(&fakeMovies{})

	response, err := service.Search(context.Background(), domain.SearchRequest{Query: "zzzz"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if response.Message != "No results found." {
		t.Fatalf("expected no-results message, got %q", response.Message)
	}
	if response.Results == nil || len(response.Results) != 0 {
		t.Fatalf("expected empty results slice, got %v", response.Results)
	}
}

func TestSearchLanguageFilterDropsMismatches(t *testing.T) {
	movies := fifteenMovies()
	// One title switches language.
	detail := movies.details["tt0001"]
	detail.Language = "French"
	movies.details["tt0001"] = detail
	service := newTestService(movies)

	response, err := service.Search(context.Background(), domain.SearchRequest{
		Query: "Avenger", Language: "french",
	})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if response.TotalResults != 1 || response.Results[0].ID != "tt0001" {
		t.Fatalf("expected only the French title, got %+v", response.Results)
	}
}

func TestBrowseGenreEmptyPoolIsNotFound(t *testing.T) {
	service := newTestService(&fakeMovies{})

	_, err := service.BrowseGenre(context.Background(), domain.GenreRequest{Genre: "western"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBrowseGenrePinsCuratedAndConfirmsMembership(t *testing.T) {
	movies := &fakeMovies{
		pages:   map[string][]omdb.SearchPage{},
		details: map[string]domain.Detail{},
	}
	// Details for the first three curated action titles; the rest resolve
	// to not-found and drop out during enrichment.
	curated := genreCuratedIDs["action"][:3]
	for i, id := range curated {
		movies.details[id] = domain.Detail{
			ID:     id,
			Title:  fmt.Sprintf("Curated %d", i+1),
			Year:   "2012",
			Genres: []string{"Action"},
			RawRatings: map[string]string{
				"Internet Movie Database": "8.0/10",
			},
		}
	}
	// A dynamically discovered member plus junk that names the genre.
	movies.pages["action movie"] = []omdb.SearchPage{{Candidates: []domain.Candidate{
		{ID: "tt9000001", Title: "Heat", Year: "1995"},
		{ID: "tt9000002", Title: "Action Movie: The Movie", Year: "2010"},
		{ID: "tt9000003", Title: "Romance Only", Year: "2011"},
	}}}
	movies.details["tt9000001"] = domain.Detail{
		ID: "tt9000001", Title: "Heat", Year: "1995", Genres: []string{"Crime", "Action"},
		RawRatings: map[string]string{"Internet Movie Database": "8.3/10"},
	}
	movies.details["tt9000002"] = domain.Detail{
		ID: "tt9000002", Title: "Action Movie: The Movie", Year: "2010", Genres: []string{"Action"},
	}
	movies.details["tt9000003"] = domain.Detail{
		ID: "tt9000003", Title: "Romance Only", Year: "2011", Genres: []string{"Romance"},
	}
	service := newTestService(movies)

	response, err := service.BrowseGenre(context.Background(), domain.GenreRequest{Genre: "action"})
	if err != nil {
		t.Fatalf("browse error: %v", err)
	}
	if response.TotalCount != 4 {
		t.Fatalf("expected 4 confirmed members, got %d", response.TotalCount)
	}
	for i := 0; i < 3; i++ {
		if response.Results[i].ID != curated[i] {
			t.Fatalf("expected curated id %s at %d, got %s", curated[i], i, response.Results[i].ID)
		}
	}
	if response.Results[3].ID != "tt9000001" {
		t.Fatalf("expected dynamic member last, got %s", response.Results[3].ID)
	}
	for _, result := range response.Results {
		if result.ID == "tt9000002" {
			t.Fatal("genre-named title should be excluded")
		}
		if result.ID == "tt9000003" {
			t.Fatal("non-member should be excluded")
		}
	}
}

func TestBrowseGenreUnknownSortFallsBack(t *testing.T) {
	movies := &fakeMovies{
		pages:   map[string][]omdb.SearchPage{},
		details: map[string]domain.Detail{},
	}
	id := genreCuratedIDs["drama"][0]
	movies.details[id] = domain.Detail{ID: id, Title: "Kept", Genres: []string{"Drama"}}
	service := newTestService(movies)

	response, err := service.BrowseGenre(context.Background(), domain.GenreRequest{
		Genre: "drama", Sort: domain.SortMode("bogus"),
	})
	if err != nil {
		t.Fatalf("browse error: %v", err)
	}
	if response.Filters.Sort != domain.SortRatingDesc {
		t.Fatalf("expected rating_desc fallback, got %s", response.Filters.Sort)
	}
}

func TestTopBoxOfficeQuerySeededDataset(t *testing.T) {
	movies := &fakeMovies{
		pages: map[string][]omdb.SearchPage{
			"avengers": {{Candidates: []domain.Candidate{
				{ID: "tt0848228", Title: "The Avengers"},
				{ID: "tt4154796", Title: "Avengers: Endgame"},
				{ID: "tt2395427", Title: "Avengers: Age of Ultron"},
			}}},
		},
		details: map[string]domain.Detail{
			"tt0848228": {ID: "tt0848228", Title: "The Avengers", Director: "Joss Whedon", Genres: []string{"Action"}, BoxOfficeRaw: "$623,357,910"},
			"tt4154796": {ID: "tt4154796", Title: "Avengers: Endgame", Director: "Anthony Russo", Genres: []string{"Action"}, BoxOfficeRaw: "$858,373,000"},
			"tt2395427": {ID: "tt2395427", Title: "Avengers: Age of Ultron", Director: "Joss Whedon", Genres: []string{"Action"}, BoxOfficeRaw: "$459,005,868"},
		},
	}
	service := newTestService(movies)

	response, err := service.TopBoxOffice(context.Background(), domain.BoxOfficeRequest{Query: "Avengers"})
	if err != nil {
		t.Fatalf("box office error: %v", err)
	}
	if response.TotalCount != 3 {
		t.Fatalf("expected 3 results, got %d", response.TotalCount)
	}
	if response.Results[0].ID != "tt4154796" {
		t.Fatalf("expected highest grossing first, got %s", response.Results[0].ID)
	}
	wantTotal := int64(623357910 + 858373000 + 459005868)
	if response.Metrics.TotalBoxOffice != wantTotal {
		t.Fatalf("expected total %d, got %d", wantTotal, response.Metrics.TotalBoxOffice)
	}
	if response.Metrics.TopBoxOffice != "$858,373,000" {
		t.Fatalf("unexpected top label %q", response.Metrics.TopBoxOffice)
	}
	if len(response.Chart) != 3 || response.Chart[0].BoxOffice != 858373000 {
		t.Fatalf("unexpected chart: %+v", response.Chart)
	}
	// The leader's director has no other titles here, so the next best
	// results are recommended.
	if len(response.Recommended) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(response.Recommended))
	}
}

func TestTopBoxOfficeDatasetReusedAcrossSorts(t *testing.T) {
	movies := &fakeMovies{
		pages: map[string][]omdb.SearchPage{
			"alien": {{Candidates: []domain.Candidate{
				{ID: "tt0078748", Title: "Alien"},
				{ID: "tt0090605", Title: "Aliens"},
			}}},
		},
		details: map[string]domain.Detail{
			"tt0078748": {ID: "tt0078748", Title: "Alien", BoxOfficeRaw: "$81,900,459"},
			"tt0090605": {ID: "tt0090605", Title: "Aliens", BoxOfficeRaw: "$85,160,248"},
		},
	}
	service := newTestService(movies)

	first, err := service.TopBoxOffice(context.Background(), domain.BoxOfficeRequest{Query: "alien"})
	if err != nil {
		t.Fatalf("box office error: %v", err)
	}
	if first.Cached {
		t.Fatal("first dataset build must not be cached")
	}
	callsAfterFirst := movies.searchCalls.Load()

	second, err := service.TopBoxOffice(context.Background(), domain.BoxOfficeRequest{
		Query: "alien", Sort: domain.SortBoxOfficeAsc,
	})
	if err != nil {
		t.Fatalf("box office error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second request should reuse the cached dataset")
	}
	if movies.searchCalls.Load() != callsAfterFirst {
		t.Fatal("cached dataset must not touch the provider")
	}
	if second.Results[0].ID != "tt0078748" {
		t.Fatalf("expected ascending order, got %s first", second.Results[0].ID)
	}
}

func TestMovieDetailJoinsRatingsAndSimilar(t *testing.T) {
	movies := &fakeMovies{
		pages: map[string][]omdb.SearchPage{
			"action": {{Candidates: []domain.Candidate{
				{ID: "tt0848228", Title: "The Avengers"},
				{ID: "tt0468569", Title: "The Dark Knight"},
			}}},
		},
		details: map[string]domain.Detail{
			"tt0848228": {
				ID: "tt0848228", Title: "The Avengers", Genres: []string{"Action"},
				RawRatings:   map[string]string{"Internet Movie Database": "8.0/10", "Rotten Tomatoes": "91%"},
				BoxOfficeRaw: "$623,357,910",
			},
			"tt0468569": {ID: "tt0468569", Title: "The Dark Knight", Genres: []string{"Action"}},
		},
	}
	service := newTestService(movies)

	response, err := service.MovieDetail(context.Background(), "tt0848228")
	if err != nil {
		t.Fatalf("detail error: %v", err)
	}
	if response.Movie.Title != "The Avengers" {
		t.Fatalf("unexpected title %q", response.Movie.Title)
	}
	if response.AverageRating == nil || *response.AverageRating != 85.5 {
		t.Fatalf("expected average 85.5, got %v", response.AverageRating)
	}
	if response.BoxOffice != 623357910 {
		t.Fatalf("unexpected box office %d", response.BoxOffice)
	}
	if len(response.Similar) != 1 || response.Similar[0].ID != "tt0468569" {
		t.Fatalf("expected one similar title, got %+v", response.Similar)
	}
}

func TestMovieDetailNotFound(t *testing.T) {
	service := newTestService(&fakeMovies{})
	if _, err := service.MovieDetail(context.Background(), "tt0000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMovieDetailUsesCachedRecord(t *testing.T) {
	movies := &fakeMovies{
		pages: map[string][]omdb.SearchPage{},
		details: map[string]domain.Detail{
			"tt0111161": {ID: "tt0111161", Title: "The Shawshank Redemption"},
		},
	}
	service := newTestService(movies)

	first, err := service.MovieDetail(context.Background(), "tt0111161")
	if err != nil {
		t.Fatalf("detail error: %v", err)
	}
	if first.Cached {
		t.Fatal("first fetch must not be cached")
	}
	callsAfterFirst := movies.detailCalls.Load()

	second, err := service.MovieDetail(context.Background(), "tt0111161")
	if err != nil {
		t.Fatalf("detail error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second fetch should hit the detail cache")
	}
	if movies.detailCalls.Load() != callsAfterFirst {
		t.Fatal("cached detail must not touch the provider")
	}
}

func TestMovieGenres(t *testing.T) {
	movies := &fakeMovies{
		pages: map[string][]omdb.SearchPage{},
		details: map[string]domain.Detail{
			"inception": {ID: "tt1375666", Title: "Inception", Genres: []string{"Action", "Sci-Fi", "Thriller"}},
		},
	}
	service := newTestService(movies)

	response, err := service.MovieGenres(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("genres error: %v", err)
	}
	if len(response.Genres) != 3 || response.Genres[1] != "Sci-Fi" {
		t.Fatalf("unexpected genres %v", response.Genres)
	}
	if response.Movie.ID != "tt1375666" {
		t.Fatalf("unexpected movie id %q", response.Movie.ID)
	}
}

func TestRatingSummariesMixedTargets(t *testing.T) {
	movies := &fakeMovies{
		pages: map[string][]omdb.SearchPage{},
		details: map[string]domain.Detail{
			"tt0068646": {
				ID: "tt0068646", Title: "The Godfather",
				RawRatings: map[string]string{"Internet Movie Database": "9.2/10", "Rotten Tomatoes": "97%"},
			},
		},
	}
	service := newTestService(movies)

	response, err := service.RatingSummaries(context.Background(), []string{"tt0068646", "tt0000000"})
	if err != nil {
		t.Fatalf("summary error: %v", err)
	}
	if response.Count != 1 || len(response.Errors) != 1 {
		t.Fatalf("expected one summary and one error, got %+v", response)
	}
	if response.Errors[0].Target != "tt0000000" {
		t.Fatalf("unexpected error target %q", response.Errors[0].Target)
	}
	if got := response.Results[0].Average; got == nil || *got != 94.5 {
		t.Fatalf("expected average 94.5, got %v", got)
	}
}

func TestRatingSummariesAllFailedIsNotFound(t *testing.T) {
	service := newTestService(&fakeMovies{})
	response, err := service.RatingSummaries(context.Background(), []string{"tt0000001"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(response.Errors) != 1 {
		t.Fatalf("expected the per-target error to be reported, got %+v", response)
	}
}

func TestRatingSummariesNoTargets(t *testing.T) {
	service := newTestService(&fakeMovies{})
	if _, err := service.RatingSummaries(context.Background(), []string{" ", ""}); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestProviderBlockedAfterConsecutiveFailures(t *testing.T) {
	movies := &fakeMovies{searchErr: errors.New("upstream down")}
	service := newTestService(movies)

	for i := 0; i < providerFailureThreshold; i++ {
		if _, err := service.searchMovies(context.Background(), "dune", 1, omdb.SearchFilter{}); err == nil {
			t.Fatal("expected provider error")
		}
	}
	blocked, until, _ := service.isProviderBlocked(providerNameMovies, time.Now())
	if !blocked {
		t.Fatal("provider should be blocked after threshold failures")
	}
	if until.IsZero() {
		t.Fatal("blocked provider must carry a deadline")
	}

	callsBefore := movies.searchCalls.Load()
	if _, err := service.searchMovies(context.Background(), "dune", 1, omdb.SearchFilter{}); err == nil {
		t.Fatal("blocked provider should fail fast")
	}
	if movies.searchCalls.Load() != callsBefore {
		t.Fatal("blocked provider must not be called")
	}
}

func TestProviderRecoversAfterSuccess(t *testing.T) {
	movies := &fakeMovies{}
	service := newTestService(movies)

	service.recordProviderResult(providerNameMovies, errors.New("boom"), time.Millisecond, time.Now())
	service.recordProviderResult(providerNameMovies, nil, time.Millisecond, time.Now())

	diagnostics := service.ProviderDiagnostics()
	for _, item := range diagnostics {
		if item.Name == providerNameMovies && item.ConsecutiveFailures != 0 {
			t.Fatalf("expected failure streak reset, got %d", item.ConsecutiveFailures)
		}
	}
}
