package pipeline

import (
	"testing"

	"moviescout/discoveryservice/internal/domain"
)

func TestNormalizeRatingFractionScalesTo100(t *testing.T) {
	got, ok := NormalizeRating("Internet Movie Database", "8/10")
	if !ok || got != 80 {
		t.Fatalf("expected 80, got %v ok=%v", got, ok)
	}
}

func TestNormalizeRatingPercentStripsSign(t *testing.T) {
	got, ok := NormalizeRating("Rotten Tomatoes", "95%")
	if !ok || got != 95 {
		t.Fatalf("expected 95, got %v ok=%v", got, ok)
	}
}

func TestNormalizeRatingMetacriticFraction(t *testing.T) {
	got, ok := NormalizeRating("Metacritic", "90/100")
	if !ok || got != 90 {
		t.Fatalf("expected 90, got %v ok=%v", got, ok)
	}
}

func TestNormalizeRatingMalformedValues(t *testing.T) {
	cases := []struct {
		source string
		value  string
	}{
		{"Internet Movie Database", "N/A"},
		{"Internet Movie Database", "8.8"},
		{"Internet Movie Database", "x/10"},
		{"Internet Movie Database", "8/0"},
		{"Rotten Tomatoes", "95"},
		{"Rotten Tomatoes", "fresh%"},
		{"Letterboxd", "4/5"},
	}
	for _, tc := range cases {
		if got, ok := NormalizeRating(tc.source, tc.value); ok {
			t.Fatalf("expected %q %q to be unparseable, got %v", tc.source, tc.value, got)
		}
	}
}

func TestExtractRatingsSkipsUnknownSources(t *testing.T) {
	detail := domain.Detail{RawRatings: map[string]string{
		"Internet Movie Database": "8.8/10",
		"Rotten Tomatoes":         "87%",
		"Letterboxd":              "4.5/5",
	}}
	got := ExtractRatings(detail)
	if len(got) != 2 {
		t.Fatalf("expected 2 ratings, got %v", got)
	}
	if got["Internet Movie Database"] != 88 {
		t.Fatalf("expected 88, got %v", got["Internet Movie Database"])
	}
	if got["Rotten Tomatoes"] != 87 {
		t.Fatalf("expected 87, got %v", got["Rotten Tomatoes"])
	}
}

func TestAverageRatingRoundsToTwoDecimals(t *testing.T) {
	got := AverageRating(map[string]float64{"a": 80, "b": 95, "c": 90})
	if got == nil || *got != 88.33 {
		t.Fatalf("expected 88.33, got %v", got)
	}
}

func TestAverageRatingEmptyIsNil(t *testing.T) {
	if got := AverageRating(nil); got != nil {
		t.Fatalf("expected nil average, got %v", *got)
	}
}

func TestParseBoxOffice(t *testing.T) {
	cases := []struct {
		label string
		want  int64
	}{
		{"$858,373,000", 858373000},
		{"N/A", 0},
		{"", 0},
		{"unknown", 0},
		{"$1", 1},
	}
	for _, tc := range cases {
		if got := ParseBoxOffice(tc.label); got != tc.want {
			t.Fatalf("ParseBoxOffice(%q) = %d, want %d", tc.label, got, tc.want)
		}
	}
}

func TestYearValueParsesRanges(t *testing.T) {
	if got := yearValue("2008-2013"); got != 2008 {
		t.Fatalf("expected 2008, got %d", got)
	}
	if got := yearValue("1999"); got != 1999 {
		t.Fatalf("expected 1999, got %d", got)
	}
	if got := yearValue("N/A"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestImdbScaleRating(t *testing.T) {
	detail := domain.Detail{RawRatings: map[string]string{
		"Internet Movie Database": "7.5/10",
	}}
	if got := imdbScaleRating(detail); got != 7.5 {
		t.Fatalf("expected 7.5, got %v", got)
	}
	if got := imdbScaleRating(domain.Detail{}); got != 0 {
		t.Fatalf("expected 0 for missing rating, got %v", got)
	}
}

func TestEnrichFilterYear(t *testing.T) {
	detail := domain.Detail{Year: "2008-2013", Language: "English, French"}

	exact := enrichFilter{Year: "2008"}
	if exact.keep(detail) {
		t.Fatal("exact year filter should reject range year")
	}

	prefix := enrichFilter{Year: "2008", prefixYear: true}
	if !prefix.keep(detail) {
		t.Fatal("prefix year filter should accept range year")
	}
}

func TestEnrichFilterLanguageSubstring(t *testing.T) {
	detail := domain.Detail{Language: "English, French"}
	if !(enrichFilter{Language: "french"}).keep(detail) {
		t.Fatal("language filter should match case-insensitively")
	}
	if (enrichFilter{Language: "german"}).keep(detail) {
		t.Fatal("language filter should reject non-matching language")
	}
}

func TestEnrichFilterGenreMembership(t *testing.T) {
	detail := domain.Detail{Genres: []string{"Action", "Sci-Fi"}}
	if !(enrichFilter{Genre: "sci-fi"}).keep(detail) {
		t.Fatal("genre filter should match case-insensitively")
	}
	if (enrichFilter{Genre: "comedy"}).keep(detail) {
		t.Fatal("genre filter should reject non-member")
	}
}

func TestEnrichFilterMinRating(t *testing.T) {
	detail := domain.Detail{RawRatings: map[string]string{
		"Internet Movie Database": "6.0/10",
	}}
	low := 5.0
	high := 7.0
	if !(enrichFilter{MinRating: &low}).keep(detail) {
		t.Fatal("rating 6.0 should pass threshold 5.0")
	}
	if (enrichFilter{MinRating: &high}).keep(detail) {
		t.Fatal("rating 6.0 should fail threshold 7.0")
	}
}

func TestEnrichedFromDetailComputesSignals(t *testing.T) {
	detail := domain.Detail{
		ID:    "tt0499549",
		Title: "Avatar",
		Year:  "2009",
		RawRatings: map[string]string{
			"Internet Movie Database": "7.9/10",
			"Rotten Tomatoes":         "82%",
		},
		BoxOfficeRaw: "$785,221,649",
	}
	got := enrichedFromDetail(detail, 0.75)
	if got.BoxOfficeValue != 785221649 {
		t.Fatalf("expected box office value, got %d", got.BoxOfficeValue)
	}
	if got.BoxOfficeLabel != "$785,221,649" {
		t.Fatalf("unexpected label %q", got.BoxOfficeLabel)
	}
	if got.AverageRating == nil || *got.AverageRating != 80.5 {
		t.Fatalf("expected average 80.5, got %v", got.AverageRating)
	}
	if got.MatchScore != 0.75 {
		t.Fatalf("expected score carried through, got %v", got.MatchScore)
	}
}

func TestEnrichedFromDetailMissingBoxOffice(t *testing.T) {
	got := enrichedFromDetail(domain.Detail{ID: "tt1", Title: "X"}, 0)
	if got.BoxOfficeValue != 0 || got.BoxOfficeLabel != "N/A" {
		t.Fatalf("expected zero value with N/A label, got %d %q", got.BoxOfficeValue, got.BoxOfficeLabel)
	}
	if got.AverageRating != nil {
		t.Fatalf("expected nil average, got %v", *got.AverageRating)
	}
}
