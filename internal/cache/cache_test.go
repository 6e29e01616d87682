package cache

import (
	"context"
	"testing"
	"time"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	SetJSON(ctx, store, "k", record{Name: "dune", Count: 3}, time.Minute)

	var got record
	if !GetJSON(ctx, store, "k", &got) {
		t.Fatal("expected a hit")
	}
	if got.Name != "dune" || got.Count != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestGetJSONVersionMismatchIsMiss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "k", []byte(`{"v":2,"payload":{"name":"stale"}}`), time.Minute)

	var got record
	if GetJSON(ctx, store, "k", &got) {
		t.Fatal("version mismatch must read as a miss")
	}
}

func TestGetJSONMalformedEnvelopeIsMiss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "k", []byte(`not json`), time.Minute)

	var got record
	if GetJSON(ctx, store, "k", &got) {
		t.Fatal("malformed envelope must read as a miss")
	}
}

func TestGetJSONNilStoreIsMiss(t *testing.T) {
	var got record
	if GetJSON(context.Background(), nil, "k", &got) {
		t.Fatal("nil store must read as a miss")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("expired entry must not be readable")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), time.Minute)
	store.Delete(ctx, "k")

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("deleted entry must not be readable")
	}
}

func TestKeyBuildersNormalize(t *testing.T) {
	if got := DetailKey("  TT0848228 "); got != "detail:tt0848228" {
		t.Fatalf("unexpected detail key %q", got)
	}
	if got := SimilarKey("TT0848228"); got != "similar:tt0848228" {
		t.Fatalf("unexpected similar key %q", got)
	}
	if got := RatingSummaryKey("The Godfather"); got != "rating-summary:the godfather" {
		t.Fatalf("unexpected summary key %q", got)
	}
	if got := SearchDatasetKey("Dune", 2, 10, "movie", "2021", "", "relevance"); got != "search-dataset:dune:2:10:movie:2021::relevance" {
		t.Fatalf("unexpected search key %q", got)
	}
	if got := GenreDatasetKey("Action", 1, "", "", "none", "rating_desc"); got != "genre-dataset:action:1:::none:rating_desc" {
		t.Fatalf("unexpected genre key %q", got)
	}
}

func TestBoxOfficeDatasetKeySeeds(t *testing.T) {
	if got := BoxOfficeDatasetKey("", ""); got != "boxoffice-dataset:default:any" {
		t.Fatalf("unexpected default key %q", got)
	}
	if got := BoxOfficeDatasetKey("", "Action"); got != "boxoffice-dataset:default:action" {
		t.Fatalf("unexpected genre key %q", got)
	}
	// A query-seeded dataset ignores the genre filter for cache identity.
	if got := BoxOfficeDatasetKey("Avengers", "Action"); got != "boxoffice-dataset:avengers:any" {
		t.Fatalf("unexpected query key %q", got)
	}
}
