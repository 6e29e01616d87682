package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/providers/omdb"
	"moviescout/discoveryservice/internal/providers/tmdb"
)

var (
	ErrInvalidQuery     = errors.New("query is required")
	ErrQueryTooLong     = errors.New("query must be 100 characters or fewer")
	ErrInvalidMediaType = errors.New("type must be one of movie, series, episode")
	ErrInvalidYear      = errors.New("year must be numeric")
	ErrInvalidSort      = errors.New("sort must be one of relevance, recent, rating")
	ErrInvalidRating    = errors.New("rating must be numeric")
	ErrInvalidTarget    = errors.New("a title or identifier is required")
	ErrNotFound         = errors.New("movie not found")
)

const (
	maxQueryLength = 100

	// maxConcurrentDetails bounds the fan-out of detail lookups during
	// enrichment so a large candidate pool cannot overwhelm the provider.
	maxConcurrentDetails = 8

	noResultsMessage = "No results found."
)

// MovieProvider is the term-search + detail side of the provider gateway.
type MovieProvider interface {
	SearchByTerm(ctx context.Context, term string, page int, filter omdb.SearchFilter) (omdb.SearchPage, error)
	GetDetails(ctx context.Context, identifier string) (domain.Detail, error)
}

// CatalogProvider is the optional discovery side of the provider gateway.
// Enabled reports whether it is configured; the other methods answer empty
// when it is not.
type CatalogProvider interface {
	Enabled() bool
	ListGenres(ctx context.Context) (map[string]int, error)
	DiscoverByGenre(ctx context.Context, genreID, page int, query tmdb.DiscoverQuery) ([]domain.Candidate, bool, error)
	ResolveExternalID(ctx context.Context, catalogID int) (string, error)
}

// Service runs the aggregation and enrichment pipeline. It owns no mutable
// shared state beyond the cache client and the provider health table, both of
// which are safe for concurrent use.
type Service struct {
	movies  MovieProvider
	catalog CatalogProvider
	store   cache.Store
	logger  *slog.Logger
	ttl     time.Duration

	detailSem *semaphore.Weighted

	healthMu sync.Mutex
	health   map[string]*providerHealth
}

type ServiceOption func(*Service)

func WithCatalog(catalog CatalogProvider) ServiceOption {
	return func(s *Service) {
		s.catalog = catalog
	}
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(movies MovieProvider, store cache.Store, opts ...ServiceOption) *Service {
	svc := &Service{
		movies:    movies,
		store:     store,
		logger:    slog.Default(),
		ttl:       cache.DefaultTTL,
		detailSem: semaphore.NewWeighted(maxConcurrentDetails),
		health:    make(map[string]*providerHealth),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

func (s *Service) catalogEnabled() bool {
	return s.catalog != nil && s.catalog.Enabled()
}
