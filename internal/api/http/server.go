package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/pipeline"
)

// DiscoveryService is the pipeline surface the HTTP layer depends on.
type DiscoveryService interface {
	Search(ctx context.Context, request domain.SearchRequest) (domain.SearchResponse, error)
	BrowseGenre(ctx context.Context, request domain.GenreRequest) (domain.GenreResponse, error)
	TopBoxOffice(ctx context.Context, request domain.BoxOfficeRequest) (domain.BoxOfficeResponse, error)
	MovieDetail(ctx context.Context, identifier string) (domain.MovieResponse, error)
	MovieGenres(ctx context.Context, identifier string) (domain.MovieGenresResponse, error)
	RatingSummaries(ctx context.Context, targets []string) (domain.RatingSummaryResponse, error)
	ProviderDiagnostics() []domain.ProviderDiagnostics
}

type Server struct {
	discovery DiscoveryService
	logger    *slog.Logger
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewServer(discovery DiscoveryService, options ...ServerOption) *Server {
	server := &Server{
		discovery: discovery,
		logger:    slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/genres", s.handleMovieGenres)
	mux.HandleFunc("/api/genre/", s.handleBrowseGenre)
	mux.HandleFunc("/api/boxoffice/top", s.handleBoxOfficeTop)
	mux.HandleFunc("/api/movie/", s.handleMovieDetail)
	mux.HandleFunc("/api/ratings/summary", s.handleRatingSummary)
	mux.HandleFunc("/api/providers/health", s.handleProvidersHealth)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "movie-discovery",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/search" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	sortMode, ok := domain.ValidSearchSort(strings.TrimSpace(q.Get("sort")))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", pipeline.ErrInvalidSort.Error())
		return
	}

	request := domain.SearchRequest{
		Query:     strings.TrimSpace(q.Get("q")),
		Page:      parseClampedInt(q.Get("page"), 1, 1, 10),
		PerPage:   parseClampedInt(q.Get("per_page"), 10, 5, 10),
		MediaType: strings.TrimSpace(q.Get("type")),
		Year:      strings.TrimSpace(q.Get("year")),
		Language:  strings.TrimSpace(q.Get("language")),
		Sort:      sortMode,
	}

	response, err := s.discovery.Search(r.Context(), request)
	if err != nil {
		s.writeDiscoveryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleBrowseGenre(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	genre := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/genre/"), "/")
	if genre == "" || strings.Contains(genre, "/") {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	var minRating *float64
	if raw := strings.TrimSpace(q.Get("rating")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", pipeline.ErrInvalidRating.Error())
			return
		}
		minRating = &value
	}

	request := domain.GenreRequest{
		Genre:     genre,
		Page:      parseClampedInt(q.Get("page"), 1, 1, 10),
		Year:      strings.TrimSpace(q.Get("year")),
		Language:  strings.TrimSpace(q.Get("language")),
		MinRating: minRating,
		Sort:      domain.SortMode(strings.TrimSpace(q.Get("sort"))),
	}

	response, err := s.discovery.BrowseGenre(r.Context(), request)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, domain.GenreResponse{
				Genre:   genre,
				Results: []domain.EnrichedResult{},
				Message: "No results found.",
			})
			return
		}
		s.writeDiscoveryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleBoxOfficeTop(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/boxoffice/top" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	request := domain.BoxOfficeRequest{
		Query: strings.TrimSpace(q.Get("q")),
		Page:  parseClampedInt(q.Get("page"), 1, 1, 10),
		Genre: strings.TrimSpace(q.Get("genre")),
		Sort:  domain.SortMode(strings.TrimSpace(q.Get("sort"))),
	}

	response, err := s.discovery.TopBoxOffice(r.Context(), request)
	if err != nil {
		s.writeDiscoveryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleMovieDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identifier := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/movie/"), "/")
	if identifier == "" || strings.Contains(identifier, "/") {
		http.NotFound(w, r)
		return
	}

	response, err := s.discovery.MovieDetail(r.Context(), identifier)
	if err != nil {
		s.writeDiscoveryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleMovieGenres(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/genres" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	identifier := strings.TrimSpace(q.Get("title"))
	if identifier == "" {
		identifier = strings.TrimSpace(q.Get("imdbID"))
	}
	if identifier == "" {
		identifier = strings.TrimSpace(q.Get("id"))
	}
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "invalid_request",
			"provide ?title=<movie_title> or ?imdbID=<id> to fetch genres")
		return
	}

	response, err := s.discovery.MovieGenres(r.Context(), identifier)
	if err != nil {
		s.writeDiscoveryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRatingSummary(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/ratings/summary" {
		http.NotFound(w, r)
		return
	}

	var targets []string
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if single := strings.TrimSpace(q.Get("imdbID")); single != "" {
			targets = append(targets, single)
		} else if single := strings.TrimSpace(q.Get("id")); single != "" {
			targets = append(targets, single)
		}
		if titles := strings.TrimSpace(q.Get("titles")); titles != "" {
			for _, title := range strings.Split(titles, ",") {
				if trimmed := strings.TrimSpace(title); trimmed != "" {
					targets = append(targets, trimmed)
				}
			}
		}
		if single := strings.TrimSpace(q.Get("title")); single != "" {
			targets = append(targets, single)
		}
	case http.MethodPost:
		var payload struct {
			Titles []string `json:"titles"`
			IDs    []string `json:"ids"`
		}
		if err := decodeJSONBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		targets = append(targets, payload.IDs...)
		targets = append(targets, payload.Titles...)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response, err := s.discovery.RatingSummaries(r.Context(), targets)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			// Every target failed; surface the per-target errors.
			writeJSON(w, http.StatusNotFound, response)
			return
		}
		s.writeDiscoveryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/providers/health" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": time.Now().UTC(),
		"items":     s.discovery.ProviderDiagnostics(),
	})
}

// writeDiscoveryError maps pipeline sentinel errors onto HTTP statuses. The
// message is the sentinel's own text so the API surface stays consistent with
// the pipeline's validation rules.
func (s *Server) writeDiscoveryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidQuery),
		errors.Is(err, pipeline.ErrQueryTooLong),
		errors.Is(err, pipeline.ErrInvalidMediaType),
		errors.Is(err, pipeline.ErrInvalidYear),
		errors.Is(err, pipeline.ErrInvalidSort),
		errors.Is(err, pipeline.ErrInvalidRating),
		errors.Is(err, pipeline.ErrInvalidTarget):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, pipeline.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error("discovery request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "request failed")
	}
}

// parseClampedInt parses an integer query parameter, falling back to the
// default on absent or malformed input and clamping into [minimum, maximum].
func parseClampedInt(raw string, fallback, minimum, maximum int) int {
	value := fallback
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		parsed, err := strconv.Atoi(trimmed)
		if err == nil {
			value = parsed
		}
	}
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
