package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/metrics"
	"moviescout/discoveryservice/internal/providers/omdb"
)

const (
	providerFailureThreshold = 3
	providerBlockBase        = 2 * time.Minute
	providerBlockMax         = 15 * time.Minute
)

// providerHealth tracks consecutive failures per provider. After the failure
// threshold the provider is blocked for an exponentially growing window so a
// dead upstream does not stall every request. There is no per-call retry:
// a failed provider call degrades the result set instead.
type providerHealth struct {
	consecutiveFailures int
	blockedUntil        time.Time
	lastError           string
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	lastLatency         time.Duration
	totalRequests       int64
	totalFailures       int64
}

func (s *Service) isProviderBlocked(providerName string, now time.Time) (bool, time.Time, string) {
	name := strings.ToLower(strings.TrimSpace(providerName))
	if name == "" {
		return false, time.Time{}, ""
	}

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[name]
	if state == nil {
		return false, time.Time{}, ""
	}
	if state.blockedUntil.IsZero() || now.After(state.blockedUntil) {
		return false, time.Time{}, ""
	}
	return true, state.blockedUntil, state.lastError
}

func (s *Service) recordProviderResult(providerName string, err error, latency time.Duration, now time.Time) {
	name := strings.ToLower(strings.TrimSpace(providerName))
	if name == "" {
		return
	}

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[name]
	if state == nil {
		state = &providerHealth{}
		s.health[name] = state
	}
	state.totalRequests++
	if latency > 0 {
		state.lastLatency = latency
		metrics.ProviderRequestDuration.WithLabelValues(name).Observe(latency.Seconds())
	}

	if err == nil {
		state.consecutiveFailures = 0
		state.blockedUntil = time.Time{}
		state.lastError = ""
		state.lastSuccessAt = now
		metrics.ProviderRequestsTotal.WithLabelValues(name, "ok").Inc()
		metrics.ProviderAvailable.WithLabelValues(name).Set(1)
		return
	}

	state.consecutiveFailures++
	state.totalFailures++
	state.lastFailureAt = now
	state.lastError = err.Error()

	status := "error"
	if isTimeoutLikeError(err) {
		status = "timeout"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(name, status).Inc()

	if state.consecutiveFailures >= providerFailureThreshold {
		state.blockedUntil = now.Add(exponentialBlockDuration(state.consecutiveFailures))
		metrics.ProviderAvailable.WithLabelValues(name).Set(0)
	}
}

// exponentialBlockDuration calculates how long to block a provider based on
// consecutive failures: baseDuration × 2^(failures - threshold), capped at 15min.
func exponentialBlockDuration(consecutiveFailures int) time.Duration {
	exponent := consecutiveFailures - providerFailureThreshold
	if exponent < 0 {
		exponent = 0
	}
	d := providerBlockBase
	for i := 0; i < exponent; i++ {
		d *= 2
		if d > providerBlockMax {
			return providerBlockMax
		}
	}
	return d
}

func isTimeoutLikeError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "timeout") || strings.Contains(value, "deadline exceeded")
}

const (
	providerNameMovies  = "omdb"
	providerNameCatalog = "tmdb"
)

// searchMovies wraps the movie provider's term search with health accounting.
// A blocked provider fails fast without touching the network.
func (s *Service) searchMovies(ctx context.Context, term string, page int, filter omdb.SearchFilter) (omdb.SearchPage, error) {
	now := time.Now()
	if blocked, until, lastErr := s.isProviderBlocked(providerNameMovies, now); blocked {
		s.logger.Debug("provider blocked, skipping term search",
			"provider", providerNameMovies,
			"term", term,
			"blocked_until", until,
			"last_error", lastErr,
		)
		return omdb.SearchPage{}, fmt.Errorf("provider %s blocked until %s", providerNameMovies, until.Format(time.RFC3339))
	}

	start := time.Now()
	pageResult, err := s.movies.SearchByTerm(ctx, term, page, filter)
	s.recordProviderResult(providerNameMovies, err, time.Since(start), time.Now())
	if err != nil {
		return omdb.SearchPage{}, err
	}
	return pageResult, nil
}

// fetchDetailDirect calls the movie provider for one detail record with health
// accounting. A not-found answer is a valid provider response, not a failure.
func (s *Service) fetchDetailDirect(ctx context.Context, identifier string) (domain.Detail, error) {
	now := time.Now()
	if blocked, until, _ := s.isProviderBlocked(providerNameMovies, now); blocked {
		return domain.Detail{}, fmt.Errorf("provider %s blocked until %s: %w", providerNameMovies, until.Format(time.RFC3339), omdb.ErrNotFound)
	}

	start := time.Now()
	detail, err := s.movies.GetDetails(ctx, identifier)
	healthErr := err
	if errors.Is(err, omdb.ErrNotFound) {
		// A definitive not-found is a healthy provider answer.
		healthErr = nil
	}
	s.recordProviderResult(providerNameMovies, healthErr, time.Since(start), time.Now())
	return detail, err
}

// ProviderDiagnostics reports per-provider health for the diagnostics surface.
func (s *Service) ProviderDiagnostics() []domain.ProviderDiagnostics {
	names := []struct {
		name       string
		configured bool
	}{
		{providerNameMovies, s.movies != nil},
		{providerNameCatalog, s.catalogEnabled()},
	}

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	items := make([]domain.ProviderDiagnostics, 0, len(names))
	for _, entry := range names {
		item := domain.ProviderDiagnostics{
			Name:       entry.name,
			Configured: entry.configured,
		}
		if state := s.health[entry.name]; state != nil {
			item.ConsecutiveFailures = state.consecutiveFailures
			if !state.blockedUntil.IsZero() {
				item.BlockedUntil = state.blockedUntil.Format(time.RFC3339)
			}
			item.LastError = state.lastError
			item.LastLatencyMS = state.lastLatency.Milliseconds()
			item.TotalRequests = state.totalRequests
			item.TotalFailures = state.totalFailures
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}
