package pipeline

import (
	"context"
	"strings"

	"moviescout/discoveryservice/internal/domain"
	"moviescout/discoveryservice/internal/providers/omdb"
)

// scoredCandidate pairs a candidate with its relevance score. The score is
// attached during aggregation so sorting after enrichment never needs the
// original query again.
type scoredCandidate struct {
	domain.Candidate
	Score float64
}

// Identifier is the dedup and lookup key: the provider id when present,
// otherwise the title.
func (c scoredCandidate) Identifier() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Title
}

// candidatePool accumulates candidates across terms and pages, deduplicating
// by lower-cased identifier in first-seen order. An optional exclusion
// predicate rejects candidates before they enter the pool.
type candidatePool struct {
	candidates []domain.Candidate
	seen       map[string]struct{}
	limit      int
	exclude    func(domain.Candidate) bool
}

func newCandidatePool(limit int, exclude func(domain.Candidate) bool) *candidatePool {
	return &candidatePool{
		seen:    make(map[string]struct{}),
		limit:   limit,
		exclude: exclude,
	}
}

// add inserts the candidate unless it is a duplicate or excluded. The return
// value reports whether the pool has reached its limit.
func (p *candidatePool) add(candidate domain.Candidate) bool {
	identifier := candidate.ID
	if identifier == "" {
		identifier = candidate.Title
	}
	key := strings.ToLower(strings.TrimSpace(identifier))
	if key == "" {
		return p.full()
	}
	if _, dup := p.seen[key]; dup {
		return p.full()
	}
	if p.exclude != nil && p.exclude(candidate) {
		return p.full()
	}
	p.seen[key] = struct{}{}
	p.candidates = append(p.candidates, candidate)
	return p.full()
}

func (p *candidatePool) full() bool {
	return p.limit > 0 && len(p.candidates) >= p.limit
}

func (p *candidatePool) size() int { return len(p.candidates) }

// collectOptions shapes one aggregation run. Terms are walked in order; for
// each term, provider pages 1..MaxPages are fetched until the pool reaches
// Target. Provider failures end the current term and move on: aggregation
// degrades, it does not abort.
type collectOptions struct {
	Terms    []string
	MaxPages int
	Target   int
	Filter   omdb.SearchFilter
	Exclude  func(domain.Candidate) bool
}

func (s *Service) collectCandidates(ctx context.Context, opts collectOptions) []domain.Candidate {
	pool := newCandidatePool(opts.Target, opts.Exclude)
	s.fillPool(ctx, pool, opts.Terms, opts.MaxPages, opts.Filter)
	return pool.candidates
}

// fillPool walks terms in order, fetching provider pages 1..maxPages for each
// until the pool is full. Provider failures end the current term and move on:
// aggregation degrades, it does not abort.
func (s *Service) fillPool(ctx context.Context, pool *candidatePool, terms []string, maxPages int, filter omdb.SearchFilter) {
	if maxPages < 1 {
		maxPages = 1
	}

terms:
	for _, term := range terms {
		for page := 1; page <= maxPages; page++ {
			pageResult, err := s.searchMovies(ctx, term, page, filter)
			if err != nil {
				s.logger.Warn("term search failed", "term", term, "page", page, "error", err)
				break
			}
			if len(pageResult.Candidates) == 0 {
				break
			}
			for _, candidate := range pageResult.Candidates {
				if pool.add(candidate) {
					break terms
				}
			}
			if pool.full() {
				break terms
			}
		}
	}
}

// scoreCandidates attaches relevance scores for a free-text query, preserving
// pool order.
func scoreCandidates(query string, candidates []domain.Candidate, yearFilter string) []scoredCandidate {
	scored := make([]scoredCandidate, len(candidates))
	for i, candidate := range candidates {
		scored[i] = scoredCandidate{
			Candidate: candidate,
			Score:     scoreCandidate(query, candidate, yearFilter),
		}
	}
	return scored
}

// unscoredCandidates wraps candidates with a zero score for flows where
// relevance is not a sort signal (genre browse, box office).
func unscoredCandidates(candidates []domain.Candidate) []scoredCandidate {
	scored := make([]scoredCandidate, len(candidates))
	for i, candidate := range candidates {
		scored[i] = scoredCandidate{Candidate: candidate}
	}
	return scored
}

// genreTitleExclusion rejects candidates whose title literally contains the
// genre name. Term expansion with genre suffixes surfaces keyword-matched
// junk ("Action Movie: The Movie"); a real genre member rarely names its
// genre.
func genreTitleExclusion(genre string) func(domain.Candidate) bool {
	lowered := strings.ToLower(strings.TrimSpace(genre))
	if lowered == "" {
		return nil
	}
	return func(candidate domain.Candidate) bool {
		title := strings.ToLower(candidate.Title)
		return title != "" && strings.Contains(title, lowered)
	}
}
