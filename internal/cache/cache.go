package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies to detail records and computed datasets unless the
// configuration overrides it.
const DefaultTTL = 600 * time.Second

// Store is the advisory metadata cache. Implementations must be safe for
// concurrent use and must treat backend failures as misses: a Get that cannot
// reach the backend reports not-found, a Set that cannot reach the backend is
// dropped. Callers never see an error from the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

const payloadVersion = 1

type envelope struct {
	Version int             `json:"v"`
	Payload json.RawMessage `json:"payload"`
}

// GetJSON reads key and decodes the versioned envelope into dest. Any decode
// failure or version mismatch counts as a miss, so stale schemas force a
// recompute instead of an error.
func GetJSON(ctx context.Context, store Store, key string, dest any) bool {
	if store == nil {
		return false
	}
	raw, ok := store.Get(ctx, key)
	if !ok {
		return false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != payloadVersion {
		return false
	}
	return json.Unmarshal(env.Payload, dest) == nil
}

// SetJSON encodes value inside the versioned envelope and stores it under key.
// Encoding failures are dropped silently; the cache is advisory.
func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) {
	if store == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	raw, err := json.Marshal(envelope{Version: payloadVersion, Payload: payload})
	if err != nil {
		return
	}
	store.Set(ctx, key, raw, ttl)
}

// Key builders. Every namespace has exactly one schema; see GetJSON for how
// schema drift is handled.

func DetailKey(identifier string) string {
	return "detail:" + strings.ToLower(strings.TrimSpace(identifier))
}

func SearchDatasetKey(query string, page, perPage int, parts ...string) string {
	fields := []string{
		"search-dataset:" + strings.ToLower(strings.TrimSpace(query)),
		strconv.Itoa(page),
		strconv.Itoa(perPage),
	}
	fields = append(fields, parts...)
	return strings.Join(fields, ":")
}

func GenreDatasetKey(genre string, page int, parts ...string) string {
	fields := []string{
		"genre-dataset:" + strings.ToLower(strings.TrimSpace(genre)),
		strconv.Itoa(page),
	}
	fields = append(fields, parts...)
	return strings.Join(fields, ":")
}

func BoxOfficeDatasetKey(query, genre string) string {
	queryToken := strings.ToLower(strings.TrimSpace(query))
	if queryToken == "" {
		queryToken = "default"
	}
	genreToken := strings.ToLower(strings.TrimSpace(genre))
	if genreToken == "" || query != "" {
		// A query-seeded dataset is genre-agnostic; the genre filter is
		// applied after the dataset loads.
		genreToken = "any"
	}
	return "boxoffice-dataset:" + queryToken + ":" + genreToken
}

func SimilarKey(identifier string) string {
	return "similar:" + strings.ToLower(strings.TrimSpace(identifier))
}

func RatingSummaryKey(target string) string {
	return "rating-summary:" + strings.ToLower(strings.TrimSpace(target))
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store used when Redis is not configured and
// in tests. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return append([]byte(nil), entry.value...), true
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
}

func (m *MemoryStore) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
