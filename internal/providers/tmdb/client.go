package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviescout/discoveryservice/internal/cache"
	"moviescout/discoveryservice/internal/domain"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	posterBaseURL   = "https://image.tmdb.org/t/p/w300"
	genreListKey    = "tmdb:genre-list"
	genreListTTL    = 24 * time.Hour
	externalIDTTL   = 24 * time.Hour
	requestTimeout  = 3 * time.Second
	maxResponseSize = 512 * 1024
)

// Client is the optional catalog-discovery provider. When no API key is
// configured every method degrades to an explicit "not configured" answer via
// Enabled; nothing crashes.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	store   cache.Store
}

type Config struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Store   cache.Store
}

// DiscoverQuery narrows genre discovery. Zero values mean no constraint.
type DiscoverQuery struct {
	SortHint string
	Year     string
	Language string
	MinVotes int
}

type genreListPayload struct {
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type discoverPayload struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Results    []discoverItem `json:"results"`
}

type discoverItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
}

type externalIDsPayload struct {
	ImdbID string `json:"imdb_id"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   cfg.Store,
	}
}

func (c *Client) Name() string { return "tmdb" }

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// ListGenres returns the catalog's lower-cased genre name to id mapping. The
// list changes rarely, so it is cached for a day.
func (c *Client) ListGenres(ctx context.Context) (map[string]int, error) {
	if !c.Enabled() {
		return nil, nil
	}

	var cached map[string]int
	if cache.GetJSON(ctx, c.store, genreListKey, &cached) && len(cached) > 0 {
		return cached, nil
	}

	var payload genreListPayload
	if err := c.getJSON(ctx, "/genre/movie/list", url.Values{}, &payload); err != nil {
		return nil, err
	}
	genres := make(map[string]int, len(payload.Genres))
	for _, genre := range payload.Genres {
		name := strings.ToLower(strings.TrimSpace(genre.Name))
		if name == "" || genre.ID == 0 {
			continue
		}
		genres[name] = genre.ID
	}
	if len(genres) > 0 {
		cache.SetJSON(ctx, c.store, genreListKey, genres, genreListTTL)
	}
	return genres, nil
}

// DiscoverByGenre returns one page of catalog candidates for a genre id plus
// a has-more flag. Candidate IDs are catalog-local; callers resolve them to
// external identifiers with ResolveExternalID before enrichment.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID, page int, query DiscoverQuery) ([]domain.Candidate, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	params := url.Values{
		"with_genres":   {strconv.Itoa(genreID)},
		"page":          {strconv.Itoa(page)},
		"include_adult": {"false"},
	}
	sortHint := strings.TrimSpace(query.SortHint)
	if sortHint == "" {
		sortHint = "popularity.desc"
	}
	params.Set("sort_by", sortHint)
	if query.Year != "" {
		params.Set("primary_release_year", query.Year)
	}
	if query.Language != "" {
		params.Set("with_original_language", query.Language)
	}
	if query.MinVotes > 0 {
		params.Set("vote_count.gte", strconv.Itoa(query.MinVotes))
	}

	var payload discoverPayload
	if err := c.getJSON(ctx, "/discover/movie", params, &payload); err != nil {
		return nil, false, err
	}

	candidates := make([]domain.Candidate, 0, len(payload.Results))
	for _, item := range payload.Results {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.ID == 0 {
			continue
		}
		poster := ""
		if item.PosterPath != "" {
			poster = posterBaseURL + item.PosterPath
		}
		candidates = append(candidates, domain.Candidate{
			ID:     strconv.Itoa(item.ID),
			Title:  title,
			Year:   releaseYear(item.ReleaseDate),
			Poster: poster,
		})
	}
	return candidates, payload.Page < payload.TotalPages, nil
}

// ResolveExternalID maps a catalog movie id to its external (IMDb-style)
// identifier, or "" when the catalog has none.
func (c *Client) ResolveExternalID(ctx context.Context, catalogID int) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	key := "tmdb:external-id:" + strconv.Itoa(catalogID)
	var cached string
	if cache.GetJSON(ctx, c.store, key, &cached) && cached != "" {
		return cached, nil
	}

	var payload externalIDsPayload
	path := fmt.Sprintf("/movie/%d/external_ids", catalogID)
	if err := c.getJSON(ctx, path, url.Values{}, &payload); err != nil {
		return "", err
	}
	externalID := strings.TrimSpace(payload.ImdbID)
	if externalID != "" {
		cache.SetJSON(ctx, c.store, key, externalID, externalIDTTL)
	}
	return externalID, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest any) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tmdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unexpected tmdb payload: %w", err)
	}
	return nil
}

func releaseYear(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	year := date[:4]
	for _, c := range year {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return year
}
