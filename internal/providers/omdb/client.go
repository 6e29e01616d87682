package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviescout/discoveryservice/internal/domain"
)

const (
	defaultBaseURL   = "http://www.omdbapi.com/"
	defaultUserAgent = "moviescout-discovery/1.0"

	defaultSearchTimeout = 3 * time.Second
	defaultDetailTimeout = 5 * time.Second
)

// ErrNotFound signals that the provider answered but has no record for the
// requested identifier or term. Callers treat it as an empty result.
var ErrNotFound = errors.New("title not found")

type Config struct {
	APIKey        string
	BaseURL       string
	UserAgent     string
	Client        *http.Client
	SearchTimeout time.Duration
	DetailTimeout time.Duration
}

// Client adapts the OMDb HTTP API into the pipeline's candidate/detail shapes.
// The provider answers loosely structured JSON with a string "Response" flag;
// everything is validated and converted here so internal components never see
// raw payloads.
type Client struct {
	apiKey        string
	baseURL       string
	userAgent     string
	http          *http.Client
	searchTimeout time.Duration
	detailTimeout time.Duration
}

// SearchFilter narrows a term search. Zero values mean no filtering.
type SearchFilter struct {
	MediaType string
	Year      string
}

// SearchPage is one page of candidates plus the provider's total-results hint.
type SearchPage struct {
	Candidates []domain.Candidate
	TotalHint  int
}

type searchPayload struct {
	Response     string       `json:"Response"`
	Error        string       `json:"Error"`
	TotalResults string       `json:"totalResults"`
	Search       []searchItem `json:"Search"`
}

type searchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Poster string `json:"Poster"`
}

type detailPayload struct {
	Response   string       `json:"Response"`
	Error      string       `json:"Error"`
	Title      string       `json:"Title"`
	Year       string       `json:"Year"`
	Poster     string       `json:"Poster"`
	Runtime    string       `json:"Runtime"`
	Genre      string       `json:"Genre"`
	Plot       string       `json:"Plot"`
	Director   string       `json:"Director"`
	Writer     string       `json:"Writer"`
	Actors     string       `json:"Actors"`
	Ratings    []ratingItem `json:"Ratings"`
	BoxOffice  string       `json:"BoxOffice"`
	Released   string       `json:"Released"`
	Language   string       `json:"Language"`
	Awards     string       `json:"Awards"`
	ImdbID     string       `json:"imdbID"`
	ImdbRating string       `json:"imdbRating"`
}

type ratingItem struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = defaultSearchTimeout
	}
	detailTimeout := cfg.DetailTimeout
	if detailTimeout <= 0 {
		detailTimeout = defaultDetailTimeout
	}
	return &Client{
		apiKey:        strings.TrimSpace(cfg.APIKey),
		baseURL:       baseURL,
		userAgent:     userAgent,
		http:          httpClient,
		searchTimeout: searchTimeout,
		detailTimeout: detailTimeout,
	}
}

func (c *Client) Name() string { return "omdb" }

// SearchByTerm fetches one page of candidates for term. A provider answer of
// "no results" is not an error: it yields an empty page with TotalHint 0.
// Transport failures and malformed payloads are returned as errors; the
// pipeline treats them as soft failures.
func (c *Client) SearchByTerm(ctx context.Context, term string, page int, filter SearchFilter) (SearchPage, error) {
	params := url.Values{
		"apikey": {c.apiKey},
		"s":      {strings.TrimSpace(term)},
		"page":   {strconv.Itoa(page)},
	}
	if filter.MediaType != "" {
		params.Set("type", filter.MediaType)
	}
	if filter.Year != "" {
		params.Set("y", filter.Year)
	}

	var payload searchPayload
	if err := c.getJSON(ctx, params, c.searchTimeout, &payload); err != nil {
		return SearchPage{}, err
	}
	if payload.Response != "True" {
		return SearchPage{}, nil
	}

	totalHint, _ := strconv.Atoi(strings.TrimSpace(payload.TotalResults))
	candidates := make([]domain.Candidate, 0, len(payload.Search))
	for _, item := range payload.Search {
		title := strings.TrimSpace(item.Title)
		id := strings.TrimSpace(item.ImdbID)
		if title == "" && id == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			ID:     id,
			Title:  title,
			Year:   strings.TrimSpace(item.Year),
			Poster: item.Poster,
		})
	}
	return SearchPage{Candidates: candidates, TotalHint: totalHint}, nil
}

// GetDetails resolves one title. Identifiers starting with "tt" are looked up
// by id, anything else by title. A provider "not found" answer maps to
// ErrNotFound.
func (c *Client) GetDetails(ctx context.Context, identifier string) (domain.Detail, error) {
	identifier = strings.TrimSpace(identifier)
	params := url.Values{
		"apikey": {c.apiKey},
		"plot":   {"short"},
	}
	if strings.HasPrefix(strings.ToLower(identifier), "tt") {
		params.Set("i", identifier)
	} else {
		params.Set("t", identifier)
	}

	var payload detailPayload
	if err := c.getJSON(ctx, params, c.detailTimeout, &payload); err != nil {
		return domain.Detail{}, err
	}
	if payload.Response != "True" {
		message := strings.TrimSpace(payload.Error)
		if message == "" {
			message = "movie not found"
		}
		return domain.Detail{}, fmt.Errorf("%w: %s", ErrNotFound, message)
	}

	detail := domain.Detail{
		ID:           strings.TrimSpace(payload.ImdbID),
		Title:        strings.TrimSpace(payload.Title),
		Year:         strings.TrimSpace(payload.Year),
		Poster:       payload.Poster,
		Runtime:      payload.Runtime,
		Genres:       splitGenres(payload.Genre),
		Plot:         payload.Plot,
		Director:     payload.Director,
		Writer:       payload.Writer,
		Actors:       payload.Actors,
		BoxOfficeRaw: payload.BoxOffice,
		Released:     payload.Released,
		Language:     payload.Language,
		Awards:       payload.Awards,
	}
	if detail.ID == "" {
		detail.ID = identifier
	}
	detail.RawRatings = make(map[string]string, len(payload.Ratings)+1)
	for _, rating := range payload.Ratings {
		source := strings.TrimSpace(rating.Source)
		value := strings.TrimSpace(rating.Value)
		if source == "" || value == "" {
			continue
		}
		detail.RawRatings[source] = value
	}
	// Some records carry the top-level rating without a Ratings list.
	if imdbRating := strings.TrimSpace(payload.ImdbRating); imdbRating != "" && imdbRating != "N/A" {
		if _, ok := detail.RawRatings["Internet Movie Database"]; !ok {
			detail.RawRatings["Internet Movie Database"] = imdbRating + "/10"
		}
	}
	if len(detail.RawRatings) == 0 {
		detail.RawRatings = nil
	}
	return detail, nil
}

func (c *Client) getJSON(ctx context.Context, params url.Values, timeout time.Duration, dest any) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	uri, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	uri.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("omdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unexpected omdb payload: %w", err)
	}
	return nil
}

func splitGenres(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	genres := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			genres = append(genres, value)
		}
	}
	return genres
}
