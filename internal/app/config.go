package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr      string
	LogLevel      string
	LogFormat     string
	UserAgent     string
	OMDBAPIKey    string
	OMDBBaseURL   string
	TMDBAPIKey    string
	TMDBBaseURL   string
	RedisURL      string
	CacheTTL      time.Duration
	SearchTimeout time.Duration
	DetailTimeout time.Duration
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:     getEnv("USER_AGENT", "moviescout-discovery/1.0"),
		OMDBAPIKey:    strings.TrimSpace(os.Getenv("OMDB_API_KEY")),
		OMDBBaseURL:   getEnv("OMDB_BASE_URL", "http://www.omdbapi.com/"),
		TMDBAPIKey:    strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBBaseURL:   getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		RedisURL:      getEnv("REDIS_URL", ""),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 600)) * time.Second,
		SearchTimeout: time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 3)) * time.Second,
		DetailTimeout: time.Duration(getEnvInt("DETAIL_TIMEOUT_SECONDS", 5)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
