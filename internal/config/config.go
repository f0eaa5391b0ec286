package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingDatabaseURL is returned when no database DSN is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// ErrMissingXMLTVURL is returned when no XMLTV source is configured.
var ErrMissingXMLTVURL = errors.New("XMLTV_URL is required")

// Config holds application configuration. XMLTVURL and DatabaseURL are
// required; PlaylistURL and StreamURLTemplate are optional and disable the
// playlist fill / stream-URL derivation respectively when empty.
type Config struct {
	DatabaseURL       string
	RedisURL          string
	XMLTVURL          string
	PlaylistURL       string
	StreamURLTemplate string // contains a {channel} placeholder
	CacheDir          string
	RefreshCron       string        // cron spec; built from RefreshInterval when unset
	RefreshInterval   time.Duration // default 12h
	EPGHorizon        time.Duration // forward coverage required before a refetch, default 12h
	UserAgent         string
	Timeout           time.Duration
	FetchAttempts     int
	MetricsAddr       string // e.g. ":9090"; empty disables the metrics listener
}

// Load builds config from environment variables. If DATABASE_URL is not set,
// Load tries .env.local and .env from the current directory first.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		XMLTVURL:          os.Getenv("XMLTV_URL"),
		PlaylistURL:       os.Getenv("PLAYLIST_URL"),
		StreamURLTemplate: os.Getenv("STREAM_URL_TEMPLATE"),
		CacheDir:          os.Getenv("CACHE_DIR"),
		RefreshCron:       os.Getenv("REFRESH_CRON"),
		UserAgent:         os.Getenv("FETCHER_USER_AGENT"),
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
	}
	if s := os.Getenv("REFRESH_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.RefreshInterval = d
		}
	}
	if s := os.Getenv("EPG_HORIZON"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.EPGHorizon = d
		}
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("FETCH_ATTEMPTS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			c.FetchAttempts = n
		}
	}
	return c.withDefaults()
}

// withDefaults fills zero values and validates required fields.
func (c *Config) withDefaults() (*Config, error) {
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if c.XMLTVURL == "" {
		return nil, ErrMissingXMLTVURL
	}
	if c.CacheDir == "" {
		c.CacheDir = "cache"
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 12 * time.Hour
	}
	if c.EPGHorizon <= 0 {
		c.EPGHorizon = 12 * time.Hour
	}
	if c.UserAgent == "" {
		c.UserAgent = "GuideVault/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FetchAttempts <= 0 {
		c.FetchAttempts = 3
	}
	return c, nil
}
