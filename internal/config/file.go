package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL       string `yaml:"database_url"`
	RedisURL          string `yaml:"redis_url"`
	XMLTVURL          string `yaml:"xmltv_url"`
	PlaylistURL       string `yaml:"playlist_url"`
	StreamURLTemplate string `yaml:"stream_url_template"`
	CacheDir          string `yaml:"cache_dir"`
	RefreshCron       string `yaml:"refresh_cron"`
	RefreshInterval   string `yaml:"refresh_interval"`
	EPGHorizon        string `yaml:"epg_horizon"`
	UserAgent         string `yaml:"user_agent"`
	Timeout           string `yaml:"timeout"`
	FetchAttempts     int    `yaml:"fetch_attempts"`
	MetricsAddr       string `yaml:"metrics_addr"`
}

// LoadFromFile loads config from a YAML file. database_url and xmltv_url are
// required; durations are Go duration strings ("30s", "12h").
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &Config{
		DatabaseURL:       f.DatabaseURL,
		RedisURL:          f.RedisURL,
		XMLTVURL:          f.XMLTVURL,
		PlaylistURL:       f.PlaylistURL,
		StreamURLTemplate: f.StreamURLTemplate,
		CacheDir:          f.CacheDir,
		RefreshCron:       f.RefreshCron,
		UserAgent:         f.UserAgent,
		FetchAttempts:     f.FetchAttempts,
		MetricsAddr:       f.MetricsAddr,
	}
	if f.RefreshInterval != "" {
		if d, err := time.ParseDuration(f.RefreshInterval); err == nil {
			c.RefreshInterval = d
		}
	}
	if f.EPGHorizon != "" {
		if d, err := time.ParseDuration(f.EPGHorizon); err == nil {
			c.EPGHorizon = d
		}
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	return c.withDefaults()
}
