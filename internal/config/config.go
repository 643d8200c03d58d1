// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Backend  BackendConfig  `koanf:"backend"`
	Live     LiveConfig     `koanf:"live"`
	QR       QRConfig       `koanf:"qr"`
	Security SecurityConfig `koanf:"security"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// BackendConfig points at the external QR platform REST API that owns scan
// events, QR entities and analytics summaries.
type BackendConfig struct {
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	RateLimit  float64       `koanf:"rate_limit"` // requests per second, 0 disables
	RateBurst  int           `koanf:"rate_burst"`
	MaxRetries int           `koanf:"max_retries"`
}

// LiveConfig tunes the per-user polling client.
type LiveConfig struct {
	PollInterval     time.Duration `koanf:"poll_interval"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout"`
	FailureThreshold int           `koanf:"failure_threshold"`
	Retention        time.Duration `koanf:"retention"`
	MaxBuffer        int           `koanf:"max_buffer"`
	FeedItems        int           `koanf:"feed_items"`
	TopCountries     int           `koanf:"top_countries"`
}

// QRConfig bounds the rendering pipeline.
type QRConfig struct {
	DefaultSize int           `koanf:"default_size"`
	MaxSize     int           `koanf:"max_size"`
	CacheSize   int           `koanf:"cache_size"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
}

// SecurityConfig holds token verification and edge protection settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	RateLimitOff    bool          `koanf:"rate_limit_disabled"`
	RenderLimitReqs int           `koanf:"render_limit_reqs"`
}

// StoreConfig locates the BadgerDB directory holding per-user notification
// read flags and cleared ids. An empty Path keeps that state in memory.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
