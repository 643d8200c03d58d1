// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/qrpulse/internal/logging"
)

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	return errors.Join(
		c.validateServer(),
		c.validateBackend(),
		c.validateLive(),
		c.validateQR(),
		c.validateSecurity(),
		c.validateStore(),
		c.validateLogging(),
	)
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.RateLimit < 0 {
		return errors.New("BACKEND_RATE_LIMIT must not be negative")
	}
	if c.Backend.MaxRetries < 0 || c.Backend.MaxRetries > 10 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must be between 0 and 10, got %d", c.Backend.MaxRetries)
	}
	return nil
}

func (c *Config) validateLive() error {
	l := c.Live
	if l.PollInterval < time.Second {
		return fmt.Errorf("LIVE_POLL_INTERVAL must be at least 1s, got %s", l.PollInterval)
	}
	if l.FetchTimeout <= 0 {
		return errors.New("LIVE_FETCH_TIMEOUT must be positive")
	}
	if l.FailureThreshold < 1 {
		return fmt.Errorf("LIVE_FAILURE_THRESHOLD must be at least 1, got %d", l.FailureThreshold)
	}
	if l.Retention < time.Hour {
		return fmt.Errorf("LIVE_RETENTION must be at least 1h, got %s", l.Retention)
	}
	if l.MaxBuffer < 1 {
		return fmt.Errorf("LIVE_MAX_BUFFER must be at least 1, got %d", l.MaxBuffer)
	}
	if l.FeedItems < 1 || l.TopCountries < 1 {
		return errors.New("LIVE_FEED_ITEMS and LIVE_TOP_COUNTRIES must be at least 1")
	}
	return nil
}

func (c *Config) validateQR() error {
	q := c.QR
	if q.MaxSize < 64 {
		return fmt.Errorf("QR_MAX_SIZE must be at least 64, got %d", q.MaxSize)
	}
	if q.DefaultSize < 64 || q.DefaultSize > q.MaxSize {
		return fmt.Errorf("QR_DEFAULT_SIZE must be between 64 and QR_MAX_SIZE, got %d", q.DefaultSize)
	}
	if q.CacheSize < 0 {
		return errors.New("QR_CACHE_SIZE must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < 32 {
		return errors.New("JWT_SECRET is required and must be at least 32 characters")
	}
	if !c.Security.RateLimitOff && (c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT is set")
	}
	if c.Security.RenderLimitReqs < 0 {
		return fmt.Errorf("RENDER_LIMIT_REQUESTS must not be negative, got %d", c.Security.RenderLimitReqs)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.GCInterval < 0 {
		return fmt.Errorf("STORE_GC_INTERVAL must not be negative, got %s", c.Store.GCInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.IsValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
