// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds the shared HTTP client settings.
type ClientConfig struct {
	// ImageURL is the image generation endpoint (multipart POST target).
	ImageURL string

	// ConnectTimeout bounds TCP connect and TLS/WebSocket handshakes (default: 10s).
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for response headers (default: 60s).
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a request or frame (default: 30s).
	WriteTimeout time.Duration

	// TempDir receives generated images (default: os.TempDir()).
	TempDir string

	// UserAgent is sent on every HTTP request.
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   30 * time.Second,
		UserAgent:      "deepcog",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client owns the shared HTTP client. Its configuration is read-only after
// construction except for the image endpoint, which follows settings changes.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *Metrics

	mu       sync.RWMutex
	imageURL string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records client activity on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// NewClient creates a client, filling zero values from DefaultConfig.
func NewClient(config *ClientConfig, opts ...Option) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	defaults := DefaultConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}

	c := &Client{
		config:   &cfg,
		logger:   zerolog.Nop(),
		imageURL: strings.TrimSpace(cfg.ImageURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(&cfg)
	}
	return c
}

// newHTTPClient maps connect/read/write timeouts onto net/http. The overall
// request timeout is their sum so a slow body transfer still terminates.
func newHTTPClient(cfg *ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   cfg.ConnectTimeout + cfg.WriteTimeout + cfg.ReadTimeout,
	}
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return *c.config
}

// Logger returns the client logger.
func (c *Client) Logger() zerolog.Logger {
	return c.logger
}

// Metrics returns the metrics sink, possibly nil.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// SetImageURL updates the image endpoint after a settings change.
func (c *Client) SetImageURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageURL = strings.TrimSpace(url)
}

// ImageURL returns the current image endpoint.
func (c *Client) ImageURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.imageURL
}

// NewStream creates a text stream sharing this client's logger, metrics and
// timeouts.
func (c *Client) NewStream(cfg StreamConfig) *Stream {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = c.config.ConnectTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = c.config.WriteTimeout
	}
	return NewStream(cfg, c.logger, c.metrics)
}
