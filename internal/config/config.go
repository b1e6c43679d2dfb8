// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete deepcog configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend endpoints, one per backend kind
	Backends BackendsConfig `toml:"backends" json:"backends"`

	// Model names sent with text prompts
	Models ModelsConfig `toml:"models" json:"models"`

	// Text stream behaviour
	Stream StreamConfig `toml:"stream" json:"stream"`

	// Shared HTTP client timeouts
	HTTP HTTPConfig `toml:"http" json:"http"`

	Log     LogConfig     `toml:"log" json:"log"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// BackendsConfig holds the base URL (or host:port) of each backend.
// An empty value means the backend is not configured.
type BackendsConfig struct {
	// TextURL is the streaming text backend; the socket URL is derived from it
	TextURL string `toml:"text_url" json:"text_url"`
	// ImageURL receives multipart image generation requests
	ImageURL string `toml:"image_url" json:"image_url"`
	OCRURL   string `toml:"ocr_url" json:"ocr_url"`
	// SearchURL is reserved for the web search backend
	SearchURL string `toml:"search_url" json:"search_url"`
}

// ModelsConfig names the models behind the two text modes.
type ModelsConfig struct {
	Top         string  `toml:"top" json:"top"`
	Bottom      string  `toml:"bottom" json:"bottom"`
	Temperature float64 `toml:"temperature" json:"temperature"`
	MaxTokens   int     `toml:"max_tokens" json:"max_tokens"`
}

// StreamConfig contains text stream configuration.
type StreamConfig struct {
	// SuppressErrors logs stream failures instead of showing them in the chat
	SuppressErrors bool `toml:"suppress_errors" json:"suppress_errors"`
	// IdleTimeoutSecs reports a timeout when a prompt gets no frame (0 = disabled)
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs"`
	// HandshakeTimeoutSecs bounds the websocket handshake
	HandshakeTimeoutSecs int `toml:"handshake_timeout_secs" json:"handshake_timeout_secs"`
	// Reconnect re-dials a dropped stream with exponential backoff
	Reconnect bool `toml:"reconnect" json:"reconnect"`
	// ReconnectMaxElapsedSecs gives up reconnecting after this long
	ReconnectMaxElapsedSecs int `toml:"reconnect_max_elapsed_secs" json:"reconnect_max_elapsed_secs"`
	// MaxSendsPerSecond rate limits prompts (0 = unlimited)
	MaxSendsPerSecond float64 `toml:"max_sends_per_second" json:"max_sends_per_second"`
}

// HTTPConfig contains the shared HTTP client configuration.
type HTTPConfig struct {
	ConnectTimeoutSecs int `toml:"connect_timeout_secs" json:"connect_timeout_secs"`
	ReadTimeoutSecs    int `toml:"read_timeout_secs" json:"read_timeout_secs"`
	WriteTimeoutSecs   int `toml:"write_timeout_secs" json:"write_timeout_secs"`
	// TempDir receives generated images (empty = system temp dir)
	TempDir string `toml:"temp_dir" json:"temp_dir"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of "trace", "debug", "info", "warn", "error", "disabled"
	Level string `toml:"level" json:"level"`
	// File is the log file path (empty = ~/.deepcog/deepcog.log)
	File string `toml:"file" json:"file"`
}

// StorageConfig contains event history configuration.
type StorageConfig struct {
	// Path is the SQLite database (empty = ~/.deepcog/events.db)
	Path string `toml:"path" json:"path"`
	// HistoryLimit caps how many events the dashboard loads
	HistoryLimit int `toml:"history_limit" json:"history_limit"`
	// SeedSamples fills an empty history with the sample events
	SeedSamples bool `toml:"seed_samples" json:"seed_samples"`
}

// UIConfig contains UI preferences.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// DefaultMode is the backend selected at startup
	DefaultMode string `toml:"default_mode" json:"default_mode"`
	// PlaceholderDelayMs delays the canned OCR/search reply
	PlaceholderDelayMs int `toml:"placeholder_delay_ms" json:"placeholder_delay_ms"`
	// WordWrap is the markdown render width for assistant replies
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// ExportFormat is the transcript format Ctrl+E writes: markdown, json or html
	ExportFormat string `toml:"export_format" json:"export_format"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Models: ModelsConfig{
			Top:         "top",
			Bottom:      "bottom",
			Temperature: 0.7,
			MaxTokens:   512,
		},
		Stream: StreamConfig{
			SuppressErrors:          false,
			IdleTimeoutSecs:         60,
			HandshakeTimeoutSecs:    10,
			Reconnect:               false,
			ReconnectMaxElapsedSecs: 120,
		},
		HTTP: HTTPConfig{
			ConnectTimeoutSecs: 10,
			ReadTimeoutSecs:    60,
			WriteTimeoutSecs:   30,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			HistoryLimit: 200,
			SeedSamples:  true,
		},
		UI: UIConfig{
			Theme:              "auto",
			DefaultMode:        "top",
			PlaceholderDelayMs: 1000,
			WordWrap:           80,
			ExportFormat:       "markdown",
		},
	}
}

// =============================================================================
// DURATION ACCESSORS
// =============================================================================

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

// ConnectTimeout returns the HTTP connect timeout.
func (h HTTPConfig) ConnectTimeout() time.Duration { return secs(h.ConnectTimeoutSecs) }

// ReadTimeout returns the HTTP read timeout.
func (h HTTPConfig) ReadTimeout() time.Duration { return secs(h.ReadTimeoutSecs) }

// WriteTimeout returns the HTTP write timeout.
func (h HTTPConfig) WriteTimeout() time.Duration { return secs(h.WriteTimeoutSecs) }

// IdleTimeout returns the stream idle timeout; zero disables it.
func (s StreamConfig) IdleTimeout() time.Duration { return secs(s.IdleTimeoutSecs) }

// HandshakeTimeout returns the websocket handshake timeout.
func (s StreamConfig) HandshakeTimeout() time.Duration { return secs(s.HandshakeTimeoutSecs) }

// ReconnectMaxElapsed returns how long reconnect attempts may continue.
func (s StreamConfig) ReconnectMaxElapsed() time.Duration { return secs(s.ReconnectMaxElapsedSecs) }

// PlaceholderDelay returns the delay before a canned reply.
func (u UIConfig) PlaceholderDelay() time.Duration {
	return time.Duration(u.PlaceholderDelayMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// HomeEnv overrides the configuration directory.
const HomeEnv = "DEEPCOG_HOME"

// ConfigDir returns the deepcog configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".deepcog"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LogPath returns the configured log file or the default one.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return inConfigDir("deepcog.log")
}

// StoragePath returns the configured event database or the default one.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	return inConfigDir("events.db")
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults. Booleans and the
// backend URLs are left as decoded.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Models
	if cfg.Models.Top == "" {
		cfg.Models.Top = defaults.Models.Top
	}
	if cfg.Models.Bottom == "" {
		cfg.Models.Bottom = defaults.Models.Bottom
	}
	if cfg.Models.MaxTokens == 0 {
		cfg.Models.MaxTokens = defaults.Models.MaxTokens
	}

	// Stream
	if cfg.Stream.HandshakeTimeoutSecs == 0 {
		cfg.Stream.HandshakeTimeoutSecs = defaults.Stream.HandshakeTimeoutSecs
	}
	if cfg.Stream.ReconnectMaxElapsedSecs == 0 {
		cfg.Stream.ReconnectMaxElapsedSecs = defaults.Stream.ReconnectMaxElapsedSecs
	}

	// HTTP
	if cfg.HTTP.ConnectTimeoutSecs == 0 {
		cfg.HTTP.ConnectTimeoutSecs = defaults.HTTP.ConnectTimeoutSecs
	}
	if cfg.HTTP.ReadTimeoutSecs == 0 {
		cfg.HTTP.ReadTimeoutSecs = defaults.HTTP.ReadTimeoutSecs
	}
	if cfg.HTTP.WriteTimeoutSecs == 0 {
		cfg.HTTP.WriteTimeoutSecs = defaults.HTTP.WriteTimeoutSecs
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	// Storage
	if cfg.Storage.HistoryLimit == 0 {
		cfg.Storage.HistoryLimit = defaults.Storage.HistoryLimit
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.DefaultMode == "" {
		cfg.UI.DefaultMode = defaults.UI.DefaultMode
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = defaults.UI.WordWrap
	}
	if cfg.UI.ExportFormat == "" {
		cfg.UI.ExportFormat = defaults.UI.ExportFormat
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration atomically to path.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# deepcog configuration file\n")
	buf.WriteString("# Backend URLs may be http(s)://host:port or a bare host:port.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	validThemes = map[string]bool{"auto": true, "dark": true, "light": true}
	validModes  = map[string]bool{"top": true, "bottom": true, "image": true, "ocr": true, "search": true}
	validExport = map[string]bool{"markdown": true, "json": true, "html": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	backends := map[string]string{
		"backends.text_url":   c.Backends.TextURL,
		"backends.image_url":  c.Backends.ImageURL,
		"backends.ocr_url":    c.Backends.OCRURL,
		"backends.search_url": c.Backends.SearchURL,
	}
	for field, value := range backends {
		if err := ValidateEndpoint(value); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
		}
	}

	if c.Models.Temperature < 0 || c.Models.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "models.temperature", Message: "must be between 0 and 2"})
	}
	if c.Models.MaxTokens < 1 {
		errs = append(errs, ValidationError{Field: "models.max_tokens", Message: "must be positive"})
	}

	if c.Stream.IdleTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "stream.idle_timeout_secs", Message: "cannot be negative"})
	}
	if c.Stream.MaxSendsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "stream.max_sends_per_second", Message: "cannot be negative"})
	}
	if c.HTTP.ConnectTimeoutSecs < 0 || c.HTTP.ReadTimeoutSecs < 0 || c.HTTP.WriteTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "http", Message: "timeouts cannot be negative"})
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	if !validThemes[c.UI.Theme] {
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be auto, dark or light"})
	}
	if !validModes[c.UI.DefaultMode] {
		errs = append(errs, ValidationError{Field: "ui.default_mode", Message: fmt.Sprintf("unknown mode %q", c.UI.DefaultMode)})
	}
	if !validExport[c.UI.ExportFormat] {
		errs = append(errs, ValidationError{Field: "ui.export_format", Message: "must be markdown, json or html"})
	}
	if c.UI.PlaceholderDelayMs < 0 {
		errs = append(errs, ValidationError{Field: "ui.placeholder_delay_ms", Message: "cannot be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateEndpoint accepts empty values, bare host[:port] and http/https/ws/wss URLs.
func ValidateEndpoint(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !strings.Contains(value, "://") {
		value = "http://" + value
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DEEPCOG_TEXT_URL: overrides backends.text_url
//   - DEEPCOG_IMAGE_URL: overrides backends.image_url
//   - DEEPCOG_OCR_URL: overrides backends.ocr_url
//   - DEEPCOG_MODEL: overrides both models.top and models.bottom
//   - DEEPCOG_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DEEPCOG_TEXT_URL"); v != "" {
		c.Backends.TextURL = v
	}
	if v := os.Getenv("DEEPCOG_IMAGE_URL"); v != "" {
		c.Backends.ImageURL = v
	}
	if v := os.Getenv("DEEPCOG_OCR_URL"); v != "" {
		c.Backends.OCRURL = v
	}
	if v := os.Getenv("DEEPCOG_MODEL"); v != "" {
		c.Models.Top = v
		c.Models.Bottom = v
	}
	if v := os.Getenv("DEEPCOG_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "backends.text_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "stream.reconnect").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			switch strings.ToLower(strVal) {
			case "1", "true", "yes", "on":
				field.SetBool(true)
			case "0", "false", "no", "off":
				field.SetBool(false)
			default:
				return fmt.Errorf("invalid boolean value: %q", strVal)
			}
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"backends.text_url",
		"backends.image_url",
		"backends.ocr_url",
		"backends.search_url",
		"models.top",
		"models.bottom",
		"models.temperature",
		"models.max_tokens",
		"stream.suppress_errors",
		"stream.idle_timeout_secs",
		"stream.handshake_timeout_secs",
		"stream.reconnect",
		"stream.reconnect_max_elapsed_secs",
		"stream.max_sends_per_second",
		"http.connect_timeout_secs",
		"http.read_timeout_secs",
		"http.write_timeout_secs",
		"http.temp_dir",
		"log.level",
		"log.file",
		"storage.path",
		"storage.history_limit",
		"storage.seed_samples",
		"ui.theme",
		"ui.default_mode",
		"ui.placeholder_delay_ms",
		"ui.word_wrap",
		"ui.export_format",
	}
}

// Clone creates a copy of the configuration. Config holds no reference
// types, so a struct copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
