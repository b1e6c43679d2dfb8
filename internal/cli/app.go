// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
	"github.com/deepcognitive/deepcog-tui/internal/config"
	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/logging"
	"github.com/deepcognitive/deepcog-tui/internal/service"
	"github.com/deepcognitive/deepcog-tui/internal/storage"
)

// =============================================================================
// RUNTIME
// =============================================================================

// Runtime holds the long-lived collaborators shared by every command.
type Runtime struct {
	Config     *config.Config
	ConfigPath string
	Logger     zerolog.Logger
	Service    *service.Service
	Metrics    *service.Metrics
	Store      *storage.EventStore
	Sampler    *dashboard.Sampler
	Session    *chat.Session

	// ctx outlives every reconnect; it is the context of the command that
	// built the runtime.
	ctx      context.Context
	mu       sync.Mutex
	watcher  *config.Watcher
	closeLog func() error
	closed   bool
}

// runtimeOptions selects what a command needs.
type runtimeOptions struct {
	// Console logs to Stderr instead of the log file.
	Console bool
	// LogLevel overrides log.level when set.
	LogLevel string
	// Watch reloads the config file on change.
	Watch bool
	Stderr io.Writer
}

// loadConfig reads the config file at path, or the default file when path
// is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		return cfg, path, err
	}
	def, err := config.ConfigPathTOML()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load()
	return cfg, def, err
}

// newRuntime wires config, logging, the service, storage and a chat session.
func newRuntime(ctx context.Context, configPath string, opts runtimeOptions) (*Runtime, error) {
	cfg, path, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.Setup(logging.Options{
		Level:   level,
		File:    logPath,
		Console: opts.Console,
		Stderr:  opts.Stderr,
	})
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Metrics:    service.NewMetrics(),
		Sampler:    dashboard.NewSampler(time.Now().UnixNano(), dashboard.DefaultJitter),
		ctx:        ctx,
		closeLog:   closeLog,
	}

	rt.Service = service.New(clientConfig(cfg), streamConfig(cfg),
		service.WithLogger(logging.Component(logger, "service")),
		service.WithMetrics(rt.Metrics),
	)

	storePath, err := cfg.StoragePath()
	if err != nil {
		rt.Close()
		return nil, err
	}
	store, err := storage.Open(storePath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open event history: %w", err)
	}
	rt.Store = store
	if cfg.Storage.SeedSamples {
		if seeded, err := store.SeedIfEmpty(ctx, dashboard.SampleEvents()); err != nil {
			logger.Warn().Err(err).Msg("failed to seed sample events")
		} else if seeded {
			logger.Info().Msg("seeded sample events")
		}
	}

	rt.Session = chat.NewSession(sessionConfig(cfg), rt.Service,
		chat.WithRecorder(store),
		chat.WithResources(func() string { return rt.Sampler.Last().Resources() }),
		chat.WithLogger(logging.Component(logger, "chat")),
	)

	if opts.Watch {
		if err := rt.watchConfig(); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("config watch disabled")
		}
	}
	return rt, nil
}

// clientConfig maps config to the HTTP client settings.
func clientConfig(cfg *config.Config) *service.ClientConfig {
	cc := service.DefaultConfig()
	cc.ImageURL = cfg.Backends.ImageURL
	cc.ConnectTimeout = cfg.HTTP.ConnectTimeout()
	cc.ReadTimeout = cfg.HTTP.ReadTimeout()
	cc.WriteTimeout = cfg.HTTP.WriteTimeout()
	cc.TempDir = cfg.HTTP.TempDir
	cc.UserAgent = "deepcog/" + Version
	return cc
}

// streamConfig maps config to the text stream settings.
func streamConfig(cfg *config.Config) service.StreamConfig {
	sc := service.DefaultStreamConfig()
	sc.SuppressErrors = cfg.Stream.SuppressErrors
	sc.IdleTimeout = cfg.Stream.IdleTimeout()
	sc.HandshakeTimeout = cfg.Stream.HandshakeTimeout()
	sc.WriteTimeout = cfg.HTTP.WriteTimeout()
	sc.Reconnect = cfg.Stream.Reconnect
	sc.ReconnectMaxElapsed = cfg.Stream.ReconnectMaxElapsed()
	sc.MaxSendsPerSecond = cfg.Stream.MaxSendsPerSecond
	return sc
}

func endpointsOf(cfg *config.Config) chat.Endpoints {
	return chat.Endpoints{
		Text:   cfg.Backends.TextURL,
		Image:  cfg.Backends.ImageURL,
		OCR:    cfg.Backends.OCRURL,
		Search: cfg.Backends.SearchURL,
	}
}

// sessionConfig maps config to the chat session settings. An unknown
// default mode falls back to Top AI.
func sessionConfig(cfg *config.Config) chat.SessionConfig {
	mode, err := chat.ParseMode(cfg.UI.DefaultMode)
	if err != nil {
		mode = chat.ModeTopAI
	}
	return chat.SessionConfig{
		Endpoints:        endpointsOf(cfg),
		TopModel:         cfg.Models.Top,
		BottomModel:      cfg.Models.Bottom,
		Temperature:      cfg.Models.Temperature,
		MaxTokens:        cfg.Models.MaxTokens,
		PlaceholderDelay: cfg.UI.PlaceholderDelay(),
		InitialMode:      mode,
	}
}

// =============================================================================
// CONFIG CHANGES
// =============================================================================

func (r *Runtime) watchConfig() error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	w, err := config.Watch(r.ConfigPath, config.DefaultWatchDebounce,
		logging.Component(r.Logger, "config"), r.applyConfig)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
	return nil
}

// applyConfig reconnects the session when the endpoints changed on disk.
func (r *Runtime) applyConfig(cfg *config.Config) {
	r.mu.Lock()
	changed := r.Config.Backends != cfg.Backends
	r.Config = cfg
	r.mu.Unlock()
	if !changed {
		return
	}

	if err := r.Session.Reconfigure(r.ctx, endpointsOf(cfg)); err != nil {
		r.Logger.Warn().Err(err).Msg("reconnect after config change failed")
	}
}

// SaveBackend validates a new text backend address, persists it and
// reconnects. Settings dialogs call it.
func (r *Runtime) SaveBackend(url string) error {
	if err := config.ValidateEndpoint(url); err != nil {
		return err
	}

	r.mu.Lock()
	cfg := r.Config.Clone()
	cfg.Backends.TextURL = url
	if err := config.SaveTOML(cfg, r.ConfigPath); err != nil {
		r.mu.Unlock()
		return err
	}
	r.Config = cfg
	r.mu.Unlock()

	return r.Session.Reconfigure(r.ctx, endpointsOf(cfg))
}

// CurrentConfig returns a copy of the active configuration.
func (r *Runtime) CurrentConfig() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Config.Clone()
}

// LoadEvents lists recorded events for the dashboard.
func (r *Runtime) LoadEvents(ctx context.Context) ([]dashboard.Event, error) {
	return r.Store.List(ctx, r.CurrentConfig().Storage.HistoryLimit)
}

// Close releases everything the runtime opened. It is idempotent. The log
// closes last so stream goroutines can still report while shutting down.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	w := r.watcher
	r.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Close())
	}
	if r.Session != nil {
		r.Session.Close()
	}
	if r.Service != nil {
		r.Service.Close()
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	if r.closeLog != nil {
		errs = append(errs, r.closeLog())
	}
	return errors.Join(errs...)
}
