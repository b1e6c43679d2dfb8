// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// =============================================================================
// STATE MACHINE
// =============================================================================

// State is the connection state of a Stream.
type State int32

const (
	StateUnconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// errSuperseded ends a connect attempt overtaken by a newer Connect, Dial or
// Disconnect.
var errSuperseded = errors.New("connect superseded")

// =============================================================================
// STREAM CONFIGURATION
// =============================================================================

// StreamConfig controls error delivery, timeouts and reconnects.
type StreamConfig struct {
	// SuppressErrors logs transport failures and backend error frames
	// instead of delivering them to the Listener.
	SuppressErrors bool

	// IdleTimeout reports ErrStreamTimeout when a prompt gets no frame for
	// this long. Zero disables it.
	IdleTimeout time.Duration

	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// Reconnect re-dials a dropped connection with exponential backoff.
	Reconnect bool

	// ReconnectMaxElapsed stops reconnect attempts after this long.
	ReconnectMaxElapsed time.Duration

	// MaxSendsPerSecond rate limits prompt frames. Zero means unlimited.
	MaxSendsPerSecond float64
}

// DefaultStreamConfig returns the default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		IdleTimeout:         60 * time.Second,
		HandshakeTimeout:    10 * time.Second,
		WriteTimeout:        10 * time.Second,
		ReconnectMaxElapsed: 2 * time.Minute,
	}
}

// =============================================================================
// STREAM
// =============================================================================

// Stream is the persistent duplex connection to the text backend.
//
// Inbound frames are decoded on a dedicated goroutine and forwarded to the
// Listener as Events. Token content is accumulated until a "done" frame,
// which delivers the whole response and resets the accumulator.
type Stream struct {
	config  StreamConfig
	dialer  *websocket.Dialer
	logger  zerolog.Logger
	metrics *Metrics
	limiter *rate.Limiter

	// connectMu serialises dials so two callers cannot race to replace
	// conn.
	connectMu sync.Mutex
	// writeMu guards frame writes; the websocket allows one writer.
	writeMu sync.Mutex
	// wg tracks background dials, readers, idle watchers and reconnects.
	wg   sync.WaitGroup
	stop context.Context
	halt context.CancelFunc

	mu    sync.Mutex
	conn  *websocket.Conn
	state State

	// gen changes whenever the socket is replaced or dropped; attempt
	// changes on every Connect, Dial and Disconnect.
	gen          uint64
	attempt      uint64
	changed      chan struct{}
	dialErr      error
	closed       bool
	endpoint     Endpoint
	listener     Listener
	acc          strings.Builder
	awaiting     bool
	lastActivity time.Time
	cancelDial   context.CancelFunc
}

// NewStream creates an unconnected stream.
func NewStream(cfg StreamConfig, logger zerolog.Logger, metrics *Metrics) *Stream {
	defaults := DefaultStreamConfig()
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.ReconnectMaxElapsed <= 0 {
		cfg.ReconnectMaxElapsed = defaults.ReconnectMaxElapsed
	}

	stop, halt := context.WithCancel(context.Background())
	s := &Stream{
		config: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger:  logger,
		metrics: metrics,
		state:   StateUnconnected,
		changed: make(chan struct{}),
		stop:    stop,
		halt:    halt,
	}
	if cfg.MaxSendsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MaxSendsPerSecond), 1)
	}
	metrics.setStreamState(StateUnconnected)
	return s
}

// Config returns the stream configuration.
func (s *Stream) Config() StreamConfig {
	return s.config
}

// State returns the current connection state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Endpoint returns the endpoint of the last Connect/Dial.
func (s *Stream) Endpoint() Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Accumulated returns the response text received since the last completion.
func (s *Stream) Accumulated() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.String()
}

// =============================================================================
// CONNECT / DISCONNECT
// =============================================================================

// Connect dials endpoint in the background and returns immediately. The
// stream is Connecting by the time Connect returns. A handshake failure
// leaves the stream Closed and is delivered to listener as EventError unless
// errors are suppressed. A later Connect, Dial or Disconnect supersedes a
// pending one, which then gives up without touching the stream.
func (s *Stream) Connect(ctx context.Context, endpoint Endpoint, listener Listener) error {
	if !endpoint.Configured() {
		return ErrNotConfigured
	}
	attempt, err := s.beginConnect(endpoint, true)
	if err != nil {
		return err
	}
	go func() {
		defer s.wg.Done()
		s.connectMu.Lock()
		defer s.connectMu.Unlock()
		err := s.dialLocked(ctx, attempt, endpoint, listener)
		if err != nil && !errors.Is(err, errSuperseded) {
			s.deliverError(listener, err)
		}
	}()
	return nil
}

// Dial connects to endpoint and blocks until the handshake completes. Any
// existing connection is closed first.
func (s *Stream) Dial(ctx context.Context, endpoint Endpoint, listener Listener) error {
	if !endpoint.Configured() {
		return ErrNotConfigured
	}
	attempt, err := s.beginConnect(endpoint, false)
	if err != nil {
		return err
	}
	s.connectMu.Lock()
	defer s.connectMu.Unlock()
	return s.dialLocked(ctx, attempt, endpoint, listener)
}

// WaitOpen blocks until the stream is Open. It fails with the handshake
// error once a pending connect gives up, or with ErrStreamClosed when no
// connect is pending.
func (s *Stream) WaitOpen(ctx context.Context) error {
	for {
		s.mu.Lock()
		state, changed, dialErr := s.state, s.changed, s.dialErr
		s.mu.Unlock()

		switch state {
		case StateOpen:
			return nil
		case StateUnconnected, StateClosed:
			if dialErr != nil {
				return dialErr
			}
			return ErrStreamClosed
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return &ClientError{Type: ErrTypeTimeout, Message: "text stream did not open", Cause: ctx.Err()}
		}
	}
}

// beginConnect claims a new connect attempt and invalidates older ones.
// background registers the dialing goroutine with Close.
func (s *Stream) beginConnect(endpoint Endpoint, background bool) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStreamClosed
	}
	if background {
		s.wg.Add(1)
	}
	s.attempt++
	s.endpoint = endpoint
	s.dialErr = nil
	s.setStateLocked(StateConnecting)
	return s.attempt, nil
}

// dialLocked requires connectMu. It returns errSuperseded when attempt is no
// longer the latest one.
func (s *Stream) dialLocked(ctx context.Context, attempt uint64, endpoint Endpoint, listener Listener) error {
	if listener == nil {
		listener = func(Event) {}
	}

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	url := endpoint.SocketURL()

	s.mu.Lock()
	if attempt != s.attempt {
		s.mu.Unlock()
		return errSuperseded
	}
	old := s.detachLocked()
	gen := s.gen
	s.endpoint = endpoint
	s.listener = listener
	s.cancelDial = cancel
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	s.closeConn(old)
	s.logger.Info().Str("url", url).Msg("connecting text stream")

	conn, resp, err := s.dialer.DialContext(dialCtx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s.mu.Lock()
	s.cancelDial = nil
	if attempt != s.attempt || gen != s.gen {
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		s.logger.Debug().Str("url", url).Msg("text stream connect superseded")
		return errSuperseded
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			err = &ClientError{Type: ErrTypeTimeout, Message: "websocket handshake timed out", Cause: err}
		} else {
			err = &ClientError{Type: ErrTypeConnection, Message: "websocket handshake failed", Cause: err}
		}
		s.dialErr = err
		s.setStateLocked(StateClosed)
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("url", url).Msg("text stream handshake failed")
		return err
	}
	s.conn = conn
	s.lastActivity = time.Now()
	s.setStateLocked(StateOpen)
	s.wg.Add(2)
	s.mu.Unlock()

	s.logger.Info().Str("url", url).Msg("text stream open")

	done := make(chan struct{})
	go s.readLoop(conn, gen, done)
	go s.watchIdle(gen, done)
	return nil
}

// Disconnect closes the connection with a normal-closure frame and abandons
// any pending connect. It is idempotent.
func (s *Stream) Disconnect() {
	s.mu.Lock()
	s.attempt++
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	conn := s.detachLocked()
	if s.state == StateOpen || s.state == StateConnecting {
		s.setStateLocked(StateClosed)
	}
	s.mu.Unlock()

	s.closeConn(conn)
}

// Close disconnects and waits for background work to finish. The stream
// cannot be connected again.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.Disconnect()
	s.halt()
	s.wg.Wait()
}

// detachLocked invalidates the current generation and returns its socket.
func (s *Stream) detachLocked() *websocket.Conn {
	conn := s.conn
	s.conn = nil
	s.gen++
	s.acc.Reset()
	s.awaiting = false
	return conn
}

// closeConn sends a normal-closure frame and closes conn.
func (s *Stream) closeConn(conn *websocket.Conn) {
	if conn == nil {
		return
	}

	s.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		s.logger.Debug().Err(err).Msg("close frame not sent")
	}
	s.writeMu.Unlock()

	conn.Close()
	s.logger.Info().Msg("text stream closed")
}

func (s *Stream) setStateLocked(st State) {
	s.state = st
	s.metrics.setStreamState(st)
	close(s.changed)
	s.changed = make(chan struct{})
}

// =============================================================================
// SEND
// =============================================================================

// Send writes req to the open connection without waiting for a reply. When
// the stream is not Open the call does nothing and returns nil.
func (s *Stream) Send(ctx context.Context, req PromptRequest) error {
	s.mu.Lock()
	conn := s.conn
	open := s.state == StateOpen && conn != nil
	s.mu.Unlock()

	if !open {
		s.logger.Warn().Msg("send ignored: text stream not open")
		return nil
	}

	data, err := encodePrompt(req)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "invalid prompt", Cause: err}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return &ClientError{Type: ErrTypeTimeout, Message: "send rate limit wait cancelled", Cause: err}
		}
	}

	// Mark the prompt outstanding before writing so a fast "done" cannot be
	// overtaken by this bookkeeping.
	s.mu.Lock()
	s.awaiting = true
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	err = conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()

	if err != nil {
		s.mu.Lock()
		s.awaiting = false
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("failed to write prompt")
		return &ClientError{Type: ErrTypeConnection, Message: "failed to send prompt", Cause: err}
	}

	s.metrics.promptSent()
	s.logger.Debug().Str("model", req.Model).Int("chars", len(req.Prompt)).Msg("prompt sent")
	return nil
}

// =============================================================================
// INBOUND FRAMES
// =============================================================================

func (s *Stream) readLoop(conn *websocket.Conn, gen uint64, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(gen, err)
			return
		}
		s.handleFrame(gen, data)
	}
}

// handleFrame decodes one frame. Malformed frames are dropped; the
// connection stays open.
func (s *Stream) handleFrame(gen uint64, data []byte) {
	frame, err := DecodeFrame(data)
	if err != nil {
		s.metrics.frameMalformed()
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed frame")
		return
	}
	s.metrics.frameReceived(frame.Type)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.lastActivity = time.Now()
	listener := s.listener

	switch frame.Type {
	case FrameToken:
		s.acc.WriteString(frame.Content)
		s.mu.Unlock()
		listener(TokenEvent(frame.Content))

	case FrameDone:
		text := s.acc.String()
		s.awaiting = false
		s.mu.Unlock()
		listener(CompleteEvent(text))
		s.mu.Lock()
		if gen == s.gen {
			s.acc.Reset()
		}
		s.mu.Unlock()

	case FrameError:
		s.mu.Unlock()
		s.logger.Error().Str("detail", frame.Content).Msg("text backend reported an error")
		err := &ClientError{Type: ErrTypeBackend, Message: "backend error"}
		if frame.Content != "" {
			err.Message = frame.Content
		}
		s.deliverError(listener, err)

	default:
		s.mu.Unlock()
		s.logger.Warn().Str("type", frame.Type).Msg("ignoring frame of unknown type")
	}
}

func (s *Stream) handleReadError(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateOpen {
		// Closed deliberately, or a pending connect is replacing it.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.setStateLocked(StateClosed)
	listener := s.listener
	endpoint := s.endpoint
	attempt := s.attempt
	s.mu.Unlock()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.logger.Info().Err(err).Msg("text backend closed the stream")
	} else {
		s.logger.Error().Err(err).Msg("text stream read failed")
	}
	s.deliverError(listener, &ClientError{Type: ErrTypeConnection, Message: "text stream lost", Cause: err})

	if s.config.Reconnect {
		s.wg.Add(1)
		go s.reconnect(attempt, endpoint, listener)
	}
}

// deliverError resets the accumulator and forwards err unless errors are
// suppressed.
func (s *Stream) deliverError(listener Listener, err error) {
	s.mu.Lock()
	s.acc.Reset()
	s.awaiting = false
	s.mu.Unlock()

	if s.config.SuppressErrors || listener == nil {
		s.logger.Debug().Err(err).Msg("stream error suppressed")
		return
	}
	listener(ErrorEvent(err))
}

// watchIdle reports ErrStreamTimeout when an outstanding prompt gets no
// frame within IdleTimeout.
func (s *Stream) watchIdle(gen uint64, done <-chan struct{}) {
	defer s.wg.Done()
	if s.config.IdleTimeout <= 0 {
		return
	}
	interval := s.config.IdleTimeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if gen != s.gen {
				s.mu.Unlock()
				return
			}
			expired := s.awaiting && time.Since(s.lastActivity) >= s.config.IdleTimeout
			listener := s.listener
			s.mu.Unlock()

			if expired {
				s.logger.Warn().Dur("timeout", s.config.IdleTimeout).Msg("text stream idle timeout")
				s.deliverError(listener, ErrStreamTimeout)
			}
		}
	}
}

// reconnect re-dials after a dropped connection until it succeeds, the
// stream is disconnected or reconnected elsewhere, or the backoff expires.
func (s *Stream) reconnect(attempt uint64, endpoint Endpoint, listener Listener) {
	defer s.wg.Done()
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = s.config.ReconnectMaxElapsed
	b := backoff.WithContext(eb, s.stop)

	tries := 0
	op := func() error {
		s.connectMu.Lock()
		defer s.connectMu.Unlock()

		tries++
		ctx, cancel := context.WithTimeout(s.stop, s.config.HandshakeTimeout)
		defer cancel()
		err := s.dialLocked(ctx, attempt, endpoint, listener)
		if errors.Is(err, errSuperseded) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(op, b); err != nil {
		s.logger.Warn().Err(err).Int("attempts", tries).Msg("text stream reconnect abandoned")
		return
	}
	s.logger.Info().Int("attempts", tries).Msg("text stream reconnected")
}
