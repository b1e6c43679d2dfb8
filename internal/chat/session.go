// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/service"
	"github.com/rs/zerolog"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Canned assistant replies.
const (
	PlaceholderReply   = "Server response"
	ImageSuccessPrefix = "Generated image for: "
	ImageFailureReply  = "Failed to generate image. Please check your connection and try again."
	ErrorPrefix        = "Error: "
)

// DefaultPlaceholderDelay is how long placeholder modes wait before replying.
const DefaultPlaceholderDelay = time.Second

// updateBuffer is the per-subscriber channel capacity.
const updateBuffer = 64

var (
	// ErrStreamInProgress is returned when a text prompt is submitted while
	// the previous reply is still streaming.
	ErrStreamInProgress = errors.New("a reply is still streaming")
	// ErrStreamNotOpen is returned when the text stream is not connected.
	ErrStreamNotOpen = errors.New("text stream is not connected")
	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("session is closed")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the network surface a Session drives. *service.Service
// implements it.
type Backend interface {
	GenerateImage(ctx context.Context, prompt string) (*service.GeneratedImage, error)
	SetImageURL(url string)
	Connect(ctx context.Context, endpoint service.Endpoint, listener service.Listener) error
	Send(ctx context.Context, req service.PromptRequest) error
	Disconnect()
	State() service.State
}

// Recorder stores completed exchanges for the dashboard.
type Recorder interface {
	Record(ctx context.Context, e dashboard.Event) error
}

// Endpoints holds the configured base URL of each backend.
type Endpoints struct {
	Text   string
	Image  string
	OCR    string
	Search string
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Endpoints        Endpoints
	TopModel         string
	BottomModel      string
	Temperature      float64
	MaxTokens        int
	PlaceholderDelay time.Duration
	InitialMode      Mode
}

// SessionOption configures optional collaborators.
type SessionOption func(*Session)

// WithRecorder records each completed exchange.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithResources supplies the resource string stored with recorded events.
func WithResources(fn func() string) SessionOption {
	return func(s *Session) { s.resources = fn }
}

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// =============================================================================
// UPDATES
// =============================================================================

// UpdateKind describes what changed.
type UpdateKind int

const (
	// UpdateAppended means Message was appended to the log.
	UpdateAppended UpdateKind = iota
	// UpdatePartial means the streamed reply grew; Partial holds it.
	UpdatePartial
	// UpdateMode means the selected mode changed.
	UpdateMode
	// UpdateBusy means a request started or finished; Busy holds the state.
	UpdateBusy
)

// Update is a change notification.
type Update struct {
	Kind    UpdateKind
	Message Message
	Partial string
	Mode    Mode
	Busy    bool
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the explicit owner of one conversation's state.
type Session struct {
	backend   Backend
	recorder  Recorder
	resources func() string
	logger    zerolog.Logger
	now       func() time.Time

	mu        sync.Mutex
	cfg       SessionConfig
	messages  []Message
	mode      Mode
	streaming bool
	busy      int
	partial   strings.Builder
	question  string
	attached  []dashboard.AgentType
	subs      map[int]chan Update
	nextSub   int
	closed    bool
}

// NewSession creates a session. Call Start to connect the text stream.
func NewSession(cfg SessionConfig, backend Backend, opts ...SessionOption) *Session {
	if cfg.PlaceholderDelay < 0 {
		cfg.PlaceholderDelay = 0
	}
	if !cfg.InitialMode.valid() {
		cfg.InitialMode = ModeTopAI
	}
	s := &Session{
		backend:   backend,
		resources: func() string { return dashboard.BaselineGauges().Resources() },
		logger:    zerolog.Nop(),
		now:       time.Now,
		cfg:       cfg,
		mode:      cfg.InitialMode,
		subs:      make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start applies the image endpoint and connects the text stream when a text
// endpoint is configured.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	eps := s.cfg.Endpoints
	s.mu.Unlock()

	s.backend.SetImageURL(eps.Image)
	return s.connect(ctx, eps.Text)
}

func (s *Session) connect(ctx context.Context, textURL string) error {
	endpoint := service.Endpoint{Kind: service.KindText, BaseURL: textURL}
	if !endpoint.Configured() {
		s.logger.Info().Msg("text backend not configured; streaming disabled")
		return nil
	}
	return s.backend.Connect(ctx, endpoint, s.HandleEvent)
}

// Reconfigure applies new endpoints. The text stream is re-derived and
// reconnected only when its URL changed; an in-progress reply is abandoned.
func (s *Session) Reconfigure(ctx context.Context, eps Endpoints) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	textChanged := s.cfg.Endpoints.Text != eps.Text
	s.cfg.Endpoints = eps
	if textChanged {
		s.resetStreamLocked()
	}
	s.mu.Unlock()

	s.backend.SetImageURL(eps.Image)
	if !textChanged {
		return nil
	}
	s.logger.Info().Str("text_url", eps.Text).Msg("text endpoint changed, reconnecting")
	s.backend.Disconnect()
	s.notify(Update{Kind: UpdatePartial})
	s.notify(Update{Kind: UpdateBusy, Busy: s.Busy()})
	return s.connect(ctx, eps.Text)
}

// Endpoints returns the current endpoints.
func (s *Session) Endpoints() Endpoints {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Endpoints
}

// Close disconnects the stream and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.resetStreamLocked()
	subs := s.subs
	s.subs = make(map[int]chan Update)
	s.mu.Unlock()

	s.backend.Disconnect()
	for _, ch := range subs {
		close(ch)
	}
}

// =============================================================================
// MODE
// =============================================================================

// Mode returns the selected mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SelectMode changes the backend used for subsequent submissions.
func (s *Session) SelectMode(m Mode) error {
	if !m.valid() {
		return fmt.Errorf("invalid mode %d", m)
	}
	s.mu.Lock()
	changed := s.mode != m
	s.mode = m
	s.mu.Unlock()
	if changed {
		s.notify(Update{Kind: UpdateMode, Mode: m})
	}
	return nil
}

// Modes lists the selectable modes in picker order.
func (s *Session) Modes() []Mode {
	return Modes()
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Messages returns a copy of the log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// MessageCount returns the length of the log.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Partial returns the reply streamed so far.
func (s *Session) Partial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partial.String()
}

// Streaming reports whether a text reply is in progress.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Busy reports whether any request (stream, image or placeholder) is pending.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming || s.busy > 0
}

// Subscribe returns a channel of updates and a function that ends the
// subscription. Slow subscribers miss updates rather than block the session.
func (s *Session) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Update, updateBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) notify(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit appends the user's text and routes it to the selected backend.
// Blank input is ignored. Image and placeholder modes block until their
// reply is appended; text mode returns once the prompt is sent and the reply
// arrives through HandleEvent.
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	mode := s.mode
	if mode.IsText() && s.streaming {
		s.mu.Unlock()
		return ErrStreamInProgress
	}
	user := s.appendLocked(SenderUser, text)
	s.mu.Unlock()
	s.notify(Update{Kind: UpdateAppended, Message: user})

	switch {
	case mode.IsText():
		return s.submitText(ctx, mode, text)
	case mode == ModeImage:
		return s.submitImage(ctx, text)
	default:
		return s.submitPlaceholder(ctx, mode, text)
	}
}

func (s *Session) submitText(ctx context.Context, mode Mode, text string) error {
	if s.backend.State() != service.StateOpen {
		err := ErrStreamNotOpen
		s.mu.Lock()
		if s.cfg.Endpoints.Text == "" {
			err = service.ErrNotConfigured
		}
		s.mu.Unlock()
		s.appendAssistant(ErrorPrefix + err.Error())
		return err
	}

	s.mu.Lock()
	req := service.PromptRequest{
		Prompt:      text,
		Model:       s.cfg.TopModel,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
	if mode == ModeBottomAI {
		req.Model = s.cfg.BottomModel
	}
	s.streaming = true
	s.question = text
	s.partial.Reset()
	s.mu.Unlock()
	s.notify(Update{Kind: UpdateBusy, Busy: true})

	if err := s.backend.Send(ctx, req); err != nil {
		s.mu.Lock()
		s.resetStreamLocked()
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("failed to send prompt")
		s.appendAssistant(ErrorPrefix + err.Error())
		s.notify(Update{Kind: UpdateBusy, Busy: false})
		return err
	}
	return nil
}

func (s *Session) submitImage(ctx context.Context, prompt string) error {
	s.beginBusy()
	defer s.endBusy()

	img, err := s.backend.GenerateImage(ctx, prompt)
	if err != nil || img == nil {
		s.logger.Warn().Err(err).Msg("image generation failed")
		s.appendAssistant(ImageFailureReply)
		return err
	}

	s.mu.Lock()
	msg := newMessage(SenderAssistant, ImageSuccessPrefix+prompt, s.now())
	msg.ImagePath = img.Path
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify(Update{Kind: UpdateAppended, Message: msg})

	s.record(ctx, prompt, ModeImage)
	return nil
}

func (s *Session) submitPlaceholder(ctx context.Context, mode Mode, prompt string) error {
	s.beginBusy()
	defer s.endBusy()

	s.mu.Lock()
	delay := s.cfg.PlaceholderDelay
	s.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	s.appendAssistant(PlaceholderReply)
	s.record(ctx, prompt, mode)
	return nil
}

func (s *Session) beginBusy() {
	s.mu.Lock()
	s.busy++
	s.mu.Unlock()
	s.notify(Update{Kind: UpdateBusy, Busy: true})
}

func (s *Session) endBusy() {
	s.mu.Lock()
	s.busy--
	busy := s.streaming || s.busy > 0
	s.mu.Unlock()
	s.notify(Update{Kind: UpdateBusy, Busy: busy})
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// HandleEvent applies a text stream event. It is the Listener passed to
// the backend and may be called from any goroutine.
func (s *Session) HandleEvent(ev service.Event) {
	switch ev.Kind {
	case service.EventToken:
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.partial.WriteString(ev.Text)
		partial := s.partial.String()
		s.mu.Unlock()
		s.notify(Update{Kind: UpdatePartial, Partial: partial})

	case service.EventComplete:
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		question := s.question
		wasStreaming := s.streaming
		s.resetStreamLocked()
		msg := s.appendLocked(SenderAssistant, ev.Text)
		mode := s.mode
		s.mu.Unlock()

		s.notify(Update{Kind: UpdatePartial})
		s.notify(Update{Kind: UpdateAppended, Message: msg})
		s.notify(Update{Kind: UpdateBusy, Busy: s.Busy()})
		if wasStreaming && question != "" {
			s.record(context.Background(), question, mode)
		}

	case service.EventError:
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.resetStreamLocked()
		detail := "unknown error"
		if ev.Err != nil {
			detail = ev.Err.Error()
		}
		msg := s.appendLocked(SenderAssistant, ErrorPrefix+detail)
		s.mu.Unlock()

		s.notify(Update{Kind: UpdatePartial})
		s.notify(Update{Kind: UpdateAppended, Message: msg})
		s.notify(Update{Kind: UpdateBusy, Busy: s.Busy()})
	}
}

// resetStreamLocked requires s.mu.
func (s *Session) resetStreamLocked() {
	s.streaming = false
	s.question = ""
	s.partial.Reset()
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// Attach records an attached file as a user entry. The file is not read.
func (s *Session) Attach(kind AttachmentKind, path string) (Message, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Message{}, errors.New("attachment path is empty")
	}
	if _, ok := attachmentInfo[kind]; !ok {
		return Message{}, fmt.Errorf("unknown attachment kind %d", kind)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Message{}, ErrSessionClosed
	}
	msg := newMessage(SenderUser, kind.describe(path), s.now())
	msg.Attach = &Attachment{Kind: kind, Path: path}
	s.messages = append(s.messages, msg)
	s.attached = append(s.attached, kind.Agent())
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateAppended, Message: msg})
	return msg, nil
}

// =============================================================================
// LOG HELPERS
// =============================================================================

// appendLocked requires s.mu.
func (s *Session) appendLocked(sender Sender, text string) Message {
	msg := newMessage(sender, text, s.now())
	s.messages = append(s.messages, msg)
	return msg
}

func (s *Session) appendAssistant(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	msg := s.appendLocked(SenderAssistant, text)
	s.mu.Unlock()
	s.notify(Update{Kind: UpdateAppended, Message: msg})
}

// record stores a completed exchange. Failures are logged only.
func (s *Session) record(ctx context.Context, question string, mode Mode) {
	s.mu.Lock()
	agents := mergeAgents(mode, s.attached)
	s.attached = nil
	s.mu.Unlock()

	if s.recorder == nil {
		return
	}
	event := dashboard.NewEvent(s.now(), question, agents, s.resources())
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record event")
	}
}

// mergeAgents returns the mode's agent plus the attachment agents, without
// duplicates, in dashboard order.
func mergeAgents(mode Mode, attached []dashboard.AgentType) []dashboard.AgentType {
	seen := make(map[dashboard.AgentType]bool)
	if a, ok := mode.Agent(); ok {
		seen[a] = true
	}
	for _, a := range attached {
		seen[a] = true
	}
	var agents []dashboard.AgentType
	for _, a := range dashboard.AllAgents() {
		if seen[a] {
			agents = append(agents, a)
		}
	}
	return agents
}
