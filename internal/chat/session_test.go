// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeBackend struct {
	mu          sync.Mutex
	state       service.State
	imageURL    string
	connects    []service.Endpoint
	listener    service.Listener
	sent        []service.PromptRequest
	sendErr     error
	image       *service.GeneratedImage
	imageErr    error
	prompts     []string
	disconnects int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{state: service.StateUnconnected}
}

func (f *fakeBackend) GenerateImage(ctx context.Context, prompt string) (*service.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.image, f.imageErr
}

func (f *fakeBackend) SetImageURL(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageURL = url
}

func (f *fakeBackend) Connect(ctx context.Context, ep service.Endpoint, l service.Listener) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, ep)
	f.listener = l
	f.state = service.StateOpen
	return nil
}

func (f *fakeBackend) Send(ctx context.Context, req service.PromptRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeBackend) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	if f.state == service.StateOpen {
		f.state = service.StateClosed
	}
}

func (f *fakeBackend) State() service.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// emit delivers an event the way the stream's read loop would.
func (f *fakeBackend) emit(ev service.Event) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	l(ev)
}

type memRecorder struct {
	mu     sync.Mutex
	events []dashboard.Event
}

func (r *memRecorder) Record(ctx context.Context, e dashboard.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memRecorder) all() []dashboard.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dashboard.Event(nil), r.events...)
}

func testConfig() SessionConfig {
	return SessionConfig{
		Endpoints:        Endpoints{Text: "http://text:8000", Image: "http://img:9000/gen"},
		TopModel:         "top-model",
		BottomModel:      "bottom-model",
		Temperature:      0.5,
		MaxTokens:        128,
		PlaceholderDelay: 10 * time.Millisecond,
	}
}

func newTestSession(t *testing.T, cfg SessionConfig) (*Session, *fakeBackend, *memRecorder) {
	t.Helper()
	backend := newFakeBackend()
	rec := &memRecorder{}
	fixed := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	sess := NewSession(cfg, backend,
		WithRecorder(rec),
		WithClock(func() time.Time { return fixed }),
		WithResources(func() string { return "CPU: 25%, RAM: 47%" }),
	)
	t.Cleanup(sess.Close)
	require.NoError(t, sess.Start(context.Background()))
	return sess, backend, rec
}

func texts(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

// =============================================================================
// TESTS
// =============================================================================

func TestSession_StartConnectsText(t *testing.T) {
	_, backend, _ := newTestSession(t, testConfig())

	require.Len(t, backend.connects, 1)
	assert.Equal(t, service.Endpoint{Kind: service.KindText, BaseURL: "http://text:8000"}, backend.connects[0])
	assert.Equal(t, "ws://text:8000/ws", backend.connects[0].SocketURL())
	assert.Equal(t, "http://img:9000/gen", backend.imageURL)
}

func TestSession_StartWithoutTextEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoints.Text = ""
	sess, backend, _ := newTestSession(t, cfg)
	assert.Empty(t, backend.connects)

	err := sess.Submit(context.Background(), "hello")
	assert.True(t, errors.Is(err, service.ErrNotConfigured))
	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasPrefix(msgs[1].Text, ErrorPrefix))
	assert.False(t, sess.Streaming())
}

func TestSession_TextStreamFlow(t *testing.T) {
	sess, backend, rec := newTestSession(t, testConfig())
	updates, cancel := sess.Subscribe()
	defer cancel()

	require.NoError(t, sess.Submit(context.Background(), "  Explain Go  "))
	require.Len(t, backend.sent, 1)
	assert.Equal(t, service.PromptRequest{Prompt: "Explain Go", Model: "top-model", Temperature: 0.5, MaxTokens: 128}, backend.sent[0])
	assert.True(t, sess.Streaming())

	backend.emit(service.TokenEvent("Go is "))
	backend.emit(service.TokenEvent("fun"))
	assert.Equal(t, "Go is fun", sess.Partial())
	assert.Len(t, sess.Messages(), 1, "partial text is not part of the log")

	backend.emit(service.CompleteEvent("Go is fun"))
	assert.Equal(t, "", sess.Partial())
	assert.False(t, sess.Streaming())
	assert.Equal(t, []string{"Explain Go", "Go is fun"}, texts(sess.Messages()))

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "Explain Go", events[0].Question)
	assert.Equal(t, "CPU: 25%, RAM: 47%", events[0].Resources)
	assert.Equal(t, "10:00 AM", events[0].Time)

	var sawPartial bool
	for len(updates) > 0 {
		u := <-updates
		if u.Kind == UpdatePartial && u.Partial == "Go is fun" {
			sawPartial = true
		}
	}
	assert.True(t, sawPartial)
}

func TestSession_BottomModelAndInProgressGuard(t *testing.T) {
	sess, backend, _ := newTestSession(t, testConfig())
	require.NoError(t, sess.SelectMode(ModeBottomAI))

	require.NoError(t, sess.Submit(context.Background(), "first"))
	assert.Equal(t, "bottom-model", backend.sent[0].Model)

	err := sess.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrStreamInProgress)
	assert.Equal(t, []string{"first"}, texts(sess.Messages()), "rejected prompt is not appended")

	backend.emit(service.CompleteEvent("done"))
	require.NoError(t, sess.Submit(context.Background(), "third"))
	assert.Len(t, backend.sent, 2)
}

func TestSession_StreamErrorResetsPartial(t *testing.T) {
	sess, backend, rec := newTestSession(t, testConfig())

	require.NoError(t, sess.Submit(context.Background(), "q"))
	backend.emit(service.TokenEvent("half"))
	backend.emit(service.ErrorEvent(service.ErrStreamTimeout))

	assert.Empty(t, sess.Partial())
	assert.False(t, sess.Streaming())
	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ErrorPrefix+service.ErrStreamTimeout.Error(), msgs[1].Text)
	assert.Empty(t, rec.all(), "failed exchanges are not recorded")
}

func TestSession_SendFailure(t *testing.T) {
	sess, backend, _ := newTestSession(t, testConfig())
	backend.sendErr = errors.New("broken pipe")

	err := sess.Submit(context.Background(), "q")
	assert.EqualError(t, err, "broken pipe")
	assert.False(t, sess.Streaming())
	assert.Equal(t, []string{"q", "Error: broken pipe"}, texts(sess.Messages()))
}

func TestSession_StreamNotOpen(t *testing.T) {
	sess, backend, _ := newTestSession(t, testConfig())
	backend.Disconnect()

	err := sess.Submit(context.Background(), "q")
	assert.ErrorIs(t, err, ErrStreamNotOpen)
	assert.Empty(t, backend.sent)
}

func TestSession_ImageSuccess(t *testing.T) {
	sess, backend, rec := newTestSession(t, testConfig())
	backend.image = &service.GeneratedImage{Path: "/tmp/generated_1.jpg", Size: 42}
	require.NoError(t, sess.SelectMode(ModeImage))

	require.NoError(t, sess.Submit(context.Background(), "a red fox"))

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Generated image for: a red fox", msgs[1].Text)
	assert.Equal(t, "/tmp/generated_1.jpg", msgs[1].ImagePath)
	assert.False(t, msgs[1].IsUser())
	assert.Equal(t, []string{"a red fox"}, backend.prompts)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, []dashboard.AgentType{dashboard.AgentImage}, events[0].Agents)
}

func TestSession_ImageFailure(t *testing.T) {
	sess, backend, rec := newTestSession(t, testConfig())
	backend.imageErr = service.ErrEmptyResponse
	require.NoError(t, sess.SelectMode(ModeImage))

	err := sess.Submit(context.Background(), "a red fox")
	assert.ErrorIs(t, err, service.ErrEmptyResponse)

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ImageFailureReply, msgs[1].Text)
	assert.Empty(t, msgs[1].ImagePath)
	assert.Empty(t, rec.all())
}

func TestSession_PlaceholderModes(t *testing.T) {
	for _, mode := range []Mode{ModeOCR, ModeSearch} {
		t.Run(mode.Key(), func(t *testing.T) {
			sess, backend, rec := newTestSession(t, testConfig())
			require.NoError(t, sess.SelectMode(mode))

			start := time.Now()
			require.NoError(t, sess.Submit(context.Background(), "read this"))
			assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

			assert.Equal(t, []string{"read this", PlaceholderReply}, texts(sess.Messages()))
			assert.Empty(t, backend.sent)
			require.Len(t, rec.all(), 1)
		})
	}
}

func TestSession_PlaceholderCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.PlaceholderDelay = time.Hour
	sess, _, _ := newTestSession(t, cfg)
	require.NoError(t, sess.SelectMode(ModeSearch))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sess.Submit(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"q"}, texts(sess.Messages()))
	assert.False(t, sess.Busy())
}

func TestSession_BlankInputIgnored(t *testing.T) {
	sess, backend, _ := newTestSession(t, testConfig())
	require.NoError(t, sess.Submit(context.Background(), "   \n\t"))
	assert.Empty(t, sess.Messages())
	assert.Empty(t, backend.sent)
}

func TestSession_AttachmentsAndAgents(t *testing.T) {
	sess, backend, rec := newTestSession(t, testConfig())

	cases := []struct {
		kind AttachmentKind
		path string
		want string
	}{
		{AttachImage, "/p/cat.png", "Image selected: /p/cat.png"},
		{AttachPhoto, "/p/photo.jpg", "Photo taken: /p/photo.jpg"},
		{AttachText, "/p/a.txt", "Text file selected: /p/a.txt"},
		{AttachJSON, "/p/a.json", "JSON file selected: /p/a.json"},
		{AttachPDF, "/p/a.pdf", "PDF file selected: /p/a.pdf"},
		{AttachAudio, "/p/a.wav", "Audio file selected: /p/a.wav"},
	}
	for _, c := range cases {
		msg, err := sess.Attach(c.kind, c.path)
		require.NoError(t, err)
		assert.Equal(t, c.want, msg.Text)
		assert.True(t, msg.IsUser())
		require.NotNil(t, msg.Attach)
		assert.Equal(t, c.path, msg.Attach.Path)
	}

	_, err := sess.Attach(AttachPDF, "  ")
	assert.Error(t, err)

	require.NoError(t, sess.SelectMode(ModeSearch))
	require.NoError(t, sess.Submit(context.Background(), "summarise"))

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, []dashboard.AgentType{
		dashboard.AgentAudio, dashboard.AgentWeb, dashboard.AgentImage, dashboard.AgentDocument,
	}, events[0].Agents)

	// Attachments are consumed by the exchange they preceded.
	require.NoError(t, sess.SelectMode(ModeTopAI))
	require.NoError(t, sess.Submit(context.Background(), "next"))
	backend.emit(service.CompleteEvent("ok"))
	events = rec.all()
	require.Len(t, events, 2)
	assert.Empty(t, events[1].Agents)
}

func TestSession_AppendOnly(t *testing.T) {
	sess, backend, _ := newTestSession(t, testConfig())

	require.NoError(t, sess.Submit(context.Background(), "one"))
	backend.emit(service.CompleteEvent("reply one"))
	before := sess.Messages()

	// Mutating the returned copy does not touch the log.
	before[0].Text = "tampered"

	require.NoError(t, sess.Submit(context.Background(), "two"))
	backend.emit(service.ErrorEvent(errors.New("boom")))

	after := sess.Messages()
	require.Len(t, after, 4)
	assert.Equal(t, "one", after[0].Text)
	assert.Equal(t, "reply one", after[1].Text)
	ids := map[string]bool{}
	for _, m := range after {
		assert.False(t, ids[m.ID], "message IDs are unique")
		ids[m.ID] = true
	}
}

func TestSession_Reconfigure(t *testing.T) {
	sess, backend, _ := newTestSession(t, testConfig())

	require.NoError(t, sess.Submit(context.Background(), "q"))
	backend.emit(service.TokenEvent("partial"))

	eps := Endpoints{Text: "https://new-host", Image: "http://img2"}
	require.NoError(t, sess.Reconfigure(context.Background(), eps))

	assert.Equal(t, 1, backend.disconnects)
	require.Len(t, backend.connects, 2)
	assert.Equal(t, "wss://new-host/ws", backend.connects[1].SocketURL())
	assert.Equal(t, "http://img2", backend.imageURL)
	assert.Empty(t, sess.Partial())
	assert.False(t, sess.Streaming())

	// Same text URL: image only, no reconnect.
	eps.Image = "http://img3"
	require.NoError(t, sess.Reconfigure(context.Background(), eps))
	assert.Len(t, backend.connects, 2)
	assert.Equal(t, "http://img3", backend.imageURL)
}

func TestSession_ReconfigureClearsBusy(t *testing.T) {
	sess, backend, _ := newTestSession(t, testConfig())
	require.NoError(t, sess.Submit(context.Background(), "q"))
	backend.emit(service.TokenEvent("partial"))
	require.True(t, sess.Busy())

	updates, cancel := sess.Subscribe()
	defer cancel()
	require.NoError(t, sess.Reconfigure(context.Background(), Endpoints{Text: "https://new-host"}))

	var last *Update
	for done := false; !done; {
		select {
		case u := <-updates:
			if u.Kind == UpdateBusy {
				last = &u
			}
		default:
			done = true
		}
	}
	require.NotNil(t, last, "reconfigure reports the busy state")
	assert.False(t, last.Busy)
	assert.False(t, sess.Busy())
}

func TestSession_CloseEndsSubscriptions(t *testing.T) {
	backend := newFakeBackend()
	sess := NewSession(testConfig(), backend)
	require.NoError(t, sess.Start(context.Background()))

	updates, cancel := sess.Subscribe()
	sess.Close()
	sess.Close()
	cancel()

	for range updates {
	}
	assert.Equal(t, 1, backend.disconnects)
	assert.ErrorIs(t, sess.Submit(context.Background(), "late"), ErrSessionClosed)

	late, _ := sess.Subscribe()
	_, open := <-late
	assert.False(t, open)
}

func TestSession_SelectMode(t *testing.T) {
	sess, _, _ := newTestSession(t, testConfig())
	assert.Equal(t, ModeTopAI, sess.Mode())
	assert.Error(t, sess.SelectMode(Mode(42)))
	require.NoError(t, sess.SelectMode(ModeImage))
	assert.Equal(t, ModeImage, sess.Mode())
	assert.Equal(t, Modes(), sess.Modes())
}

func TestParseModeAndLabels(t *testing.T) {
	m, err := ParseMode("Image Gen AI")
	require.NoError(t, err)
	assert.Equal(t, ModeImage, m)

	m, err = ParseMode("bottom")
	require.NoError(t, err)
	assert.Equal(t, ModeBottomAI, m)

	_, err = ParseMode("voice")
	assert.Error(t, err)

	assert.Equal(t, []string{"Top AI", "Bottom AI", "Image Gen AI", "OCR AI", "Web Search"},
		func() []string {
			var out []string
			for _, m := range Modes() {
				out = append(out, m.String())
			}
			return out
		}())
}

func TestGuessAttachmentKind(t *testing.T) {
	tests := []struct {
		path string
		want AttachmentKind
		ok   bool
	}{
		{"a.PNG", AttachImage, true},
		{"notes.md", AttachText, true},
		{"data.json", AttachJSON, true},
		{"paper.pdf", AttachPDF, true},
		{"voice.m4a", AttachAudio, true},
		{"archive.zip", 0, false},
	}
	for _, tt := range tests {
		got, ok := GuessAttachmentKind(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.path)
		}
	}
}
