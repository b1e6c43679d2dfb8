// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
)

var fixedTime = time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC)

func sampleTranscript() *Transcript {
	return &Transcript{
		Mode:       chat.ModeImage,
		Backend:    "http://10.0.0.5:8000",
		ExportedAt: fixedTime,
		Messages: []chat.Message{
			{ID: "1", Sender: chat.SenderUser, Text: "fox", CreatedAt: fixedTime},
			{ID: "2", Sender: chat.SenderAssistant, Text: "Generated image for: fox", ImagePath: "/tmp/g.jpg", CreatedAt: fixedTime},
			{ID: "3", Sender: chat.SenderUser, Text: "PDF file selected: /tmp/a.pdf",
				Attach: &chat.Attachment{Kind: chat.AttachPDF, Path: "/tmp/a.pdf"}, CreatedAt: fixedTime},
		},
	}
}

// =============================================================================
// FORMATS
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{" HTML ", FormatHTML, false},
		{"htm", FormatHTML, false},
		{"pdf", FormatMarkdown, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForPath("/x/chat.json"))
	assert.Equal(t, FormatHTML, FormatForPath("chat.HTML"))
	assert.Equal(t, FormatMarkdown, FormatForPath("chat.md"))
	assert.Equal(t, FormatMarkdown, FormatForPath("chat.txt"))
	assert.Equal(t, FormatMarkdown, FormatForPath("chat"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "deepcog-20240504-103000.md", FileName(FormatMarkdown, fixedTime))
	assert.Equal(t, "deepcog-20240504-103000.html", FileName(FormatHTML, fixedTime))
}

// =============================================================================
// EXPORTERS
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "mode: image")
	assert.Contains(t, md, "messages: 3")
	assert.Contains(t, md, "# "+DefaultTitle)
	assert.Contains(t, md, "**You** (2024-05-04 10:30)")
	assert.Contains(t, md, "Generated image for: fox")
	assert.Contains(t, md, "![generated image](/tmp/g.jpg)")
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# "+DefaultTitle))
	assert.Contains(t, md, "**Assistant**\n\n")
	assert.NotContains(t, md, "2024-05-04")
}

func TestMarkdownExporter_EscapesTitle(t *testing.T) {
	tr := sampleTranscript()
	tr.Title = "say \"hi\"\nnow"
	out, err := NewMarkdownExporter(nil).Export(tr)
	require.NoError(t, err)
	assert.Contains(t, string(out), `title: "say \"hi\" now"`)
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var decoded jsonTranscript
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "image", decoded.Mode)
	assert.Equal(t, DefaultTitle, decoded.Title)
	require.Len(t, decoded.Messages, 3)
	assert.Equal(t, "user", decoded.Messages[0].Sender)
	assert.Equal(t, "/tmp/g.jpg", decoded.Messages[1].ImagePath)
	require.NotNil(t, decoded.Messages[2].Attachment)
	assert.Equal(t, "pdf", decoded.Messages[2].Attachment.Kind)
}

func TestHTMLExporter(t *testing.T) {
	tr := sampleTranscript()
	tr.Messages = append(tr.Messages, chat.Message{
		Sender: chat.SenderAssistant,
		Text:   "Use `x` here:\n\n```go\nif a < b {}\n```\n\n<script>alert(1)</script>",
	})
	out, err := NewHTMLExporter(&Options{IncludeMetadata: true, Theme: "light"}).Export(tr)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, `<body class="light-theme">`)
	assert.Contains(t, page, "<strong>Mode:</strong> Image Gen AI")
	assert.Contains(t, page, `<img src="/tmp/g.jpg"`)
	assert.Contains(t, page, "<code>x</code>")
	assert.Contains(t, page, `<div class="code-lang">go</div><pre><code>if a &lt; b {}</code></pre>`)
	assert.Contains(t, page, "&lt;script&gt;")
	assert.NotContains(t, page, "<script>")
}

func TestExporters_RejectNil(t *testing.T) {
	for _, f := range []Format{FormatMarkdown, FormatJSON, FormatHTML} {
		_, err := New(f, nil).Export(nil)
		assert.ErrorIs(t, err, ErrNilTranscript, f.String())
	}
}

func TestExporters_Metadata(t *testing.T) {
	assert.Equal(t, "text/markdown", New(FormatMarkdown, nil).MimeType())
	assert.Equal(t, "application/json", New(FormatJSON, nil).MimeType())
	assert.Equal(t, ".html", New(FormatHTML, nil).FileExtension())
}

// =============================================================================
// FILES
// =============================================================================

func TestWriteFile_PicksFormatFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	require.NoError(t, WriteFile(sampleTranscript(), path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestToDir(t *testing.T) {
	dir := t.TempDir()
	path, err := ToDir(sampleTranscript(), dir, FormatHTML, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deepcog-20240504-103000.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestFromSession(t *testing.T) {
	sess := chat.NewSession(chat.SessionConfig{
		Endpoints:   chat.Endpoints{Text: "http://text:8000"},
		InitialMode: chat.ModeOCR,
	}, nil, chat.WithClock(func() time.Time { return fixedTime }))
	_, err := sess.Attach(chat.AttachPDF, "/tmp/paper.pdf")
	require.NoError(t, err)

	tr := FromSession(sess, fixedTime)
	assert.Equal(t, chat.ModeOCR, tr.Mode)
	assert.Equal(t, "http://text:8000", tr.Backend)
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, "PDF file selected: /tmp/paper.pdf", tr.Messages[0].Text)
}
