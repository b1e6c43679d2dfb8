// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

// DefaultTitle heads a transcript that was not given a title.
const DefaultTitle = "deepcog conversation"

// ErrNilTranscript is returned when an exporter is handed no transcript.
var ErrNilTranscript = errors.New("transcript is nil")

// =============================================================================
// FORMATS
// =============================================================================

// Format is an export file format.
type Format int

const (
	FormatMarkdown Format = iota
	FormatJSON
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatHTML:
		return "html"
	default:
		return "markdown"
	}
}

// ParseFormat accepts "markdown", "md", "json", "html" and "htm".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return FormatMarkdown, fmt.Errorf("unknown export format %q", s)
}

// FormatForPath picks a format from a file extension, defaulting to Markdown.
func FormatForPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatMarkdown
	}
	return f
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of a chat session ready to be exported.
type Transcript struct {
	Title      string
	Mode       chat.Mode
	Backend    string
	ExportedAt time.Time
	Messages   []chat.Message
}

// FromSession snapshots a session's log.
func FromSession(s *chat.Session, now time.Time) *Transcript {
	return &Transcript{
		Title:      DefaultTitle,
		Mode:       s.Mode(),
		Backend:    s.Endpoints().Text,
		ExportedAt: now,
		Messages:   s.Messages(),
	}
}

func (t *Transcript) title() string {
	if strings.TrimSpace(t.Title) == "" {
		return DefaultTitle
	}
	return t.Title
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript in one file format.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the exported content.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with mode, backend and export time.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark"; "auto" follows the browser).
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "auto",
	}
}

// New returns the exporter for a format.
func New(f Format, opts *Options) Exporter {
	switch f {
	case FormatJSON:
		return NewJSONExporter(opts)
	case FormatHTML:
		return NewHTMLExporter(opts)
	default:
		return NewMarkdownExporter(opts)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// FileName returns the default file name for an export made at now.
func FileName(f Format, now time.Time) string {
	return "deepcog-" + now.Format("20060102-150405") + New(f, nil).FileExtension()
}

// WriteFile exports t to path in the format its extension names. The file
// is replaced atomically and readable only by the owner.
func WriteFile(t *Transcript, path string, opts *Options) error {
	content, err := New(FormatForPath(path), opts).Export(t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ToDir exports t into dir under the default file name and returns the path.
func ToDir(t *Transcript, dir string, f Format, opts *Options) (string, error) {
	path := filepath.Join(dir, FileName(f, t.ExportedAt))
	content, err := New(f, opts).Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func senderLabel(m chat.Message) string {
	if m.IsUser() {
		return "You"
	}
	return "Assistant"
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
