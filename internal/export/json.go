// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to indented JSON.
// NOTE: JSON exports always carry every field; Options only affect the
// human-readable formats.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonTranscript struct {
	Title      string        `json:"title"`
	Mode       string        `json:"mode"`
	Backend    string        `json:"backend,omitempty"`
	ExportedAt time.Time     `json:"exported_at"`
	Messages   []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID         string          `json:"id"`
	Sender     string          `json:"sender"`
	Text       string          `json:"text"`
	ImagePath  string          `json:"image_path,omitempty"`
	Attachment *jsonAttachment `json:"attachment,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type jsonAttachment struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Export converts a transcript to JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTranscript
	}

	out := jsonTranscript{
		Title:      t.title(),
		Mode:       t.Mode.Key(),
		Backend:    t.Backend,
		ExportedAt: t.ExportedAt,
		Messages:   make([]jsonMessage, 0, len(t.Messages)),
	}
	for _, m := range t.Messages {
		jm := jsonMessage{
			ID:        m.ID,
			Sender:    m.Sender.String(),
			Text:      m.Text,
			ImagePath: m.ImagePath,
			CreatedAt: m.CreatedAt,
		}
		if m.Attach != nil {
			jm.Attachment = &jsonAttachment{Kind: m.Attach.Kind.String(), Path: m.Attach.Path}
		}
		out.Messages = append(out.Messages, jm)
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
