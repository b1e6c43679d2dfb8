// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTranscript
	}

	var sb strings.Builder
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: \"%s\"\n", escapeYAML(t.title()))
		fmt.Fprintf(&sb, "mode: %s\n", t.Mode.Key())
		if t.Backend != "" {
			fmt.Fprintf(&sb, "backend: \"%s\"\n", escapeYAML(t.Backend))
		}
		fmt.Fprintf(&sb, "exported: %s\n", t.ExportedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "messages: %d\n", len(t.Messages))
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", t.title())
	for _, m := range t.Messages {
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "**%s** (%s)\n\n", senderLabel(m), formatTimestamp(m.CreatedAt))
		} else {
			fmt.Fprintf(&sb, "**%s**\n\n", senderLabel(m))
		}
		sb.WriteString(m.Text)
		sb.WriteString("\n\n")
		if m.ImagePath != "" {
			fmt.Fprintf(&sb, "![generated image](%s)\n\n", m.ImagePath)
		}
	}
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

func escapeYAML(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return strings.ReplaceAll(s, "\n", " ")
}
