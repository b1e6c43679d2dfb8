// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
)

// blockMarker stands in for a rendered code block until paragraphs are split.
const blockMarker = "\x00block:"

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTranscript
	}

	title := html.EscapeString(t.title())
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("  <meta charset=\"UTF-8\">\n")
	sb.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("  <meta name=\"generator\" content=\"deepcog\">\n")
	fmt.Fprintf(&sb, "  <title>%s</title>\n", title)
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s\">\n<div class=\"container\">\n", e.themeClass())

	if e.options.IncludeMetadata {
		sb.WriteString("<header>\n")
		fmt.Fprintf(&sb, "  <h1>%s</h1>\n", title)
		fmt.Fprintf(&sb, "  <span class=\"meta\"><strong>Mode:</strong> %s</span>\n", html.EscapeString(t.Mode.String()))
		if t.Backend != "" {
			fmt.Fprintf(&sb, "  <span class=\"meta\"><strong>Backend:</strong> %s</span>\n", html.EscapeString(t.Backend))
		}
		fmt.Fprintf(&sb, "  <span class=\"meta\"><strong>Messages:</strong> %d</span>\n", len(t.Messages))
		sb.WriteString("</header>\n")
	}

	sb.WriteString("<main>\n")
	for _, m := range t.Messages {
		e.renderMessage(&sb, m)
	}
	sb.WriteString("</main>\n")

	fmt.Fprintf(&sb, "<footer>Exported from <strong>deepcog</strong> on %s</footer>\n",
		t.ExportedAt.Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) themeClass() string {
	switch e.options.Theme {
	case "light", "dark":
		return e.options.Theme + "-theme"
	}
	return "auto-theme"
}

func (e *HTMLExporter) renderMessage(sb *strings.Builder, m chat.Message) {
	fmt.Fprintf(sb, "<div class=\"message %s-message\">\n", m.Sender)
	fmt.Fprintf(sb, "  <div class=\"message-header\"><span class=\"role\">%s</span>", senderLabel(m))
	if e.options.IncludeTimestamps {
		fmt.Fprintf(sb, "<span class=\"timestamp\">%s</span>", formatTimestamp(m.CreatedAt))
	}
	sb.WriteString("</div>\n")
	sb.WriteString("  <div class=\"message-content\">\n")
	sb.WriteString(formatContent(m.Text))
	if m.ImagePath != "" {
		src := html.EscapeString(m.ImagePath)
		fmt.Fprintf(sb, "\n<p><img src=\"%s\" alt=\"generated image\"></p>", src)
	}
	sb.WriteString("\n  </div>\n</div>\n")
}

// formatContent escapes message text and turns fenced and inline code into
// HTML. Other text becomes paragraphs split on blank lines.
func formatContent(content string) string {
	content = html.EscapeString(content)

	var blocks []string
	content = codeBlockRegex.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		lang := parts[1]
		label := ""
		if lang != "" {
			label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", lang)
		}
		blocks = append(blocks, fmt.Sprintf("<div class=\"code-block\">%s<pre><code>%s</code></pre></div>",
			label, strings.TrimRight(parts[2], "\n")))
		return "\n\n" + blockMarker + strconv.Itoa(len(blocks)-1) + "\n\n"
	})
	content = inlineCodeRegex.ReplaceAllString(content, "<code>$1</code>")

	var out []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(para, blockMarker); ok {
			if idx, err := strconv.Atoi(rest); err == nil && idx < len(blocks) {
				out = append(out, blocks[idx])
				continue
			}
		}
		out = append(out, "<p>"+strings.ReplaceAll(para, "\n", "<br>")+"</p>")
	}
	return strings.Join(out, "\n")
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `  <style>
    :root { --bg: #1e1e2e; --fg: #cdd6f4; --muted: #a6adc8; --user: #313244; --assistant: #181825; --accent: #89b4fa; --code: #11111b; }
    .light-theme { --bg: #eff1f5; --fg: #4c4f69; --muted: #6c6f85; --user: #dce0e8; --assistant: #e6e9ef; --accent: #1e66f5; --code: #ccd0da; }
    @media (prefers-color-scheme: light) {
      .auto-theme { --bg: #eff1f5; --fg: #4c4f69; --muted: #6c6f85; --user: #dce0e8; --assistant: #e6e9ef; --accent: #1e66f5; --code: #ccd0da; }
    }
    body { margin: 0; background: var(--bg); color: var(--fg); font: 15px/1.6 -apple-system, "Segoe UI", sans-serif; }
    .container { max-width: 860px; margin: 0 auto; padding: 24px; }
    header { border-bottom: 1px solid var(--muted); margin-bottom: 24px; padding-bottom: 12px; }
    header h1 { margin: 0 0 8px; color: var(--accent); }
    .meta { margin-right: 16px; color: var(--muted); font-size: 13px; }
    .message { border-radius: 8px; padding: 12px 16px; margin-bottom: 16px; }
    .user-message { background: var(--user); }
    .assistant-message { background: var(--assistant); border-left: 3px solid var(--accent); }
    .message-header { display: flex; justify-content: space-between; font-size: 13px; color: var(--muted); }
    .role { font-weight: 600; color: var(--accent); }
    .code-block { background: var(--code); border-radius: 6px; padding: 8px 12px; overflow-x: auto; }
    .code-lang { font-size: 11px; color: var(--muted); text-transform: uppercase; }
    code { font-family: "JetBrains Mono", Menlo, monospace; font-size: 13px; }
    img { max-width: 100%; border-radius: 6px; }
    footer { margin-top: 32px; text-align: center; color: var(--muted); font-size: 12px; }
  </style>
`
