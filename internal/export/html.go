// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/JDLewis4313/genius-edtech/internal/markup"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page.
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

// Export converts a transcript to HTML. All entry text is escaped; markup
// in guide replies is reduced to plain text first.
func (e *HTMLExporter) Export(rec transcript.Record) ([]byte, error) {
	if err := validate(rec); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(title(rec)))
	sb.WriteString("    <meta name=\"generator\" content=\"mentari\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", rec.CreatedAt.Format(time.RFC3339))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(rec))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range rec.Entries {
		sb.WriteString(e.renderEntry(&rec.Entries[i]))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported from <strong>mentari</strong> on %s</p>\n",
		e.options.clock().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("        </footer>\n    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string { return "text/html" }

// =============================================================================
// RENDERING
// =============================================================================

func (e *HTMLExporter) renderHeader(rec transcript.Record) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(title(rec)))
	sb.WriteString("            <div class=\"metadata\">\n")
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(rec.CreatedAt))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Entries:</strong> %d</span>\n", len(rec.Entries))
	if rec.Stats != nil {
		fmt.Fprintf(&sb, "                <span class=\"meta-item stats\">%s</span>\n", html.EscapeString(rec.Stats.String()))
	}
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderEntry(entry *transcript.Entry) string {
	var sb strings.Builder

	switch entry.Kind {
	case transcript.KindTurn:
		fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", html.EscapeString(string(entry.Sender)))
		sb.WriteString("                <div class=\"message-header\">\n")
		fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(entry.Sender.Label()))
		if e.options.IncludeTimestamps && !entry.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(entry.Timestamp))
		}
		sb.WriteString("                </div>\n")
		sb.WriteString("                <div class=\"message-content\">\n")
		sb.WriteString(paragraphs(entry.Text))
		sb.WriteString("                </div>\n")
		sb.WriteString("            </div>\n")

	case transcript.KindCard:
		if entry.Card == nil {
			return ""
		}
		fmt.Fprintf(&sb, "            <div class=\"card card-%s\">\n", html.EscapeString(entry.Card.Type))
		fmt.Fprintf(&sb, "                <div class=\"card-title\">%s</div>\n", html.EscapeString(cardHeading(entry.Card)))
		if entry.Card.Topic != "" {
			fmt.Fprintf(&sb, "                <div class=\"card-topic\">Topic: %s</div>\n", html.EscapeString(entry.Card.Topic))
		}
		if len(entry.Actions) > 0 {
			sb.WriteString("                <ul class=\"card-actions\">\n")
			for _, a := range entry.Actions {
				fmt.Fprintf(&sb, "                    <li>%s</li>\n", html.EscapeString(a.Label))
			}
			sb.WriteString("                </ul>\n")
		}
		sb.WriteString("            </div>\n")

	case transcript.KindRedirect:
		sb.WriteString("            <div class=\"redirect\">\n")
		fmt.Fprintf(&sb, "                <strong>%s</strong> <a href=\"%s\" target=\"_blank\" rel=\"noopener\">Start your quiz</a>\n",
			html.EscapeString(entry.Text), html.EscapeString(safeURL(entry.URL)))
		sb.WriteString("            </div>\n")

	case transcript.KindReflection:
		fmt.Fprintf(&sb, "            <div class=\"reflection\"><em>%s</em></div>\n", html.EscapeString(entry.Text))
	}

	return sb.String()
}

// paragraphs escapes text and wraps blank-line separated blocks in <p>.
func paragraphs(text string) string {
	if markup.LooksLikeHTML(text) {
		text = markup.PlainText(text)
	}
	var sb strings.Builder
	for _, block := range strings.Split(strings.TrimSpace(text), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i := range lines {
			lines[i] = html.EscapeString(lines[i])
		}
		fmt.Fprintf(&sb, "                    <p>%s</p>\n", strings.Join(lines, "<br>"))
	}
	return sb.String()
}

// safeURL drops anything that isn't an http(s) or relative link.
func safeURL(u string) string {
	lower := strings.ToLower(strings.TrimSpace(u))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "/") {
		return u
	}
	return "#"
}

const pageCSS = `    <style>
        :root { --radius: 10px; }
        .dark-theme { --bg: #14161a; --fg: #e6e6e6; --muted: #8a8f98; --player: #1f3b57; --guide: #2a2440; --card: #20262e; --accent: #f5b942; }
        .light-theme { --bg: #fafafa; --fg: #1c1c1c; --muted: #666; --player: #dcecff; --guide: #efe8ff; --card: #ffffff; --accent: #c98a00; }
        body { margin: 0; background: var(--bg); color: var(--fg); font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.5; }
        .container { max-width: 820px; margin: 0 auto; padding: 24px; }
        .header h1 { margin-bottom: 4px; }
        .metadata { color: var(--muted); font-size: 0.9em; display: flex; gap: 16px; flex-wrap: wrap; }
        .message { border-radius: var(--radius); padding: 12px 16px; margin: 12px 0; }
        .player-message { background: var(--player); margin-left: 15%; }
        .guide-message { background: var(--guide); margin-right: 15%; }
        .message-header { display: flex; justify-content: space-between; font-size: 0.85em; color: var(--muted); }
        .role-label { font-weight: 600; }
        .card { background: var(--card); border: 1px solid var(--accent); border-radius: var(--radius); padding: 12px 16px; margin: 12px 15% 12px 0; }
        .card-title { font-weight: 600; }
        .card-actions { margin: 8px 0 0; padding-left: 20px; }
        .redirect { margin: 12px 0; }
        .redirect a { color: var(--accent); }
        .reflection { color: var(--muted); text-align: center; margin: 12px 0; }
        .footer { color: var(--muted); font-size: 0.8em; text-align: center; margin-top: 32px; }
    </style>
`
