// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/JDLewis4313/genius-edtech/internal/markup"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
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

// Export converts a transcript to Markdown. Guide replies that carry HTML
// are converted to Markdown first.
func (e *MarkdownExporter) Export(rec transcript.Record) ([]byte, error) {
	if err := validate(rec); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title(rec)))
		fmt.Fprintf(&sb, "id: %s\n", rec.ID)
		fmt.Fprintf(&sb, "date: %s\n", rec.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "updated: %s\n", rec.UpdatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "entries: %d\n", len(rec.Entries))
		fmt.Fprintf(&sb, "exported: %s\n", e.options.clock().Format(time.RFC3339))
		sb.WriteString("generator: mentari\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title(rec)))

	if e.options.IncludeMetadata && rec.Stats != nil {
		sb.WriteString("## Progress\n\n")
		fmt.Fprintf(&sb, "- **Interactions**: %s\n", rec.Stats.TotalInteractions)
		fmt.Fprintf(&sb, "- **Growth**: %s\n", rec.Stats.GrowthIndicators)
		fmt.Fprintf(&sb, "- **Support**: %s\n", rec.Stats.SupportNeeded)
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")
	for i := range rec.Entries {
		sb.WriteString(e.formatEntry(&rec.Entries[i]))
		sb.WriteString("\n\n")
	}

	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "*Exported from mentari on %s*\n",
		e.options.clock().Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

func (e *MarkdownExporter) formatEntry(entry *transcript.Entry) string {
	var sb strings.Builder

	switch entry.Kind {
	case transcript.KindTurn:
		label := entry.Sender.Label()
		if e.options.IncludeTimestamps && !entry.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(entry.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}
		text := entry.Text
		if markup.LooksLikeHTML(text) {
			text = markup.ToMarkdown(text)
		}
		sb.WriteString(strings.TrimSpace(text))

	case transcript.KindCard:
		if entry.Card == nil {
			return ""
		}
		fmt.Fprintf(&sb, "> **%s**", cardHeading(entry.Card))
		if entry.Card.Topic != "" {
			fmt.Fprintf(&sb, "\n>\n> Topic: %s", entry.Card.Topic)
		}
		for _, a := range entry.Actions {
			fmt.Fprintf(&sb, "\n> - %s", a.Label)
		}

	case transcript.KindRedirect:
		fmt.Fprintf(&sb, "**%s** [%s](%s)", entry.Text, "Start your quiz", entry.URL)

	case transcript.KindReflection:
		fmt.Fprintf(&sb, "*%s*", strings.TrimSpace(entry.Text))
	}

	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that break headings.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
	)
	return r.Replace(s)
}

// escapeYAML quotes values that YAML would otherwise misread.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
