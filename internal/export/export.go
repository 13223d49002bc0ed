// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/JDLewis4313/genius-edtech/internal/transcript"
	"github.com/JDLewis4313/genius-edtech/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript record into one output format.
type Exporter interface {
	// Export renders the record.
	Export(rec transcript.Record) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// ErrEmptyTranscript is returned for records with nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no entries")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where ExportToFile writes. Default: current directory.
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata adds the header block (dates, entry count, stats).
	IncludeMetadata bool

	// IncludeTimestamps adds per-entry times.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string

	// now is swapped in tests.
	now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

func (o *Options) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// ForFormat returns the exporter for a format name: md, markdown, json,
// html or htm.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders rec with exporter and writes it under
// opts.OutputDir. Returns the written path.
func ExportToFile(rec transcript.Record, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(rec)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(dir, Filename(rec, exporter.FileExtension(), opts.clock()))
	if err := util.AtomicWriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			return outputPath, fmt.Errorf("open %s: %w", outputPath, err)
		}
	}

	return outputPath, nil
}

// Filename builds "mentari_<slug>_<timestamp><ext>" for rec.
func Filename(rec transcript.Record, ext string, at time.Time) string {
	slug := util.Slugify(util.TruncateRunes(rec.Title, 50))
	slug = strings.TrimSuffix(slug, "-")
	if slug == "" {
		slug = "transcript"
	}
	return fmt.Sprintf("mentari_%s_%s%s", slug, at.Format("20060102_150405"), ext)
}

func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func validate(rec transcript.Record) error {
	if rec.ID == "" {
		return errors.New("transcript has no id")
	}
	if len(rec.Entries) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// title falls back to "Untitled" for records saved before a first turn.
func title(rec transcript.Record) string {
	if strings.TrimSpace(rec.Title) == "" {
		return "Untitled"
	}
	return rec.Title
}

// cardHeading is the one-line summary of a card used by every format.
func cardHeading(c *transcript.CardView) string {
	var parts []string
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	if c.Score != "" {
		parts = append(parts, "Score: "+c.Score)
	}
	if c.Percent != "" {
		parts = append(parts, c.Percent)
	}
	if c.Emoji != "" {
		parts = append(parts, c.Emoji)
	}
	if len(parts) == 0 {
		return c.Type
	}
	return strings.Join(parts, " · ")
}
