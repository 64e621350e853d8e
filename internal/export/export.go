// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/campus-chat/internal/study"
	"github.com/jeranaias/campus-chat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter serializes a record.
type Exporter interface {
	// Export renders the record in the target format.
	Export(rec *Record) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Format names a serialization.
type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or its file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "text", "txt", "plain":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures exporters and file output.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// Location renders human-readable timestamps. Default: time.Local.
	Location *time.Location
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Location:  time.Local,
	}
}

func (o *Options) location() *time.Location {
	if o == nil || o.Location == nil {
		return time.Local
	}
	return o.Location
}

// New returns the exporter for format.
func New(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatText:
		return NewTextExporter(opts), nil
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// FileName returns university-chat-export-YYYY-MM-DD<ext> for the UTC date
// of now.
func FileName(exporter Exporter, now time.Time) string {
	return "university-chat-export-" + now.UTC().Format("2006-01-02") + exporter.FileExtension()
}

// ExportToFile renders rec and writes it atomically under opts.OutputDir.
// Returns the output path.
func ExportToFile(rec *Record, exporter Exporter, opts *Options) (string, error) {
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
	outputPath := filepath.Join(dir, FileName(exporter, rec.Metadata.ExportDate))
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			return outputPath, fmt.Errorf("open %s: %w", outputPath, err)
		}
	}

	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Human-readable layouts used by the text and Markdown exporters.
const (
	dateTimeLayout = "1/2/2006, 3:04:05 PM"
	dateLayout     = "1/2/2006"
)

func formatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateTimeLayout)
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

func fileCount(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}

// lastSessions returns the trailing recentSessions entries.
func lastSessions(rec *Record) []sessionLine {
	ss := rec.StudySessions.Sessions
	if len(ss) > recentSessions {
		ss = ss[len(ss)-recentSessions:]
	}
	out := make([]sessionLine, 0, len(ss))
	for _, s := range ss {
		line := sessionLine{Start: s.StartTime, Course: s.CourseName(), Duration: "In Progress"}
		if s.Ended() {
			line.Duration = study.FormatDuration(s.Seconds())
		}
		out = append(out, line)
	}
	return out
}

type sessionLine struct {
	Start    time.Time
	Course   string
	Duration string
}

// openFile opens a file in the default application for the OS.
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
