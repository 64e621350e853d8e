// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/campus-chat/internal/study"
)

// =============================================================================
// TEXT EXPORTER
// =============================================================================

// TextExporter writes a plain-text report: summary, course breakdowns, the
// last ten study sessions and the transcript.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a plain-text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export renders the report.
func (e *TextExporter) Export(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errNilRecord
	}
	loc := e.options.location()

	var sb strings.Builder

	sb.WriteString("=== UNIVERSITY CHAT ASSISTANT - ACADEMIC EXPORT ===\n\n")
	fmt.Fprintf(&sb, "Export Date: %s\n", formatTimestamp(rec.Metadata.ExportDate, loc))
	fmt.Fprintf(&sb, "Total Messages: %d\n", rec.Conversations.TotalMessages)
	fmt.Fprintf(&sb, "Total Study Sessions: %d\n", len(rec.StudySessions.Sessions))
	fmt.Fprintf(&sb, "Total Study Time: %s\n", rec.StudySessions.TotalStudyTime)
	fmt.Fprintf(&sb, "Total Files Shared: %d\n\n", rec.Metadata.TotalFiles)

	if len(rec.Conversations.CourseBreakdown) > 0 {
		sb.WriteString("=== COURSE MESSAGE BREAKDOWN ===\n")
		for _, entry := range rec.Conversations.CourseBreakdown {
			fmt.Fprintf(&sb, "%s: %d messages\n", entry.Key, entry.Value)
		}
		sb.WriteString("\n")
	}

	if len(rec.StudySessions.CourseBreakdown) > 0 {
		sb.WriteString("=== COURSE STUDY TIME BREAKDOWN ===\n")
		for _, entry := range rec.StudySessions.CourseBreakdown {
			fmt.Fprintf(&sb, "%s: %s\n", entry.Key, study.FormatDuration(entry.Value))
		}
		sb.WriteString("\n")
	}

	if len(rec.StudySessions.Sessions) > 0 {
		sb.WriteString("=== RECENT STUDY SESSIONS ===\n")
		for _, s := range lastSessions(rec) {
			fmt.Fprintf(&sb, "%s - %s (%s)\n", formatTimestamp(s.Start, loc), s.Course, s.Duration)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=== CONVERSATION HISTORY ===\n\n")
	for _, msg := range rec.Conversations.Messages {
		course := ""
		if msg.Course != nil {
			course = " [" + msg.Course.Code + "]"
		}
		files := ""
		if n := len(msg.Attachments); n > 0 {
			files = " (📎 " + fileCount(n) + ")"
		}
		fmt.Fprintf(&sb, "[%s]%s %s%s:\n", formatTimestamp(msg.Timestamp, loc), course, msg.Sender.DisplayName(), files)
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
