// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/campus-chat/internal/model"
	"github.com/jeranaias/campus-chat/internal/study"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes the report as Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders the report.
func (e *MarkdownExporter) Export(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errNilRecord
	}
	loc := e.options.location()

	var sb strings.Builder

	sb.WriteString("# University Chat Assistant - Academic Export\n\n")
	fmt.Fprintf(&sb, "**Export Date:** %s\n\n", formatTimestamp(rec.Metadata.ExportDate, loc))

	sb.WriteString("## 📊 Summary Statistics\n\n")
	fmt.Fprintf(&sb, "- **Total Messages:** %d\n", rec.Conversations.TotalMessages)
	fmt.Fprintf(&sb, "- **Total Study Sessions:** %d\n", len(rec.StudySessions.Sessions))
	fmt.Fprintf(&sb, "- **Total Study Time:** %s\n", rec.StudySessions.TotalStudyTime)
	fmt.Fprintf(&sb, "- **Total Files Shared:** %d\n", rec.Metadata.TotalFiles)
	fmt.Fprintf(&sb, "- **Date Range:** %s - %s\n\n",
		formatDate(rec.Conversations.DateRange.Start, loc),
		formatDate(rec.Conversations.DateRange.End, loc))

	if len(rec.Conversations.CourseBreakdown) > 0 {
		sb.WriteString("## 📚 Course Message Breakdown\n\n")
		for _, entry := range rec.Conversations.CourseBreakdown {
			fmt.Fprintf(&sb, "- **%s:** %d messages\n", entry.Key, entry.Value)
		}
		sb.WriteString("\n")
	}

	if len(rec.StudySessions.CourseBreakdown) > 0 {
		sb.WriteString("## ⏱️ Course Study Time Breakdown\n\n")
		for _, entry := range rec.StudySessions.CourseBreakdown {
			fmt.Fprintf(&sb, "- **%s:** %s\n", entry.Key, study.FormatDuration(entry.Value))
		}
		sb.WriteString("\n")
	}

	if len(rec.StudySessions.Sessions) > 0 {
		sb.WriteString("## 📈 Recent Study Sessions\n\n")
		for _, s := range lastSessions(rec) {
			fmt.Fprintf(&sb, "- **%s** - %s (%s)\n", formatTimestamp(s.Start, loc), s.Course, s.Duration)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## 💬 Conversation History\n\n")
	for _, msg := range rec.Conversations.Messages {
		e.writeMessage(&sb, msg)
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeMessage(sb *strings.Builder, msg model.Message) {
	loc := e.options.location()

	sender := "🤖 **Assistant**"
	if msg.IsUser() {
		sender = "👤 **You**"
	}
	course := ""
	if msg.Course != nil {
		course = " `" + msg.Course.Code + "`"
	}
	files := ""
	if n := len(msg.Attachments); n > 0 {
		files = " 📎 *" + fileCount(n) + "*"
	}

	fmt.Fprintf(sb, "### %s%s - *%s*%s\n\n", sender, course, formatTimestamp(msg.Timestamp, loc), files)
	sb.WriteString(msg.Content)
	sb.WriteString("\n\n")

	if len(msg.Attachments) > 0 {
		sb.WriteString("**Attachments:**\n")
		for _, a := range msg.Attachments {
			fmt.Fprintf(sb, "- %s (%.1fKB)\n", a.Name, float64(a.Size)/1024)
		}
		sb.WriteString("\n")
	}
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}
