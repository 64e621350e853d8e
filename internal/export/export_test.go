// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/campus-chat/internal/model"
)

var exportNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func utcOptions() *Options {
	return &Options{OutputDir: ".", Location: time.UTC}
}

func msgAt(sender model.Sender, content string, at time.Time, course *model.Course) model.Message {
	var m model.Message
	if sender == model.SenderUser {
		m = model.NewUserMessage(content, nil, course)
	} else {
		m = model.NewAssistantMessage(content, course)
	}
	m.Timestamp = at
	return m
}

func endedSession(start time.Time, d time.Duration, course *model.Course) model.StudySession {
	end := start.Add(d)
	return model.StudySession{ID: "session_" + start.Format("150405"), StartTime: start, EndTime: &end, Course: course}
}

func mustCourse(t *testing.T, key string) *model.Course {
	t.Helper()
	c, ok := model.LookupCourse(key)
	if !ok {
		t.Fatalf("unknown course %q", key)
	}
	return &c
}

// =============================================================================
// BUILD TESTS
// =============================================================================

func TestBuild_Empty(t *testing.T) {
	rec := Build(nil, nil, exportNow)

	if rec.Conversations.TotalMessages != 0 {
		t.Errorf("TotalMessages = %d", rec.Conversations.TotalMessages)
	}
	if rec.StudySessions.TotalStudyTime != "0s" {
		t.Errorf("TotalStudyTime = %q, want 0s", rec.StudySessions.TotalStudyTime)
	}
	if len(rec.Conversations.CourseBreakdown) != 0 || len(rec.StudySessions.CourseBreakdown) != 0 {
		t.Error("breakdowns should be empty")
	}
	if !rec.Conversations.DateRange.Start.Equal(exportNow) || !rec.Conversations.DateRange.End.Equal(exportNow) {
		t.Errorf("DateRange = %+v, want now", rec.Conversations.DateRange)
	}
	if rec.StudySessions.Stats.MostStudiedCourse != "None" {
		t.Errorf("MostStudiedCourse = %q", rec.StudySessions.Stats.MostStudiedCourse)
	}

	out, err := NewJSONExporter(nil).Export(rec)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !bytes.Contains(out, []byte(`"courseBreakdown": {}`)) {
		t.Errorf("empty breakdown not rendered as {}: %s", out)
	}
	if !bytes.Contains(out, []byte(`"messages": []`)) {
		t.Errorf("empty messages not rendered as []: %s", out)
	}
}

func TestBuild_Aggregates(t *testing.T) {
	cs := mustCourse(t, "cs101")
	bio := mustCourse(t, "bio201")
	base := exportNow.Add(-time.Hour)

	withFiles := msgAt(model.SenderUser, "see attached", base, bio)
	withFiles.Attachments = []model.Attachment{{Name: "a.png"}, {Name: "b.pdf"}}

	messages := []model.Message{
		withFiles,
		msgAt(model.SenderAssistant, "ok", base.Add(time.Second), bio),
		msgAt(model.SenderUser, "loops?", base.Add(2*time.Second), cs),
		msgAt(model.SenderUser, "no course", base.Add(3*time.Second), nil),
		model.NewPendingMessage(),
	}
	sessions := []model.StudySession{
		endedSession(base, 10*time.Minute, cs),
		endedSession(base, 20*time.Minute, bio),
		endedSession(base, 5*time.Minute, cs),
		endedSession(base, 7*time.Minute, nil),
	}

	rec := Build(messages, sessions, exportNow)

	if rec.Conversations.TotalMessages != 4 {
		t.Errorf("TotalMessages = %d, want 4 (pending excluded)", rec.Conversations.TotalMessages)
	}
	if rec.Metadata.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", rec.Metadata.TotalFiles)
	}
	if !rec.Conversations.DateRange.End.Equal(base.Add(3 * time.Second)) {
		t.Errorf("DateRange.End = %v", rec.Conversations.DateRange.End)
	}

	wantMsgs := Breakdown{{Key: "BIO 201", Value: 2}, {Key: "CS 101", Value: 1}}
	if !equalBreakdown(rec.Conversations.CourseBreakdown, wantMsgs) {
		t.Errorf("message breakdown = %v, want %v", rec.Conversations.CourseBreakdown, wantMsgs)
	}

	wantTime := Breakdown{{Key: "CS 101", Value: 900}, {Key: "BIO 201", Value: 1200}}
	if !equalBreakdown(rec.StudySessions.CourseBreakdown, wantTime) {
		t.Errorf("time breakdown = %v, want %v", rec.StudySessions.CourseBreakdown, wantTime)
	}

	st := rec.StudySessions.Stats
	if st.TotalSessions != 4 || st.TotalTime != 2520 || st.AverageSessionTime != 630 {
		t.Errorf("stats = %+v", st)
	}
	if st.MostStudiedCourse != "BIO 201" {
		t.Errorf("MostStudiedCourse = %q", st.MostStudiedCourse)
	}
	if rec.StudySessions.TotalStudyTime != "42m 0s" {
		t.Errorf("TotalStudyTime = %q", rec.StudySessions.TotalStudyTime)
	}
	if rec.Metadata.ExportType != ExportType || rec.Metadata.AppVersion != "1.0.0" {
		t.Errorf("metadata = %+v", rec.Metadata)
	}
}

func equalBreakdown(a, b Breakdown) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBreakdown_MarshalPreservesOrder(t *testing.T) {
	var b Breakdown
	b.Add("ZOO 1", 1)
	b.Add("ART 110", 2)
	b.Add("ZOO 1", 3)

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"ZOO 1":4,"ART 110":2}` {
		t.Errorf("Marshal() = %s", data)
	}
	if v, ok := b.Get("ART 110"); !ok || v != 2 {
		t.Errorf("Get(ART 110) = %d, %v", v, ok)
	}
}

// =============================================================================
// EXPORTER TESTS
// =============================================================================

func TestJSONExporter_Structure(t *testing.T) {
	cs := mustCourse(t, "cs101")
	rec := Build([]model.Message{msgAt(model.SenderUser, "hi", exportNow, cs)}, nil, exportNow)

	out, err := NewJSONExporter(utcOptions()).Export(rec)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded struct {
		Conversations struct {
			TotalMessages   int              `json:"totalMessages"`
			CourseBreakdown map[string]int64 `json:"courseBreakdown"`
			Messages        []model.Message  `json:"messages"`
		} `json:"conversations"`
		Metadata struct {
			ExportType string `json:"exportType"`
			AppVersion string `json:"appVersion"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Conversations.TotalMessages != 1 || decoded.Conversations.CourseBreakdown["CS 101"] != 1 {
		t.Errorf("conversations = %+v", decoded.Conversations)
	}
	if decoded.Conversations.Messages[0].Sender != model.SenderUser {
		t.Errorf("sender = %q", decoded.Conversations.Messages[0].Sender)
	}
	if decoded.Metadata.ExportType != "university-academic-export" {
		t.Errorf("exportType = %q", decoded.Metadata.ExportType)
	}
}

func TestTextExporter_Sections(t *testing.T) {
	math := mustCourse(t, "math201")
	start := exportNow.Add(-3 * time.Hour)

	var sessions []model.StudySession
	for i := 0; i < 12; i++ {
		sessions = append(sessions, endedSession(start.Add(time.Duration(i)*time.Minute), 30*time.Second, nil))
	}
	sessions = append(sessions, model.StudySession{ID: "open", StartTime: exportNow, Course: math})

	withFile := msgAt(model.SenderUser, "my notes", exportNow, math)
	withFile.Attachments = []model.Attachment{{Name: "notes.pdf", Size: 2048}}

	rec := Build([]model.Message{withFile}, sessions, exportNow)
	out, err := NewTextExporter(utcOptions()).Export(rec)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	text := string(out)

	order := []string{
		"=== UNIVERSITY CHAT ASSISTANT - ACADEMIC EXPORT ===",
		"=== COURSE MESSAGE BREAKDOWN ===",
		"=== RECENT STUDY SESSIONS ===",
		"=== CONVERSATION HISTORY ===",
	}
	last := -1
	for _, h := range order {
		idx := strings.Index(text, h)
		if idx < 0 || idx < last {
			t.Fatalf("section %q missing or out of order:\n%s", h, text)
		}
		last = idx
	}
	if strings.Contains(text, "COURSE STUDY TIME BREAKDOWN") {
		t.Error("time breakdown should be omitted when no ended session has a course")
	}

	recent := text[strings.Index(text, "=== RECENT STUDY SESSIONS ===\n"):strings.Index(text, "=== CONVERSATION HISTORY ===")]
	lines := strings.Split(strings.TrimSpace(recent), "\n")[1:]
	if len(lines) != 10 {
		t.Errorf("recent sessions listed %d, want 10", len(lines))
	}
	if !strings.HasSuffix(lines[len(lines)-1], "Calculus II (In Progress)") {
		t.Errorf("last session line = %q", lines[len(lines)-1])
	}
	if strings.Contains(recent, "11:30:00 AM") {
		t.Error("oldest sessions should be dropped")
	}

	if !strings.Contains(text, "[3/15/2024, 2:30:00 PM] [MATH 201] You (📎 1 file):\nmy notes\n") {
		t.Errorf("transcript line not found:\n%s", text)
	}
}

func TestMarkdownExporter_Attachments(t *testing.T) {
	msg := msgAt(model.SenderAssistant, "Here you go", exportNow, nil)
	msg.Attachments = []model.Attachment{
		{Name: "notes.pdf", Size: 2048},
		{Name: "plot.png", Size: 1536},
	}
	rec := Build([]model.Message{msg}, nil, exportNow)

	out, err := NewMarkdownExporter(utcOptions()).Export(rec)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# University Chat Assistant - Academic Export",
		"## 📊 Summary Statistics",
		"- **Date Range:** 3/15/2024 - 3/15/2024",
		"### 🤖 **Assistant** - *3/15/2024, 2:30:00 PM* 📎 *2 files*",
		"- notes.pdf (2.0KB)\n- plot.png (1.5KB)\n",
		"## 💬 Conversation History",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Course Message Breakdown") {
		t.Error("empty course breakdown should be omitted")
	}
}

func TestExporters_Deterministic(t *testing.T) {
	cs := mustCourse(t, "cs101")
	messages := []model.Message{msgAt(model.SenderUser, "q", exportNow, cs)}
	sessions := []model.StudySession{endedSession(exportNow.Add(-time.Hour), time.Minute, cs)}

	for _, format := range []Format{FormatJSON, FormatText, FormatMarkdown} {
		exp, err := New(format, utcOptions())
		if err != nil {
			t.Fatalf("New(%s) error = %v", format, err)
		}
		a, _ := exp.Export(Build(messages, sessions, exportNow))
		b, _ := exp.Export(Build(messages, sessions, exportNow))
		if !bytes.Equal(a, b) {
			t.Errorf("%s export is not deterministic", format)
		}
	}
}

func TestExporters_NilRecord(t *testing.T) {
	for _, exp := range []Exporter{NewJSONExporter(nil), NewTextExporter(nil), NewMarkdownExporter(nil)} {
		if _, err := exp.Export(nil); err == nil {
			t.Errorf("%T.Export(nil) should fail", exp)
		}
	}
}

func TestExporters_MimeTypes(t *testing.T) {
	tests := []struct {
		exp  Exporter
		ext  string
		mime string
	}{
		{NewJSONExporter(nil), ".json", "application/json"},
		{NewTextExporter(nil), ".txt", "text/plain"},
		{NewMarkdownExporter(nil), ".md", "text/markdown"},
	}
	for _, tt := range tests {
		if tt.exp.FileExtension() != tt.ext || tt.exp.MimeType() != tt.mime {
			t.Errorf("%T = %s %s", tt.exp, tt.exp.FileExtension(), tt.exp.MimeType())
		}
	}
}

// =============================================================================
// FILE OUTPUT TESTS
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json": FormatJSON, "JSON": FormatJSON, ".json": FormatJSON,
		"text": FormatText, "txt": FormatText,
		"markdown": FormatMarkdown, "md": FormatMarkdown,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("html"); err == nil {
		t.Error("ParseFormat(html) should fail")
	}
}

func TestFileName(t *testing.T) {
	late := time.Date(2024, 3, 15, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	if got := FileName(NewMarkdownExporter(nil), late); got != "university-chat-export-2024-03-16.md" {
		t.Errorf("FileName() = %q", got)
	}
	if got := FileName(NewTextExporter(nil), exportNow); got != "university-chat-export-2024-03-15.txt" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	rec := Build(nil, nil, exportNow)

	path, err := ExportToFile(rec, NewJSONExporter(nil), &Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportToFile() error = %v", err)
	}
	if filepath.Base(path) != "university-chat-export-2024-03-15.json" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !json.Valid(data) {
		t.Error("written file is not valid JSON")
	}
}
