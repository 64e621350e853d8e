// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jeranaias/campus-chat/internal/model"
	"github.com/jeranaias/campus-chat/internal/study"
)

const (
	// ExportType tags every record.
	ExportType = "university-academic-export"

	// AppVersion is the export format version.
	AppVersion = "1.0.0"

	// recentSessions is how many study sessions the text formats list.
	recentSessions = 10
)

// =============================================================================
// RECORD
// =============================================================================

// Record is the aggregate every exporter serializes.
type Record struct {
	Conversations ConversationSection `json:"conversations"`
	StudySessions StudySection        `json:"studySessions"`
	Metadata      Metadata            `json:"metadata"`
}

// ConversationSection summarizes the exported messages.
type ConversationSection struct {
	Messages      []model.Message `json:"messages"`
	TotalMessages int             `json:"totalMessages"`
	DateRange     DateRange       `json:"dateRange"`
	// CourseBreakdown counts messages per course code.
	CourseBreakdown Breakdown `json:"courseBreakdown"`
}

// DateRange spans the first and last message timestamps.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StudySection summarizes the study history.
type StudySection struct {
	Sessions       []model.StudySession `json:"sessions"`
	Stats          study.Stats          `json:"stats"`
	TotalStudyTime string               `json:"totalStudyTime"`
	// CourseBreakdown holds accumulated seconds per course code.
	CourseBreakdown Breakdown `json:"courseBreakdown"`
}

// Metadata describes the export itself.
type Metadata struct {
	ExportDate time.Time `json:"exportDate"`
	ExportType string    `json:"exportType"`
	TotalFiles int       `json:"totalFiles"`
	AppVersion string    `json:"appVersion"`
}

// Build aggregates messages and study sessions into a record stamped with now.
// The inputs are not modified.
func Build(messages []model.Message, sessions []model.StudySession, now time.Time) *Record {
	msgs := make([]model.Message, 0, len(messages))
	var byCourse Breakdown
	files := 0
	for _, m := range messages {
		if m.Pending {
			continue
		}
		msgs = append(msgs, m)
		if m.Course != nil {
			byCourse.Add(m.Course.Code, 1)
		}
		files += len(m.Attachments)
	}

	dr := DateRange{Start: now, End: now}
	if len(msgs) > 0 {
		dr = DateRange{Start: msgs[0].Timestamp, End: msgs[len(msgs)-1].Timestamp}
	}

	ss := make([]model.StudySession, len(sessions))
	copy(ss, sessions)

	var byCourseTime Breakdown
	for _, ct := range study.CourseTimes(ss) {
		byCourseTime.Add(ct.Code, ct.Seconds)
	}

	stats := study.ComputeStats(ss, now)

	return &Record{
		Conversations: ConversationSection{
			Messages:        msgs,
			TotalMessages:   len(msgs),
			DateRange:       dr,
			CourseBreakdown: byCourse,
		},
		StudySessions: StudySection{
			Sessions:        ss,
			Stats:           stats,
			TotalStudyTime:  study.FormatDuration(stats.TotalTime),
			CourseBreakdown: byCourseTime,
		},
		Metadata: Metadata{
			ExportDate: now,
			ExportType: ExportType,
			TotalFiles: files,
			AppVersion: AppVersion,
		},
	}
}

// =============================================================================
// BREAKDOWN
// =============================================================================

// Entry is one key of a Breakdown.
type Entry struct {
	Key   string
	Value int64
}

// Breakdown is a map that remembers first-insertion order.
type Breakdown []Entry

// Add increases key by n, appending it when new.
func (b *Breakdown) Add(key string, n int64) {
	for i := range *b {
		if (*b)[i].Key == key {
			(*b)[i].Value += n
			return
		}
	}
	*b = append(*b, Entry{Key: key, Value: n})
}

// Get returns the value for key.
func (b Breakdown) Get(key string) (int64, bool) {
	for _, e := range b {
		if e.Key == key {
			return e.Value, true
		}
	}
	return 0, false
}

// MarshalJSON writes an object with keys in insertion order.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, _ := json.Marshal(e.Value)
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
