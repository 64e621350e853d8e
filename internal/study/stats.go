// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package study

import (
	"fmt"
	"time"

	"github.com/jeranaias/campus-chat/internal/model"
)

// NoCourse is reported as the most studied course when no ended session
// carries a course.
const NoCourse = "None"

// Stats aggregates study time in whole seconds.
type Stats struct {
	TotalSessions      int    `json:"totalSessions"`
	TotalTime          int64  `json:"totalTime"`
	AverageSessionTime int64  `json:"averageSessionTime"`
	MostStudiedCourse  string `json:"mostStudiedCourse"`
	TodayTime          int64  `json:"todayTime"`
	WeekTime           int64  `json:"weekTime"`
}

// CourseTime is the accumulated study time of one course code.
type CourseTime struct {
	Code    string
	Seconds int64
}

// ComputeStats summarizes sessions as of now. Only ended sessions contribute
// time; the average divides by every session in the list. Today starts at
// local midnight and the week at midnight seven days earlier.
func ComputeStats(sessions []model.StudySession, now time.Time) Stats {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := todayStart.AddDate(0, 0, -7)

	st := Stats{TotalSessions: len(sessions)}
	for _, s := range sessions {
		if !s.Ended() {
			continue
		}
		secs := s.Seconds()
		st.TotalTime += secs
		if !s.StartTime.Before(todayStart) {
			st.TodayTime += secs
		}
		if !s.StartTime.Before(weekStart) {
			st.WeekTime += secs
		}
	}
	if st.TotalSessions > 0 {
		st.AverageSessionTime = st.TotalTime / int64(st.TotalSessions)
	}
	st.MostStudiedCourse = MostStudied(CourseTimes(sessions))
	return st
}

// CourseTimes accumulates the time of ended sessions per course code in
// order of first appearance.
func CourseTimes(sessions []model.StudySession) []CourseTime {
	var out []CourseTime
	index := make(map[string]int)
	for _, s := range sessions {
		if !s.Ended() || s.Course == nil {
			continue
		}
		i, ok := index[s.Course.Code]
		if !ok {
			i = len(out)
			index[s.Course.Code] = i
			out = append(out, CourseTime{Code: s.Course.Code})
		}
		out[i].Seconds += s.Seconds()
	}
	return out
}

// MostStudied returns the code with the most time. The later entry wins a
// tie; an empty list yields NoCourse.
func MostStudied(times []CourseTime) string {
	best := NoCourse
	var bestSecs int64 = -1
	for _, ct := range times {
		if ct.Seconds >= bestSecs {
			best, bestSecs = ct.Code, ct.Seconds
		}
	}
	return best
}

// FormatDuration renders seconds as "1h 2m 3s", "2m 3s" or "3s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
