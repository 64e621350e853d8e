// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// StudySession is one timed study period, optionally tied to a course.
type StudySession struct {
	ID           string     `json:"id"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Course       *Course    `json:"course,omitempty"`
	MessageCount int        `json:"messageCount"`
	Active       bool       `json:"isActive"`
}

// Ended reports whether the session has an end time.
func (s StudySession) Ended() bool {
	return s.EndTime != nil
}

// Seconds returns the whole seconds between start and end. Sessions without
// an end time report zero; use Elapsed for a running session.
func (s StudySession) Seconds() int64 {
	if s.EndTime == nil {
		return 0
	}
	d := s.EndTime.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Elapsed returns the time since start for a running session, or the
// recorded duration for an ended one.
func (s StudySession) Elapsed(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	d := end.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// CourseName returns the course name or "General" when none is set.
func (s StudySession) CourseName() string {
	if s.Course == nil {
		return "General"
	}
	return s.Course.Name
}
