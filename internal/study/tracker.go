// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package study

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/campus-chat/internal/model"
)

// ErrNoActiveSession is returned by End when nothing is being timed.
var ErrNoActiveSession = errors.New("no active study session")

// Repository persists ended sessions. *storage.StudyRepo implements it.
type Repository interface {
	Load() ([]model.StudySession, error)
	Append(session model.StudySession) error
}

// ActiveRepository is implemented by repositories that also keep the
// running session, so a timer survives a restart of the process.
type ActiveRepository interface {
	LoadActive() (*model.StudySession, error)
	SaveActive(s *model.StudySession) error
}

// =============================================================================
// TRACKER
// =============================================================================

// Tracker times study sessions. At most one session is active; starting a
// new one ends the current one first. Ended sessions are immutable.
type Tracker struct {
	mu       sync.Mutex
	active   *model.StudySession
	sessions []model.StudySession

	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// NewTracker loads the session history from repo. A nil repo keeps the
// history in memory only. Load failures are logged and start an empty history.
func NewTracker(repo Repository, opts ...Option) *Tracker {
	t := &Tracker{
		repo:     repo,
		log:      zerolog.Nop(),
		now:      time.Now,
		sessions: []model.StudySession{},
	}
	for _, opt := range opts {
		opt(t)
	}

	if repo != nil {
		sessions, err := repo.Load()
		if err != nil {
			t.log.Warn().Err(err).Msg("study_sessions_load_failed")
		} else {
			t.sessions = sessions
		}
	}
	if ar, ok := repo.(ActiveRepository); ok {
		active, err := ar.LoadActive()
		if err != nil {
			t.log.Warn().Err(err).Msg("study_active_load_failed")
		} else if active != nil {
			active.Active = true
			t.active = active
		}
	}
	return t
}

func (t *Tracker) saveActiveLocked() {
	ar, ok := t.repo.(ActiveRepository)
	if !ok {
		return
	}
	if err := ar.SaveActive(t.active); err != nil {
		t.log.Warn().Err(err).Msg("study_active_save_failed")
	}
}

// Start opens a session for course (nil for general study), ending any
// active session first.
func (t *Tracker) Start(course *model.Course) (model.StudySession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var endErr error
	if t.active != nil {
		_, endErr = t.endLocked()
	}

	now := t.now()
	s := &model.StudySession{
		ID:        "session_" + strconv.FormatInt(now.UnixMilli(), 10),
		StartTime: now,
		Course:    course,
		Active:    true,
	}
	t.active = s
	t.saveActiveLocked()

	t.log.Info().Str("study_id", s.ID).Str("course", s.CourseName()).Msg("study_started")
	return *s, endErr
}

// End closes the active session, appends it to the history and persists it.
// The returned session is valid even when persisting fails.
func (t *Tracker) End() (model.StudySession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return model.StudySession{}, ErrNoActiveSession
	}
	return t.endLocked()
}

func (t *Tracker) endLocked() (model.StudySession, error) {
	end := t.now()
	s := *t.active
	s.EndTime = &end
	s.Active = false

	t.active = nil
	t.sessions = append(t.sessions, s)
	t.saveActiveLocked()

	t.log.Info().
		Str("study_id", s.ID).
		Int64("seconds", s.Seconds()).
		Int("messages", s.MessageCount).
		Msg("study_ended")

	if t.repo != nil {
		if err := t.repo.Append(s); err != nil {
			t.log.Warn().Err(err).Str("study_id", s.ID).Msg("study_session_save_failed")
			return s, fmt.Errorf("save study session: %w", err)
		}
	}
	return s, nil
}

// Active returns the running session, if any.
func (t *Tracker) Active() (model.StudySession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return model.StudySession{}, false
	}
	return *t.active, true
}

// Elapsed returns the running time of the active session, or zero.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0
	}
	return t.active.Elapsed(t.now())
}

// RecordMessage counts one chat message against the active session.
func (t *Tracker) RecordMessage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.active.MessageCount++
		t.saveActiveLocked()
	}
}

// Sessions returns a copy of the ended sessions in the order they ended.
func (t *Tracker) Sessions() []model.StudySession {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.StudySession, len(t.sessions))
	copy(out, t.sessions)
	return out
}

// Stats summarizes the history as of the tracker's clock.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	sessions := make([]model.StudySession, len(t.sessions))
	copy(sessions, t.sessions)
	now := t.now()
	t.mu.Unlock()
	return ComputeStats(sessions, now)
}
