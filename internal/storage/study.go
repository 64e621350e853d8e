// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/campus-chat/internal/model"
)

// StudySessionsKey holds the JSON array of ended study sessions.
const StudySessionsKey = "universityChatStudySessions"

// StudyRepo persists the study session history.
type StudyRepo struct {
	store Store
}

// NewStudyRepo wraps a store.
func NewStudyRepo(store Store) *StudyRepo {
	return &StudyRepo{store: store}
}

// Load returns the stored sessions. A missing entry yields an empty list.
func (r *StudyRepo) Load() ([]model.StudySession, error) {
	raw, err := r.store.Get(StudySessionsKey)
	if errors.Is(err, ErrNotFound) {
		return []model.StudySession{}, nil
	}
	if err != nil {
		return nil, err
	}
	var sessions []model.StudySession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, fmt.Errorf("decode study sessions: %w", err)
	}
	if sessions == nil {
		sessions = []model.StudySession{}
	}
	return sessions, nil
}

// Save replaces the stored sessions.
func (r *StudyRepo) Save(sessions []model.StudySession) error {
	if sessions == nil {
		sessions = []model.StudySession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode study sessions: %w", err)
	}
	return r.store.Set(StudySessionsKey, string(data))
}

// Append adds one session to the stored list.
func (r *StudyRepo) Append(session model.StudySession) error {
	sessions, err := r.Load()
	if err != nil {
		return err
	}
	return r.Save(append(sessions, session))
}

// ActiveStudyKey holds the running study session, if any.
const ActiveStudyKey = "universityChatActiveStudySession"

// LoadActive returns the running session, or nil when none is stored.
func (r *StudyRepo) LoadActive() (*model.StudySession, error) {
	raw, err := r.store.Get(ActiveStudyKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s model.StudySession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode active study session: %w", err)
	}
	return &s, nil
}

// SaveActive stores the running session; nil clears it.
func (r *StudyRepo) SaveActive(s *model.StudySession) error {
	if s == nil {
		return r.store.Remove(ActiveStudyKey)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode active study session: %w", err)
	}
	return r.store.Set(ActiveStudyKey, string(data))
}
