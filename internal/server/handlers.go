// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/campus-chat/internal/attach"
	"github.com/jeranaias/campus-chat/internal/export"
	"github.com/jeranaias/campus-chat/internal/links"
	"github.com/jeranaias/campus-chat/internal/model"
	"github.com/jeranaias/campus-chat/internal/questions"
	"github.com/jeranaias/campus-chat/internal/session"
	"github.com/jeranaias/campus-chat/internal/study"
)

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Sessions: s.sessions.Len(),
	})
}

// ============================================================================
// CATALOG HANDLERS
// ============================================================================

func (s *Server) handleCourses(r *http.Request) (any, error) {
	return model.Courses(), nil
}

type videosQuery struct {
	Text string `schema:"text"`
}

func (s *Server) handleVideos(r *http.Request) (any, error) {
	var q videosQuery
	if err := s.parseQuery(r, &q); err != nil {
		return nil, err
	}
	refs := links.ExtractVideoReferences(q.Text)
	if refs == nil {
		refs = []links.VideoReference{}
	}
	return refs, nil
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

// MessagesResponse carries a conversation snapshot.
type MessagesResponse struct {
	SessionID string          `json:"sessionId"`
	Busy      bool            `json:"busy"`
	Messages  []model.Message `json:"messages"`
}

// SendRequest is the body of POST /api/sessions/{id}/messages.
type SendRequest struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
	// Course is a course ID or code; empty for none.
	Course string `json:"courseId,omitempty"`
}

// SendResponse returns the reply and the updated conversation.
type SendResponse struct {
	Reply    model.Message   `json:"reply"`
	Messages []model.Message `json:"messages"`
}

func (s *Server) manager(r *http.Request) (*session.Manager, error) {
	id := chi.URLParam(r, "sessionID")
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, codedErrorf(http.StatusBadRequest, "invalid session id %q", id)
	}
	return s.sessions.Get(id), nil
}

func (s *Server) handleGetMessages(r *http.Request) (any, error) {
	m, err := s.manager(r)
	if err != nil {
		return nil, err
	}
	return MessagesResponse{
		SessionID: m.SessionID(),
		Busy:      m.Busy(),
		Messages:  m.Messages(),
	}, nil
}

func (s *Server) handleSendMessage(r *http.Request) (any, error) {
	m, err := s.manager(r)
	if err != nil {
		return nil, err
	}
	req, err := parseBody[SendRequest](r)
	if err != nil {
		return nil, err
	}
	course, err := lookupCourse(req.Course)
	if err != nil {
		return nil, err
	}

	reply, err := m.SendMessage(r.Context(), req.Content, req.Attachments, course)
	switch {
	case errors.Is(err, session.ErrBusy):
		return nil, codedErrorf(http.StatusConflict, "%s", err)
	case errors.Is(err, session.ErrEmptyMessage):
		return nil, codedErrorf(http.StatusBadRequest, "%s", err)
	case err != nil:
		return nil, err
	}

	s.tracker.RecordMessage()
	return SendResponse{Reply: reply, Messages: m.Messages()}, nil
}

func (s *Server) handleClearMessages(r *http.Request) (any, error) {
	m, err := s.manager(r)
	if err != nil {
		return nil, err
	}
	m.Clear()
	return MessagesResponse{SessionID: m.SessionID(), Messages: []model.Message{}}, nil
}

type questionsQuery struct {
	Count int `schema:"count"`
}

// QuestionsResponse lists suggested follow-up questions.
type QuestionsResponse struct {
	Questions []string `json:"questions"`
}

func (s *Server) handleQuestions(r *http.Request) (any, error) {
	m, err := s.manager(r)
	if err != nil {
		return nil, err
	}
	var q questionsQuery
	if err := s.parseQuery(r, &q); err != nil {
		return nil, err
	}
	if q.Count <= 0 {
		q.Count = questions.DefaultCount
	}
	return QuestionsResponse{Questions: s.questions.Generate(m.Messages(), q.Count)}, nil
}

func lookupCourse(key string) (*model.Course, error) {
	if strings.TrimSpace(key) == "" {
		return nil, nil
	}
	c, ok := model.LookupCourse(key)
	if !ok {
		return nil, codedErrorf(http.StatusBadRequest, "unknown course %q", key)
	}
	return &c, nil
}

// ============================================================================
// STUDY HANDLERS
// ============================================================================

// StudyStatus is the body of GET /api/study.
type StudyStatus struct {
	Active         *model.StudySession  `json:"active,omitempty"`
	ElapsedSeconds int64                `json:"elapsedSeconds"`
	Stats          study.Stats          `json:"stats"`
	Sessions       []model.StudySession `json:"sessions"`
}

type studyStartRequest struct {
	Course string `json:"courseId,omitempty"`
}

func (s *Server) handleStudyStatus(r *http.Request) (any, error) {
	status := StudyStatus{
		ElapsedSeconds: int64(s.tracker.Elapsed() / time.Second),
		Stats:          s.tracker.Stats(),
		Sessions:       s.tracker.Sessions(),
	}
	if active, ok := s.tracker.Active(); ok {
		status.Active = &active
	}
	return status, nil
}

func (s *Server) handleStudyStart(r *http.Request) (any, error) {
	req, err := parseBody[studyStartRequest](r)
	if err != nil {
		return nil, err
	}
	course, err := lookupCourse(req.Course)
	if err != nil {
		return nil, err
	}
	started, err := s.tracker.Start(course)
	if err != nil {
		// The previous session ended in memory; only its save failed.
		s.log.Warn().Err(err).Msg("study_previous_save_failed")
	}
	return started, nil
}

func (s *Server) handleStudyEnd(r *http.Request) (any, error) {
	ended, err := s.tracker.End()
	if errors.Is(err, study.ErrNoActiveSession) {
		return nil, codedErrorf(http.StatusConflict, "%s", err)
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("study_save_failed")
	}
	return ended, nil
}

// ============================================================================
// EXPORT HANDLER
// ============================================================================

type exportQuery struct {
	Format string `schema:"format"`
}

// handleExport serves the export document as a download. When the session
// has no messages, every stored conversation is exported instead.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	m, err := s.manager(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var q exportQuery
	if err := s.parseQuery(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Format == "" {
		q.Format = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(q.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	exporter, err := export.New(format, export.DefaultOptions())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages := m.Messages()
	if len(messages) == 0 && s.conversations != nil {
		all, err := s.conversations.AllMessages()
		if err != nil {
			s.log.Warn().Err(err).Msg("export_history_load_failed")
		}
		messages = all
	}

	now := time.Now()
	rec := export.Build(messages, s.tracker.Sessions(), now)
	content, err := exporter.Export(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info().
		Str("session_id", m.SessionID()).
		Str("format", string(format)).
		Int("messages", rec.Conversations.TotalMessages).
		Msg("export_served")

	w.Header().Set("Content-Type", exporter.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(exporter, now)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ============================================================================
// ATTACHMENT HANDLER
// ============================================================================

// UploadResponse lists the accepted attachments and the rejected files.
type UploadResponse struct {
	Attachments []model.Attachment `json:"attachments"`
	Rejected    []Rejection        `json:"rejected"`
}

// Rejection explains why a file was not attached.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// handleAttachments accepts multipart "files" and returns attachments ready
// to be sent with a message.
func (s *Server) handleAttachments(r *http.Request) (any, error) {
	limit := s.intake.MaxBytes
	if limit <= 0 {
		limit = attach.DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadFiles*limit+maxUploadOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, codedErrorf(http.StatusBadRequest, "unable to parse upload: %s", err)
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return nil, codedErrorf(http.StatusBadRequest, "no files in upload")
	}
	if len(files) > maxUploadFiles {
		return nil, codedErrorf(http.StatusBadRequest, "at most %d files per upload", maxUploadFiles)
	}

	resp := UploadResponse{Attachments: []model.Attachment{}, Rejected: []Rejection{}}
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			resp.Rejected = append(resp.Rejected, Rejection{Name: fh.Filename, Reason: "cannot read file"})
			continue
		}
		a, err := s.intake.FromReader(fh.Filename, f, i)
		f.Close()
		if err != nil {
			var rej *attach.RejectedError
			reason := err.Error()
			if errors.As(err, &rej) {
				reason = rej.Reason
			}
			resp.Rejected = append(resp.Rejected, Rejection{Name: fh.Filename, Reason: reason})
			continue
		}
		resp.Attachments = append(resp.Attachments, a)
	}

	s.log.Info().
		Int("accepted", len(resp.Attachments)).
		Int("rejected", len(resp.Rejected)).
		Msg("attachments_received")
	return resp, nil
}
