// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/campus-chat/internal/model"
	"github.com/jeranaias/campus-chat/internal/storage"
	"github.com/jeranaias/campus-chat/internal/webhook"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Assistant delivers a user message to the remote assistant and returns the
// raw response body. *webhook.Client implements it.
type Assistant interface {
	Send(ctx context.Context, input, sessionID string) (string, error)
}

// Repository persists conversations. *storage.ConversationRepo implements it.
type Repository interface {
	Save(conv *model.Conversation) error
	Load(sessionID string) (*model.Conversation, error)
	Delete(sessionID string) error
}

var (
	// ErrBusy is returned when a send is attempted while another is in flight.
	ErrBusy = errors.New("a reply is still pending")

	// ErrEmptyMessage is returned for a send with no text and no attachments.
	ErrEmptyMessage = errors.New("message has no content or attachments")
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager holds one conversation and serializes exchanges with the assistant.
// At most one request is in flight; the pending placeholder is replaced by
// the reply or by a failure notice when the request ends.
type Manager struct {
	mu sync.Mutex

	conv         *model.Conversation
	busy         bool
	startTime    time.Time
	lastActivity time.Time

	assistant Assistant
	repo      Repository
	log       zerolog.Logger

	// Callbacks
	onChange func(messages []model.Message)
	onReply  func(reply model.Message)
}

// Config holds the collaborators of a Manager.
type Config struct {
	// SessionID identifies the conversation. Generated when empty.
	SessionID string

	// Assistant answers user messages. Required.
	Assistant Assistant

	// Repository persists the conversation. Optional.
	Repository Repository

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// NewManager creates a manager with an empty conversation.
func NewManager(cfg Config) *Manager {
	id := cfg.SessionID
	if id == "" {
		id = model.NewSessionID()
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	now := time.Now()
	return &Manager{
		conv:         model.NewConversation(id),
		startTime:    now,
		lastActivity: now,
		assistant:    cfg.Assistant,
		repo:         cfg.Repository,
		log:          logger.With().Str("session_id", id).Logger(),
	}
}

// SessionID returns the conversation's session ID.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conv.ID
}

// Busy reports whether a request is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Messages returns a copy of the conversation.
func (m *Manager) Messages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Conversation returns a copy of the conversation with its metadata.
func (m *Manager) Conversation() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &model.Conversation{
		ID:        m.conv.ID,
		CreatedAt: m.conv.CreatedAt,
		Messages:  m.snapshotLocked(),
	}
}

// SetChangeCallback registers fn to receive the message list after every
// mutation. fn runs outside the manager lock.
func (m *Manager) SetChangeCallback(fn func(messages []model.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// SetReplyCallback registers fn to receive each final assistant message.
func (m *Manager) SetReplyCallback(fn func(reply model.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReply = fn
}

// =============================================================================
// LOAD / CLEAR
// =============================================================================

// Load restores the persisted conversation for this session. It reports
// whether anything was restored; unreadable entries are logged and ignored.
func (m *Manager) Load() bool {
	if m.repo == nil {
		return false
	}
	id := m.SessionID()
	conv, err := m.repo.Load(id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn().Err(err).Msg("conversation_load_failed")
		}
		return false
	}

	m.mu.Lock()
	m.conv = conv
	snapshot := m.snapshotLocked()
	onChange := m.onChange
	m.mu.Unlock()

	m.log.Debug().Int("messages", len(snapshot)).Msg("conversation_restored")
	if onChange != nil {
		onChange(snapshot)
	}
	return true
}

// Clear empties the conversation and removes its persisted entry.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.conv.Messages = make([]model.Message, 0)
	m.lastActivity = time.Now()
	id := m.conv.ID
	onChange := m.onChange
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.Delete(id); err != nil {
			m.log.Warn().Err(err).Msg("conversation_delete_failed")
		}
	}
	m.log.Info().Msg("conversation_cleared")
	if onChange != nil {
		onChange([]model.Message{})
	}
}

// =============================================================================
// SEND
// =============================================================================

// SendMessage appends a user message, asks the assistant, and appends the
// reply. It returns ErrBusy or ErrEmptyMessage without changing any state
// when the send is not allowed. Transport and status failures do not
// produce an error: they become an assistant message carrying a notice.
func (m *Manager) SendMessage(ctx context.Context, content string, attachments []model.Attachment, course *model.Course) (model.Message, error) {
	input := strings.TrimSpace(content)

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return model.Message{}, ErrBusy
	}
	if input == "" && len(attachments) == 0 {
		m.mu.Unlock()
		return model.Message{}, ErrEmptyMessage
	}
	if m.assistant == nil {
		m.mu.Unlock()
		return model.Message{}, errors.New("session has no assistant configured")
	}

	text := input
	if text == "" {
		text = fmt.Sprintf("📎 Sent %d file(s)", len(attachments))
	}
	user := model.NewUserMessage(text, attachments, course)
	pending := model.NewPendingMessage()

	m.conv.Messages = append(m.conv.Messages, user, pending)
	m.busy = true
	m.lastActivity = time.Now()
	id := m.conv.ID
	snapshot := m.snapshotLocked()
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}

	start := time.Now()
	body, err := m.assistant.Send(ctx, input, id)

	var reply model.Message
	if err != nil {
		m.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("webhook_failed")
		reply = model.NewErrorMessage(webhook.FailureNotice(err))
	} else {
		reply = model.NewAssistantMessage(webhook.DecodeResponse(body), course)
		m.log.Info().
			Int("reply_chars", len(reply.Content)).
			Dur("elapsed", time.Since(start)).
			Msg("message_answered")
	}

	m.mu.Lock()
	m.replacePendingLocked(pending.ID, reply)
	m.busy = false
	m.lastActivity = time.Now()
	persistable := m.conv.Persistable()
	snapshot = m.snapshotLocked()
	onChange = m.onChange
	onReply := m.onReply
	m.mu.Unlock()

	m.persist(persistable)

	if onChange != nil {
		onChange(snapshot)
	}
	if onReply != nil {
		onReply(reply)
	}
	return reply, nil
}

// replacePendingLocked swaps the placeholder for reply. If the conversation
// was cleared while waiting, the reply is appended to the empty list so the
// exchange is not lost.
func (m *Manager) replacePendingLocked(pendingID string, reply model.Message) {
	for i := range m.conv.Messages {
		if m.conv.Messages[i].ID == pendingID {
			m.conv.Messages[i] = reply
			return
		}
	}
	m.conv.Messages = append(m.conv.Messages, reply)
}

func (m *Manager) persist(conv *model.Conversation) {
	if m.repo == nil {
		return
	}
	if err := m.repo.Save(conv); err != nil {
		// The conversation stays usable in memory.
		m.log.Warn().Err(err).Msg("conversation_save_failed")
	}
}

func (m *Manager) snapshotLocked() []model.Message {
	out := make([]model.Message, len(m.conv.Messages))
	copy(out, m.conv.Messages)
	return out
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status summarizes the session for status displays.
type Status struct {
	SessionID    string        `json:"sessionId"`
	StartTime    time.Time     `json:"startTime"`
	Duration     time.Duration `json:"-"`
	IdleTime     time.Duration `json:"-"`
	MessageCount int           `json:"messageCount"`
	Busy         bool          `json:"busy"`
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	return Status{
		SessionID:    m.conv.ID,
		StartTime:    m.startTime,
		Duration:     now.Sub(m.startTime),
		IdleTime:     now.Sub(m.lastActivity),
		MessageCount: len(m.conv.Messages),
		Busy:         m.busy,
	}
}

// FormatDuration returns a compact duration such as "45s" or "12m 5s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
