// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// legacySenderBot is the tag older persisted conversations use for replies.
const legacySenderBot = "bot"

// ParseSender maps a persisted sender tag to a Sender.
// Unknown tags are treated as assistant output.
func ParseSender(s string) Sender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return SenderUser
	case "assistant", legacySenderBot:
		return SenderAssistant
	default:
		return SenderAssistant
	}
}

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns the label used in transcripts.
func (s Sender) DisplayName() string {
	if s == SenderUser {
		return "You"
	}
	return "Assistant"
}

// UnmarshalJSON accepts the legacy "bot" tag.
func (s *Sender) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseSender(raw)
	return nil
}

// =============================================================================
// MESSAGE KINDS
// =============================================================================

// Kind is the prefix of a message ID and tells how the message was produced.
type Kind string

const (
	KindUser    Kind = "user"
	KindBot     Kind = "bot"
	KindPending Kind = "loading"
	KindError   Kind = "error"
)

// NewID returns a unique message ID with the given kind prefix.
func NewID(kind Kind) string {
	return string(kind) + "-" + uuid.NewString()
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation.
//
// Messages are treated as immutable once appended. The pending placeholder
// is replaced by a new message, never edited in place.
type Message struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Sender      Sender       `json:"sender"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Course      *Course      `json:"course,omitempty"`

	// Pending marks the in-flight assistant placeholder. Never persisted.
	Pending bool `json:"-"`
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string, attachments []Attachment, course *Course) Message {
	return Message{
		ID:          NewID(KindUser),
		Content:     content,
		Sender:      SenderUser,
		Timestamp:   time.Now(),
		Attachments: attachments,
		Course:      course,
	}
}

// NewAssistantMessage creates a final assistant message.
func NewAssistantMessage(content string, course *Course) Message {
	return Message{
		ID:        NewID(KindBot),
		Content:   content,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Course:    course,
	}
}

// NewErrorMessage creates the assistant message shown when a request fails.
func NewErrorMessage(content string) Message {
	return Message{
		ID:        NewID(KindError),
		Content:   content,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
	}
}

// NewPendingMessage creates the placeholder shown while a reply is awaited.
func NewPendingMessage() Message {
	return Message{
		ID:        NewID(KindPending),
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Pending:   true,
	}
}

// IsUser reports whether the message was authored by the user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// HasAttachments reports whether the message carries any attachment.
func (m Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// HasCode reports whether the content contains a fenced code block.
func (m Message) HasCode() bool {
	return strings.Contains(m.Content, "```")
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is a file sent alongside a message. Content is carried either
// inline as base64 in Data or by reference in URL.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Data string `json:"base64,omitempty"`
	URL  string `json:"url,omitempty"`
}

// IsImage reports whether the attachment has an image MIME type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.Type, "image/")
}
