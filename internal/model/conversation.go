// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered message list bound to one session ID.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewConversation creates an empty conversation for the given session.
func NewConversation(sessionID string) *Conversation {
	return &Conversation{
		ID:        sessionID,
		Messages:  make([]Message, 0),
		CreatedAt: time.Now(),
	}
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// LastMessages returns up to n messages from the end of the conversation.
func (c *Conversation) LastMessages(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	if n > len(c.Messages) {
		n = len(c.Messages)
	}
	return c.Messages[len(c.Messages)-n:]
}

// Persistable returns a copy with pending placeholders removed.
func (c *Conversation) Persistable() *Conversation {
	out := &Conversation{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		Messages:  make([]Message, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		if m.Pending {
			continue
		}
		out.Messages = append(out.Messages, m)
	}
	return out
}

// =============================================================================
// SESSION IDS
// =============================================================================

const sessionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns an identifier of the form session-<millis>-<suffix>,
// where suffix is nine random base36 characters.
func NewSessionID() string {
	return newSessionIDAt(time.Now(), rand.Intn)
}

func newSessionIDAt(now time.Time, intn func(int) int) string {
	var b strings.Builder
	b.Grow(9)
	for i := 0; i < 9; i++ {
		b.WriteByte(sessionIDAlphabet[intn(len(sessionIDAlphabet))])
	}
	return fmt.Sprintf("session-%s-%s", strconv.FormatInt(now.UnixMilli(), 10), b.String())
}
