// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/campus-chat/internal/model"
)

// ConversationKeyPrefix prefixes the key of every persisted conversation.
const ConversationKeyPrefix = "chat-session-"

// ConversationKey returns the storage key for a session ID.
func ConversationKey(sessionID string) string {
	return ConversationKeyPrefix + sessionID
}

// =============================================================================
// CONVERSATION REPOSITORY
// =============================================================================

// ConversationRepo reads and writes conversations as JSON entries of a Store.
type ConversationRepo struct {
	store Store
}

// NewConversationRepo wraps a store.
func NewConversationRepo(store Store) *ConversationRepo {
	return &ConversationRepo{store: store}
}

// Save persists the conversation without its pending placeholders.
func (r *ConversationRepo) Save(conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return errors.New("conversation has no session id")
	}
	data, err := json.Marshal(conv.Persistable())
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := r.store.Set(ConversationKey(conv.ID), string(data)); err != nil {
		return fmt.Errorf("save conversation %s: %w", conv.ID, err)
	}
	return nil
}

// Load returns the conversation for sessionID. A missing entry yields
// ErrNotFound; an undecodable one yields a wrapped decode error.
func (r *ConversationRepo) Load(sessionID string) (*model.Conversation, error) {
	raw, err := r.store.Get(ConversationKey(sessionID))
	if err != nil {
		return nil, err
	}
	var conv model.Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", sessionID, err)
	}
	if conv.ID == "" {
		conv.ID = sessionID
	}
	if conv.Messages == nil {
		conv.Messages = []model.Message{}
	}
	return &conv, nil
}

// Delete removes the conversation for sessionID.
func (r *ConversationRepo) Delete(sessionID string) error {
	return r.store.Remove(ConversationKey(sessionID))
}

// SessionIDs returns the IDs of every persisted conversation.
func (r *ConversationRepo) SessionIDs() ([]string, error) {
	keys, err := r.store.Keys(ConversationKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, ConversationKeyPrefix))
	}
	return ids, nil
}

// List loads every persisted conversation, oldest first. Entries that fail
// to decode are skipped.
func (r *ConversationRepo) List() ([]*model.Conversation, error) {
	ids, err := r.SessionIDs()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Conversation, 0, len(ids))
	for _, id := range ids {
		conv, err := r.Load(id)
		if err != nil {
			continue
		}
		out = append(out, conv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// AllMessages gathers the messages of every persisted conversation sorted by
// timestamp.
func (r *ConversationRepo) AllMessages() ([]model.Message, error) {
	convs, err := r.List()
	if err != nil {
		return nil, err
	}
	var all []model.Message
	for _, c := range convs {
		all = append(all, c.Messages...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all, nil
}
