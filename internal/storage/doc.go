// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides keyed textual persistence for campus-chat.
//
// # Key Types
//
//   - Store: Get/Set/Remove/Keys over string values
//   - FileStore: one JSON file per key, written atomically
//   - SQLiteStore: a single key/value table (modernc.org/sqlite)
//   - MemoryStore: map-backed, for tests and ephemeral runs
//   - ConversationRepo: conversations under "chat-session-<id>"
//   - StudyRepo: study history under "universityChatStudySessions"
//
// # Usage
//
//	store, err := storage.Open("sqlite", dataDir)
//	repo := storage.NewConversationRepo(store)
//	conv, err := repo.Load(sessionID)
//	if errors.Is(err, storage.ErrNotFound) { ... }
//
// # Storage Location
//
// Entries are stored in ~/.campuschat/data/ unless configured otherwise.
package storage
