// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the live conversation of a chat session.
//
// A Manager appends the user's message together with a pending assistant
// placeholder, sends the text to the assistant endpoint, and replaces the
// placeholder with the decoded reply or a failure notice. The conversation
// is persisted after each completed exchange; persistence failures are
// logged and the conversation continues in memory.
//
// # Usage
//
//	mgr := session.NewManager(session.Config{
//	    Assistant:  webhook.NewClient(url),
//	    Repository: storage.NewConversationRepo(store),
//	    Logger:     &logger,
//	})
//	mgr.Load()
//	reply, err := mgr.SendMessage(ctx, "Explain osmosis", nil, nil)
//
// Registry maps session IDs to managers for the HTTP API.
package session
