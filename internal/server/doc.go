// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the chat assistant as a JSON API for web front ends.
//
// # Endpoints
//
//   - GET    /health                          - Health check
//   - GET    /api/courses                     - Course catalog
//   - GET    /api/videos?text=                - Video links found in text
//   - POST   /api/attachments                 - Multipart upload to attachments
//   - GET    /api/sessions/{id}/messages      - Conversation snapshot
//   - POST   /api/sessions/{id}/messages      - Send a message, wait for the reply
//   - DELETE /api/sessions/{id}/messages      - Clear the conversation
//   - GET    /api/sessions/{id}/questions     - Suggested follow-up questions
//   - GET    /api/sessions/{id}/export        - Download json, text or markdown
//   - GET    /api/study                       - Study timer status and stats
//   - POST   /api/study/start                 - Start a study session
//   - POST   /api/study/end                   - End the active study session
//
// A send while the session is waiting on a reply answers 409. Errors are
// JSON objects of the form {"error": {"message": ..., "code": ...}}.
//
// # Usage
//
//	srv := server.New(cfg.Server, server.Deps{
//		Assistant:     client,
//		Conversations: storage.NewConversationRepo(store),
//		Tracker:       tracker,
//		Logger:        log,
//	})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
