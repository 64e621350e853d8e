// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// study sessions and the course catalog.
//
// # Key Types
//
//   - Conversation: ordered messages bound to a session ID
//   - Message: one entry with sender, content, timestamp, attachments and course
//   - Attachment: file metadata with inline base64 content or a URL
//   - StudySession: a timed study period
//   - Course: catalog entry (Courses, LookupCourse)
//
// # Usage
//
//	conv := model.NewConversation(model.NewSessionID())
//	conv.Messages = append(conv.Messages, model.NewUserMessage("What is entropy?", nil, nil))
//
// Persisted messages written by older clients use the sender tag "bot";
// it decodes to SenderAssistant.
package model
