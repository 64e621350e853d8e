// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package questions suggests follow-up study questions for a conversation.
//
// Fifteen templates in five categories (analytical, practical, creative,
// critical, exploratory) are filled with topics drawn from the history:
// the courses attached to messages and a small academic vocabulary.
//
//	gen := questions.NewGenerator()
//	for _, q := range gen.Generate(mgr.Messages(), 3) {
//	    fmt.Println(q)
//	}
package questions
