// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package webhook talks to the remote assistant endpoint and decodes its
// replies.
//
// The endpoint receives one GET per user message with the query parameters
// chatInput and sessionId. Its body is either a single JSON envelope or a
// newline-delimited stream of JSON and plain-text fragments; DecodeResponse
// turns either shape into display text.
//
// # Usage
//
//	client := webhook.NewClient(cfg.Webhook.URL)
//	body, err := client.Send(ctx, "What is a derivative?", sessionID)
//	if err != nil {
//	    reply := webhook.FailureNotice(err)
//	}
//	reply := webhook.DecodeResponse(body)
package webhook
