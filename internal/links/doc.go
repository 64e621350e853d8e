// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package links finds YouTube video references in message text.
//
// Recognized shapes: watch pages (including v= after other query
// parameters), youtu.be short links, embed and /v/ player URLs, and shorts.
// Only http and https URLs are considered.
package links
