// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger shared by the chat, server and
// study components. Loggers are passed explicitly; nothing here touches the
// global zerolog logger.
package logging
