// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across campus-chat.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width aware truncation
//   - PadRight, Preview: column formatting for terminal listings
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0644)
//	fmt.Println(util.PadRight(util.Preview(msg.Content, 40), 40))
package util
