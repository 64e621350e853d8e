// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach reads files into inline message attachments.
//
// Files above the size limit (10 MB by default) or outside the accepted
// types (images and common office documents) are rejected with a
// *RejectedError; Collect keeps going past rejections.
package attach
