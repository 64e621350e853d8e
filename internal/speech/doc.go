// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides optional voice output and input.
//
// Capabilities are detected at startup and passed around explicitly:
//
//	synth, rec := speech.Detect()
//	if synth.IsSupported() {
//	    _ = synth.Speak(ctx, reply, speech.DefaultOptions())
//	}
//
// Synthesis shells out to espeak-ng, espeak or say. When none is installed,
// or for recognition, the Unsupported implementation reports
// ErrUnsupported.
package speech
