// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package speech

import "os"

func pauseProcess(*os.Process) error {
	return ErrUnsupported
}

func resumeProcess(*os.Process) error {
	return ErrUnsupported
}
