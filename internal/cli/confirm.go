// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrConfirmationRequired is returned when a destructive action cannot
// prompt and --yes was not given.
var ErrConfirmationRequired = errors.New("confirmation required: pass --yes")

// RequireConfirmation asks "Are you sure you want to <action>?" on in and
// reports the answer. yes skips the prompt. JSON mode and a non-terminal
// stdin never prompt.
func (a *App) RequireConfirmation(yes bool, action string) (bool, error) {
	if yes {
		return true, nil
	}
	if a.JSON || !a.interactive() {
		return false, ErrConfirmationRequired
	}
	fmt.Fprintf(a.Out, "Are you sure you want to %s? [y/N]: ", action)
	return readYes(a.In)
}

func readYes(in io.Reader) (bool, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
