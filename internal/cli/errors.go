// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates any failure, including usage errors.
	ExitError = 1
)

// ExitCode maps a command result to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitError
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed command with context.
type CommandError struct {
	Command string // e.g. "study"
	Action  string // e.g. "end"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	name := strings.TrimSpace(e.Command + " " + e.Action)
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", name, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", name, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError is invalid command-line input.
type UsageError struct {
	Message string
	// Hint is an optional usage line printed after the message.
	Hint string
}

func (e *UsageError) Error() string {
	return e.Message
}

// NotFoundError is a missing named resource such as a course.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCommandError wraps err with the command and action that failed.
func NewCommandError(command, action, reason string, err error) *CommandError {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// Usagef formats a UsageError.
func Usagef(hint, format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...), Hint: hint}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err in text or JSON form.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		NewJSONErrorResponse(command, err).Write(w)
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), err)
	var usage *UsageError
	if errors.As(err, &usage) && usage.Hint != "" {
		fmt.Fprintf(w, "%s %s\n", DimStyle.Render("Usage:"), usage.Hint)
	}
}
