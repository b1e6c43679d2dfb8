// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepcognitive/deepcog-tui/internal/config"
	"github.com/deepcognitive/deepcog-tui/internal/service"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "config", "image")
	Action  string // Action being performed (e.g., "set", "generate")
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports invalid arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

func commandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var validation config.ValidateErrors
	if errors.As(err, &validation) {
		return ExitConfigError
	}
	var single config.ValidationError
	if errors.As(err, &single) {
		return ExitConfigError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	var clientErr *service.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case service.ErrTypeTimeout:
			return ExitTimeoutError
		case service.ErrTypeConnection, service.ErrTypeStatus, service.ErrTypeProtocol:
			return ExitNetworkError
		case service.ErrTypeNotConfigured:
			return ExitConfigError
		case service.ErrTypeInvalidRequest:
			return ExitUsageError
		}
	}
	return ExitGeneralError
}
