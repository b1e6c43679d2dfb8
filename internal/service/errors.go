// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import "strconv"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeInvalidRequest
	ErrTypeNotConfigured
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeEmptyResponse
	ErrTypeProtocol
	ErrTypeBackend
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeInvalidRequest:
		return "invalid_request"
	case ErrTypeNotConfigured:
		return "not_configured"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeEmptyResponse:
		return "empty_response"
	case ErrTypeProtocol:
		return "protocol"
	case ErrTypeBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// ClientError is the only error type returned across the client boundary.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg += " (status " + strconv.Itoa(e.StatusCode) + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type, so callers can use the
// sentinels below with errors.Is.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinel errors for easy checking.
var (
	ErrEmptyPrompt   = &ClientError{Type: ErrTypeInvalidRequest, Message: "prompt is empty"}
	ErrNotConfigured = &ClientError{Type: ErrTypeNotConfigured, Message: "backend endpoint not configured"}
	ErrEmptyResponse = &ClientError{Type: ErrTypeEmptyResponse, Message: "backend returned an empty response"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrStreamTimeout = &ClientError{Type: ErrTypeTimeout, Message: "no response from text backend"}
	ErrStreamClosed  = &ClientError{Type: ErrTypeConnection, Message: "text stream is not open"}
	ErrBackend       = &ClientError{Type: ErrTypeBackend, Message: "backend reported an error"}
)
