// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"encoding/json"
	"fmt"
)

// Inbound frame types.
const (
	FrameToken = "token"
	FrameDone  = "done"
	FrameError = "error"
)

// PromptRequest is the outbound frame written to the text stream.
type PromptRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Frame is one inbound message from the text stream.
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// DecodeFrame parses an inbound frame. Frames without a type are rejected.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &ClientError{Type: ErrTypeProtocol, Message: "malformed frame", Cause: err}
	}
	if f.Type == "" {
		return Frame{}, &ClientError{Type: ErrTypeProtocol, Message: "frame has no type"}
	}
	return f, nil
}

// encodePrompt serializes a prompt into its wire form.
func encodePrompt(req PromptRequest) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode prompt: %w", err)
	}
	return data, nil
}
