// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"fmt"
	"strings"
)

// SocketPath is appended to a base endpoint to reach the streaming socket.
const SocketPath = "/ws"

// BackendKind names one of the configurable backend categories.
type BackendKind string

const (
	KindText   BackendKind = "text"
	KindImage  BackendKind = "image"
	KindOCR    BackendKind = "ocr"
	KindSearch BackendKind = "search"
)

// BackendKinds lists every kind in display order.
func BackendKinds() []BackendKind {
	return []BackendKind{KindText, KindImage, KindOCR, KindSearch}
}

// ParseBackendKind parses a kind name case-insensitively.
func ParseBackendKind(s string) (BackendKind, error) {
	k := BackendKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range BackendKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown backend kind %q", s)
}

// Endpoint is the resolved address of one backend. BaseURL may be a full
// http(s) URL or a bare host:port.
type Endpoint struct {
	Kind    BackendKind
	BaseURL string
}

// Configured reports whether the endpoint has an address.
func (e Endpoint) Configured() bool {
	return strings.TrimSpace(e.BaseURL) != ""
}

// SocketURL returns the WebSocket address for this endpoint.
func (e Endpoint) SocketURL() string {
	return SocketURL(e.BaseURL)
}

func (e Endpoint) String() string {
	return string(e.Kind) + "=" + e.BaseURL
}

// SocketURL derives a WebSocket URL from an HTTP(S) URL or bare host.
//
//	http://host:8000   -> ws://host:8000/ws
//	https://host       -> wss://host/ws
//	host:8000          -> ws://host:8000/ws
//	ws://host:8000/ws  -> ws://host:8000/ws
//	ws://host:8000/ws/ -> ws://host:8000/ws
func SocketURL(base string) string {
	base = strings.TrimSpace(base)
	lower := strings.ToLower(base)

	switch {
	case strings.HasPrefix(lower, "https://"):
		base = "wss://" + base[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		base = "ws://" + base[len("http://"):]
	case strings.HasPrefix(lower, "ws://"), strings.HasPrefix(lower, "wss://"):
	default:
		base = "ws://" + base
	}

	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, SocketPath) {
		return base
	}
	return base + SocketPath
}
