// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import "testing"

func TestSocketURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"http with port", "http://host:8000", "ws://host:8000/ws"},
		{"https without port", "https://host", "wss://host/ws"},
		{"bare host", "host:8000", "ws://host:8000/ws"},
		{"already ws suffix", "ws://host:8000/ws", "ws://host:8000/ws"},
		{"http already ws suffix", "http://host:8000/ws", "ws://host:8000/ws"},
		{"trailing slash", "http://host:8000/", "ws://host:8000/ws"},
		{"ws suffix with trailing slash", "http://host:8000/ws/", "ws://host:8000/ws"},
		{"ws scheme with trailing slash", "ws://host:8000/ws//", "ws://host:8000/ws"},
		{"upper-case scheme", "HTTPS://host", "wss://host/ws"},
		{"surrounding space", "  10.0.0.2:9000 ", "ws://10.0.0.2:9000/ws"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SocketURL(tc.base); got != tc.want {
				t.Errorf("SocketURL(%q) = %q, want %q", tc.base, got, tc.want)
			}
		})
	}
}

func TestEndpoint_Configured(t *testing.T) {
	if (Endpoint{Kind: KindText}).Configured() {
		t.Error("empty endpoint should not be configured")
	}
	if (Endpoint{Kind: KindText, BaseURL: "   "}).Configured() {
		t.Error("blank endpoint should not be configured")
	}
	if !(Endpoint{Kind: KindText, BaseURL: "host:1"}).Configured() {
		t.Error("endpoint with address should be configured")
	}
}

func TestParseBackendKind(t *testing.T) {
	for _, k := range BackendKinds() {
		got, err := ParseBackendKind(" " + string(k) + " ")
		if err != nil {
			t.Fatalf("ParseBackendKind(%q) error: %v", k, err)
		}
		if got != k {
			t.Errorf("ParseBackendKind(%q) = %q", k, got)
		}
	}
	if _, err := ParseBackendKind("OCR"); err != nil {
		t.Errorf("kind parsing should be case-insensitive: %v", err)
	}
	if _, err := ParseBackendKind("video"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
