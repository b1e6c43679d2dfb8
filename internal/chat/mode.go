// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/service"
)

// Mode is the backend a submission is routed to.
type Mode int

const (
	ModeTopAI Mode = iota
	ModeBottomAI
	ModeImage
	ModeOCR
	ModeSearch
)

var modeInfo = [...]struct {
	key   string
	label string
	kind  service.BackendKind
}{
	ModeTopAI:    {"top", "Top AI", service.KindText},
	ModeBottomAI: {"bottom", "Bottom AI", service.KindText},
	ModeImage:    {"image", "Image Gen AI", service.KindImage},
	ModeOCR:      {"ocr", "OCR AI", service.KindOCR},
	ModeSearch:   {"search", "Web Search", service.KindSearch},
}

// Modes lists the selectable modes in picker order.
func Modes() []Mode {
	return []Mode{ModeTopAI, ModeBottomAI, ModeImage, ModeOCR, ModeSearch}
}

func (m Mode) valid() bool { return m >= 0 && int(m) < len(modeInfo) }

// String returns the picker label, e.g. "Image Gen AI".
func (m Mode) String() string {
	if !m.valid() {
		return "Unknown"
	}
	return modeInfo[m].label
}

// Key returns the config name of the mode, e.g. "image".
func (m Mode) Key() string {
	if !m.valid() {
		return ""
	}
	return modeInfo[m].key
}

// Backend returns the backend kind that serves the mode.
func (m Mode) Backend() service.BackendKind {
	if !m.valid() {
		return ""
	}
	return modeInfo[m].kind
}

// IsText reports whether the mode streams over the text backend.
func (m Mode) IsText() bool { return m == ModeTopAI || m == ModeBottomAI }

// IsPlaceholder reports whether the mode answers with a canned reply.
func (m Mode) IsPlaceholder() bool { return m == ModeOCR || m == ModeSearch }

// Agent returns the dashboard agent recorded for the mode, if any.
func (m Mode) Agent() (dashboard.AgentType, bool) {
	switch m {
	case ModeImage:
		return dashboard.AgentImage, true
	case ModeOCR:
		return dashboard.AgentDocument, true
	case ModeSearch:
		return dashboard.AgentWeb, true
	}
	return 0, false
}

// ParseMode accepts a config key ("top") or a label ("Top AI").
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	for _, m := range Modes() {
		if strings.EqualFold(s, m.Key()) || strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
