// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
)

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewTheme_Preference(t *testing.T) {
	if theme := NewTheme(ThemeDark); !theme.IsDark {
		t.Error("dark preference should force IsDark")
	}
	if theme := NewTheme(ThemeLight); theme.IsDark {
		t.Error("light preference should clear IsDark")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(ThemeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"ErrorBubble", theme.ErrorBubble},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"OverlayBox", theme.OverlayBox},
		{"ResourceBox", theme.ResourceBox},
	}

	for _, s := range styles {
		if rendered := s.style.Render("test"); !strings.Contains(rendered, "test") {
			t.Errorf("%s style lost its content: %q", s.name, rendered)
		}
	}
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme(ThemeAuto)
	cases := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{80, LayoutMedium},
		{140, LayoutWide},
	}
	for _, c := range cases {
		theme.SetSize(c.width, 30)
		if got := theme.GetLayoutMode(); got != c.want {
			t.Errorf("width %d: layout = %v, want %v", c.width, got, c.want)
		}
	}
}

func TestBubbleWidthFloor(t *testing.T) {
	theme := NewTheme(ThemeAuto)
	theme.SetSize(10, 10)
	if got := theme.BubbleWidth(); got != 20 {
		t.Errorf("BubbleWidth = %d, want 20", got)
	}
	theme.SetSize(100, 10)
	if got := theme.BubbleWidth(); got != 75 {
		t.Errorf("BubbleWidth = %d, want 75", got)
	}
}

// =============================================================================
// GRADIENT TESTS
// =============================================================================

func TestBlend_Endpoints(t *testing.T) {
	colors := Blend(5, GradientIndigo, GradientBlue, GradientSky)
	if len(colors) != 5 {
		t.Fatalf("len = %d, want 5", len(colors))
	}
	if !strings.EqualFold(string(colors[0]), GradientIndigo) {
		t.Errorf("first = %s, want %s", colors[0], GradientIndigo)
	}
	if !strings.EqualFold(string(colors[2]), GradientBlue) {
		t.Errorf("middle = %s, want %s", colors[2], GradientBlue)
	}
	if !strings.EqualFold(string(colors[4]), GradientSky) {
		t.Errorf("last = %s, want %s", colors[4], GradientSky)
	}
}

func TestBlend_Degenerate(t *testing.T) {
	if got := Blend(0, ChatSand); got != nil {
		t.Errorf("Blend(0) = %v, want nil", got)
	}
	if got := Blend(3); got != nil {
		t.Errorf("Blend without stops = %v, want nil", got)
	}
	got := Blend(3, ChatSand)
	for _, c := range got {
		if !strings.EqualFold(string(c), ChatSand) {
			t.Errorf("single stop blend = %s, want %s", c, ChatSand)
		}
	}
}

func TestShadeRows_PadsToWidth(t *testing.T) {
	rows := ShadeRows([]string{"a", "bb"}, 6, ChatSand, ChatOlive)
	if len(rows) != 2 {
		t.Fatalf("len = %d", len(rows))
	}
	for _, r := range rows {
		if w := lipgloss.Width(r); w != 6 {
			t.Errorf("row width = %d, want 6", w)
		}
	}
}

func TestBar_Clamps(t *testing.T) {
	if w := lipgloss.Width(Bar(10, 150, Primary)); w != 10 {
		t.Errorf("Bar width = %d, want 10", w)
	}
	if Bar(0, 50, Primary) != "" {
		t.Error("zero width bar should be empty")
	}
	if got := Bar(4, 50, Primary); strings.Count(got, "█") != 2 {
		t.Errorf("half bar = %q", got)
	}
}

func TestAgentColor(t *testing.T) {
	if got := AgentColor(dashboard.AgentAudio); got != lipgloss.Color("#FF5722") {
		t.Errorf("audio = %s", got)
	}
	if got := AgentColor(dashboard.AgentDocument); got != lipgloss.Color("#9C27B0") {
		t.Errorf("document = %s", got)
	}
	if got := AgentColor(dashboard.AgentType(99)); got != lipgloss.Color("#757575") {
		t.Errorf("unknown = %s", got)
	}
}

func TestRenderHelpersKeepMarkers(t *testing.T) {
	if !strings.Contains(RenderSuccess("saved"), "[OK] saved") {
		t.Error("RenderSuccess lost marker")
	}
	if !strings.Contains(RenderError("failed"), "[X] failed") {
		t.Error("RenderError lost marker")
	}
}
