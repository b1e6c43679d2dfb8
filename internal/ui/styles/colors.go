// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
)

// =============================================================================
// BRAND PALETTE
// =============================================================================

// Light variants are the "40" tones, dark variants the "80" tones.
var (
	// Primary - Accent for selections, the header and assistant bubbles
	Primary = lipgloss.AdaptiveColor{Light: "#6650A4", Dark: "#D0BCFF"}
	// Secondary - Muted accent for borders and labels
	Secondary = lipgloss.AdaptiveColor{Light: "#625B71", Dark: "#CCC2DC"}
	// Tertiary - Highlights such as the active sort column
	Tertiary = lipgloss.AdaptiveColor{Light: "#7D5260", Dark: "#EFB8C8"}
)

// =============================================================================
// GRADIENTS
// =============================================================================

// Header and send-button gradient stops.
const (
	GradientIndigo = "#6B73FF"
	GradientBlue   = "#000DFF"
	GradientSky    = "#4ADFFF"
)

// Chat background stops, top to bottom.
const (
	ChatSand  = "#D4C49E"
	ChatOlive = "#9E9870"
)

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var (
	Surface    = lipgloss.AdaptiveColor{Light: "#FFFBFE", Dark: "#1C1B1F"}
	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F4EFF4", Dark: "#141218"}
	Overlay    = lipgloss.AdaptiveColor{Light: "#E7E0EC", Dark: "#49454F"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1C1B1F", Dark: "#E6E1E5"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#49454F", Dark: "#CAC4D0"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#79747E", Dark: "#938F99"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1C1B1F"}
)

// Message bubbles. User text sits on the blue gradient stop, assistant text
// on the primary tone.
var (
	UserBubbleBg      = lipgloss.AdaptiveColor{Light: "#DDE1FF", Dark: "#000DFF"}
	UserBubbleFg      = lipgloss.AdaptiveColor{Light: "#000DFF", Dark: "#FFFFFF"}
	AssistantBubbleBg = lipgloss.AdaptiveColor{Light: "#EADDFF", Dark: "#381E72"}
	AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#21005D", Dark: "#EADDFF"}
)

// =============================================================================
// STATUS COLORS
// =============================================================================

var (
	Success = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
	Error   = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#F2B8B5"}
	Warning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	Info    = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
)

// =============================================================================
// AGENT COLORS
// =============================================================================

var agentColors = map[dashboard.AgentType]lipgloss.Color{
	dashboard.AgentAudio:    lipgloss.Color("#FF5722"),
	dashboard.AgentWeb:      lipgloss.Color("#2196F3"),
	dashboard.AgentImage:    lipgloss.Color("#4CAF50"),
	dashboard.AgentDocument: lipgloss.Color("#9C27B0"),
}

// AgentColor returns the chip color of an agent.
func AgentColor(a dashboard.AgentType) lipgloss.Color {
	if c, ok := agentColors[a]; ok {
		return c
	}
	return lipgloss.Color("#757575")
}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicators are ASCII markers shown alongside status colors.
var StatusIndicators = struct {
	Success string
	Error   string
	Warning string
	Info    string
}{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
}

// RenderSuccess renders a success line with its marker.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Success).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error line with its marker.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Error).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning line with its marker.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Warning).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an informational line with its marker.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Info).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}
