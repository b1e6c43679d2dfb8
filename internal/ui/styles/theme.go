// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme preferences accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderSubtitle lipgloss.Style
	Tab            lipgloss.Style
	TabActive      lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	ImageCaption    lipgloss.Style
	Timestamp       lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	ModeBadge      lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// OVERLAY STYLES (mode picker, attach menu, settings prompt)
	// ==========================================================================

	OverlayBox      lipgloss.Style
	OverlayTitle    lipgloss.Style
	OverlayItem     lipgloss.Style
	OverlaySelected lipgloss.Style
	OverlayHint     lipgloss.Style

	// ==========================================================================
	// DASHBOARD STYLES
	// ==========================================================================

	ResourceBox       lipgloss.Style
	ResourceLabel     lipgloss.Style
	ResourceValue     lipgloss.Style
	TableHeader       lipgloss.Style
	TableHeaderActive lipgloss.Style
	TableRow          lipgloss.Style
	TableRowAlt       lipgloss.Style

	// ==========================================================================
	// SPINNER
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ErrorText    lipgloss.Style
}

// NewTheme creates a theme. pref is "auto", "dark" or "light"; anything else
// behaves like "auto".
func NewTheme(pref string) *Theme {
	colorProfile := termenv.ColorProfile()

	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(pref) {
	case ThemeDark:
		isDark = true
	case ThemeLight:
		isDark = false
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)

	t.TabActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Primary).
		Bold(true).
		Padding(0, 1)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(GradientIndigo)).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(0, 1)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(Error).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Error).
		Padding(0, 1)

	t.ImageCaption = lipgloss.NewStyle().
		Foreground(Tertiary).
		Italic(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Secondary).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	t.ModeBadge = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(GradientBlue)).
		Bold(true).
		Padding(0, 1)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.Connected = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	t.Disconnected = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Overlays
	t.OverlayBox = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(1, 2)

	t.OverlayTitle = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		MarginBottom(1)

	t.OverlayItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.OverlaySelected = lipgloss.NewStyle().
		Background(Primary).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.OverlayHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		MarginTop(1)

	// Dashboard
	t.ResourceBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Secondary).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.ResourceLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.ResourceValue = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	t.TableHeader = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	t.TableHeaderActive = t.TableHeader.
		Foreground(Tertiary).
		Underline(true)

	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.TableRowAlt = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceDim)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Primary)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Error)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the maximum width of a chat bubble.
func (t *Theme) BubbleWidth() int {
	w := t.Width * 3 / 4
	if w < 20 {
		w = 20
	}
	return w
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
