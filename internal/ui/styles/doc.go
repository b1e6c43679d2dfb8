// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the deepcog TUI.

Colors use Lip Gloss AdaptiveColor so the same palette works on light and
dark terminals. The brand tones come in pairs: the "40" shades for light
backgrounds and the "80" shades for dark ones.

# Color System (colors.go)

	Primary   - #6650A4 / #D0BCFF
	Secondary - #625B71 / #CCC2DC
	Tertiary  - #7D5260 / #EFB8C8

Agent chips on the dashboard use fixed colors, see AgentColor.

# Gradients (gradient.go)

Blend interpolates between hex stops in Lab space. GradientText colors a
title rune by rune and ShadeRows paints the chat background from sand to
olive.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	bubble := theme.UserBubble.MaxWidth(theme.BubbleWidth())
*/
package styles
