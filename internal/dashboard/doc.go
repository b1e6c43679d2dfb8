// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard models the event history table and resource gauges.
//
// # Key Types
//
//   - Event: One recorded question with its agents and resource snapshot
//   - AgentType: The kind of agent that served a question
//   - SortConfig: Active sort column and direction
//   - Sampler: Simulated CPU/GPU/RAM gauges
//
// # Usage
//
//	cfg := dashboard.DefaultSortConfig()
//	cfg = dashboard.Toggle(cfg, dashboard.SortResources)
//	rows := dashboard.Sort(events, cfg)
//
// Clicking the same column twice flips the direction; a new column always
// starts ascending.
package dashboard
