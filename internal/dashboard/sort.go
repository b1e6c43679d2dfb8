// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortKey is a sortable column of the event table.
type SortKey int

const (
	SortTime SortKey = iota
	SortDate
	SortQuestion
	SortAgents
	SortResources
)

var sortKeyNames = [...]string{"time", "date", "question", "agents", "resources"}

// SortKeys lists the columns in table order.
func SortKeys() []SortKey {
	return []SortKey{SortTime, SortDate, SortQuestion, SortAgents, SortResources}
}

func (k SortKey) String() string {
	if k < 0 || int(k) >= len(sortKeyNames) {
		return "unknown"
	}
	return sortKeyNames[k]
}

// Title returns the column header.
func (k SortKey) Title() string {
	name := k.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseSortKey parses a column name, case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range sortKeyNames {
		if name == s {
			return SortKey(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sort key %q (want one of %s)", s, strings.Join(sortKeyNames[:], ", "))
}

// SortConfig is the active sort column and direction.
type SortConfig struct {
	Key       SortKey
	Ascending bool
}

// DefaultSortConfig sorts by date, ascending.
func DefaultSortConfig() SortConfig {
	return SortConfig{Key: SortDate, Ascending: true}
}

// Toggle returns the config after the user selects key: the same key flips
// the direction, a different key sorts ascending.
func Toggle(cfg SortConfig, key SortKey) SortConfig {
	if cfg.Key == key {
		return SortConfig{Key: key, Ascending: !cfg.Ascending}
	}
	return SortConfig{Key: key, Ascending: true}
}

// Sort returns a sorted copy of events. The sort is stable, so rows that
// compare equal keep their recorded order in either direction.
func Sort(events []Event, cfg SortConfig) []Event {
	out := make([]Event, len(events))
	copy(out, events)

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], cfg.Key)
		if cfg.Ascending {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compare(a, b Event, key SortKey) int {
	switch key {
	case SortTime:
		return compareClock(a.Time, b.Time)
	case SortDate:
		return strings.Compare(a.Date, b.Date)
	case SortQuestion:
		return strings.Compare(a.Question, b.Question)
	case SortAgents:
		return compareInts(len(a.Agents), len(b.Agents))
	case SortResources:
		return compareInts(ramOf(a), ramOf(b))
	default:
		return 0
	}
}

// compareClock orders "3:04 PM" times chronologically, falling back to
// string order when either side does not parse.
func compareClock(a, b string) int {
	ta, errA := time.Parse(TimeLayout, strings.TrimSpace(a))
	tb, errB := time.Parse(TimeLayout, strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ta.Compare(tb)
}

// ramOf returns the RAM percentage, or 0 when the string is malformed.
func ramOf(e Event) int {
	_, ram, err := ParseResources(e.Resources)
	if err != nil {
		return 0
	}
	return ram
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
