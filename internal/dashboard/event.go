// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// AGENT TYPES
// =============================================================================

// AgentType identifies an agent that took part in answering a question.
type AgentType int

const (
	AgentAudio AgentType = iota
	AgentWeb
	AgentImage
	AgentDocument
)

var agentNames = [...]string{"AUDIO", "WEB", "IMAGE", "DOCUMENT"}

var titleCaser = cases.Title(language.English)

// AllAgents lists the agent types in display order.
func AllAgents() []AgentType {
	return []AgentType{AgentAudio, AgentWeb, AgentImage, AgentDocument}
}

// String returns the upper-case agent name.
func (a AgentType) String() string {
	if a < 0 || int(a) >= len(agentNames) {
		return "UNKNOWN"
	}
	return agentNames[a]
}

// Label returns the agent name for display, e.g. "Document".
func (a AgentType) Label() string {
	return titleCaser.String(strings.ToLower(a.String()))
}

// ParseAgentType parses an agent name, case-insensitively.
func ParseAgentType(s string) (AgentType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range agentNames {
		if name == s {
			return AgentType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown agent type %q", s)
}

// =============================================================================
// EVENTS
// =============================================================================

// Time and date layouts used in the event table.
const (
	TimeLayout = "3:04 PM"
	DateLayout = "2006-01-02"
)

// Event is one row of the dashboard history.
type Event struct {
	Time      string      `json:"time"`
	Date      string      `json:"date"`
	Question  string      `json:"question"`
	Agents    []AgentType `json:"agents"`
	Resources string      `json:"resources"`
}

// NewEvent stamps an event with the time and date of at.
func NewEvent(at time.Time, question string, agents []AgentType, resources string) Event {
	return Event{
		Time:      at.Format(TimeLayout),
		Date:      at.Format(DateLayout),
		Question:  question,
		Agents:    agents,
		Resources: resources,
	}
}

// AgentLabels returns the display labels of the event's agents.
func (e Event) AgentLabels() []string {
	labels := make([]string, len(e.Agents))
	for i, a := range e.Agents {
		labels[i] = a.Label()
	}
	return labels
}

// SampleEvents returns the built-in example history.
func SampleEvents() []Event {
	return []Event{
		{Time: "10:00 AM", Date: "2022-01-01", Question: "What is React?", Agents: []AgentType{AgentAudio, AgentWeb}, Resources: "CPU: 20%, RAM: 30%"},
		{Time: "11:00 AM", Date: "2022-01-01", Question: "How to use hooks?", Agents: []AgentType{AgentImage}, Resources: "CPU: 25%, RAM: 35%"},
	}
}

// =============================================================================
// RESOURCE STRINGS
// =============================================================================

var resourcePattern = regexp.MustCompile(`(?i)CPU:\s*(\d+)%\s*,\s*RAM:\s*(\d+)%`)

// FormatResources renders a resource snapshot as "CPU: n%, RAM: m%".
func FormatResources(cpu, ram int) string {
	return fmt.Sprintf("CPU: %d%%, RAM: %d%%", cpu, ram)
}

// ParseResources extracts the CPU and RAM percentages from a resource string.
func ParseResources(s string) (cpu, ram int, err error) {
	m := resourcePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("malformed resource string %q", s)
	}
	cpu, _ = strconv.Atoi(m[1])
	ram, _ = strconv.Atoi(m[2])
	return cpu, ram, nil
}
