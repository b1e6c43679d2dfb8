// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func questions(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Question
	}
	return out
}

func TestToggle(t *testing.T) {
	cfg := DefaultSortConfig()
	assert.Equal(t, SortConfig{Key: SortDate, Ascending: true}, cfg)

	cfg = Toggle(cfg, SortDate)
	assert.Equal(t, SortConfig{Key: SortDate, Ascending: false}, cfg)

	cfg = Toggle(cfg, SortDate)
	assert.Equal(t, SortConfig{Key: SortDate, Ascending: true}, cfg)

	// A new key always starts ascending, even from a descending sort.
	cfg = Toggle(SortConfig{Key: SortTime, Ascending: false}, SortAgents)
	assert.Equal(t, SortConfig{Key: SortAgents, Ascending: true}, cfg)
}

func TestSort_ByResourcesUsesRAM(t *testing.T) {
	events := []Event{
		{Question: "high ram", Resources: "CPU: 5%, RAM: 90%"},
		{Question: "low ram", Resources: "CPU: 99%, RAM: 10%"},
		{Question: "broken", Resources: "n/a"},
		{Question: "mid ram", Resources: "CPU: 50%, RAM: 40%"},
	}

	asc := Sort(events, SortConfig{Key: SortResources, Ascending: true})
	assert.Equal(t, []string{"broken", "low ram", "mid ram", "high ram"}, questions(asc))

	desc := Sort(events, SortConfig{Key: SortResources, Ascending: false})
	assert.Equal(t, []string{"high ram", "mid ram", "low ram", "broken"}, questions(desc))

	// Input untouched.
	assert.Equal(t, "high ram", events[0].Question)
}

func TestSort_ByAgentsCount(t *testing.T) {
	events := []Event{
		{Question: "two", Agents: []AgentType{AgentAudio, AgentWeb}},
		{Question: "none"},
		{Question: "one", Agents: []AgentType{AgentDocument}},
		{Question: "one again", Agents: []AgentType{AgentImage}},
	}
	got := Sort(events, SortConfig{Key: SortAgents, Ascending: true})
	assert.Equal(t, []string{"none", "one", "one again", "two"}, questions(got))
}

func TestSort_ByTimeIsChronological(t *testing.T) {
	events := []Event{
		{Question: "afternoon", Time: "1:15 PM"},
		{Question: "late morning", Time: "11:00 AM"},
		{Question: "early", Time: "9:30 AM"},
	}
	got := Sort(events, SortConfig{Key: SortTime, Ascending: true})
	assert.Equal(t, []string{"early", "late morning", "afternoon"}, questions(got))
}

func TestSort_ByDateAndQuestion(t *testing.T) {
	events := []Event{
		{Question: "b", Date: "2023-05-01"},
		{Question: "c", Date: "2022-01-01"},
		{Question: "a", Date: "2024-12-31"},
	}
	byDate := Sort(events, SortConfig{Key: SortDate, Ascending: true})
	assert.Equal(t, []string{"c", "b", "a"}, questions(byDate))

	byQuestion := Sort(events, SortConfig{Key: SortQuestion, Ascending: false})
	assert.Equal(t, []string{"c", "b", "a"}, questions(byQuestion))
}

func TestParseResources(t *testing.T) {
	cpu, ram, err := ParseResources("CPU: 20%, RAM: 30%")
	require.NoError(t, err)
	assert.Equal(t, 20, cpu)
	assert.Equal(t, 30, ram)

	cpu, ram, err = ParseResources(FormatResources(7, 88))
	require.NoError(t, err)
	assert.Equal(t, [2]int{7, 88}, [2]int{cpu, ram})

	for _, bad := range []string{"", "RAM: 30%", "CPU: x%, RAM: 1%"} {
		_, _, err := ParseResources(bad)
		assert.Error(t, err, bad)
	}
}

func TestAgentTypes(t *testing.T) {
	assert.Equal(t, "DOCUMENT", AgentDocument.String())
	assert.Equal(t, "Document", AgentDocument.Label())

	a, err := ParseAgentType(" web ")
	require.NoError(t, err)
	assert.Equal(t, AgentWeb, a)

	_, err = ParseAgentType("video")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", AgentType(9).String())
}

func TestSortKeys(t *testing.T) {
	k, err := ParseSortKey("RESOURCES")
	require.NoError(t, err)
	assert.Equal(t, SortResources, k)
	assert.Equal(t, "Resources", k.Title())

	_, err = ParseSortKey("size")
	assert.Error(t, err)
}

func TestSampleEventsAndNewEvent(t *testing.T) {
	samples := SampleEvents()
	require.Len(t, samples, 2)
	assert.Equal(t, "What is React?", samples[0].Question)
	assert.Equal(t, []string{"Audio", "Web"}, samples[0].AgentLabels())

	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	e := NewEvent(at, "q", []AgentType{AgentWeb}, "CPU: 1%, RAM: 2%")
	assert.Equal(t, "2:05 PM", e.Time)
	assert.Equal(t, "2024-03-09", e.Date)
}

func TestSampler(t *testing.T) {
	base := BaselineGauges()
	assert.Equal(t, "25%", base.CPU())
	assert.Equal(t, "20GB", base.GPU())
	assert.Equal(t, "60GB", base.RAM())

	s := NewSampler(42, DefaultJitter)
	for i := 0; i < 200; i++ {
		g := s.Sample()
		assert.InDelta(t, BaselineCPUPercent, g.CPUPercent, 5)
		assert.InDelta(t, BaselineGPUGB, g.GPUGB, 4)
		assert.InDelta(t, BaselineRAMGB, g.RAMGB, 12)
		_, ram, err := ParseResources(g.Resources())
		require.NoError(t, err)
		assert.Equal(t, g.RAMPercent, ram)
	}

	still := NewSampler(1, 0).Sample()
	assert.Equal(t, base, still)
}

func TestSampler_Collectors(t *testing.T) {
	s := NewSampler(7, 0)
	reg := prometheus.NewRegistry()
	for _, c := range s.Collectors("deepcog") {
		require.NoError(t, reg.Register(c))
	}
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
