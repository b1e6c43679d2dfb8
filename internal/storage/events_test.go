// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *EventStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEventStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	first := dashboard.NewEvent(at, "What is Go?", []dashboard.AgentType{dashboard.AgentWeb, dashboard.AgentDocument}, "CPU: 21%, RAM: 44%")
	second := dashboard.NewEvent(at.Add(time.Minute), "Draw a cat", []dashboard.AgentType{dashboard.AgentImage}, "CPU: 30%, RAM: 50%")
	third := dashboard.NewEvent(at.Add(2*time.Minute), "No agents", nil, "")

	for _, e := range []dashboard.Event{first, second, third} {
		require.NoError(t, store.Record(ctx, e))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first, all[0])
	assert.Equal(t, second, all[1])
	assert.Equal(t, "No agents", all[2].Question)
	assert.Empty(t, all[2].Agents)

	recent, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Draw a cat", recent[0].Question, "most recent events, oldest first")
	assert.Equal(t, "No agents", recent[1].Question)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEventStore_RejectsEmptyQuestion(t *testing.T) {
	store := openTestStore(t)
	err := store.Record(context.Background(), dashboard.Event{Question: "  "})
	assert.True(t, errors.Is(err, ErrEmptyQuestion))
}

func TestEventStore_SeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	seeded, err := store.SeedIfEmpty(ctx, dashboard.SampleEvents())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = store.SeedIfEmpty(ctx, dashboard.SampleEvents())
	require.NoError(t, err)
	assert.False(t, seeded, "second seed must be a no-op")

	events, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, dashboard.SampleEvents(), events)
}

func TestEventStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, dashboard.SampleEvents()[0]))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEventStore_Closed(t *testing.T) {
	ctx := context.Background()
	store, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Record(ctx, dashboard.SampleEvents()[0]), ErrClosed)
	_, err = store.List(ctx, 10)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSplitAgentsSkipsUnknown(t *testing.T) {
	got := splitAgents("AUDIO,VIDEO,WEB")
	assert.Equal(t, []dashboard.AgentType{dashboard.AgentAudio, dashboard.AgentWeb}, got)
	assert.Nil(t, splitAgents(""))
}
