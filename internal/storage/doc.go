// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides event history persistence for deepcog.
//
// Every completed exchange is recorded as a dashboard event in a SQLite
// database (pure Go driver, no cgo).
//
// # Key Types
//
//   - EventStore: SQLite-backed event history
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.Record(ctx, dashboard.NewEvent(time.Now(), prompt, agents, res))
//	events, err := store.List(ctx, 200)
//
// # Storage Location
//
// Events are stored in ~/.deepcog/events.db unless storage.path is set.
package storage
