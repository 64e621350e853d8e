// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sort"
	"sync"
)

// Registry keeps one Manager per session ID for multi-session front ends.
type Registry struct {
	mu       sync.Mutex
	managers map[string]*entry
	factory  func(sessionID string) *Manager
}

// entry restores its conversation once; every Get waits for that to finish.
type entry struct {
	manager *Manager
	loaded  sync.Once
}

// NewRegistry creates a registry that builds managers with factory.
func NewRegistry(factory func(sessionID string) *Manager) *Registry {
	return &Registry{
		managers: make(map[string]*entry),
		factory:  factory,
	}
}

// Get returns the manager for sessionID, creating it and restoring its
// persisted conversation on first use. Concurrent callers for a new ID block
// until the restore completes, so no caller sees an unloaded manager.
func (r *Registry) Get(sessionID string) *Manager {
	r.mu.Lock()
	e, ok := r.managers[sessionID]
	if !ok {
		e = &entry{manager: r.factory(sessionID)}
		r.managers[sessionID] = e
	}
	r.mu.Unlock()

	e.loaded.Do(func() { e.manager.Load() })
	return e.manager
}

// IDs returns the session IDs with a live manager, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.managers))
	for id := range r.managers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live managers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}
