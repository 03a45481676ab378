// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/cascade"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)

	// First registered name that opens successfully wins.
	priority = []string{WGPU, Software}
)

// Register registers a device factory under name, replacing any factory
// already registered with that name. Backends call it from init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a factory. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether a factory is registered under name.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens a device from the named backend.
func Open(name string) (cascade.Device, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	dev, err := f()
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", name, err)
	}
	return dev, nil
}

// Default opens the best available backend. Backends are tried in priority
// order (wgpu, then software), then any other registered backend by name.
// A backend that fails to open is logged and skipped.
func Default() (cascade.Device, error) {
	registryMu.RLock()
	order := slices.Clone(priority)
	for _, name := range sortedNames() {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	registryMu.RUnlock()

	for _, name := range order {
		if !IsRegistered(name) {
			continue
		}
		dev, err := Open(name)
		if err != nil {
			cascade.Logger().Warn("backend: skipping unavailable backend", "name", name, "err", err)
			continue
		}
		cascade.Logger().Info("backend: selected", "name", name)
		return dev, nil
	}
	return nil, ErrBackendNotAvailable
}

// sortedNames must be called with registryMu held.
func sortedNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
