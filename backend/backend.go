// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/cascade"
)

// Backend names.
const (
	// Software is the CPU reference backend (backend/software).
	Software = "software"

	// WGPU is the GPU backend on the gogpu/wgpu HAL (backend/wgpu).
	WGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no registered backend could
	// open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrUnknownBackend is returned by Open for a name nobody registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")
)

// Factory opens a new device. A factory that cannot run on this machine
// (no GPU adapter, missing driver) returns an error.
type Factory func() (cascade.Device, error)
