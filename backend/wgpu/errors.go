// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "errors"

var (
	// ErrNoAdapter is returned when no GPU adapter could be opened.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter")

	// ErrGPUTimeout is returned when a fence is not signaled in time.
	ErrGPUTimeout = errors.New("wgpu: GPU timeout")

	// ErrNotHALProvider is returned by NewFromProvider when the provider
	// does not expose HAL device and queue handles.
	ErrNotHALProvider = errors.New("wgpu: provider does not expose HAL types")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("wgpu: device closed")
)
