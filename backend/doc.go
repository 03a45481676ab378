// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects the device a cascade.Manager runs on.
//
// Backends register a Factory from their init function, so importing a
// backend package is enough to make it available:
//
//	import (
//		"github.com/gogpu/cascade/backend"
//		_ "github.com/gogpu/cascade/backend/software"
//		_ "github.com/gogpu/cascade/backend/wgpu"
//	)
//
//	dev, err := backend.Default()    // wgpu if a GPU opens, else software
//	dev, err := backend.Open("software")
//
// Default tries the backends in priority order, wgpu first. A backend whose
// factory fails (no adapter, driver missing) is skipped with a warning on
// cascade.Logger.
package backend
