// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software is the CPU reference backend for cascade.
//
// Buffers are host slices of cascade.Radiance. Kernels run in float32 while
// they are recorded, split into row bands of one thread group each and spread
// over a worker pool. The composite resample copies radiance unclamped, so
// tone mapping is left to the caller.
//
// Importing the package registers it with the backend registry:
//
//	import _ "github.com/gogpu/cascade/backend/software"
//
// It can also be used directly:
//
//	dev := software.NewDevice(software.WithWorkers(4))
//	defer dev.Close()
package software
