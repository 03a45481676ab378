// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cascade computes global illumination with radiance cascades.
//
// # Overview
//
// A radiance cascade is a stack of probe grids. Level 0 has the densest
// probe grid and the fewest, shortest rays; every following level divides
// the probe count per axis by the probe scaling factor and multiplies the
// ray count and ray length by the ray scaling factor. Each level records the
// radiance arriving along its own distance interval. Merging the levels
// from the farthest inwards yields, at level 0, the radiance from the whole
// ray range, which is then reduced to one value per probe and resampled to
// the output resolution.
//
// # Architecture
//
//	               +-----------------+
//	               |    Pipeline     |  Clear -> Gather -> Merge -> Extract -> Composite
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |     Manager     |  sizing (sizer.go) + buffers (store.go)
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  backend/wgpu   |          | backend/software|
//	| (gogpu/wgpu HAL)|          |  (CPU kernels)  |
//	+-----------------+          +-----------------+
//
// The package only defines the Device, Buffer and ComputeContext interfaces
// it consumes. Backends implement them; import one of them (or the backend
// registry) to get a Device.
//
// # Sizing
//
// For level i with scaling policy (psf, rsf):
//
//	probes per axis   floor(probeCountDim0 / psf^i)
//	rays per probe    raysPerProbe0 * rsf^i
//	interval start    rayLength0 * (1 - rsf^i) / (1 - rsf)
//	interval length   rayLength0 * rsf^i
//	texture side      round(sqrt(probes * rays))
//
// Level textures use a direction-first layout: the texture is split into a
// RayDim x RayDim grid of blocks, one per ray direction, each holding that
// direction for every probe.
//
// # Errors
//
// Contract violations (invalid sizing parameters, out-of-range levels, use
// before Init) panic with a *PreconditionError. Resource failures are
// returned as errors.
//
// # Quick Start
//
//	dev := software.NewDevice()
//	m := cascade.NewManager(dev)
//	if err := m.Init(cascade.InitParams{
//	    RayLength0:     4,
//	    RaysPerProbe0:  4,
//	    MaxRayLength:   1024,
//	    ProbeCountDim0: 128,
//	}); err != nil {
//	    return err
//	}
//	defer m.Shutdown()
//
//	stats, err := cascade.NewPipeline(m).Render(dev.NewContext("frame"), scene, output,
//	    cascade.FrameOptions{Clear: true, Filter: cascade.FilterLinear, Wait: true})
package cascade
