// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package flatland builds 2D scene radiance sources for the cascade pipeline.
//
// A Scene is a list of shapes painted in order onto a width x height grid.
// Every texel whose center lies inside a shape becomes occupied (A = 1) and
// carries the shape's emission; occluders are shapes with zero emission.
// Unoccupied texels are left at cascade.NoRadiance so rays pass through them.
//
//	s := flatland.NewScene(256, 256)
//	s.AddEmitter(flatland.Circle{X: 64, Y: 64, R: 12}, flatland.Color{R: 4, G: 3, B: 2})
//	s.AddOccluder(flatland.Box{X: 120, Y: 40, W: 8, H: 160})
//	scene, err := s.Upload(dev, "scene")
package flatland
