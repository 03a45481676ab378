// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package flatland

import "github.com/chewxy/math32"

// Shape is a region of the plane described by its signed distance.
// Distance is negative inside the shape and positive outside.
type Shape interface {
	Distance(x, y float32) float32
}

// Circle is a filled disc centered at (X, Y).
type Circle struct {
	X, Y, R float32
}

// Distance implements Shape.
func (c Circle) Distance(x, y float32) float32 {
	return math32.Hypot(x-c.X, y-c.Y) - c.R
}

// Box is an axis-aligned rectangle with top-left corner (X, Y).
type Box struct {
	X, Y, W, H float32
}

// Distance implements Shape.
func (b Box) Distance(x, y float32) float32 {
	hw, hh := b.W/2, b.H/2
	dx := math32.Abs(x-(b.X+hw)) - hw
	dy := math32.Abs(y-(b.Y+hh)) - hh
	outside := math32.Hypot(math32.Max(dx, 0), math32.Max(dy, 0))
	inside := math32.Min(math32.Max(dx, dy), 0)
	return outside + inside
}

// Line is a segment from (X0, Y0) to (X1, Y1) with round caps. Width is the
// full stroke width.
type Line struct {
	X0, Y0, X1, Y1 float32
	Width          float32
}

// Distance implements Shape.
func (l Line) Distance(x, y float32) float32 {
	px, py := x-l.X0, y-l.Y0
	dx, dy := l.X1-l.X0, l.Y1-l.Y0
	var t float32
	if n := dx*dx + dy*dy; n > 0 {
		t = (px*dx + py*dy) / n
		t = math32.Max(0, math32.Min(1, t))
	}
	return math32.Hypot(px-dx*t, py-dy*t) - l.Width/2
}
