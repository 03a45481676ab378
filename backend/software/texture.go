// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/cascade"
)

// Texture is a host-memory buffer of cascade.Radiance texels stored row by
// row. Half-float buffers are stored at full precision.
type Texture struct {
	dev    *Device
	name   string
	width  int
	height int
	mips   int
	format cascade.Format
	size   int

	state     atomic.Uint32
	destroyed atomic.Bool

	pix []cascade.Radiance
}

var _ cascade.Buffer = (*Texture)(nil)

// Name returns the debug name.
func (t *Texture) Name() string { return t.name }

// Width returns the width in texels.
func (t *Texture) Width() int { return t.width }

// Height returns the height in texels.
func (t *Texture) Height() int { return t.height }

// MipLevels returns the mip count. Only level 0 is stored.
func (t *Texture) MipLevels() int { return t.mips }

// Format returns the requested texel format.
func (t *Texture) Format() cascade.Format { return t.format }

// State returns the state of the last transition.
func (t *Texture) State() cascade.ResourceState {
	return cascade.ResourceState(t.state.Load())
}

// Destroy releases the texels and returns the budget to the device.
func (t *Texture) Destroy() {
	if !t.destroyed.CompareAndSwap(false, true) {
		return
	}
	t.pix = nil
	t.dev.release(t)
}

// Destroyed reports whether Destroy was called.
func (t *Texture) Destroyed() bool { return t.destroyed.Load() }

// Pix exposes the texels for tests and host-side tools.
func (t *Texture) Pix() []cascade.Radiance { return t.pix }

// At returns the texel at (x, y). Out-of-range coordinates read as
// cascade.NoRadiance.
func (t *Texture) At(x, y int) cascade.Radiance {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return cascade.NoRadiance
	}
	return t.pix[y*t.width+x]
}

// Set stores v at (x, y). Out-of-range coordinates are ignored.
func (t *Texture) Set(x, y int, v cascade.Radiance) {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return
	}
	t.pix[y*t.width+x] = v
}

func (t *Texture) fill(v cascade.Radiance) {
	for i := range t.pix {
		t.pix[i] = v
	}
}

func (t *Texture) String() string {
	return fmt.Sprintf("%s(%dx%d %s)", t.name, t.width, t.height, t.format)
}
