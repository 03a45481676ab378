// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cascade"
)

// Buffer is a storage buffer of vec4<f32> texels laid out row by row.
type Buffer struct {
	dev    *Device
	buf    hal.Buffer
	name   string
	width  int
	height int
	mips   int
	format cascade.Format
	size   uint64

	state     atomic.Uint32
	destroyed atomic.Bool
}

var _ cascade.Buffer = (*Buffer)(nil)

func (b *Buffer) Name() string           { return b.name }
func (b *Buffer) Width() int             { return b.width }
func (b *Buffer) Height() int            { return b.height }
func (b *Buffer) MipLevels() int         { return b.mips }
func (b *Buffer) Format() cascade.Format { return b.format }

// State returns the state of the last transition.
func (b *Buffer) State() cascade.ResourceState {
	return cascade.ResourceState(b.state.Load())
}

// Destroy releases the GPU buffer. The caller must make sure no submitted
// work still references it.
func (b *Buffer) Destroy() {
	if !b.destroyed.CompareAndSwap(false, true) {
		return
	}
	b.dev.destroyBuffer(b)
}

// Destroyed reports whether Destroy was called.
func (b *Buffer) Destroyed() bool { return b.destroyed.Load() }
