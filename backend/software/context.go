// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"

	"github.com/gogpu/cascade"
)

// Context is the software cascade.ComputeContext. Every call takes effect
// immediately; a dispatch has finished when Dispatch returns.
//
// The context checks the contract the GPU backend relies on: bound buffers
// must be in the right state and belong to the device. Violations skip the
// dispatch and are reported by Finish.
//
// A Context is not safe for concurrent use.
type Context struct {
	dev    *Device
	label  string
	kernel cascade.Kernel
	hasKer bool

	globals cascade.GlobalParameters
	level   cascade.LevelParameters
	hasArgs bool

	reads  [2]*Texture
	writes [2]*Texture

	dispatches int
	err        error
	dropped    int
}

var _ cascade.ComputeContext = (*Context)(nil)

// Label returns the debug label.
func (c *Context) Label() string { return c.label }

// Dispatches returns the number of dispatches executed since the last
// Finish.
func (c *Context) Dispatches() int { return c.dispatches }

func (c *Context) fail(format string, args ...any) {
	if c.err != nil {
		c.dropped++
		return
	}
	c.err = fmt.Errorf("software: %s: "+format, append([]any{c.label}, args...)...)
}

// Transition records the new state. Host memory needs no barrier.
func (c *Context) Transition(b cascade.Buffer, s cascade.ResourceState) {
	t, err := c.dev.texture(b)
	if err != nil {
		c.fail("transition: %w", err)
		return
	}
	t.state.Store(uint32(s))
}

// Clear fills b with v.
func (c *Context) Clear(b cascade.Buffer, v cascade.Radiance) {
	t, err := c.dev.texture(b)
	if err != nil {
		c.fail("clear: %w", err)
		return
	}
	if t.State() != cascade.StateWritable {
		c.fail("clear %s: buffer is %s, want writable", t.name, t.State())
		return
	}
	t.fill(v)
}

// SetKernel selects the kernel for subsequent dispatches.
func (c *Context) SetKernel(k cascade.Kernel) { c.kernel, c.hasKer = k, true }

// SetParameters sets the parameter blocks for subsequent dispatches.
func (c *Context) SetParameters(g cascade.GlobalParameters, l cascade.LevelParameters) {
	c.globals = g
	c.level = l
	c.hasArgs = true
}

// BindRead binds b as an input.
func (c *Context) BindRead(slot int, b cascade.Buffer) {
	c.bind(&c.reads, slot, b, "read")
}

// BindWrite binds b as an output.
func (c *Context) BindWrite(slot int, b cascade.Buffer) {
	c.bind(&c.writes, slot, b, "write")
}

func (c *Context) bind(set *[2]*Texture, slot int, b cascade.Buffer, kind string) {
	if slot < 0 || slot >= len(set) {
		c.fail("bind %s: slot %d out of range", kind, slot)
		return
	}
	t, err := c.dev.texture(b)
	if err != nil {
		c.fail("bind %s slot %d: %w", kind, slot, err)
		return
	}
	set[slot] = t
}

// Dispatch runs the current kernel over a width x height grid. Each row
// band of groupSize rows is one job on the device pool.
func (c *Context) Dispatch(width, height, groupSize uint32) {
	if !c.hasKer || c.kernel >= cascade.KernelCount {
		c.fail("dispatch: no kernel set")
		return
	}
	if !c.hasArgs {
		c.fail("dispatch %s: parameters not set", c.kernel)
		return
	}
	in, out := c.reads[cascade.SlotInput], c.writes[cascade.SlotOutput]
	if in == nil || out == nil {
		c.fail("dispatch %s: input and output must be bound", c.kernel)
		return
	}
	if in.State() != cascade.StateReadable {
		c.fail("dispatch %s: input %s is %s, want readable", c.kernel, in.name, in.State())
		return
	}
	if out.State() != cascade.StateWritable {
		c.fail("dispatch %s: output %s is %s, want writable", c.kernel, out.name, out.State())
		return
	}
	if groupSize == 0 {
		groupSize = cascade.DefaultGroupSize
	}

	c.dev.begin()
	defer c.dev.end()

	k := kernelArgs{g: c.globals, l: c.level, in: in, out: out}
	fn := kernels[c.kernel]
	w, h := min(width, uint32(out.width)), min(height, uint32(out.height))
	bands := int((h + groupSize - 1) / groupSize)
	c.dev.pool.For(bands, func(band int) {
		y0 := uint32(band) * groupSize
		y1 := min(y0+groupSize, h)
		for y := y0; y < y1; y++ {
			for x := range w {
				fn(&k, x, y)
			}
		}
	})
	c.dispatches++
	slogger().Debug("software: dispatch",
		"kernel", c.kernel, "level", c.level.Level, "width", width, "height", height)
}

// Finish returns the first error recorded since the last Finish and resets
// the context. Work has already completed, so wait changes nothing.
func (c *Context) Finish(wait bool) error {
	err, dropped := c.err, c.dropped
	c.err, c.dropped, c.dispatches = nil, 0, 0
	c.reads, c.writes = [2]*Texture{}, [2]*Texture{}
	if err != nil && dropped > 0 {
		return fmt.Errorf("%w (and %d more errors)", err, dropped)
	}
	return err
}
