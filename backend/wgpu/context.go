// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cascade"
)

// Context records dispatches into a command encoder. Finish submits them as
// one command buffer.
//
// A Context is not safe for concurrent use.
type Context struct {
	dev   *Device
	label string

	kernel    cascade.Kernel
	hasKernel bool
	globals   cascade.GlobalParameters
	level     cascade.LevelParameters
	hasArgs   bool
	reads     [2]*Buffer
	writes    [2]*Buffer

	encoder hal.CommandEncoder
	pending *submission
	passes  int

	err     error
	dropped int
}

var _ cascade.ComputeContext = (*Context)(nil)

func (c *Context) fail(format string, args ...any) {
	if c.err != nil {
		c.dropped++
		return
	}
	c.err = fmt.Errorf("wgpu: %s: "+format, append([]any{c.label}, args...)...)
}

// Transition records the new state. Each dispatch runs in its own compute
// pass, and the pass boundary makes earlier storage writes visible.
func (c *Context) Transition(b cascade.Buffer, s cascade.ResourceState) {
	buf, err := c.dev.buffer(b)
	if err != nil {
		c.fail("transition: %w", err)
		return
	}
	buf.state.Store(uint32(s))
}

// Clear submits the work recorded so far, waits for it, then fills b
// through the queue.
func (c *Context) Clear(b cascade.Buffer, v cascade.Radiance) {
	buf, err := c.dev.buffer(b)
	if err != nil {
		c.fail("clear: %w", err)
		return
	}
	if buf.State() != cascade.StateWritable {
		c.fail("clear %s: buffer is %s, want writable", buf.name, buf.State())
		return
	}
	if c.encoder != nil {
		if err := c.submit(true); err != nil {
			c.fail("clear %s: %w", buf.name, err)
			return
		}
	}

	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.waitIdleLocked(); err != nil {
		c.fail("clear %s: %w", buf.name, err)
		return
	}
	d.queue.WriteBuffer(buf.buf, 0, fillTexels(v, buf.width*buf.height))
}

// SetKernel selects the kernel for subsequent dispatches.
func (c *Context) SetKernel(k cascade.Kernel) { c.kernel, c.hasKernel = k, true }

// SetParameters sets the parameter blocks for subsequent dispatches.
func (c *Context) SetParameters(g cascade.GlobalParameters, l cascade.LevelParameters) {
	c.globals, c.level, c.hasArgs = g, l, true
}

// BindRead binds b as the read-only input.
func (c *Context) BindRead(slot int, b cascade.Buffer) { c.bind(&c.reads, slot, b, "read") }

// BindWrite binds b as the read-write output.
func (c *Context) BindWrite(slot int, b cascade.Buffer) { c.bind(&c.writes, slot, b, "write") }

func (c *Context) bind(set *[2]*Buffer, slot int, b cascade.Buffer, kind string) {
	if slot < 0 || slot >= len(set) {
		c.fail("bind %s: slot %d out of range", kind, slot)
		return
	}
	buf, err := c.dev.buffer(b)
	if err != nil {
		c.fail("bind %s slot %d: %w", kind, slot, err)
		return
	}
	set[slot] = buf
}

// Dispatch records one compute pass of ceil(width/groupSize) x
// ceil(height/groupSize) workgroups.
func (c *Context) Dispatch(width, height, groupSize uint32) {
	if !c.hasKernel || c.kernel >= cascade.KernelCount {
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
	if width == 0 || height == 0 {
		return
	}

	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		c.fail("dispatch %s: %w", c.kernel, ErrClosed)
		return
	}
	p, err := d.pipelineLocked(c.kernel, groupSize)
	if err != nil {
		c.fail("dispatch %s: %w", c.kernel, err)
		return
	}
	if err := c.beginLocked(); err != nil {
		c.fail("dispatch %s: %w", c.kernel, err)
		return
	}

	l := c.level
	l.InputWidth, l.InputHeight = uint32(in.width), uint32(in.height)
	params := cascade.PackParams(c.globals, l)
	ub, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cascade_params",
		Size:  uint64(len(params)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		c.fail("dispatch %s: create uniform buffer: %w", c.kernel, err)
		return
	}
	c.pending.uniforms = append(c.pending.uniforms, ub)
	d.queue.WriteBuffer(ub, 0, params)

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("cascade_%s_bg", c.kernel),
		Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: bindingParams, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: uint64(len(params))}},
			{Binding: bindingInput, Resource: gputypes.BufferBinding{Buffer: in.buf.NativeHandle(), Offset: 0, Size: in.size}},
			{Binding: bindingOutput, Resource: gputypes.BufferBinding{Buffer: out.buf.NativeHandle(), Offset: 0, Size: out.size}},
		},
	})
	if err != nil {
		c.fail("dispatch %s: create bind group: %w", c.kernel, err)
		return
	}
	c.pending.bindGroups = append(c.pending.bindGroups, bg)

	gx, gy := (width+groupSize-1)/groupSize, (height+groupSize-1)/groupSize
	pass := c.encoder.BeginComputePass(&hal.ComputePassDescriptor{
		Label: fmt.Sprintf("cascade_%s_%d", c.kernel, c.level.Level),
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(gx, gy, 1)
	pass.End()
	c.passes++

	slogger().Debug("wgpu: dispatch recorded",
		"kernel", c.kernel.String(),
		"level", c.level.Level,
		"workgroups_x", gx,
		"workgroups_y", gy)
}

// beginLocked opens the command encoder on first use.
func (c *Context) beginLocked() error {
	if c.encoder != nil {
		return nil
	}
	encoder, err := c.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: c.label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(c.label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	c.encoder = encoder
	c.pending = &submission{}
	return nil
}

// submit ends encoding and submits the recorded passes. With wait it blocks
// until they complete; otherwise the device keeps the submission in flight
// until the next WaitIdle.
func (c *Context) submit(wait bool) error {
	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	encoder, s := c.encoder, c.pending
	c.encoder, c.pending, c.passes = nil, nil, 0

	cmd, err := encoder.EndEncoding()
	if err != nil {
		s.release(d.device)
		return fmt.Errorf("end encoding: %w", err)
	}
	s.cmd = cmd
	if err := d.submitLocked(s); err != nil {
		s.release(d.device)
		return err
	}
	if !wait {
		d.inflight = append(d.inflight, s)
		return nil
	}
	defer s.release(d.device)
	if err := d.waitLocked(s); err != nil {
		return err
	}
	return d.waitIdleLocked()
}

// discard drops recorded work after an error.
func (c *Context) discard() {
	if c.encoder == nil {
		return
	}
	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	c.encoder.DiscardEncoding()
	c.pending.release(d.device)
	c.encoder, c.pending, c.passes = nil, nil, 0
}

// Finish submits the recorded passes, or discards them and returns the
// first recorded error.
func (c *Context) Finish(wait bool) error {
	err, dropped := c.err, c.dropped
	c.err, c.dropped = nil, 0
	c.reads, c.writes = [2]*Buffer{}, [2]*Buffer{}

	if err != nil {
		c.discard()
		if dropped > 0 {
			return fmt.Errorf("%w (and %d more errors)", err, dropped)
		}
		return err
	}
	if c.encoder == nil {
		if wait {
			return c.dev.WaitIdle()
		}
		return nil
	}
	if err := c.submit(wait); err != nil {
		return fmt.Errorf("wgpu: %s: %w", c.label, err)
	}
	return nil
}
