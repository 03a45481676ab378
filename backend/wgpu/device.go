// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/cascade"
	"github.com/gogpu/cascade/backend"
)

// Name is the backend name.
const Name = backend.WGPU

// fenceTimeout bounds every wait on the GPU.
const fenceTimeout = 5 * time.Second

func init() {
	backend.Register(Name, func() (cascade.Device, error) {
		return NewDevice()
	})
}

// Device implements cascade.Device on a hal.Device.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	external bool // shared device, not destroyed by Close

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[pipelineKey]*kernelPipeline

	inflight []*submission
	live     map[*Buffer]struct{}
	closed   bool
}

var _ cascade.Device = (*Device)(nil)

// NewDevice opens the first discrete or integrated Vulkan adapter, or the
// first adapter of any kind.
func NewDevice() (*Device, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	opened, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d := newDevice(opened.Device, opened.Queue, selected.Info.Name)
	d.instance = instance
	if err := d.createLayouts(); err != nil {
		d.device.Destroy()
		instance.Destroy()
		return nil, err
	}
	slogger().Info("wgpu: device opened", "adapter", d.adapter)
	return d, nil
}

// NewFromProvider shares the device of a host application. The provider
// must also expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue. Close leaves the shared device alive.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNotHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNotHALProvider)
	}

	d := newDevice(device, queue, "shared")
	d.external = true
	if err := d.createLayouts(); err != nil {
		return nil, err
	}
	slogger().Info("wgpu: using shared device")
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, adapter string) *Device {
	return &Device{
		device:    device,
		queue:     queue,
		adapter:   adapter,
		pipelines: make(map[pipelineKey]*kernelPipeline),
		live:      make(map[*Buffer]struct{}),
	}
}

// Name returns "wgpu".
func (d *Device) Name() string { return Name }

// Adapter returns the adapter name, or "shared" for provider devices.
func (d *Device) Adapter() string { return d.adapter }

// CreateBuffer allocates a storage buffer of Width*Height texels.
func (d *Device) CreateBuffer(desc cascade.BufferDesc) (cascade.Buffer, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("wgpu: create %q: %w: %dx%d", desc.Name, cascade.ErrBufferSize, desc.Width, desc.Height)
	}
	format := desc.Format
	if format == 0 {
		format = cascade.FormatRGBA32Float
	}
	size := uint64(desc.Width) * uint64(desc.Height) * texelSize

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("wgpu: create %q: %w", desc.Name, ErrClosed)
	}
	hb, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Name,
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %q (%d bytes): %w", desc.Name, size, err)
	}
	b := &Buffer{
		dev:    d,
		buf:    hb,
		name:   desc.Name,
		width:  desc.Width,
		height: desc.Height,
		mips:   max(desc.MipLevels, 1),
		format: format,
		size:   size,
	}
	d.live[b] = struct{}{}
	slogger().Debug("wgpu: buffer created", "name", desc.Name, "width", desc.Width, "height", desc.Height)
	return b, nil
}

func (d *Device) destroyBuffer(b *Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[b]; !ok {
		return
	}
	delete(d.live, b)
	d.device.DestroyBuffer(b.buf)
}

// NewContext returns a context recording onto this device's queue.
func (d *Device) NewContext(label string) cascade.ComputeContext {
	return &Context{dev: d, label: label}
}

// WriteBuffer uploads texels after all submitted work has finished.
func (d *Device) WriteBuffer(b cascade.Buffer, data []cascade.Radiance) error {
	buf, err := d.buffer(b)
	if err != nil {
		return fmt.Errorf("wgpu: write buffer: %w", err)
	}
	if len(data) != buf.width*buf.height {
		return fmt.Errorf("wgpu: write %s: %w: got %d texels, want %d",
			buf.name, cascade.ErrBufferSize, len(data), buf.width*buf.height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.waitIdleLocked(); err != nil {
		return err
	}
	d.queue.WriteBuffer(buf.buf, 0, encodeTexels(data))
	return nil
}

// ReadBuffer copies b into a staging buffer and reads it back.
func (d *Device) ReadBuffer(b cascade.Buffer) ([]cascade.Radiance, error) {
	buf, err := d.buffer(b)
	if err != nil {
		return nil, fmt.Errorf("wgpu: read buffer: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.waitIdleLocked(); err != nil {
		return nil, err
	}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: buf.name + "_staging",
		Size:  buf.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "cascade_readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("cascade_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(buf.buf, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: buf.size},
	})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}

	s := &submission{cmd: cmd}
	defer s.release(d.device)
	if err := d.submitLocked(s); err != nil {
		return nil, err
	}
	if err := d.waitLocked(s); err != nil {
		return nil, err
	}

	raw := make([]byte, buf.size)
	if err := d.queue.ReadBuffer(staging, 0, raw); err != nil {
		return nil, fmt.Errorf("wgpu: readback %s: %w", buf.name, err)
	}
	return decodeTexels(raw), nil
}

// WaitIdle waits for every submitted frame.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waitIdleLocked()
}

// Close waits for the GPU, releases pipelines and, unless the device is
// shared, the device and instance.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if err := d.waitIdleLocked(); err != nil {
		slogger().Warn("wgpu: wait idle on close", "err", err)
	}
	d.closed = true
	if n := len(d.live); n > 0 {
		slogger().Warn("wgpu: device closed with live buffers", "count", n)
	}
	d.destroyPipelinesLocked()
	if !d.external && d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	slogger().Info("wgpu: device closed")
}

func (d *Device) buffer(b cascade.Buffer) (*Buffer, error) {
	if b == nil {
		return nil, cascade.ErrNilBuffer
	}
	buf, ok := b.(*Buffer)
	if !ok || buf.dev != d {
		return nil, fmt.Errorf("%w: %s", cascade.ErrForeignBuffer, b.Name())
	}
	if buf.Destroyed() {
		return nil, fmt.Errorf("%s: %w", buf.name, cascade.ErrDestroyed)
	}
	return buf, nil
}

// submission is one submitted command buffer and the per-dispatch
// resources it references.
type submission struct {
	cmd        hal.CommandBuffer
	fence      hal.Fence
	bindGroups []hal.BindGroup
	uniforms   []hal.Buffer
}

func (s *submission) release(device hal.Device) {
	if s.fence != nil {
		device.DestroyFence(s.fence)
		s.fence = nil
	}
	if s.cmd != nil {
		device.FreeCommandBuffer(s.cmd)
		s.cmd = nil
	}
	for _, g := range s.bindGroups {
		device.DestroyBindGroup(g)
	}
	for _, u := range s.uniforms {
		device.DestroyBuffer(u)
	}
	s.bindGroups, s.uniforms = nil, nil
}

func (d *Device) submitLocked(s *submission) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	s.fence = fence
	if err := d.queue.Submit([]hal.CommandBuffer{s.cmd}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	return nil
}

func (d *Device) waitLocked(s *submission) error {
	ok, err := d.device.Wait(s.fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", ErrGPUTimeout, fenceTimeout)
	}
	return nil
}

func (d *Device) waitIdleLocked() error {
	var first error
	for _, s := range d.inflight {
		if err := d.waitLocked(s); err != nil && first == nil {
			first = err
		}
		s.release(d.device)
	}
	d.inflight = nil
	return first
}
