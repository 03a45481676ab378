// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/cascade"
	"github.com/gogpu/cascade/backend"
	"github.com/gogpu/cascade/internal/parallel"
)

// Name is the backend name.
const Name = backend.Software

// ErrOutOfMemory is returned by CreateBuffer when an allocation would exceed
// the memory limit set with WithMemoryLimit.
var ErrOutOfMemory = errors.New("software: out of memory")

func init() {
	backend.Register(Name, func() (cascade.Device, error) {
		return NewDevice(), nil
	})
}

// Option configures a Device.
type Option func(*Device)

// WithWorkers sets the number of kernel worker goroutines. Zero or a
// negative count uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Device) { d.workers = n }
}

// WithMemoryLimit caps the bytes of live buffers. Zero means unlimited.
func WithMemoryLimit(bytes int) Option {
	return func(d *Device) { d.limit = bytes }
}

// Device is the CPU reference implementation of cascade.Device.
//
// Dispatches execute while they are recorded, row bands in parallel on a
// worker pool, so WaitIdle only has to wait for contexts that are still
// recording on other goroutines.
type Device struct {
	workers int
	limit   int
	pool    *parallel.Pool

	mu sync.Mutex

	// running counts dispatches currently executing; idle is signalled
	// under mu when it drops to zero.
	running int
	idle    *sync.Cond

	live      map[*Texture]struct{}
	used      int
	created   int
	destroyed int
	waits     int
	closed    bool
}

var _ cascade.Device = (*Device)(nil)

// NewDevice creates a software device.
func NewDevice(opts ...Option) *Device {
	d := &Device{live: make(map[*Texture]struct{})}
	d.idle = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	d.pool = parallel.NewPool(d.workers)
	slogger().Debug("software: device created", "workers", d.pool.Workers(), "limit", d.limit)
	return d
}

// Name returns "software".
func (d *Device) Name() string { return Name }

// CreateBuffer allocates a texture.
func (d *Device) CreateBuffer(desc cascade.BufferDesc) (cascade.Buffer, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("software: create %q: %w: %dx%d", desc.Name, cascade.ErrBufferSize, desc.Width, desc.Height)
	}
	format := desc.Format
	if format == 0 {
		format = cascade.FormatRGBA32Float
	}
	size := desc.Width * desc.Height * format.BytesPerTexel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("software: create %q: device closed", desc.Name)
	}
	if d.limit > 0 && d.used+size > d.limit {
		return nil, fmt.Errorf("software: create %q (%d bytes, %d in use): %w", desc.Name, size, d.used, ErrOutOfMemory)
	}

	t := &Texture{
		dev:    d,
		name:   desc.Name,
		width:  desc.Width,
		height: desc.Height,
		mips:   max(desc.MipLevels, 1),
		format: format,
		size:   size,
		pix:    make([]cascade.Radiance, desc.Width*desc.Height),
	}
	d.live[t] = struct{}{}
	d.used += size
	d.created++
	return t, nil
}

func (d *Device) release(t *Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[t]; !ok {
		return
	}
	delete(d.live, t)
	d.used -= t.size
	d.destroyed++
}

// NewContext returns a context that executes on this device's pool.
func (d *Device) NewContext(label string) cascade.ComputeContext {
	return &Context{dev: d, label: label}
}

// WriteBuffer copies data into b.
func (d *Device) WriteBuffer(b cascade.Buffer, data []cascade.Radiance) error {
	t, err := d.texture(b)
	if err != nil {
		return fmt.Errorf("software: write buffer: %w", err)
	}
	if len(data) != len(t.pix) {
		return fmt.Errorf("software: write %s: %w: got %d texels, want %d", t.name, cascade.ErrBufferSize, len(data), len(t.pix))
	}
	copy(t.pix, data)
	return nil
}

// ReadBuffer returns a copy of the texels of b.
func (d *Device) ReadBuffer(b cascade.Buffer) ([]cascade.Radiance, error) {
	t, err := d.texture(b)
	if err != nil {
		return nil, fmt.Errorf("software: read buffer: %w", err)
	}
	d.mu.Lock()
	d.waitIdleLocked()
	d.mu.Unlock()
	out := make([]cascade.Radiance, len(t.pix))
	copy(out, t.pix)
	return out, nil
}

// WaitIdle waits for dispatches running on other goroutines.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdleLocked()
	d.waits++
	return nil
}

// begin marks a dispatch as running. Safe to call from any goroutine.
func (d *Device) begin() {
	d.mu.Lock()
	d.running++
	d.mu.Unlock()
}

// end marks a dispatch as finished and wakes idle waiters.
func (d *Device) end() {
	d.mu.Lock()
	d.running--
	if d.running == 0 {
		d.idle.Broadcast()
	}
	d.mu.Unlock()
}

func (d *Device) waitIdleLocked() {
	for d.running > 0 {
		d.idle.Wait()
	}
}

// Close stops the worker pool. Live buffers are reported, not freed.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	leaked := len(d.live)
	d.mu.Unlock()

	d.pool.Close()
	if leaked > 0 {
		slogger().Warn("software: device closed with live buffers", "count", leaked)
	}
}

// Stats is a snapshot of the device's allocation counters.
type Stats struct {
	LiveBuffers      int
	LiveBytes        int
	BuffersCreated   int
	BuffersDestroyed int
	IdleWaits        int
}

// Stats returns the allocation counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		LiveBuffers:      len(d.live),
		LiveBytes:        d.used,
		BuffersCreated:   d.created,
		BuffersDestroyed: d.destroyed,
		IdleWaits:        d.waits,
	}
}

// texture checks that b is a live texture of this device.
func (d *Device) texture(b cascade.Buffer) (*Texture, error) {
	if b == nil {
		return nil, cascade.ErrNilBuffer
	}
	t, ok := b.(*Texture)
	if !ok || t.dev != d {
		return nil, fmt.Errorf("%w: %s", cascade.ErrForeignBuffer, b.Name())
	}
	if t.Destroyed() {
		return nil, fmt.Errorf("%s: %w", t.name, cascade.ErrDestroyed)
	}
	return t, nil
}
