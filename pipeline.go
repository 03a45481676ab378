// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"fmt"
	"time"
)

// FrameOptions controls a single Pipeline.Render call.
type FrameOptions struct {
	// Clear resets every cascade buffer to NoRadiance before gathering.
	Clear bool

	// Filter is the sampling policy of the final composite.
	Filter Filter

	// Wait blocks Render until the device has finished the frame.
	Wait bool
}

// Stats reports what a frame did and how long recording each stage took.
// With the software backend dispatches execute while recording, so the
// durations are execution times.
type Stats struct {
	Levels     int
	Dispatches int

	Clear     time.Duration
	Gather    time.Duration
	Merge     time.Duration
	Extract   time.Duration
	Composite time.Duration
	Submit    time.Duration
	Total     time.Duration
}

// Pipeline sequences Clear, Gather, Merge, Extract and the composite copy
// for one frame. It holds no state besides the Manager and its options.
//
// Usage:
//
//	m := cascade.NewManager(dev)
//	if err := m.Init(params); err != nil {
//	    return err
//	}
//	defer m.Shutdown()
//
//	p := cascade.NewPipeline(m)
//	ctx := dev.NewContext("frame")
//	stats, err := p.Render(ctx, scene, output, cascade.FrameOptions{Clear: true, Wait: true})
type Pipeline struct {
	manager    *Manager
	groupSize  uint32
	mergeOrder MergeOrder
}

// NewPipeline creates a pipeline driving m.
func NewPipeline(m *Manager, opts ...PipelineOption) *Pipeline {
	precondition(m != nil, "NewPipeline", "manager is required")
	p := &Pipeline{
		manager:   m,
		groupSize: DefaultGroupSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Manager returns the manager this pipeline drives.
func (p *Pipeline) Manager() *Manager { return p.manager }

// Render runs one frame: optional clear, gather from scene, descending
// merge, extract, and composite into output. The stage order is fixed.
//
// The manager's read lock is held for the whole frame so a concurrent Init
// cannot free buffers under it.
func (p *Pipeline) Render(ctx ComputeContext, scene, output Buffer, opts FrameOptions) (Stats, error) {
	var stats Stats
	if ctx == nil {
		return stats, fmt.Errorf("cascade: render: nil compute context")
	}
	if scene == nil || output == nil {
		return stats, fmt.Errorf("cascade: render: %w", ErrNilBuffer)
	}

	m := p.manager
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.state {
	case Uninitialized:
		return stats, fmt.Errorf("cascade: render: %w", ErrNotInitialized)
	case Destroyed:
		return stats, fmt.Errorf("cascade: render: %w", ErrDestroyed)
	}

	start := time.Now()
	f := m.frameLocked(scene.Width(), scene.Height())
	stats.Levels = f.Count()

	mark := time.Now()
	if opts.Clear {
		m.clearLocked(ctx)
	}
	stats.Clear = time.Since(mark)

	mark = time.Now()
	stats.Dispatches += Gather(ctx, f, scene, p.groupSize)
	stats.Gather = time.Since(mark)

	mark = time.Now()
	stats.Dispatches += Merge(ctx, f, p.mergeOrder, p.groupSize)
	stats.Merge = time.Since(mark)

	mark = time.Now()
	stats.Dispatches += Extract(ctx, f, p.groupSize)
	stats.Extract = time.Since(mark)

	mark = time.Now()
	stats.Dispatches += Composite(ctx, f, output, opts.Filter, p.groupSize)
	stats.Composite = time.Since(mark)

	mark = time.Now()
	err := ctx.Finish(opts.Wait)
	stats.Submit = time.Since(mark)
	stats.Total = time.Since(start)
	if err != nil {
		return stats, fmt.Errorf("cascade: render: %w", err)
	}

	Logger().Debug("cascade: frame rendered",
		"levels", stats.Levels,
		"dispatches", stats.Dispatches,
		"total", stats.Total)
	return stats, nil
}
