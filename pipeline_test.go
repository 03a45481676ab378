// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"errors"
	"slices"
	"testing"
)

func TestPipeline_StageOrder(t *testing.T) {
	dev := newFakeDevice()
	m := NewManager(dev)
	if err := m.Init(smallInit()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer m.Shutdown()
	scene, _ := dev.CreateBuffer(BufferDesc{Name: "scene", Width: 16, Height: 16, MipLevels: 1})
	out, _ := dev.CreateBuffer(BufferDesc{Name: "out", Width: 16, Height: 16, MipLevels: 1})

	ctx := &recordingContext{}
	stats, err := NewPipeline(m, WithGroupSize(4)).Render(ctx, scene, out, FrameOptions{Clear: true, Wait: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if stats.Levels != 3 || stats.Dispatches != 7 {
		t.Errorf("stats = %d levels, %d dispatches, want 3 and 7", stats.Levels, stats.Dispatches)
	}

	kernels := ctx.filter("kernel ")
	want := []string{"kernel gather", "kernel merge", "kernel extract", "kernel resample"}
	if !slices.Equal(kernels, want) {
		t.Errorf("kernels = %q, want %q", kernels, want)
	}
	if n := len(ctx.filter("clear ")); n != 4 {
		t.Errorf("clears = %d, want 4", n)
	}
	if first := ctx.ops[0]; first != "transition cascade_interval_0 writable" {
		t.Errorf("first op = %q, want the clear transition", first)
	}
	if last := ctx.ops[len(ctx.ops)-1]; last != "finish wait=true" {
		t.Errorf("last op = %q, want finish", last)
	}
	for _, op := range ctx.filter("dispatch") {
		if op[len(op)-2:] != "/4" {
			t.Errorf("%q does not use the configured group size", op)
		}
	}
}

func TestPipeline_NoClear(t *testing.T) {
	dev := newFakeDevice()
	m := NewManager(dev)
	if err := m.Init(smallInit()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer m.Shutdown()
	scene, _ := dev.CreateBuffer(BufferDesc{Name: "scene", Width: 16, Height: 16, MipLevels: 1})

	ctx := &recordingContext{}
	if _, err := NewPipeline(m).Render(ctx, scene, scene, FrameOptions{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if n := len(ctx.filter("clear ")); n != 0 {
		t.Errorf("clears = %d, want 0", n)
	}
}

func TestPipeline_RenderErrors(t *testing.T) {
	dev := newFakeDevice()
	scene, _ := dev.CreateBuffer(BufferDesc{Name: "scene", Width: 16, Height: 16, MipLevels: 1})
	errSubmit := errors.New("submit failed")

	tests := []struct {
		name    string
		setup   func(*Manager)
		ctx     ComputeContext
		scene   Buffer
		wantErr error
	}{
		{"not initialized", func(*Manager) {}, &recordingContext{}, scene, ErrNotInitialized},
		{"destroyed", func(m *Manager) { _ = m.Init(smallInit()); m.Shutdown() }, &recordingContext{}, scene, ErrDestroyed},
		{"nil scene", func(m *Manager) { _ = m.Init(smallInit()) }, &recordingContext{}, nil, ErrNilBuffer},
		{"finish fails", func(m *Manager) { _ = m.Init(smallInit()) }, &recordingContext{finishErr: errSubmit}, scene, errSubmit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(dev)
			tt.setup(m)
			_, err := NewPipeline(m).Render(tt.ctx, tt.scene, scene, FrameOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Render() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	m := NewManager(dev)
	if _, err := NewPipeline(m).Render(nil, scene, scene, FrameOptions{}); err == nil {
		t.Error("Render(nil ctx) succeeded, want error")
	}
	mustPanicPrecondition(t, func() { NewPipeline(nil) })
}
