// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"errors"
	"math"
	"testing"
)

func TestManager_LongRangeSizing(t *testing.T) {
	dev := newFakeDevice()
	m := NewManager(dev)
	err := m.Init(InitParams{
		RayLength0:       20,
		RaysPerProbe0:    4,
		MaxRayLength:     20 * math.Pow(4, 8),
		ProbeCountDim0:   128,
		MaxCascadeLevels: 8,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer m.Shutdown()

	if got := m.GetCascadeCount(); got != 8 {
		t.Fatalf("GetCascadeCount() = %d, want 8", got)
	}
	for i := range uint(8) {
		if got, want := m.GetRaysPerProbe(i), 4*ipow(4, i); got != want {
			t.Errorf("GetRaysPerProbe(%d) = %d, want %d", i, got, want)
		}
		if got, want := m.GetProbeSpacing(i), math.Pow(2, float64(i)); got != want {
			t.Errorf("GetProbeSpacing(%d) = %v, want %v", i, got, want)
		}
		l := m.Level(i)
		if got, want := m.GetProbePixelSize(i), l.TextureSide/l.ProbeCountDim; got != want {
			t.Errorf("GetProbePixelSize(%d) = %d, want %d", i, got, want)
		}
	}
	if got := m.Level(7).ProbeCountDim; got != 1 {
		t.Errorf("last level probe dim = %d, want 1", got)
	}
	if got := len(dev.live); got != 9 {
		t.Errorf("live buffers = %d, want 9 (8 levels + field)", got)
	}
	field := m.GetRadianceField()
	if field.Width() != 128 || field.Height() != 128 {
		t.Errorf("field = %dx%d, want 128x128", field.Width(), field.Height())
	}
}

func TestManager_InitPreconditions(t *testing.T) {
	base := smallInit()
	tests := []struct {
		name    string
		variant Variant
		policy  ScalingPolicy
		mutate  func(*InitParams)
	}{
		{"rays not a power of four", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.RaysPerProbe0 = 8 }},
		{"zero rays", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.RaysPerProbe0 = 0 }},
		{"3d needs more than 8 rays", Variant3D(), DefaultScalingPolicy(), func(p *InitParams) { p.RaysPerProbe0 = 4 }},
		{"zero ray length", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.RayLength0 = 0 }},
		{"max below ray length", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.MaxRayLength = 0.5 }},
		{"no probes", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.ProbeCountDim0 = 0 }},
		{"negative spacing", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.ProbeSpacing0 = -1 }},
		{"ray scaling not square", Variant2D(), ScalingPolicy{ProbeScalingFactor: 2, RayScalingFactor: 3}, func(*InitParams) {}},
		{"zero probe scaling", Variant2D(), ScalingPolicy{ProbeScalingFactor: 0, RayScalingFactor: 4}, func(*InitParams) {}},
		{"probe grid too wide", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.ProbeCountDim0 = MaxTextureSide + 1 }},
		{"level 0 texture too wide", Variant2D(), DefaultScalingPolicy(), func(p *InitParams) { p.ProbeCountDim0 = MaxTextureSide }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			m := NewManager(dev, WithVariant(tt.variant), WithScalingPolicy(tt.policy))
			p := base
			tt.mutate(&p)
			mustPanicPrecondition(t, func() { _ = m.Init(p) })
			if dev.created != 0 {
				t.Errorf("created %d buffers before rejecting parameters", dev.created)
			}
			if m.State() != Uninitialized {
				t.Errorf("State() = %s, want uninitialized", m.State())
			}
		})
	}
}

func TestManager_FlatGridCapsLevelsBySize(t *testing.T) {
	m := NewManager(newFakeDevice(), WithScalingPolicy(ScalingPolicy{ProbeScalingFactor: 1, RayScalingFactor: 4}))
	err := m.Init(InitParams{
		RayLength0:       1,
		RaysPerProbe0:    4,
		MaxRayLength:     1e30,
		ProbeCountDim0:   16,
		MaxCascadeLevels: 64,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer m.Shutdown()

	levels := m.Levels()
	if len(levels) != 11 {
		t.Fatalf("GetCascadeCount() = %d, want 11", len(levels))
	}
	for i, l := range levels {
		if l.TextureSide == 0 || l.TextureSide > MaxTextureSide {
			t.Errorf("level %d side = %d, want (0, %d]", i, l.TextureSide, MaxTextureSide)
		}
		if i > 0 && l.RayCount <= levels[i-1].RayCount {
			t.Errorf("level %d rays = %d, not above level %d rays = %d", i, l.RayCount, i-1, levels[i-1].RayCount)
		}
	}
}

func TestManager_ReadHoldsLock(t *testing.T) {
	dev := newFakeDevice()
	m := NewManager(dev)
	if err := m.Init(smallInit()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer m.Shutdown()

	reads := 0
	dev.onRead = func(b Buffer) {
		reads++
		if m.mu.TryLock() {
			m.mu.Unlock()
			t.Errorf("read of %s ran without the manager lock", b.Name())
		}
		if b.(*fakeBuffer).destroyed {
			t.Errorf("read of destroyed buffer %s", b.Name())
		}
	}
	if _, err := m.ReadInterval(1); err != nil {
		t.Fatalf("ReadInterval() error = %v", err)
	}
	if _, err := m.ReadRadianceField(); err != nil {
		t.Fatalf("ReadRadianceField() error = %v", err)
	}
	if reads != 2 {
		t.Errorf("reads = %d, want 2", reads)
	}
	mustPanicPrecondition(t, func() { _, _ = m.ReadInterval(m.GetCascadeCount()) })
}

func TestManager_3DUsesOneLevelLess(t *testing.T) {
	p := InitParams{RayLength0: 1, RaysPerProbe0: 16, MaxRayLength: 64, ProbeCountDim0: 64}

	m2 := NewManager(newFakeDevice())
	if err := m2.Init(p); err != nil {
		t.Fatalf("Init(2d) error = %v", err)
	}
	m3 := NewManager(newFakeDevice(), WithVariant(Variant3D()))
	if err := m3.Init(p); err != nil {
		t.Fatalf("Init(3d) error = %v", err)
	}
	if got, want := m3.GetCascadeCount(), m2.GetCascadeCount()-1; got != want {
		t.Errorf("3D count = %d, want %d", got, want)
	}
	if g := m3.FillGlobalParameters(256, 256); g.SourceWidth != 0 || g.Mode != Mode3D {
		t.Errorf("3D globals = %+v, want no source size and mode 3d", g)
	}
}

func TestManager_AccessorPreconditions(t *testing.T) {
	m := NewManager(newFakeDevice())
	mustPanicPrecondition(t, func() { m.GetCascadeInterval(0) })
	mustPanicPrecondition(t, func() { m.GetRadianceField() })
	mustPanicPrecondition(t, func() { m.FillGlobalParameters(1, 1) })
	mustPanicPrecondition(t, func() { _ = m.Regenerate() })

	if err := m.Init(smallInit()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	n := m.GetCascadeCount()
	mustPanicPrecondition(t, func() { m.GetCascadeInterval(n) })
	mustPanicPrecondition(t, func() { m.GetRaysPerProbe(n) })
	mustPanicPrecondition(t, func() { m.Level(n) })

	m.Shutdown()
	mustPanicPrecondition(t, func() { _ = m.Init(smallInit()) })
	mustPanicPrecondition(t, func() { m.GetCascadeInterval(0) })
}

func TestManager_ReinitReplacesBuffers(t *testing.T) {
	dev := newFakeDevice()
	m := NewManager(dev)
	if err := m.Init(smallInit()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	first := m.GetCascadeCount()
	oldLevel0 := m.GetCascadeInterval(0).(*fakeBuffer)

	p := smallInit()
	p.MaxRayLength = 1024
	p.ProbeCountDim0 = 64
	if err := m.Init(p); err != nil {
		t.Fatalf("re-Init() error = %v", err)
	}
	second := m.GetCascadeCount()
	if second == first {
		t.Fatalf("count unchanged at %d after re-Init", second)
	}
	if !oldLevel0.destroyed {
		t.Error("old level 0 buffer not destroyed")
	}
	if dev.waits == 0 {
		t.Error("re-Init did not wait for the device")
	}
	if got := len(dev.live); got != int(second)+1 {
		t.Errorf("live buffers = %d, want %d", got, second+1)
	}
	if dev.destroyed != int(first)+1 {
		t.Errorf("destroyed = %d, want %d", dev.destroyed, first+1)
	}
	if got := m.Generation(); got != 2 {
		t.Errorf("Generation() = %d, want 2", got)
	}

	if err := m.Regenerate(); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if m.GetCascadeCount() != second || m.Params().ProbeCountDim0 != 64 {
		t.Error("Regenerate() did not reuse the last parameters")
	}

	m.Shutdown()
	m.Shutdown()
	if len(dev.live) != 0 {
		t.Errorf("live buffers after Shutdown = %d, want 0", len(dev.live))
	}
	if dev.created != dev.destroyed {
		t.Errorf("created %d, destroyed %d", dev.created, dev.destroyed)
	}
	if m.State() != Destroyed {
		t.Errorf("State() = %s, want destroyed", m.State())
	}
}

func TestManager_AllocationFailure(t *testing.T) {
	for _, failAt := range []int{1, 2, 4} {
		dev := newFakeDevice()
		dev.failAt = failAt
		m := NewManager(dev)
		err := m.Init(smallInit())
		if !errors.Is(err, errFakeOOM) {
			t.Fatalf("failAt=%d: Init() error = %v, want errFakeOOM", failAt, err)
		}
		if len(dev.live) != 0 {
			t.Errorf("failAt=%d: %d buffers leaked", failAt, len(dev.live))
		}
		if m.State() != Uninitialized || m.GetCascadeCount() != 0 {
			t.Errorf("failAt=%d: state %s with %d levels, want uninitialized with none",
				failAt, m.State(), m.GetCascadeCount())
		}
	}
}

func TestManager_MemoryUsage(t *testing.T) {
	m := NewManager(newFakeDevice())
	if got := m.MemoryUsage(); got != 0 {
		t.Errorf("MemoryUsage() before Init = %d, want 0", got)
	}
	if err := m.Init(smallInit()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	// Three 32x32 levels and a 16x16 field of 16-byte texels.
	if got, want := m.MemoryUsage(), 3*32*32*16+16*16*16; got != want {
		t.Errorf("MemoryUsage() = %d, want %d", got, want)
	}

	half := NewManager(newFakeDevice(), WithFormat(FormatRGBA16Float))
	if err := half.Init(smallInit()); err != nil {
		t.Fatalf("Init(rgba16) error = %v", err)
	}
	if got, want := half.MemoryUsage(), m.MemoryUsage()/2; got != want {
		t.Errorf("rgba16 MemoryUsage() = %d, want %d", got, want)
	}
}

func TestManager_FillGlobalParameters(t *testing.T) {
	v := Variant2D()
	v.DepthAwareMerging = true
	m := NewManager(newFakeDevice(), WithVariant(v))
	p := smallInit()
	p.ProbeSpacing0 = 2
	if err := m.Init(p); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	g := m.FillGlobalParameters(64, 32)
	want := GlobalParameters{
		ProbeScalingFactor: 2,
		RayScalingFactor:   4,
		ProbeCountDim0:     16,
		RayCount0:          4,
		RayLength0:         1,
		ProbeSpacing0:      2,
		SourceWidth:        64,
		SourceHeight:       32,
		CascadeCount:       3,
		Flags:              FlagDepthAwareMerging,
		Mode:               Mode2D,
	}
	if g != want {
		t.Errorf("FillGlobalParameters() = %+v, want %+v", g, want)
	}
	if sx, sy := g.WorldToSource(); sx != 2 || sy != 1 {
		t.Errorf("WorldToSource() = (%v, %v), want (2, 1)", sx, sy)
	}
}

func TestManager_ClearBuffers(t *testing.T) {
	m := NewManager(newFakeDevice())
	if err := m.Init(smallInit()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	ctx := &recordingContext{}
	m.ClearBuffers(ctx)

	want := []string{
		"transition cascade_interval_0 writable", "clear cascade_interval_0",
		"transition cascade_interval_1 writable", "clear cascade_interval_1",
		"transition cascade_interval_2 writable", "clear cascade_interval_2",
		"transition cascade_radiance_field writable", "clear cascade_radiance_field",
	}
	if len(ctx.ops) != len(want) {
		t.Fatalf("ops = %q, want %q", ctx.ops, want)
	}
	for i := range want {
		if ctx.ops[i] != want[i] {
			t.Errorf("op %d = %q, want %q", i, ctx.ops[i], want[i])
		}
	}
}

func TestManagerState_String(t *testing.T) {
	tests := map[ManagerState]string{
		Uninitialized:   "uninitialized",
		Initialized:     "initialized",
		Destroyed:       "destroyed",
		ManagerState(9): "ManagerState(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
