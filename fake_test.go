// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var errFakeOOM = errors.New("fake: out of memory")

// fakeDevice is a Device that only tracks buffer lifetimes.
type fakeDevice struct {
	created   int
	destroyed int
	waits     int
	live      map[*fakeBuffer]struct{}

	// failAt makes the n-th CreateBuffer call (1-based) fail. Zero disables.
	failAt int

	// onRead, if set, runs inside ReadBuffer.
	onRead func(Buffer)
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{live: make(map[*fakeBuffer]struct{})}
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) CreateBuffer(desc BufferDesc) (Buffer, error) {
	if d.failAt > 0 && d.created+1 == d.failAt {
		return nil, errFakeOOM
	}
	d.created++
	b := &fakeBuffer{dev: d, desc: desc}
	if b.desc.Format == 0 {
		b.desc.Format = FormatRGBA32Float
	}
	d.live[b] = struct{}{}
	return b, nil
}

func (d *fakeDevice) NewContext(label string) ComputeContext { return &recordingContext{} }

func (d *fakeDevice) WriteBuffer(Buffer, []Radiance) error { return nil }

func (d *fakeDevice) ReadBuffer(b Buffer) ([]Radiance, error) {
	if d.onRead != nil {
		d.onRead(b)
	}
	return make([]Radiance, b.Width()*b.Height()), nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waits++
	return nil
}

func (d *fakeDevice) Close() {}

type fakeBuffer struct {
	dev       *fakeDevice
	desc      BufferDesc
	state     ResourceState
	destroyed bool
}

func (b *fakeBuffer) Name() string         { return b.desc.Name }
func (b *fakeBuffer) Width() int           { return b.desc.Width }
func (b *fakeBuffer) Height() int          { return b.desc.Height }
func (b *fakeBuffer) MipLevels() int       { return b.desc.MipLevels }
func (b *fakeBuffer) Format() Format       { return b.desc.Format }
func (b *fakeBuffer) State() ResourceState { return b.state }

func (b *fakeBuffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.dev.destroyed++
	delete(b.dev.live, b)
}

// recordingContext logs every call as a short string.
type recordingContext struct {
	ops       []string
	finishErr error
}

func (c *recordingContext) logf(format string, args ...any) {
	c.ops = append(c.ops, fmt.Sprintf(format, args...))
}

func (c *recordingContext) Transition(b Buffer, s ResourceState) {
	if fb, ok := b.(*fakeBuffer); ok {
		fb.state = s
	}
	c.logf("transition %s %s", b.Name(), s)
}

func (c *recordingContext) Clear(b Buffer, v Radiance) { c.logf("clear %s", b.Name()) }
func (c *recordingContext) SetKernel(k Kernel)         { c.logf("kernel %s", k) }

func (c *recordingContext) SetParameters(g GlobalParameters, l LevelParameters) {
	c.logf("params level=%d far=%d", l.Level, l.FarProbeCountDim)
}

func (c *recordingContext) BindRead(slot int, b Buffer)  { c.logf("read %d %s", slot, b.Name()) }
func (c *recordingContext) BindWrite(slot int, b Buffer) { c.logf("write %d %s", slot, b.Name()) }

func (c *recordingContext) Dispatch(w, h, g uint32) { c.logf("dispatch %dx%d/%d", w, h, g) }

func (c *recordingContext) Finish(wait bool) error {
	c.logf("finish wait=%v", wait)
	return c.finishErr
}

// filter returns the recorded ops that start with prefix.
func (c *recordingContext) filter(prefix string) []string {
	var out []string
	for _, op := range c.ops {
		if strings.HasPrefix(op, prefix) {
			out = append(out, op)
		}
	}
	return out
}

// mustPanicPrecondition fails t unless fn panics with a *PreconditionError.
func mustPanicPrecondition(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic, got none")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value %T, want error", r)
		}
		var pe *PreconditionError
		if !errors.As(err, &pe) || !errors.Is(err, ErrPrecondition) {
			t.Fatalf("panic %v, want *PreconditionError", err)
		}
	}()
	fn()
}

// smallInit gives 3 levels with a 16x16 level 0 grid.
func smallInit() InitParams {
	return InitParams{RayLength0: 1, RaysPerProbe0: 4, MaxRayLength: 64, ProbeCountDim0: 16}
}
