// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/cascade"
	"github.com/gogpu/cascade/backend"
	"github.com/gogpu/cascade/backend/software"
)

func newGPUDevice(t *testing.T) *Device {
	t.Helper()
	d, err := NewDevice()
	if err != nil {
		t.Skipf("Skipping: no GPU available: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(Name) {
		t.Fatalf("%q backend not registered", Name)
	}
}

func TestNewFromProvider_RejectsNonHALProvider(t *testing.T) {
	if _, err := NewFromProvider(nil); !errors.Is(err, ErrNotHALProvider) {
		t.Errorf("NewFromProvider(nil) error = %v, want ErrNotHALProvider", err)
	}
}

func TestDevice_WriteRead(t *testing.T) {
	d := newGPUDevice(t)
	b, err := d.CreateBuffer(cascade.BufferDesc{Name: "rw", Width: 3, Height: 2, MipLevels: 1})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	defer b.Destroy()

	in := make([]cascade.Radiance, 6)
	for i := range in {
		in[i] = cascade.Radiance{R: float32(i), A: 1}
	}
	if err := d.WriteBuffer(b, in); err != nil {
		t.Fatalf("WriteBuffer() error = %v", err)
	}
	out, err := d.ReadBuffer(b)
	if err != nil {
		t.Fatalf("ReadBuffer() error = %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("texel %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

// renderOn runs a small frame and returns the radiance field.
func renderOn(t *testing.T, dev cascade.Device) []cascade.Radiance {
	t.Helper()
	m := cascade.NewManager(dev)
	if err := m.Init(cascade.InitParams{RayLength0: 1, RaysPerProbe0: 4, MaxRayLength: 64, ProbeCountDim0: 16}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer m.Shutdown()

	scene, err := dev.CreateBuffer(cascade.BufferDesc{Name: "scene", Width: 16, Height: 16, MipLevels: 1})
	if err != nil {
		t.Fatalf("CreateBuffer(scene) error = %v", err)
	}
	defer scene.Destroy()
	texels := make([]cascade.Radiance, 16*16)
	for y := range 16 {
		texels[y*16+3] = cascade.Radiance{R: 1, G: 0.5, B: 0.25, A: 1}
	}
	if err := dev.WriteBuffer(scene, texels); err != nil {
		t.Fatalf("WriteBuffer(scene) error = %v", err)
	}
	output, err := dev.CreateBuffer(cascade.BufferDesc{Name: "output", Width: 32, Height: 32, MipLevels: 1})
	if err != nil {
		t.Fatalf("CreateBuffer(output) error = %v", err)
	}
	defer output.Destroy()

	_, err = cascade.NewPipeline(m).Render(dev.NewContext("frame"), scene, output,
		cascade.FrameOptions{Clear: true, Filter: cascade.FilterLinear, Wait: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	field, err := m.ReadRadianceField()
	if err != nil {
		t.Fatalf("ReadRadianceField() error = %v", err)
	}
	return field
}

func TestRender_MatchesSoftware(t *testing.T) {
	gpu := newGPUDevice(t)
	cpu := software.NewDevice()
	defer cpu.Close()

	got := renderOn(t, gpu)
	want := renderOn(t, cpu)
	for i := range want {
		dr := math.Abs(float64(got[i].R - want[i].R))
		da := math.Abs(float64(got[i].A - want[i].A))
		if dr > 1e-2 || da > 1e-2 {
			t.Errorf("probe %d: gpu %+v, software %+v", i, got[i], want[i])
		}
	}
}
