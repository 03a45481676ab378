// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/cascade"
	"github.com/gogpu/cascade/backend/software"
	"github.com/gogpu/cascade/flatland"
)

func TestToneMap(t *testing.T) {
	tests := []struct {
		v    float32
		want uint8
	}{
		{0, 0},
		{-3, 0},
		{1e9, 255},
	}
	for _, tt := range tests {
		if got := toneMap(tt.v, 1); got != tt.want {
			t.Errorf("toneMap(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
	if toneMap(0.5, 1) >= toneMap(0.5, 4) {
		t.Error("higher exposure did not brighten")
	}
}

func TestRender_LightsNeighborhood(t *testing.T) {
	dev := software.NewDevice()
	defer dev.Close()

	cfg := cascade.DefaultConfig()
	cfg.Init.ProbeCountDim0 = 32
	cfg.Init.MaxRayLength = 64

	s := flatland.NewScene(32, 32).
		AddEmitter(flatland.Circle{X: 8, Y: 16, R: 3}, flatland.Color{R: 4, G: 4, B: 4})
	img, stats, err := render(dev, cfg, s, 1)
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if stats.Levels == 0 {
		t.Fatal("no levels rendered")
	}
	if near := img.NRGBAAt(14, 16).R; near == 0 {
		t.Error("texel next to the light is black")
	}
	if s := dev.Stats(); s.LiveBuffers != 0 {
		t.Errorf("LiveBuffers = %d after render, want 0", s.LiveBuffers)
	}
}

func TestWritePNG_Upscaled(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	path := filepath.Join(t.TempDir(), "out.png")
	if err := writePNG(path, upscale(src, 2)); err != nil {
		t.Fatalf("writePNG() error = %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if cfg.Width != 6 || cfg.Height != 4 {
		t.Errorf("size = %dx%d, want 6x4", cfg.Width, cfg.Height)
	}
}
