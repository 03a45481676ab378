// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/cascade"
)

func TestEncodeTexels_Layout(t *testing.T) {
	b := encodeTexels([]cascade.Radiance{{R: 1, G: 2, B: 3, A: 0.5}})
	if len(b) != texelSize {
		t.Fatalf("len = %d, want %d", len(b), texelSize)
	}
	want := []float32{1, 2, 3, 0.5}
	for i, w := range want {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])); got != w {
			t.Errorf("channel %d = %v, want %v", i, got, w)
		}
	}
}

func TestDecodeTexels_InvertsEncode(t *testing.T) {
	in := []cascade.Radiance{{R: -1, A: 1}, {G: 1e6}, {B: 0.125, A: 0}}
	out := decodeTexels(encodeTexels(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("texel %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestFillTexels(t *testing.T) {
	v := cascade.Radiance{R: 0.25, A: 1}
	for i, r := range decodeTexels(fillTexels(v, 5)) {
		if r != v {
			t.Errorf("texel %d = %+v, want %+v", i, r, v)
		}
	}
}
