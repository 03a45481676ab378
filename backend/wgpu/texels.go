// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/cascade"
)

// texelSize is the storage size of one vec4<f32> texel. Every buffer format
// is stored at full precision.
const texelSize = 16

// encodeTexels packs texels into the little-endian vec4<f32> layout of the
// storage buffers.
func encodeTexels(data []cascade.Radiance) []byte {
	out := make([]byte, len(data)*texelSize)
	le := binary.LittleEndian
	for i, r := range data {
		o := out[i*texelSize:]
		le.PutUint32(o[0:], math.Float32bits(r.R))
		le.PutUint32(o[4:], math.Float32bits(r.G))
		le.PutUint32(o[8:], math.Float32bits(r.B))
		le.PutUint32(o[12:], math.Float32bits(r.A))
	}
	return out
}

// decodeTexels is the inverse of encodeTexels.
func decodeTexels(b []byte) []cascade.Radiance {
	out := make([]cascade.Radiance, len(b)/texelSize)
	le := binary.LittleEndian
	for i := range out {
		o := b[i*texelSize:]
		out[i] = cascade.Radiance{
			R: math.Float32frombits(le.Uint32(o[0:])),
			G: math.Float32frombits(le.Uint32(o[4:])),
			B: math.Float32frombits(le.Uint32(o[8:])),
			A: math.Float32frombits(le.Uint32(o[12:])),
		}
	}
	return out
}

// fillTexels returns n copies of v in storage layout.
func fillTexels(v cascade.Radiance, n int) []byte {
	one := encodeTexels([]cascade.Radiance{v})
	out := make([]byte, n*texelSize)
	for i := 0; i < len(out); i += texelSize {
		copy(out[i:], one)
	}
	return out
}
