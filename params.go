// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"encoding/binary"
	"math"
)

// GlobalParameters is the per-generation parameter block shared by every
// kernel dispatch. It is a snapshot: it does not change until the Manager
// is re-initialized.
type GlobalParameters struct {
	ProbeScalingFactor uint32
	RayScalingFactor   uint32
	ProbeCountDim0     uint32
	RayCount0          uint32
	RayLength0         float32
	ProbeSpacing0      float32

	// SourceWidth and SourceHeight are the scene source resolution used by
	// the gather kernel to map probe rays onto source texels. Zero for the
	// 3D variant.
	SourceWidth  uint32
	SourceHeight uint32

	CascadeCount uint32

	// Flags carries the Variant option bits (FlagDepthAwareMerging, ...).
	Flags uint32

	Mode Mode
}

// WorldToSource returns the scale from world units to source texels along
// x and y. It is 1 when no source size is known.
func (g GlobalParameters) WorldToSource() (sx, sy float32) {
	extent := float32(g.ProbeCountDim0) * g.ProbeSpacing0
	if g.SourceWidth == 0 || g.SourceHeight == 0 || extent <= 0 {
		return 1, 1
	}
	return float32(g.SourceWidth) / extent, float32(g.SourceHeight) / extent
}

// LevelParameters is the per-dispatch parameter block.
type LevelParameters struct {
	Level          uint32
	ProbeCountDim  uint32
	RayCount       uint32
	RayDim         uint32
	TextureSide    uint32
	IntervalStart  float32
	IntervalLength float32
	ProbeSpacing   float32

	// Far level sizing, used by the merge kernel.
	FarProbeCountDim uint32
	FarRayDim        uint32
	FarTextureSide   uint32

	// Resample target, used by the composite kernel.
	OutputWidth  uint32
	OutputHeight uint32
	Filter       Filter

	// InputWidth and InputHeight are the size of the buffer bound at
	// SlotInput. Backends fill them in at dispatch time.
	InputWidth  uint32
	InputHeight uint32
}

// LevelParametersFor fills the sizing fields of a LevelParameters from l.
func LevelParametersFor(l Level) LevelParameters {
	return LevelParameters{
		Level:          uint32(l.Index),
		ProbeCountDim:  uint32(l.ProbeCountDim),
		RayCount:       uint32(l.RayCount),
		RayDim:         uint32(l.RayDim),
		TextureSide:    uint32(l.TextureSide),
		IntervalStart:  float32(l.IntervalStart),
		IntervalLength: float32(l.IntervalLength),
		ProbeSpacing:   float32(l.ProbeSpacing),
	}
}

// WithFar returns p with the far level sizing of far.
func (p LevelParameters) WithFar(far Level) LevelParameters {
	p.FarProbeCountDim = uint32(far.ProbeCountDim)
	p.FarRayDim = uint32(far.RayDim)
	p.FarTextureSide = uint32(far.TextureSide)
	return p
}

// ParamsSize is the byte size of the packed parameter block: 12 global
// words followed by 16 level words. It is a multiple of 16 as uniform
// buffers require.
const ParamsSize = (12 + 16) * 4

// PackParams serializes g and l into the little-endian uniform block read by
// the WGSL kernels (struct Params in backend/wgpu/shaders/common.wgsl).
func PackParams(g GlobalParameters, l LevelParameters) []byte {
	buf := make([]byte, ParamsSize)
	le := binary.LittleEndian
	words := [...]uint32{
		g.ProbeScalingFactor,
		g.RayScalingFactor,
		g.ProbeCountDim0,
		g.RayCount0,
		math.Float32bits(g.RayLength0),
		math.Float32bits(g.ProbeSpacing0),
		g.SourceWidth,
		g.SourceHeight,
		g.CascadeCount,
		g.Flags,
		uint32(g.Mode),
		0,

		l.Level,
		l.ProbeCountDim,
		l.RayCount,
		l.RayDim,
		l.TextureSide,
		math.Float32bits(l.IntervalStart),
		math.Float32bits(l.IntervalLength),
		math.Float32bits(l.ProbeSpacing),
		l.FarProbeCountDim,
		l.FarRayDim,
		l.FarTextureSide,
		l.OutputWidth,
		l.OutputHeight,
		uint32(l.Filter),
		l.InputWidth,
		l.InputHeight,
	}
	for i, w := range words {
		le.PutUint32(buf[i*4:], w)
	}
	return buf
}
