// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import "math"

// logEpsilon absorbs floating-point noise in log-base solves so that exact
// powers (log4(64) = 3) do not round up to the next integer.
const logEpsilon = 1e-9

// MaxTextureSide bounds the side of an interval texture so that texel
// indices (side * side) fit in 32 bits.
const MaxTextureSide = 1 << 15

// Level describes the sizing of one cascade level.
type Level struct {
	// Index is the level number, 0 being the nearest and densest.
	Index uint

	// ProbeCountDim is the number of probes along each grid axis.
	ProbeCountDim uint

	// ProbeCount is ProbeCountDim squared.
	ProbeCount uint

	// RayCount is the number of rays per probe.
	RayCount uint

	// RayDim is sqrt(RayCount), the side of the ray block.
	RayDim uint

	// IntervalStart is the distance at which this level's rays begin.
	IntervalStart float64

	// IntervalLength is the length of this level's rays.
	IntervalLength float64

	// TextureSide is the side of the square interval texture.
	TextureSide uint

	// ProbeSpacing is the distance between adjacent probes in world units.
	ProbeSpacing float64
}

// PixelCount returns the number of texels in the level texture.
func (l Level) PixelCount() uint { return l.TextureSide * l.TextureSide }

// IntervalEnd returns IntervalStart + IntervalLength.
func (l Level) IntervalEnd() float64 { return l.IntervalStart + l.IntervalLength }

// DeriveCascadeCount returns the number of levels needed to cover rays of
// maxRayLength when level 0 has rays of rayLength0 and every level grows
// the ray length by rayScalingFactor.
//
// It solves rayLength0 * rsf^k = maxRayLength for k, takes the interval
// start of level k and re-derives the count as ceil(log_rsf(start)). The
// 3D layout uses one level less. The result is at least 1.
//
// Degenerate input panics with a *PreconditionError.
func DeriveCascadeCount(rayLength0, maxRayLength float64, rayScalingFactor uint, mode Mode) uint {
	const op = "DeriveCascadeCount"
	precondition(rayLength0 > 0, op, "rayLength0 must be > 0, got %v", rayLength0)
	precondition(maxRayLength > rayLength0, op,
		"maxRayLength (%v) must exceed rayLength0 (%v)", maxRayLength, rayLength0)
	precondition(rayScalingFactor > 1, op, "rayScalingFactor must be > 1, got %d", rayScalingFactor)

	base := float64(rayScalingFactor)
	k := ceilLog(maxRayLength/rayLength0, base)
	if k < 0 {
		k = 0
	}
	finalStart := StartTAtLevel(rayLength0, rayScalingFactor, uint(k))

	n := 1.0
	if finalStart > 1 {
		n = ceilLog(finalStart, base)
	}
	if mode == Mode3D {
		n--
	}
	if n < 1 {
		n = 1
	}
	return uint(n)
}

// RayLengthAtLevel returns rayLength0 * rsf^i.
func RayLengthAtLevel(rayLength0 float64, rayScalingFactor, i uint) float64 {
	return rayLength0 * math.Pow(float64(rayScalingFactor), float64(i))
}

// StartTAtLevel returns the distance at which level i's interval begins:
// the sum of the lengths of levels 0..i-1, rayLength0 * (1 - rsf^i) / (1 - rsf).
// The level 0 result is always +0.
func StartTAtLevel(rayLength0 float64, rayScalingFactor, i uint) float64 {
	r := float64(rayScalingFactor)
	s := rayLength0 * (1 - math.Pow(r, float64(i))) / (1 - r)
	if s == 0 {
		// 0 / negative is -0.
		return 0
	}
	return s
}

// ProbeCountDimAtLevel returns floor(probeCountDim0 / psf^i).
func ProbeCountDimAtLevel(probeCountDim0, probeScalingFactor, i uint) uint {
	d := probeCountDim0
	for range i {
		if d == 0 {
			break
		}
		d /= probeScalingFactor
	}
	return d
}

// ProbeCountAtLevel returns floor(probeCountDim0 / psf^i)^2, the probe count
// of the square grid at level i.
func ProbeCountAtLevel(probeCountDim0, probeScalingFactor, i uint) uint {
	d := ProbeCountDimAtLevel(probeCountDim0, probeScalingFactor, i)
	return d * d
}

// RayCountAtLevel returns rayCount0 * rsf^i.
func RayCountAtLevel(rayCount0, rayScalingFactor, i uint) uint {
	return rayCount0 * ipow(rayScalingFactor, i)
}

// TextureSideAtLevel returns round(sqrt(probeCount * rayCount)).
func TextureSideAtLevel(probeCount, rayCount uint) uint {
	return uint(math.Round(math.Sqrt(float64(probeCount) * float64(rayCount))))
}

// ProbeLimitedCount returns the number of levels that still have probes:
// the index of the first level with a single probe per axis plus one, or
// the index of the first level with none. When the grid never shrinks
// (psf == 1) it returns limit.
func ProbeLimitedCount(probeCountDim0, probeScalingFactor, limit uint) uint {
	for i := range limit {
		switch ProbeCountDimAtLevel(probeCountDim0, probeScalingFactor, i) {
		case 0:
			return i
		case 1:
			return i + 1
		}
	}
	return limit
}

// SizeLimitedCount returns how many of the first limit levels have an
// interval texture no wider than MaxTextureSide. Ray counts stop growing
// before they would overflow, which matters when psf == 1 keeps the probe
// grid from shrinking.
func SizeLimitedCount(probeCountDim0, rayCount0 uint, policy ScalingPolicy, limit uint) uint {
	const maxRays = MaxTextureSide * MaxTextureSide
	rays := rayCount0
	for i := range limit {
		if i > 0 {
			if rays > maxRays/policy.RayScalingFactor {
				return i
			}
			rays *= policy.RayScalingFactor
		}
		dim := ProbeCountDimAtLevel(probeCountDim0, policy.ProbeScalingFactor, i)
		if TextureSideAtLevel(dim*dim, rays) > MaxTextureSide {
			return i
		}
	}
	return limit
}

// Levels builds the sizing table for count levels.
func Levels(policy ScalingPolicy, count, probeCountDim0, rayCount0 uint, rayLength0, probeSpacing0 float64) []Level {
	levels := make([]Level, count)
	for i := range count {
		dim := ProbeCountDimAtLevel(probeCountDim0, policy.ProbeScalingFactor, i)
		rays := RayCountAtLevel(rayCount0, policy.RayScalingFactor, i)
		levels[i] = Level{
			Index:          i,
			ProbeCountDim:  dim,
			ProbeCount:     dim * dim,
			RayCount:       rays,
			RayDim:         isqrt(rays),
			IntervalStart:  StartTAtLevel(rayLength0, policy.RayScalingFactor, i),
			IntervalLength: RayLengthAtLevel(rayLength0, policy.RayScalingFactor, i),
			TextureSide:    TextureSideAtLevel(dim*dim, rays),
			ProbeSpacing:   probeSpacing0 * math.Pow(float64(policy.ProbeScalingFactor), float64(i)),
		}
	}
	return levels
}

// ceilLog returns ceil(log_base(x)), treating values within logEpsilon of an
// integer as that integer.
func ceilLog(x, base float64) float64 {
	l := math.Log(x) / math.Log(base)
	if r := math.Round(l); math.Abs(l-r) < logEpsilon {
		return r
	}
	return math.Ceil(l)
}

// isPowerOf reports whether n is an exact integer power of base.
func isPowerOf(n, base uint) bool {
	if n == 0 {
		return false
	}
	for n%base == 0 {
		n /= base
	}
	return n == 1
}
