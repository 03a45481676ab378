// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import "math"

// Default scaling factors.
const (
	// DefaultProbeScalingFactor halves the probe grid per dimension at
	// every level.
	DefaultProbeScalingFactor = 2

	// DefaultRayScalingFactor quadruples the rays per probe at every level.
	DefaultRayScalingFactor = 4
)

// ScalingPolicy holds the growth factors between adjacent cascade levels.
//
// Going from level i to level i+1 the per-dimension probe count is divided
// by ProbeScalingFactor and the rays per probe are multiplied by
// RayScalingFactor. RayScalingFactor must be a perfect square so the extra
// rays can be laid out as a square block, keeping angular density isotropic.
type ScalingPolicy struct {
	// ProbeScalingFactor is the per-dimension probe count divisor. Must be >= 1.
	ProbeScalingFactor uint `yaml:"probe_scaling_factor"`

	// RayScalingFactor is the ray count multiplier. Must be a perfect
	// square greater than 1.
	RayScalingFactor uint `yaml:"ray_scaling_factor"`
}

// DefaultScalingPolicy returns the 2x probe / 4x ray policy.
func DefaultScalingPolicy() ScalingPolicy {
	return ScalingPolicy{
		ProbeScalingFactor: DefaultProbeScalingFactor,
		RayScalingFactor:   DefaultRayScalingFactor,
	}
}

// RayScalingRoot returns sqrt(RayScalingFactor), the per-axis growth of the
// ray block between adjacent levels.
func (p ScalingPolicy) RayScalingRoot() uint {
	return isqrt(p.RayScalingFactor)
}

// Validate panics with a *PreconditionError when the policy breaks its
// invariants.
func (p ScalingPolicy) Validate() {
	precondition(p.ProbeScalingFactor >= 1, "ScalingPolicy",
		"probe scaling factor must be >= 1, got %d", p.ProbeScalingFactor)
	precondition(p.RayScalingFactor > 1, "ScalingPolicy",
		"ray scaling factor must be > 1, got %d", p.RayScalingFactor)
	precondition(IsPerfectSquare(p.RayScalingFactor), "ScalingPolicy",
		"ray scaling factor must be a perfect square, got %d", p.RayScalingFactor)
}

// IsPerfectSquare reports whether n is the square of an integer.
func IsPerfectSquare(n uint) bool {
	r := isqrt(n)
	return r*r == n
}

// isqrt returns floor(sqrt(n)).
func isqrt(n uint) uint {
	r := uint(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// ipow returns base^exp using integer arithmetic.
func ipow(base, exp uint) uint {
	result := uint(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
