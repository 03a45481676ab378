// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import "fmt"

// Mode selects between the flatland (2D) and volumetric (3D) cascade layouts.
type Mode uint8

const (
	// Mode2D places probes on a world-space grid with an explicit spacing
	// and gathers from a 2D scene radiance source.
	Mode2D Mode = iota

	// Mode3D places probes on a screen-aligned grid. The cascade count is
	// one level shorter than in 2D for the same ray range.
	Mode3D
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Mode2D:
		return "2d"
	case Mode3D:
		return "3d"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Variant flags (exported to kernels through GlobalParameters.Flags).
const (
	FlagDepthAwareMerging uint32 = 1 << iota
	FlagPreAveragedIntervals
)

// Variant selects the cascade layout and its optional merge/gather modes.
//
// DepthAwareMerging and PreAveragedIntervals are carried to the kernels as
// flag bits. The bundled kernels do not change behavior on them; they are
// hooks for backends that implement depth-weighted interpolation or
// pre-averaged interval storage.
type Variant struct {
	Mode                 Mode `yaml:"mode"`
	DepthAwareMerging    bool `yaml:"depth_aware_merging"`
	PreAveragedIntervals bool `yaml:"pre_averaged_intervals"`
}

// Variant2D returns the flatland variant.
func Variant2D() Variant { return Variant{Mode: Mode2D} }

// Variant3D returns the volumetric variant with both optional modes off.
func Variant3D() Variant { return Variant{Mode: Mode3D} }

// Flags packs the optional modes into the bit set uploaded to kernels.
func (v Variant) Flags() uint32 {
	var f uint32
	if v.DepthAwareMerging {
		f |= FlagDepthAwareMerging
	}
	if v.PreAveragedIntervals {
		f |= FlagPreAveragedIntervals
	}
	return f
}

// MinRaysPerProbe returns the smallest accepted base ray count. The flatland
// layout works from a single 2x2 ray block; the volumetric layout needs
// more than 8 rays to cover the sphere.
func (v Variant) MinRaysPerProbe() uint {
	if v.Mode == Mode3D {
		return 16
	}
	return 4
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler, accepting "2d" or "3d".
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "2d", "2D", "":
		*m = Mode2D
	case "3d", "3D":
		*m = Mode3D
	default:
		return fmt.Errorf("cascade: unknown mode %q", b)
	}
	return nil
}
