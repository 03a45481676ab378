// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

// ManagerOption configures a Manager during creation.
//
// Example:
//
//	m := cascade.NewManager(dev,
//	    cascade.WithVariant(cascade.Variant3D()),
//	    cascade.WithScalingPolicy(cascade.ScalingPolicy{ProbeScalingFactor: 2, RayScalingFactor: 4}),
//	)
type ManagerOption func(*managerOptions)

type managerOptions struct {
	policy  ScalingPolicy
	variant Variant
	format  Format
}

func defaultManagerOptions() managerOptions {
	return managerOptions{
		policy:  DefaultScalingPolicy(),
		variant: Variant2D(),
		format:  FormatRGBA32Float,
	}
}

// WithScalingPolicy sets the probe and ray scaling factors. The policy is
// validated on Init.
func WithScalingPolicy(p ScalingPolicy) ManagerOption {
	return func(o *managerOptions) {
		o.policy = p
	}
}

// WithVariant selects the 2D or 3D layout and its optional modes.
func WithVariant(v Variant) ManagerOption {
	return func(o *managerOptions) {
		o.variant = v
	}
}

// WithFormat sets the texel format of every cascade buffer.
func WithFormat(f Format) ManagerOption {
	return func(o *managerOptions) {
		if f != 0 {
			o.format = f
		}
	}
}

// MergeOrder selects the level order of the merge stage.
type MergeOrder uint8

const (
	// MergeDescending merges from the farthest level towards level 0.
	// This is the only order that produces correct results.
	MergeDescending MergeOrder = iota

	// MergeAscending merges from level 0 outwards, so every level reads
	// an unmerged far neighbor. Only useful to demonstrate the ordering
	// dependency.
	MergeAscending
)

// DefaultGroupSize is the thread group side used for every dispatch.
const DefaultGroupSize = 8

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithGroupSize sets the dispatch thread group side.
func WithGroupSize(n uint32) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.groupSize = n
		}
	}
}

// WithMergeOrder overrides the merge order. See MergeAscending.
func WithMergeOrder(o MergeOrder) PipelineOption {
	return func(p *Pipeline) {
		p.mergeOrder = o
	}
}
