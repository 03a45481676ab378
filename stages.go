// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

// Frame is a snapshot of a Manager's sizing and buffers, taken once per
// frame. The stage functions below are pure dispatch sequences over a Frame:
// they hold no state of their own.
type Frame struct {
	Globals   GlobalParameters
	Levels    []Level
	Intervals []Buffer
	Field     Buffer
}

// Count returns the number of cascade levels.
func (f Frame) Count() int { return len(f.Levels) }

// Gather dispatches the gather kernel once per level. Levels are
// independent, so the dispatches are issued back to back with no barrier
// between them; each writes every texel of its own level.
//
// scene is transitioned to StateReadable first. Returns the number of
// dispatches issued.
func Gather(ctx ComputeContext, f Frame, scene Buffer, groupSize uint32) int {
	ctx.Transition(scene, StateReadable)
	ctx.SetKernel(KernelGather)
	for i, l := range f.Levels {
		b := f.Intervals[i]
		ctx.Transition(b, StateWritable)
		ctx.SetParameters(f.Globals, LevelParametersFor(l))
		ctx.BindRead(SlotInput, scene)
		ctx.BindWrite(SlotOutput, b)
		ctx.Dispatch(uint32(l.TextureSide), uint32(l.TextureSide), groupSize)
	}
	return len(f.Levels)
}

// Merge folds every level into its nearer neighbor.
//
// With MergeDescending, k runs from Count()-2 down to 0 and level k reads
// level k+1 after k+1 has itself absorbed everything farther out, so the
// result telescopes into level 0. Before each iteration the far level is
// transitioned to StateReadable, which is the barrier making the previous
// iteration's writes visible. The last level is never merged.
//
// MergeAscending exists only to demonstrate that the order matters: every
// level then reads a raw, unmerged far neighbor.
func Merge(ctx ComputeContext, f Frame, order MergeOrder, groupSize uint32) int {
	n := len(f.Levels)
	if n < 2 {
		return 0
	}
	ctx.SetKernel(KernelMerge)
	mergeLevel := func(k int) {
		near, far := f.Levels[k], f.Levels[k+1]
		ctx.Transition(f.Intervals[k+1], StateReadable)
		ctx.Transition(f.Intervals[k], StateWritable)
		ctx.SetParameters(f.Globals, LevelParametersFor(near).WithFar(far))
		ctx.BindRead(SlotInput, f.Intervals[k+1])
		ctx.BindWrite(SlotOutput, f.Intervals[k])
		ctx.Dispatch(uint32(near.TextureSide), uint32(near.TextureSide), groupSize)
	}
	if order == MergeAscending {
		for k := 0; k <= n-2; k++ {
			mergeLevel(k)
		}
	} else {
		for k := n - 2; k >= 0; k-- {
			mergeLevel(k)
		}
	}
	return n - 1
}

// Extract reduces level 0 into the radiance field, one value per probe.
// It must run after the level 0 merge; the transition of level 0 to
// StateReadable is the barrier.
func Extract(ctx ComputeContext, f Frame, groupSize uint32) int {
	if len(f.Levels) == 0 {
		return 0
	}
	l0 := f.Levels[0]
	ctx.Transition(f.Intervals[0], StateReadable)
	ctx.Transition(f.Field, StateWritable)
	ctx.SetKernel(KernelExtract)
	ctx.SetParameters(f.Globals, LevelParametersFor(l0))
	ctx.BindRead(SlotInput, f.Intervals[0])
	ctx.BindWrite(SlotOutput, f.Field)
	dim := f.Globals.ProbeCountDim0
	ctx.Dispatch(dim, dim, groupSize)
	return 1
}

// Composite resamples the radiance field into output with the given filter.
func Composite(ctx ComputeContext, f Frame, output Buffer, filter Filter, groupSize uint32) int {
	ctx.Transition(f.Field, StateReadable)
	ctx.Transition(output, StateWritable)
	ctx.SetKernel(KernelResample)
	lp := LevelParametersFor(f.Levels[0])
	lp.OutputWidth = uint32(output.Width())
	lp.OutputHeight = uint32(output.Height())
	lp.Filter = filter
	ctx.SetParameters(f.Globals, lp)
	ctx.BindRead(SlotInput, f.Field)
	ctx.BindWrite(SlotOutput, output)
	ctx.Dispatch(lp.OutputWidth, lp.OutputHeight, groupSize)
	ctx.Transition(output, StateReadable)
	return 1
}
