// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/cascade"
)

// emptyInterval is the value of an interval that hit nothing: no radiance,
// full transmittance.
var emptyInterval = cascade.Radiance{A: 1}

type kernelArgs struct {
	g   cascade.GlobalParameters
	l   cascade.LevelParameters
	in  *Texture
	out *Texture
}

// kernels run once per grid cell.
var kernels = [cascade.KernelCount]func(k *kernelArgs, x, y uint32){
	cascade.KernelGather:   gather,
	cascade.KernelMerge:    merge,
	cascade.KernelExtract:  extract,
	cascade.KernelResample: resample,
}

// layout maps a level texel to its ray index and probe coordinates in the
// direction-first layout. ok is false for texels outside the used area.
func layout(probeDim, rayDim, x, y uint32) (ray, px, py uint32, ok bool) {
	if probeDim == 0 || x >= probeDim*rayDim || y >= probeDim*rayDim {
		return 0, 0, 0, false
	}
	return (y/probeDim)*rayDim + x/probeDim, x % probeDim, y % probeDim, true
}

// gather traces one ray of one probe across the level's interval.
func gather(k *kernelArgs, x, y uint32) {
	l := &k.l
	ray, px, py, ok := layout(l.ProbeCountDim, l.RayDim, x, y)
	if !ok {
		k.out.Set(int(x), int(y), emptyInterval)
		return
	}
	angle := 2 * math32.Pi * (float32(ray) + 0.5) / float32(l.RayCount)
	ox := (float32(px) + 0.5) * l.ProbeSpacing
	oy := (float32(py) + 0.5) * l.ProbeSpacing
	r := march(k, ox, oy, math32.Cos(angle), math32.Sin(angle),
		l.IntervalStart, l.IntervalStart+l.IntervalLength)
	k.out.Set(int(x), int(y), r)
}

// march walks the world-space segment origin+dir*[t0, t1) through the scene
// source one texel at a time and returns the first occupied texel.
func march(k *kernelArgs, ox, oy, dx, dy, t0, t1 float32) cascade.Radiance {
	sx, sy := k.g.WorldToSource()
	x0, y0 := ox*sx, oy*sy
	vx, vy := dx*sx, dy*sy

	t0, t1, ok := clipRay(x0, y0, vx, vy, float32(k.in.width), float32(k.in.height), t0, t1)
	if !ok {
		return emptyInterval
	}
	step := 1 / math32.Max(math32.Abs(vx), math32.Abs(vy))
	for t := t0; t < t1; t += step {
		s := k.in.At(int(math32.Floor(x0+vx*t)), int(math32.Floor(y0+vy*t)))
		if s.A > 0 {
			return cascade.Radiance{R: s.R, G: s.G, B: s.B, A: 0}
		}
	}
	return emptyInterval
}

// clipRay intersects the parameter range [t0, t1) of the ray o+v*t with the
// rectangle [0, w) x [0, h).
func clipRay(ox, oy, vx, vy, w, h, t0, t1 float32) (float32, float32, bool) {
	slabs := [2][3]float32{{ox, vx, w}, {oy, vy, h}}
	for _, s := range slabs {
		o, v, size := s[0], s[1], s[2]
		if v == 0 {
			if o < 0 || o >= size {
				return 0, 0, false
			}
			continue
		}
		a, b := -o/v, (size-o)/v
		if a > b {
			a, b = b, a
		}
		t0, t1 = max(t0, a), min(t1, b)
	}
	return t0, t1, t0 < t1
}

// merge folds the far level into one texel of the near level in place.
func merge(k *kernelArgs, x, y uint32) {
	l := &k.l
	ray, px, py, ok := layout(l.ProbeCountDim, l.RayDim, x, y)
	if !ok || l.FarProbeCountDim == 0 {
		return
	}
	near := k.out.At(int(x), int(y))
	if near.A == 0 {
		return
	}
	far := farRadiance(k, ray, px, py)
	k.out.Set(int(x), int(y), cascade.Radiance{
		R: near.R + near.A*far.R,
		G: near.G + near.A*far.G,
		B: near.B + near.A*far.B,
		A: near.A * far.A,
	})
}

// farRadiance interpolates the four far probes around near probe (px, py)
// for the directions covered by near ray ray.
func farRadiance(k *kernelArgs, ray, px, py uint32) cascade.Radiance {
	psf := float32(k.g.ProbeScalingFactor)
	fx := (float32(px)+0.5)/psf - 0.5
	fy := (float32(py)+0.5)/psf - 0.5
	ix, iy := math32.Floor(fx), math32.Floor(fy)
	wx, wy := fx-ix, fy-iy

	n := int(k.l.FarProbeCountDim)
	x0, x1 := clampIndex(int(ix), n), clampIndex(int(ix)+1, n)
	y0, y1 := clampIndex(int(iy), n), clampIndex(int(iy)+1, n)

	top := lerp(farProbe(k, ray, x0, y0), farProbe(k, ray, x1, y0), wx)
	bottom := lerp(farProbe(k, ray, x0, y1), farProbe(k, ray, x1, y1), wx)
	return lerp(top, bottom, wy)
}

// farProbe averages the far rays that subdivide near ray ray.
func farProbe(k *kernelArgs, ray, qx, qy uint32) cascade.Radiance {
	rsf := k.g.RayScalingFactor
	fpd, frd := k.l.FarProbeCountDim, k.l.FarRayDim
	var sum cascade.Radiance
	for j := range rsf {
		fr := ray*rsf + j
		r := k.in.At(int((fr%frd)*fpd+qx), int((fr/frd)*fpd+qy))
		sum = add(sum, r)
	}
	return scale(sum, 1/float32(rsf))
}

// extract averages the level 0 rays of one probe into the radiance field.
func extract(k *kernelArgs, x, y uint32) {
	l := &k.l
	pd, rd := l.ProbeCountDim, l.RayDim
	if x >= pd || y >= pd || l.RayCount == 0 {
		return
	}
	var sum cascade.Radiance
	for r := range l.RayCount {
		sum = add(sum, k.in.At(int((r%rd)*pd+x), int((r/rd)*pd+y)))
	}
	k.out.Set(int(x), int(y), scale(sum, 1/float32(l.RayCount)))
}

// resample writes one output texel from the radiance field. Values are
// copied as they are, so HDR radiance and alpha survive.
func resample(k *kernelArgs, x, y uint32) {
	ow, oh := k.l.OutputWidth, k.l.OutputHeight
	if ow == 0 || oh == 0 {
		ow, oh = uint32(k.out.width), uint32(k.out.height)
	}
	if x >= ow || y >= oh {
		return
	}
	iw, ih := k.in.width, k.in.height
	u := (float32(x) + 0.5) * float32(iw) / float32(ow)
	v := (float32(y) + 0.5) * float32(ih) / float32(oh)

	if k.l.Filter != cascade.FilterLinear {
		sx, sy := clampIndex(int(math32.Floor(u)), iw), clampIndex(int(math32.Floor(v)), ih)
		k.out.Set(int(x), int(y), k.in.At(int(sx), int(sy)))
		return
	}
	u, v = u-0.5, v-0.5
	bx, by := math32.Floor(u), math32.Floor(v)
	wx, wy := u-bx, v-by
	x0, x1 := int(clampIndex(int(bx), iw)), int(clampIndex(int(bx)+1, iw))
	y0, y1 := int(clampIndex(int(by), ih)), int(clampIndex(int(by)+1, ih))
	top := lerp(k.in.At(x0, y0), k.in.At(x1, y0), wx)
	bottom := lerp(k.in.At(x0, y1), k.in.At(x1, y1), wx)
	k.out.Set(int(x), int(y), lerp(top, bottom, wy))
}

func clampIndex(i, n int) uint32 {
	return uint32(min(max(i, 0), n-1))
}

func add(a, b cascade.Radiance) cascade.Radiance {
	return cascade.Radiance{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B, A: a.A + b.A}
}

func scale(a cascade.Radiance, s float32) cascade.Radiance {
	return cascade.Radiance{R: a.R * s, G: a.G * s, B: a.B * s, A: a.A * s}
}

func lerp(a, b cascade.Radiance, t float32) cascade.Radiance {
	return cascade.Radiance{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}
