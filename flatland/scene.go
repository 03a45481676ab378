// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package flatland

import (
	"fmt"
	"image"

	"github.com/gogpu/cascade"
)

// Color is linear RGB emission. Values above 1 are allowed.
type Color struct {
	R, G, B float32
}

// Element is a shape with the emission it paints.
type Element struct {
	Shape    Shape
	Emission Color
}

// Scene is an ordered list of elements on a Width x Height grid. Later
// elements paint over earlier ones.
type Scene struct {
	Width    int
	Height   int
	Elements []Element
}

// NewScene returns an empty scene.
func NewScene(width, height int) *Scene {
	return &Scene{Width: width, Height: height}
}

// AddEmitter appends a shape that emits c.
func (s *Scene) AddEmitter(shape Shape, c Color) *Scene {
	s.Elements = append(s.Elements, Element{Shape: shape, Emission: c})
	return s
}

// AddOccluder appends a shape that blocks light without emitting.
func (s *Scene) AddOccluder(shape Shape) *Scene {
	s.Elements = append(s.Elements, Element{Shape: shape})
	return s
}

// Rasterize samples every texel center against the elements and returns the
// texels in row-major order.
func (s *Scene) Rasterize() []cascade.Radiance {
	if s.Width <= 0 || s.Height <= 0 {
		return nil
	}
	pix := make([]cascade.Radiance, s.Width*s.Height)
	for y := 0; y < s.Height; y++ {
		cy := float32(y) + 0.5
		row := pix[y*s.Width : (y+1)*s.Width]
		for x := range row {
			cx := float32(x) + 0.5
			for i := len(s.Elements) - 1; i >= 0; i-- {
				e := s.Elements[i]
				if e.Shape.Distance(cx, cy) <= 0 {
					row[x] = cascade.Radiance{R: e.Emission.R, G: e.Emission.G, B: e.Emission.B, A: 1}
					break
				}
			}
		}
	}
	return pix
}

// Upload rasterizes the scene into a new buffer on dev.
func (s *Scene) Upload(dev cascade.Device, name string) (cascade.Buffer, error) {
	return upload(dev, name, s.Width, s.Height, s.Rasterize())
}

// FromImage converts img into scene texels: every pixel with non-zero alpha
// is occupied and emits its color scaled by intensity.
func FromImage(img image.Image, intensity float32) []cascade.Radiance {
	b := img.Bounds()
	pix := make([]cascade.Radiance, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			// RGBA is alpha-premultiplied.
			inv := intensity / float32(a)
			pix[(y-b.Min.Y)*b.Dx()+(x-b.Min.X)] = cascade.Radiance{
				R: float32(r) * inv,
				G: float32(g) * inv,
				B: float32(bl) * inv,
				A: 1,
			}
		}
	}
	return pix
}

// UploadImage converts img with FromImage and uploads it to dev.
func UploadImage(dev cascade.Device, name string, img image.Image, intensity float32) (cascade.Buffer, error) {
	b := img.Bounds()
	return upload(dev, name, b.Dx(), b.Dy(), FromImage(img, intensity))
}

func upload(dev cascade.Device, name string, w, h int, pix []cascade.Radiance) (cascade.Buffer, error) {
	buf, err := dev.CreateBuffer(cascade.BufferDesc{
		Name:      name,
		Width:     w,
		Height:    h,
		MipLevels: 1,
		Format:    cascade.FormatRGBA32Float,
	})
	if err != nil {
		return nil, fmt.Errorf("flatland: create %s: %w", name, err)
	}
	if err := dev.WriteBuffer(buf, pix); err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("flatland: upload %s: %w", name, err)
	}
	return buf, nil
}

// Demo returns the scene rendered by cmd/rcdemo: two lights of different
// color on either side of a wall with a gap, plus a few scattered occluders.
func Demo(width, height int) *Scene {
	w, h := float32(width), float32(height)
	s := NewScene(width, height)
	s.AddEmitter(Circle{X: w * 0.2, Y: h * 0.3, R: h * 0.06}, Color{R: 6, G: 3.5, B: 1.5})
	s.AddEmitter(Box{X: w * 0.78, Y: h * 0.62, W: w * 0.08, H: h * 0.08}, Color{R: 1, G: 2.5, B: 6})
	s.AddEmitter(Line{X0: w * 0.1, Y0: h * 0.9, X1: w * 0.4, Y1: h * 0.9, Width: 2}, Color{R: 0.5, G: 4, B: 1})
	s.AddOccluder(Box{X: w * 0.5, Y: 0, W: w * 0.03, H: h * 0.42})
	s.AddOccluder(Box{X: w * 0.5, Y: h * 0.55, W: w * 0.03, H: h * 0.45})
	s.AddOccluder(Circle{X: w * 0.3, Y: h * 0.6, R: h * 0.05})
	s.AddOccluder(Line{X0: w * 0.65, Y0: h * 0.2, X1: w * 0.85, Y1: h * 0.35, Width: 3})
	return s
}
