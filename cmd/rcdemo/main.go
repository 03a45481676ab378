// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command rcdemo renders a flatland scene with radiance cascades and writes
// the lit result as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/cascade"
	"github.com/gogpu/cascade/backend"
	_ "github.com/gogpu/cascade/backend/software"
	_ "github.com/gogpu/cascade/backend/wgpu"
	"github.com/gogpu/cascade/flatland"
)

type options struct {
	config   string
	backend  string
	width    int
	height   int
	scale    int
	exposure float64
	filter   string
	output   string
	verbose  bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "YAML config file (defaults built in)")
	flag.StringVar(&o.backend, "backend", "", "backend name (default: best available)")
	flag.IntVar(&o.width, "width", 256, "scene width in texels")
	flag.IntVar(&o.height, "height", 256, "scene height in texels")
	flag.IntVar(&o.scale, "scale", 1, "integer upscale of the written image")
	flag.Float64Var(&o.exposure, "exposure", 1, "exposure multiplier before tone mapping")
	flag.StringVar(&o.filter, "filter", "", "composite filter: nearest or linear (overrides config)")
	flag.StringVar(&o.output, "output", "rcdemo.png", "output file")
	flag.BoolVar(&o.verbose, "v", false, "verbose logging")
	flag.Parse()

	if o.verbose {
		cascade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(o); err != nil {
		log.Fatalf("rcdemo: %v", err)
	}
	log.Printf("Image saved to %s (%dx%d)\n", o.output, o.width*o.scale, o.height*o.scale)
}

func run(o options) error {
	cfg := cascade.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = cascade.LoadConfig(o.config); err != nil {
			return err
		}
	}
	if o.filter != "" {
		f, err := cascade.ParseFilter(o.filter)
		if err != nil {
			return err
		}
		cfg.Frame.Filter = f
	}

	dev, err := openDevice(o.backend)
	if err != nil {
		return err
	}
	defer dev.Close()
	log.Printf("Using %s backend", dev.Name())

	img, stats, err := render(dev, cfg, flatland.Demo(o.width, o.height), o.exposure)
	if err != nil {
		return err
	}
	log.Printf("Rendered %d levels in %d dispatches (%v)", stats.Levels, stats.Dispatches, stats.Total)

	return writePNG(o.output, upscale(img, o.scale))
}

func openDevice(name string) (cascade.Device, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Open(name)
}

// render runs one frame of s on dev and returns the tone mapped result with
// the scene's emitters drawn on top.
func render(dev cascade.Device, cfg cascade.Config, s *flatland.Scene, exposure float64) (*image.NRGBA, cascade.Stats, error) {
	m := cascade.NewManager(dev, cfg.ManagerOptions()...)
	if err := m.Init(cfg.Init); err != nil {
		return nil, cascade.Stats{}, err
	}
	defer m.Shutdown()

	scene, err := s.Upload(dev, "scene")
	if err != nil {
		return nil, cascade.Stats{}, err
	}
	defer scene.Destroy()

	output, err := dev.CreateBuffer(cascade.BufferDesc{
		Name:      "output",
		Width:     s.Width,
		Height:    s.Height,
		MipLevels: 1,
		Format:    cascade.FormatRGBA32Float,
	})
	if err != nil {
		return nil, cascade.Stats{}, err
	}
	defer output.Destroy()

	frame := cfg.Frame.FrameOptions()
	frame.Wait = true
	stats, err := cascade.NewPipeline(m).Render(dev.NewContext("rcdemo"), scene, output, frame)
	if err != nil {
		return nil, stats, err
	}

	lit, err := dev.ReadBuffer(output)
	if err != nil {
		return nil, stats, err
	}
	return compose(s.Width, s.Height, lit, s.Rasterize(), exposure), stats, nil
}

// compose tone maps the lit buffer and overlays occupied scene texels.
func compose(w, h int, lit, src []cascade.Radiance, exposure float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range lit {
		r := lit[i]
		if src[i].A > 0 {
			r = src[i]
		}
		img.SetNRGBA(i%w, i/w, color.NRGBA{
			R: toneMap(r.R, exposure),
			G: toneMap(r.G, exposure),
			B: toneMap(r.B, exposure),
			A: 0xff,
		})
	}
	return img
}

// toneMap applies exposure, Reinhard and sRGB-ish gamma to one channel.
func toneMap(v float32, exposure float64) uint8 {
	x := math.Max(float64(v)*exposure, 0)
	x /= 1 + x
	return uint8(math.Round(math.Pow(x, 1/2.2) * 255))
}

func upscale(img *image.NRGBA, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
