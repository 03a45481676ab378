// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu runs the cascade kernels on the GPU through the gogpu/wgpu
// hardware abstraction layer.
//
// Buffers are storage buffers of vec4<f32> texels. Each kernel is a WGSL
// compute shader (see shaders/) compiled once per workgroup size. Every
// dispatch records its own compute pass with a fresh uniform buffer holding
// cascade.PackParams; the pass boundary orders its writes before the next
// dispatch. Finish submits the recorded passes with a fence.
//
// The device either opens its own Vulkan adapter:
//
//	dev, err := wgpu.NewDevice()
//
// or shares one with a host application:
//
//	dev, err := wgpu.NewFromProvider(provider) // gpucontext.DeviceProvider
//
// Importing the package registers the "wgpu" backend. Build with the nogpu
// tag to leave it out.
package wgpu
