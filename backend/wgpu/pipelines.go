// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cascade"
)

// Binding indices shared by every kernel.
const (
	bindingParams = 0
	bindingInput  = 1
	bindingOutput = 2
)

type pipelineKey struct {
	kernel    cascade.Kernel
	groupSize uint32
}

type kernelPipeline struct {
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

// createLayouts builds the bind group and pipeline layouts shared by all
// kernels: params uniform, read-only input, read-write output.
func (d *Device) createLayouts() error {
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "cascade_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: bindingParams, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: bindingInput, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: bindingOutput, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "cascade_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(bindLayout)
		d.bindLayout = nil
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return nil
}

// pipelineLocked returns the pipeline for k at groupSize, compiling it on
// first use.
func (d *Device) pipelineLocked(k cascade.Kernel, groupSize uint32) (*kernelPipeline, error) {
	key := pipelineKey{kernel: k, groupSize: groupSize}
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}

	label := fmt.Sprintf("cascade_%s_%d", k, groupSize)
	src := ShaderSource(k, groupSize)
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %s: %w", label, err)
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: d.pipeLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("wgpu: create compute pipeline %s: %w", label, err)
	}

	p := &kernelPipeline{module: module, pipeline: pipeline}
	d.pipelines[key] = p
	slogger().Debug("wgpu: pipeline created", "kernel", k.String(), "group_size", groupSize, "shader_bytes", len(src))
	return p, nil
}

func (d *Device) destroyPipelinesLocked() {
	for key, p := range d.pipelines {
		d.device.DestroyComputePipeline(p.pipeline)
		d.device.DestroyShaderModule(p.module)
		delete(d.pipelines, key)
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
}
