// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/gogpu/cascade"
)

//go:embed shaders/common.wgsl
var commonShaderSource string

//go:embed shaders/gather.wgsl
var gatherShaderSource string

//go:embed shaders/merge.wgsl
var mergeShaderSource string

//go:embed shaders/extract.wgsl
var extractShaderSource string

//go:embed shaders/resample.wgsl
var resampleShaderSource string

var kernelSources = [cascade.KernelCount]string{
	cascade.KernelGather:   gatherShaderSource,
	cascade.KernelMerge:    mergeShaderSource,
	cascade.KernelExtract:  extractShaderSource,
	cascade.KernelResample: resampleShaderSource,
}

// groupSizeToken is replaced by the workgroup edge length.
const groupSizeToken = "GROUP_SIZE"

// ShaderSource returns the complete WGSL for kernel k compiled for
// groupSize x groupSize workgroups.
func ShaderSource(k cascade.Kernel, groupSize uint32) string {
	if k >= cascade.KernelCount {
		return ""
	}
	src := commonShaderSource + "\n" + kernelSources[k]
	return strings.ReplaceAll(src, groupSizeToken, strconv.FormatUint(uint64(groupSize), 10)+"u")
}
