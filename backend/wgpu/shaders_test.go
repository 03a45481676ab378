// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"

	"github.com/gogpu/cascade"
)

func TestShaderSource_SubstitutesGroupSize(t *testing.T) {
	for k := range cascade.KernelCount {
		src := ShaderSource(k, 16)
		if src == "" {
			t.Fatalf("%s: empty source", k)
		}
		if strings.Contains(src, groupSizeToken) {
			t.Errorf("%s: %s left in source", k, groupSizeToken)
		}
		if !strings.Contains(src, "@workgroup_size(16u, 16u, 1)") {
			t.Errorf("%s: workgroup size not applied", k)
		}
		if !strings.Contains(src, "struct Params") {
			t.Errorf("%s: common declarations missing", k)
		}
	}
	if got := ShaderSource(cascade.KernelCount, 8); got != "" {
		t.Errorf("ShaderSource(invalid) = %q, want empty", got)
	}
}

// The uniform struct must have exactly one field per packed word.
func TestShaderSource_ParamsMatchPackedLayout(t *testing.T) {
	start := strings.Index(commonShaderSource, "struct Params {")
	if start < 0 {
		t.Fatal("struct Params not found")
	}
	body := commonShaderSource[start:]
	body = body[:strings.Index(body, "}")]

	fields := 0
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ",") && strings.Contains(line, ":") {
			fields++
		}
	}
	if want := cascade.ParamsSize / 4; fields != want {
		t.Errorf("Params has %d fields, want %d", fields, want)
	}
}

func TestShaders_CompileWithNaga(t *testing.T) {
	for k := range cascade.KernelCount {
		t.Run(k.String(), func(t *testing.T) {
			spirv, err := naga.Compile(ShaderSource(k, cascade.DefaultGroupSize))
			if err != nil {
				msg := err.Error()
				if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
					t.Skipf("Skipping: naga feature not yet implemented: %v", err)
				}
				if strings.Contains(msg, "lowering error") {
					t.Skipf("Skipping: naga lowering limitation: %v", err)
				}
				t.Fatalf("compile %s: %v", k, err)
			}
			if len(spirv) < 4 {
				t.Fatal("SPIR-V output too short")
			}
			magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
			if magic != 0x07230203 {
				t.Errorf("SPIR-V magic = %#x, want 0x07230203", magic)
			}
		})
	}
}

// Identifiers must not collide with WGSL reserved words; drivers reject them.
func TestShaderSource_NoReservedIdentifiers(t *testing.T) {
	reserved := []string{"filter", "target", "sample", "texture", "handle", "active", "module", "group"}
	for k := range cascade.KernelCount {
		src := ShaderSource(k, cascade.DefaultGroupSize)
		for _, w := range reserved {
			for _, use := range []string{"." + w + " ", "." + w + ")", " " + w + ":", "let " + w + " ", "var " + w + " "} {
				if strings.Contains(src, use) {
					t.Errorf("%s: reserved word %q used as identifier (%q)", k, w, use)
				}
			}
		}
	}
}

func TestShaderSource_ResamplePreservesHDR(t *testing.T) {
	src := ShaderSource(cascade.KernelResample, cascade.DefaultGroupSize)
	if strings.Contains(src, "clamp(c.rgb") {
		t.Error("resample clamps radiance")
	}
	if !strings.Contains(src, "dst[id.y * ow + id.x] = c;") {
		t.Error("resample does not store the sampled value unchanged")
	}
}
