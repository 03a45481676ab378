// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config gathers everything needed to build a Manager and Pipeline from a
// file. Zero fields take the defaults of DefaultConfig.
//
// Example YAML:
//
//	scaling:
//	  probe_scaling_factor: 2
//	  ray_scaling_factor: 4
//	variant:
//	  mode: 2d
//	init:
//	  ray_length0: 4
//	  rays_per_probe0: 4
//	  max_ray_length: 1024
//	  probe_count_dim0: 128
//	frame:
//	  clear: true
//	  filter: linear
type Config struct {
	Scaling ScalingPolicy `yaml:"scaling"`
	Variant Variant       `yaml:"variant"`
	Init    InitParams    `yaml:"init"`
	Frame   FrameConfig   `yaml:"frame"`
}

// FrameConfig is the file form of FrameOptions.
type FrameConfig struct {
	Clear  bool   `yaml:"clear"`
	Filter Filter `yaml:"filter"`
	Wait   bool   `yaml:"wait"`
}

// FrameOptions converts the file form.
func (c FrameConfig) FrameOptions() FrameOptions {
	return FrameOptions(c)
}

// DefaultConfig returns a 2D configuration with 128x128 level 0 probes,
// 4 rays per probe and the default scaling policy.
func DefaultConfig() Config {
	return Config{
		Scaling: DefaultScalingPolicy(),
		Variant: Variant2D(),
		Init: InitParams{
			RayLength0:       4,
			RaysPerProbe0:    4,
			MaxRayLength:     1024,
			ProbeSpacing0:    1,
			ProbeCountDim0:   128,
			MaxCascadeLevels: DefaultMaxCascadeLevels,
		},
		Frame: FrameConfig{Clear: true, Filter: FilterLinear, Wait: true},
	}
}

// ParseConfig decodes YAML on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("cascade: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cascade: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate reports configuration errors as an error instead of the panic
// Init would raise, so that file input can be rejected gracefully.
func (c Config) Validate() error {
	var errs []error
	if c.Scaling.ProbeScalingFactor < 1 {
		errs = append(errs, fmt.Errorf("probe_scaling_factor must be >= 1"))
	}
	if c.Scaling.RayScalingFactor < 2 || !IsPerfectSquare(c.Scaling.RayScalingFactor) {
		errs = append(errs, fmt.Errorf("ray_scaling_factor must be a perfect square > 1, got %d", c.Scaling.RayScalingFactor))
	}
	p := c.Init.withDefaults()
	if p.RayLength0 <= 0 {
		errs = append(errs, fmt.Errorf("ray_length0 must be > 0"))
	}
	if p.MaxRayLength <= p.RayLength0 {
		errs = append(errs, fmt.Errorf("max_ray_length must exceed ray_length0"))
	}
	if !isPowerOf(p.RaysPerProbe0, 4) || p.RaysPerProbe0 < c.Variant.MinRaysPerProbe() {
		errs = append(errs, fmt.Errorf("rays_per_probe0 must be a power of four >= %d, got %d",
			c.Variant.MinRaysPerProbe(), p.RaysPerProbe0))
	}
	if p.ProbeCountDim0 < 1 {
		errs = append(errs, fmt.Errorf("probe_count_dim0 must be >= 1"))
	}
	if p.ProbeSpacing0 < 0 {
		errs = append(errs, fmt.Errorf("probe_spacing0 must be > 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("cascade: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ManagerOptions returns the options that apply c to a new Manager.
func (c Config) ManagerOptions() []ManagerOption {
	return []ManagerOption{WithScalingPolicy(c.Scaling), WithVariant(c.Variant)}
}
