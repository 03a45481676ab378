// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import "fmt"

// Radiance is one texel of a cascade interval, the radiance field or a scene
// source: RGB radiance plus A.
//
// In interval buffers A is the transmittance along the interval (1 when the
// interval hit nothing). In scene sources A is the occupancy of the texel
// (0 for empty space).
type Radiance struct {
	R, G, B, A float32
}

// NoRadiance is the clear value written to every buffer before a frame.
var NoRadiance = Radiance{}

// Format specifies the texel format of a buffer.
type Format uint32

// Buffer formats.
const (
	// FormatRGBA32Float stores four float32 channels per texel.
	FormatRGBA32Float Format = iota + 1

	// FormatRGBA16Float stores four float16 channels per texel. Backends
	// that cannot store half floats fall back to FormatRGBA32Float storage.
	FormatRGBA16Float
)

// BytesPerTexel returns the storage size of one texel.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatRGBA16Float:
		return 8
	default:
		return 16
	}
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA32Float:
		return "rgba32float"
	case FormatRGBA16Float:
		return "rgba16float"
	default:
		return fmt.Sprintf("Format(%d)", uint32(f))
	}
}

// ResourceState is the access state a buffer is in. A buffer must be in
// StateReadable to be bound with BindRead and in StateWritable to be bound
// with BindWrite or cleared.
type ResourceState uint8

const (
	// StateCommon is the state of a freshly created buffer.
	StateCommon ResourceState = iota

	// StateReadable makes the buffer visible as a shader input.
	StateReadable

	// StateWritable allows unordered writes from a kernel.
	StateWritable
)

// String returns the state name.
func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "common"
	case StateReadable:
		return "readable"
	case StateWritable:
		return "writable"
	default:
		return fmt.Sprintf("ResourceState(%d)", int(s))
	}
}

// BufferDesc describes a 2D buffer.
type BufferDesc struct {
	Name      string
	Width     int
	Height    int
	MipLevels int
	Format    Format
}

// Buffer is a 2D texel buffer owned by a Device.
//
// Buffers are created with Device.CreateBuffer and must be destroyed with
// Destroy. Destroying a buffer referenced by in-flight work is undefined;
// call Device.WaitIdle first.
type Buffer interface {
	Name() string
	Width() int
	Height() int
	MipLevels() int
	Format() Format

	// State returns the state recorded by the last transition.
	State() ResourceState

	// Destroy releases the buffer. Destroy is idempotent.
	Destroy()
}

// Device creates buffers and compute contexts.
//
// Implementations live in backend/software (CPU reference) and backend/wgpu
// (gogpu/wgpu HAL).
type Device interface {
	// Name identifies the backend, e.g. "software" or "wgpu".
	Name() string

	// CreateBuffer allocates a buffer. Allocation failures are returned,
	// never panicked.
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// NewContext returns a compute context recording onto this device.
	NewContext(label string) ComputeContext

	// WriteBuffer uploads width*height texels in row-major order.
	WriteBuffer(b Buffer, data []Radiance) error

	// ReadBuffer downloads the buffer contents in row-major order.
	// It waits for outstanding work on the buffer.
	ReadBuffer(b Buffer) ([]Radiance, error)

	// WaitIdle blocks until every submitted dispatch has completed.
	WaitIdle() error

	// Close releases the device. Buffers must be destroyed first.
	Close()
}

// Kernel selects the compute operation a ComputeContext dispatches.
type Kernel uint8

// Kernels.
const (
	KernelGather Kernel = iota
	KernelMerge
	KernelExtract
	KernelResample

	// KernelCount is the number of kernels.
	KernelCount
)

// String returns the kernel name.
func (k Kernel) String() string {
	switch k {
	case KernelGather:
		return "gather"
	case KernelMerge:
		return "merge"
	case KernelExtract:
		return "extract"
	case KernelResample:
		return "resample"
	default:
		return fmt.Sprintf("Kernel(%d)", int(k))
	}
}

// Filter selects the sampling policy of the composite resample.
type Filter uint32

const (
	// FilterNearest picks the closest field texel.
	FilterNearest Filter = iota

	// FilterLinear interpolates the four closest field texels.
	FilterLinear
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return fmt.Sprintf("Filter(%d)", uint32(f))
	}
}

// ParseFilter converts "nearest" or "linear" to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "nearest", "":
		return FilterNearest, nil
	case "linear", "bilinear":
		return FilterLinear, nil
	default:
		return FilterNearest, fmt.Errorf("cascade: unknown filter %q", s)
	}
}

// Binding slots shared by all kernels.
const (
	// SlotInput is the primary read binding (scene source, far level,
	// level 0 or radiance field).
	SlotInput = 0

	// SlotOutput is the write binding. The merge kernel also reads the
	// raw near level from it before overwriting it in place.
	SlotOutput = 1
)

// ComputeContext records dispatches onto a single logical compute stream.
//
// Usage per dispatch:
//  1. Transition inputs to StateReadable and the target to StateWritable
//  2. SetKernel and SetParameters
//  3. BindRead / BindWrite
//  4. Dispatch
//
// Finish submits everything recorded so far. Dispatch errors are collected
// and reported by Finish.
type ComputeContext interface {
	// Transition moves b into state s, inserting whatever barrier the
	// backend needs so that prior writes are visible to later readers.
	Transition(b Buffer, s ResourceState)

	// Clear fills b with v. b must be writable.
	Clear(b Buffer, v Radiance)

	// SetKernel selects the compute operation for subsequent dispatches.
	SetKernel(k Kernel)

	// SetParameters sets the parameter blocks for subsequent dispatches.
	SetParameters(g GlobalParameters, l LevelParameters)

	// BindRead binds b as a read-only input at slot.
	BindRead(slot int, b Buffer)

	// BindWrite binds b as the output at slot.
	BindWrite(slot int, b Buffer)

	// Dispatch runs the current kernel over a width x height grid in
	// groupSize x groupSize thread groups.
	Dispatch(width, height, groupSize uint32)

	// Finish submits recorded work. With wait set it blocks until the
	// work has completed.
	Finish(wait bool) error
}

// MarshalText implements encoding.TextMarshaler.
func (f Filter) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Filter) UnmarshalText(b []byte) error {
	v, err := ParseFilter(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
