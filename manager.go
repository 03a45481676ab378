// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"fmt"
	"sync"
)

// DefaultMaxCascadeLevels caps the cascade count when InitParams leaves
// MaxCascadeLevels at zero.
const DefaultMaxCascadeLevels = 8

// InitParams are the base parameters a Manager derives its cascades from.
type InitParams struct {
	// RayLength0 is the length of the level 0 interval in world units.
	RayLength0 float64 `yaml:"ray_length0"`

	// RaysPerProbe0 is the level 0 ray count. Must be a power of four and
	// at least Variant.MinRaysPerProbe.
	RaysPerProbe0 uint `yaml:"rays_per_probe0"`

	// MaxRayLength is the distance the farthest level must reach.
	MaxRayLength float64 `yaml:"max_ray_length"`

	// ProbeSpacing0 is the level 0 probe spacing in world units. Zero
	// means 1. The 3D variant measures spacing in grid units.
	ProbeSpacing0 float64 `yaml:"probe_spacing0"`

	// ProbeCountDim0 is the number of level 0 probes per axis.
	ProbeCountDim0 uint `yaml:"probe_count_dim0"`

	// MaxCascadeLevels caps the level count. Zero means
	// DefaultMaxCascadeLevels.
	MaxCascadeLevels uint `yaml:"max_cascade_levels"`
}

func (p InitParams) withDefaults() InitParams {
	if p.ProbeSpacing0 == 0 {
		p.ProbeSpacing0 = 1
	}
	if p.MaxCascadeLevels == 0 {
		p.MaxCascadeLevels = DefaultMaxCascadeLevels
	}
	return p
}

// ManagerState is the lifecycle state of a Manager.
type ManagerState uint8

const (
	// Uninitialized is the state before the first successful Init.
	Uninitialized ManagerState = iota

	// Initialized means buffers are allocated and accessors are valid.
	Initialized

	// Destroyed is terminal; reached via Shutdown.
	Destroyed
)

// String returns the state name.
func (s ManagerState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("ManagerState(%d)", int(s))
	}
}

// Manager sizes the cascade hierarchy and owns its buffers.
//
// A Manager is created explicitly with NewManager and handed to a Pipeline;
// there is no global instance. Init may be called again to resize; it
// waits for the device to go idle before releasing the previous buffers.
//
// Accessors that take a level index panic on an out-of-range index or when
// called before Init.
//
// Manager is safe for concurrent use: Init and Shutdown take the write lock,
// a Pipeline frame holds the read lock for its whole duration.
type Manager struct {
	mu sync.RWMutex

	device  Device
	policy  ScalingPolicy
	variant Variant
	format  Format

	params InitParams
	levels []Level
	store  store
	state  ManagerState

	// generation counts successful Init calls.
	generation uint64
}

// NewManager creates an uninitialized Manager that allocates from dev.
func NewManager(dev Device, opts ...ManagerOption) *Manager {
	precondition(dev != nil, "NewManager", "device is required")
	o := defaultManagerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{
		device:  dev,
		policy:  o.policy,
		variant: o.variant,
		format:  o.format,
	}
}

// Init derives the cascade count and per-level sizes from p and
// (re)allocates every buffer.
//
// Invalid parameters panic with a *PreconditionError. Buffer allocation
// failures are returned; the Manager is then left Uninitialized with no
// buffers.
func (m *Manager) Init(p InitParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(p)
}

// Regenerate re-runs Init with the last parameters, e.g. after the device
// was reset or the source resolution changed.
func (m *Manager) Regenerate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	precondition(m.generation > 0, "Regenerate", "Init has never succeeded")
	return m.initLocked(m.params)
}

func (m *Manager) initLocked(p InitParams) error {
	const op = "Init"
	precondition(m.state != Destroyed, op, "manager has been shut down")

	p = p.withDefaults()
	m.policy.Validate()
	precondition(p.RayLength0 > 0, op, "ray length must be > 0, got %v", p.RayLength0)
	precondition(p.MaxRayLength > p.RayLength0, op,
		"max ray length (%v) must exceed ray length (%v)", p.MaxRayLength, p.RayLength0)
	precondition(isPowerOf(p.RaysPerProbe0, 4), op,
		"rays per probe must be a power of four, got %d", p.RaysPerProbe0)
	precondition(p.RaysPerProbe0 >= m.variant.MinRaysPerProbe(), op,
		"%s variant needs at least %d rays per probe, got %d",
		m.variant.Mode, m.variant.MinRaysPerProbe(), p.RaysPerProbe0)
	precondition(p.ProbeCountDim0 >= 1, op, "probe count must be >= 1")
	precondition(p.ProbeCountDim0 <= MaxTextureSide, op,
		"probe count %d exceeds %d per axis", p.ProbeCountDim0, MaxTextureSide)
	precondition(p.RaysPerProbe0 <= MaxTextureSide*MaxTextureSide, op,
		"rays per probe %d exceeds %d", p.RaysPerProbe0, MaxTextureSide*MaxTextureSide)
	precondition(p.ProbeSpacing0 > 0, op, "probe spacing must be > 0, got %v", p.ProbeSpacing0)

	count := DeriveCascadeCount(p.RayLength0, p.MaxRayLength, m.policy.RayScalingFactor, m.variant.Mode)
	derived := count
	count = min(count, p.MaxCascadeLevels, ProbeLimitedCount(p.ProbeCountDim0, m.policy.ProbeScalingFactor, p.MaxCascadeLevels))
	count = min(count, SizeLimitedCount(p.ProbeCountDim0, p.RaysPerProbe0, m.policy, count))
	precondition(count >= 1, op, "level 0 texture is wider than %d texels", MaxTextureSide)

	if m.state == Initialized {
		if err := m.device.WaitIdle(); err != nil {
			return fmt.Errorf("cascade: wait for device idle before resize: %w", err)
		}
		m.store.destroy()
		m.levels = nil
		m.state = Uninitialized
	}

	levels := Levels(m.policy, count, p.ProbeCountDim0, p.RaysPerProbe0, p.RayLength0, p.ProbeSpacing0)
	if err := m.store.create(m.device, levels, p.ProbeCountDim0, m.format); err != nil {
		return err
	}

	m.params = p
	m.levels = levels
	m.state = Initialized
	m.generation++

	Logger().Info("cascade: initialized",
		"variant", m.variant.Mode.String(),
		"levels", count,
		"derived_levels", derived,
		"probes0", p.ProbeCountDim0,
		"rays0", p.RaysPerProbe0,
		"bytes", m.store.bytes())
	for _, l := range levels {
		Logger().Debug("cascade: level",
			"index", l.Index,
			"probes", l.ProbeCountDim,
			"rays", l.RayCount,
			"side", l.TextureSide,
			"start", l.IntervalStart,
			"length", l.IntervalLength)
	}
	return nil
}

// Shutdown waits for the device to go idle and destroys every buffer. The
// Manager cannot be used afterwards. Shutdown is idempotent.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Destroyed {
		return
	}
	if m.state == Initialized {
		if err := m.device.WaitIdle(); err != nil {
			Logger().Warn("cascade: wait idle on shutdown", "err", err)
		}
	}
	m.store.destroy()
	m.levels = nil
	m.state = Destroyed
	Logger().Info("cascade: shut down")
}

// requireInitLocked panics unless the manager holds buffers.
func (m *Manager) requireInitLocked(op string) {
	precondition(m.state == Initialized, op, "manager is %s", m.state)
}

func (m *Manager) checkLevelLocked(op string, i uint) {
	m.requireInitLocked(op)
	precondition(i < uint(len(m.levels)), op, "level %d out of range [0, %d)", i, len(m.levels))
}

// State returns the lifecycle state.
func (m *Manager) State() ManagerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Device returns the device the manager allocates from.
func (m *Manager) Device() Device { return m.device }

// Variant returns the layout variant.
func (m *Manager) Variant() Variant { return m.variant }

// ScalingPolicy returns the scaling factors.
func (m *Manager) ScalingPolicy() ScalingPolicy { return m.policy }

// Params returns the parameters of the last successful Init, with defaults
// applied.
func (m *Manager) Params() InitParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params
}

// Generation returns the number of successful Init calls.
func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// GetCascadeCount returns the number of levels, 0 before Init.
func (m *Manager) GetCascadeCount() uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint(len(m.levels))
}

// Level returns the sizing of level i.
func (m *Manager) Level(i uint) Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.checkLevelLocked("Level", i)
	return m.levels[i]
}

// Levels returns a copy of the sizing table.
func (m *Manager) Levels() []Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Level(nil), m.levels...)
}

// GetCascadeInterval returns the buffer of level i.
func (m *Manager) GetCascadeInterval(i uint) Buffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.checkLevelLocked("GetCascadeInterval", i)
	return m.store.intervals[i]
}

// GetRadianceField returns the merged ProbeCountDim0 x ProbeCountDim0 field.
func (m *Manager) GetRadianceField() Buffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.requireInitLocked("GetRadianceField")
	return m.store.field
}

// GetRaysPerProbe returns the ray count of level i.
func (m *Manager) GetRaysPerProbe(i uint) uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.checkLevelLocked("GetRaysPerProbe", i)
	return m.levels[i].RayCount
}

// GetProbeSpacing returns probeSpacing0 * psf^i.
func (m *Manager) GetProbeSpacing(i uint) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.checkLevelLocked("GetProbeSpacing", i)
	return m.levels[i].ProbeSpacing
}

// GetProbePixelSize returns TextureSide / ProbeCountDim of level i, the
// per-axis size in texels of one probe's ray block.
func (m *Manager) GetProbePixelSize(i uint) uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.checkLevelLocked("GetProbePixelSize", i)
	l := m.levels[i]
	if l.ProbeCountDim == 0 {
		return 0
	}
	return l.TextureSide / l.ProbeCountDim
}

// FillGlobalParameters returns the parameter block of the current
// generation. sourceWidth and sourceHeight are the scene source resolution;
// the 3D variant ignores them.
func (m *Manager) FillGlobalParameters(sourceWidth, sourceHeight int) GlobalParameters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.requireInitLocked("FillGlobalParameters")
	return m.globalsLocked(sourceWidth, sourceHeight)
}

func (m *Manager) globalsLocked(sourceWidth, sourceHeight int) GlobalParameters {
	g := GlobalParameters{
		ProbeScalingFactor: uint32(m.policy.ProbeScalingFactor),
		RayScalingFactor:   uint32(m.policy.RayScalingFactor),
		ProbeCountDim0:     uint32(m.params.ProbeCountDim0),
		RayCount0:          uint32(m.params.RaysPerProbe0),
		RayLength0:         float32(m.params.RayLength0),
		ProbeSpacing0:      float32(m.params.ProbeSpacing0),
		CascadeCount:       uint32(len(m.levels)),
		Flags:              m.variant.Flags(),
		Mode:               m.variant.Mode,
	}
	if m.variant.Mode == Mode2D && sourceWidth > 0 && sourceHeight > 0 {
		g.SourceWidth = uint32(sourceWidth)
		g.SourceHeight = uint32(sourceHeight)
	}
	return g
}

// ClearBuffers transitions every level buffer and the radiance field to
// StateWritable and clears them to NoRadiance.
func (m *Manager) ClearBuffers(ctx ComputeContext) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.requireInitLocked("ClearBuffers")
	m.clearLocked(ctx)
}

func (m *Manager) clearLocked(ctx ComputeContext) {
	for _, b := range m.store.all() {
		ctx.Transition(b, StateWritable)
		ctx.Clear(b, NoRadiance)
	}
}

// MemoryUsage returns the number of bytes held by the level buffers and
// the radiance field.
func (m *Manager) MemoryUsage() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.bytes()
}

// Frame snapshots everything the stages need for one frame.
func (m *Manager) Frame(sourceWidth, sourceHeight int) Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.requireInitLocked("Frame")
	return m.frameLocked(sourceWidth, sourceHeight)
}

func (m *Manager) frameLocked(sourceWidth, sourceHeight int) Frame {
	return Frame{
		Globals:   m.globalsLocked(sourceWidth, sourceHeight),
		Levels:    append([]Level(nil), m.levels...),
		Intervals: append([]Buffer(nil), m.store.intervals...),
		Field:     m.store.field,
	}
}

// ReadInterval downloads the contents of level i. A concurrent Init or
// Shutdown waits until the read has finished.
func (m *Manager) ReadInterval(i uint) ([]Radiance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.checkLevelLocked("ReadInterval", i)
	return m.device.ReadBuffer(m.store.intervals[i])
}

// ReadRadianceField downloads the radiance field.
func (m *Manager) ReadRadianceField() ([]Radiance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.requireInitLocked("ReadRadianceField")
	return m.device.ReadBuffer(m.store.field)
}
