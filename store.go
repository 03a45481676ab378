// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import "fmt"

// store owns the cascade interval buffers and the merged radiance field.
// It is exclusively owned by a Manager, which guarantees the device is idle
// before calling destroy.
type store struct {
	intervals []Buffer
	field     Buffer
}

// create allocates one square buffer per level plus the fieldDim x fieldDim
// radiance field. On failure every buffer created so far is destroyed.
func (s *store) create(dev Device, levels []Level, fieldDim uint, format Format) error {
	s.intervals = make([]Buffer, 0, len(levels))
	for _, l := range levels {
		side := int(l.TextureSide)
		b, err := dev.CreateBuffer(BufferDesc{
			Name:      fmt.Sprintf("cascade_interval_%d", l.Index),
			Width:     side,
			Height:    side,
			MipLevels: 1,
			Format:    format,
		})
		if err != nil {
			s.destroy()
			return fmt.Errorf("cascade: create level %d buffer (%dx%d): %w", l.Index, side, side, err)
		}
		s.intervals = append(s.intervals, b)
	}

	field, err := dev.CreateBuffer(BufferDesc{
		Name:      "cascade_radiance_field",
		Width:     int(fieldDim),
		Height:    int(fieldDim),
		MipLevels: 1,
		Format:    format,
	})
	if err != nil {
		s.destroy()
		return fmt.Errorf("cascade: create radiance field (%dx%d): %w", fieldDim, fieldDim, err)
	}
	s.field = field
	return nil
}

// destroy releases every buffer. Safe to call on an empty store.
func (s *store) destroy() {
	for _, b := range s.intervals {
		if b != nil {
			b.Destroy()
		}
	}
	s.intervals = nil
	if s.field != nil {
		s.field.Destroy()
		s.field = nil
	}
}

// all returns the interval buffers followed by the field.
func (s *store) all() []Buffer {
	out := make([]Buffer, 0, len(s.intervals)+1)
	out = append(out, s.intervals...)
	if s.field != nil {
		out = append(out, s.field)
	}
	return out
}

// bytes returns the storage held by the store.
func (s *store) bytes() int {
	total := 0
	for _, b := range s.all() {
		total += b.Width() * b.Height() * b.Format().BytesPerTexel()
	}
	return total
}
