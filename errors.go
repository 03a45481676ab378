// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrPrecondition is the root of every contract violation. Contract
	// violations are raised as panics carrying a *PreconditionError that
	// unwraps to ErrPrecondition.
	ErrPrecondition = errors.New("cascade: precondition violated")

	// ErrNotInitialized is returned when a Manager is used before Init.
	ErrNotInitialized = errors.New("cascade: manager not initialized")

	// ErrDestroyed is returned when a Manager is used after Shutdown.
	ErrDestroyed = errors.New("cascade: manager destroyed")

	// ErrNilBuffer is returned when a required buffer argument is nil.
	ErrNilBuffer = errors.New("cascade: nil buffer")

	// ErrBufferSize is returned when uploaded or read data does not match
	// the buffer dimensions.
	ErrBufferSize = errors.New("cascade: buffer size mismatch")

	// ErrForeignBuffer is returned when a buffer created by one device is
	// handed to another.
	ErrForeignBuffer = errors.New("cascade: buffer belongs to a different device")
)

// PreconditionError describes a violated contract: invalid sizing
// parameters, an out-of-range level, or use of a manager in the wrong
// state. It indicates a caller bug and is delivered via panic.
type PreconditionError struct {
	// Op is the operation that detected the violation.
	Op string

	// Msg describes the violated rule.
	Msg string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cascade: %s: %s", e.Op, e.Msg)
}

// Unwrap returns ErrPrecondition so callers recovering the panic can use
// errors.Is.
func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// precondition panics with a *PreconditionError when ok is false.
func precondition(ok bool, op, format string, args ...any) {
	if ok {
		return
	}
	panic(&PreconditionError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
