// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/cascade"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	cascade.RegisterLoggerSink(func(l *slog.Logger) { loggerPtr.Store(l) })
}

// slogger returns the logger shared with the cascade package.
func slogger() *slog.Logger {
	return loggerPtr.Load()
}
