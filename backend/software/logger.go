// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/cascade"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	cascade.RegisterLoggerSink(func(l *slog.Logger) { loggerPtr.Store(l) })
}

func slogger() *slog.Logger {
	return loggerPtr.Load()
}
