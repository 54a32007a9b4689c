// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"fmt"
	"io"
)

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNoop no output is generated.
	LogNoop LogLevel = -1
	// LogLast print only one line when a projection completes.
	LogLast LogLevel = 0
	// LogTrace print every active-set change during a solve.
	LogTrace LogLevel = 1
)

// Logger handles logging output for the solver.
// Note the writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
}

func (l *Logger) enable(level LogLevel) bool {
	return l != nil && l.Msg != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}
