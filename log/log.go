// Copyright 2024 The accountdb Authors
// This file is part of the accountdb library.
//
// The accountdb library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The accountdb library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the accountdb library. If not, see <http://www.gnu.org/licenses/>.

// Package log is a thin, structured, leveled logger in the spirit of
// go-ethereum's log package (key-value call sites, leveled output), built
// on the standard library's log/slog rather than vendoring log15, since
// the teacher's own internal log package cannot be imported as a module.
package log

import (
	"context"
	"log/slog"
	"os"
)

var root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetDefault replaces the package-level logger, e.g. to raise verbosity or
// redirect output in tests.
func SetDefault(l *slog.Logger) { root = l }

func Trace(msg string, ctx ...any) { root.Log(context.Background(), slog.LevelDebug-4, msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }

// Crit logs at error level and terminates the process, matching the
// teacher's log.Crit semantics for unrecoverable startup failures.
func Crit(msg string, ctx ...any) {
	root.Error(msg, ctx...)
	os.Exit(1)
}
