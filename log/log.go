// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from log15-style loggers used across the go-ethereum
// and klaytn codebases, reshaped around a per-module logger registry.

// Package log provides the module-scoped logger used across the node. Every
// package that owns a concern (storage, flow handling, validation, the VM)
// pulls its own named logger from the registry at init time instead of
// logging through a single global sink.
package log

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
)

// Lvl is the severity of a log record, ordered from least to most verbose.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "crit"
	case LvlError:
		return "eror"
	case LvlWarn:
		return "warn"
	case LvlInfo:
		return "info"
	case LvlDebug:
		return "dbug"
	case LvlTrace:
		return "trce"
	default:
		return "unkn"
	}
}

var lvlColor = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgMagenta, color.Bold),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgWhite),
}

// Logger writes leveled, contextual messages. Context is a flat list of
// alternating key/value pairs, following the klaytn/go-ethereum convention
// of logger.Info("message", "key", value, "key2", value2).
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	// New returns a logger that always prepends ctx to its own context.
	New(ctx ...interface{}) Logger
}

type record struct {
	time  time.Time
	lvl   Lvl
	msg   string
	ctx   []interface{}
	caller string
}

type logger struct {
	ctx []interface{}
}

var (
	outputMu sync.Mutex
	output   = colorable.NewColorableStdout()

	// filterLvl gates records below this verbosity; overridden by SetLevel.
	filterLvl = LvlInfo

	// ColorEnabled toggles ANSI coloring of the level tag; default on.
	ColorEnabled = true
)

// SetLevel adjusts the process-wide verbosity filter.
func SetLevel(l Lvl) { filterLvl = l }

func New(ctx ...interface{}) Logger {
	return &logger{ctx: ctx}
}

func (l *logger) New(ctx ...interface{}) Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &logger{ctx: merged}
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	if lvl > filterLvl {
		return
	}
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)

	r := record{
		time: time.Now(),
		lvl:  lvl,
		msg:  msg,
		ctx:  merged,
	}
	if lvl <= LvlWarn {
		if cs := stack.Caller(2); cs != nil {
			r.caller = fmt.Sprintf("%+v", cs)
		}
	}
	emit(r)
}

func emit(r record) {
	tag := r.lvl.String()
	if ColorEnabled {
		if c, ok := lvlColor[r.lvl]; ok {
			tag = c.Sprint(tag)
		}
	}

	outputMu.Lock()
	defer outputMu.Unlock()

	fmt.Fprintf(output, "%s[%s] %s", r.time.Format("01-02|15:04:05.000"), tag, r.msg)
	for i := 0; i+1 < len(r.ctx); i += 2 {
		fmt.Fprintf(output, " %v=%v", r.ctx[i], r.ctx[i+1])
	}
	if r.caller != "" {
		fmt.Fprintf(output, " caller=%s", r.caller)
	}
	fmt.Fprintln(output)
	if r.lvl == LvlCrit {
		os.Exit(1)
	}
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }

var root = New()

func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { root.Crit(msg, ctx...) }
