// Copyright 2024 The mecs-go Authors
// This file is part of mecs-go.
//
// mecs-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// mecs-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mecs-go. If not, see <http://www.gnu.org/licenses/>.

// Package xlog is mecs-go's structured, leveled logger: every package logs
// operational events (arena exhaustion, scheduler faults, CLI diagnostics)
// through it rather than fmt.Println.
//
// Grounded on the teacher's own `log.Error("msg", "k", v, ...)` call sites
// (core/state/statedb.go, les/client.go, consensus/pob/snapshot.go) — the
// upstream go-ethereum/ProbeChain `log` package those calls resolve to is
// itself built on go-stack/stack (caller capture), fatih/color +
// mattn/go-colorable (terminal coloring), and mattn/go-isatty (color
// auto-detection); xlog reproduces that same small stack rather than
// reaching for a different logging library not present anywhere in the
// example pack.
package xlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Lvl is a log record's severity, ordered most-to-least severe (Crit is 0,
// Trace is 5), so a larger value means a more verbose record.
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
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	case LvlTrace:
		return "TRACE"
	default:
		return fmt.Sprintf("LVL(%d)", int(l))
	}
}

var levelColor = map[Lvl]color.Attribute{
	LvlCrit:  color.FgMagenta,
	LvlError: color.FgRed,
	LvlWarn:  color.FgYellow,
	LvlInfo:  color.FgGreen,
	LvlDebug: color.FgCyan,
	LvlTrace: color.FgWhite,
}

// Record is one emitted log line: the fields a Format renders.
type Record struct {
	Time time.Time
	Lvl  Lvl
	Msg  string
	Ctx  []interface{}
	Call stack.Call
}

// Format renders a Record to bytes for a Handler to write out.
type Format interface {
	Format(r *Record) []byte
}

type formatFunc func(*Record) []byte

func (f formatFunc) Format(r *Record) []byte { return f(r) }

// LogfmtFormat renders "key=value" pairs, one record per line, with no
// color codes — the format used when output isn't a terminal (piped to a
// file, captured by CI).
func LogfmtFormat() Format {
	return formatFunc(func(r *Record) []byte {
		var b []byte
		b = append(b, r.Time.Format("2006-01-02T15:04:05.000-0700")...)
		b = append(b, ' ')
		b = append(b, fmt.Sprintf("%-5s", r.Lvl)...)
		b = append(b, ' ')
		b = append(b, r.Msg...)
		b = append(b, formatCtx(r.Ctx)...)
		b = append(b, " call="...)
		b = append(b, fmt.Sprintf("%+v", r.Call)...)
		b = append(b, '\n')
		return b
	})
}

// TerminalFormat renders a human-oriented colored line, matching the
// teacher's terminal handler; useColor false falls back to the same layout
// without escape codes (e.g. when mattn/go-isatty reports a non-tty).
func TerminalFormat(useColor bool) Format {
	return formatFunc(func(r *Record) []byte {
		lvl := r.Lvl.String()
		if useColor {
			c := color.New(levelColor[r.Lvl]).SprintFunc()
			lvl = c(fmt.Sprintf("%-5s", r.Lvl))
		} else {
			lvl = fmt.Sprintf("%-5s", r.Lvl)
		}
		line := fmt.Sprintf("%s[%s] %s%s", r.Time.Format("15:04:05.000"), lvl, r.Msg, formatCtx(r.Ctx))
		return append([]byte(line), '\n')
	})
}

func formatCtx(ctx []interface{}) string {
	if len(ctx) == 0 {
		return ""
	}
	var b []byte
	for i := 0; i < len(ctx); i += 2 {
		b = append(b, ' ')
		b = append(b, fmt.Sprintf("%v", ctx[i])...)
		b = append(b, '=')
		if i+1 < len(ctx) {
			b = append(b, fmt.Sprintf("%v", ctx[i+1])...)
		} else {
			b = append(b, "<missing>"...)
		}
	}
	return string(b)
}

// Handler is the sink a Logger writes formatted Records to.
type Handler interface {
	Log(r *Record) error
}

type streamHandler struct {
	mu  sync.Mutex
	wr  io.Writer
	fmt Format
}

// StreamHandler returns a Handler that formats each record with fmtr and
// writes it to wr, serializing concurrent writers the way the teacher's
// log package guards its own output stream.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	return &streamHandler{wr: wr, fmt: fmtr}
}

func (h *streamHandler) Log(r *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.wr.Write(h.fmt.Format(r))
	return err
}

// LvlFilterHandler wraps h, discarding records more verbose than maxLvl.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return formatHandlerFunc(func(r *Record) error {
		if r.Lvl > maxLvl {
			return nil
		}
		return h.Log(r)
	})
}

type formatHandlerFunc func(*Record) error

func (f formatHandlerFunc) Log(r *Record) error { return f(r) }

// Logger is mecs-go's structured logger interface: bind context once with
// New, then call the leveled methods with a message plus alternating
// key/value pairs, exactly the teacher's `log.Error("msg", "k", v, ...)`
// call shape.
type Logger interface {
	New(ctx ...interface{}) Logger
	SetHandler(h Handler)

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	// Crit logs at LvlCrit then calls os.Exit(1), matching the teacher's use
	// of log.Crit for unrecoverable node faults (core/state/statedb.go:1406).
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	ctx     []interface{}
	handler *swapHandler
}

// swapHandler lets Root().SetHandler replace the handler of every logger
// derived via New, without each derived logger holding its own pointer
// that would go stale.
type swapHandler struct {
	mu sync.Mutex
	h  Handler
}

func (s *swapHandler) Log(r *Record) error {
	s.mu.Lock()
	h := s.h
	s.mu.Unlock()
	return h.Log(r)
}

func (s *swapHandler) set(h Handler) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

func newLogger(ctx []interface{}, h *swapHandler) *logger {
	return &logger{ctx: ctx, handler: h}
}

func (l *logger) New(ctx ...interface{}) Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return newLogger(merged, l.handler)
}

func (l *logger) SetHandler(h Handler) { l.handler.set(h) }

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	r := &Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  merged,
		Call: stack.Caller(2),
	}
	_ = l.handler.Log(r)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(LvlCrit, msg, ctx)
	os.Exit(1)
}

// defaultHandler builds the teacher's usual default: a terminal formatter
// colored iff stdout is a real tty (mattn/go-isatty), written through
// mattn/go-colorable so ANSI codes render correctly on every host.
func defaultHandler() Handler {
	useColor := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	out := colorable.NewColorableStdout()
	return StreamHandler(out, TerminalFormat(useColor))
}

var root = newLogger(nil, &swapHandler{h: defaultHandler()})

// Root returns mecs-go's process-wide root logger.
func Root() Logger { return root }

// New returns a child of Root() with ctx bound, the usual call a package
// makes once at init to get its own named logger, e.g.
// `var log = xlog.New("pkg", "interp")`.
func New(ctx ...interface{}) Logger { return root.New(ctx...) }

// SetLevel replaces Root()'s handler with one that drops records above
// maxLvl, using the same handler the logger already has as the sink.
func SetLevel(maxLvl Lvl) {
	root.handler.mu.Lock()
	inner := root.handler.h
	root.handler.mu.Unlock()
	root.handler.set(LvlFilterHandler(maxLvl, inner))
}
