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

// Package scheduler implements the cooperative multi-program driver: a
// round-robin cursor over a set of interpreters, broadcast IPC delivery,
// IpcSpawn handling, and aggregate completion/fault tracking.
//
// Grounded on the teacher's probe-lang/integration/engine.go Execute
// wrapper (construct a VM, drive it, translate its exit into a result
// struct), generalized from "run one VM to completion" to "round-robin N
// VMs, routing their IPC traffic between slices".
package scheduler

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/internal/xlog"
	"github.com/i-e-b/mecs-go/interp"
	"github.com/i-e-b/mecs-go/serialize"
	"github.com/i-e-b/mecs-go/tag"
)

// ErrNoPrograms is returned by Run when the scheduler has nothing loaded.
var ErrNoPrograms = errors.New("scheduler: no programs loaded")

var log = xlog.New("pkg", "scheduler")

// State is the scheduler's aggregate view across every loaded interpreter.
type State uint8

const (
	Running State = iota
	Faulted
	Complete
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Faulted:
		return "Faulted"
	case Complete:
		return "Complete"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Slot pairs a running interpreter with the bytecode file path it was loaded
// from, for diagnostics.
type Slot struct {
	Path        string
	Interpreter *interp.Interpreter
}

// Scheduler drives a fixed set of interpreters round-robin, broadcasting
// IpcSend traffic and servicing IpcSpawn requests between slices.
type Scheduler struct {
	Console  interp.Console
	Files    interp.FileLoader
	Compiler interp.Compiler

	memSize int
	slots   []Slot
	cursor  int

	// symbolCache avoids re-parsing a debug symbol file every time the same
	// path is named by multiple AddProgramFile/LoadProgramsConcurrently
	// calls (a common case: several programs sharing one symbol file).
	symbolCache *lru.Cache

	faultedSlot int
}

// New returns an empty Scheduler. memSize is the per-interpreter runtime
// arena size in bytes.
func New(memSize int) (*Scheduler, error) {
	cache, err := lru.New(64)
	if err != nil {
		return nil, fmt.Errorf("scheduler: building symbol cache: %w", err)
	}
	return &Scheduler{memSize: memSize, symbolCache: cache, faultedSlot: -1}, nil
}

// Len returns the number of loaded interpreters.
func (s *Scheduler) Len() int { return len(s.slots) }

// Slot returns the id'th interpreter's slot.
func (s *Scheduler) Slot(id int) Slot { return s.slots[id] }

func (s *Scheduler) loadSymbols(path string) (map[uint32]string, error) {
	if path == "" {
		return nil, nil
	}
	if cached, ok := s.symbolCache.Get(path); ok {
		return cached.(map[uint32]string), nil
	}
	raw, err := s.Files.Load(path)
	if err != nil {
		return nil, err
	}
	symbols, err := DecodeSymbolFile(raw)
	if err != nil {
		return nil, err
	}
	s.symbolCache.Add(path, symbols)
	return symbols, nil
}

func (s *Scheduler) newInterpreter(id int, prog *bytecode.Program, symbols map[uint32]string) (*interp.Interpreter, error) {
	it, err := interp.New(id, prog, s.memSize, symbols)
	if err != nil {
		return nil, err
	}
	it.Console = s.Console
	it.Files = s.Files
	it.Compiler = s.Compiler
	return it, nil
}

// AddProgramFile loads bytecode (and, optionally, a debug symbol file) from
// disk through s.Files, allocates a fresh interpreter for it, and appends it
// to the schedule. Returns the new interpreter's ordinal id.
func (s *Scheduler) AddProgramFile(path, symbolPath string) (int, error) {
	data, err := s.Files.Load(path)
	if err != nil {
		return 0, fmt.Errorf("scheduler: loading %s: %w", path, err)
	}
	prog, err := bytecode.Load(data)
	if err != nil {
		return 0, fmt.Errorf("scheduler: decoding %s: %w", path, err)
	}
	symbols, err := s.loadSymbols(symbolPath)
	if err != nil {
		return 0, fmt.Errorf("scheduler: loading symbols for %s: %w", path, err)
	}

	id := len(s.slots)
	it, err := s.newInterpreter(id, prog, symbols)
	if err != nil {
		return 0, err
	}
	s.slots = append(s.slots, Slot{Path: path, Interpreter: it})
	return id, nil
}

// programSource is one path pair resolved concurrently by
// LoadProgramsConcurrently before any interpreter is constructed.
type programSource struct {
	path       string
	prog       *bytecode.Program
	symbols    map[uint32]string
}

// LoadProgramsConcurrently loads and decodes every (path, symbolPath) pair
// in parallel — disk I/O and string-table decoding are the expensive part of
// AddProgramFile, and are independent across programs — then constructs and
// appends interpreters sequentially so slot ids stay a deterministic
// function of input order, not goroutine scheduling.
func (s *Scheduler) LoadProgramsConcurrently(paths, symbolPaths []string) ([]int, error) {
	if len(symbolPaths) != 0 && len(symbolPaths) != len(paths) {
		return nil, fmt.Errorf("scheduler: symbolPaths length %d does not match paths length %d", len(symbolPaths), len(paths))
	}

	sources := make([]programSource, len(paths))
	g, _ := errgroup.WithContext(context.Background())
	for idx, path := range paths {
		idx, path := idx, path
		g.Go(func() error {
			data, err := s.Files.Load(path)
			if err != nil {
				return fmt.Errorf("scheduler: loading %s: %w", path, err)
			}
			prog, err := bytecode.Load(data)
			if err != nil {
				return fmt.Errorf("scheduler: decoding %s: %w", path, err)
			}
			var symbolPath string
			if len(symbolPaths) != 0 {
				symbolPath = symbolPaths[idx]
			}
			symbols, err := s.loadSymbols(symbolPath)
			if err != nil {
				return fmt.Errorf("scheduler: loading symbols for %s: %w", path, err)
			}
			sources[idx] = programSource{path: path, prog: prog, symbols: symbols}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]int, len(sources))
	for idx, src := range sources {
		id := len(s.slots)
		it, err := s.newInterpreter(id, src.prog, src.symbols)
		if err != nil {
			return nil, err
		}
		s.slots = append(s.slots, Slot{Path: src.path, Interpreter: it})
		ids[idx] = id
	}
	return ids, nil
}

// broadcast delivers target/payload to every loaded interpreter, including
// the sender, per spec's "same send is delivered atomically to all
// recipients before the scheduler advances its cursor".
func (s *Scheduler) broadcast(target string, payload []byte) {
	for _, slot := range s.slots {
		slot.Interpreter.DeliverIPC(target, payload)
	}
}

// spawn loads path (resolved through s.Files, so a host jails it to a
// working directory) as a new program and replies to the spawning
// interpreter's mailbox with {target: "spawn", payload: new ordinal}.
func (s *Scheduler) spawn(spawnerID int, path string) error {
	id, err := s.AddProgramFile(path, "")
	if err != nil {
		return err
	}
	reply, err := encodeSpawnReply(id)
	if err != nil {
		return err
	}
	s.slots[spawnerID].Interpreter.DeliverIPC("spawn", reply)
	return nil
}

// Run advances the interpreter at the cursor by up to roundsPerSlice steps,
// if it is runnable, and reacts to its exit state, per spec.md §4.10; an
// interpreter that is not runnable is skipped. It returns the scheduler's
// state after that single slice.
func (s *Scheduler) Run(roundsPerSlice int) (State, error) {
	if len(s.slots) == 0 {
		return Complete, ErrNoPrograms
	}

	slot := s.slots[s.cursor]
	it := slot.Interpreter

	if it.State().Runnable() {
		res := it.Run(roundsPerSlice)
		switch res.State {
		case interp.IpcSend:
			log.Debug("ipc broadcast", "from", slot.Path, "target", res.IPCTarget)
			s.broadcast(res.IPCTarget, res.IPCPayload)
		case interp.IpcSpawn:
			if err := s.spawn(s.cursor, res.SpawnPath); err != nil {
				log.Error("spawn failed", "from", slot.Path, "path", res.SpawnPath, "err", err)
				return Faulted, fmt.Errorf("scheduler: spawn from %s failed: %w", slot.Path, err)
			}
			log.Info("spawned program", "from", slot.Path, "path", res.SpawnPath)
		case interp.ErrorState:
			log.Error("interpreter faulted", "slot", s.cursor, "path", slot.Path, "msg", res.FaultMessage)
			s.faultedSlot = s.cursor
			return Faulted, nil
		}
	}

	if s.allComplete() {
		return Complete, nil
	}

	s.cursor = (s.cursor + 1) % len(s.slots)
	return Running, nil
}

func (s *Scheduler) allComplete() bool {
	for _, slot := range s.slots {
		if slot.Interpreter.State() != interp.Complete {
			return false
		}
	}
	return true
}

// State reports the scheduler's aggregate state without advancing anything:
// Faulted if any interpreter has faulted, Complete if all have completed,
// Running otherwise.
func (s *Scheduler) State() State {
	for _, slot := range s.slots {
		if slot.Interpreter.State() == interp.ErrorState {
			return Faulted
		}
	}
	if s.allComplete() {
		return Complete
	}
	return Running
}

// FaultedSlot returns the index of the first interpreter observed in
// ErrorState, or -1 if none has faulted.
func (s *Scheduler) FaultedSlot() int { return s.faultedSlot }

// RunToCompletion drives Run in a loop until the scheduler reaches Complete
// or Faulted, or maxSlices single-interpreter slices have elapsed (guarding
// against a pathological program that never yields a terminal state).
func (s *Scheduler) RunToCompletion(roundsPerSlice, maxSlices int) (State, error) {
	for n := 0; n < maxSlices; n++ {
		state, err := s.Run(roundsPerSlice)
		if err != nil {
			return state, err
		}
		if state != Running {
			return state, nil
		}
	}
	return Running, nil
}

// encodeSpawnReply builds the {target:"spawn", payload: new ordinal} message
// body through the same serializer a `send` builtin uses, so a `wait
// "spawn"` inside the spawning program decodes it with the ordinary
// serialize.Decode path.
func encodeSpawnReply(newID int) ([]byte, error) {
	return serialize.EncodeStateless(nil, tag.NewInteger(int32(newID)))
}
