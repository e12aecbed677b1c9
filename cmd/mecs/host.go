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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/i-e-b/mecs-go/interp"
)

// jailedFiles is the interp.FileLoader / scheduler.Files used by every
// subcommand: spec.md §6 requires the host to jail the `import`/IpcSpawn
// file loader to a working directory rather than the whole filesystem.
type jailedFiles struct {
	root string
}

var _ interp.FileLoader = (*jailedFiles)(nil)

// newJailedFiles resolves root to an absolute path once, so every Load call
// only needs a cheap prefix check against it.
func newJailedFiles(root string) (*jailedFiles, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("mecs: resolving jail root %q: %w", root, err)
	}
	return &jailedFiles{root: abs}, nil
}

// Load reads path relative to the jail root, refusing any resolved path that
// escapes it (a `../` traversal, or an absolute path outside the root).
func (f *jailedFiles) Load(path string) ([]byte, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(f.root, path)
	}
	full = filepath.Clean(full)
	if full != f.root && !strings.HasPrefix(full, f.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("mecs: path %q escapes jail root %q", path, f.root)
	}
	return os.ReadFile(full)
}

// stdoutConsole is the default interp.Console: every WriteOutput call is
// flushed straight to the host process's stdout, matching spec.md §6's
// "piping its output to stdout".
type stdoutConsole struct{}

var _ interp.Console = stdoutConsole{}

func (stdoutConsole) WriteOutput(s string) { fmt.Print(s) }

// captureConsole buffers output instead of writing it immediately, used by
// subcommands (repl, stats) that print their own structured report after
// a run rather than interleaving it with program output.
type captureConsole struct{ buf strings.Builder }

var _ interp.Console = (*captureConsole)(nil)

func (c *captureConsole) WriteOutput(s string) { c.buf.WriteString(s) }
func (c *captureConsole) String() string       { return c.buf.String() }
