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

package compiler

import (
	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/tag"
)

// Compiler turns mecs source text into bytecode. It holds no state between
// calls; the zero value is ready to use.
type Compiler struct{}

// New returns a ready-to-use Compiler.
func New() *Compiler { return &Compiler{} }

// Compile lexes, parses, and generates code for src, returning a Program
// whose Instructions the interpreter can execute directly. It satisfies
// interp.Compiler and scheduler's `eval` builtin wiring.
func (c *Compiler) Compile(src string) (*bytecode.Program, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	forms, err := p.parseProgram()
	if err != nil {
		return nil, err
	}

	g := &gen{}
	for _, f := range forms {
		if err := g.compileExpr(f); err != nil {
			return nil, err
		}
	}
	g.emit(tag.Tag{Kind: tag.EndOfProgram})

	return &bytecode.Program{Instructions: g.code}, nil
}
