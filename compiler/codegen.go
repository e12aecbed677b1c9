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
	"fmt"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/scope"
	"github.com/i-e-b/mecs-go/tag"
)

// gen accumulates one program's (or one function body's) instruction
// stream. fd/cc/cj targets are back-patched once their extent is known,
// the same two-pass "emit placeholder, remember its index, patch later"
// approach an assembler uses for forward jumps.
type gen struct {
	code []tag.Tag
}

func (g *gen) emit(t tag.Tag) int {
	g.code = append(g.code, t)
	return len(g.code) - 1
}

func (g *gen) here() int { return len(g.code) }

// patchWide overwrites the wide operand of the opcode tag at idx, keeping
// its class/action/short-operand bits intact.
func (g *gen) patchWide(idx int, wide uint32) {
	t := g.code[idx]
	g.code[idx] = tag.Tag{Kind: t.Kind, Params: t.Params, Payload: wide}
}

func (g *gen) compileExpr(e expr) error {
	switch v := e.(type) {
	case intLit:
		g.emit(tag.NewInteger(v.v))
		return nil
	case strLit:
		return g.compileString(v.v)
	case ident:
		g.emit(bytecode.New(bytecode.ClassMemory, bytecode.ActionGet, 0, bytecode.CrushName(v.name)))
		return nil
	case call:
		return g.compileCall(v)
	case ifExpr:
		return g.compileIf(v)
	case setExpr:
		return g.compileSet(v)
	case fnDef:
		return g.compileFnDef(v)
	default:
		return fmt.Errorf("compiler: internal: unhandled expr %T", e)
	}
}

// compileString packs short literals inline as SmallString tags. Longer
// string constants would need a string-table entry (bytecode.Program.Strings
// plus a StaticStringPtr), which this compiler does not yet produce — it
// targets the same small literal surface the interpreter's own tests use.
func (g *gen) compileString(s string) error {
	t, ok := tag.NewSmallString(s)
	if !ok {
		return fmt.Errorf("compiler: string literal %q is longer than %d bytes (no string-table support in this compiler)", s, tag.MaxSmallStringBytes)
	}
	g.emit(t)
	return nil
}

func (g *gen) compileCall(c call) error {
	for _, a := range c.args {
		if err := g.compileExpr(a); err != nil {
			return err
		}
	}
	if len(c.args) > 255 {
		return fmt.Errorf("compiler: call to %s has %d arguments, more than the 255 a single fc can carry", c.op, len(c.args))
	}
	g.emit(bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, byte(len(c.args)), bytecode.CrushName(c.op)))
	return nil
}

// compileIf always lowers to both an explicit then and an explicit else
// branch (synthesizing a Unit push when the user wrote no else), so the
// compare-jump's two arms leave exactly one value on the stack regardless of
// which one the condition takes.
func (g *gen) compileIf(f ifExpr) error {
	if err := g.compileExpr(f.cond); err != nil {
		return err
	}
	// cc pops the single value f.cond left on the stack and jumps forward by
	// the (patched) distance when it is falsy; the ClassCompare "C" opcodes
	// are a separate fused multi-operand compare-and-jump this compiler
	// never emits, since cond is an arbitrary already-evaluated expression.
	ccIdx := g.emit(bytecode.New(bytecode.ClassControl, bytecode.ActionCompareJump, 0, 0)) // placeholder; patched below

	if err := g.compileExpr(f.then); err != nil {
		return err
	}
	jmpIdx := g.emit(bytecode.New(bytecode.ClassControl, bytecode.ActionJump, 0, 0))

	elseStart := g.here()
	g.patchWide(ccIdx, uint32(elseStart-(ccIdx+1)))

	if f.els != nil {
		if err := g.compileExpr(f.els); err != nil {
			return err
		}
	} else {
		g.emit(tag.UnitTag)
	}
	afterElse := g.here()
	g.patchWide(jmpIdx, uint32(afterElse-(jmpIdx+1)))
	return nil
}

func (g *gen) compileSet(s setExpr) error {
	if err := g.compileExpr(s.value); err != nil {
		return err
	}
	g.emit(bytecode.New(bytecode.ClassMemory, bytecode.ActionSet, 0, bytecode.CrushName(s.name)))
	// ms consumes the value and leaves nothing behind; push Unit so set,
	// like every other expr, leaves exactly one value for its caller.
	g.emit(tag.UnitTag)
	return nil
}

// compileFnDef emits:
//
//	fd <arity> <skip>     (skip is patched once the body's extent is known)
//	<crushed-name literal>
//	<prologue: bind each positional arg to its parameter name>
//	<body>
//	cr
//
// and the fd's wide operand (the skip distance) lands PC just past the `cr`,
// where a Unit literal is emitted so the definition itself leaves one value
// behind for whatever sequence it sits in.
func (g *gen) compileFnDef(f fnDef) error {
	if len(f.params) > 255 {
		return fmt.Errorf("compiler: fn %s has %d parameters, more than fd's 8-bit arity can carry", f.name, len(f.params))
	}
	fdIdx := g.emit(bytecode.New(bytecode.ClassFunction, bytecode.ActionDefine, byte(len(f.params)), 0))
	g.emit(tag.NewVariableRef(bytecode.CrushName(f.name)))

	for i, p := range f.params {
		g.emit(bytecode.New(bytecode.ClassMemory, bytecode.ActionGet, 0, scope.PositionalName(i)))
		g.emit(bytecode.New(bytecode.ClassMemory, bytecode.ActionSet, 0, bytecode.CrushName(p)))
	}

	for _, b := range f.body {
		if err := g.compileExpr(b); err != nil {
			return fmt.Errorf("compiler: in body of fn %s: %w", f.name, err)
		}
	}
	g.emit(bytecode.New(bytecode.ClassControl, bytecode.ActionReturn, 0, 0))

	bodyEnd := g.here()
	g.patchWide(fdIdx, uint32(bodyEnd-fdIdx))

	g.emit(tag.UnitTag)
	return nil
}
