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

// expr is the small expression tree the parser builds and codegen walks.
// Every variant compiles to code that leaves exactly one tag on the value
// stack, so sequences of expressions never need an explicit discard opcode
// (there isn't one in the bytecode's opcode classes).
type expr interface{ exprNode() }

type intLit struct{ v int32 }
type strLit struct{ v string }
type ident struct{ name string }

// call is an ordinary `(name arg...)` form: name may be a user function, a
// builtin, or a symbolic operator ("+", "=", "<", ...) — they all resolve
// through the same crushed-name function table at runtime.
type call struct {
	op   string
	args []expr
}

// ifExpr is the `(if cond then)` / `(if cond then else)` special form. A
// missing else branch is synthesized as Unit during codegen so both arms of
// the jump leave exactly one value behind.
type ifExpr struct {
	cond, then, els expr
}

// setExpr is the `(set name value)` special form: assigns value to name in
// the current scope, and (as with every expr) nominally yields Unit.
type setExpr struct {
	name  string
	value expr
}

// fnDef is the `(fn name (param...) body...)` special form. The last body
// expression's stack value is the function's return value when it reaches
// `cr`; earlier ones are evaluated for effect only.
type fnDef struct {
	name   string
	params []string
	body   []expr
}

func (intLit) exprNode()  {}
func (strLit) exprNode()  {}
func (ident) exprNode()   {}
func (call) exprNode()    {}
func (ifExpr) exprNode()  {}
func (setExpr) exprNode() {}
func (fnDef) exprNode()   {}
