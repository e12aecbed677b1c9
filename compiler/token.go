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

// Package compiler turns mecs source text into a *bytecode.Program the
// interpreter can run directly, without going through the on-disk wire
// format. It plugs into interp.Interpreter as the Compiler collaborator
// behind the `eval` builtin, and into cmd/mecs as the `compile` subcommand.
//
// Grounded on the teacher's probe-lang/lang/{lexer,parser,ast} split (a
// byte-at-a-time scanner feeding a recursive-descent parser that builds a
// small expression tree, then a separate codegen pass walks the tree), but
// the grammar itself is new: mecs programs are written as parenthesised
// prefix forms (Lisp-style), not the teacher's C-like infix expression
// language. spec.md treats the compiler as an out-of-scope collaborator and
// does not fix a concrete surface syntax, so this package is free to choose
// one; prefix forms keep codegen a direct, mostly mechanical walk with no
// operator-precedence table to maintain.
package compiler

import "fmt"

// tokenKind classifies one lexical token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokIdent // includes symbolic operator names like "+", "<>", "not"
	tokInt
	tokString
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "EOF"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokIdent:
		return "ident"
	case tokInt:
		return "int"
	case tokString:
		return "string"
	default:
		return fmt.Sprintf("tokenKind(%d)", int(k))
	}
}

// token is one lexed unit: its kind, the source text it came from (for
// idents and error messages), and a decoded literal value where relevant.
type token struct {
	kind tokenKind
	text string
	ival int32
	line int
}
