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

import "fmt"

// parser is a one-token-lookahead recursive-descent parser over the token
// stream, in the same shape as the teacher's parser (a current/peek pair
// refilled by advance()), just over a far smaller grammar: every compound
// form is `(` head arg* `)`.
type parser struct {
	lex *lexer
	cur token
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.cur.kind != kind {
		return token{}, fmt.Errorf("compiler: line %d: expected %s, got %s %q", p.cur.line, kind, p.cur.kind, p.cur.text)
	}
	t := p.cur
	return t, p.advance()
}

// parseProgram consumes every top-level form up to EOF.
func (p *parser) parseProgram() ([]expr, error) {
	var forms []expr
	for p.cur.kind != tokEOF {
		f, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, nil
}

func (p *parser) parseForm() (expr, error) {
	switch p.cur.kind {
	case tokInt:
		v := p.cur.ival
		return intLit{v: v}, p.advance()
	case tokString:
		s := p.cur.text
		return strLit{v: s}, p.advance()
	case tokIdent:
		name := p.cur.text
		return ident{name: name}, p.advance()
	case tokLParen:
		return p.parseCompound()
	default:
		return nil, fmt.Errorf("compiler: line %d: unexpected token %s", p.cur.line, p.cur.kind)
	}
}

func (p *parser) parseCompound() (expr, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	head, err := p.expect(tokIdent)
	if err != nil {
		return nil, fmt.Errorf("compiler: line %d: a parenthesised form must start with a name: %w", p.cur.line, err)
	}

	switch head.text {
	case "fn":
		return p.parseFnDef()
	case "if":
		return p.parseIf()
	case "set":
		return p.parseSet()
	default:
		var args []expr
		for p.cur.kind != tokRParen {
			a, err := p.parseForm()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return call{op: head.text, args: args}, nil
	}
}

func (p *parser) parseFnDef() (expr, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, fmt.Errorf("compiler: fn needs a name: %w", err)
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, fmt.Errorf("compiler: fn %s needs a parameter list: %w", name.text, err)
	}
	var params []string
	for p.cur.kind != tokRParen {
		pname, err := p.expect(tokIdent)
		if err != nil {
			return nil, fmt.Errorf("compiler: fn %s: bad parameter: %w", name.text, err)
		}
		params = append(params, pname.text)
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}

	var body []expr
	for p.cur.kind != tokRParen {
		b, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		body = append(body, b)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("compiler: fn %s has an empty body", name.text)
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return fnDef{name: name.text, params: params, body: body}, nil
}

func (p *parser) parseIf() (expr, error) {
	cond, err := p.parseForm()
	if err != nil {
		return nil, fmt.Errorf("compiler: if needs a condition: %w", err)
	}
	then, err := p.parseForm()
	if err != nil {
		return nil, fmt.Errorf("compiler: if needs a then-branch: %w", err)
	}
	var els expr
	if p.cur.kind != tokRParen {
		els, err = p.parseForm()
		if err != nil {
			return nil, fmt.Errorf("compiler: if has a malformed else-branch: %w", err)
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return ifExpr{cond: cond, then: then, els: els}, nil
}

func (p *parser) parseSet() (expr, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, fmt.Errorf("compiler: set needs a target name: %w", err)
	}
	value, err := p.parseForm()
	if err != nil {
		return nil, fmt.Errorf("compiler: set %s needs a value: %w", name.text, err)
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return setExpr{name: name.text, value: value}, nil
}
