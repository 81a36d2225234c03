// Package tptp reads the cnf fragment of the TPTP syntax: a sequence
// of cnf(name, role, clause). annotated formulas with comments.
package tptp

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/dtzWill/vampire/kernel"
)

// A Problem is a parsed clause set over its signature.
type Problem struct {
	Sig     *kernel.Signature
	Clauses []*kernel.Clause
	Names   []string
}

// Parse reads a cnf problem from r.
func Parse(r io.Reader) (*Problem, error) {
	p := &parser{
		lex: newLexer(r),
		prob: &Problem{
			Sig: kernel.NewSignature(),
		},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.prob, nil
}

type parser struct {
	lex  *lexer
	prob *Problem
	vars map[string]int
}

func (p *parser) parse() error {
	for {
		tok, err := p.lex.next()
		if err != nil {
			return err
		}
		if tok.kind == tokEOF {
			return nil
		}
		if tok.kind != tokIdent || tok.text != "cnf" {
			return errors.Errorf("expected cnf at line %d, got %q", tok.line, tok.text)
		}
		if err := p.parseCnf(); err != nil {
			return err
		}
	}
}

func (p *parser) expect(kind tokKind, what string) (token, error) {
	tok, err := p.lex.next()
	if err != nil {
		return tok, err
	}
	if tok.kind != kind {
		return tok, errors.Errorf("expected %s at line %d, got %q", what, tok.line, tok.text)
	}
	return tok, nil
}

func (p *parser) parseCnf() error {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return err
	}
	name, err := p.expect(tokIdent, "clause name")
	if err != nil {
		return err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return err
	}
	if _, err := p.expect(tokIdent, "role"); err != nil {
		return err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return err
	}

	p.vars = map[string]int{}
	lits, err := p.parseClause()
	if err != nil {
		return err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return err
	}
	if _, err := p.expect(tokDot, "'.'"); err != nil {
		return err
	}

	p.prob.Clauses = append(p.prob.Clauses, kernel.NewClause(lits...))
	p.prob.Names = append(p.prob.Names, name.text)
	return nil
}

// parseClause reads a disjunction of literals, optionally
// parenthesised. The empty clause is written $false.
func (p *parser) parseClause() ([]*kernel.Literal, error) {
	tok, err := p.lex.peek()
	if err != nil {
		return nil, err
	}
	wrapped := false
	if tok.kind == tokLParen {
		p.lex.consume()
		wrapped = true
	}

	tok, err = p.lex.peek()
	if err != nil {
		return nil, err
	}
	var lits []*kernel.Literal
	if tok.kind == tokIdent && tok.text == "$false" {
		p.lex.consume()
	} else {
		for {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			lits = append(lits, lit)
			tok, err = p.lex.peek()
			if err != nil {
				return nil, err
			}
			if tok.kind != tokPipe {
				break
			}
			p.lex.consume()
		}
	}

	if wrapped {
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
	}
	return lits, nil
}

func (p *parser) parseLiteral() (*kernel.Literal, error) {
	tok, err := p.lex.peek()
	if err != nil {
		return nil, err
	}
	pos := true
	if tok.kind == tokTilde {
		p.lex.consume()
		pos = false
	}

	// The head symbol stays unregistered until the '='/'!=' lookahead
	// decides whether it is a function or a predicate.
	head, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	var args []*kernel.Term
	isVar := false
	var varTerm *kernel.Term
	switch head.kind {
	case tokVar:
		isVar = true
		v, ok := p.vars[head.text]
		if !ok {
			v = len(p.vars)
			p.vars[head.text] = v
		}
		varTerm = kernel.Var(v)
	case tokIdent:
		nxt, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		if nxt.kind == tokLParen {
			p.lex.consume()
			for {
				arg, err := p.parseTerm()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				sep, err := p.lex.next()
				if err != nil {
					return nil, err
				}
				if sep.kind == tokRParen {
					break
				}
				if sep.kind != tokComma {
					return nil, errors.Errorf("expected ',' or ')' at line %d, got %q", sep.line, sep.text)
				}
			}
		}
	default:
		return nil, errors.Errorf("expected an atom at line %d, got %q", head.line, head.text)
	}

	tok, err = p.lex.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokEq || tok.kind == tokNeq {
		p.lex.consume()
		if tok.kind == tokNeq {
			pos = !pos
		}
		lhs := varTerm
		if !isVar {
			lhs = kernel.App(p.prob.Sig.AddFunc(head.text, len(args)), args...)
		}
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return kernel.NewLiteral(kernel.EqPred, pos, lhs, rhs), nil
	}

	if isVar {
		return nil, errors.Errorf("a variable is not an atom at line %d", head.line)
	}
	pred := p.prob.Sig.AddPred(head.text, len(args))
	return kernel.NewLiteral(pred, pos, args...), nil
}

func (p *parser) parseTerm() (*kernel.Term, error) {
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokVar:
		v, ok := p.vars[tok.text]
		if !ok {
			v = len(p.vars)
			p.vars[tok.text] = v
		}
		return kernel.Var(v), nil
	case tokIdent:
		name := tok.text
		nxt, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		if nxt.kind != tokLParen {
			return kernel.Const(p.prob.Sig.AddFunc(name, 0)), nil
		}
		p.lex.consume()
		var args []*kernel.Term
		for {
			arg, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			sep, err := p.lex.next()
			if err != nil {
				return nil, err
			}
			if sep.kind == tokRParen {
				break
			}
			if sep.kind != tokComma {
				return nil, errors.Errorf("expected ',' or ')' at line %d, got %q", sep.line, sep.text)
			}
		}
		return kernel.App(p.prob.Sig.AddFunc(name, len(args)), args...), nil
	}
	return nil, errors.Errorf("expected a term at line %d, got %q", tok.line, tok.text)
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokVar
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokPipe
	tokTilde
	tokEq
	tokNeq
)

type token struct {
	kind tokKind
	text string
	line int
}

type lexer struct {
	r      *bufio.Reader
	line   int
	peeked *token
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		tok, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peeked = &tok
	}
	return *l.peeked, nil
}

func (l *lexer) consume() {
	l.peeked = nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	for {
		c, _, err := l.r.ReadRune()
		if err == io.EOF {
			return token{kind: tokEOF, line: l.line}, nil
		}
		if err != nil {
			return token{}, errors.Wrap(err, "could not read input")
		}
		switch {
		case c == '\n':
			l.line++
		case unicode.IsSpace(c):
		case c == '%':
			// Comment to end of line.
			if _, err := l.r.ReadString('\n'); err != nil && err != io.EOF {
				return token{}, errors.Wrap(err, "could not read input")
			}
			l.line++
		case c == '(':
			return token{kind: tokLParen, text: "(", line: l.line}, nil
		case c == ')':
			return token{kind: tokRParen, text: ")", line: l.line}, nil
		case c == ',':
			return token{kind: tokComma, text: ",", line: l.line}, nil
		case c == '.':
			return token{kind: tokDot, text: ".", line: l.line}, nil
		case c == '|':
			return token{kind: tokPipe, text: "|", line: l.line}, nil
		case c == '~':
			return token{kind: tokTilde, text: "~", line: l.line}, nil
		case c == '=':
			return token{kind: tokEq, text: "=", line: l.line}, nil
		case c == '!':
			nxt, _, err := l.r.ReadRune()
			if err != nil || nxt != '=' {
				return token{}, errors.Errorf("unexpected '!' at line %d", l.line)
			}
			return token{kind: tokNeq, text: "!=", line: l.line}, nil
		case c == '$' || c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c):
			var sb strings.Builder
			sb.WriteRune(c)
			for {
				nxt, _, err := l.r.ReadRune()
				if err == io.EOF {
					break
				}
				if err != nil {
					return token{}, errors.Wrap(err, "could not read input")
				}
				if nxt == '_' || unicode.IsLetter(nxt) || unicode.IsDigit(nxt) {
					sb.WriteRune(nxt)
					continue
				}
				if err := l.r.UnreadRune(); err != nil {
					return token{}, errors.Wrap(err, "could not read input")
				}
				break
			}
			text := sb.String()
			kind := tokIdent
			if unicode.IsUpper(rune(text[0])) {
				kind = tokVar
			}
			return token{kind: kind, text: text, line: l.line}, nil
		default:
			return token{}, errors.Errorf("unexpected character %q at line %d", c, l.line)
		}
	}
}
