package parser

import (
	"fmt"
	"strings"
)

// Token is a terminal read by a TokenSource. Terminal is 0 when the token matches no terminal of the grammar.
type Token struct {
	Terminal int
	Lexeme   []byte
	EOF      bool
	Row      int
	Col      int
}

type TokenSource interface {
	Next() (*Token, error)
}

// Listener observes the moves of a parser.
type Listener interface {
	Shift(tok *Token)

	// Reduce receives the number of the production whose RHS has been replaced with its LHS.
	Reduce(prod int)

	Accept()
}

type SyntaxError struct {
	Token    *Token
	Name     string
	Expected []string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:%v: unexpected token: ", e.Token.Row, e.Token.Col)
	switch {
	case e.Token.EOF:
		b.WriteString("<eof>")
	case e.Name == "":
		fmt.Fprintf(&b, "'%s' (<invalid>)", e.Token.Lexeme)
	default:
		fmt.Fprintf(&b, "'%s' (%v)", e.Token.Lexeme, e.Name)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

type Option func(p *Parser)

func WithListener(l Listener) Option {
	return func(p *Parser) {
		p.listener = l
	}
}

// WithoutLAC makes the parser trust the ACTION table alone. By default, the parser checks that a token can
// be shifted before it makes any reduction on it (lookahead correction), so a syntax error is reported in the
// state where the token was read.
func WithoutLAC() Option {
	return func(p *Parser) {
		p.noLAC = true
	}
}

type Parser struct {
	tab      *Tables
	src      TokenSource
	listener Listener
	noLAC    bool
	stack    []int
}

func NewParser(tab *Tables, src TokenSource, opts ...Option) *Parser {
	p := &Parser{
		tab: tab,
		src: src,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse consumes tokens until the input is accepted or a syntax error occurs. A syntax error is returned as
// *SyntaxError and stops the parse.
func (p *Parser) Parse() error {
	p.stack = []int{p.tab.synt.InitialState}
	tok, err := p.src.Next()
	if err != nil {
		return err
	}
	for {
		term := p.terminalOf(tok)
		act := 0
		if term != 0 && (p.noLAC || p.canShift(term)) {
			act = p.tab.action(p.top(), term)
		}

		switch {
		case act < 0:
			p.stack = append(p.stack, -act)
			if p.listener != nil {
				p.listener.Shift(tok)
			}
			tok, err = p.src.Next()
			if err != nil {
				return err
			}
		case p.tab.accepts(act):
			if p.listener != nil {
				p.listener.Accept()
			}
			return nil
		case act > 0:
			p.stack = p.reduce(p.stack, act)
			if p.listener != nil {
				p.listener.Reduce(act)
			}
		default:
			return &SyntaxError{
				Token:    tok,
				Name:     p.tab.TerminalName(term),
				Expected: p.expected(),
			}
		}
	}
}

func (p *Parser) terminalOf(tok *Token) int {
	if tok.EOF {
		return p.tab.eof()
	}
	return tok.Terminal
}

func (p *Parser) top() int {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) reduce(stack []int, prod int) []int {
	lhs, n := p.tab.LHS(prod)
	stack = stack[:len(stack)-n]
	return append(stack, p.tab.goTo(stack[len(stack)-1], lhs))
}

// canShift runs the reductions term causes on a copy of the stack and reports whether term is shifted or
// accepted in the end.
func (p *Parser) canShift(term int) bool {
	stack := append(make([]int, 0, len(p.stack)), p.stack...)
	for {
		act := p.tab.action(stack[len(stack)-1], term)
		switch {
		case act < 0, p.tab.accepts(act):
			return true
		case act > 0:
			stack = p.reduce(stack, act)
		default:
			return false
		}
	}
}

func (p *Parser) expected() []string {
	var names []string
	for term := 1; term < p.tab.synt.TerminalCount; term++ {
		ok := p.tab.action(p.top(), term) != 0
		if !p.noLAC {
			ok = p.canShift(term)
		}
		if ok {
			names = append(names, p.tab.TerminalName(term))
		}
	}
	return names
}
