package parser

import (
	"fmt"
	"io"
	"strings"

	verr "github.com/nihei9/oxi/error"
)

type RootNode struct {
	Terms []*TermNode
}

// Directives returns the directive terms in source order.
func (r *RootNode) Directives() []*DirectiveNode {
	var dirs []*DirectiveNode
	for _, t := range r.Terms {
		if t.Directive != nil {
			dirs = append(dirs, t.Directive)
		}
	}
	return dirs
}

// Productions returns the production terms in source order.
func (r *RootNode) Productions() []*ProductionNode {
	var prods []*ProductionNode
	for _, t := range r.Terms {
		if t.Production != nil {
			prods = append(prods, t.Production)
		}
	}
	return prods
}

// TermNode holds either a directive or a production.
type TermNode struct {
	Directive  *DirectiveNode
	Production *ProductionNode
}

type DirectiveNode struct {
	Name       string
	Parameters []*ParameterNode
	Pos        Position
}

type ParameterNode struct {
	ID   string
	Type string
	Pos  Position
}

type ProductionNode struct {
	LHS  string
	Type string
	RHS  []*AlternativeNode
	Pos  Position
}

type AlternativeNode struct {
	Elements []*ElementNode
	Prec     string
	PrecPos  Position
	Action   *ActionNode
	Pos      Position
}

type ElementNode struct {
	ID  string
	Pos Position
}

type ActionNode struct {
	Fragments []*ActionFragment
	Pos       Position
}

// ActionFragment is either a verbatim piece of action code or a placeholder. Position is 0 for `$$`.
type ActionFragment struct {
	Text        string
	Placeholder bool
	Position    int
	Pos         Position
}

// String returns the action code as it was written.
func (a *ActionNode) String() string {
	var b strings.Builder
	for _, f := range a.Fragments {
		switch {
		case !f.Placeholder:
			b.WriteString(f.Text)
		case f.Position == placeholderSelf:
			b.WriteString("$$")
		default:
			fmt.Fprintf(&b, "$%v", f.Position)
		}
	}
	return b.String()
}

// HasSelfReference reports whether the action code refers to the value under construction via `$$`.
func (a *ActionNode) HasSelfReference() bool {
	for _, f := range a.Fragments {
		if f.Placeholder && f.Position == placeholderSelf {
			return true
		}
	}
	return false
}

type directiveParamKind int

const (
	directiveParamNone directiveParamKind = iota
	directiveParamID
	directiveParamIDs
	directiveParamType
)

var directiveParams = map[string]directiveParamKind{
	"name":       directiveParamID,
	"public":     directiveParamNone,
	"token_type": directiveParamType,
	"start":      directiveParamID,
	"left":       directiveParamIDs,
	"right":      directiveParamIDs,
	"nonassoc":   directiveParamIDs,
	"precedence": directiveParamIDs,
}

func raiseSyntaxError(pos Position, synErr *SyntaxError) {
	panic(&verr.SpecError{
		Cause: synErr,
		Row:   pos.Row,
		Col:   pos.Col,
	})
}

func raiseSyntaxErrorWithDetail(pos Position, synErr *SyntaxError, detail string) {
	panic(&verr.SpecError{
		Cause:  synErr,
		Detail: detail,
		Row:    pos.Row,
		Col:    pos.Col,
	})
}

func Parse(src io.Reader) (*RootNode, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return root, nil
}

type parser struct {
	lex       *lexer
	peekedTok *token
	lastTok   *token

	// pos is the position of the token read last, even if it was pushed back.
	pos Position
}

func newParser(src io.Reader) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
	}, nil
}

func (p *parser) parse() (root *RootNode, retErr error) {
	defer func() {
		err := recover()
		if err != nil {
			specErr, ok := err.(*verr.SpecError)
			if !ok {
				panic(err)
			}
			retErr = verr.SpecErrors{specErr}
			root = nil
		}
	}()

	return p.parseRoot(), nil
}

// parseRoot reads terms until EOF. Every iteration either consumes at least one token or stops at EOF,
// and a token that cannot start a term raises an error immediately, so the loop always terminates.
func (p *parser) parseRoot() *RootNode {
	root := &RootNode{}
	for {
		p.skipNewlines()
		if p.consume(tokenKindEOF) {
			break
		}
		root.Terms = append(root.Terms, p.parseTerm())
	}
	return root
}

func (p *parser) parseTerm() *TermNode {
	switch {
	case p.consume(tokenKindDirectiveMarker):
		return &TermNode{
			Directive: p.parseDirective(),
		}
	case p.consume(tokenKindID):
		return &TermNode{
			Production: p.parseProduction(),
		}
	}
	raiseSyntaxError(p.pos, synErrInvalidTermStart)
	return nil
}

// parseDirective parses a directive following a directive marker. Parameters continue to the end of the line.
func (p *parser) parseDirective() *DirectiveNode {
	markerPos := p.lastTok.pos
	if !p.consume(tokenKindID) {
		raiseSyntaxError(p.pos, synErrNoDirectiveName)
	}
	name := p.lastTok.text
	kind, ok := directiveParams[name]
	if !ok {
		raiseSyntaxErrorWithDetail(p.lastTok.pos, synErrUnknownDirective, name)
	}

	var params []*ParameterNode
	switch kind {
	case directiveParamID:
		if !p.consume(tokenKindID) {
			raiseSyntaxErrorWithDetail(p.pos, synErrDirInvalidParam, name)
		}
		params = append(params, &ParameterNode{
			ID:  p.lastTok.text,
			Pos: p.lastTok.pos,
		})
	case directiveParamIDs:
		for p.consume(tokenKindID) {
			params = append(params, &ParameterNode{
				ID:  p.lastTok.text,
				Pos: p.lastTok.pos,
			})
		}
		if len(params) == 0 {
			raiseSyntaxErrorWithDetail(p.pos, synErrDirInvalidParam, name)
		}
	case directiveParamType:
		pos := p.pos
		typ, ok := p.parseType(false)
		if !ok {
			raiseSyntaxErrorWithDetail(pos, synErrDirInvalidParam, name)
		}
		params = append(params, &ParameterNode{
			Type: typ,
			Pos:  pos,
		})
	}

	if !p.consume(tokenKindNewline) && !p.peek(tokenKindEOF) {
		if kind == directiveParamNone || kind == directiveParamID {
			raiseSyntaxErrorWithDetail(p.pos, synErrDirInvalidParam, name)
		}
		raiseSyntaxError(p.pos, synErrDirNoNewline)
	}

	return &DirectiveNode{
		Name:       name,
		Parameters: params,
		Pos:        markerPos,
	}
}

// parseProduction parses a production following its name.
func (p *parser) parseProduction() *ProductionNode {
	lhs := p.lastTok.text
	lhsPos := p.lastTok.pos

	p.skipNewlines()
	if !p.consume(tokenKindColon) {
		raiseSyntaxError(p.pos, synErrNoColon)
	}
	p.skipNewlines()
	typPos := p.pos
	typ, ok := p.parseType(true)
	if !ok {
		raiseSyntaxError(typPos, synErrNoProductionType)
	}
	p.skipNewlines()
	if !p.consume(tokenKindEqual) {
		raiseSyntaxError(p.pos, synErrNoEqual)
	}
	rhs := []*AlternativeNode{p.parseAlternative()}
	for {
		p.skipNewlines()
		if !p.consume(tokenKindOr) {
			break
		}
		rhs = append(rhs, p.parseAlternative())
	}
	if !p.consume(tokenKindSemicolon) {
		raiseSyntaxError(p.pos, synErrNoSemicolon)
	}

	return &ProductionNode{
		LHS:  lhs,
		Type: typ,
		RHS:  rhs,
		Pos:  lhsPos,
	}
}

func (p *parser) parseAlternative() *AlternativeNode {
	alt := &AlternativeNode{}
	for {
		p.skipNewlines()
		if !p.consume(tokenKindID) {
			break
		}
		alt.Elements = append(alt.Elements, &ElementNode{
			ID:  p.lastTok.text,
			Pos: p.lastTok.pos,
		})
	}

	if p.consume(tokenKindDirectiveMarker) {
		if !p.consume(tokenKindID) || p.lastTok.text != "prec" {
			raiseSyntaxError(p.pos, synErrInvalidPrecMarker)
		}
		p.skipNewlines()
		if !p.consume(tokenKindID) {
			raiseSyntaxError(p.pos, synErrNoPrecSymbol)
		}
		alt.Prec = p.lastTok.text
		alt.PrecPos = p.lastTok.pos
		p.skipNewlines()
	}

	if !p.consume(tokenKindActionOpen) {
		raiseSyntaxError(p.pos, synErrNoAction)
	}
	alt.Action = p.parseAction()
	if len(alt.Elements) > 0 {
		alt.Pos = alt.Elements[0].Pos
	} else {
		alt.Pos = alt.Action.Pos
	}

	return alt
}

// parseAction parses action code following an opening brace.
func (p *parser) parseAction() *ActionNode {
	act := &ActionNode{
		Pos: p.lastTok.pos,
	}
	for {
		switch {
		case p.consume(tokenKindActionText):
			act.Fragments = append(act.Fragments, &ActionFragment{
				Text: p.lastTok.text,
				Pos:  p.lastTok.pos,
			})
		case p.consume(tokenKindPlaceholder):
			act.Fragments = append(act.Fragments, &ActionFragment{
				Placeholder: true,
				Position:    p.lastTok.num,
				Pos:         p.lastTok.pos,
			})
		case p.consume(tokenKindActionClose):
			return act
		default:
			raiseSyntaxError(p.pos, synErrUnclosedAction)
		}
	}
}

// parseType reads a type made of identifiers, integers and type symbols such as `*` and `[]`.
func (p *parser) parseType(skipNewlines bool) (string, bool) {
	var b strings.Builder
	var prev *token
	for {
		if skipNewlines {
			p.skipNewlines()
		}
		if p.consume(tokenKindActionOpen) {
			// Only empty braces such as `interface{}` are allowed in a type.
			if p.consume(tokenKindActionText) && strings.TrimSpace(p.lastTok.text) != "" {
				raiseSyntaxError(p.lastTok.pos, synErrInvalidToken)
			}
			if !p.consume(tokenKindActionClose) {
				raiseSyntaxError(p.pos, synErrUnclosedAction)
			}
			b.WriteString("{}")
			prev = p.lastTok
			continue
		}
		if !p.consume(tokenKindID) && !p.consume(tokenKindInt) && !p.consume(tokenKindTypeSymbol) {
			break
		}
		tok := p.lastTok
		if prev != nil && needsSpace(prev, tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok.text)
		prev = tok
	}
	return b.String(), prev != nil
}

func needsSpace(prev, next *token) bool {
	if prev.kind == tokenKindTypeSymbol && prev.text == ")" && next.kind == tokenKindTypeSymbol && next.text == "(" {
		return true
	}
	if next.kind != tokenKindID && next.kind != tokenKindInt {
		return false
	}
	switch prev.kind {
	case tokenKindID, tokenKindInt:
		return true
	case tokenKindTypeSymbol:
		return prev.text == ")" || prev.text == ","
	}
	return false
}

func (p *parser) skipNewlines() {
	for p.consume(tokenKindNewline) {
	}
}

func (p *parser) peek(expected tokenKind) bool {
	if p.consume(expected) {
		p.peekedTok = p.lastTok
		p.lastTok = nil
		return true
	}
	return false
}

func (p *parser) consume(expected tokenKind) bool {
	var tok *token
	var err error
	if p.peekedTok != nil {
		tok = p.peekedTok
		p.peekedTok = nil
	} else {
		tok, err = p.lex.next()
		if err != nil {
			if specErr, ok := err.(*verr.SpecError); ok {
				panic(specErr)
			}
			panic(&verr.SpecError{
				Cause: err,
				Row:   p.pos.Row,
				Col:   p.pos.Col,
			})
		}
	}
	p.pos = tok.pos
	p.lastTok = tok
	if tok.kind == tokenKindInvalid {
		raiseSyntaxErrorWithDetail(tok.pos, synErrInvalidToken, tok.text)
	}
	if tok.kind == expected {
		return true
	}
	p.peekedTok = tok
	p.lastTok = nil

	return false
}
