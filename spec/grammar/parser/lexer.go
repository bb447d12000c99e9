package parser

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
	verr "github.com/nihei9/oxi/error"
)

type tokenKind string

const (
	tokenKindID              = tokenKind("id")
	tokenKindInt             = tokenKind("int")
	tokenKindColon           = tokenKind(":")
	tokenKindEqual           = tokenKind("=")
	tokenKindOr              = tokenKind("|")
	tokenKindSemicolon       = tokenKind(";")
	tokenKindDirectiveMarker = tokenKind("%")
	tokenKindTypeSymbol      = tokenKind("type symbol")
	tokenKindActionOpen      = tokenKind("{")
	tokenKindActionClose     = tokenKind("}")
	tokenKindActionText      = tokenKind("action text")
	tokenKindPlaceholder     = tokenKind("$")
	tokenKindNewline         = tokenKind("newline")
	tokenKindEOF             = tokenKind("eof")
	tokenKindInvalid         = tokenKind("invalid")
)

// placeholderSelf is the number of the `$$` placeholder.
const placeholderSelf = 0

type Position struct {
	Row int
	Col int
}

func newPosition(row, col int) Position {
	return Position{
		Row: row,
		Col: col,
	}
}

// token is a lexeme with its kind. num is the number of a placeholder.
type token struct {
	kind tokenKind
	text string
	num  int
	pos  Position
}

const modeAction = mlspec.LexModeName("action")

// lexEntries is the lexical specification of the grammar text. The action mode is pushed by `{` and
// popped by `}`, so braces nested in action code are balanced by the mode stack. Go string and rune
// literals in action code are read whole, so braces and `$` inside them are plain text.
var lexEntries = []*mlspec.LexEntry{
	{Kind: "white_space", Pattern: `[\u{0009}\u{0020}]+`},
	{Kind: "newline", Pattern: `\u{000A}|\u{000D}|\u{000D}\u{000A}`},
	{Kind: "line_comment", Pattern: `//[^\u{000A}\u{000D}]*`},
	{Kind: "identifier", Pattern: `[A-Za-z_][0-9A-Za-z_]*`},
	{Kind: "integer", Pattern: `[0-9]+`},
	{Kind: "colon", Pattern: `:`},
	{Kind: "equal", Pattern: `=`},
	{Kind: "or", Pattern: `\|`},
	{Kind: "semicolon", Pattern: `;`},
	{Kind: "directive_marker", Pattern: `%`},
	{Kind: "type_symbol", Pattern: `\*|\.|\[|]|\(|\)|,`},
	{Kind: "action_open", Pattern: `{`, Push: modeAction},
	{Kind: "action_text", Pattern: "[^{}$\"'`]+", Modes: []mlspec.LexModeName{modeAction}},
	{Kind: "string_literal", Pattern: `"([^"\\\u{000A}]|\\.)*"`, Modes: []mlspec.LexModeName{modeAction}},
	{Kind: "raw_string_literal", Pattern: "`[^`]*`", Modes: []mlspec.LexModeName{modeAction}},
	{Kind: "rune_literal", Pattern: `'([^'\\\u{000A}]|\\.)*'`, Modes: []mlspec.LexModeName{modeAction}},
	{Kind: "nested_action_open", Pattern: `{`, Modes: []mlspec.LexModeName{modeAction}, Push: modeAction},
	{Kind: "action_close", Pattern: `}`, Modes: []mlspec.LexModeName{modeAction}, Pop: true},
	{Kind: "placeholder", Pattern: `$[0-9]+`, Modes: []mlspec.LexModeName{modeAction}},
	{Kind: "self_placeholder", Pattern: `$$`, Modes: []mlspec.LexModeName{modeAction}},
	{Kind: "dollar", Pattern: `$`, Modes: []mlspec.LexModeName{modeAction}},
}

// tokenKinds maps the kinds of lexEntries to token kinds. Braces nested in action code are action text.
var tokenKinds = map[string]tokenKind{
	"newline":            tokenKindNewline,
	"identifier":         tokenKindID,
	"integer":            tokenKindInt,
	"colon":              tokenKindColon,
	"equal":              tokenKindEqual,
	"or":                 tokenKindOr,
	"semicolon":          tokenKindSemicolon,
	"directive_marker":   tokenKindDirectiveMarker,
	"type_symbol":        tokenKindTypeSymbol,
	"action_open":        tokenKindActionOpen,
	"action_close":       tokenKindActionClose,
	"nested_action_open": tokenKindActionText,
	"action_text":        tokenKindActionText,
	"string_literal":     tokenKindActionText,
	"raw_string_literal": tokenKindActionText,
	"rune_literal":       tokenKindActionText,
	"dollar":             tokenKindActionText,
	"placeholder":        tokenKindPlaceholder,
	"self_placeholder":   tokenKindPlaceholder,
}

var grammarLexSpec = struct {
	once   sync.Once
	clspec *mlspec.CompiledLexSpec
	err    error
}{}

func compileGrammarLexSpec() (*mlspec.CompiledLexSpec, error) {
	grammarLexSpec.once.Do(func() {
		clspec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
			Name:    "oxi",
			Entries: lexEntries,
		}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
		for _, cerr := range cErrs {
			err = fmt.Errorf("%w\n%v: %v", err, cerr.Kind, cerr.Cause)
		}
		grammarLexSpec.clspec, grammarLexSpec.err = clspec, err
	})
	return grammarLexSpec.clspec, grammarLexSpec.err
}

type lexer struct {
	clspec *mlspec.CompiledLexSpec
	lex    *mldriver.Lexer
	// pending is a token read ahead while combining newlines.
	pending *token
	// depth is the nesting depth of braces in action code.
	depth int
}

func newLexer(src io.Reader) (*lexer, error) {
	clspec, err := compileGrammarLexSpec()
	if err != nil {
		return nil, err
	}
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(clspec), src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		clspec: clspec,
		lex:    lex,
	}, nil
}

// next returns the next token. A run of newlines, blank lines, and comment lines is one newline token.
func (l *lexer) next() (*token, error) {
	if tok := l.pending; tok != nil {
		l.pending = nil
		return tok, nil
	}
	tok, err := l.read()
	if err != nil || tok.kind != tokenKindNewline {
		return tok, err
	}
	for {
		following, err := l.read()
		if err != nil {
			return nil, err
		}
		if following.kind != tokenKindNewline {
			l.pending = following
			return tok, nil
		}
	}
}

func (l *lexer) read() (*token, error) {
	for {
		mtok, err := l.lex.Next()
		if err != nil {
			return nil, err
		}
		tok := &token{
			text: string(mtok.Lexeme),
			pos:  newPosition(mtok.Row+1, mtok.Col+1),
		}
		switch {
		case mtok.Invalid:
			tok.kind = tokenKindInvalid
			return tok, nil
		case mtok.EOF && l.depth > 0:
			return nil, &verr.SpecError{
				Cause: synErrUnclosedAction,
				Row:   tok.pos.Row,
				Col:   tok.pos.Col,
			}
		case mtok.EOF:
			tok.kind = tokenKindEOF
			return tok, nil
		}

		kind := l.clspec.KindNames[mtok.KindID].String()
		if kind == "white_space" || kind == "line_comment" {
			continue
		}
		var ok bool
		tok.kind, ok = tokenKinds[kind]
		if !ok {
			tok.kind = tokenKindInvalid
		}
		switch kind {
		case "action_open":
			l.depth = 1
		case "nested_action_open":
			l.depth++
		case "action_close":
			l.depth--
			if l.depth > 0 {
				tok.kind = tokenKindActionText
			}
		case "placeholder":
			tok.num, err = strconv.Atoi(tok.text[1:])
			if err != nil {
				return nil, err
			}
			if tok.num == 0 {
				return nil, &verr.SpecError{
					Cause: synErrZeroPos,
					Row:   tok.pos.Row,
					Col:   tok.pos.Col,
				}
			}
		case "self_placeholder":
			tok.num = placeholderSelf
		}
		return tok, nil
	}
}
