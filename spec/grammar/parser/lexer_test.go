package parser

import (
	"strings"
	"testing"

	verr "github.com/nihei9/oxi/error"
)

func TestLexer_Run(t *testing.T) {
	tok := func(kind tokenKind, text string) *token {
		return &token{
			kind: kind,
			text: text,
		}
	}
	idTok := func(text string) *token {
		return tok(tokenKindID, text)
	}
	typTok := func(text string) *token {
		return tok(tokenKindTypeSymbol, text)
	}
	textTok := func(text string) *token {
		return tok(tokenKindActionText, text)
	}
	phTok := func(text string, num int) *token {
		return &token{
			kind: tokenKindPlaceholder,
			text: text,
			num:  num,
		}
	}
	open := tok(tokenKindActionOpen, "{")
	closing := tok(tokenKindActionClose, "}")
	eof := tok(tokenKindEOF, "")

	tests := []struct {
		caption string
		src     string
		tokens  []*token
		err     error
	}{
		{
			caption: "the lexer can recognize all kinds of tokens",
			src:     "id 12 : = | ; % * . [ ] ( ) , { a $1 $$ $ } // comment\n\n x",
			tokens: []*token{
				idTok("id"),
				tok(tokenKindInt, "12"),
				tok(tokenKindColon, ":"),
				tok(tokenKindEqual, "="),
				tok(tokenKindOr, "|"),
				tok(tokenKindSemicolon, ";"),
				tok(tokenKindDirectiveMarker, "%"),
				typTok("*"),
				typTok("."),
				typTok("["),
				typTok("]"),
				typTok("("),
				typTok(")"),
				typTok(","),
				open,
				textTok(" a "),
				phTok("$1", 1),
				textTok(" "),
				phTok("$$", placeholderSelf),
				textTok(" "),
				textTok("$"),
				textTok(" "),
				closing,
				tok(tokenKindNewline, "\n"),
				idTok("x"),
				eof,
			},
		},
		{
			caption: "a directive name is an identifier following a directive marker",
			src:     `%precedence %prec`,
			tokens: []*token{
				tok(tokenKindDirectiveMarker, "%"),
				idTok("precedence"),
				tok(tokenKindDirectiveMarker, "%"),
				idTok("prec"),
				eof,
			},
		},
		{
			caption: "nested braces in action code are kept as text",
			src:     `{ if x { y } }`,
			tokens: []*token{
				open,
				textTok(" if x "),
				textTok("{"),
				textTok(" y "),
				textTok("}"),
				textTok(" "),
				closing,
				eof,
			},
		},
		{
			caption: "a brace in a string literal doesn't close action code",
			src:     `{ x + "}" }`,
			tokens: []*token{
				open,
				textTok(" x + "),
				textTok(`"}"`),
				textTok(" "),
				closing,
				eof,
			},
		},
		{
			caption: "a string literal can contain an escaped quote",
			src:     `{ "a\"}" }`,
			tokens: []*token{
				open,
				textTok(" "),
				textTok(`"a\"}"`),
				textTok(" "),
				closing,
				eof,
			},
		},
		{
			caption: "a brace in a rune literal doesn't open nested action code",
			src:     `{ r == '{' }`,
			tokens: []*token{
				open,
				textTok(" r == "),
				textTok(`'{'`),
				textTok(" "),
				closing,
				eof,
			},
		},
		{
			caption: "a raw string literal is kept whole including braces and placeholders",
			src:     "{ `{ $1 }\n}` }",
			tokens: []*token{
				open,
				textTok(" "),
				textTok("`{ $1 }\n}`"),
				textTok(" "),
				closing,
				eof,
			},
		},
		{
			caption: "action code can contain newlines and comment-like text",
			src:     "{ a\n// b\n}",
			tokens: []*token{
				open,
				textTok(" a\n// b\n"),
				closing,
				eof,
			},
		},
		{
			caption: "multi-digit placeholders are recognized",
			src:     `{$12}`,
			tokens: []*token{
				open,
				phTok("$12", 12),
				closing,
				eof,
			},
		},
		{
			caption: "consecutive newlines are combined into one token",
			src:     "a\n\n\r\n  \n b",
			tokens: []*token{
				idTok("a"),
				tok(tokenKindNewline, "\n"),
				idTok("b"),
				eof,
			},
		},
		{
			caption: "an unknown character is an invalid token",
			src:     `a @`,
			tokens: []*token{
				idTok("a"),
				tok(tokenKindInvalid, "@"),
			},
		},
		{
			caption: "the lexer reports $0",
			src:     `{ $0 }`,
			tokens: []*token{
				open,
				textTok(" "),
			},
			err: synErrZeroPos,
		},
		{
			caption: "the lexer reports unclosed action code",
			src:     `{ a { b }`,
			tokens: []*token{
				open,
				textTok(" a "),
				textTok("{"),
				textTok(" b "),
				textTok("}"),
			},
			err: synErrUnclosedAction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			l, err := newLexer(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			n := 0
			for {
				var tok *token
				tok, err = l.next()
				if err != nil {
					break
				}
				if n >= len(tt.tokens) {
					t.Fatalf("too many tokens; got: %+v", tok)
				}
				testToken(t, tok, tt.tokens[n])
				n++
				if tok.kind == tokenKindEOF || tok.kind == tokenKindInvalid {
					break
				}
			}
			if n != len(tt.tokens) {
				t.Fatalf("unexpected token count; want: %v, got: %v", len(tt.tokens), n)
			}
			if tt.err != nil {
				synErr, ok := err.(*verr.SpecError)
				if !ok {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
				}
				if tt.err != synErr.Cause {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, synErr.Cause)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
				}
			}
		})
	}
}

func TestLexer_Position(t *testing.T) {
	l, err := newLexer(strings.NewReader("a\n  b"))
	if err != nil {
		t.Fatal(err)
	}
	expected := []Position{
		newPosition(1, 1),
		newPosition(1, 2),
		newPosition(2, 3),
	}
	for _, pos := range expected {
		tok, err := l.next()
		if err != nil {
			t.Fatal(err)
		}
		if tok.pos != pos {
			t.Fatalf("unexpected position; want: %+v, got: %+v", pos, tok.pos)
		}
	}
}

func testToken(t *testing.T, tok, expected *token) {
	t.Helper()
	if tok.kind != expected.kind || tok.text != expected.text || tok.num != expected.num {
		t.Fatalf("unexpected token; want: %+v, got: %+v", expected, tok)
	}
}
