package parser

import (
	"fmt"
	"strings"
	"testing"

	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/nihei9/oxi/grammar"
	spec "github.com/nihei9/oxi/spec/grammar"
	"github.com/nihei9/oxi/spec/grammar/parser"
	"github.com/stretchr/testify/require"
)

func genTestTables(t *testing.T, src string) *Tables {
	t.Helper()

	ast, err := parser.Parse(strings.NewReader(src))
	require.NoError(t, err)
	b := grammar.GrammarBuilder{
		AST: ast,
	}
	gram, err := b.Build()
	require.NoError(t, err)
	cg, _, err := grammar.Compile(gram)
	require.NoError(t, err)
	tab, err := NewTables(cg)
	require.NoError(t, err)
	return tab
}

func leaf(kind string, text string) *Node {
	return &Node{
		Kind:     kind,
		Terminal: true,
		Text:     text,
	}
}

func branch(kind string, children ...*Node) *Node {
	return &Node{
		Kind:     kind,
		Children: children,
	}
}

// withoutPositions drops the positions of terminal nodes so that trees can be compared by shape.
func withoutPositions(n *Node) *Node {
	c := *n
	c.Row, c.Col = 0, 0
	c.Children = nil
	for _, child := range n.Children {
		c.Children = append(c.Children, withoutPositions(child))
	}
	return &c
}

func parseWords(t *testing.T, tab *Tables, src string, opts ...Option) (*Node, error) {
	t.Helper()

	toks, err := NewWordSource(tab, strings.NewReader(src))
	require.NoError(t, err)
	b := NewTreeBuilder(tab)
	err = NewParser(tab, toks, append(opts, WithListener(b))...).Parse()
	if err != nil {
		require.Nil(t, b.Tree())
		return nil, err
	}
	require.NotNil(t, b.Tree())
	return b.Tree(), nil
}

const arithmetic = `
%name calc
%token_type int
%left add sub
%left mul div
expr : int
    = expr add expr { $1 + $3 }
    | expr sub expr { $1 - $3 }
    | expr mul expr { $1 * $3 }
    | expr div expr { $1 / $3 }
    | l_paren expr r_paren { $2 }
    | int { $1 }
    ;
`

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		caption string
		specSrc string
		src     string
		cst     *Node
	}{
		{
			caption: "parentheses take priority over precedence",
			specSrc: arithmetic,
			src:     `int:1 add:+ l_paren:( int:2 mul:* int:3 r_paren:)`,
			cst: branch("expr",
				branch("expr",
					leaf("int", "1"),
				),
				leaf("add", "+"),
				branch("expr",
					leaf("l_paren", "("),
					branch("expr",
						branch("expr",
							leaf("int", "2"),
						),
						leaf("mul", "*"),
						branch("expr",
							leaf("int", "3"),
						),
					),
					leaf("r_paren", ")"),
				),
			),
		},
		{
			caption: "left associativities declared later have higher precedence",
			specSrc: arithmetic,
			src:     `int:a add:+ int:b mul:* int:c mul:* int:d add:+ int:e`,
			cst: branch("expr",
				branch("expr",
					branch("expr",
						leaf("int", "a"),
					),
					leaf("add", "+"),
					branch("expr",
						branch("expr",
							branch("expr",
								leaf("int", "b"),
							),
							leaf("mul", "*"),
							branch("expr",
								leaf("int", "c"),
							),
						),
						leaf("mul", "*"),
						branch("expr",
							leaf("int", "d"),
						),
					),
				),
				leaf("add", "+"),
				branch("expr",
					leaf("int", "e"),
				),
			),
		},
		{
			caption: "left associativities declared in the same directive have the same precedence",
			specSrc: arithmetic,
			src:     `int:a sub:- int:b add:+ int:c`,
			cst: branch("expr",
				branch("expr",
					branch("expr",
						leaf("int", "a"),
					),
					leaf("sub", "-"),
					branch("expr",
						leaf("int", "b"),
					),
				),
				leaf("add", "+"),
				branch("expr",
					leaf("int", "c"),
				),
			),
		},
		{
			caption: "a stratified grammar builds the times subtree before the plus reduction",
			specSrc: `
%token_type int
%left times
%left plus
exp : int = term { 1 } | exp plus term { $1 + $3 };
term : int = factor { 1 } | term times factor { $1 * $3 };
factor : int = int { $1 };
`,
			src: `int:1 plus:+ int:2 times:* int:3`,
			cst: branch("exp",
				branch("exp",
					branch("term",
						branch("factor",
							leaf("int", "1"),
						),
					),
				),
				leaf("plus", "+"),
				branch("term",
					branch("term",
						branch("factor",
							leaf("int", "2"),
						),
					),
					leaf("times", "*"),
					branch("factor",
						leaf("int", "3"),
					),
				),
			),
		},
		{
			caption: "a right associativity shifts at the same level",
			specSrc: `
%token_type int
%right assign
expr : int = expr assign expr { $3 } | id { 0 };
`,
			src: `id:foo assign:= id:bar assign:= id:baz`,
			cst: branch("expr",
				branch("expr",
					leaf("id", "foo"),
				),
				leaf("assign", "="),
				branch("expr",
					branch("expr",
						leaf("id", "bar"),
					),
					leaf("assign", "="),
					branch("expr",
						leaf("id", "baz"),
					),
				),
			),
		},
		{
			caption: "%prec gives a unary minus higher precedence than binary operators",
			specSrc: `
%token_type int
%left sub
%left mul
%precedence neg
expr : int = sub expr %prec neg { -$2 } | expr sub expr { $1 - $3 } | expr mul expr { $1 * $3 } | int { $1 };
`,
			src: `sub:- int:1 mul:* int:2`,
			cst: branch("expr",
				branch("expr",
					leaf("sub", "-"),
					branch("expr",
						leaf("int", "1"),
					),
				),
				leaf("mul", "*"),
				branch("expr",
					leaf("int", "2"),
				),
			),
		},
		{
			caption: "when a reduce/reduce conflict occurred, the production declared earlier is adopted",
			specSrc: `
%token_type int
s : int = a { $1 } | b { $1 };
a : int = id { 1 };
b : int = id { 2 };
`,
			src: `id:foo`,
			cst: branch("s",
				branch("a",
					leaf("id", "foo"),
				),
			),
		},
		{
			caption: "an empty alternative makes a node without children",
			specSrc: `
%token_type int
list : []int = list item { append($1, $2) } | { nil };
item : int = num { $1 };
`,
			src: `num:1 num:2`,
			cst: branch("list",
				branch("list",
					branch("list"),
					branch("item",
						leaf("num", "1"),
					),
				),
				branch("item",
					leaf("num", "2"),
				),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tree, err := parseWords(t, genTestTables(t, tt.specSrc), tt.src)
			require.NoError(t, err)
			require.Equal(t, tt.cst, withoutPositions(tree))
		})
	}
}

func TestParser_SyntaxError(t *testing.T) {
	tests := []struct {
		caption  string
		specSrc  string
		src      string
		row      int
		col      int
		lexeme   string
		expected []string
	}{
		{
			caption:  "an operator cannot follow an operator",
			specSrc:  arithmetic,
			src:      `int:1 add:+ add:+`,
			row:      1,
			col:      13,
			lexeme:   "+",
			expected: []string{"l_paren", "int"},
		},
		{
			caption:  "an input cannot end with an operator",
			specSrc:  arithmetic,
			src:      `int:1 mul:*`,
			expected: []string{"l_paren", "int"},
		},
		{
			caption: "a word that isn't a terminal is an invalid token",
			specSrc: arithmetic,
			src: `int:1
foo`,
			row:      2,
			col:      1,
			lexeme:   "foo",
			expected: []string{"<eof>", "add", "sub", "mul", "div"},
		},
		{
			caption: "%nonassoc makes a chain of the operator an error",
			specSrc: `
%token_type bool
%nonassoc lt
expr : bool = expr lt expr { $1 < $3 } | int { $1 };
`,
			src:      `int:1 lt:< int:2 lt:< int:3`,
			row:      1,
			col:      18,
			lexeme:   "<",
			expected: []string{"<eof>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := parseWords(t, genTestTables(t, tt.specSrc), tt.src)
			synErr, ok := err.(*SyntaxError)
			require.True(t, ok, "%T: %v", err, err)
			require.Equal(t, tt.expected, synErr.Expected)
			if tt.lexeme != "" {
				require.Equal(t, tt.row, synErr.Token.Row)
				require.Equal(t, tt.col, synErr.Token.Col)
				require.Equal(t, tt.lexeme, string(synErr.Token.Lexeme))
			} else {
				require.True(t, synErr.Token.EOF)
			}
		})
	}
}

func TestSyntaxError_Error(t *testing.T) {
	tests := []struct {
		caption string
		err     *SyntaxError
		message string
	}{
		{
			caption: "a terminal is named after its lexeme",
			err: &SyntaxError{
				Token:    &Token{Terminal: 2, Lexeme: []byte("+"), Row: 1, Col: 3},
				Name:     "add",
				Expected: []string{"int", "l_paren"},
			},
			message: "1:3: unexpected token: '+' (add); expected: int, l_paren",
		},
		{
			caption: "a token matching no terminal is invalid",
			err: &SyntaxError{
				Token: &Token{Lexeme: []byte("@"), Row: 2, Col: 1},
			},
			message: "2:1: unexpected token: '@' (<invalid>)",
		},
		{
			caption: "the end of input",
			err: &SyntaxError{
				Token:    &Token{EOF: true, Row: 1, Col: 6},
				Expected: []string{"int"},
			},
			message: "1:6: unexpected token: <eof>; expected: int",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			require.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestNewLexSource(t *testing.T) {
	tab := genTestTables(t, arithmetic)
	clspec, err := CompileLexSpec("calc", []*mlspec.LexEntry{
		{Kind: "ws", Pattern: `[\u{0009}\u{0020}]+`},
		{Kind: "int", Pattern: `[0-9]+`},
		{Kind: "add", Pattern: `\+`},
		{Kind: "mul", Pattern: `\*`},
		{Kind: "l_paren", Pattern: `\(`},
		{Kind: "r_paren", Pattern: `\)`},
		{Kind: "mod", Pattern: `%`},
	})
	require.NoError(t, err)

	tests := []struct {
		caption string
		src     string
		cst     *Node
		errCol  int
	}{
		{
			caption: "skipped kinds don't reach the parser",
			src:     "1 + (2)",
			cst: branch("expr",
				branch("expr",
					leaf("int", "1"),
				),
				leaf("add", "+"),
				branch("expr",
					leaf("l_paren", "("),
					branch("expr",
						leaf("int", "2"),
					),
					leaf("r_paren", ")"),
				),
			),
		},
		{
			caption: "a kind that isn't a terminal is an invalid token",
			src:     "1 % 2",
			errCol:  3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			toks, err := NewLexSource(tab, clspec, strings.NewReader(tt.src), "ws")
			require.NoError(t, err)

			b := NewTreeBuilder(tab)
			err = NewParser(tab, toks, WithListener(b)).Parse()
			if tt.cst == nil {
				synErr, ok := err.(*SyntaxError)
				require.True(t, ok, "%T: %v", err, err)
				require.Zero(t, synErr.Token.Terminal)
				require.Equal(t, tt.errCol, synErr.Token.Col)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.cst, withoutPositions(b.Tree()))
		})
	}
}

type moveLog struct {
	tab   *Tables
	moves []string
}

func (l *moveLog) Shift(tok *Token) {
	l.moves = append(l.moves, fmt.Sprintf("shift/%v", l.tab.TerminalName(tok.Terminal)))
}

func (l *moveLog) Reduce(prod int) {
	lhs, _ := l.tab.LHS(prod)
	l.moves = append(l.moves, fmt.Sprintf("reduce/%v", l.tab.NonTerminalName(lhs)))
}

func (l *moveLog) Accept() {
	l.moves = append(l.moves, "accept")
}

func TestParser_LAC(t *testing.T) {
	tab := genTestTables(t, `
%token_type int
s : int = t t { 0 };
t : int = c t { 0 } | d { 0 };
`)

	tests := []struct {
		caption  string
		opts     []Option
		moves    []string
		expected []string
	}{
		{
			caption: "the parser doesn't reduce on a token it cannot shift",
			moves: []string{
				"shift/c",
				"shift/c",
				"shift/d",
			},
			expected: []string{"c", "d"},
		},
		{
			caption: "without LAC, the parser reduces before it finds the error",
			opts:    []Option{WithoutLAC()},
			moves: []string{
				"shift/c",
				"shift/c",
				"shift/d",
				"reduce/t",
				"reduce/t",
				"reduce/t",
			},
			expected: []string{"c", "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			log := &moveLog{
				tab: tab,
			}
			toks, err := NewWordSource(tab, strings.NewReader("c c d"))
			require.NoError(t, err)
			err = NewParser(tab, toks, append(tt.opts, WithListener(log))...).Parse()
			synErr, ok := err.(*SyntaxError)
			require.True(t, ok, "%T: %v", err, err)
			require.True(t, synErr.Token.EOF)
			require.Equal(t, tt.moves, log.moves)
			require.Equal(t, tt.expected, synErr.Expected)
		})
	}
}

func TestParser_Accept(t *testing.T) {
	tab := genTestTables(t, arithmetic)
	log := &moveLog{
		tab: tab,
	}
	toks, err := NewWordSource(tab, strings.NewReader("int"))
	require.NoError(t, err)
	require.NoError(t, NewParser(tab, toks, WithListener(log)).Parse())
	require.Equal(t, []string{"shift/int", "reduce/expr", "accept"}, log.moves)
}

func TestNewTables_Error(t *testing.T) {
	_, err := NewTables(&spec.CompiledGrammar{
		Name: "empty",
	})
	require.Error(t, err)

	_, err = NewTables(&spec.CompiledGrammar{
		Name: "broken",
		Syntactic: &spec.SyntacticSpec{
			Action:        []int{0, 0, 0},
			StateCount:    1,
			TerminalCount: 2,
			Terminals:     []string{"", "<eof>"},
		},
	})
	require.Error(t, err)
}

func TestPrintTree(t *testing.T) {
	tree := branch("expr",
		branch("expr",
			leaf("int", "1"),
		),
		leaf("add", "+"),
		branch("expr",
			branch("list"),
			leaf("int", "2"),
		),
	)

	var b strings.Builder
	require.NoError(t, PrintTree(&b, tree))
	require.Equal(t, `expr
├─ expr
│  └─ int "1"
├─ add "+"
└─ expr
   ├─ list
   └─ int "2"
`, b.String())
}
