package test

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	mlspec "github.com/nihei9/maleeni/spec"
	dparser "github.com/nihei9/oxi/driver/parser"
	"github.com/nihei9/oxi/grammar"
	"github.com/nihei9/oxi/spec/grammar/parser"
)

// Tree is an expected syntax tree. The kind `_` matches any kind, and a node without a lexeme matches any
// lexeme.
type Tree struct {
	Kind     string
	Lexeme   string
	Children []*Tree
}

func NewTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewLeaf(kind string, lexeme string) *Tree {
	return &Tree{
		Kind:   kind,
		Lexeme: lexeme,
	}
}

// Format writes a tree in the notation of test cases, one node per line.
func (t *Tree) Format() []byte {
	var b bytes.Buffer
	var write func(t *Tree, indent string)
	write = func(t *Tree, indent string) {
		fmt.Fprintf(&b, "%v(%v", indent, t.Kind)
		if t.Lexeme != "" {
			fmt.Fprintf(&b, " %q", t.Lexeme)
		}
		for _, c := range t.Children {
			b.WriteByte('\n')
			write(c, indent+"    ")
		}
		b.WriteByte(')')
	}
	write(t, "")
	return b.Bytes()
}

// TreeDiff locates a difference by the paths from the roots, e.g. `expr.[2]expr.[0]int`.
type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func DiffTree(expected, actual *Tree) []*TreeDiff {
	return diffTree(expected, actual, expected.Kind, actual.Kind)
}

func diffTree(expected, actual *Tree, expPath, actPath string) []*TreeDiff {
	diff := func(format string, a ...interface{}) []*TreeDiff {
		return []*TreeDiff{
			{
				ExpectedPath: expPath,
				ActualPath:   actPath,
				Message:      fmt.Sprintf(format, a...),
			},
		}
	}
	switch {
	case expected.Kind != "_" && expected.Kind != actual.Kind:
		return diff("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
	case expected.Lexeme != "" && expected.Lexeme != actual.Lexeme:
		return diff("unexpected lexeme: expected '%v' but got '%v'", expected.Lexeme, actual.Lexeme)
	case len(expected.Children) != len(actual.Children):
		return diff("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
	}

	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		act := actual.Children[i]
		diffs = append(diffs, diffTree(exp, act,
			fmt.Sprintf("%v.[%v]%v", expPath, i, exp.Kind),
			fmt.Sprintf("%v.[%v]%v", actPath, i, act.Kind))...)
	}
	return diffs
}

// TestCase is a description, a source, and an expected tree, separated by lines of three or more hyphens.
type TestCase struct {
	Description string
	Source      []byte
	Output      *Tree
}

var delimiterPattern = regexp.MustCompile(`^\s*---+\s*$`)

type testCasePart struct {
	firstLine int
	lines     []string
}

func (p *testCasePart) text() string {
	return strings.Join(p.lines, "\n")
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	parts := []*testCasePart{{}}
	for i, line := range strings.Split(strings.TrimSuffix(string(src), "\n"), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if delimiterPattern.MatchString(line) {
			parts = append(parts, &testCasePart{
				firstLine: i + 1,
			})
			continue
		}
		last := parts[len(parts)-1]
		last.lines = append(last.lines, line)
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("a test case consists of a description, a source, and an expected tree separated by delimiters: %v parts found", len(parts))
	}

	tree, err := parseTree(parts[2].text(), parts[2].firstLine)
	if err != nil {
		return nil, err
	}
	return &TestCase{
		Description: parts[0].text(),
		Source:      []byte(parts[1].text()),
		Output:      tree,
	}, nil
}

// treeGrammar is the notation of expected trees, e.g. `(expr (expr (int "1")) (add) (expr (int)))`. The
// notation is parsed with the tables this module generates for it.
const treeGrammar = `
%name tree
%token_type string
tree : int
    = l_paren identifier r_paren { 0 }
    | l_paren identifier string r_paren { 0 }
    | l_paren identifier trees r_paren { 0 }
    ;
trees : int
    = trees tree { 0 }
    | tree { 0 }
    ;
`

// A string has no escape sequences, so a lexeme in a tree cannot contain a double quote.
var treeLexEntries = []*mlspec.LexEntry{
	{Kind: "white_space", Pattern: `[\u{0009}\u{000A}\u{000D}\u{0020}]+`},
	{Kind: "l_paren", Pattern: `\(`},
	{Kind: "r_paren", Pattern: `\)`},
	{Kind: "identifier", Pattern: `[A-Za-z_][0-9A-Za-z_]*`},
	{Kind: "string", Pattern: `\u{0022}[^\u{0022}]*\u{0022}`},
}

var treeNotation = struct {
	once   sync.Once
	tab    *dparser.Tables
	clspec *mlspec.CompiledLexSpec
	err    error
}{}

func loadTreeNotation() (*dparser.Tables, *mlspec.CompiledLexSpec, error) {
	treeNotation.once.Do(func() {
		root, err := parser.Parse(strings.NewReader(treeGrammar))
		if err != nil {
			treeNotation.err = err
			return
		}
		b := grammar.GrammarBuilder{
			AST: root,
		}
		gram, err := b.Build()
		if err != nil {
			treeNotation.err = err
			return
		}
		cgram, _, err := grammar.Compile(gram)
		if err != nil {
			treeNotation.err = err
			return
		}
		treeNotation.tab, treeNotation.err = dparser.NewTables(cgram)
		if treeNotation.err != nil {
			return
		}
		treeNotation.clspec, treeNotation.err = dparser.CompileLexSpec("tree", treeLexEntries)
	})
	return treeNotation.tab, treeNotation.clspec, treeNotation.err
}

// parseTree parses the expected tree of a test case. Rows in errors count from the top of the test case.
func parseTree(src string, lineOffset int) (*Tree, error) {
	tab, clspec, err := loadTreeNotation()
	if err != nil {
		return nil, err
	}
	toks, err := dparser.NewLexSource(tab, clspec, strings.NewReader(src), "white_space")
	if err != nil {
		return nil, err
	}
	b := dparser.NewTreeBuilder(tab)
	err = dparser.NewParser(tab, toks, dparser.WithListener(b)).Parse()
	if synErr, ok := err.(*dparser.SyntaxError); ok {
		synErr.Token.Row += lineOffset
		return nil, synErr
	}
	if err != nil {
		return nil, err
	}
	return fromCST(b.Tree()), nil
}

// fromCST converts a `tree` node whose children are `( identifier )`, `( identifier string )`, or
// `( identifier trees )`.
func fromCST(node *dparser.Node) *Tree {
	t := NewTree(node.Children[1].Text)
	switch c := node.Children[2]; c.Kind {
	case "string":
		t.Lexeme = strings.Trim(c.Text, `"`)
	case "trees":
		for c.Kind == "trees" && len(c.Children) == 2 {
			t.Children = append([]*Tree{fromCST(c.Children[1])}, t.Children...)
			c = c.Children[0]
		}
		t.Children = append([]*Tree{fromCST(c.Children[0])}, t.Children...)
	}
	return t
}
