package tester

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nihei9/oxi/driver/parser"
	gspec "github.com/nihei9/oxi/spec/grammar"
	tspec "github.com/nihei9/oxi/spec/test"
	"github.com/pingcap/errors"
	"go.uber.org/multierr"
)

// Case is a test case read from Path. Error is set when the file cannot be read or parsed.
type Case struct {
	Path     string
	TestCase *tspec.TestCase
	Error    error
}

// ListTestCases reads a test case file, or every file under a directory.
func ListTestCases(root string) []*Case {
	var cs []*Case
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			cs = append(cs, &Case{Path: path, Error: err})
		case !d.IsDir():
			c := &Case{Path: path}
			c.TestCase, c.Error = readTestCase(path)
			cs = append(cs, c)
		}
		return nil
	})
	if err != nil {
		cs = append(cs, &Case{Path: root, Error: err})
	}
	return cs
}

func readTestCase(path string) (_ *tspec.TestCase, retErr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()
	c, err := tspec.ParseTestCase(f)
	if err != nil {
		return nil, errors.Annotate(err, "invalid test case")
	}
	return c, nil
}

type Result struct {
	Path  string
	Error error
	Diffs []*tspec.TreeDiff
}

func (r *Result) String() string {
	if r.Error == nil {
		return "Passed " + r.Path
	}
	const indent = "    "
	var b strings.Builder
	fmt.Fprintf(&b, "Failed %v:\n%v%v", r.Path, indent, strings.ReplaceAll(r.Error.Error(), "\n", "\n"+indent))
	for _, d := range r.Diffs {
		fmt.Fprintf(&b, "\n%[1]v%[1]v%v", indent, d.Message)
		fmt.Fprintf(&b, "\n%[1]v%[1]v%[1]vexpected path: %v", indent, d.ExpectedPath)
		fmt.Fprintf(&b, "\n%[1]v%[1]v%[1]vactual path:   %v", indent, d.ActualPath)
	}
	return b.String()
}

// Tester parses the source of each case as a list of words, e.g. `int:1 add:+ int:2`, and compares the
// syntax tree with the expected one.
type Tester struct {
	Grammar *gspec.CompiledGrammar
	Cases   []*Case
}

func (t *Tester) Run() []*Result {
	tab, err := parser.NewTables(t.Grammar)
	rs := make([]*Result, len(t.Cases))
	for i, c := range t.Cases {
		rs[i] = &Result{
			Path:  c.Path,
			Error: err,
		}
		if err == nil {
			rs[i].Diffs, rs[i].Error = runCase(tab, c.TestCase)
		}
	}
	return rs
}

func runCase(tab *parser.Tables, c *tspec.TestCase) ([]*tspec.TreeDiff, error) {
	src, err := parser.NewWordSource(tab, bytes.NewReader(c.Source))
	if err != nil {
		return nil, err
	}
	b := parser.NewTreeBuilder(tab)
	if err := parser.NewParser(tab, src, parser.WithListener(b)).Parse(); err != nil {
		return nil, err
	}
	diffs := tspec.DiffTree(c.Output, toTestTree(b.Tree()))
	if len(diffs) > 0 {
		return diffs, errors.New("output mismatch")
	}
	return nil, nil
}

func toTestTree(n *parser.Node) *tspec.Tree {
	if n.Terminal {
		return tspec.NewLeaf(n.Kind, n.Text)
	}
	t := tspec.NewTree(n.Kind)
	for _, c := range n.Children {
		t.Children = append(t.Children, toTestTree(c))
	}
	return t
}
