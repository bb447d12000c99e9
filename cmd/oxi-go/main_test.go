package main

import (
	"encoding/json"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nihei9/oxi/grammar"
	gparser "github.com/nihei9/oxi/spec/grammar/parser"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const calcGrammar = `
%name calc
%public
%token_type int
%left add
expr : int
    = expr add expr { $1 + $3 }
    | int { $1 }
    ;
`

func writeCompiledGrammar(t *testing.T, dir string) string {
	t.Helper()

	root, err := gparser.Parse(strings.NewReader(calcGrammar))
	require.NoError(t, err)
	b := grammar.GrammarBuilder{
		AST: root,
	}
	gram, err := b.Build()
	require.NoError(t, err)
	cgram, _, err := grammar.Compile(gram)
	require.NoError(t, err)
	data, err := json.Marshal(cgram)
	require.NoError(t, err)

	path := filepath.Join(dir, "calc.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		caption    string
		args       []string
		confSrc    string
		pkgName    string
		entryPoint string
	}{
		{
			caption:    "defaults",
			pkgName:    "main",
			entryPoint: "func Calc(src CalcTokenSource) (int, error)",
		},
		{
			caption:    "flags override the package and the entry point",
			args:       []string{"-p", "calc", "-f", "Eval"},
			pkgName:    "calc",
			entryPoint: "func Eval(src EvalTokenSource) (int, error)",
		},
		{
			caption: "a project file sets the package",
			confSrc: `
[generate]
package = "arith"
`,
			pkgName:    "arith",
			entryPoint: "func Calc(src CalcTokenSource) (int, error)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			dir := t.TempDir()
			cgramPath := writeCompiledGrammar(t, dir)
			args := append([]string{cgramPath, "-o", dir}, tt.args...)
			if tt.confSrc != "" {
				confPath := filepath.Join(dir, "oxi.toml")
				require.NoError(t, os.WriteFile(confPath, []byte(tt.confSrc), 0600))
				args = append(args, "--config", confPath)
			}

			cmd := newGenerateCmd()
			cmd.SetArgs(args)
			require.NoError(t, cmd.Execute())

			src, err := os.ReadFile(filepath.Join(dir, "calc_parser.go"))
			require.NoError(t, err)
			f, err := parser.ParseFile(token.NewFileSet(), "calc_parser.go", src, 0)
			require.NoError(t, err)
			require.Equal(t, tt.pkgName, f.Name.Name)
			require.Contains(t, string(src), tt.entryPoint)
		})
	}
}

func TestGenerate_Error(t *testing.T) {
	dir := t.TempDir()
	cgramPath := writeCompiledGrammar(t, dir)
	noTablesPath := filepath.Join(dir, "no_tables.json")
	require.NoError(t, os.WriteFile(noTablesPath, []byte(`{"name":"calc"}`), 0600))
	notJSONPath := filepath.Join(dir, "calc.oxi")
	require.NoError(t, os.WriteFile(notJSONPath, []byte(calcGrammar), 0600))

	tests := []struct {
		caption string
		args    []string
	}{
		{
			caption: "a missing compiled grammar",
			args:    []string{filepath.Join(dir, "missing.json"), "-o", dir},
		},
		{
			caption: "a grammar without parsing tables",
			args:    []string{noTablesPath, "-o", dir},
		},
		{
			caption: "a grammar source instead of a compiled grammar",
			args:    []string{notJSONPath, "-o", dir},
		},
		{
			caption: "an invalid package name",
			args:    []string{cgramPath, "-o", dir, "-p", "my-pkg"},
		},
		{
			caption: "a missing output directory",
			args:    []string{cgramPath, "-o", filepath.Join(dir, "missing")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			cmd := newGenerateCmd()
			cmd.SetArgs(tt.args)
			require.Error(t, cmd.Execute())
		})
	}
}
