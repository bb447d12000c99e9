package emitter

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const runnableCalcGrammar = `
%name calc
%token_type Token
%left add sub
%left mul div
%right pow
expr : int
    = expr add expr { $1 + $3 }
    | expr sub expr { $1 - $3 }
    | expr mul expr { $1 * $3 }
    | expr div expr { $1 / $3 }
    | expr pow expr { ipow($1, $3) }
    | l_paren expr r_paren { $2 }
    | num { atoi($1.Text) }
    ;
`

// calcMain feeds each command-line argument to the generated parser as a space-separated list of tokens.
const calcMain = `package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

type Token struct {
	Text string
}

type wordSource struct {
	words []string
}

func (s *wordSource) Next() (Token, int, error) {
	if len(s.words) == 0 {
		return Token{}, calcKindEOF, nil
	}
	w := s.words[0]
	s.words = s.words[1:]
	kinds := map[string]int{
		"+": calcKindAdd,
		"-": calcKindSub,
		"*": calcKindMul,
		"/": calcKindDiv,
		"^": calcKindPow,
		"(": calcKindLParen,
		")": calcKindRParen,
	}
	if kind, ok := kinds[w]; ok {
		return Token{Text: w}, kind, nil
	}
	return Token{Text: w}, calcKindNum, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func ipow(b, e int) int {
	v := 1
	for ; e > 0; e-- {
		v *= b
	}
	return v
}

func main() {
	for _, arg := range os.Args[1:] {
		v, err := calc(&wordSource{words: strings.Fields(arg)})
		if err != nil {
			if synErr, ok := err.(*calcSyntaxError); ok {
				sort.Strings(synErr.Expected)
				fmt.Printf("%v = syntax error: %v\n", arg, strings.Join(synErr.Expected, " "))
				continue
			}
			fmt.Printf("%v = error: %v\n", arg, err)
			continue
		}
		fmt.Printf("%v = %v\n", arg, v)
	}
}
`

func TestGenParser_Run(t *testing.T) {
	goCmd, err := exec.LookPath("go")
	if err != nil {
		t.Skip("the go command is not available")
	}
	if testing.Short() {
		t.Skip("building a generated parser takes a while")
	}

	src, err := GenParser(compileTestGrammar(t, runnableCalcGrammar))
	require.NoError(t, err)

	dir := t.TempDir()
	for name, content := range map[string]string{
		"go.mod":  "module calc\n\ngo 1.18\n",
		"calc.go": string(src),
		"main.go": calcMain,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}

	cmd := exec.Command(goCmd, "run", ".",
		"1 + 2 * 3",
		"2 ^ 3 ^ 2",
		"( 1 + 2 ) * 3",
		"10 - 4 - 3",
		"1 +",
		"( 1",
	)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK=off", "GOFLAGS=-mod=mod")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Equal(t, []string{
		"1 + 2 * 3 = 7",
		"2 ^ 3 ^ 2 = 512",
		"( 1 + 2 ) * 3 = 9",
		"10 - 4 - 3 = 3",
		"1 + = syntax error: l_paren num",
		"( 1 = syntax error: add div mul pow r_paren sub",
	}, lines)
}
