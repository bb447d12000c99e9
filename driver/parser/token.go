package parser

import (
	"fmt"
	"io"
	"strings"
	"sync"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

// CompileLexSpec compiles maleeni lexical entries. The kinds of the entries are meant to be terminal names.
func CompileLexSpec(name string, entries []*mlspec.LexEntry) (*mlspec.CompiledLexSpec, error) {
	clspec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    name,
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err == nil {
		return clspec, nil
	}
	if len(cErrs) == 0 {
		return nil, err
	}
	msgs := make([]string, len(cErrs))
	for i, cerr := range cErrs {
		msgs[i] = fmt.Sprintf("%v: %v", cerr.Kind, cerr.Cause)
	}
	return nil, fmt.Errorf("cannot compile the lexical specification %v:\n%v", name, strings.Join(msgs, "\n"))
}

type lexSource struct {
	tab   *Tables
	lex   *mldriver.Lexer
	kinds []string
	skip  map[string]bool
	// word splits a `name:lexeme` lexeme into a terminal name and its lexeme.
	word bool
}

// NewLexSource reads tokens with a maleeni lexer. A token's kind names its terminal, and tokens of the skip
// kinds are dropped.
func NewLexSource(tab *Tables, clspec *mlspec.CompiledLexSpec, src io.Reader, skip ...string) (TokenSource, error) {
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(clspec), src)
	if err != nil {
		return nil, err
	}
	s := &lexSource{
		tab:   tab,
		lex:   lex,
		kinds: make([]string, len(clspec.KindNames)),
		skip:  map[string]bool{},
	}
	for i, k := range clspec.KindNames {
		s.kinds[i] = k.String()
	}
	for _, k := range skip {
		s.skip[k] = true
	}
	return s, nil
}

var wordSpec = struct {
	once   sync.Once
	clspec *mlspec.CompiledLexSpec
	err    error
}{}

// NewWordSource reads white-space-separated words. A word is a terminal name optionally followed by a colon
// and a lexeme, e.g. `int:12`. A word naming no terminal becomes a token matching no terminal.
func NewWordSource(tab *Tables, src io.Reader) (TokenSource, error) {
	wordSpec.once.Do(func() {
		wordSpec.clspec, wordSpec.err = CompileLexSpec("words", []*mlspec.LexEntry{
			{Kind: "space", Pattern: `[\u{0009}\u{000A}\u{000D}\u{0020}]+`},
			{Kind: "word", Pattern: `[^\u{0009}\u{000A}\u{000D}\u{0020}]+`},
		})
	})
	if wordSpec.err != nil {
		return nil, wordSpec.err
	}
	s, err := NewLexSource(tab, wordSpec.clspec, src, "space")
	if err != nil {
		return nil, err
	}
	s.(*lexSource).word = true
	return s, nil
}

func (s *lexSource) Next() (*Token, error) {
	for {
		mtok, err := s.lex.Next()
		if err != nil {
			return nil, err
		}
		tok := &Token{
			Lexeme: mtok.Lexeme,
			EOF:    mtok.EOF,
			Row:    mtok.Row + 1,
			Col:    mtok.Col + 1,
		}
		if mtok.EOF || mtok.Invalid {
			return tok, nil
		}

		name := s.kinds[mtok.KindID]
		if s.skip[name] {
			continue
		}
		if s.word {
			name = string(tok.Lexeme)
			if i := strings.Index(name, ":"); i > 0 {
				name, tok.Lexeme = name[:i], tok.Lexeme[i+1:]
			}
		}
		tok.Terminal = s.tab.TerminalNumber(name)
		return tok, nil
	}
}
