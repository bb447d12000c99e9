package parser

import (
	"fmt"

	spec "github.com/nihei9/oxi/spec/grammar"
)

// Tables is a read-only view of the parsing tables of a compiled grammar.
type Tables struct {
	synt  *spec.SyntacticSpec
	terms map[string]int
}

func NewTables(cgram *spec.CompiledGrammar) (*Tables, error) {
	synt := cgram.Syntactic
	if synt == nil {
		return nil, fmt.Errorf("%v has no parsing tables", cgram.Name)
	}
	if len(synt.Action) != synt.StateCount*synt.TerminalCount || len(synt.GoTo) != synt.StateCount*synt.NonTerminalCount {
		return nil, fmt.Errorf("%v has parsing tables of a wrong size", cgram.Name)
	}
	if len(synt.Terminals) != synt.TerminalCount || len(synt.NonTerminals) != synt.NonTerminalCount {
		return nil, fmt.Errorf("%v has a symbol count not matching its symbols", cgram.Name)
	}

	terms := make(map[string]int, synt.TerminalCount)
	for num, name := range synt.Terminals {
		if num == 0 {
			continue
		}
		terms[name] = num
	}
	return &Tables{
		synt:  synt,
		terms: terms,
	}, nil
}

func (t *Tables) action(state, term int) int {
	return t.synt.Action[state*t.synt.TerminalCount+term]
}

func (t *Tables) goTo(state, nonTerm int) int {
	return t.synt.GoTo[state*t.synt.NonTerminalCount+nonTerm]
}

func (t *Tables) accepts(prod int) bool {
	return prod == t.synt.StartProduction
}

// TerminalNumber returns 0 when no terminal has the name.
func (t *Tables) TerminalNumber(name string) int {
	return t.terms[name]
}

func (t *Tables) TerminalName(num int) string {
	if num <= 0 || num >= t.synt.TerminalCount {
		return ""
	}
	return t.synt.Terminals[num]
}

func (t *Tables) NonTerminalName(num int) string {
	return t.synt.NonTerminals[num]
}

// LHS returns the non-terminal a production reduces to and the number of symbols it pops.
func (t *Tables) LHS(prod int) (int, int) {
	return t.synt.LHSSymbols[prod], t.synt.AlternativeSymbolCounts[prod]
}

func (t *Tables) eof() int {
	return t.synt.EOFSymbol
}
