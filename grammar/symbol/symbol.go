// Package symbol numbers the terminals and non-terminals of a grammar.
package symbol

import "fmt"

// Symbol is a terminal when positive and a non-terminal when negative. Its absolute value is the column
// of the symbol in the ACTION or GOTO table, so the two kinds are numbered independently.
type Symbol int

const (
	Nil   = Symbol(0)
	EOF   = Symbol(1)
	Start = Symbol(-1)

	// The name contains `<` and `>` so that it never conflicts with user-defined names.
	NameEOF = "<eof>"
)

func (s Symbol) IsNil() bool {
	return s == Nil
}

func (s Symbol) IsTerminal() bool {
	return s > 0
}

func (s Symbol) IsNonTerminal() bool {
	return s < 0
}

// Num returns the table column of the symbol.
func (s Symbol) Num() int {
	if s < 0 {
		return int(-s)
	}
	return int(s)
}

func (s Symbol) String() string {
	switch {
	case s > 0:
		return fmt.Sprintf("t%v", int(s))
	case s < 0:
		return fmt.Sprintf("n%v", int(-s))
	}
	return "nil"
}

// Less orders terminals before non-terminals, each in ascending order of their numbers.
func Less(a, b Symbol) bool {
	if a.IsTerminal() != b.IsTerminal() {
		return a.IsTerminal()
	}
	return a.Num() < b.Num()
}

// Table assigns numbers to names in registration order. Number 0 of both kinds is unused, terminal 1 is
// the end of input, and non-terminal 1 is the augmented start symbol.
type Table struct {
	byName   map[string]Symbol
	terms    []string
	nonTerms []string
}

func NewTable(start string) *Table {
	return &Table{
		byName: map[string]Symbol{
			NameEOF: EOF,
			start:   Start,
		},
		terms:    []string{"", NameEOF},
		nonTerms: []string{"", start},
	}
}

// Terminal returns the terminal having the name, registering it on first use.
func (t *Table) Terminal(name string) (Symbol, error) {
	if sym, ok := t.byName[name]; ok {
		if !sym.IsTerminal() {
			return Nil, fmt.Errorf("%v is already registered as a non-terminal", name)
		}
		return sym, nil
	}
	sym := Symbol(len(t.terms))
	t.terms = append(t.terms, name)
	t.byName[name] = sym
	return sym, nil
}

// NonTerminal returns the non-terminal having the name, registering it on first use.
func (t *Table) NonTerminal(name string) (Symbol, error) {
	if sym, ok := t.byName[name]; ok {
		if !sym.IsNonTerminal() {
			return Nil, fmt.Errorf("%v is already registered as a terminal", name)
		}
		return sym, nil
	}
	sym := Symbol(-len(t.nonTerms))
	t.nonTerms = append(t.nonTerms, name)
	t.byName[name] = sym
	return sym, nil
}

func (t *Table) Lookup(name string) (Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// Name returns the name of a registered symbol, or an empty string.
func (t *Table) Name(sym Symbol) string {
	names := t.terms
	if sym.IsNonTerminal() {
		names = t.nonTerms
	}
	if sym.IsNil() || sym.Num() >= len(names) {
		return ""
	}
	return names[sym.Num()]
}

// Terminals returns the names of the terminals indexed by their numbers.
func (t *Table) Terminals() []string {
	return append([]string(nil), t.terms...)
}

// NonTerminals returns the names of the non-terminals indexed by their numbers.
func (t *Table) NonTerminals() []string {
	return append([]string(nil), t.nonTerms...)
}

func (t *Table) TerminalCount() int {
	return len(t.terms)
}

func (t *Table) NonTerminalCount() int {
	return len(t.nonTerms)
}
