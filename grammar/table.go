package grammar

import (
	"fmt"

	verr "github.com/nihei9/oxi/error"
	"github.com/nihei9/oxi/grammar/symbol"
	spec "github.com/nihei9/oxi/spec/grammar"
)

// parsingTable is the pair of tables written to a compiled grammar. An ACTION entry is a negative state
// number for a shift, a positive rule number for a reduce, or 0 for an error. A GOTO entry is a state
// number, and 0 means no transition because no edge leads back to the initial state.
type parsingTable struct {
	stateCount   int
	termCount    int
	nonTermCount int
	action       []int
	goTo         []int
}

func (t *parsingTable) actionOf(state int, term symbol.Symbol) int {
	return t.action[state*t.termCount+term.Num()]
}

func (t *parsingTable) goToOf(state int, nonTerm symbol.Symbol) int {
	return t.goTo[state*t.nonTermCount+nonTerm.Num()]
}

// conflict is an ACTION cell that more than one action was proposed for. shift is 0 for a reduce/reduce
// conflict.
type conflict struct {
	state      int
	term       symbol.Symbol
	shift      int
	reduces    []int
	entry      int
	resolvedBy string
}

// proposal collects the actions of one ACTION cell before resolution, so the result doesn't depend on the
// order items are visited in.
type proposal struct {
	shift   int
	reduces []int
}

type tableBuilder struct {
	gram      *Grammar
	automaton *automaton
	table     *parsingTable
	conflicts []*conflict
	errs      verr.SpecErrors
}

func genParsingTable(gram *Grammar, a *automaton) (*parsingTable, []*conflict, error) {
	termCount := gram.symbols.TerminalCount()
	nonTermCount := gram.symbols.NonTerminalCount()
	b := &tableBuilder{
		gram:      gram,
		automaton: a,
		table: &parsingTable{
			stateCount:   len(a.states),
			termCount:    termCount,
			nonTermCount: nonTermCount,
			action:       make([]int, len(a.states)*termCount),
			goTo:         make([]int, len(a.states)*nonTermCount),
		},
	}
	for _, s := range a.states {
		b.fillRow(s)
	}
	if len(b.errs) > 0 {
		return nil, nil, b.errs
	}
	return b.table, b.conflicts, nil
}

func (b *tableBuilder) fillRow(s *state) {
	tab := b.table
	props := make([]proposal, tab.termCount)
	for sym, dst := range s.edges {
		if sym.IsNonTerminal() {
			tab.goTo[s.num*tab.nonTermCount+sym.Num()] = dst
			continue
		}
		props[sym.Num()].shift = dst
	}
	for _, it := range b.automaton.reducible(s) {
		for _, term := range s.lookAhead[it].symbols() {
			props[term.Num()].reduces = append(props[term.Num()].reduces, it.rule)
		}
	}
	for i := range props {
		p := &props[i]
		if p.shift == 0 && len(p.reduces) == 0 {
			continue
		}
		tab.action[s.num*tab.termCount+i] = b.resolve(s.num, symbol.Symbol(i), p)
	}
}

// resolve decides the action of a cell. Among reductions, the rule declared earliest wins. A remaining
// shift/reduce conflict is resolved by precedence and associativity, and one they cannot resolve is an
// error of the grammar.
func (b *tableBuilder) resolve(state int, term symbol.Symbol, p *proposal) int {
	if len(p.reduces) == 0 {
		return -p.shift
	}

	rule := p.reduces[0]
	if len(p.reduces) > 1 {
		b.conflicts = append(b.conflicts, &conflict{
			state:      state,
			term:       term,
			reduces:    p.reduces,
			entry:      rule,
			resolvedBy: spec.ResolvedByOrder,
		})
	}
	if p.shift == 0 {
		return rule
	}

	entry, by, ok := b.decide(term, rule, p.shift)
	if !ok {
		b.errs = append(b.errs, &verr.SpecError{
			Cause: semErrUnresolvableConflict,
			Detail: fmt.Sprintf("state %v: shift %v or reduce by %v",
				state, b.gram.symbols.Name(term), b.automaton.rules.get(rule)),
		})
		return 0
	}
	b.conflicts = append(b.conflicts, &conflict{
		state:      state,
		term:       term,
		shift:      p.shift,
		reduces:    []int{rule},
		entry:      entry,
		resolvedBy: by,
	})
	return entry
}

// decide compares the precedence of the look-ahead terminal with that of the rule. A later level is
// higher. At the same level, `%left` reduces, `%right` shifts, and `%nonassoc` makes the cell an error.
func (b *tableBuilder) decide(term symbol.Symbol, rule int, shift int) (int, string, bool) {
	r := b.automaton.rules.get(rule)
	termPrec := b.gram.precTable.TerminalPrecedence(b.gram.symbols.Name(term))
	if termPrec == precNil || r.prec == precNil {
		return 0, "", false
	}
	switch {
	case termPrec > r.prec:
		return -shift, spec.ResolvedByPrecedence, true
	case termPrec < r.prec:
		return rule, spec.ResolvedByPrecedence, true
	}
	switch r.assoc {
	case AssocLeft:
		return rule, spec.ResolvedByAssociativity, true
	case AssocRight:
		return -shift, spec.ResolvedByAssociativity, true
	case AssocNonAssoc:
		return 0, spec.ResolvedByNonAssoc, true
	}
	return 0, "", false
}

func reduceReduceWarnings(gram *Grammar, rules *ruleSet, conflicts []*conflict) []*spec.Warning {
	var ws []*spec.Warning
	for _, c := range conflicts {
		if c.shift != 0 {
			continue
		}
		for _, loser := range c.reduces[1:] {
			ws = append(ws, &spec.Warning{
				Kind: warnKindReduceReduce,
				Message: fmt.Sprintf("state %v: reduce/reduce conflict on %v; %v is adopted instead of %v",
					c.state, gram.symbols.Name(c.term), rules.get(c.entry), rules.get(loser)),
			})
		}
	}
	return ws
}
