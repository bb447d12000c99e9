package grammar

import (
	"math/bits"

	"github.com/nihei9/oxi/grammar/symbol"
)

// termSet is a bit set of terminal numbers.
type termSet []uint64

func newTermSet(termCount int) termSet {
	return make(termSet, (termCount+63)/64)
}

func (s termSet) add(sym symbol.Symbol) bool {
	w, b := sym.Num()/64, uint(sym.Num()%64)
	if s[w]&(1<<b) != 0 {
		return false
	}
	s[w] |= 1 << b
	return true
}

func (s termSet) has(sym symbol.Symbol) bool {
	return s[sym.Num()/64]&(1<<uint(sym.Num()%64)) != 0
}

// union adds the members of o and reports whether s grew.
func (s termSet) union(o termSet) bool {
	grown := false
	for i, w := range o {
		if s[i]|w != s[i] {
			s[i] |= w
			grown = true
		}
	}
	return grown
}

func (s termSet) isEmpty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// symbols returns the members in ascending order.
func (s termSet) symbols() []symbol.Symbol {
	var syms []symbol.Symbol
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			syms = append(syms, symbol.Symbol(i*64+b))
			w &^= 1 << uint(b)
		}
	}
	return syms
}

// firstTable holds FIRST and nullability of every non-terminal, indexed by non-terminal numbers.
type firstTable struct {
	termCount int
	first     []termSet
	nullable  []bool
}

// genFirstTable repeats passes over all rules until a pass changes nothing. Every pass that continues
// adds a terminal or a nullable flag to finite sets, so the loop ends.
func genFirstTable(rules *ruleSet, termCount, nonTermCount int) *firstTable {
	ft := &firstTable{
		termCount: termCount,
		first:     make([]termSet, nonTermCount),
		nullable:  make([]bool, nonTermCount),
	}
	for i := range ft.first {
		ft.first[i] = newTermSet(termCount)
	}

	for changed := true; changed; {
		changed = false
		for _, r := range rules.all() {
			fst, nullable := ft.ofSeq(r.rhs)
			if ft.first[r.lhs.Num()].union(fst) {
				changed = true
			}
			if nullable && !ft.nullable[r.lhs.Num()] {
				ft.nullable[r.lhs.Num()] = true
				changed = true
			}
		}
	}
	return ft
}

// ofSeq returns FIRST of a symbol sequence and whether the sequence derives ε. An empty sequence is
// nullable.
func (ft *firstTable) ofSeq(seq []symbol.Symbol) (termSet, bool) {
	fst := newTermSet(ft.termCount)
	for _, sym := range seq {
		if sym.IsTerminal() {
			fst.add(sym)
			return fst, false
		}
		fst.union(ft.first[sym.Num()])
		if !ft.nullable[sym.Num()] {
			return fst, false
		}
	}
	return fst, true
}
