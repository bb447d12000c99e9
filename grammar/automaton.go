package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nihei9/oxi/grammar/symbol"
)

// item is a rule with a dot in its right-hand side.
//
//	rule: expr → expr add term
//	dot 0: expr → ・expr add term
//	dot 3: expr → expr add term・
type item struct {
	rule int
	dot  int
}

func itemLess(a, b item) bool {
	if a.rule != b.rule {
		return a.rule < b.rule
	}
	return a.dot < b.dot
}

// state is an LR(0) item set. Two item sets having the same kernel are the same state.
type state struct {
	num int

	// kernel is sorted by itemLess. items is the closure of the kernel and begins with the kernel.
	kernel []item
	items  []item

	edges map[symbol.Symbol]int

	// lookAhead holds the LALR(1) look-ahead terminals of every item of the closure.
	lookAhead map[item]termSet
}

type automaton struct {
	rules     *ruleSet
	first     *firstTable
	termCount int
	states    []*state
	byKernel  map[string]int
}

// genAutomaton builds the LR(0) states and then attaches LALR(1) look-ahead terminals to them. States are
// numbered in the order they are discovered, and the successors of a state are discovered in the order of
// symbol.Less, so the numbering only depends on the grammar.
func genAutomaton(rules *ruleSet, first *firstTable, termCount int) *automaton {
	a := &automaton{
		rules:     rules,
		first:     first,
		termCount: termCount,
		byKernel:  map[string]int{},
	}
	a.stateOf([]item{{rule: ruleStart}})
	for i := 0; i < len(a.states); i++ {
		s := a.states[i]
		s.items = a.closure(s.kernel)

		succ := map[symbol.Symbol][]item{}
		var syms []symbol.Symbol
		for _, it := range s.items {
			sym := a.dotted(it)
			if sym.IsNil() {
				continue
			}
			if _, ok := succ[sym]; !ok {
				syms = append(syms, sym)
			}
			succ[sym] = append(succ[sym], item{rule: it.rule, dot: it.dot + 1})
		}
		sort.Slice(syms, func(i, j int) bool {
			return symbol.Less(syms[i], syms[j])
		})
		s.edges = make(map[symbol.Symbol]int, len(syms))
		for _, sym := range syms {
			s.edges[sym] = a.stateOf(succ[sym]).num
		}
	}
	a.attachLookAhead()
	return a
}

// stateOf returns the state having the kernel, creating it when the kernel is new.
func (a *automaton) stateOf(kernel []item) *state {
	sort.Slice(kernel, func(i, j int) bool {
		return itemLess(kernel[i], kernel[j])
	})
	var b strings.Builder
	for _, it := range kernel {
		fmt.Fprintf(&b, "%v.%v;", it.rule, it.dot)
	}
	key := b.String()
	if num, ok := a.byKernel[key]; ok {
		return a.states[num]
	}
	s := &state{
		num:    len(a.states),
		kernel: kernel,
	}
	a.states = append(a.states, s)
	a.byKernel[key] = s.num
	return s
}

// dotted returns the symbol following the dot, or symbol.Nil when the item is reducible.
func (a *automaton) dotted(it item) symbol.Symbol {
	rhs := a.rules.get(it.rule).rhs
	if it.dot >= len(rhs) {
		return symbol.Nil
	}
	return rhs[it.dot]
}

func (a *automaton) closure(kernel []item) []item {
	items := append([]item(nil), kernel...)
	added := map[item]bool{}
	for _, it := range kernel {
		added[it] = true
	}
	for i := 0; i < len(items); i++ {
		sym := a.dotted(items[i])
		if !sym.IsNonTerminal() {
			continue
		}
		for _, r := range a.rules.of(sym) {
			it := item{rule: r.num}
			if added[it] {
				continue
			}
			added[it] = true
			items = append(items, it)
		}
	}
	return items
}

// attachLookAhead computes the least look-ahead sets satisfying two equations: inside a state, an item
// `B → ・γ` gets FIRST(β) of every item `A → α・Bβ`, plus the look-ahead of that item when β is nullable;
// across an edge, the advanced item gets the look-ahead of the item it came from. The start item gets
// <eof>. Every state is visited once, and again whenever one of its kernel items grows.
func (a *automaton) attachLookAhead() {
	for _, s := range a.states {
		s.lookAhead = make(map[item]termSet, len(s.items))
		for _, it := range s.items {
			s.lookAhead[it] = newTermSet(a.termCount)
		}
	}
	a.states[0].lookAhead[item{rule: ruleStart}].add(symbol.EOF)

	queued := make([]bool, len(a.states))
	queue := make([]int, len(a.states))
	for i := range queue {
		queue[i] = i
		queued[i] = true
	}
	for len(queue) > 0 {
		s := a.states[queue[0]]
		queue = queue[1:]
		queued[s.num] = false

		a.spreadInState(s)
		for _, it := range s.items {
			sym := a.dotted(it)
			if sym.IsNil() {
				continue
			}
			dst := a.states[s.edges[sym]]
			if !dst.lookAhead[item{rule: it.rule, dot: it.dot + 1}].union(s.lookAhead[it]) || queued[dst.num] {
				continue
			}
			queued[dst.num] = true
			queue = append(queue, dst.num)
		}
	}
}

func (a *automaton) spreadInState(s *state) {
	for changed := true; changed; {
		changed = false
		for _, it := range s.items {
			sym := a.dotted(it)
			if !sym.IsNonTerminal() {
				continue
			}
			fst, nullable := a.first.ofSeq(a.rules.get(it.rule).rhs[it.dot+1:])
			if nullable {
				fst.union(s.lookAhead[it])
			}
			for _, r := range a.rules.of(sym) {
				if s.lookAhead[item{rule: r.num}].union(fst) {
					changed = true
				}
			}
		}
	}
}

// reducible returns the items of a state whose dot is at the end, in ascending order of rules.
func (a *automaton) reducible(s *state) []item {
	var items []item
	for _, it := range s.items {
		if a.dotted(it).IsNil() {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return itemLess(items[i], items[j])
	})
	return items
}
