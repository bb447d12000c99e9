package grammar

import (
	"fmt"
	"strings"

	"github.com/nihei9/oxi/grammar/symbol"
)

const (
	ruleNil   = 0
	ruleStart = 1
)

// rule is the unit the automaton works on: the augmented start rule or one arm of a declared production.
// Its number is the production number written in the ACTION table.
type rule struct {
	num int
	lhs symbol.Symbol
	rhs []symbol.Symbol

	// prod and alt point back to the arm the rule was generated from. The start rule has a production of
	// its own that is not part of the grammar.
	prod *Production
	alt  int

	prec  int
	assoc Associativity
}

func (r *rule) arm() *ProductionArm {
	return r.prod.arms[r.alt]
}

func (r *rule) String() string {
	syms := r.arm().symbols
	if len(syms) == 0 {
		return fmt.Sprintf("%v → ε", r.prod.name)
	}
	return fmt.Sprintf("%v → %v", r.prod.name, strings.Join(syms, " "))
}

// ruleSet numbers rules in the order they are added. The start rule must be added first so that it gets
// ruleStart.
type ruleSet struct {
	rules []*rule
	byLHS map[symbol.Symbol][]*rule
	seen  map[string]struct{}
}

func newRuleSet() *ruleSet {
	return &ruleSet{
		rules: []*rule{nil},
		byLHS: map[symbol.Symbol][]*rule{},
		seen:  map[string]struct{}{},
	}
}

// add returns false when a rule with the same sides already exists.
func (rs *ruleSet) add(r *rule) bool {
	key := fmt.Sprint(r.lhs, r.rhs)
	if _, ok := rs.seen[key]; ok {
		return false
	}
	rs.seen[key] = struct{}{}
	r.num = len(rs.rules)
	rs.rules = append(rs.rules, r)
	rs.byLHS[r.lhs] = append(rs.byLHS[r.lhs], r)
	return true
}

func (rs *ruleSet) get(num int) *rule {
	return rs.rules[num]
}

// of returns the rules of a non-terminal in declaration order.
func (rs *ruleSet) of(lhs symbol.Symbol) []*rule {
	return rs.byLHS[lhs]
}

// all returns every rule in ascending order of numbers.
func (rs *ruleSet) all() []*rule {
	return rs.rules[ruleStart:]
}

// count includes the unused number 0, so it is also the length of tables indexed by rule numbers.
func (rs *ruleSet) count() int {
	return len(rs.rules)
}
