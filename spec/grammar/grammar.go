package grammar

type CompiledGrammar struct {
	Name       string         `json:"name"`
	Public     bool           `json:"public"`
	TokenType  string         `json:"token_type"`
	Syntactic  *SyntacticSpec `json:"syntactic"`
	Reductions []*Reduction   `json:"reductions"`
}

// SyntacticSpec is a pair of an ACTION table and a GOTO table.
//
// An entry of Action is a negative state number for a shift, a positive production number for a reduce,
// or 0 for an error. Reducing StartProduction means accepting the input. An entry of GoTo is a state
// number, and 0 means no transition because no transition can go back to the initial state.
type SyntacticSpec struct {
	Action                  []int    `json:"action"`
	GoTo                    []int    `json:"goto"`
	StateCount              int      `json:"state_count"`
	InitialState            int      `json:"initial_state"`
	StartProduction         int      `json:"start_production"`
	LHSSymbols              []int    `json:"lhs_symbols"`
	AlternativeSymbolCounts []int    `json:"alternative_symbol_counts"`
	Terminals               []string `json:"terminals"`
	TerminalCount           int      `json:"terminal_count"`
	NonTerminals            []string `json:"non_terminals"`
	NonTerminalCount        int      `json:"non_terminal_count"`
	NonTerminalTypes        []string `json:"non_terminal_types"`
	EOFSymbol               int      `json:"eof_symbol"`
}

// Reduction maps a production number back to the alternative it was generated from.
// Reductions is indexed by production number, and the entries for the nil and the augmented
// start productions are nil.
type Reduction struct {
	Production  int               `json:"production"`
	LHS         string            `json:"lhs"`
	Alternative int               `json:"alternative"`
	RHS         []string          `json:"rhs"`
	Type        string            `json:"type"`
	Action      []*ActionFragment `json:"action"`
}

// ActionFragment is a piece of action code. When Placeholder is true, the fragment refers to the value
// of the Position-th symbol of the alternative, or to the value under construction when Position is 0.
type ActionFragment struct {
	Text        string `json:"text,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
	Position    int    `json:"position,omitempty"`
}

// HasSelfReference reports whether the action code assigns the value under construction via `$$`.
func (r *Reduction) HasSelfReference() bool {
	for _, f := range r.Action {
		if f.Placeholder && f.Position == 0 {
			return true
		}
	}
	return false
}
