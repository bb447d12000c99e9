package grammar

// Ways a conflict is resolved.
const (
	ResolvedByPrecedence    = "precedence"
	ResolvedByAssociativity = "associativity"
	ResolvedByNonAssoc      = "nonassoc"
	ResolvedByOrder         = "declaration order"
)

// Kinds of ACTION entries in a report.
const (
	ActionShift  = "shift"
	ActionReduce = "reduce"
	ActionAccept = "accept"
	ActionError  = "error"
)

// Report describes the automaton behind a compiled grammar for humans. It names symbols instead of
// numbering them, and it refers to productions by the numbers of Reductions.
type Report struct {
	Name        string              `json:"name"`
	Terminals   []*TerminalReport   `json:"terminals"`
	Productions []*ProductionReport `json:"productions"`
	States      []*StateReport      `json:"states"`
	Conflicts   []*Conflict         `json:"conflicts"`
	Warnings    []*Warning          `json:"warnings"`
}

type TerminalReport struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Precedence    int    `json:"prec,omitempty"`
	Associativity string `json:"assoc,omitempty"`
}

// ProductionReport is a Reduction together with the precedence conflict resolution uses. Unlike
// CompiledGrammar.Reductions, the list also contains the augmented start production.
type ProductionReport struct {
	*Reduction
	Precedence    int    `json:"prec,omitempty"`
	Associativity string `json:"assoc,omitempty"`
}

type StateReport struct {
	Number  int             `json:"number"`
	Kernel  []*Item         `json:"kernel"`
	Actions []*ActionReport `json:"actions"`
	GoTo    []*GoToReport   `json:"goto"`
}

// Item is a production with a dot before its Dot-th symbol.
type Item struct {
	Production int `json:"production"`
	Dot        int `json:"dot"`
}

// ActionReport is a non-error ACTION entry. Target is a state number for a shift and a production number
// for a reduce or an accept.
type ActionReport struct {
	Terminal string `json:"terminal"`
	Kind     string `json:"kind"`
	Target   int    `json:"target"`
}

type GoToReport struct {
	NonTerminal string `json:"non_terminal"`
	State       int    `json:"state"`
}

// Conflict is an ACTION cell that got more than one action. A shift/reduce conflict has a non-zero Shift
// and a single production in Reduce. A reduce/reduce conflict lists every competing production and adopts
// the first one. Adopted is one of ActionShift, ActionReduce, and ActionError.
type Conflict struct {
	State      int    `json:"state"`
	Terminal   string `json:"terminal"`
	Shift      int    `json:"shift,omitempty"`
	Reduce     []int  `json:"reduce"`
	Adopted    string `json:"adopted"`
	ResolvedBy string `json:"resolved_by"`
}

func (c *Conflict) IsShiftReduce() bool {
	return c.Shift != 0
}

type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
