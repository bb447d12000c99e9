package grammar

import (
	verr "github.com/nihei9/oxi/error"
	"github.com/nihei9/oxi/spec/grammar/parser"
)

type Associativity string

const (
	AssocNil      = Associativity("")
	AssocLeft     = Associativity("left")
	AssocRight    = Associativity("right")
	AssocNonAssoc = Associativity("nonassoc")
)

const (
	precNil = 0
	precMin = 1
)

type PrecedenceLevel struct {
	Level         int
	Associativity Associativity
	Terminals     []string
}

// PrecedenceTable holds one level per `%left`, `%right`, `%nonassoc`, and `%precedence` directive in
// declaration order. Levels start at 1, and a later level has higher precedence. `%precedence` levels
// have no associativity.
type PrecedenceTable struct {
	levels    []*PrecedenceLevel
	termLevel map[string]int
}

// genPrecedenceTable builds a precedence table from the directives. A terminal listed in two levels is an
// error even if no conflict involves it.
func genPrecedenceTable(dirs []*parser.DirectiveNode, nonTerms map[string]struct{}) (*PrecedenceTable, verr.SpecErrors) {
	tab := &PrecedenceTable{
		termLevel: map[string]int{},
	}
	var errs verr.SpecErrors
	for _, dir := range dirs {
		var assoc Associativity
		switch dir.Name {
		case "left":
			assoc = AssocLeft
		case "right":
			assoc = AssocRight
		case "nonassoc":
			assoc = AssocNonAssoc
		case "precedence":
			assoc = AssocNil
		default:
			continue
		}

		level := &PrecedenceLevel{
			Level:         precMin + len(tab.levels),
			Associativity: assoc,
		}
		for _, param := range dir.Parameters {
			if _, ok := nonTerms[param.ID]; ok {
				errs = append(errs, &verr.SpecError{
					Cause:  semErrUndefinedSym,
					Detail: "a precedence directive can only list terminals: " + param.ID,
					Row:    param.Pos.Row,
					Col:    param.Pos.Col,
				})
				continue
			}
			if l, ok := tab.termLevel[param.ID]; ok {
				if l == level.Level {
					continue
				}
				errs = append(errs, &verr.SpecError{
					Cause:  semErrAmbiguousPrec,
					Detail: param.ID,
					Row:    param.Pos.Row,
					Col:    param.Pos.Col,
				})
				continue
			}
			tab.termLevel[param.ID] = level.Level
			level.Terminals = append(level.Terminals, param.ID)
		}
		tab.levels = append(tab.levels, level)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return tab, nil
}

// Levels returns a copy of the levels in ascending order of precedence.
func (t *PrecedenceTable) Levels() []PrecedenceLevel {
	levels := make([]PrecedenceLevel, len(t.levels))
	for i, l := range t.levels {
		terms := make([]string, len(l.Terminals))
		copy(terms, l.Terminals)
		levels[i] = PrecedenceLevel{
			Level:         l.Level,
			Associativity: l.Associativity,
			Terminals:     terms,
		}
	}
	return levels
}

// TerminalPrecedence returns the level of a terminal, or 0 when the terminal has no precedence.
func (t *PrecedenceTable) TerminalPrecedence(name string) int {
	l, ok := t.termLevel[name]
	if !ok {
		return precNil
	}
	return l
}

func (t *PrecedenceTable) Associativity(name string) Associativity {
	l, ok := t.termLevel[name]
	if !ok {
		return AssocNil
	}
	return t.levels[l-precMin].Associativity
}
