package grammar

import (
	"github.com/nihei9/oxi/grammar/symbol"
	spec "github.com/nihei9/oxi/spec/grammar"
)

func genReport(gram *Grammar, a *automaton, tab *parsingTable, conflicts []*conflict, reds []*spec.Reduction) *spec.Report {
	report := &spec.Report{
		Name: gram.config.Name,
	}

	for num := int(symbol.EOF); num < tab.termCount; num++ {
		name := gram.symbols.Name(symbol.Symbol(num))
		report.Terminals = append(report.Terminals, &spec.TerminalReport{
			Number:        num,
			Name:          name,
			Precedence:    gram.precTable.TerminalPrecedence(name),
			Associativity: string(gram.precTable.Associativity(name)),
		})
	}

	for _, r := range a.rules.all() {
		red := reds[r.num]
		if r.num == ruleStart {
			red = &spec.Reduction{
				Production: r.num,
				LHS:        r.prod.name,
				RHS:        r.arm().Symbols(),
				Type:       r.prod.typ,
			}
		}
		report.Productions = append(report.Productions, &spec.ProductionReport{
			Reduction:     red,
			Precedence:    r.prec,
			Associativity: string(r.assoc),
		})
	}

	for _, s := range a.states {
		sr := &spec.StateReport{
			Number: s.num,
		}
		for _, it := range s.kernel {
			sr.Kernel = append(sr.Kernel, &spec.Item{
				Production: it.rule,
				Dot:        it.dot,
			})
		}
		for num := int(symbol.EOF); num < tab.termCount; num++ {
			term := symbol.Symbol(num)
			kind, target := describeAction(tab.actionOf(s.num, term))
			if kind == spec.ActionError {
				continue
			}
			sr.Actions = append(sr.Actions, &spec.ActionReport{
				Terminal: gram.symbols.Name(term),
				Kind:     kind,
				Target:   target,
			})
		}
		for num := 1; num < tab.nonTermCount; num++ {
			nonTerm := symbol.Symbol(-num)
			if dst := tab.goToOf(s.num, nonTerm); dst != 0 {
				sr.GoTo = append(sr.GoTo, &spec.GoToReport{
					NonTerminal: gram.symbols.Name(nonTerm),
					State:       dst,
				})
			}
		}
		report.States = append(report.States, sr)
	}

	for _, c := range conflicts {
		adopted, _ := describeAction(c.entry)
		if adopted == spec.ActionAccept {
			adopted = spec.ActionReduce
		}
		report.Conflicts = append(report.Conflicts, &spec.Conflict{
			State:      c.state,
			Terminal:   gram.symbols.Name(c.term),
			Shift:      c.shift,
			Reduce:     c.reduces,
			Adopted:    adopted,
			ResolvedBy: c.resolvedBy,
		})
	}

	return report
}

func describeAction(entry int) (string, int) {
	switch {
	case entry < 0:
		return spec.ActionShift, -entry
	case entry == ruleStart:
		return spec.ActionAccept, entry
	case entry > 0:
		return spec.ActionReduce, entry
	}
	return spec.ActionError, 0
}
