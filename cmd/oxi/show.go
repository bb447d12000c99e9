package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	spec "github.com/nihei9/oxi/spec/grammar"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Print a report in a readable format",
		Example: `  oxi show grammar-report.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), report)
}

func readReport(path string) (_ *spec.Report, retErr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot open the report %s", path)
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()

	report := &spec.Report{}
	if err := json.NewDecoder(f).Decode(report); err != nil {
		return nil, errors.Annotatef(err, "invalid report %s", path)
	}
	return report, nil
}

// reportPrinter keeps the first write error and skips every write after it.
type reportPrinter struct {
	w     io.Writer
	err   error
	prods map[int]*spec.ProductionReport
}

func writeReport(w io.Writer, report *spec.Report) error {
	p := &reportPrinter{
		w:     w,
		prods: map[int]*spec.ProductionReport{},
	}
	for _, prod := range report.Productions {
		p.prods[prod.Production] = prod
	}

	p.printConflictSummary(report.Conflicts)
	p.printWarnings(report.Warnings)
	p.printTerminals(report.Terminals)
	p.printProductions(report.Productions)
	p.printStates(report.States, report.Conflicts)
	return errors.Trace(p.err)
}

func (p *reportPrinter) printf(format string, a ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

// table aligns the rows printed by fn into columns separated by tabs.
func (p *reportPrinter) table(fn func(w io.Writer)) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fn(tw)
	p.err = tw.Flush()
}

func (p *reportPrinter) printConflictSummary(conflicts []*spec.Conflict) {
	p.printf("# Conflicts\n\n")
	if len(conflicts) == 0 {
		p.printf("No conflict\n\n")
		return
	}
	var sr, rr int
	for _, c := range conflicts {
		if c.IsShiftReduce() {
			sr++
		} else {
			rr++
		}
	}
	p.printf("shift/reduce: %v (resolved by precedence)\n", sr)
	p.printf("reduce/reduce: %v (resolved by declaration order)\n\n", rr)
}

func (p *reportPrinter) printWarnings(ws []*spec.Warning) {
	p.printf("# Warnings\n\n")
	if len(ws) == 0 {
		p.printf("No warning\n\n")
		return
	}
	for _, w := range ws {
		p.printf("%v: %v\n", w.Kind, w.Message)
	}
	p.printf("\n")
}

func (p *reportPrinter) printTerminals(terms []*spec.TerminalReport) {
	p.printf("# Terminals\n\n")
	p.table(func(w io.Writer) {
		fmt.Fprintf(w, "#\tprec\tassoc\tname\n")
		for _, t := range terms {
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", t.Number, orDash(t.Precedence), orDash(t.Associativity), t.Name)
		}
	})
	p.printf("\n")
}

func (p *reportPrinter) printProductions(prods []*spec.ProductionReport) {
	p.printf("# Productions\n\n")
	p.table(func(w io.Writer) {
		fmt.Fprintf(w, "#\tprec\tassoc\tproduction\n")
		for _, prod := range prods {
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", prod.Production, orDash(prod.Precedence), orDash(prod.Associativity), p.dotted(prod.Production, -1))
		}
	})
	p.printf("\n")
}

func (p *reportPrinter) printStates(states []*spec.StateReport, conflicts []*spec.Conflict) {
	byState := map[int][]*spec.Conflict{}
	for _, c := range conflicts {
		byState[c.State] = append(byState[c.State], c)
	}

	p.printf("# States\n")
	for _, s := range states {
		p.printf("\n## State %v\n\n", s.Number)
		for _, item := range s.Kernel {
			p.printf("%4v %v\n", item.Production, p.dotted(item.Production, item.Dot))
		}
		p.printf("\n")
		p.table(func(w io.Writer) {
			for _, act := range s.Actions {
				fmt.Fprintf(w, "%v\t%v %v\n", act.Terminal, act.Kind, act.Target)
			}
			for _, g := range s.GoTo {
				fmt.Fprintf(w, "%v\tgoto %v\n", g.NonTerminal, g.State)
			}
		})
		for _, c := range byState[s.Number] {
			p.printf("\n%v\n", p.describeConflict(c))
		}
	}
}

// dotted renders a production with a dot before its dot-th symbol. A negative dot renders no dot.
func (p *reportPrinter) dotted(num int, dot int) string {
	prod, ok := p.prods[num]
	if !ok {
		return fmt.Sprintf("production %v", num)
	}
	words := []string{prod.LHS, "→"}
	for i, sym := range prod.RHS {
		if i == dot {
			words = append(words, "・")
		}
		words = append(words, sym)
	}
	switch {
	case dot >= len(prod.RHS):
		words = append(words, "・")
	case dot < 0 && len(prod.RHS) == 0:
		words = append(words, "ε")
	}
	return strings.Join(words, " ")
}

func (p *reportPrinter) describeConflict(c *spec.Conflict) string {
	if !c.IsShiftReduce() {
		nums := make([]string, len(c.Reduce))
		for i, n := range c.Reduce {
			nums[i] = fmt.Sprint(n)
		}
		return fmt.Sprintf("reduce/reduce conflict on %v (reduce %v): reduce %v adopted because it is declared first",
			c.Terminal, strings.Join(nums, ", "), c.Reduce[0])
	}

	prod := c.Reduce[0]
	var because string
	switch c.ResolvedBy {
	case spec.ResolvedByPrecedence:
		if c.Adopted == spec.ActionShift {
			because = fmt.Sprintf("%v has higher precedence than production %v", c.Terminal, prod)
		} else {
			because = fmt.Sprintf("production %v has higher precedence than %v", prod, c.Terminal)
		}
	case spec.ResolvedByAssociativity:
		assoc := "-"
		if pr, ok := p.prods[prod]; ok {
			assoc = pr.Associativity
		}
		because = fmt.Sprintf("production %v and %v have the same precedence and production %v is %v-associative", prod, c.Terminal, prod, assoc)
	case spec.ResolvedByNonAssoc:
		because = fmt.Sprintf("production %v and %v have the same precedence and are non-associative", prod, c.Terminal)
	default:
		because = c.ResolvedBy
	}
	return fmt.Sprintf("shift/reduce conflict on %v (shift %v, reduce %v): %v adopted because %v", c.Terminal, c.Shift, prod, c.Adopted, because)
}

func orDash(v interface{}) interface{} {
	switch v := v.(type) {
	case int:
		if v == 0 {
			return "-"
		}
	case string:
		if v == "" {
			return "-"
		}
	}
	return v
}
