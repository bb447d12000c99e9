package grammar

import (
	"fmt"

	verr "github.com/nihei9/oxi/error"
	"github.com/nihei9/oxi/grammar/symbol"
	spec "github.com/nihei9/oxi/spec/grammar"
	"github.com/nihei9/oxi/spec/grammar/parser"
	"go.uber.org/zap"
)

const (
	warnKindUnreachable   = "unreachable_production"
	warnKindReduceReduce  = "reduce_reduce_conflict"
	augmentedStartPostfix = "'"
)

// Production is a production as declared in a grammar: a name, a result type, and alternatives in
// declaration order.
type Production struct {
	name string
	typ  string
	arms []*ProductionArm
}

func (p *Production) Name() string {
	return p.name
}

func (p *Production) Type() string {
	return p.typ
}

func (p *Production) Arms() []*ProductionArm {
	arms := make([]*ProductionArm, len(p.arms))
	copy(arms, p.arms)
	return arms
}

// ProductionArm is one alternative of a production. Its symbols are bare names; they are classified into
// terminals and non-terminals when the grammar is built.
type ProductionArm struct {
	symbols []string
	prec    string
	action  []*spec.ActionFragment
}

func (a *ProductionArm) Symbols() []string {
	syms := make([]string, len(a.symbols))
	copy(syms, a.symbols)
	return syms
}

// Prec returns the symbol given to `%prec`, or an empty string.
func (a *ProductionArm) Prec() string {
	return a.prec
}

func (a *ProductionArm) Action() []spec.ActionFragment {
	frags := make([]spec.ActionFragment, len(a.action))
	for i, f := range a.action {
		frags[i] = *f
	}
	return frags
}

// Grammar is a validated grammar. It has no exported fields and no mutators, so it cannot change once built.
type Grammar struct {
	config      *Config
	productions []*Production
	precTable   *PrecedenceTable
	symbols     *symbol.Table
	rules       *ruleSet
	warnings    []*spec.Warning
}

func (g *Grammar) Config() Config {
	return *g.config
}

func (g *Grammar) Productions() []*Production {
	prods := make([]*Production, len(g.productions))
	copy(prods, g.productions)
	return prods
}

func (g *Grammar) PrecedenceTable() *PrecedenceTable {
	return g.precTable
}

// Warnings returns non-fatal findings such as unreachable productions.
func (g *Grammar) Warnings() []*spec.Warning {
	ws := make([]*spec.Warning, len(g.warnings))
	copy(ws, g.warnings)
	return ws
}

type GrammarBuilder struct {
	AST *parser.RootNode

	errs verr.SpecErrors
}

// Build validates the tree and builds a grammar. It collects independent errors and returns all of them,
// sorted by position.
func (b *GrammarBuilder) Build() (*Grammar, error) {
	b.errs = nil

	config, err := ResolveConfig(b.AST)
	if err != nil {
		return nil, err
	}

	prodNodes := b.AST.Productions()

	nonTerms := map[string]struct{}{}
	var prods []*parser.ProductionNode
	for _, prod := range prodNodes {
		if _, ok := nonTerms[prod.LHS]; ok {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrDuplicateProduction,
				Detail: prod.LHS,
				Row:    prod.Pos.Row,
				Col:    prod.Pos.Col,
			})
			continue
		}
		nonTerms[prod.LHS] = struct{}{}
		prods = append(prods, prod)
	}

	precTab, errs := genPrecedenceTable(b.AST.Directives(), nonTerms)
	b.errs = append(b.errs, errs...)

	b.checkPlaceholders(prods)
	b.checkTermination(prods, nonTerms)
	if len(b.errs) > 0 {
		b.errs.Sort()
		return nil, b.errs
	}

	gram, err := b.genGrammar(config, prods, nonTerms, precTab)
	if err != nil {
		return nil, err
	}
	if len(b.errs) > 0 {
		b.errs.Sort()
		return nil, b.errs
	}

	gram.warnings = findUnreachableProductions(prods, config.StartProduction, nonTerms)

	return gram, nil
}

func (b *GrammarBuilder) genGrammar(config *Config, prodNodes []*parser.ProductionNode, nonTerms map[string]struct{}, precTab *PrecedenceTable) (*Grammar, error) {
	syms := symbol.NewTable(config.StartProduction + augmentedStartPostfix)
	for _, n := range prodNodes {
		if _, err := syms.NonTerminal(n.LHS); err != nil {
			return nil, err
		}
	}
	for _, n := range prodNodes {
		for _, alt := range n.RHS {
			for _, elem := range alt.Elements {
				if _, ok := nonTerms[elem.ID]; ok {
					continue
				}
				if _, err := syms.Terminal(elem.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	g := &Grammar{
		config:    config,
		precTable: precTab,
		symbols:   syms,
		rules:     newRuleSet(),
	}

	startSym, _ := syms.Lookup(config.StartProduction)
	startProd := &Production{
		name: syms.Name(symbol.Start),
		arms: []*ProductionArm{
			{
				symbols: []string{config.StartProduction},
			},
		},
	}
	for _, n := range prodNodes {
		if n.LHS == config.StartProduction {
			startProd.typ = n.Type
		}
	}
	g.rules.add(&rule{
		lhs:  symbol.Start,
		rhs:  []symbol.Symbol{startSym},
		prod: startProd,
	})

	for _, n := range prodNodes {
		lhs, _ := syms.Lookup(n.LHS)
		prod := &Production{
			name: n.LHS,
			typ:  n.Type,
		}
		for i, alt := range n.RHS {
			arm := &ProductionArm{
				prec:   alt.Prec,
				action: convertAction(alt.Action),
			}
			r := &rule{
				lhs:  lhs,
				prod: prod,
				alt:  len(prod.arms),
			}
			for _, elem := range alt.Elements {
				sym, ok := syms.Lookup(elem.ID)
				if !ok {
					return nil, fmt.Errorf("symbol not found: %v", elem.ID)
				}
				r.rhs = append(r.rhs, sym)
				arm.symbols = append(arm.symbols, elem.ID)
			}
			if !g.rules.add(r) {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrDuplicateAlternative,
					Detail: fmt.Sprintf("%v: alternative #%v", n.LHS, i+1),
					Row:    alt.Pos.Row,
					Col:    alt.Pos.Col,
				})
				continue
			}
			prod.arms = append(prod.arms, arm)

			precSym, ok := b.precedenceSymbol(precTab, alt, r.rhs)
			if !ok {
				continue
			}
			r.prec = precTab.TerminalPrecedence(precSym)
			r.assoc = precTab.Associativity(precSym)
		}
		g.productions = append(g.productions, prod)
	}

	return g, nil
}

// precedenceSymbol returns the terminal an arm takes its precedence from: the symbol given to %prec, or
// else the right-most terminal. ok is false when %prec names a symbol without precedence.
func (b *GrammarBuilder) precedenceSymbol(precTab *PrecedenceTable, alt *parser.AlternativeNode, rhs []symbol.Symbol) (string, bool) {
	if alt.Prec != "" {
		if precTab.TerminalPrecedence(alt.Prec) == precNil {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrUndefinedSym,
				Detail: fmt.Sprintf("%v has no precedence", alt.Prec),
				Row:    alt.PrecPos.Row,
				Col:    alt.PrecPos.Col,
			})
			return "", false
		}
		return alt.Prec, true
	}
	for i := len(rhs) - 1; i >= 0; i-- {
		if rhs[i].IsTerminal() {
			return alt.Elements[i].ID, true
		}
	}
	return "", true
}

func convertAction(act *parser.ActionNode) []*spec.ActionFragment {
	frags := make([]*spec.ActionFragment, len(act.Fragments))
	for i, f := range act.Fragments {
		frags[i] = &spec.ActionFragment{
			Text:        f.Text,
			Placeholder: f.Placeholder,
			Position:    f.Position,
		}
	}
	return frags
}

// checkPlaceholders reports `$i` referring beyond the end of its alternative.
func (b *GrammarBuilder) checkPlaceholders(prods []*parser.ProductionNode) {
	for _, prod := range prods {
		for _, alt := range prod.RHS {
			for _, f := range alt.Action.Fragments {
				if !f.Placeholder || f.Position <= len(alt.Elements) {
					continue
				}
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrPlaceholderOutOfRange,
					Detail: fmt.Sprintf("$%v in an alternative of %v having %v symbols", f.Position, prod.LHS, len(alt.Elements)),
					Row:    f.Pos.Row,
					Col:    f.Pos.Col,
				})
			}
		}
	}
}

// checkTermination reports non-terminals that derive no string of terminals. A non-terminal is productive
// when one of its alternatives consists of terminals and productive non-terminals only.
func (b *GrammarBuilder) checkTermination(prods []*parser.ProductionNode, nonTerms map[string]struct{}) {
	productive := map[string]bool{}
	for {
		changed := false
		for _, prod := range prods {
			if productive[prod.LHS] {
				continue
			}
			for _, alt := range prod.RHS {
				ok := true
				for _, elem := range alt.Elements {
					if _, isNonTerm := nonTerms[elem.ID]; isNonTerm && !productive[elem.ID] {
						ok = false
						break
					}
				}
				if ok {
					productive[prod.LHS] = true
					changed = true
					break
				}
			}
		}
		if !changed {
			break
		}
	}

	for _, prod := range prods {
		if productive[prod.LHS] {
			continue
		}
		b.errs = append(b.errs, &verr.SpecError{
			Cause:  semErrNonTerminating,
			Detail: prod.LHS,
			Row:    prod.Pos.Row,
			Col:    prod.Pos.Col,
		})
	}
}

func findUnreachableProductions(prods []*parser.ProductionNode, start string, nonTerms map[string]struct{}) []*spec.Warning {
	byName := map[string]*parser.ProductionNode{}
	for _, prod := range prods {
		byName[prod.LHS] = prod
	}

	reachable := map[string]bool{
		start: true,
	}
	queue := []string{start}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, alt := range byName[name].RHS {
			for _, elem := range alt.Elements {
				if _, ok := nonTerms[elem.ID]; !ok || reachable[elem.ID] {
					continue
				}
				reachable[elem.ID] = true
				queue = append(queue, elem.ID)
			}
		}
	}

	var ws []*spec.Warning
	for _, prod := range prods {
		if reachable[prod.LHS] {
			continue
		}
		ws = append(ws, &spec.Warning{
			Kind:    warnKindUnreachable,
			Message: fmt.Sprintf("%v is unreachable from the start symbol %v", prod.LHS, start),
		})
	}
	return ws
}

type compileConfig struct {
	isReportingEnabled bool
	logger             *zap.Logger
}

type CompileOption func(config *compileConfig)

func EnableReporting() CompileOption {
	return func(config *compileConfig) {
		config.isReportingEnabled = true
	}
}

// WithLogger sets a logger that receives warnings. Compile doesn't log anything by default.
func WithLogger(logger *zap.Logger) CompileOption {
	return func(config *compileConfig) {
		config.logger = logger
	}
}

// Compile generates the LALR(1) parsing table of a grammar. The report is nil unless EnableReporting is
// passed.
func Compile(gram *Grammar, opts ...CompileOption) (*spec.CompiledGrammar, *spec.Report, error) {
	config := &compileConfig{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(config)
	}

	first := genFirstTable(gram.rules, gram.symbols.TerminalCount(), gram.symbols.NonTerminalCount())
	a := genAutomaton(gram.rules, first, gram.symbols.TerminalCount())
	tab, conflicts, err := genParsingTable(gram, a)
	if err != nil {
		return nil, nil, err
	}

	warnings := append(gram.Warnings(), reduceReduceWarnings(gram, gram.rules, conflicts)...)
	for _, w := range warnings {
		config.logger.Warn(w.Message, zap.String("kind", w.Kind), zap.String("grammar", gram.config.Name))
	}

	syn := &spec.SyntacticSpec{
		Action:                  tab.action,
		GoTo:                    tab.goTo,
		StateCount:              tab.stateCount,
		InitialState:            a.states[0].num,
		StartProduction:         ruleStart,
		LHSSymbols:              make([]int, gram.rules.count()),
		AlternativeSymbolCounts: make([]int, gram.rules.count()),
		Terminals:               gram.symbols.Terminals(),
		TerminalCount:           tab.termCount,
		NonTerminals:            gram.symbols.NonTerminals(),
		NonTerminalCount:        tab.nonTermCount,
		NonTerminalTypes:        make([]string, tab.nonTermCount),
		EOFSymbol:               symbol.EOF.Num(),
	}
	reds := make([]*spec.Reduction, gram.rules.count())
	for _, r := range gram.rules.all() {
		syn.LHSSymbols[r.num] = r.lhs.Num()
		syn.AlternativeSymbolCounts[r.num] = len(r.rhs)
		syn.NonTerminalTypes[r.lhs.Num()] = r.prod.typ
		if r.num == ruleStart {
			continue
		}
		reds[r.num] = &spec.Reduction{
			Production:  r.num,
			LHS:         r.prod.name,
			Alternative: r.alt,
			RHS:         r.arm().Symbols(),
			Type:        r.prod.typ,
			Action:      r.arm().action,
		}
	}

	var report *spec.Report
	if config.isReportingEnabled {
		report = genReport(gram, a, tab, conflicts, reds)
		report.Warnings = warnings
	}

	return &spec.CompiledGrammar{
		Name:       gram.config.Name,
		Public:     gram.config.Public,
		TokenType:  gram.config.TokenType,
		Syntactic:  syn,
		Reductions: reds,
	}, report, nil
}
