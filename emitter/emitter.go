package emitter

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/iancoleman/strcase"
	spec "github.com/nihei9/oxi/spec/grammar"
	"go.uber.org/zap"
)

type genConfig struct {
	pkgName  string
	funcName string
	logger   *zap.Logger
}

type GenOption func(config *genConfig)

// PackageName sets the package clause of the generated file. The default is `main`.
func PackageName(name string) GenOption {
	return func(config *genConfig) {
		config.pkgName = name
	}
}

// FuncName overrides the name of the generated entry point.
func FuncName(name string) GenOption {
	return func(config *genConfig) {
		config.funcName = name
	}
}

func WithLogger(logger *zap.Logger) GenOption {
	return func(config *genConfig) {
		config.logger = logger
	}
}

// EntryPointName returns the name of the function GenParser emits for a grammar. An exported name is
// derived from the grammar name when the grammar is public.
func EntryPointName(cgram *spec.CompiledGrammar) string {
	if cgram.Public {
		return strcase.ToCamel(cgram.Name)
	}
	return strcase.ToLowerCamel(cgram.Name)
}

// GenParser generates the Go source code of a parser. The parser consists of one entry point that drives
// compressed parsing tables over a token source and returns the value of the start symbol.
func GenParser(cgram *spec.CompiledGrammar, opts ...GenOption) ([]byte, error) {
	config := &genConfig{
		pkgName: "main",
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(config)
	}
	if cgram == nil || cgram.Syntactic == nil {
		return nil, fmt.Errorf("a compiled grammar has no syntactic specification")
	}
	if config.funcName == "" {
		config.funcName = EntryPointName(cgram)
	}
	if !isIdentifier(config.funcName) {
		return nil, fmt.Errorf("an entry point name must be a Go identifier: %v", config.funcName)
	}
	if !isIdentifier(config.pkgName) {
		return nil, fmt.Errorf("a package name must be a Go identifier: %v", config.pkgName)
	}

	data, err := newTemplateData(cgram, config)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"ints": genIntSlice,
	}).Parse(parserTemplate)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	err = tmpl.Execute(&b, data)
	if err != nil {
		return nil, err
	}

	src, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated code is not valid Go; check the action code and the types: %w", err)
	}
	return src, nil
}

type terminalConst struct {
	Name  string
	Kind  int
	Label string
}

type reduceParam struct {
	Name string
	Type string
}

type reduceFunc struct {
	Production int
	Name       string
	Comment    string
	Params     []reduceParam
	ResultName string
	ResultType string
	// Either Expr or Body is set. Body is used when the action code assigns the result via `$$` or is empty.
	Expr string
	Body string
}

type templateData struct {
	Package        string
	FuncName       string
	Prefix         string
	TypePrefix     string
	TokenType      string
	StartType      string
	Terminals      []terminalConst
	TerminalNames  []string
	ActionEntries  []int
	ActionOwner    []int
	ActionOffset   []int
	GoToRows       []int
	GoToRowOf      []int
	InitialState   int
	StartProd      int
	EOF            int
	LHS            []int
	Arity          []int
	Reductions     []*reduceFunc
	TerminalCount  int
	NonTermCount   int
	ActionOrigSize int
	GoToOrigSize   int
}

func newTemplateData(cgram *spec.CompiledGrammar, config *genConfig) (*templateData, error) {
	synt := cgram.Syntactic

	action, err := displaceRows(synt.Action, synt.TerminalCount)
	if err != nil {
		return nil, fmt.Errorf("invalid ACTION table: %w", err)
	}
	goTo, err := shareRows(synt.GoTo, synt.NonTerminalCount)
	if err != nil {
		return nil, fmt.Errorf("invalid GOTO table: %w", err)
	}
	config.logger.Debug("packed parsing tables",
		zap.String("grammar", cgram.Name),
		zap.Int("action", len(synt.Action)),
		zap.Int("packed action", action.size()),
		zap.Int("goto", len(synt.GoTo)),
		zap.Int("packed goto", goTo.size()))

	// Identifiers other than the entry point share a prefix derived from the entry point, so that two parsers
	// can live in one package.
	prefix := strcase.ToLowerCamel(config.funcName)
	typePrefix := prefix
	if isExported(config.funcName) {
		typePrefix = strcase.ToCamel(config.funcName)
	}

	terms := make([]terminalConst, 0, synt.TerminalCount)
	termNames := make([]string, synt.TerminalCount)
	isTerm := map[string]bool{}
	constOwner := map[string]string{}
	for num, name := range synt.Terminals {
		termNames[num] = name
		if num == 0 {
			continue
		}
		isTerm[name] = true
		suffix := strcase.ToCamel(name)
		if num == synt.EOFSymbol {
			suffix = "EOF"
		}
		constName := typePrefix + "Kind" + suffix
		if owner, ok := constOwner[constName]; ok {
			return nil, fmt.Errorf("terminals %v and %v are both mapped to %v", owner, name, constName)
		}
		constOwner[constName] = name
		terms = append(terms, terminalConst{
			Name:  constName,
			Kind:  num,
			Label: name,
		})
	}

	nonTermType := map[string]string{}
	for num, name := range synt.NonTerminals {
		if num >= len(synt.NonTerminalTypes) {
			break
		}
		nonTermType[name] = synt.NonTerminalTypes[num]
	}

	var reductions []*reduceFunc
	for _, r := range cgram.Reductions {
		if r == nil {
			continue
		}
		f, err := newReduceFunc(prefix, r, cgram.TokenType, isTerm, nonTermType)
		if err != nil {
			return nil, err
		}
		reductions = append(reductions, f)
	}

	startLHS := synt.LHSSymbols[synt.StartProduction]
	if startLHS >= len(synt.NonTerminalTypes) || synt.NonTerminalTypes[startLHS] == "" {
		return nil, fmt.Errorf("the start symbol has no type")
	}

	return &templateData{
		Package:        config.pkgName,
		FuncName:       config.funcName,
		Prefix:         prefix,
		TypePrefix:     typePrefix,
		TokenType:      cgram.TokenType,
		StartType:      synt.NonTerminalTypes[startLHS],
		Terminals:      terms,
		TerminalNames:  termNames,
		ActionEntries:  action.entries,
		ActionOwner:    action.owner,
		ActionOffset:   action.offset,
		GoToRows:       goTo.rows,
		GoToRowOf:      goTo.rowOf,
		InitialState:   synt.InitialState,
		StartProd:      synt.StartProduction,
		EOF:            synt.EOFSymbol,
		LHS:            synt.LHSSymbols,
		Arity:          synt.AlternativeSymbolCounts,
		Reductions:     reductions,
		TerminalCount:  synt.TerminalCount,
		NonTermCount:   synt.NonTerminalCount,
		ActionOrigSize: len(synt.Action),
		GoToOrigSize:   len(synt.GoTo),
	}, nil
}

func newReduceFunc(prefix string, r *spec.Reduction, tokType string, isTerm map[string]bool, nonTermType map[string]string) (*reduceFunc, error) {
	params := make([]reduceParam, len(r.RHS))
	for i, sym := range r.RHS {
		typ := tokType
		if !isTerm[sym] {
			t, ok := nonTermType[sym]
			if !ok {
				return nil, fmt.Errorf("production %v refers to an unknown symbol: %v", r.Production, sym)
			}
			typ = t
		}
		params[i] = reduceParam{
			Name: argName(i + 1),
			Type: typ,
		}
	}

	var code strings.Builder
	for _, f := range r.Action {
		if !f.Placeholder {
			code.WriteString(f.Text)
			continue
		}
		if f.Position > len(r.RHS) {
			return nil, fmt.Errorf("production %v: a placeholder is out of range: $%v", r.Production, f.Position)
		}
		if f.Position == 0 {
			code.WriteString(resultName)
			continue
		}
		code.WriteString(argName(f.Position))
	}

	var comment strings.Builder
	fmt.Fprintf(&comment, "%v →", r.LHS)
	if len(r.RHS) == 0 {
		comment.WriteString(" ε")
	}
	for _, sym := range r.RHS {
		fmt.Fprintf(&comment, " %v", sym)
	}

	f := &reduceFunc{
		Production: r.Production,
		Name:       fmt.Sprintf("%vReduce%v", prefix, r.Production),
		Comment:    comment.String(),
		Params:     params,
		ResultName: resultName,
		ResultType: r.Type,
	}
	c := strings.TrimSpace(code.String())
	if r.HasSelfReference() || c == "" {
		f.Body = c
	} else {
		f.Expr = c
	}
	return f, nil
}

const resultName = "result"

func argName(pos int) string {
	return fmt.Sprintf("arg%v", pos)
}

func genIntSlice(s []int) string {
	var b strings.Builder
	b.WriteString("[]int{")
	for i, v := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", v)
	}
	b.WriteString("}")
	return b.String()
}

func isExported(name string) bool {
	return name != "" && strings.ToUpper(name[:1]) == name[:1]
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

const parserTemplate = `// Code generated by oxi-go. DO NOT EDIT.

package {{ .Package }}

import (
	"fmt"
	"strings"
)

// Kinds of terminals. A token source returns {{ .TypePrefix }}KindEOF at the end of input.
const (
{{- range .Terminals }}
	{{ .Name }} = {{ .Kind }} // {{ .Label }}
{{- end }}
)

// {{ .TypePrefix }}TokenSource supplies tokens to {{ .FuncName }}.
type {{ .TypePrefix }}TokenSource interface {
	Next() (tok {{ .TokenType }}, kind int, err error)
}

// {{ .TypePrefix }}SyntaxError reports a token that the grammar does not allow.
type {{ .TypePrefix }}SyntaxError struct {
	Token    {{ .TokenType }}
	Kind     int
	Expected []string
}

func (e *{{ .TypePrefix }}SyntaxError) Error() string {
	return fmt.Sprintf("unexpected token: %v; expected: %v", {{ .Prefix }}TerminalName(e.Kind), strings.Join(e.Expected, ", "))
}

func {{ .Prefix }}TerminalName(kind int) string {
	if kind <= 0 || kind >= len({{ .Prefix }}Tables.terminals) {
		return fmt.Sprintf("<unknown kind %v>", kind)
	}
	return {{ .Prefix }}Tables.terminals[kind]
}

var {{ .Prefix }}Tables = struct {
	terminals          []string
	terminalCount      int
	nonTerminalCount   int
	initialState       int
	startProduction    int
	eof                int
	lhs                []int
	arity              []int
	actionEntries      []int
	actionOwner        []int
	actionOffset       []int
	goToRows           []int
	goToRowOf          []int
}{
	terminals: []string{
{{- range .TerminalNames }}
		{{ printf "%q" . }},
{{- end }}
	},
	terminalCount:      {{ .TerminalCount }},
	nonTerminalCount:   {{ .NonTermCount }},
	initialState:       {{ .InitialState }},
	startProduction:    {{ .StartProd }},
	eof:                {{ .EOF }},
	lhs:                {{ ints .LHS }},
	arity:              {{ ints .Arity }},
	// {{ .ActionOrigSize }} ACTION entries with rows overlaid on one array
	actionEntries:      {{ ints .ActionEntries }},
	actionOwner:        {{ ints .ActionOwner }},
	actionOffset:       {{ ints .ActionOffset }},
	// {{ .GoToOrigSize }} GOTO entries with identical rows shared
	goToRows:           {{ ints .GoToRows }},
	goToRowOf:          {{ ints .GoToRowOf }},
}

func {{ .Prefix }}Action(state, kind int) int {
	d := {{ .Prefix }}Tables.actionOffset[state]
	if {{ .Prefix }}Tables.actionOwner[d+kind] != state {
		return 0
	}
	return {{ .Prefix }}Tables.actionEntries[d+kind]
}

func {{ .Prefix }}GoTo(state, lhs int) int {
	return {{ .Prefix }}Tables.goToRows[{{ .Prefix }}Tables.goToRowOf[state]*{{ .Prefix }}Tables.nonTerminalCount+lhs]
}

func {{ .Prefix }}ExpectedTerminals(state int) []string {
	var expected []string
	for kind := 1; kind < {{ .Prefix }}Tables.terminalCount; kind++ {
		if {{ .Prefix }}Action(state, kind) != 0 {
			expected = append(expected, {{ .Prefix }}Tables.terminals[kind])
		}
	}
	return expected
}

// {{ .FuncName }} parses the tokens supplied by src and returns the value of the start symbol. It stops at the
// first syntax error.
func {{ .FuncName }}(src {{ .TypePrefix }}TokenSource) ({{ .StartType }}, error) {
	var zero {{ .StartType }}
	states := []int{ {{- .Prefix }}Tables.initialState}
	var values []interface{}

	tok, kind, err := src.Next()
	if err != nil {
		return zero, err
	}
	for {
		if kind <= 0 || kind >= {{ .Prefix }}Tables.terminalCount {
			return zero, fmt.Errorf("a token source returned an unknown kind: %v", kind)
		}
		top := states[len(states)-1]
		act := {{ .Prefix }}Action(top, kind)
		switch {
		case act < 0:
			states = append(states, -act)
			values = append(values, tok)
			tok, kind, err = src.Next()
			if err != nil {
				return zero, err
			}
		case act > 0:
			if act == {{ .Prefix }}Tables.startProduction {
				v, _ := values[len(values)-1].({{ .StartType }})
				return v, nil
			}
			n := {{ .Prefix }}Tables.arity[act]
			v := {{ .Prefix }}Reduce(act, values[len(values)-n:])
			values = append(values[:len(values)-n], v)
			states = states[:len(states)-n]
			next := {{ .Prefix }}GoTo(states[len(states)-1], {{ .Prefix }}Tables.lhs[act])
			states = append(states, next)
		default:
			return zero, &{{ .TypePrefix }}SyntaxError{
				Token:    tok,
				Kind:     kind,
				Expected: {{ .Prefix }}ExpectedTerminals(top),
			}
		}
	}
}

func {{ .Prefix }}Reduce(prod int, args []interface{}) interface{} {
	switch prod {
{{- range .Reductions }}
	case {{ .Production }}:
{{- range $i, $p := .Params }}
		{{ $p.Name }}, _ := args[{{ $i }}].({{ $p.Type }})
{{- end }}
		return {{ .Name }}({{ range $i, $p := .Params }}{{ if $i }}, {{ end }}{{ $p.Name }}{{ end }})
{{- end }}
	}
	panic(fmt.Sprintf("invalid production number: %v", prod))
}
{{ range .Reductions }}
// {{ .Comment }}
{{- if .Expr }}
func {{ .Name }}({{ range $i, $p := .Params }}{{ if $i }}, {{ end }}{{ $p.Name }} {{ $p.Type }}{{ end }}) {{ .ResultType }} {
	return {{ .Expr }}
}
{{- else }}
func {{ .Name }}({{ range $i, $p := .Params }}{{ if $i }}, {{ end }}{{ $p.Name }} {{ $p.Type }}{{ end }}) ({{ .ResultName }} {{ .ResultType }}) {
	{{ .Body }}
	return
}
{{- end }}
{{ end }}`
