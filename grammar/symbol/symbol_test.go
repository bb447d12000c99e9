package symbol

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	tab := NewTable("expr'")
	for _, name := range []string{"expr", "term", "factor"} {
		_, err := tab.NonTerminal(name)
		require.NoError(t, err)
	}
	for _, name := range []string{"add", "mul", "int"} {
		_, err := tab.Terminal(name)
		require.NoError(t, err)
	}

	tests := []struct {
		caption  string
		name     string
		terminal bool
		num      int
	}{
		{
			caption: "the augmented start symbol is non-terminal 1",
			name:    "expr'",
			num:     1,
		},
		{
			caption: "non-terminals are numbered in registration order",
			name:    "factor",
			num:     4,
		},
		{
			caption:  "the end of input is terminal 1",
			name:     NameEOF,
			terminal: true,
			num:      1,
		},
		{
			caption:  "terminals are numbered in registration order",
			name:     "mul",
			terminal: true,
			num:      3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			sym, ok := tab.Lookup(tt.name)
			require.True(t, ok)
			require.Equal(t, tt.terminal, sym.IsTerminal())
			require.Equal(t, !tt.terminal, sym.IsNonTerminal())
			require.Equal(t, tt.num, sym.Num())
			require.Equal(t, tt.name, tab.Name(sym))
		})
	}

	require.Equal(t, []string{"", NameEOF, "add", "mul", "int"}, tab.Terminals())
	require.Equal(t, []string{"", "expr'", "expr", "term", "factor"}, tab.NonTerminals())
	require.Equal(t, 5, tab.TerminalCount())
	require.Equal(t, 5, tab.NonTerminalCount())

	sym, err := tab.Terminal("add")
	require.NoError(t, err)
	require.Equal(t, Symbol(2), sym)

	_, err = tab.Terminal("expr")
	require.Error(t, err)
	_, err = tab.NonTerminal("int")
	require.Error(t, err)

	require.Empty(t, tab.Name(Nil))
	require.Empty(t, tab.Name(Symbol(-9)))
}

func TestLess(t *testing.T) {
	syms := []Symbol{-2, 3, Start, EOF, -3, 2}
	sort.Slice(syms, func(i, j int) bool {
		return Less(syms[i], syms[j])
	})
	require.Equal(t, []Symbol{EOF, 2, 3, Start, -2, -3}, syms)
	require.False(t, Nil.IsTerminal())
	require.False(t, Nil.IsNonTerminal())
}
