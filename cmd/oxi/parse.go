package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nihei9/oxi/driver/parser"
	"github.com/nihei9/oxi/internal/logutil"
	spec "github.com/nihei9/oxi/spec/grammar"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type parseFlags struct {
	source     string
	onlyParse  bool
	disableLAC bool
}

func newParseCmd() *cobra.Command {
	flags := &parseFlags{}
	cmd := &cobra.Command{
		Use:   "parse <compiled grammar file path>",
		Short: "Parse a stream of terminal names",
		Long: `parse reads white-space-separated words and parses them using a compiled grammar.
A word is the name of a terminal, optionally followed by a colon and a lexeme (e.g. int:12).`,
		Example: `  echo "int:1 add int:2" | oxi parse grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.source, "source", "s", "", "source file path (default stdin)")
	cmd.Flags().BoolVar(&flags.onlyParse, "only-parse", false, "when this option is enabled, the parser performs only parse and doesn't print a CST")
	cmd.Flags().BoolVar(&flags.disableLAC, "disable-lac", false, "disable LAC (lookahead correction)")
	return cmd
}

func runParse(cmd *cobra.Command, args []string, flags *parseFlags) (retErr error) {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return errors.Annotate(err, "cannot read a compiled grammar")
	}
	tab, err := parser.NewTables(cgram)
	if err != nil {
		return errors.Trace(err)
	}

	src := cmd.InOrStdin()
	if flags.source != "" {
		f, err := os.Open(flags.source)
		if err != nil {
			return errors.Annotatef(err, "cannot open the source file %s", flags.source)
		}
		defer func() {
			retErr = multierr.Append(retErr, f.Close())
		}()
		src = f
	}

	toks, err := parser.NewWordSource(tab, src)
	if err != nil {
		return errors.Trace(err)
	}

	var opts []parser.Option
	var builder *parser.TreeBuilder
	if !flags.onlyParse {
		builder = parser.NewTreeBuilder(tab)
		opts = append(opts, parser.WithListener(builder))
	}
	if flags.disableLAC {
		opts = append(opts, parser.WithoutLAC())
	}

	logutil.BgLogger().Debug("parsing", zap.String("grammar", cgram.Name), zap.Bool("lac", !flags.disableLAC))
	err = parser.NewParser(tab, toks, opts...).Parse()
	if synErr, ok := err.(*parser.SyntaxError); ok {
		fmt.Fprintln(cmd.ErrOrStderr(), synErr)
		return errors.New("a syntax error found")
	}
	if err != nil {
		return errors.Trace(err)
	}

	if builder != nil {
		return errors.Trace(parser.PrintTree(cmd.OutOrStdout(), builder.Tree()))
	}
	return nil
}

func readCompiledGrammar(path string) (cgram *spec.CompiledGrammar, retErr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cgram = &spec.CompiledGrammar{}
	err = json.Unmarshal(data, cgram)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cgram.Syntactic == nil {
		return nil, errors.Errorf("%s has no parsing table", path)
	}
	return cgram, nil
}
