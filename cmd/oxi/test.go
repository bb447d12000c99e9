package main

import (
	"fmt"

	"github.com/nihei9/oxi/grammar"
	"github.com/nihei9/oxi/internal/logutil"
	"github.com/nihei9/oxi/tester"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <grammar file path> <test file path>|<test directory path>",
		Short: "Test a grammar",
		Long: `test compiles a grammar and parses the source of each test case with it.
A test case consists of a description, a source, and an expected tree separated by lines of ---.
The source is a list of terminal names like the input of the parse command, and the expected tree
is written in the form (kind "lexeme" children...). The kind _ matches any kind.`,
		Example: `  oxi test grammar.oxi test`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	g, err := readGrammar(args[0])
	if err != nil {
		return errors.Annotate(err, "cannot read a grammar")
	}
	cg, _, err := grammar.Compile(g, grammar.WithLogger(logutil.BgLogger()))
	if err != nil {
		return errors.Annotate(err, "cannot compile a grammar")
	}

	var cs []*tester.Case
	{
		cs = tester.ListTestCases(args[1])
		errOccurred := false
		for _, c := range cs {
			if c.Error != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to read a test case or a directory: %v\n%v\n", c.Path, c.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("cannot run test")
		}
	}

	t := &tester.Tester{
		Grammar: cg,
		Cases:   cs,
	}
	rs := t.Run()
	failed := 0
	for _, r := range rs {
		fmt.Fprintln(cmd.OutOrStdout(), r)
		if r.Error != nil {
			failed++
		}
	}
	logutil.BgLogger().Info("test finished", zap.Int("cases", len(rs)), zap.Int("failed", failed))
	if failed > 0 {
		return errors.Errorf("%v of %v test(s) failed", failed, len(rs))
	}
	return nil
}
