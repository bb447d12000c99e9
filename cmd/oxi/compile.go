package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	verr "github.com/nihei9/oxi/error"
	"github.com/nihei9/oxi/grammar"
	"github.com/nihei9/oxi/internal/logutil"
	spec "github.com/nihei9/oxi/spec/grammar"
	"github.com/nihei9/oxi/spec/grammar/parser"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type compileFlags struct {
	output string
}

func newCompileCmd() *cobra.Command {
	flags := &compileFlags{}
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar into parsing tables",
		Example: `  oxi compile grammar.oxi -o grammar.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file path (default stdout, or [output] dir of the project file)")
	return cmd
}

func runCompile(cmd *cobra.Command, args []string, flags *compileFlags) error {
	sourceName := "stdin"
	var src []byte
	var err error
	if len(args) > 0 {
		sourceName = args[0]
		src, err = os.ReadFile(sourceName)
	} else {
		src, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return errors.Annotatef(err, "cannot read the grammar %s", sourceName)
	}

	gram, err := parseGrammar(src, sourceName)
	if err != nil {
		return err
	}
	cgram, report, err := grammar.Compile(gram, grammar.EnableReporting(), grammar.WithLogger(logutil.BgLogger()))
	if err != nil {
		return locateSpecErrors(err, src, sourceName)
	}

	output := flags.output
	if output == "" && projectConf.Output.Dir != "" {
		output = projectConf.Output.Dir
		err := os.MkdirAll(output, 0755)
		if err != nil {
			return errors.Trace(err)
		}
	}
	err = writeCompiledGrammarAndReport(cmd.OutOrStdout(), cgram, report, output)
	if err != nil {
		return errors.Annotate(err, "cannot write the output files")
	}

	var rrCount int
	for _, c := range report.Conflicts {
		if !c.IsShiftReduce() {
			rrCount++
		}
	}
	if rrCount > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%v reduce/reduce conflicts\n", rrCount)
	}

	return nil
}

func readGrammar(path string) (*grammar.Grammar, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot open the grammar file %s", path)
	}
	return parseGrammar(src, path)
}

func parseGrammar(src []byte, sourceName string) (*grammar.Grammar, error) {
	root, err := parser.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, locateSpecErrors(err, src, sourceName)
	}
	b := grammar.GrammarBuilder{
		AST: root,
	}
	gram, err := b.Build()
	if err != nil {
		return nil, locateSpecErrors(err, src, sourceName)
	}
	return gram, nil
}

// locateSpecErrors names the source of each diagnostic and quotes the line it points at.
func locateSpecErrors(err error, src []byte, sourceName string) error {
	specErrs, ok := err.(verr.SpecErrors)
	if !ok {
		return err
	}
	for _, e := range specErrs {
		e.SourceName = sourceName
	}
	specErrs.Quote(src)
	return specErrs
}

// writeCompiledGrammarAndReport writes a compiled grammar and a report to files located at a specified path.
// This function selects one of the following output methods depending on how the path is specified.
//
//  1. When the path is a directory path, this function writes the compiled grammar and the report to
//     <path>/<grammar-name>.json and <path>/<grammar-name>-report.json files, respectively.
//  2. When the path is a file path or a non-existent path, this function assumes that the path represents a
//     file path for the compiled grammar. Then it also writes the report in the same directory as the compiled
//     grammar. The report file is named <grammar-name>-report.json.
//  3. When the path is an empty string, this function writes the compiled grammar to stdout and writes the
//     report to a file named <current-directory>/<grammar-name>-report.json.
func writeCompiledGrammarAndReport(stdout io.Writer, cgram *spec.CompiledGrammar, report *spec.Report, path string) error {
	cgramPath, reportPath, err := makeOutputFilePaths(cgram.Name, path)
	if err != nil {
		return err
	}

	if cgramPath == "" {
		err = writeJSON(stdout, cgram)
	} else {
		err = writeJSONFile(cgramPath, cgram)
	}
	if err != nil {
		return err
	}

	return writeJSONFile(reportPath, report)
}

func writeJSONFile(path string, v interface{}) (retErr error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()
	return writeJSON(f, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = fmt.Fprintf(w, "%v\n", string(b))
	return errors.Trace(err)
}

func makeOutputFilePaths(gramName string, path string) (string, string, error) {
	reportFileName := gramName + "-report.json"

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", errors.Trace(err)
		}
		return "", filepath.Join(wd, reportFileName), nil
	}

	fi, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return "", "", errors.Trace(err)
	}
	if os.IsNotExist(err) || !fi.IsDir() {
		dir, _ := filepath.Split(path)
		return path, filepath.Join(dir, reportFileName), nil
	}

	return filepath.Join(path, gramName+".json"), filepath.Join(path, reportFileName), nil
}
