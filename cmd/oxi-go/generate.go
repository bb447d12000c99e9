package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nihei9/oxi/emitter"
	"github.com/nihei9/oxi/internal/config"
	"github.com/nihei9/oxi/internal/logutil"
	spec "github.com/nihei9/oxi/spec/grammar"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func Execute() error {
	return newGenerateCmd().Execute()
}

type generateFlags struct {
	pkgName    string
	funcName   string
	output     string
	configPath string
}

func newGenerateCmd() *cobra.Command {
	flags := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "oxi-go",
		Short: "Generate a parser for Go",
		Long: `oxi-go generates a parser for Go from a compiled grammar.
The generated file has one entry point that returns the value of the start symbol.`,
		Example: `  oxi-go grammar.json -p calc`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, flags)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.Flags().StringVarP(&flags.pkgName, "package", "p", "", "package name (default [generate] package of the project file, or main)")
	cmd.Flags().StringVarP(&flags.funcName, "func", "f", "", "entry point name (default derived from the grammar name)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default the current directory)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", fmt.Sprintf("project file path (default ./%v if it exists)", config.DefaultFileName))
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, flags *generateFlags) error {
	conf, err := config.LoadProjectFile(flags.configPath)
	if err != nil {
		return err
	}
	err = logutil.InitLogger(conf.Log.ToLogConfig())
	if err != nil {
		return err
	}

	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return errors.Annotate(err, "cannot read a compiled grammar")
	}

	pkgName := flags.pkgName
	if pkgName == "" {
		pkgName = conf.Generate.Package
	}
	opts := []emitter.GenOption{
		emitter.PackageName(pkgName),
		emitter.WithLogger(logutil.BgLogger()),
	}
	if flags.funcName != "" {
		opts = append(opts, emitter.FuncName(flags.funcName))
	}
	b, err := emitter.GenParser(cgram, opts...)
	if err != nil {
		return errors.Annotate(err, "failed to generate a parser")
	}

	filePath := filepath.Join(flags.output, fmt.Sprintf("%v_parser.go", cgram.Name))
	if err := os.WriteFile(filePath, b, 0644); err != nil {
		return errors.Annotate(err, "failed to write parser source code")
	}
	logutil.BgLogger().Info("generated a parser", zap.String("path", filePath), zap.String("package", pkgName))

	return nil
}

// readCompiledGrammar decodes the JSON file written by `oxi compile`.
func readCompiledGrammar(path string) (_ *spec.CompiledGrammar, retErr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()
	cgram := &spec.CompiledGrammar{}
	if err := json.NewDecoder(f).Decode(cgram); err != nil {
		return nil, errors.Annotatef(err, "%v is not a compiled grammar", path)
	}
	if cgram.Syntactic == nil {
		return nil, errors.Errorf("%v has no parsing tables", path)
	}
	return cgram, nil
}
