package main

import (
	"fmt"
	"os"

	"github.com/nihei9/oxi/internal/config"
	"github.com/nihei9/oxi/internal/logutil"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

// projectConf holds the project file loaded before a subcommand runs.
var projectConf = config.NewConfig()

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "oxi",
		Short: "Compile a grammar into LALR(1) parsing tables",
		Long: `oxi provides four features:
- Compiles a grammar into LALR(1) parsing tables.
- Prints a report on the tables in a readable format.
- Parses a stream of terminal names using the tables.
  This feature is primarily aimed at debugging the grammar.
- Runs test cases that pair sources with expected trees.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setUp(flags)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", fmt.Sprintf("project file path (default ./%v if it exists)", config.DefaultFileName))
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	cmd.AddCommand(
		newCompileCmd(),
		newShowCmd(),
		newParseCmd(),
		newTestCmd(),
	)
	return cmd
}

func setUp(flags *rootFlags) error {
	conf, err := config.LoadProjectFile(flags.configPath)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		conf.Log.Level = flags.logLevel
	}
	err = logutil.InitLogger(conf.Log.ToLogConfig())
	if err != nil {
		return err
	}
	projectConf = conf
	return nil
}

func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
