package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/staticsql/cli/internal/config"
	"github.com/satishbabariya/staticsql/cli/internal/version"
	"github.com/satishbabariya/staticsql/internal/debug"
)

var (
	cfgFile   string
	debugMode bool

	// cfg is loaded before every command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "staticsql",
	Short: "Generate typed Go functions from SQLite statements",
	Long: `staticsql reads a file of named SQLite statements, applies its migration
to a scratch in-memory database and generates a typed Go function for
every statement.

Statement names choose the result shape:
  name_first   at most one row
  name_stream  rows decoded on demand
  name         every row`,
	Version:       version.Get().Tag(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug.Init(debugMode || debug.FromEnv())

		loaded, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		debug.Debug("Configuration loaded", "queries", cfg.Queries, "output", cfg.Output, "package", cfg.Package)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.staticsql.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// Execute is the main entry point for the CLI
func Execute() error {
	return rootCmd.Execute()
}
