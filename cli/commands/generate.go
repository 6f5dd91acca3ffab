package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/staticsql/cli/internal/config"
	"github.com/satishbabariya/staticsql/cli/internal/ui"
	"github.com/satishbabariya/staticsql/cli/internal/version"
	"github.com/satishbabariya/staticsql/cli/internal/watch"
	"github.com/satishbabariya/staticsql/generator"
	"github.com/satishbabariya/staticsql/inference"
)

var generateCmd = &cobra.Command{
	Use:   "generate [queries-file]",
	Short: "Generate Go code from a declarations file",
	Long: `Generate typed Go functions from a file of named SQLite statements.

This command will:
- Parse the declarations file
- Apply the migration to a scratch in-memory database
- Infer parameter and column types of every statement
- Write queries.go and models.go to the output directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var (
	generateOutput    string
	generatePackage   string
	generateMigration string
	generateStrict    bool
	generateModels    bool
	generateWatch     bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Output directory (default from config, ./db)")
	generateCmd.Flags().StringVarP(&generatePackage, "package", "p", "", "Package name of the generated code")
	generateCmd.Flags().StringVar(&generateMigration, "migration", "", "Name of the migration declaration")
	generateCmd.Flags().BoolVar(&generateStrict, "strict", false, "Fail on unverified parameter or column types")
	generateCmd.Flags().BoolVar(&generateModels, "models", true, "Generate one struct per table")
	generateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Watch the declarations file for changes")

	rootCmd.AddCommand(generateCmd)
}

// generatorConfig merges the loaded configuration with explicitly set flags.
func generatorConfig(cmd *cobra.Command, args []string) generator.Config {
	gc := generator.Config{
		Queries:       cfg.Queries,
		Output:        cfg.Output,
		Package:       cfg.Package,
		RuntimeImport: cfg.RuntimeImport,
		Migration:     cfg.Migration,
		Strict:        cfg.Strict,
		Models:        cfg.Models,
		Version:       version.Get().Tag(),
	}
	if len(args) > 0 {
		gc.Queries = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		gc.Output = generateOutput
	}
	if flags.Changed("package") {
		gc.Package = generatePackage
	}
	if flags.Changed("migration") {
		gc.Migration = generateMigration
	}
	if flags.Changed("strict") {
		gc.Strict = generateStrict
	}
	if flags.Changed("models") {
		gc.Models = generateModels
	}
	return gc
}

func runGenerate(cmd *cobra.Command, args []string) error {
	gc := generatorConfig(cmd, args)

	if exists, err := existsFile(gc.Queries); err != nil {
		return err
	} else if !exists {
		return fmt.Errorf("declarations file not found: %s", gc.Queries)
	}

	if generateWatch {
		return runGenerateWatch(cmd.Context(), gc)
	}

	ui.PrintHeader("staticsql", "Generate")

	info := pterm.Info.WithPrefix(pterm.Prefix{
		Text:  "INFO",
		Style: pterm.NewStyle(pterm.FgBlue),
	})
	info.Println(fmt.Sprintf("Queries: %s", gc.Queries))
	info.Println(fmt.Sprintf("Output: %s", gc.Output))
	info.Println(fmt.Sprintf("Package: %s", gc.Package))
	fmt.Println()

	reportOutputVersion(gc.Output)

	spinner := ui.PrintSpinner("Generating code...")
	res, err := generator.NewGenerator(config.AppFs, gc).Generate(cmd.Context())
	_ = spinner.Stop()
	if err != nil {
		return err
	}

	absPath, _ := filepath.Abs(gc.Output)
	ui.PrintSuccess("Generated %d statements at %s", len(res.Schema.Statements), absPath)
	fmt.Println()

	ui.PrintSection("Generated Files")
	ui.PrintList(res.Files)

	if unverified := countUnverified(res.Schema); unverified > 0 {
		fmt.Println()
		ui.PrintWarning("%d parameters or columns have unverified types, run staticsql check for details", unverified)
	}
	return nil
}

func runGenerateWatch(ctx context.Context, gc generator.Config) error {
	ui.PrintHeader("staticsql", "Watch Mode")

	gen := generator.NewGenerator(config.AppFs, gc)
	callback := func() error {
		res, err := gen.Generate(ctx)
		if err != nil {
			return err
		}
		ui.PrintSuccess("Generated %d statements at %s", len(res.Schema.Statements), gc.Output)
		return nil
	}

	watcher, err := watch.NewWatcher(gc.Queries, callback, watch.WithErrorHandler(func(err error) {
		ui.PrintError("%v", err)
	}))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ui.PrintSuccess("Watching %s for changes... (Press Ctrl+C to stop)", gc.Queries)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	<-sigChan

	ui.PrintInfo("Stopping watch mode...")
	return nil
}

func countUnverified(schema *inference.Schema) int {
	n := 0
	for i := range schema.Statements {
		n += len(schema.Statements[i].Unverified())
	}
	return n
}

func existsFile(path string) (bool, error) {
	_, err := config.AppFs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}
