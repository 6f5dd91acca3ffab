package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/staticsql/cli/internal/config"
	"github.com/satishbabariya/staticsql/cli/internal/ui"
	"github.com/satishbabariya/staticsql/cli/internal/update"
	"github.com/satishbabariya/staticsql/cli/internal/version"
	"github.com/satishbabariya/staticsql/generator"
	"github.com/satishbabariya/staticsql/inference"
)

var checkCmd = &cobra.Command{
	Use:   "check [queries-file]",
	Short: "Type every statement without writing code",
	Long: `Check a declarations file without writing any code.

This command will:
- Apply the migration and type every statement
- List shapes, parameters and columns with their types
- Flag types that could not be verified against the schema
- Compare existing generated output with this generator version`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

var (
	checkMigration string
	checkStrict    bool
)

func init() {
	checkCmd.Flags().StringVar(&checkMigration, "migration", "", "Name of the migration declaration")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Fail on unverified parameter or column types")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	gc := generator.Config{
		Queries:   cfg.Queries,
		Output:    cfg.Output,
		Migration: cfg.Migration,
		Strict:    cfg.Strict,
	}
	if len(args) > 0 {
		gc.Queries = args[0]
	}
	if cmd.Flags().Changed("migration") {
		gc.Migration = checkMigration
	}
	if cmd.Flags().Changed("strict") {
		gc.Strict = checkStrict
	}

	ui.PrintHeader("staticsql", "Check")

	schema, err := generator.NewGenerator(config.AppFs, gc).Analyze(cmd.Context())
	if err != nil {
		return err
	}

	if len(schema.Statements) > 0 {
		if err := ui.PrintTable(
			[]string{"Statement", "Shape", "Parameters", "Columns"},
			statementRows(schema),
		); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
		fmt.Println()
	}

	if err := ui.PrintMarkdown(checkSummary(schema)); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	reportOutputVersion(gc.Output)
	return nil
}

func statementRows(schema *inference.Schema) [][]string {
	rows := make([][]string, 0, len(schema.Statements))
	for _, st := range schema.Statements {
		params := make([]string, 0, len(st.Params))
		for _, p := range st.Params {
			params = append(params, describe(":"+p.Name, p.Metadata))
		}
		columns := make([]string, 0, len(st.Columns))
		for _, c := range st.Columns {
			columns = append(columns, describe(c.Name, c.Metadata))
		}

		shape := st.Shape.String()
		if len(st.Columns) == 0 {
			shape = "exec"
		}
		rows = append(rows, []string{
			st.Name,
			shape,
			orNone(params),
			orNone(columns),
		})
	}
	return rows
}

func describe(name string, md inference.Metadata) string {
	text := fmt.Sprintf("%s %s", name, md.Type.GoType(md.Nullability))
	if md.Source.Verified() {
		return ui.Colorize(ui.Verified, text)
	}
	return ui.Colorize(ui.Unverified, fmt.Sprintf("%s (%s?)", text, md.Source))
}

func orNone(items []string) string {
	if len(items) == 0 {
		return ui.Colorize(ui.Muted, "-")
	}
	return strings.Join(items, "\n")
}

func checkSummary(schema *inference.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- Migration `%s`: %d statements, %d tables\n",
		schema.Migration.Name, len(schema.Migration.Statements), len(schema.Catalog.Tables))
	fmt.Fprintf(&b, "- %d statements typed\n", len(schema.Statements))

	var unverified []string
	for i := range schema.Statements {
		st := &schema.Statements[i]
		for _, name := range st.Unverified() {
			unverified = append(unverified, fmt.Sprintf("`%s` in `%s`", name, st.Name))
		}
	}
	if len(unverified) == 0 {
		b.WriteString("- every parameter and column is verified\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\n### Unverified\n\nAdd a type hint such as `__INTEGER` or `__TEXT__NULLABLE` to:\n\n")
	for _, u := range unverified {
		fmt.Fprintf(&b, "- %s\n", u)
	}
	return b.String()
}

func reportOutputVersion(output string) {
	recorded, found, err := generator.OutputVersion(config.AppFs, output)
	if err != nil || !found {
		return
	}
	current := version.Get().Tag()
	status, err := update.Compare(current, recorded)
	if err != nil {
		ui.PrintInfo("Generated output in %s records version %s", output, recorded)
		return
	}
	if advice := update.Advice(status, current, recorded); advice != "" {
		ui.PrintWarning("%s", advice)
		return
	}
	ui.PrintSuccess("Generated output in %s is up to date", output)
}
