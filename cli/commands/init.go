package commands

import (
	"fmt"
	"go/token"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/staticsql/cli/internal/config"
	"github.com/satishbabariya/staticsql/cli/internal/ui"
)

const starterQueries = `-- name: create_tables
CREATE TABLE person (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT
);

-- name: insert_person_first
INSERT INTO person (name, email) VALUES (:name, :email) RETURNING id;

-- name: get_person_first
SELECT id, name, email FROM person WHERE id = :id;

-- name: list_people
SELECT id, name, email FROM person ORDER BY name;

-- name: count_people_first
SELECT count(*) AS total__INTEGER FROM person;
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter declarations file and config",
	Long: `Initialize a staticsql project in the current directory.

This command will:
- Write a starter queries.sql with a migration and a few statements
- Write .staticsql.yaml with the output directory and package name`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initYes bool

func init() {
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept defaults without prompting")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ui.PrintHeader("staticsql", "Initialize Project")

	answers := struct {
		Package string
		Output  string
	}{
		Package: cfg.Package,
		Output:  cfg.Output,
	}

	if !initYes {
		questions := []*survey.Question{
			{
				Name:     "package",
				Prompt:   &survey.Input{Message: "Package name of the generated code:", Default: answers.Package},
				Validate: survey.ComposeValidators(survey.Required, validatePackage),
			},
			{
				Name:     "output",
				Prompt:   &survey.Input{Message: "Output directory:", Default: answers.Output},
				Validate: survey.Required,
			},
		}
		if err := survey.Ask(questions, &answers); err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
	} else if err := validatePackage(answers.Package); err != nil {
		return err
	}

	exists, err := existsFile(cfg.Queries)
	if err != nil {
		return err
	}
	if exists {
		ui.PrintWarning("Declarations file already exists: %s", cfg.Queries)
	} else {
		if err := afero.WriteFile(config.AppFs, cfg.Queries, []byte(starterQueries), 0o644); err != nil {
			return fmt.Errorf("failed to create declarations file: %w", err)
		}
		ui.PrintSuccess("Created declarations file: %s", cfg.Queries)
	}

	configPath := config.FileName + ".yaml"
	exists, err = existsFile(configPath)
	if err != nil {
		return err
	}
	if exists {
		ui.PrintWarning("Config file already exists: %s", configPath)
	} else {
		out := *cfg
		out.Package = answers.Package
		out.Output = answers.Output
		if err := config.SaveConfig(&out, configPath); err != nil {
			return err
		}
		ui.PrintSuccess("Created config file: %s", configPath)
	}

	fmt.Println()
	ui.PrintSection("Next Steps")
	ui.PrintList([]string{
		fmt.Sprintf("Edit %s", cfg.Queries),
		"Run: staticsql check",
		"Run: staticsql generate",
	})
	return nil
}

func validatePackage(ans any) error {
	name, _ := ans.(string)
	if !token.IsIdentifier(name) || name == "_" {
		return fmt.Errorf("%q is not a valid package name", name)
	}
	return nil
}
