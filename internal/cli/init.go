// Package cli — init.go implements "preflight init", which writes the
// commented starter configuration.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/preflight/internal/config"
	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/output"
)

// NewInitCommand creates the "init" cobra command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter preflight.yaml",
		Long: `Write a commented starter configuration to preflight.yaml (or the
--config path). An existing file is never overwritten without --force.

Examples:
  preflight init
  preflight init --config deploy/preflight.yaml
  preflight init --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

// runInit writes the embedded starter config.
func runInit(force bool) error {
	path := configPath
	if path == "" {
		path = config.DefaultFileNames[0]
	}

	if _, err := os.Stat(path); err == nil && !force {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("%s already exists — use --force to overwrite", path))
	}

	if err := os.WriteFile(path, config.Starter, 0644); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("writing %s", path), err)
	}

	output.Fprintf(os.Stdout, output.Green, "Wrote %s", path)
	fmt.Println(" — edit repo.url, then run \"preflight up\"")
	return nil
}
