// Package cli — down.go implements "preflight down", the teardown of
// the compose stack. Volume removal destroys data and is guarded by a
// confirmation.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/preflight/internal/compose"
	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/output"
	"github.com/mmr-tortoise/preflight/internal/prompt"
)

// NewDownCommand creates the "down" cobra command.
func NewDownCommand() *cobra.Command {
	var removeVolumes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the stack",
		Long: `Stop the stack and remove its containers and networks. With --volumes
the stack's volumes are removed too, which destroys its data — that
step asks for confirmation unless --yes is set.

Examples:
  preflight down
  preflight down --volumes
  preflight down --volumes --yes`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDown(cmd.Context(), removeVolumes)
		},
	}

	cmd.Flags().BoolVar(&removeVolumes, "volumes", false, "Also remove the stack's volumes (destroys data)")

	return cmd
}

// runDown tears the stack down.
func runDown(ctx context.Context, removeVolumes bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if removeVolumes && !assumeYes {
		confirmed, err := prompt.Confirm(
			fmt.Sprintf("Remove the volumes of %q? This destroys the stack's data.", cfg.Compose.Project),
			false)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "confirming volume removal", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "volume removal declined")
		}
	}

	env, err := loadComposeEnv(cfg)
	if err != nil {
		return err
	}

	err = compose.Down(ctx, cfg.Repo.Dir, cfg.ComposeFilePaths(), cfg.Compose.Project, env, removeVolumes)
	if err != nil {
		return err
	}

	output.Fprintf(os.Stdout, output.Green, "Stack %q is down", cfg.Compose.Project)
	fmt.Println()
	return nil
}
