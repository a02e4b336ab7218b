// Package cli — sync.go implements "preflight sync", the repository
// sync step on its own: clone when the checkout is absent, fast-forward
// when it exists.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/preflight/internal/gitsync"
	"github.com/mmr-tortoise/preflight/internal/output"
)

// NewSyncCommand creates the "sync" cobra command.
func NewSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Clone or update the application repository",
		Long: `Bring the configured checkout up to date: a fresh clone when the
directory does not exist, a fast-forward pull when it does. Diverged
local history is an error, never merged over.

Examples:
  preflight sync
  preflight sync --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context())
		},
	}
}

// runSync loads the config and performs the sync.
func runSync(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := gitsync.NewSyncer().Sync(ctx, cfg.Repo.URL, cfg.Repo.Ref, cfg.Repo.Dir)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	output.Fprintf(os.Stdout, output.Green, "%s %s", result.Action, result.Path)
	fmt.Printf(" (%s @ %s)\n", result.Ref, result.HeadSHA)
	return nil
}
