package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/internal/updater"
)

const updateTimeout = 2 * time.Minute

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for and install a newer release",
	Long: `Download the latest GitHub release for this platform, verify it against the
release checksums and replace the running binary.

Examples:
  clnbrd update --check
  clnbrd update`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().Bool("check", false, "only report whether an update is available")
	updateCmd.Flags().Bool("prerelease", false, "include pre-releases (overrides updates.prerelease)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	checkOnly, _ := cmd.Flags().GetBool("check")
	prerelease := cfg.Updates.Prerelease
	if cmd.Flags().Changed("prerelease") {
		prerelease, _ = cmd.Flags().GetBool("prerelease")
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	up, err := updater.New(cfg.Updates.Repository, prerelease)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), updateTimeout)
	defer cancel()

	var st *updater.Status
	if checkOnly {
		st, err = up.Check(ctx)
	} else {
		logInfo("Checking %s for updates...", cfg.Updates.Repository)
		st, err = up.Apply(ctx)
	}
	if errors.Is(err, updater.ErrNoRelease) {
		logInfo("No release published for this platform")
		return nil
	}
	if err != nil {
		return err
	}
	return output.Print(cmd.OutOrStdout(), format, st)
}
