package commands

import (
	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	// Works without a readable config file.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		return output.Print(cmd.OutOrStdout(), format, version.Get())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.String()
}
