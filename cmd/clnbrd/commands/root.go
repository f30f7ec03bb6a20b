// Package commands implements the clnbrd CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oliveoi1/clnbrd/internal/config"
	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/internal/output"
)

// cfg is loaded before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "clnbrd",
	Short: "Clean clipboard text of formatting debris",
	Long: `clnbrd strips invisible characters, smart quotes, stray whitespace, tracking
parameters and other debris from copied text.

It works on the system clipboard, on files and on stdin. Rules come from the
active profile unless a preset is named.

Examples:
  # Clean whatever is on the clipboard, in place
  clnbrd clean --clipboard

  # Clean, paste into the focused app, then restore the original clipboard
  clnbrd paste

  # Run in the background: hotkeys plus optional auto-clean on copy
  clnbrd watch --auto

  # Clean a file with the aggressive preset and show what changed
  clnbrd clean --preset aggressive --stats notes.txt`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $XDG_CONFIG_HOME/clnbrd/config.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.String("backend", "", "clipboard backend: auto, native, exec, memory")
	flags.StringP("format", "f", "text", "output format: text, json, jsonl, yaml")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("clipboard.backend", flags.Lookup("backend"))
}

func initConfig() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})
}

func loadConfig() error {
	c, err := config.Load(viper.GetViper(), viper.GetString("config"))
	if err != nil {
		return err
	}
	cfg = c

	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
	})
	logger.Debug("configuration loaded", "file", viper.ConfigFileUsed(), "backend", cfg.Clipboard.Backend)
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

func outputFormat(cmd *cobra.Command) (output.Format, error) {
	f, _ := cmd.Flags().GetString("format")
	return output.ParseFormat(f)
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr unless quiet.
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
