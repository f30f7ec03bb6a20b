package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/internal/transaction"
)

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Clean the clipboard, paste it, then restore the original",
	Long: `Clean the clipboard, send a paste keystroke to the focused application and
put the original clipboard content back once the paste has landed.

The paste keystroke comes from paste.command in the config, or from a
platform helper (osascript, PowerShell, wtype, ydotool or xdotool).

Examples:
  clnbrd paste
  clnbrd paste --restore full --restore-delay 1s`,
	RunE: runPaste,
}

func init() {
	rootCmd.AddCommand(pasteCmd)

	pasteCmd.Flags().StringP("preset", "p", "", "use a preset instead of a profile")
	pasteCmd.Flags().String("profile", "", "use a named profile instead of the active one")
	pasteCmd.Flags().String("restore", "", "restore mode: text or full (default from config)")
	pasteCmd.Flags().Duration("delay", 0, "wait before the paste keystroke (default from config)")
	pasteCmd.Flags().Duration("restore-delay", 0, "wait before restoring the original (default from config)")
}

func runPaste(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	presetName, _ := cmd.Flags().GetString("preset")
	profileRef, _ := cmd.Flags().GetString("profile")

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("restore") {
		cfg.Paste.Restore, _ = cmd.Flags().GetString("restore")
		if r := transaction.RestoreMode(cfg.Paste.Restore); r != transaction.RestoreText && r != transaction.RestoreFull {
			return errInvalidRestore(cfg.Paste.Restore)
		}
	}
	if cmd.Flags().Changed("delay") {
		cfg.Paste.Delay, _ = cmd.Flags().GetDuration("delay")
	}
	if cmd.Flags().Changed("restore-delay") {
		cfg.Paste.RestoreDelay, _ = cmd.Flags().GetDuration("restore-delay")
	}

	rules, err := resolveRules(presetName, profileRef)
	if err != nil {
		return err
	}
	cb, err := clipboard.Open(cfg.Clipboard.Backend)
	if err != nil {
		return err
	}
	inj, err := openInjector(true)
	if err != nil {
		return err
	}
	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	engine := newEngine(cb, inj, rules, store)
	tx, err := engine.CleanAndPaste(ctx)
	if err != nil {
		return err
	}

	ctx, stop := context.WithTimeout(ctx, transactionTimeout())
	defer stop()
	res, err := waitTransaction(ctx, tx)
	if err != nil {
		return err
	}
	if err := output.Print(cmd.OutOrStdout(), format, resultView(res)); err != nil {
		return err
	}
	return res.Err
}
