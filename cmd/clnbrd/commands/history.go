package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/history"
	"github.com/oliveoi1/clnbrd/internal/output"
)

const previewLength = 60

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"hist"},
	Short:   "Inspect and manage clipboard history",
	Long: `History is recorded by "clnbrd watch", "clnbrd paste" and "clnbrd clean
--clipboard" when history.enabled is set. Content is encrypted at rest unless
history.encrypt is false.`,
}

var historyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent entries, pinned first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		query, _ := cmd.Flags().GetString("search")

		return withHistory(cmd, func(store *history.Store) error {
			var (
				entries []*history.Entry
				err     error
			)
			if query != "" {
				entries, err = store.Search(cmd.Context(), query, limit)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if format == output.FormatText {
				return historyTable(entries).Render(cmd.OutOrStdout())
			}
			return output.PrintList(cmd.OutOrStdout(), format, entries)
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the full text of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withHistory(cmd, func(store *history.Store) error {
			entry, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if format == output.FormatText {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), entry.Text)
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, entry)
		})
	},
}

var historyCopyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Put an entry back on the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		textOnly, _ := cmd.Flags().GetBool("text")

		return withHistory(cmd, func(store *history.Store) error {
			entry, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			cb, err := clipboard.Open(cfg.Clipboard.Backend)
			if err != nil {
				return err
			}
			if err := copyEntry(cb, entry, textOnly); err != nil {
				return err
			}
			logInfo("Copied entry %d (%s)", entry.ID, output.Bytes(entry.Size))
			return nil
		})
	},
}

var historyPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Toggle whether an entry is pinned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withHistory(cmd, func(store *history.Store) error {
			pinned, err := store.TogglePin(cmd.Context(), id)
			if err != nil {
				return err
			}
			if pinned {
				logInfo("Pinned entry %d", id)
			} else {
				logInfo("Unpinned entry %d", id)
			}
			return nil
		})
	},
}

var historyRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete entries",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, a := range args {
			id, err := parseID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return withHistory(cmd, func(store *history.Store) error {
			var errs []error
			for _, id := range ids {
				if err := store.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("entry %d: %w", id, err))
					continue
				}
				logInfo("Deleted entry %d", id)
			}
			return errors.Join(errs...)
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete unpinned entries, or everything with --all",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return withHistory(cmd, func(store *history.Store) error {
			var (
				n   int
				err error
			)
			if all {
				n, err = store.ClearAll(cmd.Context())
			} else {
				n, err = store.ClearUnpinned(cmd.Context())
			}
			if err != nil {
				return err
			}
			logInfo("Removed %s entries", output.Count(n))
			return nil
		})
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention and size limits now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd, func(store *history.Store) error {
			n, err := store.Prune(cmd.Context(), cfg.History.Retention, cfg.History.MaxItems)
			if err != nil {
				return err
			}
			remaining, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			logInfo("Pruned %s entries, %s remain", output.Count(n), output.Count(remaining))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyCopyCmd,
		historyPinCmd, historyRmCmd, historyClearCmd, historyPruneCmd)

	historyListCmd.Flags().IntP("limit", "n", 20, "maximum entries to show (0 for all)")
	historyListCmd.Flags().StringP("search", "s", "", "only show entries containing this text")
	historyCopyCmd.Flags().Bool("text", false, "copy plain text only, dropping rich representations")
	historyClearCmd.Flags().Bool("all", false, "also delete pinned entries")
}

// withHistory opens the history database for the duration of fn. Management
// commands work even when recording is disabled.
func withHistory(cmd *cobra.Command, fn func(*history.Store) error) error {
	store, err := openHistoryStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid history id %q", s)
	}
	return id, nil
}

// copyEntry writes every captured representation, plain text first.
func copyEntry(cb clipboard.Clipboard, entry *history.Entry, textOnly bool) error {
	if err := clipboard.WriteText(cb, entry.Text); err != nil {
		return err
	}
	if textOnly {
		return nil
	}
	reps := entry.Representations()
	for _, tag := range clipboard.CaptureOrder {
		data, ok := reps[tag]
		if !ok || tag == clipboard.TagPlainText {
			continue
		}
		if err := cb.Write(tag, data); err != nil {
			if errors.Is(err, clipboard.ErrUnsupported) {
				continue
			}
			return fmt.Errorf("write %s: %w", tag, err)
		}
	}
	return nil
}

type historyTable []*history.Entry

func (h historyTable) Render(w io.Writer) error {
	t := output.NewTable(w, "ID", "PIN", "AGE", "SIZE", "SOURCE", "PREVIEW")
	for _, e := range h {
		pin := ""
		if e.Pinned {
			pin = "*"
		}
		t.Row(strconv.FormatInt(e.ID, 10), pin, output.Age(e.CapturedAt),
			output.Bytes(e.Size), string(e.Source), e.Preview(previewLength))
	}
	return t.Flush()
}
