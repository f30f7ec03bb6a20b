package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/history"
	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/internal/paste"
	"github.com/oliveoi1/clnbrd/internal/profile"
	"github.com/oliveoi1/clnbrd/internal/transaction"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

func openProfiles() (*profile.Store, error) {
	return profile.Open(cfg.Profiles.Path)
}

// resolveRules picks the rule source for a command: a named preset wins,
// then a named profile, then the active profile read at clean time.
func resolveRules(preset, profileRef string) (transaction.RulesSource, error) {
	if preset != "" {
		rules, ok := clnbrd.Preset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, clnbrd.PresetNames())
		}
		return transaction.StaticRules(rules), nil
	}

	profiles, err := openProfiles()
	if err != nil {
		return nil, err
	}
	if profileRef != "" {
		p, err := profiles.Find(profileRef)
		if err != nil {
			return nil, err
		}
		return transaction.StaticRules(p.Rules), nil
	}
	return profiles.ActiveRules, nil
}

// openHistory opens the history database, or returns nil when history is
// disabled in the configuration.
func openHistory(ctx context.Context) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return openHistoryStore(ctx)
}

func openHistoryStore(ctx context.Context) (*history.Store, error) {
	sealer := history.PlainSealer()
	if cfg.History.Encrypt {
		key, err := history.LoadOrCreateKey(cfg.History.KeyPath)
		if err != nil {
			return nil, err
		}
		if sealer, err = history.NewSealer(key); err != nil {
			return nil, err
		}
	}
	return history.Open(ctx, cfg.History.Path, sealer, history.WithMaxBytes(cfg.History.MaxBytes))
}

func pruneHistory(ctx context.Context, store *history.Store) {
	n, err := store.Prune(ctx, cfg.History.Retention, cfg.History.MaxItems)
	if err != nil {
		logger.Warn("history prune failed", "error", err)
		return
	}
	if n > 0 {
		logger.Debug("history pruned", "removed", n)
	}
}

func openInjector(enabled bool) (transaction.Injector, error) {
	if !enabled {
		return paste.Noop{}, nil
	}
	return paste.Resolve(cfg.Paste.Command)
}

// newEngine builds a transaction engine from the loaded configuration.
func newEngine(cb clipboard.Clipboard, inj transaction.Injector, rules transaction.RulesSource, store *history.Store, extra ...transaction.Option) *transaction.Engine {
	opts := cfg.TransactionOptions()
	if store != nil {
		opts = append(opts, transaction.WithRecorder(store))
	}
	opts = append(opts, extra...)
	return transaction.NewEngine(cb, inj, nil, rules, opts...)
}

// waitTransaction blocks until tx finishes or ctx is done.
func waitTransaction(ctx context.Context, tx *transaction.Transaction) (transaction.Result, error) {
	select {
	case <-tx.Done():
		return tx.Result(), nil
	case <-ctx.Done():
		tx.Cancel()
		<-tx.Done()
		return tx.Result(), ctx.Err()
	}
}

// transactionTimeout bounds a one-shot transaction by its configured delays
// and the paste helper's own timeout.
func transactionTimeout() time.Duration {
	return cfg.Paste.Delay + cfg.Paste.RestoreDelay + paste.DefaultTimeout + 5*time.Second
}

// resultView renders a transaction result for humans.
type resultView transaction.Result

func (r resultView) Render(w io.Writer) error {
	t := output.NewTable(w, "FIELD", "VALUE")
	t.Row("mode", r.Mode.String())
	t.Row("state", r.State.String())
	if r.Source != "" {
		t.Row("source", string(r.Source))
	}
	t.Row("characters", fmt.Sprintf("%s -> %s", output.Count(r.OriginalLen), output.Count(r.CleanedLen)))
	t.Row("changed", fmt.Sprintf("%t", r.Changed))
	if r.Reason != "" {
		t.Row("reason", r.Reason)
	}
	if r.Error != "" {
		t.Row("error", r.Error)
	}
	if r.PasteError != "" {
		t.Row("paste error", r.PasteError)
	}
	t.Row("duration", r.Duration.Round(time.Millisecond).String())
	return t.Flush()
}

func errInvalidRestore(mode string) error {
	return fmt.Errorf("invalid restore mode %q: expected %s or %s", mode, transaction.RestoreText, transaction.RestoreFull)
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
