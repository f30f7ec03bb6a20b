package commands

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/history"
	"github.com/oliveoi1/clnbrd/internal/hotkey"
	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/internal/monitor"
	"github.com/oliveoi1/clnbrd/internal/profile"
	"github.com/oliveoi1/clnbrd/internal/schedule"
	"github.com/oliveoi1/clnbrd/internal/transaction"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

const (
	shutdownTimeout = 2 * time.Second
	pruneInterval   = time.Hour
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run in the background with hotkeys and optional auto-clean",
	Long: `Listen for the configured hotkeys and, with --auto or monitor.enabled,
clean every new clipboard entry as soon as it is copied.

Profile changes made with "clnbrd profile" apply to the next clean without
restarting. Stop with Ctrl+C.

Examples:
  clnbrd watch
  clnbrd watch --auto --no-hotkeys
  clnbrd watch --hotkey "cmd+shift+v"`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("auto", false, "clean every new clipboard entry (overrides monitor.enabled)")
	watchCmd.Flags().Bool("no-hotkeys", false, "do not register global hotkeys")
	watchCmd.Flags().String("hotkey", "", "clean-and-paste hotkey (overrides hotkeys.clean_and_paste)")
	watchCmd.Flags().Duration("interval", 0, "clipboard poll interval (default from config)")
}

// liveRules rereads the profiles file when it changes so edits from other
// clnbrd invocations take effect on the next transaction.
type liveRules struct {
	path string

	mu    sync.Mutex
	rules clnbrd.RuleSet
	mod   time.Time
}

func newLiveRules(path string) (*liveRules, error) {
	l := &liveRules{path: path}
	if _, err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *liveRules) reload() (clnbrd.RuleSet, error) {
	store, err := profile.Open(l.path)
	if err != nil {
		return l.rules, err
	}
	l.rules = store.ActiveRules()
	l.mod = modTime(l.path)
	return l.rules, nil
}

// Rules returns the active profile's rules.
func (l *liveRules) Rules() clnbrd.RuleSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mod := modTime(l.path); mod.Equal(l.mod) {
		return l.rules
	}
	rules, err := l.reload()
	if err != nil {
		logger.Warn("profiles reload failed, keeping previous rules", "error", err)
	} else {
		logger.Debug("profiles reloaded", "path", l.path)
	}
	return rules
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	auto := cfg.Monitor.Enabled
	if cmd.Flags().Changed("auto") {
		auto, _ = cmd.Flags().GetBool("auto")
	}
	noHotkeys, _ := cmd.Flags().GetBool("no-hotkeys")
	if cmd.Flags().Changed("hotkey") {
		cfg.Hotkeys.CleanAndPaste, _ = cmd.Flags().GetString("hotkey")
	}
	if cmd.Flags().Changed("interval") {
		cfg.Monitor.Interval, _ = cmd.Flags().GetDuration("interval")
	}

	log := logger.Component("watch")

	cb, err := clipboard.Open(cfg.Clipboard.Backend)
	if err != nil {
		return err
	}
	rules, err := newLiveRules(cfg.Profiles.Path)
	if err != nil {
		return err
	}
	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		pruneHistory(ctx, store)
		go pruneLoop(ctx, store)
	}

	inj, err := openInjector(true)
	if err != nil {
		log.Warn("paste helper unavailable, clean-and-paste will only clean", "error", err)
		inj, _ = openInjector(false)
	}

	var engine *transaction.Engine
	trigger := func(mode transaction.Mode) func() {
		return func() {
			if _, err := engine.Run(ctx, mode); err != nil {
				if errors.Is(err, transaction.ErrBusy) {
					log.Debug("trigger dropped, transaction in progress", "mode", mode.String())
					return
				}
				log.Warn("transaction failed to start", "mode", mode.String(), "error", err)
			}
		}
	}

	sched := schedule.Real()
	mon := monitor.New(cb, sched, trigger(transaction.CleanInPlace),
		monitor.WithInterval(cfg.Monitor.Interval),
		monitor.WithDebounce(cfg.Monitor.Debounce),
	)

	engine = transaction.NewEngine(cb, inj, sched, rules.Rules, watchOptions(store, mon)...)

	var bindings []hotkey.Binding
	if !noHotkeys {
		bindings, err = hotkeyBindings(trigger)
		if err != nil {
			return err
		}
	}
	if len(bindings) == 0 && !auto {
		return errors.New("nothing to do: enable --auto or configure a hotkey")
	}

	if len(bindings) > 0 {
		keys, err := hotkey.NewManager(bindings...)
		if err != nil {
			return err
		}
		if err := keys.Start(); err != nil {
			return err
		}
		defer keys.Stop()
	}

	if auto {
		if err := mon.Start(); err != nil {
			return err
		}
		defer mon.Stop()
		log.Info("auto-clean enabled", "interval", cfg.Monitor.Interval, "debounce", cfg.Monitor.Debounce)
	}

	logInfo("Watching clipboard (Ctrl+C to stop)")
	<-ctx.Done()
	logInfo("Shutting down...")

	waitCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := engine.Wait(waitCtx); err != nil {
		log.Warn("in-flight transaction cancelled at shutdown", "error", err)
		engine.Cancel()
	}
	return nil
}

func watchOptions(store *history.Store, mon *monitor.Monitor) []transaction.Option {
	log := logger.Component("watch")
	opts := cfg.TransactionOptions()
	if store != nil {
		opts = append(opts, transaction.WithRecorder(store))
	}
	return append(opts,
		transaction.WithWriteHook(mon.Acknowledge),
		transaction.WithDoneHook(func(r transaction.Result) {
			if r.Err != nil {
				log.Warn("transaction aborted", "id", r.ID, "reason", r.Reason, "error", r.Err)
				return
			}
			log.Info("clipboard cleaned",
				"mode", r.Mode.String(),
				"state", r.State.String(),
				"chars", r.CleanedLen,
				"changed", r.Changed)
		}),
	)
}

func hotkeyBindings(trigger func(transaction.Mode) func()) ([]hotkey.Binding, error) {
	var bindings []hotkey.Binding
	for _, h := range []struct {
		name  string
		combo string
		mode  transaction.Mode
	}{
		{"clean_and_paste", cfg.Hotkeys.CleanAndPaste, transaction.CleanAndPaste},
		{"clean_in_place", cfg.Hotkeys.CleanInPlace, transaction.CleanInPlace},
	} {
		if h.combo == "" {
			continue
		}
		b, err := hotkey.Bind(h.name, h.combo, trigger(h.mode))
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func pruneLoop(ctx context.Context, store *history.Store) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneHistory(ctx, store)
		}
	}
}
