package transaction

import (
	"context"
	"errors"
	"sync"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/internal/schedule"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

// ErrBusy is returned when a trigger arrives while a transaction is in flight.
// The trigger is dropped, never queued.
var ErrBusy = errors.New("clipboard transaction already in progress")

// RulesSource supplies the rule set, read once per transaction at clean time.
type RulesSource func() clnbrd.RuleSet

// StaticRules returns a RulesSource that always yields a copy of rules.
func StaticRules(rules clnbrd.RuleSet) RulesSource {
	rules = rules.Clone()
	return func() clnbrd.RuleSet { return rules.Clone() }
}

// Engine runs transactions one at a time.
type Engine struct {
	cb    clipboard.Clipboard
	inj   Injector
	sched schedule.Scheduler
	rules RulesSource
	opts  Options

	mu     sync.Mutex
	active *Transaction
}

// NewEngine creates an Engine. A nil scheduler uses real timers; a nil rules
// source uses the default rule set.
func NewEngine(cb clipboard.Clipboard, inj Injector, sched schedule.Scheduler, rules RulesSource, opts ...Option) *Engine {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if sched == nil {
		sched = schedule.Real()
	}
	if rules == nil {
		rules = StaticRules(clnbrd.DefaultRuleSet())
	}
	if inj == nil {
		inj = InjectorFunc(func() error { return nil })
	}
	return &Engine{cb: cb, inj: inj, sched: sched, rules: rules, opts: o}
}

// CleanInPlace overwrites the clipboard with its cleaned text.
func (e *Engine) CleanInPlace(ctx context.Context) (*Transaction, error) {
	return e.start(ctx, CleanInPlace)
}

// CleanAndPaste cleans, pastes into the foreground app and restores the original.
// It returns once the cleaned text is written; use Done to wait for the restore.
func (e *Engine) CleanAndPaste(ctx context.Context) (*Transaction, error) {
	return e.start(ctx, CleanAndPaste)
}

// Run starts a transaction in the given mode.
func (e *Engine) Run(ctx context.Context, mode Mode) (*Transaction, error) {
	return e.start(ctx, mode)
}

func (e *Engine) start(ctx context.Context, mode Mode) (*Transaction, error) {
	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		logger.Debug("clipboard trigger dropped, transaction in progress", "mode", mode.String())
		return nil, ErrBusy
	}
	tx := newTransaction(mode, e.cb, e.inj, e.sched, e.rules, e.opts)
	tx.onFinish = func() {
		e.mu.Lock()
		if e.active == tx {
			e.active = nil
		}
		e.mu.Unlock()
	}
	e.active = tx
	e.mu.Unlock()

	tx.run(ctx)
	return tx, nil
}

// Busy reports whether a transaction is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// Wait blocks until the in-flight transaction finishes or ctx ends.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	tx := e.active
	e.mu.Unlock()
	if tx == nil {
		return nil
	}
	select {
	case <-tx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops the in-flight transaction, restoring the original clipboard
// if the cleaned text is already on it.
func (e *Engine) Cancel() {
	e.mu.Lock()
	tx := e.active
	e.mu.Unlock()
	if tx != nil {
		tx.Cancel()
	}
}
