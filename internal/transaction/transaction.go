// Package transaction implements the clipboard clean transaction: capture,
// overwrite with cleaned text, optionally paste into the foreground app and
// restore the original. Delays run on an injected scheduler.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/internal/schedule"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

// Result summarizes a finished or in-flight transaction.
type Result struct {
	ID          string        `json:"id" yaml:"id"`
	Mode        Mode          `json:"mode" yaml:"mode"`
	State       State         `json:"state" yaml:"state"`
	Source      clipboard.Tag `json:"source,omitempty" yaml:"source,omitempty"`
	OriginalLen int           `json:"original_chars" yaml:"original_chars"`
	CleanedLen  int           `json:"cleaned_chars" yaml:"cleaned_chars"`
	Changed     bool          `json:"changed" yaml:"changed"`
	Revision    int64         `json:"revision" yaml:"revision"`
	Reason      string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	PasteError  string        `json:"paste_error,omitempty" yaml:"paste_error,omitempty"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`

	// Err is the failure behind an Aborted state.
	Err error `json:"-" yaml:"-"`
	// PasteErr is a paste failure; the sequence continues past it.
	PasteErr error `json:"-" yaml:"-"`
}

// Transaction is one run of the clean sequence.
type Transaction struct {
	id    string
	mode  Mode
	cb    clipboard.Clipboard
	inj   Injector
	sched schedule.Scheduler
	rules RulesSource
	opts  Options
	log   *slog.Logger

	mu      sync.Mutex
	state   State
	result  Result
	snap    *clipboard.Snapshot
	timer   schedule.Timer
	started time.Time

	done     chan struct{}
	onFinish func()
}

func newTransaction(mode Mode, cb clipboard.Clipboard, inj Injector, sched schedule.Scheduler, rules RulesSource, opts Options) *Transaction {
	id := uuid.NewString()
	return &Transaction{
		id:    id,
		mode:  mode,
		cb:    cb,
		inj:   inj,
		sched: sched,
		rules: rules,
		opts:  opts,
		log:   logger.Component("transaction").With("id", id, "mode", mode.String()),
		state: Idle,
		result: Result{
			ID:   id,
			Mode: mode,
		},
		done: make(chan struct{}),
	}
}

// ID returns the transaction id.
func (t *Transaction) ID() string { return t.id }

// Mode returns the transaction mode.
func (t *Transaction) Mode() Mode { return t.mode }

// State returns the current state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed when the transaction reaches a terminal state.
func (t *Transaction) Done() <-chan struct{} {
	return t.done
}

// Result returns a copy of the current result.
func (t *Transaction) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.result
	r.State = t.state
	return r
}

// Snapshot returns the captured snapshot, or nil before capture.
func (t *Transaction) Snapshot() *clipboard.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// run performs the synchronous part: capture, record, clean, write.
// Paste and restore are scheduled.
func (t *Transaction) run(ctx context.Context) {
	t.mu.Lock()
	t.started = t.sched.Now()

	snap, err := clipboard.Capture(t.cb)
	if err != nil {
		t.abortLocked(ReasonCaptureFailed, err)
		return
	}
	if snap.Empty() {
		t.abortLocked(ReasonEmpty, nil)
		return
	}
	t.snap = snap
	t.result.Source = snap.Source()
	t.setStateLocked(Captured)

	if t.opts.Recorder != nil {
		if err := t.opts.Recorder.Record(ctx, snap); err != nil {
			t.log.Warn("failed to record clipboard history", "error", err)
		}
	}

	cleaned := clnbrd.Clean(snap.Text(), t.rules())
	t.result.OriginalLen = utf8.RuneCountInString(snap.Text())
	t.result.CleanedLen = utf8.RuneCountInString(cleaned)
	t.result.Changed = cleaned != snap.Text()

	if err := clipboard.WriteText(t.cb, cleaned); err != nil {
		t.abortLocked(ReasonWriteFailed, err)
		return
	}
	t.wroteLocked()
	t.setStateLocked(Written)

	if t.mode == CleanInPlace {
		t.finishLocked()
		return
	}
	t.timer = t.sched.AfterFunc(t.opts.PasteDelay, t.paste)
	t.mu.Unlock()
}

// Cancel stops a pending paste or restore. When the cleaned text is already
// on the clipboard the original is restored immediately.
func (t *Transaction) Cancel() {
	t.mu.Lock()
	if terminal(t.state, t.mode) || t.state == Idle {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.state != Written && t.state != Injected {
		t.mu.Unlock()
		return
	}
	t.log.Info("cancelling clipboard transaction", "state", t.state.String())
	if err := t.restoreLocked(); err != nil {
		t.abortLocked(ReasonRestoreFailed, err)
		return
	}
	t.wroteLocked()
	t.setStateLocked(Restored)
	t.finishLocked()
}

func (t *Transaction) paste() {
	t.mu.Lock()
	if t.state != Written {
		t.mu.Unlock()
		return
	}
	if err := t.inj.Paste(); err != nil {
		t.result.PasteErr = err
		t.result.PasteError = err.Error()
		t.log.Warn("paste keystroke failed", "error", err)
	}
	t.setStateLocked(Injected)
	t.timer = t.sched.AfterFunc(t.opts.RestoreDelay, t.restore)
	t.mu.Unlock()
}

func (t *Transaction) restore() {
	t.mu.Lock()
	if t.state != Injected {
		t.mu.Unlock()
		return
	}
	if err := t.restoreLocked(); err != nil {
		t.abortLocked(ReasonRestoreFailed, err)
		return
	}
	t.wroteLocked()
	t.setStateLocked(Restored)
	t.finishLocked()
}

func (t *Transaction) restoreLocked() error {
	if t.opts.Restore != RestoreFull {
		return clipboard.WriteText(t.cb, t.snap.Text())
	}

	if err := t.cb.Clear(); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}
	written := 0
	for _, tag := range t.snap.Tags() {
		data, _ := t.snap.Representation(tag)
		err := t.cb.Write(tag, data)
		if errors.Is(err, clipboard.ErrUnsupported) {
			t.log.Debug("backend cannot restore representation", "tag", tag)
			continue
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", tag, err)
		}
		written++
	}
	if written == 0 {
		if err := t.cb.Write(clipboard.TagPlainText, []byte(t.snap.Text())); err != nil {
			return fmt.Errorf("write clipboard: %w", err)
		}
	}
	return nil
}

func (t *Transaction) wroteLocked() {
	rev, err := t.cb.ChangeCount()
	if err != nil {
		t.log.Debug("could not read revision after write", "error", err)
		return
	}
	t.result.Revision = rev
	if t.opts.OnWrite != nil {
		t.opts.OnWrite(rev)
	}
}

func (t *Transaction) setStateLocked(s State) {
	t.log.Debug("transaction state", "from", t.state.String(), "to", s.String())
	t.state = s
}

// abortLocked and finishLocked release t.mu.
func (t *Transaction) abortLocked(reason string, err error) {
	t.result.Reason = reason
	if err != nil {
		t.result.Err = err
		t.result.Error = err.Error()
	}
	if reason == ReasonEmpty {
		t.log.Debug("clipboard has no text, nothing to clean")
	} else {
		t.log.Error("clipboard transaction aborted", "reason", reason, "error", err)
	}
	t.setStateLocked(Aborted)
	t.finishLocked()
}

func (t *Transaction) finishLocked() {
	t.timer = nil
	t.result.State = t.state
	t.result.Duration = t.sched.Now().Sub(t.started)
	result := t.result
	onFinish := t.onFinish
	t.mu.Unlock()

	if result.State != Aborted {
		t.log.Info("clipboard cleaned",
			"state", result.State.String(),
			"source", string(result.Source),
			"original_chars", result.OriginalLen,
			"cleaned_chars", result.CleanedLen,
			"changed", result.Changed,
		)
	}

	if onFinish != nil {
		onFinish()
	}
	close(t.done)
	if t.opts.OnDone != nil {
		t.opts.OnDone(result)
	}
}
