package transaction

import (
	"context"
	"time"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
)

const (
	DefaultPasteDelay   = 100 * time.Millisecond
	DefaultRestoreDelay = 700 * time.Millisecond
)

// Injector sends the platform paste keystroke to the foreground application.
// It is fire-and-forget: success means the keystroke was requested.
type Injector interface {
	Paste() error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func() error

// Paste calls f.
func (f InjectorFunc) Paste() error { return f() }

// Recorder receives every non-empty snapshot before it is cleaned.
type Recorder interface {
	Record(ctx context.Context, snap *clipboard.Snapshot) error
}

// Options configures an Engine.
type Options struct {
	PasteDelay   time.Duration
	RestoreDelay time.Duration
	Restore      RestoreMode
	Recorder     Recorder

	// OnWrite is called with the clipboard revision after each write the
	// transaction makes, so observers can ignore their own changes.
	OnWrite func(revision int64)

	// OnDone is called once per transaction after it reaches a terminal state.
	OnDone func(Result)
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the delays used by the desktop application.
func DefaultOptions() Options {
	return Options{
		PasteDelay:   DefaultPasteDelay,
		RestoreDelay: DefaultRestoreDelay,
		Restore:      RestoreText,
	}
}

// WithPasteDelay sets the delay between writing and pasting.
func WithPasteDelay(d time.Duration) Option {
	return func(o *Options) { o.PasteDelay = d }
}

// WithRestoreDelay sets the delay between pasting and restoring.
func WithRestoreDelay(d time.Duration) Option {
	return func(o *Options) { o.RestoreDelay = d }
}

// WithRestoreMode selects text-only or full-fidelity restore.
func WithRestoreMode(m RestoreMode) Option {
	return func(o *Options) { o.Restore = m }
}

// WithRecorder stores each captured snapshot, typically in history.
func WithRecorder(r Recorder) Option {
	return func(o *Options) { o.Recorder = r }
}

// WithWriteHook registers OnWrite.
func WithWriteHook(fn func(revision int64)) Option {
	return func(o *Options) { o.OnWrite = fn }
}

// WithDoneHook registers OnDone.
func WithDoneHook(fn func(Result)) Option {
	return func(o *Options) { o.OnDone = fn }
}
