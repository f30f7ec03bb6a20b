// Package monitor polls the clipboard revision counter and triggers an
// action after each external change.
package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/internal/schedule"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultDebounce = 100 * time.Millisecond
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithDebounce sets how long a change must settle before the action runs.
// Copies that write several representations land inside one window.
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) { m.debounce = d }
}

// Monitor watches one clipboard. The action runs on a scheduler goroutine
// and is never called with the monitor's lock held.
type Monitor struct {
	cb       clipboard.Clipboard
	sched    schedule.Scheduler
	action   func()
	interval time.Duration
	debounce time.Duration
	log      *slog.Logger

	mu         sync.Mutex
	running    bool
	gen        uint64
	lastSeen   int64
	tick       schedule.Timer
	pending    schedule.Timer
	pendingRev int64
}

// New creates a stopped Monitor. A nil scheduler uses real timers.
func New(cb clipboard.Clipboard, sched schedule.Scheduler, action func(), opts ...Option) *Monitor {
	if sched == nil {
		sched = schedule.Real()
	}
	m := &Monitor{
		cb:       cb,
		sched:    sched,
		action:   action,
		interval: DefaultInterval,
		debounce: DefaultDebounce,
		log:      logger.Component("monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start takes the current revision as the baseline and begins polling.
// Content already on the clipboard never triggers the action.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	rev, err := m.cb.ChangeCount()
	if err != nil {
		return fmt.Errorf("read clipboard baseline: %w", err)
	}
	m.running = true
	m.gen++
	m.lastSeen = rev
	m.armTickLocked(m.gen)

	m.log.Info("clipboard monitor started", "interval", m.interval, "debounce", m.debounce, "baseline", rev)
	return nil
}

// Stop cancels the next tick and any pending debounced action. An action
// that already started keeps running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.gen++
	if m.tick != nil {
		m.tick.Stop()
		m.tick = nil
	}
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.lastSeen = 0
	m.pendingRev = 0
	m.log.Info("clipboard monitor stopped")
}

// Acknowledge marks rev as seen. Owners call it after their own writes so
// the monitor does not react to them. A debounced action waiting on a
// revision at or below rev is cancelled.
func (m *Monitor) Acknowledge(rev int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if rev > m.lastSeen {
		m.lastSeen = rev
	}
	if m.pending != nil && m.pendingRev <= rev {
		m.pending.Stop()
		m.pending = nil
	}
}

// Running reports whether the monitor is polling.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastSeen returns the last observed revision, zero when stopped.
func (m *Monitor) LastSeen() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeen
}

func (m *Monitor) armTickLocked(gen uint64) {
	m.tick = m.sched.AfterFunc(m.interval, func() { m.poll(gen) })
}

func (m *Monitor) poll(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || gen != m.gen {
		return
	}

	rev, err := m.cb.ChangeCount()
	switch {
	case err != nil:
		m.log.Debug("failed to read clipboard revision", "error", err)
	case rev != m.lastSeen:
		m.log.Debug("clipboard changed", "revision", rev, "previous", m.lastSeen)
		m.lastSeen = rev
		if m.pending != nil {
			m.pending.Stop()
		}
		m.pendingRev = rev
		m.pending = m.sched.AfterFunc(m.debounce, func() { m.fire(gen, rev) })
	}
	m.armTickLocked(gen)
}

func (m *Monitor) fire(gen uint64, rev int64) {
	m.mu.Lock()
	if !m.running || gen != m.gen || rev != m.pendingRev || m.pending == nil {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.mu.Unlock()

	if m.action != nil {
		m.action()
	}
}
