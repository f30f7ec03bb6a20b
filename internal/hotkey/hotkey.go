// Package hotkey registers global keyboard shortcuts.
//
// The hook library keeps process-wide state, so only one Manager should be
// started at a time.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/oliveoi1/clnbrd/internal/logger"
)

// Binding maps a combo to an action.
type Binding struct {
	Name   string
	Combo  Combo
	Action func()
}

// Bind parses combo and returns a Binding.
func Bind(name, combo string, action func()) (Binding, error) {
	c, err := ParseCombo(combo)
	if err != nil {
		return Binding{}, fmt.Errorf("%s: %w", name, err)
	}
	return Binding{Name: name, Combo: c, Action: action}, nil
}

// backend is the slice of the hook library the manager uses.
type backend interface {
	register(keys []string, fn func())
	start() <-chan struct{}
	end()
}

type gohookBackend struct{}

func (gohookBackend) register(keys []string, fn func()) {
	hook.Register(hook.KeyDown, keys, func(hook.Event) { fn() })
}

func (gohookBackend) start() <-chan struct{} {
	done := make(chan struct{})
	events := hook.Start()
	go func() {
		<-hook.Process(events)
		close(done)
	}()
	return done
}

func (gohookBackend) end() {
	hook.End()
}

// Manager owns the global hook.
type Manager struct {
	bindings []Binding
	backend  backend
	log      *slog.Logger

	mu      sync.Mutex
	running bool
	done    <-chan struct{}
}

// NewManager validates the bindings. Two bindings may not share a combo.
func NewManager(bindings ...Binding) (*Manager, error) {
	return newManager(gohookBackend{}, bindings...)
}

func newManager(b backend, bindings ...Binding) (*Manager, error) {
	seen := make(map[string]string, len(bindings))
	for _, bnd := range bindings {
		if bnd.Action == nil {
			return nil, fmt.Errorf("hotkey %s has no action", bnd.Name)
		}
		key := bnd.Combo.String()
		if other, ok := seen[key]; ok {
			return nil, fmt.Errorf("hotkey %s is bound to both %s and %s", key, other, bnd.Name)
		}
		seen[key] = bnd.Name
	}
	return &Manager{
		bindings: bindings,
		backend:  b,
		log:      logger.Component("hotkey"),
	}, nil
}

// Start registers every binding and begins listening. Actions run on their
// own goroutine so a slow action never blocks the listener.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("hotkey manager already running")
	}
	if len(m.bindings) == 0 {
		return errors.New("no hotkeys to register")
	}

	for _, b := range m.bindings {
		m.backend.register(b.Combo.hookKeys(), func() {
			m.log.Debug("hotkey pressed", "name", b.Name, "combo", b.Combo.String())
			go b.Action()
		})
		m.log.Info("hotkey registered", "name", b.Name, "combo", b.Combo.String())
	}
	m.done = m.backend.start()
	m.running = true
	return nil
}

// Stop ends the hook and waits for the listener to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	done := m.done
	m.mu.Unlock()

	m.backend.end()
	<-done
	m.log.Debug("hotkeys stopped")
}

// Bindings returns the configured bindings.
func (m *Manager) Bindings() []Binding {
	return append([]Binding(nil), m.bindings...)
}
