package clipboard

import (
	"sync"
)

// Memory is an in-process clipboard. It carries every representation and
// keeps an exact revision counter. Fault injection hooks make it usable as a
// test double.
type Memory struct {
	mu       sync.Mutex
	reps     map[Tag][]byte
	revision int64

	readErr  map[Tag]error
	countErr error
	writeErr error
	clearErr error
	writes   []Tag
}

// NewMemory creates an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{reps: make(map[Tag][]byte)}
}

// Read implements Clipboard.
func (m *Memory) Read(tag Tag) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr[tag]; err != nil {
		return nil, err
	}
	data, ok := m.reps[tag]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Clear implements Clipboard.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.reps = make(map[Tag][]byte)
	m.revision++
	return nil
}

// Write implements Clipboard.
func (m *Memory) Write(tag Tag, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.reps[tag] = append([]byte(nil), data...)
	m.revision++
	m.writes = append(m.writes, tag)
	return nil
}

// ChangeCount implements Clipboard.
func (m *Memory) ChangeCount() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.revision, nil
}

// Copy replaces the content with the given representations as a single
// user copy would.
func (m *Memory) Copy(reps map[Tag][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reps = make(map[Tag][]byte, len(reps))
	for tag, data := range reps {
		m.reps[tag] = append([]byte(nil), data...)
	}
	m.revision++
}

// CopyText replaces the content with plain text.
func (m *Memory) CopyText(text string) {
	m.Copy(map[Tag][]byte{TagPlainText: []byte(text)})
}

// Text returns the current plain text representation.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.reps[TagPlainText])
}

// Writes returns the tags written through Write, in order.
func (m *Memory) Writes() []Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Tag(nil), m.writes...)
}

// FailRead makes reads of tag return err. A nil err clears the failure.
func (m *Memory) FailRead(tag Tag, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr == nil {
		m.readErr = make(map[Tag]error)
	}
	m.readErr[tag] = err
}

// FailChangeCount makes ChangeCount return err.
func (m *Memory) FailChangeCount(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countErr = err
}

// FailWrite makes Write return err.
func (m *Memory) FailWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// FailClear makes Clear return err.
func (m *Memory) FailClear(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearErr = err
}
