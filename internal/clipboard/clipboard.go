// Package clipboard models the system clipboard as a set of tagged
// representations with a revision counter, and captures immutable snapshots of it.
package clipboard

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Tag identifies one representation of clipboard content.
type Tag string

const (
	TagPlainText Tag = "text/plain"
	TagRTF       Tag = "text/rtf"
	TagHTML      Tag = "text/html"
)

// CaptureOrder is the order representations are read and text is extracted.
var CaptureOrder = []Tag{TagPlainText, TagRTF, TagHTML}

// ErrUnsupported is returned when a backend cannot carry a representation.
var ErrUnsupported = errors.New("clipboard: representation not supported by backend")

// Clipboard is the shared clipboard resource.
//
// Read returns nil data and a nil error when the representation is absent.
// ChangeCount returns a counter that increases on every write, by anyone.
type Clipboard interface {
	Read(tag Tag) ([]byte, error)
	Clear() error
	Write(tag Tag, data []byte) error
	ChangeCount() (int64, error)
}

// WriteText replaces the clipboard content with plain text.
func WriteText(cb Clipboard, text string) error {
	if err := cb.Clear(); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}
	if err := cb.Write(TagPlainText, []byte(text)); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Hash returns a stable hex digest over the given parts.
func Hash(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Backends lists the names accepted by Open.
var Backends = []string{"auto", "native", "exec", "memory"}

// Open returns the clipboard backend with the given name. "auto" prefers the
// native backend and falls back to the exec backend.
func Open(name string) (Clipboard, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		if cb, err := NewNative(); err == nil {
			return cb, nil
		}
		return NewExec()
	case "native":
		return NewNative()
	case "exec":
		return NewExec()
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown clipboard backend %q (want one of %s)", name, strings.Join(Backends, ", "))
}

// revisionTracker derives a revision counter for backends whose platform API
// exposes none. It bumps when the observed content hash changes and on every
// write made through the backend.
type revisionTracker struct {
	mu       sync.Mutex
	revision int64
	lastHash string
	seen     bool
}

func (t *revisionTracker) observe(data []byte) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := Hash(data)
	if !t.seen || h != t.lastHash {
		t.revision++
		t.lastHash = h
		t.seen = true
	}
	return t.revision
}

func (t *revisionTracker) wrote(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revision++
	t.lastHash = Hash(data)
	t.seen = true
}
