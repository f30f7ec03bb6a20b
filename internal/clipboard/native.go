package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	nativeOnce    sync.Once
	nativeInitErr error
)

// Native uses the platform clipboard through golang.design/x/clipboard.
// Only plain text is carried; Clear is a no-op because every write replaces
// the platform clipboard as a whole.
type Native struct {
	rev revisionTracker
}

// NewNative initializes the platform clipboard once per process.
func NewNative() (*Native, error) {
	nativeOnce.Do(func() {
		nativeInitErr = clipboard.Init()
	})
	if nativeInitErr != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", nativeInitErr)
	}
	return &Native{}, nil
}

// Read implements Clipboard.
func (n *Native) Read(tag Tag) ([]byte, error) {
	if tag != TagPlainText {
		return nil, nil
	}
	return clipboard.Read(clipboard.FmtText), nil
}

// Clear implements Clipboard.
func (n *Native) Clear() error {
	return nil
}

// Write implements Clipboard.
func (n *Native) Write(tag Tag, data []byte) error {
	if tag != TagPlainText {
		return fmt.Errorf("%w: %s", ErrUnsupported, tag)
	}
	clipboard.Write(clipboard.FmtText, data)
	n.rev.wrote(data)
	return nil
}

// ChangeCount implements Clipboard.
func (n *Native) ChangeCount() (int64, error) {
	return n.rev.observe(clipboard.Read(clipboard.FmtText)), nil
}
