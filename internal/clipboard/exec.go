package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// Exec shells out to the platform clipboard tools (pbcopy, xclip, xsel,
// wl-copy, clip.exe) through github.com/atotto/clipboard. Plain text only.
type Exec struct {
	rev revisionTracker
}

// NewExec fails when no clipboard utility is available.
func NewExec() (*Exec, error) {
	if clipboard.Unsupported {
		return nil, errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	return &Exec{}, nil
}

// Read implements Clipboard.
func (e *Exec) Read(tag Tag) ([]byte, error) {
	if tag != TagPlainText {
		return nil, nil
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", err)
	}
	return []byte(text), nil
}

// Clear implements Clipboard.
func (e *Exec) Clear() error {
	return nil
}

// Write implements Clipboard.
func (e *Exec) Write(tag Tag, data []byte) error {
	if tag != TagPlainText {
		return fmt.Errorf("%w: %s", ErrUnsupported, tag)
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	e.rev.wrote(data)
	return nil
}

// ChangeCount implements Clipboard.
func (e *Exec) ChangeCount() (int64, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read clipboard: %w", err)
	}
	return e.rev.observe([]byte(text)), nil
}
