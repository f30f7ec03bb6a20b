package transaction

// State is a step of the clipboard transaction state machine.
type State int

const (
	Idle State = iota
	Captured
	Written
	Injected
	Restored
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Captured:
		return "captured"
	case Written:
		return "written"
	case Injected:
		return "injected"
	case Restored:
		return "restored"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Mode selects what a transaction does after writing the cleaned text.
type Mode int

const (
	// CleanInPlace overwrites the clipboard and stops.
	CleanInPlace Mode = iota
	// CleanAndPaste writes, pastes into the foreground app, then restores the original.
	CleanAndPaste
)

func (m Mode) String() string {
	if m == CleanAndPaste {
		return "clean_and_paste"
	}
	return "clean_in_place"
}

// MarshalText renders the mode name in JSON and YAML output.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// terminal reports whether a transaction in state s for mode m has finished.
func terminal(s State, m Mode) bool {
	switch s {
	case Restored, Aborted:
		return true
	case Written:
		return m == CleanInPlace
	}
	return false
}

// RestoreMode selects how the original clipboard is put back after a paste.
type RestoreMode string

const (
	// RestoreText writes the captured text back as plain text.
	RestoreText RestoreMode = "text"
	// RestoreFull writes every captured representation back byte for byte.
	RestoreFull RestoreMode = "full"
)

// Abort reasons.
const (
	ReasonEmpty         = "empty"
	ReasonCaptureFailed = "capture failed"
	ReasonWriteFailed   = "write failed"
	ReasonRestoreFailed = "restore failed"
)
