package clipboard

import (
	"fmt"
	"sort"

	"github.com/oliveoi1/clnbrd/internal/logger"
)

// Snapshot is an immutable capture of the clipboard at one revision.
type Snapshot struct {
	revision int64
	reps     map[Tag][]byte
	text     string
	source   Tag
}

// NewSnapshot builds a snapshot from raw representations and extracts its
// text: the first non-empty of plain text, RTF and HTML, in that order.
// The map and byte slices are copied.
func NewSnapshot(revision int64, reps map[Tag][]byte) *Snapshot {
	s := &Snapshot{revision: revision, reps: make(map[Tag][]byte, len(reps))}
	for tag, data := range reps {
		if len(data) == 0 {
			continue
		}
		s.reps[tag] = append([]byte(nil), data...)
	}

	for _, tag := range CaptureOrder {
		data, ok := s.reps[tag]
		if !ok {
			continue
		}
		if text := Project(tag, data); text != "" {
			s.text = text
			s.source = tag
			break
		}
	}
	return s
}

// Capture reads the revision counter and then every representation in
// CaptureOrder. A representation that fails to read is skipped; only a failure
// to read the revision is an error.
func Capture(cb Clipboard) (*Snapshot, error) {
	revision, err := cb.ChangeCount()
	if err != nil {
		return nil, fmt.Errorf("read clipboard change count: %w", err)
	}

	reps := make(map[Tag][]byte, len(CaptureOrder))
	for _, tag := range CaptureOrder {
		data, err := cb.Read(tag)
		if err != nil {
			logger.Debug("skipping clipboard representation", "tag", tag, "error", err)
			continue
		}
		if len(data) > 0 {
			reps[tag] = data
		}
	}
	return NewSnapshot(revision, reps), nil
}

// Project converts a representation into plain text.
func Project(tag Tag, data []byte) string {
	switch tag {
	case TagPlainText:
		return string(data)
	case TagRTF:
		return RTFToText(data)
	case TagHTML:
		return HTMLToText(data)
	}
	return ""
}

// Empty reports whether no text could be extracted.
func (s *Snapshot) Empty() bool {
	return s == nil || s.text == ""
}

// Text returns the extracted text.
func (s *Snapshot) Text() string {
	return s.text
}

// Source returns the representation the text came from.
func (s *Snapshot) Source() Tag {
	return s.source
}

// Revision returns the revision counter read before the representations.
func (s *Snapshot) Revision() int64 {
	return s.revision
}

// Representation returns a copy of the bytes stored under tag.
func (s *Snapshot) Representation(tag Tag) ([]byte, bool) {
	data, ok := s.reps[tag]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Tags returns the captured representation tags in capture order.
func (s *Snapshot) Tags() []Tag {
	tags := make([]Tag, 0, len(s.reps))
	for tag := range s.reps {
		tags = append(tags, tag)
	}
	rank := func(t Tag) int {
		for i, c := range CaptureOrder {
			if c == t {
				return i
			}
		}
		return len(CaptureOrder)
	}
	sort.Slice(tags, func(i, j int) bool {
		ri, rj := rank(tags[i]), rank(tags[j])
		if ri != rj {
			return ri < rj
		}
		return tags[i] < tags[j]
	})
	return tags
}

// Size returns the total byte size of all representations.
func (s *Snapshot) Size() int {
	n := 0
	for _, data := range s.reps {
		n += len(data)
	}
	return n
}

// Hash returns a digest over every representation in tag order.
func (s *Snapshot) Hash() string {
	var parts [][]byte
	for _, tag := range s.Tags() {
		parts = append(parts, []byte(tag), s.reps[tag])
	}
	return Hash(parts...)
}
