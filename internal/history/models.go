package history

import (
	"strings"
	"time"
	"unicode"

	"github.com/rivo/uniseg"
	"github.com/uptrace/bun"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
)

// item is the stored row. Content columns hold sealed bytes.
type item struct {
	bun.BaseModel `bun:"table:history_items"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Hash       string    `bun:"hash,unique,notnull"`
	Source     string    `bun:"source,notnull"`
	Text       []byte    `bun:"text,notnull"`
	RTF        []byte    `bun:"rtf"`
	HTML       []byte    `bun:"html"`
	Chars      int       `bun:"chars,notnull"`
	Size       int       `bun:"size,notnull"`
	Pinned     bool      `bun:"pinned,notnull,default:false"`
	CapturedAt time.Time `bun:"captured_at,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Entry is a decrypted history item.
type Entry struct {
	ID         int64         `json:"id" yaml:"id"`
	Text       string        `json:"text" yaml:"text"`
	Source     clipboard.Tag `json:"source" yaml:"source"`
	RTF        []byte        `json:"rtf,omitempty" yaml:"rtf,omitempty"`
	HTML       []byte        `json:"html,omitempty" yaml:"html,omitempty"`
	Chars      int           `json:"chars" yaml:"chars"`
	Size       int           `json:"size" yaml:"size"`
	Pinned     bool          `json:"pinned" yaml:"pinned"`
	CapturedAt time.Time     `json:"captured_at" yaml:"captured_at"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
}

// Representations returns what was captured, keyed by tag.
func (e *Entry) Representations() map[clipboard.Tag][]byte {
	reps := map[clipboard.Tag][]byte{clipboard.TagPlainText: []byte(e.Text)}
	if len(e.RTF) > 0 {
		reps[clipboard.TagRTF] = e.RTF
	}
	if len(e.HTML) > 0 {
		reps[clipboard.TagHTML] = e.HTML
	}
	return reps
}

// Preview returns the text on one line, cut to at most limit user-perceived
// characters. Emoji sequences and combining marks are never split.
func (e *Entry) Preview(limit int) string {
	flat := strings.Join(strings.FieldsFunc(e.Text, unicode.IsSpace), " ")
	if limit <= 0 || uniseg.GraphemeClusterCount(flat) <= limit {
		return flat
	}

	var sb strings.Builder
	g := uniseg.NewGraphemes(flat)
	for n := 0; n < limit-1 && g.Next(); n++ {
		sb.WriteString(g.Str())
	}
	return strings.TrimRight(sb.String(), " ") + "\u2026"
}
