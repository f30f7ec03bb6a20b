// Package history keeps the clipboard contents captured before each clean,
// stored in SQLite with the content sealed at rest.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/logger"
)

// ErrNotFound is returned for unknown item ids.
var ErrNotFound = errors.New("history item not found")

// Store is the history database.
type Store struct {
	db       *bun.DB
	sealer   Sealer
	now      func() time.Time
	maxBytes int
	log      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxBytes skips captures larger than n bytes. Zero disables the limit.
func WithMaxBytes(n int) Option {
	return func(s *Store) { s.maxBytes = n }
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, sealer Sealer, opts ...Option) (*Store, error) {
	if sealer == nil {
		sealer = PlainSealer()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	s := &Store{
		db:     bun.NewDB(sqldb, sqlitedialect.New()),
		sealer: sealer,
		now:    time.Now,
		log:    logger.Component("history"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*item)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create history_items: %w", err)
	}
	for _, idx := range []string{
		"CREATE INDEX IF NOT EXISTS idx_history_captured ON history_items(captured_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_history_pinned ON history_items(pinned)",
	} {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a snapshot. Content identical to an existing item moves that
// item to the top instead of adding a copy.
func (s *Store) Record(ctx context.Context, snap *clipboard.Snapshot) error {
	if snap == nil || snap.Empty() {
		return nil
	}
	rtf, _ := snap.Representation(clipboard.TagRTF)
	html, _ := snap.Representation(clipboard.TagHTML)
	_, err := s.add(ctx, snap.Text(), snap.Source(), rtf, html)
	return err
}

// Add stores plain text.
func (s *Store) Add(ctx context.Context, text string) (*Entry, error) {
	if text == "" {
		return nil, nil
	}
	return s.add(ctx, text, clipboard.TagPlainText, nil, nil)
}

func (s *Store) add(ctx context.Context, text string, source clipboard.Tag, rtf, html []byte) (*Entry, error) {
	size := len(text) + len(rtf) + len(html)
	if s.maxBytes > 0 && size > s.maxBytes {
		s.log.Debug("skipping oversized clipboard item", "size", size, "max", s.maxBytes)
		return nil, nil
	}

	now := s.now().UTC()
	hash := s.sealer.Fingerprint([]byte(text), rtf, html)

	res, err := s.db.NewUpdate().
		Model((*item)(nil)).
		Set("captured_at = ?", now).
		Where("hash = ?", hash).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("bump history item: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Debug("clipboard content already in history, moved to top")
		var row item
		if err := s.db.NewSelect().Model(&row).Where("hash = ?", hash).Scan(ctx); err != nil {
			return nil, fmt.Errorf("load history item: %w", err)
		}
		return s.decode(&row)
	}

	row := &item{
		Hash:       hash,
		Source:     string(source),
		Chars:      utf8.RuneCountInString(text),
		Size:       size,
		CapturedAt: now,
		CreatedAt:  now,
	}
	if row.Text, err = s.sealer.Seal([]byte(text)); err != nil {
		return nil, fmt.Errorf("seal history text: %w", err)
	}
	if len(rtf) > 0 {
		if row.RTF, err = s.sealer.Seal(rtf); err != nil {
			return nil, fmt.Errorf("seal history rtf: %w", err)
		}
	}
	if len(html) > 0 {
		if row.HTML, err = s.sealer.Seal(html); err != nil {
			return nil, fmt.Errorf("seal history html: %w", err)
		}
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert history item: %w", err)
	}
	s.log.Debug("clipboard content recorded", "id", row.ID, "chars", row.Chars)
	return s.decode(row)
}

func (s *Store) decode(row *item) (*Entry, error) {
	text, err := s.sealer.Open(row.Text)
	if err != nil {
		return nil, fmt.Errorf("history item %d: %w", row.ID, err)
	}
	e := &Entry{
		ID:         row.ID,
		Text:       string(text),
		Source:     clipboard.Tag(row.Source),
		Chars:      row.Chars,
		Size:       row.Size,
		Pinned:     row.Pinned,
		CapturedAt: row.CapturedAt,
		CreatedAt:  row.CreatedAt,
	}
	if len(row.RTF) > 0 {
		if e.RTF, err = s.sealer.Open(row.RTF); err != nil {
			return nil, fmt.Errorf("history item %d rtf: %w", row.ID, err)
		}
	}
	if len(row.HTML) > 0 {
		if e.HTML, err = s.sealer.Open(row.HTML); err != nil {
			return nil, fmt.Errorf("history item %d html: %w", row.ID, err)
		}
	}
	return e, nil
}

func (s *Store) ordered(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("pinned DESC", "captured_at DESC", "id DESC")
}

// Recent returns up to limit items, pinned first, then newest first.
// A non-positive limit returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	var rows []*item
	q := s.ordered(s.db.NewSelect().Model(&rows))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		e, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Search returns items whose text contains query, ignoring case. Content is
// sealed, so matching happens after decryption.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*Entry, error) {
	all, err := s.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return truncate(all, limit), nil
	}

	needle := strings.ToLower(query)
	var matches []*Entry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Text), needle) {
			matches = append(matches, e)
		}
	}
	return truncate(matches, limit), nil
}

func truncate(entries []*Entry, limit int) []*Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

// Get returns one item.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	var row item
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get history item: %w", err)
	}
	return s.decode(&row)
}

// TogglePin flips the pinned flag and returns the new value.
func (s *Store) TogglePin(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*item)(nil)).
		Set("pinned = NOT pinned").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("toggle pin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	var pinned bool
	if err := s.db.NewSelect().Model((*item)(nil)).Column("pinned").Where("id = ?", id).Scan(ctx, &pinned); err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return pinned, nil
}

// Delete removes one item.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*item)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Prune removes unpinned items older than maxAge and trims the list to
// maxItems. Pinned items count toward maxItems but are never removed.
// Non-positive limits are ignored.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration, maxItems int) (int, error) {
	removed := 0

	if maxAge > 0 {
		res, err := s.db.NewDelete().
			Model((*item)(nil)).
			Where("pinned = ?", false).
			Where("captured_at < ?", s.now().UTC().Add(-maxAge)).
			Exec(ctx)
		if err != nil {
			return removed, fmt.Errorf("delete expired items: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}

	if maxItems > 0 {
		pinned, err := s.db.NewSelect().Model((*item)(nil)).Where("pinned = ?", true).Count(ctx)
		if err != nil {
			return removed, fmt.Errorf("count pinned items: %w", err)
		}
		del := s.db.NewDelete().Model((*item)(nil)).Where("pinned = ?", false)
		if allowed := maxItems - pinned; allowed > 0 {
			keep := s.db.NewSelect().
				Model((*item)(nil)).
				Column("id").
				Where("pinned = ?", false).
				Order("captured_at DESC", "id DESC").
				Limit(allowed)
			del = del.Where("id NOT IN (?)", keep)
		}
		res, err := del.Exec(ctx)
		if err != nil {
			return removed, fmt.Errorf("trim history: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}

	if removed > 0 {
		s.log.Info("pruned clipboard history", "removed", removed)
	}
	return removed, nil
}

// ClearUnpinned removes every unpinned item.
func (s *Store) ClearUnpinned(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().Model((*item)(nil)).Where("pinned = ?", false).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ClearAll removes every item, pinned included.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().Model((*item)(nil)).Where("1 = 1").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear all history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*item)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
