package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/schedule"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

// countingInjector records paste requests.
type countingInjector struct {
	mu    sync.Mutex
	calls int
	err   error
	seen  []string
	cb    *clipboard.Memory
}

func (c *countingInjector) Paste() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.cb != nil {
		c.seen = append(c.seen, c.cb.Text())
	}
	return c.err
}

func (c *countingInjector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recorderFunc func(ctx context.Context, snap *clipboard.Snapshot) error

func (f recorderFunc) Record(ctx context.Context, snap *clipboard.Snapshot) error {
	return f(ctx, snap)
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *clipboard.Memory, *schedule.Fake, *countingInjector) {
	t.Helper()
	cb := clipboard.NewMemory()
	fake := schedule.NewFake(time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC))
	inj := &countingInjector{cb: cb}
	e := NewEngine(cb, inj, fake, StaticRules(clnbrd.DefaultRuleSet()), opts...)
	return e, cb, fake, inj
}

func isDone(tx *Transaction) bool {
	select {
	case <-tx.Done():
		return true
	default:
		return false
	}
}

func TestCleanAndPaste_RestoresOriginal(t *testing.T) {
	tests := []struct {
		name    string
		content string
		cleaned string
	}{
		{"already clean", "Original", "Original"},
		{"smart quotes", "\u201COriginal\u201D", `"Original"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, cb, fake, inj := newTestEngine(t)
			cb.CopyText(tt.content)

			tx, err := e.CleanAndPaste(context.Background())
			if err != nil {
				t.Fatalf("CleanAndPaste() error = %v", err)
			}
			if tx.State() != Written {
				t.Fatalf("State() = %v, want written", tx.State())
			}
			if cb.Text() != tt.cleaned {
				t.Errorf("clipboard during paste = %q, want %q", cb.Text(), tt.cleaned)
			}

			fake.Advance(99 * time.Millisecond)
			if inj.count() != 0 {
				t.Fatal("pasted before paste delay")
			}
			fake.Advance(time.Millisecond)
			if inj.count() != 1 || tx.State() != Injected {
				t.Fatalf("after paste delay: calls=%d state=%v", inj.count(), tx.State())
			}
			if inj.seen[0] != tt.cleaned {
				t.Errorf("pasted %q, want %q", inj.seen[0], tt.cleaned)
			}

			fake.Advance(699 * time.Millisecond)
			if tx.State() != Injected {
				t.Fatalf("restored before restore delay")
			}
			fake.Advance(time.Millisecond)

			if !isDone(tx) {
				t.Fatal("Done() not closed after restore")
			}
			if tx.State() != Restored {
				t.Errorf("State() = %v, want restored", tx.State())
			}
			if cb.Text() != tt.content {
				t.Errorf("clipboard after restore = %q, want %q", cb.Text(), tt.content)
			}
			if e.Busy() {
				t.Error("engine still busy after restore")
			}
		})
	}
}

func TestCleanInPlace(t *testing.T) {
	e, cb, fake, inj := newTestEngine(t)
	cb.CopyText("a    b\u200B")

	tx, err := e.CleanInPlace(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !isDone(tx) || tx.State() != Written {
		t.Fatalf("state = %v, done = %v", tx.State(), isDone(tx))
	}
	if cb.Text() != "a b" {
		t.Errorf("clipboard = %q, want %q", cb.Text(), "a b")
	}

	fake.Advance(time.Second)
	if inj.count() != 0 {
		t.Error("in-place clean should never paste")
	}

	r := tx.Result()
	if r.Mode != CleanInPlace || !r.Changed || r.OriginalLen != 7 || r.CleanedLen != 3 {
		t.Errorf("Result() = %+v", r)
	}
	if rev, _ := cb.ChangeCount(); r.Revision != rev {
		t.Errorf("Result().Revision = %d, want %d", r.Revision, rev)
	}
}

func TestEmptyClipboardAborts(t *testing.T) {
	e, cb, _, _ := newTestEngine(t)

	tx, err := e.CleanAndPaste(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tx.State() != Aborted || tx.Result().Reason != ReasonEmpty {
		t.Errorf("got state %v reason %q", tx.State(), tx.Result().Reason)
	}
	if !isDone(tx) {
		t.Error("aborted transaction should be done")
	}
	if len(cb.Writes()) != 0 {
		t.Errorf("wrote to clipboard: %v", cb.Writes())
	}
	if e.Busy() {
		t.Error("engine busy after abort")
	}
}

func TestFailures(t *testing.T) {
	sentinel := errors.New("denied")

	tests := []struct {
		name       string
		setup      func(cb *clipboard.Memory)
		wantReason string
	}{
		{"change count", func(cb *clipboard.Memory) { cb.FailChangeCount(sentinel) }, ReasonCaptureFailed},
		{"write", func(cb *clipboard.Memory) { cb.FailWrite(sentinel) }, ReasonWriteFailed},
		{"clear", func(cb *clipboard.Memory) { cb.FailClear(sentinel) }, ReasonWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, cb, _, _ := newTestEngine(t)
			cb.CopyText("text")
			tt.setup(cb)

			tx, err := e.CleanInPlace(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			r := tx.Result()
			if r.State != Aborted || r.Reason != tt.wantReason {
				t.Errorf("state %v reason %q, want aborted %q", r.State, r.Reason, tt.wantReason)
			}
			if !errors.Is(r.Err, sentinel) {
				t.Errorf("Err = %v, want wrapped sentinel", r.Err)
			}
			if e.Busy() {
				t.Error("engine busy after failure")
			}
		})
	}
}

func TestRestoreFailure(t *testing.T) {
	e, cb, fake, _ := newTestEngine(t)
	cb.CopyText("text")

	tx, err := e.CleanAndPaste(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	fake.Advance(100 * time.Millisecond)
	cb.FailWrite(errors.New("locked"))
	fake.Advance(700 * time.Millisecond)

	if tx.State() != Aborted || tx.Result().Reason != ReasonRestoreFailed {
		t.Errorf("state %v reason %q", tx.State(), tx.Result().Reason)
	}
}

func TestBusyTriggerDropped(t *testing.T) {
	e, cb, fake, inj := newTestEngine(t)
	cb.CopyText("first")

	tx, err := e.CleanAndPaste(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !e.Busy() {
		t.Fatal("engine should be busy")
	}

	for _, trigger := range []func(context.Context) (*Transaction, error){e.CleanInPlace, e.CleanAndPaste} {
		if _, err := trigger(context.Background()); !errors.Is(err, ErrBusy) {
			t.Errorf("second trigger error = %v, want ErrBusy", err)
		}
	}

	fake.Advance(800 * time.Millisecond)
	if !isDone(tx) || inj.count() != 1 {
		t.Fatalf("first transaction: done=%v pastes=%d", isDone(tx), inj.count())
	}
	if cb.Text() != "first" {
		t.Errorf("clipboard = %q, want %q", cb.Text(), "first")
	}

	if _, err := e.CleanInPlace(context.Background()); err != nil {
		t.Errorf("trigger after completion error = %v", err)
	}
}

func TestInjectorFailureStillRestores(t *testing.T) {
	e, cb, fake, inj := newTestEngine(t)
	inj.err = errors.New("no accessibility permission")
	cb.CopyText("keep me")

	tx, _ := e.CleanAndPaste(context.Background())
	fake.Advance(800 * time.Millisecond)

	r := tx.Result()
	if r.State != Restored {
		t.Errorf("State = %v, want restored", r.State)
	}
	if r.PasteErr == nil || r.PasteError == "" {
		t.Error("paste error not recorded")
	}
	if cb.Text() != "keep me" {
		t.Errorf("clipboard = %q", cb.Text())
	}
}

// A helper that takes longer than the restore delay must still paste the
// cleaned text: the restore timer starts only once the keystroke is sent.
func TestSlowInjectorPastesBeforeRestore(t *testing.T) {
	cb := clipboard.NewMemory()
	cb.CopyText("Orig\u2014inal")

	var (
		mu     sync.Mutex
		pasted string
	)
	inj := InjectorFunc(func() error {
		time.Sleep(300 * time.Millisecond)
		mu.Lock()
		pasted = cb.Text()
		mu.Unlock()
		return nil
	})
	e := NewEngine(cb, inj, schedule.Real(), StaticRules(clnbrd.DefaultRuleSet()),
		WithPasteDelay(10*time.Millisecond),
		WithRestoreDelay(50*time.Millisecond),
	)

	tx, err := e.CleanAndPaste(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-tx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("transaction did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if pasted != "Orig, inal" {
		t.Errorf("keystroke pasted %q, want the cleaned text", pasted)
	}
	if r := tx.Result(); r.State != Restored {
		t.Errorf("State = %v, want restored", r.State)
	}
	if cb.Text() != "Orig\u2014inal" {
		t.Errorf("clipboard = %q, want original restored", cb.Text())
	}
}

func TestRestoreModes(t *testing.T) {
	reps := map[clipboard.Tag][]byte{
		clipboard.TagPlainText: []byte("rich  text"),
		clipboard.TagRTF:       []byte(`{\rtf1 {\b rich}  text}`),
		clipboard.TagHTML:      []byte("<b>rich</b>  text"),
	}

	tests := []struct {
		name     string
		mode     RestoreMode
		wantTags []clipboard.Tag
	}{
		{"text", RestoreText, []clipboard.Tag{clipboard.TagPlainText}},
		{"full", RestoreFull, []clipboard.Tag{clipboard.TagPlainText, clipboard.TagRTF, clipboard.TagHTML}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, cb, fake, _ := newTestEngine(t, WithRestoreMode(tt.mode))
			cb.Copy(reps)

			tx, _ := e.CleanAndPaste(context.Background())
			if data, _ := cb.Read(clipboard.TagRTF); data != nil {
				t.Error("rich text should be cleared while the cleaned text is on the clipboard")
			}
			fake.Advance(800 * time.Millisecond)
			if tx.State() != Restored {
				t.Fatalf("State = %v", tx.State())
			}

			for _, tag := range []clipboard.Tag{clipboard.TagPlainText, clipboard.TagRTF, clipboard.TagHTML} {
				data, _ := cb.Read(tag)
				want := false
				for _, w := range tt.wantTags {
					want = want || w == tag
				}
				if want && string(data) != string(reps[tag]) {
					t.Errorf("%s = %q, want %q", tag, data, reps[tag])
				}
				if !want && data != nil {
					t.Errorf("%s restored in %s mode", tag, tt.mode)
				}
			}
		})
	}
}

func TestRulesReadAtCleanTime(t *testing.T) {
	cb := clipboard.NewMemory()
	fake := schedule.NewFake(time.Now())
	rules := clnbrd.RuleSet{}
	calls := 0
	e := NewEngine(cb, nil, fake, func() clnbrd.RuleSet {
		calls++
		return rules
	})

	cb.CopyText("a  b")
	e.CleanInPlace(context.Background())
	if cb.Text() != "a  b" {
		t.Errorf("no rules: clipboard = %q", cb.Text())
	}

	rules.NormalizeSpaces = true
	cb.CopyText("a  b")
	e.CleanInPlace(context.Background())
	if cb.Text() != "a b" {
		t.Errorf("updated rules: clipboard = %q", cb.Text())
	}
	if calls != 2 {
		t.Errorf("rules read %d times, want 2", calls)
	}
}

func TestHooksAndRecorder(t *testing.T) {
	var (
		recorded []string
		writes   []int64
		done     []Result
	)
	rec := recorderFunc(func(_ context.Context, snap *clipboard.Snapshot) error {
		recorded = append(recorded, snap.Text())
		return errors.New("disk full")
	})

	e, cb, fake, _ := newTestEngine(t,
		WithRecorder(rec),
		WithWriteHook(func(rev int64) { writes = append(writes, rev) }),
		WithDoneHook(func(r Result) { done = append(done, r) }),
		WithPasteDelay(10*time.Millisecond),
		WithRestoreDelay(10*time.Millisecond),
	)
	cb.CopyText("hello")

	tx, _ := e.CleanAndPaste(context.Background())
	fake.Advance(20 * time.Millisecond)

	if tx.State() != Restored {
		t.Fatalf("recorder error should not abort, state = %v", tx.State())
	}
	if len(recorded) != 1 || recorded[0] != "hello" {
		t.Errorf("recorded = %v", recorded)
	}
	final, _ := cb.ChangeCount()
	if len(writes) != 2 || writes[1] != final {
		t.Errorf("write hook revisions = %v, final revision %d", writes, final)
	}
	if len(done) != 1 || done[0].State != Restored || done[0].Revision != final {
		t.Errorf("done hook = %+v", done)
	}
}

func TestCancel(t *testing.T) {
	e, cb, fake, inj := newTestEngine(t)
	cb.CopyText("\u201Coriginal\u201D")

	tx, _ := e.CleanAndPaste(context.Background())
	e.Cancel()

	if tx.State() != Restored || !isDone(tx) {
		t.Fatalf("state = %v, done = %v", tx.State(), isDone(tx))
	}
	if cb.Text() != "\u201Coriginal\u201D" {
		t.Errorf("clipboard = %q", cb.Text())
	}

	fake.Advance(time.Second)
	if inj.count() != 0 {
		t.Error("cancelled transaction pasted")
	}
	tx.Cancel()
	if tx.State() != Restored {
		t.Error("second Cancel changed state")
	}
}

func TestWait(t *testing.T) {
	e, cb, fake, _ := newTestEngine(t)

	if err := e.Wait(context.Background()); err != nil {
		t.Errorf("Wait() with nothing in flight = %v", err)
	}

	cb.CopyText("x")
	e.CleanAndPaste(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := e.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want deadline exceeded", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- e.Wait(context.Background()) }()
	fake.Advance(800 * time.Millisecond)

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Wait() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after transaction finished")
	}
}

func TestStateStrings(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Captured: "captured", Written: "written", Injected: "injected", Restored: "restored", Aborted: "aborted"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
	if CleanAndPaste.String() != "clean_and_paste" || CleanInPlace.String() != "clean_in_place" {
		t.Error("mode strings")
	}
}
