package hotkey

import (
	"slices"
	"sync"
	"testing"
	"time"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ctrl+alt+v", want: "ctrl+alt+v"},
		{in: "Cmd+Shift+V", want: "shift+cmd+v"},
		{in: "option+command+c", want: "alt+cmd+c"},
		{in: "control + f5", want: "ctrl+f5"},
		{in: "super+space", want: "cmd+space"},
		{in: "shift+ctrl+1", want: "ctrl+shift+1"},
		{in: "", wantErr: true},
		{in: "v", wantErr: true},
		{in: "ctrl+alt", wantErr: true},
		{in: "ctrl+v+c", wantErr: true},
		{in: "ctrl+ctrl+v", wantErr: true},
		{in: "ctrl++v", wantErr: true},
		{in: "ctrl+f25", wantErr: true},
		{in: "ctrl+f05", wantErr: true},
		{in: "hyper+v", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCombo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCombo(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseCombo(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestHookKeysPutKeyFirst(t *testing.T) {
	c, err := ParseCombo("alt+ctrl+v")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.hookKeys(); !slices.Equal(got, []string{"v", "ctrl", "alt"}) {
		t.Errorf("hookKeys() = %v", got)
	}
}

type fakeBackend struct {
	mu      sync.Mutex
	handler map[string]func()
	done    chan struct{}
	ended   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{handler: make(map[string]func())}
}

func (f *fakeBackend) register(keys []string, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler[keys[0]] = fn
}

func (f *fakeBackend) start() <-chan struct{} {
	f.done = make(chan struct{})
	return f.done
}

func (f *fakeBackend) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = true
	close(f.done)
}

func (f *fakeBackend) press(key string) {
	f.mu.Lock()
	fn := f.handler[key]
	f.mu.Unlock()
	fn()
}

func TestManagerDispatch(t *testing.T) {
	pressed := make(chan string, 2)
	paste, _ := Bind("clean_and_paste", "cmd+shift+v", func() { pressed <- "paste" })
	inPlace, _ := Bind("clean_in_place", "cmd+shift+c", func() { pressed <- "in-place" })

	fb := newFakeBackend()
	m, err := newManager(fb, paste, inPlace)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err == nil {
		t.Error("second Start() should fail")
	}

	fb.press("c")
	select {
	case got := <-pressed:
		if got != "in-place" {
			t.Errorf("pressed %s, want in-place", got)
		}
	case <-time.After(time.Second):
		t.Fatal("action not invoked")
	}

	m.Stop()
	if !fb.ended {
		t.Error("Stop() did not end the hook")
	}
	m.Stop()
}

func TestNewManagerValidation(t *testing.T) {
	a, _ := Bind("a", "ctrl+alt+v", func() {})
	b, _ := Bind("b", "alt+ctrl+v", func() {})
	if _, err := newManager(newFakeBackend(), a, b); err == nil {
		t.Error("duplicate combo accepted")
	}

	noAction := Binding{Name: "x", Combo: a.Combo}
	if _, err := newManager(newFakeBackend(), noAction); err == nil {
		t.Error("binding without action accepted")
	}

	if _, err := Bind("bad", "v", func() {}); err == nil {
		t.Error("Bind accepted combo without modifier")
	}

	empty, _ := newManager(newFakeBackend())
	if err := empty.Start(); err == nil {
		t.Error("Start() with no bindings should fail")
	}
}
