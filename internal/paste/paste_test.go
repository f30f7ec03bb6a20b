package paste

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func fakeLookPath(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		env       map[string]string
		available []string
		want      string
		wantErr   bool
	}{
		{name: "macOS", goos: "darwin", available: []string{"osascript"}, want: "osascript"},
		{name: "windows", goos: "windows", available: []string{"powershell"}, want: "powershell"},
		{name: "x11", goos: "linux", available: []string{"xdotool", "wtype"}, want: "xdotool"},
		{name: "wayland prefers wtype", goos: "linux", env: map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, available: []string{"xdotool", "wtype"}, want: "wtype"},
		{name: "wayland ydotool", goos: "linux", env: map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, available: []string{"ydotool"}, want: "ydotool"},
		{name: "wayland falls back to xwayland", goos: "linux", env: map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, available: []string{"xdotool"}, want: "xdotool"},
		{name: "nothing installed", goos: "freebsd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := detect(tt.goos, fakeEnv(tt.env), fakeLookPath(tt.available...))
			if tt.wantErr {
				if !errors.Is(err, ErrNoInjector) {
					t.Errorf("detect() error = %v, want ErrNoInjector", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("detect() error = %v", err)
			}
			if argv[0] != tt.want {
				t.Errorf("detect() = %v, want %s", argv, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs int
		wantErr  bool
	}{
		{"xdotool key --clearmodifiers ctrl+v", "xdotool", 3, false},
		{"  wtype   -M ctrl v ", "wtype", 3, false},
		{"", "", 0, true},
		{"   ", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, err := Parse(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if c.Name != tt.wantName || len(c.Args) != tt.wantArgs {
				t.Errorf("Parse() = %+v", c)
			}
		})
	}
}

func TestResolvePrefersConfigured(t *testing.T) {
	c, err := Resolve("my-paste --now")
	if err != nil {
		t.Fatal(err)
	}
	if c.String() != "my-paste --now" {
		t.Errorf("Resolve() = %q", c.String())
	}
}

func TestCommandPaste(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX true(1)")
	}
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true(1) not installed")
	}

	c, _ := NewCommand("true")
	if err := c.Paste(); err != nil {
		t.Errorf("Paste() error = %v", err)
	}

	missing, _ := NewCommand("clnbrd-no-such-paste-helper")
	if err := missing.Paste(); err == nil {
		t.Error("Paste() with missing helper should fail")
	}
}

func TestCommandPaste_WaitsForHelper(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX sh(1)")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh(1) not installed")
	}

	mark := filepath.Join(t.TempDir(), "sent")
	c, _ := NewCommand("sh", "-c", "sleep 0.3; touch "+mark)
	if err := c.Paste(); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	if _, err := os.Stat(mark); err != nil {
		t.Errorf("Paste() returned before the helper finished: %v", err)
	}
}

func TestCommandPaste_Failures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX sh(1)")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh(1) not installed")
	}

	tests := []struct {
		name    string
		argv    []string
		timeout time.Duration
		want    string
	}{
		{"non-zero exit", []string{"sh", "-c", "echo no display >&2; exit 3"}, 0, "no display"},
		{"timeout", []string{"sh", "-c", "sleep 5"}, 100 * time.Millisecond, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewCommand(tt.argv...)
			c.Timeout = tt.timeout
			start := time.Now()
			err := c.Paste()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Paste() error = %v, want containing %q", err, tt.want)
			}
			if elapsed := time.Since(start); elapsed > 3*time.Second {
				t.Errorf("Paste() took %s", elapsed)
			}
		})
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Paste(); err != nil {
		t.Errorf("Noop.Paste() = %v", err)
	}
}
