// Package paste sends the platform paste keystroke to the foreground
// application by running a helper program.
package paste

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/oliveoi1/clnbrd/internal/logger"
)

// DefaultTimeout bounds a helper run. PowerShell can take a second or more to
// start cold.
const DefaultTimeout = 5 * time.Second

// ErrNoInjector is returned by Detect when no paste helper is available.
var ErrNoInjector = errors.New("no paste helper available for this platform")

// Command runs an external program to synthesize the paste keystroke.
type Command struct {
	Name string
	Args []string
	// Timeout bounds the helper run; zero means DefaultTimeout.
	Timeout time.Duration
}

// NewCommand builds a Command from an argv slice.
func NewCommand(argv ...string) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("paste command is empty")
	}
	return &Command{Name: argv[0], Args: append([]string(nil), argv[1:]...)}, nil
}

// Parse builds a Command from a whitespace separated command line.
// Quoting is not supported.
func Parse(line string) (*Command, error) {
	return NewCommand(strings.Fields(line)...)
}

// Paste runs the helper and waits for it to exit, so the keystroke has been
// sent when Paste returns. A helper still running after Timeout is killed.
func (c *Command) Paste() error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	// Children of a killed helper may still hold the output pipe.
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: timed out after %s", c.Name, timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Name, err, msg)
		}
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	logger.Debug("paste keystroke sent", "command", c.String())
	return nil
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Noop is an injector that does nothing. It backs --no-paste and headless runs.
type Noop struct{}

// Paste implements the injector contract.
func (Noop) Paste() error { return nil }

// Detect picks the paste helper for the running platform.
func Detect() (*Command, error) {
	argv, err := detect(runtime.GOOS, os.Getenv, exec.LookPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("paste helper detected", "command", strings.Join(argv, " "))
	return NewCommand(argv...)
}

// Resolve returns the configured command when set, otherwise the detected one.
func Resolve(configured string) (*Command, error) {
	if strings.TrimSpace(configured) != "" {
		return Parse(configured)
	}
	return Detect()
}

func detect(goos string, getenv func(string) string, lookPath func(string) (string, error)) ([]string, error) {
	var candidates [][]string
	switch goos {
	case "darwin":
		candidates = [][]string{
			{"osascript", "-e", `tell application "System Events" to keystroke "v" using command down`},
		}
	case "windows":
		candidates = [][]string{
			{"powershell", "-NoProfile", "-NonInteractive", "-Command",
				`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait('^v')`},
		}
	default:
		if getenv("WAYLAND_DISPLAY") != "" {
			candidates = append(candidates,
				[]string{"wtype", "-M", "ctrl", "v", "-m", "ctrl"},
				[]string{"ydotool", "key", "29:1", "47:1", "47:0", "29:0"},
			)
		}
		candidates = append(candidates, []string{"xdotool", "key", "--clearmodifiers", "ctrl+v"})
	}

	for _, argv := range candidates {
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, fmt.Errorf("%w (%s)", ErrNoInjector, goos)
}
