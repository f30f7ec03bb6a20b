// Package version carries build metadata injected with ldflags:
//
//	go build -ldflags "-X github.com/oliveoi1/clnbrd/internal/version.Version=1.4.0 \
//	  -X github.com/oliveoi1/clnbrd/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

var (
	// Version is the release version without the leading "v", or "dev".
	Version = "dev"
	Commit  = "unknown"
	// Dirty is "true" when the tree had uncommitted changes.
	Dirty     = "false"
	BuildDate = "unknown"
)

// Info is the structured build description printed by `clnbrd version`.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Dirty     bool   `json:"dirty" yaml:"dirty"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// IsRelease reports whether this binary was built from a tagged release.
// Development builds never self-update.
func IsRelease() bool {
	return Version != "" && Version != "dev" && !strings.Contains(Version, "-dev")
}

// String returns the short version, e.g. "1.4.0" or "dev-dirty".
func String() string {
	v := strings.TrimPrefix(Version, "v")
	if Dirty == "true" {
		v += "-dirty"
	}
	return v
}

// Render writes the multi-line form.
func (i Info) Render(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "clnbrd %s\n", String())
	fmt.Fprintf(&sb, "  commit:   %s\n", i.Commit)
	fmt.Fprintf(&sb, "  built:    %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "  go:       %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "  platform: %s\n", i.Platform)
	_, err := io.WriteString(w, sb.String())
	return err
}
