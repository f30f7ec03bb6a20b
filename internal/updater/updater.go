// Package updater checks GitHub releases and replaces the running binary.
package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/internal/version"
)

// ChecksumFile is the release asset listing SHA-256 sums of every archive.
const ChecksumFile = "checksums.txt"

var (
	// ErrNoRelease is returned when the repository has no matching release.
	ErrNoRelease = errors.New("no release found for this platform")
	// ErrDevBuild is returned when applying an update to an untagged build.
	ErrDevBuild = errors.New("development builds cannot self-update")
)

// Status describes the result of a check.
type Status struct {
	Current     string    `json:"current" yaml:"current"`
	Latest      string    `json:"latest" yaml:"latest"`
	Available   bool      `json:"available" yaml:"available"`
	Applied     bool      `json:"applied" yaml:"applied"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	Notes       string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Render writes the human form.
func (s *Status) Render(w io.Writer) error {
	var err error
	switch {
	case s.Applied:
		_, err = fmt.Fprintf(w, "updated clnbrd %s -> %s\n", s.Current, s.Latest)
	case s.Available:
		_, err = fmt.Fprintf(w, "clnbrd %s is available (running %s)\n  %s\n", s.Latest, s.Current, s.URL)
	default:
		_, err = fmt.Fprintf(w, "clnbrd %s is up to date\n", s.Current)
	}
	return err
}

// Updater talks to one GitHub repository.
type Updater struct {
	slug    selfupdate.RepositorySlug
	updater *selfupdate.Updater
}

// New creates an Updater for "owner/name". Release archives are verified
// against ChecksumFile.
func New(repository string, prerelease bool) (*Updater, error) {
	owner, name, err := splitRepository(repository)
	if err != nil {
		return nil, err
	}
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("create release source: %w", err)
	}
	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Validator:  &selfupdate.ChecksumValidator{UniqueFilename: ChecksumFile},
		Prerelease: prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return &Updater{slug: selfupdate.NewRepositorySlug(owner, name), updater: up}, nil
}

func splitRepository(repo string) (string, string, error) {
	repo = strings.TrimPrefix(strings.TrimSpace(repo), "https://github.com/")
	owner, name, ok := strings.Cut(strings.Trim(repo, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q must look like owner/name", repo)
	}
	return owner, name, nil
}

func (u *Updater) latest(ctx context.Context) (*selfupdate.Release, *Status, error) {
	rel, found, err := u.updater.DetectLatest(ctx, u.slug)
	if err != nil {
		return nil, nil, fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		return nil, nil, ErrNoRelease
	}
	current := version.String()
	st := &Status{
		Current:     current,
		Latest:      rel.Version(),
		Available:   !version.IsRelease() || rel.GreaterThan(strings.TrimSuffix(current, "-dirty")),
		URL:         rel.URL,
		PublishedAt: rel.PublishedAt,
		Notes:       rel.ReleaseNotes,
	}
	return rel, st, nil
}

// Check reports whether a newer release exists.
func (u *Updater) Check(ctx context.Context) (*Status, error) {
	_, st, err := u.latest(ctx)
	return st, err
}

// Apply downloads the newer release, verifies it and replaces the running
// executable. It does nothing when already up to date.
func (u *Updater) Apply(ctx context.Context) (*Status, error) {
	if !version.IsRelease() {
		return nil, ErrDevBuild
	}
	rel, st, err := u.latest(ctx)
	if err != nil || !st.Available {
		return st, err
	}

	exe, err := os.Executable()
	if err != nil {
		return st, fmt.Errorf("locate executable: %w", err)
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return st, fmt.Errorf("resolve executable: %w", err)
	}

	logger.Info("installing update", "from", st.Current, "to", st.Latest, "path", exe)
	if err := u.updater.UpdateTo(ctx, rel, exe); err != nil {
		return st, fmt.Errorf("install %s: %w", st.Latest, err)
	}
	st.Applied = true
	return st, nil
}
