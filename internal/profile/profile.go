// Package profile stores named rule sets. Exactly one profile is active and
// supplies the rules for every clean.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/oliveoi1/clnbrd/internal/logger"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

// DefaultName names the profile created on first use.
const DefaultName = "Default"

var (
	ErrNotFound      = errors.New("profile not found")
	ErrLastProfile   = errors.New("cannot delete the last profile")
	ErrDuplicateName = errors.New("a profile with that name already exists")
	ErrEmptyName     = errors.New("profile name is empty")
)

// Profile is a named rule set.
type Profile struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Rules     clnbrd.RuleSet `json:"rules" yaml:"rules"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

func (p Profile) clone() Profile {
	p.Rules = p.Rules.Clone()
	return p
}

type document struct {
	Active   string    `yaml:"active"`
	Profiles []Profile `yaml:"profiles"`
}

// Store is a profiles file. Every accessor returns copies.
type Store struct {
	path string
	log  *slog.Logger

	mu  sync.RWMutex
	doc document
}

// Open loads the profiles at path, creating the file with a Default profile
// when it does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, log: logger.Component("profile")}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.log.Info("creating profiles file", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read profiles: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("parse profiles %s: %w", path, err)
		}
	}

	changed := false
	if len(s.doc.Profiles) == 0 {
		s.doc.Profiles = []Profile{newProfile(DefaultName, clnbrd.DefaultRuleSet())}
		changed = true
	}
	if s.indexOf(s.doc.Active) < 0 {
		s.doc.Active = s.doc.Profiles[0].ID
		changed = true
	}
	if changed {
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func newProfile(name string, rules clnbrd.RuleSet) Profile {
	now := time.Now().UTC()
	return Profile{
		ID:        uuid.NewString(),
		Name:      name,
		Rules:     rules.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// List returns every profile in creation order.
func (s *Store) List() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Profile, len(s.doc.Profiles))
	for i, p := range s.doc.Profiles {
		out[i] = p.clone()
	}
	return out
}

// Active returns the active profile.
func (s *Store) Active() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Profiles[s.indexOf(s.doc.Active)].clone()
}

// ActiveRules returns the active profile's rules. It has the shape of a
// transaction rules source and is read on every clean.
func (s *Store) ActiveRules() clnbrd.RuleSet {
	return s.Active().Rules
}

// Find resolves a profile by id, unique id prefix or case-insensitive name.
func (s *Store) Find(ref string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.resolve(ref)
	if err != nil {
		return Profile{}, err
	}
	return s.doc.Profiles[i].clone(), nil
}

// Create adds a profile copying the rules of basedOn, which may name a
// profile or a built-in preset. An empty basedOn copies the active profile.
func (s *Store) Create(name, basedOn string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.checkName(name, "")
	if err != nil {
		return Profile{}, err
	}

	var rules clnbrd.RuleSet
	switch i, err := s.resolve(basedOn); {
	case basedOn == "":
		rules = s.doc.Profiles[s.indexOf(s.doc.Active)].Rules
	case err == nil:
		rules = s.doc.Profiles[i].Rules
	default:
		preset, ok := clnbrd.Preset(basedOn)
		if !ok {
			return Profile{}, fmt.Errorf("base %q is neither a profile nor a preset (%s): %w",
				basedOn, strings.Join(clnbrd.PresetNames(), ", "), err)
		}
		rules = preset
	}

	p := newProfile(name, rules)
	s.doc.Profiles = append(s.doc.Profiles, p)
	if err := s.save(); err != nil {
		s.doc.Profiles = s.doc.Profiles[:len(s.doc.Profiles)-1]
		return Profile{}, err
	}
	s.log.Info("profile created", "name", p.Name, "id", p.ID)
	return p.clone(), nil
}

// Rename changes a profile's name.
func (s *Store) Rename(ref, name string) error {
	return s.mutate(ref, func(p *Profile) error {
		n, err := s.checkName(name, p.ID)
		if err != nil {
			return err
		}
		p.Name = n
		return nil
	})
}

// Update replaces a profile's rules.
func (s *Store) Update(ref string, rules clnbrd.RuleSet) error {
	return s.mutate(ref, func(p *Profile) error {
		p.Rules = rules.Clone()
		return nil
	})
}

// Edit applies fn to a copy of a profile's rules and stores the result.
func (s *Store) Edit(ref string, fn func(*clnbrd.RuleSet) error) error {
	return s.mutate(ref, func(p *Profile) error {
		rules := p.Rules.Clone()
		if err := fn(&rules); err != nil {
			return err
		}
		p.Rules = rules
		return nil
	})
}

// SetActive makes ref the active profile.
func (s *Store) SetActive(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.resolve(ref)
	if err != nil {
		return err
	}
	prev := s.doc.Active
	s.doc.Active = s.doc.Profiles[i].ID
	if err := s.save(); err != nil {
		s.doc.Active = prev
		return err
	}
	s.log.Info("active profile changed", "name", s.doc.Profiles[i].Name)
	return nil
}

// Delete removes a profile. The last profile cannot be deleted; deleting the
// active profile activates the first remaining one.
func (s *Store) Delete(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if len(s.doc.Profiles) == 1 {
		return ErrLastProfile
	}

	prev := s.doc
	removed := s.doc.Profiles[i]
	s.doc.Profiles = append(append([]Profile(nil), s.doc.Profiles[:i]...), s.doc.Profiles[i+1:]...)
	if s.doc.Active == removed.ID {
		s.doc.Active = s.doc.Profiles[0].ID
	}
	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	s.log.Info("profile deleted", "name", removed.Name)
	return nil
}

func (s *Store) mutate(ref string, fn func(*Profile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.resolve(ref)
	if err != nil {
		return err
	}
	orig := s.doc.Profiles[i]
	p := orig.clone()
	if err := fn(&p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	s.doc.Profiles[i] = p
	if err := s.save(); err != nil {
		s.doc.Profiles[i] = orig
		return err
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, p := range s.doc.Profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) resolve(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	if i := s.indexOf(ref); i >= 0 {
		return i, nil
	}
	for i, p := range s.doc.Profiles {
		if strings.EqualFold(p.Name, ref) {
			return i, nil
		}
	}
	match := -1
	for i, p := range s.doc.Profiles {
		if strings.HasPrefix(p.ID, ref) {
			if match >= 0 {
				return -1, fmt.Errorf("%w: %q matches more than one id", ErrNotFound, ref)
			}
			match = i
		}
	}
	if match < 0 {
		return -1, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return match, nil
}

func (s *Store) checkName(name, selfID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	for _, p := range s.doc.Profiles {
		if p.ID != selfID && strings.EqualFold(p.Name, name) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}
	return name, nil
}

// save writes the document atomically: a temp file in the same directory
// renamed over the target.
func (s *Store) save() error {
	data, err := yaml.Marshal(&s.doc)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".profiles-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp profiles file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close profiles: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace profiles: %w", err)
	}
	return nil
}
