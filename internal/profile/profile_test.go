package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clnbrd", "profiles.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, path
}

func TestOpenCreatesDefault(t *testing.T) {
	s, path := openStore(t)

	list := s.List()
	if len(list) != 1 || list[0].Name != DefaultName {
		t.Fatalf("List() = %+v", list)
	}
	if s.Active().ID != list[0].ID {
		t.Error("default profile is not active")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("profiles file not written: %v", err)
	}
	if got, want := s.ActiveRules().Enabled(), clnbrd.DefaultRuleSet().Enabled(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ActiveRules() = %v, want defaults %v", got, want)
	}
}

func TestPersistence(t *testing.T) {
	s, path := openStore(t)
	work, err := s.Create("Work", "aggressive")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetActive("work"); err != nil {
		t.Fatal(err)
	}
	if err := s.Edit(work.ID, func(r *clnbrd.RuleSet) error {
		r.AddRule("foo", "bar")
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	active := reopened.Active()
	if active.Name != "Work" || !active.Rules.RemoveURLs {
		t.Errorf("reopened active = %+v", active)
	}
	if len(active.Rules.CustomRules) != 1 || active.Rules.CustomRules[0].Find != "foo" {
		t.Errorf("custom rules not persisted: %+v", active.Rules.CustomRules)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".profiles-*"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestCreate(t *testing.T) {
	s, _ := openStore(t)
	s.Edit(DefaultName, func(r *clnbrd.RuleSet) error {
		r.RemoveEmojis = true
		return nil
	})

	tests := []struct {
		name    string
		base    string
		check   func(clnbrd.RuleSet) bool
		wantErr error
	}{
		{name: "Copy", base: "", check: func(r clnbrd.RuleSet) bool { return r.RemoveEmojis }},
		{name: "FromProfile", base: "default", check: func(r clnbrd.RuleSet) bool { return r.RemoveEmojis }},
		{name: "Minimal", base: "minimal", check: func(r clnbrd.RuleSet) bool { return !r.ConvertSmartQuotes }},
		{name: "Bad", base: "nope", wantErr: ErrNotFound},
		{name: "default", base: "", wantErr: ErrDuplicateName},
		{name: "  ", base: "", wantErr: ErrEmptyName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.Create(tt.name, tt.base)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(p.Rules) {
				t.Errorf("Create(%q, %q) rules = %+v", tt.name, tt.base, p.Rules)
			}
		})
	}
}

func TestReturnsCopies(t *testing.T) {
	s, _ := openStore(t)
	s.Edit(DefaultName, func(r *clnbrd.RuleSet) error {
		r.AddRule("a", "b")
		return nil
	})

	p := s.Active()
	p.Rules.CustomRules[0].Find = "mutated"
	p.Rules.RemoveEmojis = true

	again := s.Active()
	if again.Rules.CustomRules[0].Find != "a" || again.Rules.RemoveEmojis {
		t.Error("caller mutation leaked into the store")
	}
}

func TestEditErrorKeepsRules(t *testing.T) {
	s, _ := openStore(t)
	boom := errors.New("boom")
	err := s.Edit(DefaultName, func(r *clnbrd.RuleSet) error {
		r.RemoveURLs = true
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Edit() error = %v", err)
	}
	if s.Active().Rules.RemoveURLs {
		t.Error("failed edit was applied")
	}
}

func TestDelete(t *testing.T) {
	s, _ := openStore(t)

	if err := s.Delete(DefaultName); !errors.Is(err, ErrLastProfile) {
		t.Fatalf("deleting last profile: error = %v", err)
	}

	work, _ := s.Create("Work", "")
	s.SetActive(work.ID)
	if err := s.Delete(work.ID); err != nil {
		t.Fatal(err)
	}
	if s.Active().Name != DefaultName {
		t.Errorf("active after delete = %s, want %s", s.Active().Name, DefaultName)
	}
	if _, err := s.Find("Work"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(deleted) error = %v", err)
	}
}

func TestRenameAndFind(t *testing.T) {
	s, _ := openStore(t)
	work, _ := s.Create("Work", "")

	if err := s.Rename("work", "Office"); err != nil {
		t.Fatal(err)
	}
	if err := s.Rename("office", "OFFICE"); err != nil {
		t.Errorf("renaming to a different case of its own name: %v", err)
	}
	if err := s.Rename("office", DefaultName); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Rename() to existing name error = %v", err)
	}

	for _, ref := range []string{work.ID, work.ID[:8], "office"} {
		p, err := s.Find(ref)
		if err != nil || p.ID != work.ID {
			t.Errorf("Find(%q) = %+v, %v", ref, p, err)
		}
	}
	if _, err := s.Find(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(\"\") error = %v", err)
	}
}

func TestOpenRepairsActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	doc := `active: missing
profiles:
  - id: 11111111-1111-1111-1111-111111111111
    name: Only
    rules:
      normalize_spaces: true
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if a := s.Active(); a.Name != "Only" || !a.Rules.NormalizeSpaces {
		t.Errorf("Active() = %+v", a)
	}
}

func TestOpenInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	os.WriteFile(path, []byte("profiles: [unclosed"), 0o600)
	if _, err := Open(path); err == nil {
		t.Error("Open() accepted invalid YAML")
	}
}
