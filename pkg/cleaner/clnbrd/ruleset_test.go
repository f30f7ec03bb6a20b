package clnbrd

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultRuleSet(t *testing.T) {
	rs := DefaultRuleSet()

	if rs.RemoveEmojis {
		t.Error("RemoveEmojis should be off by default")
	}
	if !rs.RemoveZeroWidthChars || !rs.RemoveEmdashes || !rs.ConvertSmartQuotes {
		t.Error("character passes should be on by default")
	}
	if !rs.NormalizeSpaces || !rs.NormalizeLineBreaks || !rs.RemoveTrailingSpaces {
		t.Error("whitespace passes should be on by default")
	}
	if rs.EmdashReplacement != ", " {
		t.Errorf("EmdashReplacement = %q, want %q", rs.EmdashReplacement, ", ")
	}
	if rs.RemoveURLs || rs.RemoveHTMLTags || rs.RemoveExtraPunctuation {
		t.Error("destructive passes should be off by default")
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			if _, ok := Preset(name); !ok {
				t.Errorf("Preset(%q) not found", name)
			}
		})
	}

	if _, ok := Preset("nonexistent"); ok {
		t.Error("Preset(nonexistent) should not be found")
	}

	agg := PresetAggressive()
	if !agg.RemoveEmojis || !agg.RemoveHTMLTags {
		t.Error("aggressive preset should enable every pass")
	}

	minimal := PresetMinimal()
	if minimal.ConvertSmartQuotes || minimal.NormalizeSpaces {
		t.Error("minimal preset should leave typography alone")
	}
}

func TestRuleSet_Clone(t *testing.T) {
	rs := DefaultRuleSet()
	rs.AddRule("a", "b")

	clone := rs.Clone()
	clone.CustomRules[0].Replace = "changed"
	clone.AddRule("c", "d")

	if rs.CustomRules[0].Replace != "b" {
		t.Errorf("original rule modified: %+v", rs.CustomRules[0])
	}
	if len(rs.CustomRules) != 1 {
		t.Errorf("original has %d rules, want 1", len(rs.CustomRules))
	}
}

func TestRuleSet_RemoveRule(t *testing.T) {
	rs := RuleSet{}
	rs.AddRule("a", "1")
	rs.AddRule("b", "2")
	rs.AddRule("c", "3")
	keep := rs.Clone()

	if !rs.RemoveRule(1) {
		t.Fatal("RemoveRule(1) = false")
	}
	if len(rs.CustomRules) != 2 || rs.CustomRules[1].Find != "c" {
		t.Errorf("rules after removal = %+v", rs.CustomRules)
	}
	if keep.CustomRules[1].Find != "b" {
		t.Errorf("clone affected by removal: %+v", keep.CustomRules)
	}
	if rs.RemoveRule(5) || rs.RemoveRule(-1) {
		t.Error("RemoveRule out of range should return false")
	}
}

func TestRuleSet_Enabled(t *testing.T) {
	rs := RuleSet{NormalizeSpaces: true, RemoveEmojis: true}
	rs.AddRule("x", "y")

	got := rs.Enabled()
	want := []string{"emoji", "custom_rules", "spaces"}
	if len(got) != len(want) {
		t.Fatalf("Enabled() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Enabled()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRuleSet_Serialization(t *testing.T) {
	rs := DefaultRuleSet()
	rs.AddRule("foo", "bar")

	data, err := json.Marshal(rs)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"remove_emojis", "emdash_replacement", "custom_rules", "clean_url_tracking"} {
		if _, ok := m[key]; !ok {
			t.Errorf("json missing key %q", key)
		}
	}

	out, err := yaml.Marshal(rs)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	var back RuleSet
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if back.EmdashReplacement != ", " || len(back.CustomRules) != 1 || back.CustomRules[0].Find != "foo" {
		t.Errorf("yaml round trip = %+v", back)
	}
}
