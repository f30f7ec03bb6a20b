package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

func TestApplyOverrides(t *testing.T) {
	base := clnbrd.DefaultRuleSet()

	tests := []struct {
		name      string
		overrides []string
		check     func(clnbrd.RuleSet) bool
		wantErr   bool
	}{
		{
			name:  "none",
			check: func(r clnbrd.RuleSet) bool { return r.ConvertSmartQuotes == base.ConvertSmartQuotes },
		},
		{
			name:      "bool",
			overrides: []string{"convert_smart_quotes=false"},
			check:     func(r clnbrd.RuleSet) bool { return !r.ConvertSmartQuotes },
		},
		{
			name:      "text keeps equals signs",
			overrides: []string{"emdash_replacement= = "},
			check:     func(r clnbrd.RuleSet) bool { return r.EmdashReplacement == " = " },
		},
		{name: "missing value", overrides: []string{"remove_emojis"}, wantErr: true},
		{name: "unknown field", overrides: []string{"nope=true"}, wantErr: true},
		{name: "bad bool", overrides: []string{"remove_emojis=maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyOverrides(base, tt.overrides)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyOverrides() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !tt.check(got) {
				t.Errorf("applyOverrides() = %+v", got)
			}
		})
	}

	if _, err := applyOverrides(base, []string{"convert_smart_quotes=false"}); err != nil {
		t.Fatal(err)
	}
	if !base.ConvertSmartQuotes {
		t.Error("applyOverrides() modified its input")
	}
}

func TestReadInput(t *testing.T) {
	got, err := readInput(strings.NewReader("from stdin"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "from stdin" {
		t.Errorf("readInput() = %q", got)
	}

	if _, err := readInput(nil, []string{"/nonexistent/clnbrd-input"}); err == nil {
		t.Error("readInput() with missing file should fail")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestCompareAll(t *testing.T) {
	input := "\u201Chello\u201D    world\u200B"

	var buf bytes.Buffer
	if err := compareAll(&buf, output.FormatJSON, input, clnbrd.DefaultRuleSet()); err != nil {
		t.Fatal(err)
	}

	var rows []presetComparison
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if want := 1 + len(clnbrd.PresetNames()); len(rows) != want {
		t.Fatalf("got %d rows, want %d", len(rows), want)
	}
	if rows[0].Name != "current" {
		t.Errorf("first row = %q, want current", rows[0].Name)
	}
	for _, r := range rows {
		if r.InputBytes != len(input) {
			t.Errorf("%s: input bytes = %d, want %d", r.Name, r.InputBytes, len(input))
		}
	}

	buf.Reset()
	if err := compareAll(&buf, output.FormatText, input, clnbrd.DefaultRuleSet()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "REDUCTION") {
		t.Errorf("text output missing header:\n%s", buf.String())
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID() = %q", got)
	}
}
