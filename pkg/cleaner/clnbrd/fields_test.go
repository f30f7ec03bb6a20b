package clnbrd

import "testing"

func TestParseField(t *testing.T) {
	for _, f := range Fields() {
		got, err := ParseField(string(f))
		if err != nil {
			t.Errorf("ParseField(%q) error = %v", f, err)
		}
		if got != f {
			t.Errorf("ParseField(%q) = %q", f, got)
		}
	}

	if _, err := ParseField("remove_everything"); err == nil {
		t.Error("ParseField(unknown) should fail")
	}
}

func TestRuleSet_SetGet(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		value   string
		want    string
		wantErr bool
	}{
		{"enable emojis", FieldRemoveEmojis, "true", "true", false},
		{"disable spaces", FieldNormalizeSpaces, "false", "false", false},
		{"short bool", FieldRemoveHTMLTags, "1", "true", false},
		{"replacement", FieldEmdashReplacement, " - ", " - ", false},
		{"empty replacement", FieldEmdashReplacement, "", "", false},
		{"bad bool", FieldRemoveURLs, "maybe", "false", true},
		{"unknown field", Field("nope"), "true", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := RuleSet{}
			err := rs.Set(tt.field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := rs.Get(tt.field); got != tt.want {
				t.Errorf("Get() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFields_CoverEveryToggle(t *testing.T) {
	rs := RuleSet{}
	for _, f := range Fields() {
		if f.IsBool() {
			if err := rs.Set(f, "true"); err != nil {
				t.Fatalf("Set(%s) error = %v", f, err)
			}
		}
	}

	want := PresetAggressive()
	if rs.RemoveEmojis != want.RemoveEmojis || rs.TrimLineWhitespace != want.TrimLineWhitespace ||
		rs.CleanURLTracking != want.CleanURLTracking || rs.RemoveExtraLineBreaks != want.RemoveExtraLineBreaks {
		t.Errorf("setting every toggle = %+v, want all enabled", rs)
	}

	if len(rs.Enabled()) != len(passes)-1 {
		t.Errorf("Enabled() = %v, want every pass except custom_rules", rs.Enabled())
	}

	fields := Fields()
	fields[0] = "mutated"
	if Fields()[0] == "mutated" {
		t.Error("Fields() exposes internal slice")
	}
}
