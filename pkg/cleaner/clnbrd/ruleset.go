// Package clnbrd implements the clipboard text-cleaning pipeline.
// A RuleSet selects which ordered passes run; Clean is pure and total.
package clnbrd

// DefaultEmdashReplacement is what em and en dashes become unless configured otherwise.
const DefaultEmdashReplacement = ", "

// CustomRule is a literal find/replace pair applied in configured order.
type CustomRule struct {
	Find    string `json:"find" yaml:"find" mapstructure:"find"`
	Replace string `json:"replace" yaml:"replace" mapstructure:"replace"`
}

// RuleSet defines every toggle of the cleaning pipeline.
type RuleSet struct {
	// === Character removal ===

	// RemoveEmojis strips emoji graphemes, including ZWJ and keycap sequences.
	RemoveEmojis bool `json:"remove_emojis" yaml:"remove_emojis" mapstructure:"remove_emojis"`

	// RemoveZeroWidthChars strips zero-width and other invisible watermark characters.
	RemoveZeroWidthChars bool `json:"remove_zero_width_chars" yaml:"remove_zero_width_chars" mapstructure:"remove_zero_width_chars"`

	// === Typography ===

	// RemoveEmdashes replaces em and en dashes with EmdashReplacement.
	RemoveEmdashes bool `json:"remove_emdashes" yaml:"remove_emdashes" mapstructure:"remove_emdashes"`

	// EmdashReplacement is the text substituted for each dash.
	EmdashReplacement string `json:"emdash_replacement" yaml:"emdash_replacement" mapstructure:"emdash_replacement"`

	// ConvertSmartQuotes turns curly quotes into ASCII quotes.
	ConvertSmartQuotes bool `json:"convert_smart_quotes" yaml:"convert_smart_quotes" mapstructure:"convert_smart_quotes"`

	// RemoveExtraPunctuation collapses runs like "!!!" or ",,".
	RemoveExtraPunctuation bool `json:"remove_extra_punctuation" yaml:"remove_extra_punctuation" mapstructure:"remove_extra_punctuation"`

	// === Whitespace ===

	// NormalizeSpaces collapses runs of spaces into one.
	NormalizeSpaces bool `json:"normalize_spaces" yaml:"normalize_spaces" mapstructure:"normalize_spaces"`

	// NormalizeLineBreaks converts CRLF and CR to LF.
	NormalizeLineBreaks bool `json:"normalize_line_breaks" yaml:"normalize_line_breaks" mapstructure:"normalize_line_breaks"`

	// RemoveTrailingSpaces drops spaces before line breaks.
	RemoveTrailingSpaces bool `json:"remove_trailing_spaces" yaml:"remove_trailing_spaces" mapstructure:"remove_trailing_spaces"`

	// TrimLineWhitespace trims spaces, tabs and other separators at both ends of each line.
	TrimLineWhitespace bool `json:"trim_line_whitespace" yaml:"trim_line_whitespace" mapstructure:"trim_line_whitespace"`

	// RemoveExtraLineBreaks limits blank lines to one.
	RemoveExtraLineBreaks bool `json:"remove_extra_line_breaks" yaml:"remove_extra_line_breaks" mapstructure:"remove_extra_line_breaks"`

	// === Markup and links ===

	// CleanURLTracking removes tracking parameters from URLs in the text.
	CleanURLTracking bool `json:"clean_url_tracking" yaml:"clean_url_tracking" mapstructure:"clean_url_tracking"`

	// RemoveURLs deletes URLs entirely.
	RemoveURLs bool `json:"remove_urls" yaml:"remove_urls" mapstructure:"remove_urls"`

	// RemoveHTMLTags deletes anything that looks like an HTML tag or entity.
	RemoveHTMLTags bool `json:"remove_html_tags" yaml:"remove_html_tags" mapstructure:"remove_html_tags"`

	// === User rules ===

	// CustomRules are applied in order, each on the previous rule's output.
	CustomRules []CustomRule `json:"custom_rules" yaml:"custom_rules" mapstructure:"custom_rules"`
}

// DefaultRuleSet returns the rules a fresh install starts with.
// Everything is on except emoji removal and the destructive markup/link passes.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		RemoveEmojis:          false,
		RemoveZeroWidthChars:  true,
		RemoveEmdashes:        true,
		EmdashReplacement:     DefaultEmdashReplacement,
		ConvertSmartQuotes:    true,
		NormalizeSpaces:       true,
		NormalizeLineBreaks:   true,
		RemoveTrailingSpaces:  true,
		TrimLineWhitespace:    true,
		RemoveExtraLineBreaks: true,
		CleanURLTracking:      true,
	}
}

// PresetMinimal only removes invisible characters and normalizes line endings.
// Use when the text should otherwise stay exactly as copied.
func PresetMinimal() RuleSet {
	return RuleSet{
		RemoveZeroWidthChars: true,
		NormalizeLineBreaks:  true,
		RemoveTrailingSpaces: true,
		EmdashReplacement:    DefaultEmdashReplacement,
	}
}

// PresetAggressive enables every pass, emoji removal included.
func PresetAggressive() RuleSet {
	rs := DefaultRuleSet()
	rs.RemoveEmojis = true
	rs.RemoveExtraPunctuation = true
	rs.RemoveURLs = true
	rs.RemoveHTMLTags = true
	return rs
}

// Preset returns a built-in rule set by name.
func Preset(name string) (RuleSet, bool) {
	switch name {
	case "", "default":
		return DefaultRuleSet(), true
	case "minimal":
		return PresetMinimal(), true
	case "aggressive":
		return PresetAggressive(), true
	}
	return RuleSet{}, false
}

// PresetNames lists the names accepted by Preset.
func PresetNames() []string {
	return []string{"default", "minimal", "aggressive"}
}

// Clone returns a deep copy of the rule set.
func (r RuleSet) Clone() RuleSet {
	out := r
	if r.CustomRules != nil {
		out.CustomRules = make([]CustomRule, len(r.CustomRules))
		copy(out.CustomRules, r.CustomRules)
	}
	return out
}

// AddRule appends a custom rule. Rules with an empty find string are accepted
// but never applied.
func (r *RuleSet) AddRule(find, replace string) {
	r.CustomRules = append(r.CustomRules, CustomRule{Find: find, Replace: replace})
}

// RemoveRule deletes the custom rule at index i.
func (r *RuleSet) RemoveRule(i int) bool {
	if i < 0 || i >= len(r.CustomRules) {
		return false
	}
	r.CustomRules = append(r.CustomRules[:i:i], r.CustomRules[i+1:]...)
	return true
}

// Enabled returns the names of the passes this rule set turns on, in pipeline order.
func (r RuleSet) Enabled() []string {
	var names []string
	for _, p := range passes {
		if p.enabled(r) {
			names = append(names, p.name)
		}
	}
	return names
}
