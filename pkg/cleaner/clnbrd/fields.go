package clnbrd

import (
	"fmt"
	"strconv"
)

// Field names a single scalar setting of a RuleSet.
type Field string

const (
	FieldRemoveEmojis           Field = "remove_emojis"
	FieldRemoveZeroWidthChars   Field = "remove_zero_width_chars"
	FieldRemoveEmdashes         Field = "remove_emdashes"
	FieldEmdashReplacement      Field = "emdash_replacement"
	FieldConvertSmartQuotes     Field = "convert_smart_quotes"
	FieldRemoveExtraPunctuation Field = "remove_extra_punctuation"
	FieldNormalizeSpaces        Field = "normalize_spaces"
	FieldNormalizeLineBreaks    Field = "normalize_line_breaks"
	FieldRemoveTrailingSpaces   Field = "remove_trailing_spaces"
	FieldTrimLineWhitespace     Field = "trim_line_whitespace"
	FieldRemoveExtraLineBreaks  Field = "remove_extra_line_breaks"
	FieldCleanURLTracking       Field = "clean_url_tracking"
	FieldRemoveURLs             Field = "remove_urls"
	FieldRemoveHTMLTags         Field = "remove_html_tags"
)

var fieldOrder = []Field{
	FieldRemoveEmojis,
	FieldRemoveZeroWidthChars,
	FieldRemoveEmdashes,
	FieldEmdashReplacement,
	FieldConvertSmartQuotes,
	FieldRemoveExtraPunctuation,
	FieldNormalizeSpaces,
	FieldNormalizeLineBreaks,
	FieldRemoveTrailingSpaces,
	FieldTrimLineWhitespace,
	FieldRemoveExtraLineBreaks,
	FieldCleanURLTracking,
	FieldRemoveURLs,
	FieldRemoveHTMLTags,
}

// Fields returns every settable field in display order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// ParseField converts a field name into a Field.
func ParseField(s string) (Field, error) {
	for _, f := range fieldOrder {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown rule field %q", s)
}

// IsBool reports whether the field holds a toggle rather than text.
func (f Field) IsBool() bool {
	return f != FieldEmdashReplacement
}

func (r *RuleSet) boolField(f Field) *bool {
	switch f {
	case FieldRemoveEmojis:
		return &r.RemoveEmojis
	case FieldRemoveZeroWidthChars:
		return &r.RemoveZeroWidthChars
	case FieldRemoveEmdashes:
		return &r.RemoveEmdashes
	case FieldConvertSmartQuotes:
		return &r.ConvertSmartQuotes
	case FieldRemoveExtraPunctuation:
		return &r.RemoveExtraPunctuation
	case FieldNormalizeSpaces:
		return &r.NormalizeSpaces
	case FieldNormalizeLineBreaks:
		return &r.NormalizeLineBreaks
	case FieldRemoveTrailingSpaces:
		return &r.RemoveTrailingSpaces
	case FieldTrimLineWhitespace:
		return &r.TrimLineWhitespace
	case FieldRemoveExtraLineBreaks:
		return &r.RemoveExtraLineBreaks
	case FieldCleanURLTracking:
		return &r.CleanURLTracking
	case FieldRemoveURLs:
		return &r.RemoveURLs
	case FieldRemoveHTMLTags:
		return &r.RemoveHTMLTags
	}
	return nil
}

// Set assigns a field from its string form. Toggles accept anything strconv.ParseBool does.
func (r *RuleSet) Set(f Field, value string) error {
	if f == FieldEmdashReplacement {
		r.EmdashReplacement = value
		return nil
	}
	p := r.boolField(f)
	if p == nil {
		return fmt.Errorf("unknown rule field %q", f)
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", f, err)
	}
	*p = b
	return nil
}

// Get returns the string form of a field, or "" for an unknown field.
func (r RuleSet) Get(f Field) string {
	if f == FieldEmdashReplacement {
		return r.EmdashReplacement
	}
	p := r.boolField(f)
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}
