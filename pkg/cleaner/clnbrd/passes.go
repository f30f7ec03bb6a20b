package clnbrd

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oliveoi1/clnbrd/pkg/urlclean"
)

// pass is one ordered stage of the pipeline. Each pass reads only its own flags.
type pass struct {
	name    string
	enabled func(RuleSet) bool
	apply   func(text string, rules RuleSet, warn func(message, context string)) string
}

// passes run in this order. Reordering changes output.
var passes = []pass{
	{
		name:    "emoji",
		enabled: func(r RuleSet) bool { return r.RemoveEmojis },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return stripEmoji(s) },
	},
	{
		name:    "custom_rules",
		enabled: func(r RuleSet) bool { return len(r.CustomRules) > 0 },
		apply:   applyCustomRules,
	},
	{
		name:    "zero_width",
		enabled: func(r RuleSet) bool { return r.RemoveZeroWidthChars },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return removeRunes(s, IsInvisible) },
	},
	{
		name:    "html_tags",
		enabled: func(r RuleSet) bool { return r.RemoveHTMLTags },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return removeHTMLTags(s) },
	},
	{
		name:    "url_tracking",
		enabled: func(r RuleSet) bool { return r.CleanURLTracking },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return urlclean.CleanText(s) },
	},
	{
		name:    "url_removal",
		enabled: func(r RuleSet) bool { return r.RemoveURLs },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return urlPattern.ReplaceAllString(s, "") },
	},
	{
		name:    "dashes",
		enabled: func(r RuleSet) bool { return r.RemoveEmdashes },
		apply: func(s string, r RuleSet, _ func(string, string)) string {
			s = strings.ReplaceAll(s, "\u2014", r.EmdashReplacement)
			return strings.ReplaceAll(s, "\u2013", r.EmdashReplacement)
		},
	},
	{
		name:    "smart_quotes",
		enabled: func(r RuleSet) bool { return r.ConvertSmartQuotes },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return quoteReplacer.Replace(s) },
	},
	{
		name:    "extra_punctuation",
		enabled: func(r RuleSet) bool { return r.RemoveExtraPunctuation },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return collapsePunctuation(s) },
	},
	{
		name:    "spaces",
		enabled: func(r RuleSet) bool { return r.NormalizeSpaces },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return multiSpace.ReplaceAllString(s, " ") },
	},
	{
		name:    "line_breaks",
		enabled: func(r RuleSet) bool { return r.NormalizeLineBreaks },
		apply: func(s string, _ RuleSet, _ func(string, string)) string {
			s = strings.ReplaceAll(s, "\r\n", "\n")
			return strings.ReplaceAll(s, "\r", "\n")
		},
	},
	{
		name:    "trailing_spaces",
		enabled: func(r RuleSet) bool { return r.RemoveTrailingSpaces },
		apply: func(s string, _ RuleSet, _ func(string, string)) string {
			return trailingSpace.ReplaceAllString(s, "${1}")
		},
	},
	{
		name:    "trim_lines",
		enabled: func(r RuleSet) bool { return r.TrimLineWhitespace },
		apply:   func(s string, _ RuleSet, _ func(string, string)) string { return trimLines(s) },
	},
	{
		name:    "extra_line_breaks",
		enabled: func(r RuleSet) bool { return r.RemoveExtraLineBreaks },
		apply: func(s string, _ RuleSet, _ func(string, string)) string {
			return blankLines.ReplaceAllString(s, "\n\n")
		},
	},
}

var (
	urlPattern    = regexp.MustCompile(`(?:https?://|ftp://|www\.)\S+`)
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
	htmlEntity    = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	multiSpace    = regexp.MustCompile(` {2,}`)
	trailingSpace = regexp.MustCompile(` +([\r\n])`)
	blankLines    = regexp.MustCompile(`\n{3,}`)

	repeatedStops  = regexp.MustCompile(`([.!?]){2,}`)
	repeatedPauses = regexp.MustCompile(`([,;:]){2,}`)
	longHyphens    = regexp.MustCompile(`-{3,}`)

	quoteReplacer = strings.NewReplacer(
		"\u201C", `"`,
		"\u201D", `"`,
		"\u2018", "'",
		"\u2019", "'",
	)
)

func applyCustomRules(s string, r RuleSet, warn func(message, context string)) string {
	for i, rule := range r.CustomRules {
		if rule.Find == "" {
			if warn != nil {
				warn("custom rule with empty find skipped", "rule "+strconv.Itoa(i))
			}
			continue
		}
		s = strings.ReplaceAll(s, rule.Find, rule.Replace)
	}
	return s
}

// IsInvisible reports characters removed by the zero-width pass.
func IsInvisible(r rune) bool {
	switch {
	case r == '\u200B', r == '\u200C', r == '\u200D', r == '\uFEFF':
		return true
	case r >= '\u2060' && r <= '\u2064':
		return true
	case r >= '\uFE00' && r <= '\uFE0F':
		return true
	case r == '\u180E', r == '\u034F', r == '\u00AD':
		return true
	}
	return false
}

// removeRunes drops every scalar matching drop. Invalid UTF-8 bytes are kept as-is,
// which strings.Map would not do.
func removeRunes(s string, drop func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if (r != utf8.RuneError || size != 1) && drop(r) {
			i += size
			continue
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

func removeHTMLTags(s string) string {
	for {
		out := htmlTag.ReplaceAllString(s, "")
		out = htmlEntity.ReplaceAllString(out, "")
		if out == s {
			return out
		}
		s = out
	}
}

func collapsePunctuation(s string) string {
	s = repeatedStops.ReplaceAllString(s, "${1}")
	s = repeatedPauses.ReplaceAllString(s, "${1}")
	return longHyphens.ReplaceAllString(s, "---")
}

func isLineSpace(r rune) bool {
	return r == ' ' || r == '\t' || unicode.Is(unicode.Zs, r)
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimFunc(line, isLineSpace)
	}
	return strings.Join(lines, "\n")
}
