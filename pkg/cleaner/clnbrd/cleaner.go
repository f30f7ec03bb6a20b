package clnbrd

import (
	"time"
	"unicode/utf8"

	"github.com/oliveoi1/clnbrd/pkg/cleaner"
)

// Clean runs every pass enabled by rules over text and returns the result.
// It never mutates rules and never fails.
//
// Removing a scalar that sits between invalid UTF-8 fragments can join them
// into a new valid scalar. When a round does that, the pipeline runs again so
// the result is stable; every extra round consumes at least two invalid bytes.
func Clean(text string, rules RuleSet) string {
	invalid := invalidBytes(text)
	for {
		out := cleanOnce(text, rules)
		if invalid == 0 || out == text {
			return out
		}
		n := invalidBytes(out)
		if n >= invalid {
			return out
		}
		text, invalid = out, n
	}
}

func cleanOnce(text string, rules RuleSet) string {
	for _, p := range passes {
		if p.enabled(rules) {
			text = p.apply(text, rules, nil)
		}
	}
	return text
}

// invalidBytes counts bytes that do not belong to a valid UTF-8 sequence.
func invalidBytes(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			n++
		}
		i += size
	}
	return n
}

// Cleaner is a configured pipeline. It implements the cleaner.Cleaner interface.
type Cleaner struct {
	rules RuleSet
}

var _ cleaner.Cleaner = (*Cleaner)(nil)

// New creates a Cleaner that owns a copy of rules.
func New(rules RuleSet) *Cleaner {
	return &Cleaner{rules: rules.Clone()}
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "clnbrd"
}

// Rules returns a copy of the configured rules.
func (c *Cleaner) Rules() RuleSet {
	return c.rules.Clone()
}

// Clean implements cleaner.Cleaner.
func (c *Cleaner) Clean(text string) string {
	return Clean(text, c.rules)
}

// Chain exposes the enabled passes as individual cleaners, in order. A rule
// set with every pass off yields a single no-op stage.
func (c *Cleaner) Chain() *cleaner.ChainCleaner {
	var stages []cleaner.Cleaner
	for _, p := range passes {
		if !p.enabled(c.rules) {
			continue
		}
		rules := c.rules
		stages = append(stages, cleaner.NewFunc(p.name, func(s string) string {
			return p.apply(s, rules, nil)
		}))
	}
	if len(stages) == 0 {
		stages = append(stages, cleaner.NewNoop())
	}
	return cleaner.NewChain(stages...)
}

// CleanWithStats performs cleaning and returns per-pass metrics. Content
// always equals Clean's output; extra rounds forced by joined invalid UTF-8
// fragments append their passes and a warning.
func (c *Cleaner) CleanWithStats(text string) *Result {
	start := time.Now()
	result := &Result{Stats: NewStats()}
	result.Stats.InputBytes = len(text)
	result.Stats.InputChars = countChars(text)

	invalid := invalidBytes(text)
	for {
		out := c.cleanRound(text, result)
		if invalid == 0 || out == text {
			text = out
			break
		}
		n := invalidBytes(out)
		text = out
		if n >= invalid {
			break
		}
		result.AddWarning("pipeline", "invalid UTF-8 fragments joined into new characters, cleaning again", "")
		invalid = n
	}

	result.Content = text
	result.Stats.OutputBytes = len(text)
	result.Stats.OutputChars = countChars(text)
	result.Stats.TotalDuration = time.Since(start)
	return result
}

func (c *Cleaner) cleanRound(text string, result *Result) string {
	for _, p := range passes {
		if !p.enabled(c.rules) {
			continue
		}
		passStart := time.Now()
		out := p.apply(text, c.rules, func(message, context string) {
			result.AddWarning(p.name, message, context)
		})
		result.Stats.Passes = append(result.Stats.Passes, PassStat{
			Name:        p.name,
			Changed:     out != text,
			InputBytes:  len(text),
			OutputBytes: len(out),
			Duration:    time.Since(passStart),
		})
		text = out
	}
	return text
}
