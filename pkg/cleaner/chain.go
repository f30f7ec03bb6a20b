package cleaner

import (
	"strings"
)

// Observer is called by ChainCleaner after each stage with the stage's
// input and output.
type Observer func(name, in, out string)

// ChainCleaner applies multiple cleaners in sequence.
// Each cleaner sees the output of the one before it.
type ChainCleaner struct {
	cleaners []Cleaner
}

// NewChain creates a new cleaner that applies multiple cleaners in sequence.
// Cleaners are applied in the order provided.
//
// Example:
//
//	chain := cleaner.NewChain(
//	    cleaner.NewFunc("upper", strings.ToUpper),
//	    cleaner.NewNoop(),
//	)
func NewChain(cleaners ...Cleaner) *ChainCleaner {
	return &ChainCleaner{
		cleaners: cleaners,
	}
}

// Clean applies all cleaners in sequence.
func (c *ChainCleaner) Clean(content string) string {
	return c.CleanObserved(content, nil)
}

// CleanObserved applies all cleaners in sequence, reporting every stage to observe.
// A nil observer is allowed.
func (c *ChainCleaner) CleanObserved(content string, observe Observer) string {
	for _, cleaner := range c.cleaners {
		out := cleaner.Clean(content)
		if observe != nil {
			observe(cleaner.Name(), content, out)
		}
		content = out
	}
	return content
}

// Len returns the number of chained cleaners.
func (c *ChainCleaner) Len() int {
	return len(c.cleaners)
}

// Name returns the names of all chained cleaners.
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.cleaners))
	for i, cleaner := range c.cleaners {
		names[i] = cleaner.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
