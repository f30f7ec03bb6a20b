package cleaner

// NoopCleaner passes content through without modification.
// Use this when a rule set disables every pass, or as a placeholder in a chain.
type NoopCleaner struct{}

// NewNoop creates a new no-op cleaner.
func NewNoop() *NoopCleaner {
	return &NoopCleaner{}
}

// Clean returns the input unchanged.
func (c *NoopCleaner) Clean(text string) string {
	return text
}

// Name returns the cleaner type.
func (c *NoopCleaner) Name() string {
	return "noop"
}
