// Package cleaner provides interfaces and implementations for cleaning text.
// Cleaners are small, total transformations that can be composed into a chain.
package cleaner

// Cleaner transforms text into a cleaner form.
// Implementations must be total: any input, including invalid UTF-8,
// produces an output and never an error.
type Cleaner interface {
	// Clean transforms the input text.
	Clean(text string) string

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Func adapts an ordinary function to the Cleaner interface.
type Func struct {
	name string
	fn   func(string) string
}

// NewFunc wraps fn as a named Cleaner.
func NewFunc(name string, fn func(string) string) *Func {
	return &Func{name: name, fn: fn}
}

// Clean applies the wrapped function.
func (f *Func) Clean(text string) string {
	if f.fn == nil {
		return text
	}
	return f.fn(text)
}

// Name returns the name given to NewFunc.
func (f *Func) Name() string {
	return f.name
}
