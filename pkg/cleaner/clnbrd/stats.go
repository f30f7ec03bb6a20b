package clnbrd

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// PassStat records what a single pass did.
type PassStat struct {
	Name        string        `json:"name" yaml:"name"`
	Changed     bool          `json:"changed" yaml:"changed"`
	InputBytes  int           `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int           `json:"output_bytes" yaml:"output_bytes"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Stats captures metrics about what the pipeline did.
type Stats struct {
	// Size metrics
	InputBytes  int `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int `json:"output_bytes" yaml:"output_bytes"`
	InputChars  int `json:"input_chars" yaml:"input_chars"`
	OutputChars int `json:"output_chars" yaml:"output_chars"`

	// Passes lists every enabled pass in the order it ran.
	Passes []PassStat `json:"passes" yaml:"passes"`

	TotalDuration time.Duration `json:"total_duration_ns" yaml:"total_duration_ns"`
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// Changed returns the names of passes that modified the text.
func (s *Stats) Changed() []string {
	var names []string
	for _, p := range s.Passes {
		if p.Changed {
			names = append(names, p.Name)
		}
	}
	return names
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes (%.1f%% reduction)\n",
		s.InputBytes, s.OutputBytes, s.ReductionPercent()))
	sb.WriteString(fmt.Sprintf("Characters: %d -> %d\n", s.InputChars, s.OutputChars))

	changed := s.Changed()
	if len(changed) > 0 {
		sb.WriteString("Changed by: ")
		sb.WriteString(strings.Join(changed, ", "))
		sb.WriteString("\n")
	} else {
		sb.WriteString("No changes\n")
	}

	sb.WriteString(fmt.Sprintf("Timing: total=%v\n", s.TotalDuration.Round(time.Microsecond)))
	return sb.String()
}

// Warning represents a non-fatal issue encountered during cleaning.
type Warning struct {
	Pass    string `json:"pass" yaml:"pass"`
	Message string `json:"message" yaml:"message"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Pass, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Pass, w.Message)
}

// Result contains the output of a cleaning operation.
type Result struct {
	Content  string    `json:"content" yaml:"content"`
	Stats    *Stats    `json:"stats" yaml:"stats"`
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(pass, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Pass:    pass,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func countChars(s string) int {
	return utf8.RuneCountInString(s)
}
