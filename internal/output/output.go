// Package output renders command results as text, JSON, JSON lines or YAML.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how results are serialized.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted --format values.
func Formats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatJSONL), string(FormatYAML)}
}

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want one of %s)", s, strings.Join(Formats(), ", "))
}

// Renderer is implemented by results with a human readable form.
type Renderer interface {
	Render(w io.Writer) error
}

// Print writes a single value. In text format the value is rendered through
// Renderer or fmt.Stringer and falls back to YAML.
func Print(w io.Writer, format Format, v any) error {
	bw := bufio.NewWriter(w)
	if err := encode(bw, format, v); err != nil {
		return err
	}
	return bw.Flush()
}

// PrintList writes a list. JSON emits one array, JSON lines one object per
// line, YAML one sequence and text renders each item in turn.
func PrintList[T any](w io.Writer, format Format, items []T) error {
	bw := bufio.NewWriter(w)
	switch format {
	case FormatJSONL, FormatText:
		for _, item := range items {
			if err := encode(bw, format, item); err != nil {
				return err
			}
		}
	default:
		if items == nil {
			items = []T{}
		}
		if err := encode(bw, format, items); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		switch r := v.(type) {
		case Renderer:
			return r.Render(w)
		case fmt.Stringer:
			_, err := fmt.Fprintln(w, r.String())
			return err
		case string:
			_, err := fmt.Fprintln(w, r)
			return err
		}
		return encode(w, FormatYAML, v)
	}
	return fmt.Errorf("unsupported output format: %s", format)
}
