package hotkey

import (
	"fmt"
	"slices"
	"strings"
)

// Modifier names as the hook library spells them.
const (
	ModCtrl  = "ctrl"
	ModAlt   = "alt"
	ModShift = "shift"
	ModCmd   = "cmd"
)

var modifierAliases = map[string]string{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"opt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"cmd":     ModCmd,
	"command": ModCmd,
	"super":   ModCmd,
	"meta":    ModCmd,
	"win":     ModCmd,
}

var modifierOrder = []string{ModCtrl, ModAlt, ModShift, ModCmd}

var namedKeys = map[string]bool{
	"space": true, "enter": true, "tab": true, "esc": true, "backspace": true,
	"delete": true, "insert": true, "home": true, "end": true,
	"pageup": true, "pagedown": true, "up": true, "down": true, "left": true, "right": true,
}

// Combo is a key plus the modifiers held with it.
type Combo struct {
	Key  string
	Mods []string
}

// ParseCombo parses combos like "ctrl+alt+v" or "Cmd+Shift+F5". Exactly one
// non-modifier key is required and at least one modifier.
func ParseCombo(s string) (Combo, error) {
	var c Combo
	if strings.TrimSpace(s) == "" {
		return c, fmt.Errorf("empty hotkey")
	}

	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Combo{}, fmt.Errorf("hotkey %q: empty key name", s)
		}
		if mod, ok := modifierAliases[part]; ok {
			if slices.Contains(c.Mods, mod) {
				return Combo{}, fmt.Errorf("hotkey %q: modifier %s repeated", s, mod)
			}
			c.Mods = append(c.Mods, mod)
			continue
		}
		if !validKey(part) {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, part)
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("hotkey %q: more than one key (%s, %s)", s, c.Key, part)
		}
		c.Key = part
	}

	if c.Key == "" {
		return Combo{}, fmt.Errorf("hotkey %q: no key besides modifiers", s)
	}
	if len(c.Mods) == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: at least one modifier is required", s)
	}
	slices.SortFunc(c.Mods, func(a, b string) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})
	return c, nil
}

func validKey(k string) bool {
	if len(k) == 1 {
		ch := k[0]
		return ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9'
	}
	if namedKeys[k] {
		return true
	}
	if k[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(k, "f%d", &n); err == nil && n >= 1 && n <= 24 && k == fmt.Sprintf("f%d", n) {
			return true
		}
	}
	return false
}

// String renders the canonical form, modifiers first.
func (c Combo) String() string {
	return strings.Join(append(slices.Clone(c.Mods), c.Key), "+")
}

// hookKeys lists the key names in the order the hook library expects:
// the key first, then the modifiers.
func (c Combo) hookKeys() []string {
	return append([]string{c.Key}, c.Mods...)
}
