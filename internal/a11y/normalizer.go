package a11y

import "strings"

// Normalize reduces a raw keyboard-shortcut string (as reported over the
// accessibility bus, e.g. "<Control>l" or "Ctrl+Shift+N") to the fixed
// vocabulary used throughout the bridge.
func Normalize(shortcut string) []string {
	if shortcut == "" {
		return nil
	}

	stripped := strings.NewReplacer("<", "", ">", " ").Replace(shortcut)
	parts := strings.FieldsFunc(stripped, func(r rune) bool {
		return r == '+' || r == ' '
	})

	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		keys = append(keys, normalizeKey(strings.ToLower(p)))
	}
	return keys
}

func normalizeKey(key string) string {
	switch key {
	case "control", "ctrl":
		return "ctrl"
	case "alt", "meta":
		return "alt"
	case "shift":
		return "shift"
	case "super", "cmd", "command", "win", "windows":
		return "command"
	case "del", "delete":
		return "delete"
	case "esc", "escape":
		return "esc"
	case "return", "enter":
		return "return"
	case "tab":
		return "tab"
	case "space":
		return "space"
	case "backspace":
		return "backspace"
	default:
		return key
	}
}

// ToCommand joins normalized keys into a displayable "ctrl+shift+n" form.
func ToCommand(keys []string) string {
	return strings.Join(keys, "+")
}

// IsSingleKey reports whether a normalized shortcut is a bare keypress with
// no modifiers.
func IsSingleKey(keys []string) bool {
	return len(keys) == 1
}

// Shortcut is a fully processed accessibility shortcut discovered in a
// captured UI tree.
type Shortcut struct {
	Name           string
	RawForm        string
	NormalizedKeys []string
	Command        string
	IsSingleKey    bool
}

// NewShortcut builds a Shortcut from a raw name/keyshortcuts pair as found in
// an accessibility tree dump.
func NewShortcut(name, rawForm string) Shortcut {
	keys := Normalize(rawForm)
	return Shortcut{
		Name:           name,
		RawForm:        rawForm,
		NormalizedKeys: keys,
		Command:        ToCommand(keys),
		IsSingleKey:    IsSingleKey(keys),
	}
}
