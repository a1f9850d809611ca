package a11y

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"g", []string{"g"}},
		{"Ctrl+L", []string{"ctrl", "l"}},
		{"<Control>l", []string{"ctrl", "l"}},
		{"Ctrl+Shift+N", []string{"ctrl", "shift", "n"}},
		{"", nil},
	}
	for _, c := range cases {
		got := Normalize(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Normalize(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestToCommand(t *testing.T) {
	if got := ToCommand([]string{"ctrl", "l"}); got != "ctrl+l" {
		t.Errorf("ToCommand = %q, want ctrl+l", got)
	}
}

func TestIsSingleKey(t *testing.T) {
	if !IsSingleKey([]string{"g"}) {
		t.Error("single key should report true")
	}
	if IsSingleKey([]string{"ctrl", "l"}) {
		t.Error("two keys should report false")
	}
}

func TestNewShortcut(t *testing.T) {
	s := NewShortcut("Address and search bar", "Ctrl+L")
	if s.Command != "ctrl+l" {
		t.Errorf("Command = %q, want ctrl+l", s.Command)
	}
	if s.IsSingleKey {
		t.Error("expected multi-key shortcut")
	}
	if !reflect.DeepEqual(s.NormalizedKeys, []string{"ctrl", "l"}) {
		t.Errorf("NormalizedKeys = %v", s.NormalizedKeys)
	}
}
