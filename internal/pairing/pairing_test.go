package pairing

import "testing"

func TestNewCodeShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode: %v", err)
		}
		if !Valid(code) {
			t.Fatalf("code %q does not match LLL-DDD", code)
		}
		seen[code] = true
	}
	// 100 draws from a 17.5M-code space colliding down to a handful would
	// indicate broken entropy.
	if len(seen) < 90 {
		t.Fatalf("only %d distinct codes in 100 draws", len(seen))
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"ABC-123", true},
		{"abc-123", false},
		{"ABCD-123", false},
		{"ABC-12", false},
		{"ABC123", false},
		{"", false},
	}
	for _, c := range cases {
		if got := Valid(c.in); got != c.want {
			t.Fatalf("Valid(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
