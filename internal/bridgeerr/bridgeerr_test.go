package bridgeerr

import (
	"errors"
	"testing"
)

func TestScreenValidatorBounds(t *testing.T) {
	v := ScreenValidator{Width: 1920, Height: 1080}
	cases := []struct {
		x, y    int
		wantErr bool
	}{
		{0, 0, false},
		{1919, 1079, false},
		{-1, 0, true},
		{0, -1, true},
		{1920, 0, true},
		{0, 1080, true},
	}
	for _, c := range cases {
		err := v.Validate(c.x, c.y)
		if (err != nil) != c.wantErr {
			t.Errorf("Validate(%d,%d) err=%v, wantErr=%v", c.x, c.y, err, c.wantErr)
		}
		if err != nil && KindOf(err) != KindInvalidInput {
			t.Errorf("Validate(%d,%d) kind = %v, want InvalidInput", c.x, c.y, KindOf(err))
		}
	}
}

func TestIsNearEdge(t *testing.T) {
	v := ScreenValidator{Width: 100, Height: 100}
	if !v.IsNearEdge(5, 50) {
		t.Fatal("x=5 should be near left edge")
	}
	if v.IsNearEdge(50, 50) {
		t.Fatal("center should not be near edge")
	}
	if !v.IsNearEdge(95, 50) {
		t.Fatal("x=95 should be near right edge")
	}
}

func TestValidateAppName(t *testing.T) {
	if err := ValidateAppName(""); err == nil {
		t.Fatal("empty name should fail")
	}
	if err := ValidateAppName("../../etc/passwd"); err == nil {
		t.Fatal("path traversal should fail")
	}
	if err := ValidateAppName("Firefox"); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
}

func TestValidateWindowID(t *testing.T) {
	if v, err := ValidateWindowID("0x1A"); err != nil || v != 26 {
		t.Fatalf("hex parse: v=%d err=%v", v, err)
	}
	if v, err := ValidateWindowID("42"); err != nil || v != 42 {
		t.Fatalf("decimal parse: v=%d err=%v", v, err)
	}
	if _, err := ValidateWindowID(""); err == nil {
		t.Fatal("empty id should fail")
	}
	if _, err := ValidateWindowID("not-a-number"); err == nil {
		t.Fatal("garbage id should fail")
	}
}

func TestKindOfUntyped(t *testing.T) {
	if KindOf(nil) != "" {
		t.Fatal("nil error should have empty kind")
	}
	if KindOf(errors.New("boom")) != KindFatal {
		t.Fatal("untyped error should default to KindFatal")
	}
}
