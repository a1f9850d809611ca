package input

import (
	"testing"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
)

type fakeBackend struct {
	lastCombo string
	calls     []string
}

func (f *fakeBackend) mouseMove(x, y int) error {
	f.calls = append(f.calls, "move")
	return nil
}
func (f *fakeBackend) mouseClick(x, y int, button Button) error {
	f.calls = append(f.calls, "click:"+string(button))
	return nil
}
func (f *fakeBackend) mouseDown(x, y int, button Button) error { return nil }
func (f *fakeBackend) mouseUp(x, y int, button Button) error   { return nil }
func (f *fakeBackend) scroll(x, y, dx, dy int) error           { return nil }
func (f *fakeBackend) keyCombo(combo string) error {
	f.lastCombo = combo
	return nil
}
func (f *fakeBackend) keyDown(combo string) error { f.lastCombo = combo; return nil }
func (f *fakeBackend) keyUp(combo string) error   { f.lastCombo = combo; return nil }

func newTestInjector() (*validatingInjector, *fakeBackend) {
	fb := &fakeBackend{}
	return &validatingInjector{
		validator: bridgeerr.ScreenValidator{Width: 1920, Height: 1080},
		backend:   fb,
	}, fb
}

func TestMouseClickOutOfBounds(t *testing.T) {
	inj, _ := newTestInjector()
	if err := inj.MouseClick(-1, 0, ButtonLeft); err == nil {
		t.Fatal("expected error for negative x")
	}
}

func TestMouseClickOrdering(t *testing.T) {
	inj, fb := newTestInjector()
	if err := inj.MouseClick(10, 10, ButtonLeft); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fb.calls) != 2 || fb.calls[0] != "move" || fb.calls[1] != "click:left" {
		t.Fatalf("expected move then click, got %v", fb.calls)
	}
}

func TestKeyPressSingleCharNoModifiers(t *testing.T) {
	inj, fb := newTestInjector()
	if err := inj.KeyPress("a", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.lastCombo != "a" {
		t.Fatalf("expected bare key passthrough, got %q", fb.lastCombo)
	}
}

func TestKeyPressWithModifiers(t *testing.T) {
	inj, fb := newTestInjector()
	if err := inj.KeyPress("l", []string{"ctrl"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.lastCombo != "ctrl+l" {
		t.Fatalf("combo = %q, want ctrl+l", fb.lastCombo)
	}
}

func TestKeyPressEmptyKey(t *testing.T) {
	inj, _ := newTestInjector()
	if err := inj.KeyPress("", nil); err == nil {
		t.Fatal("expected error for empty key")
	}
}
