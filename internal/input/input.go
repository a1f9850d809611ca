// Package input synthesizes keyboard and mouse events on behalf of a remote
// controller.
package input

import (
	"fmt"
	"strings"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("input")

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Injector synthesizes input events through whatever platform primitive is
// available. Every method validates its own arguments before touching the
// platform backend.
type Injector interface {
	MouseMove(x, y int) error
	MouseClick(x, y int, button Button) error
	MouseDown(x, y int, button Button) error
	MouseUp(x, y int, button Button) error
	Scroll(x, y int, deltaX, deltaY int) error
	KeyPress(key string, modifiers []string) error
	KeyDown(key string, modifiers []string) error
	KeyUp(key string, modifiers []string) error
	TypeString(text string, perCharDelayMs int) error
}

// New returns the platform Injector, validating coordinates against the
// given screen bounds before any operation reaches the backend.
func New(width, height int) Injector {
	return &validatingInjector{
		validator: bridgeerr.ScreenValidator{Width: width, Height: height},
		backend:   newBackend(),
	}
}

type validatingInjector struct {
	validator bridgeerr.ScreenValidator
	backend   backend
}

// backend is the platform-specific primitive. On Linux it shells out to
// xdotool; other platforms implement the same shape in their own build-tagged
// files.
type backend interface {
	mouseMove(x, y int) error
	mouseClick(x, y int, button Button) error
	mouseDown(x, y int, button Button) error
	mouseUp(x, y int, button Button) error
	scroll(x, y, deltaX, deltaY int) error
	keyCombo(combo string) error
	keyDown(combo string) error
	keyUp(combo string) error
}

func (v *validatingInjector) MouseMove(x, y int) error {
	if err := v.validator.Validate(x, y); err != nil {
		return err
	}
	return v.backend.mouseMove(x, y)
}

func (v *validatingInjector) MouseClick(x, y int, button Button) error {
	if err := v.validator.Validate(x, y); err != nil {
		return err
	}
	if v.validator.IsNearEdge(x, y) {
		log.Debug("click near screen edge", "x", x, "y", y)
	}
	// move -> press -> release, per the documented ordering
	if err := v.backend.mouseMove(x, y); err != nil {
		return err
	}
	return v.backend.mouseClick(x, y, button)
}

func (v *validatingInjector) MouseDown(x, y int, button Button) error {
	if err := v.validator.Validate(x, y); err != nil {
		return err
	}
	return v.backend.mouseDown(x, y, button)
}

func (v *validatingInjector) MouseUp(x, y int, button Button) error {
	if err := v.validator.Validate(x, y); err != nil {
		return err
	}
	return v.backend.mouseUp(x, y, button)
}

func (v *validatingInjector) Scroll(x, y int, deltaX, deltaY int) error {
	if err := v.validator.Validate(x, y); err != nil {
		return err
	}
	return v.backend.scroll(x, y, deltaX, deltaY)
}

// KeyPress injects a single key combo, e.g. key="l" modifiers=["ctrl"]. A
// bare single character with no modifiers is passed unchanged to the
// backend's key-combo path; it is not typed as text, so it still goes
// through the keysym layer like any other key.
func (v *validatingInjector) KeyPress(key string, modifiers []string) error {
	if key == "" {
		return bridgeerr.New(bridgeerr.KindInvalidInput, "key must not be empty")
	}
	if len(modifiers) == 0 && len([]rune(key)) == 1 {
		return v.backend.keyCombo(key)
	}
	return v.backend.keyCombo(combo(key, modifiers))
}

// KeyDown presses and holds a key combo without releasing it.
func (v *validatingInjector) KeyDown(key string, modifiers []string) error {
	if key == "" {
		return bridgeerr.New(bridgeerr.KindInvalidInput, "key must not be empty")
	}
	return v.backend.keyDown(combo(key, modifiers))
}

// KeyUp releases a previously held key combo.
func (v *validatingInjector) KeyUp(key string, modifiers []string) error {
	if key == "" {
		return bridgeerr.New(bridgeerr.KindInvalidInput, "key must not be empty")
	}
	return v.backend.keyUp(combo(key, modifiers))
}

// TypeString injects each character of text in turn with a small settle
// delay, implemented by the backend (xdotool type on Linux).
func (v *validatingInjector) TypeString(text string, perCharDelayMs int) error {
	if text == "" {
		return nil
	}
	return typeString(v.backend, text, perCharDelayMs)
}

func combo(key string, modifiers []string) string {
	if len(modifiers) == 0 {
		return key
	}
	return fmt.Sprintf("%s+%s", strings.Join(modifiers, "+"), key)
}
