//go:build !linux

package input

import "github.com/kestrelremote/bridge/internal/bridgeerr"

func newBackend() backend { return unsupportedBackend{} }

// unsupportedBackend reports NoBackend on every operation. The concrete
// macOS (Core Graphics) and Windows (SendInput) primitives are out of scope
// for this repository per the platform-capture/input design: they are
// documented interfaces, not reimplemented natively here.
type unsupportedBackend struct{}

func (unsupportedBackend) mouseMove(x, y int) error                 { return errNoBackend }
func (unsupportedBackend) mouseClick(x, y int, button Button) error { return errNoBackend }
func (unsupportedBackend) mouseDown(x, y int, button Button) error  { return errNoBackend }
func (unsupportedBackend) mouseUp(x, y int, button Button) error    { return errNoBackend }
func (unsupportedBackend) scroll(x, y, deltaX, deltaY int) error    { return errNoBackend }
func (unsupportedBackend) keyCombo(combo string) error              { return errNoBackend }
func (unsupportedBackend) keyDown(combo string) error               { return errNoBackend }
func (unsupportedBackend) keyUp(combo string) error                 { return errNoBackend }

var errNoBackend = bridgeerr.New(bridgeerr.KindNoBackend, "no input backend available on this platform")

func typeString(b backend, text string, perCharDelayMs int) error {
	return errNoBackend
}
