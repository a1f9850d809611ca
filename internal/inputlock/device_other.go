//go:build !linux

package inputlock

import (
	"context"
	"errors"
)

// unsupportedDevice stands in where no device detach primitive exists yet;
// Init fails with NoBackend and the controller reports the lock as
// unavailable rather than pretending to hold it.
type unsupportedDevice struct{}

var errUnsupported = errors.New("input device control is not supported on this platform")

func (unsupportedDevice) Discover(context.Context) (string, string, string, string, error) {
	return "", "", "", "", errUnsupported
}
func (unsupportedDevice) Detach(context.Context, string) error { return errUnsupported }
func (unsupportedDevice) Reattach(context.Context, string, string) error {
	return errUnsupported
}

// NewDevice returns the platform device backend.
func NewDevice() Device { return unsupportedDevice{} }
