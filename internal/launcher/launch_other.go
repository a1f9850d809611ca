//go:build !linux && !darwin

package launcher

// No launch strategies exist off the desktop-entry and bundle platforms;
// Launch reports the documented Fatal.
func launchStrategies() []launchStrategy { return nil }
