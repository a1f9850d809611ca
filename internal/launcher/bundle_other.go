//go:build !darwin

package launcher

// The desktop-entry platform has no app bundles.
func bundleEntries() []Entry { return nil }
