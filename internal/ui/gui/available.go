//go:build !headless

package gui

// Available reports whether this build includes the desktop window.
func Available() bool { return true }
