// Package clipboard is a thin seam around the system clipboard. No other
// package calls it; the message loop drops the interactive pipeline's
// CopySelection/PasteClipboard actions.
// OS-specific fallback behavior is the concern of atotto/clipboard itself
// (X11/Wayland/pbcopy/clip.exe detection); this package only adapts its
// two calls to the shape the rest of Grove expects.
package clipboard

import "github.com/atotto/clipboard"

// Read returns the current clipboard contents.
func Read() (string, error) {
	return clipboard.ReadAll()
}

// Write replaces the clipboard contents with text.
func Write(text string) error {
	return clipboard.WriteAll(text)
}
