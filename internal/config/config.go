// Package config loads Grove's own settings file. Parsing and validating
// this file is an ambient concern external to the live-preview/interactive
// core: components receive an already-built Config at construction and
// never read the file themselves.
package config

// Multiplexer names a multiplexer backend. The value is loaded and saved
// only; the program always uses the tmux executor.
type Multiplexer string

const (
	MultiplexerTmux   Multiplexer = "tmux"
	MultiplexerZellij Multiplexer = "zellij"
)

// Config is Grove's root settings structure, loaded from config.toml.
type Config struct {
	Multiplexer Multiplexer       `toml:"multiplexer"`
	Interactive InteractiveConfig `toml:"interactive"`
	Capture     CaptureConfig     `toml:"capture"`
}

// InteractiveConfig holds exit/attach/copy/paste key names. They are loaded
// and saved only; the interactive input pipeline (internal/interactive)
// uses its own fixed keys and does not read them.
type InteractiveConfig struct {
	ExitKey   string `toml:"exit_key"`
	AttachKey string `toml:"attach_key"`
	CopyKey   string `toml:"copy_key"`
	PasteKey  string `toml:"paste_key"`
}

// CaptureConfig holds a pane-capture byte bound. It is loaded and saved
// only; captures are bounded by a fixed line count in internal/app.
type CaptureConfig struct {
	MaxBytes int `toml:"max_bytes"`
}

// Default returns Grove's default settings: tmux as the multiplexer
// backend and the interactive exit/attach key defaults named in §6.
func Default() Config {
	return Config{
		Multiplexer: MultiplexerTmux,
		Interactive: InteractiveConfig{
			ExitKey:   "ctrl+\\",
			AttachKey: "ctrl+]",
			CopyKey:   "alt+c",
			PasteKey:  "alt+v",
		},
		Capture: CaptureConfig{
			MaxBytes: 2 * 1024 * 1024,
		},
	}
}
