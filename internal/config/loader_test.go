package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFromMissingDefaultsToTmux(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.toml")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Multiplexer != MultiplexerTmux {
		t.Fatalf("Multiplexer = %q, want tmux", cfg.Multiplexer)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	want := Default()
	want.Multiplexer = MultiplexerZellij
	want.Interactive.ExitKey = "ctrl+x"

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestLoadFromEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected default config")
	}
}
