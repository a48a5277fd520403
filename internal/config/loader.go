package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	configDirName  = "grove"
	configFileName = "config.toml"
)

// Path returns the default config file location, preferring $XDG_CONFIG_HOME
// then falling back to ~/.config, matching the original's config_directory
// resolution.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, configDirName, configFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", configDirName, configFileName)
}

// Load reads the config file at the default path, returning defaults if it
// does not exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path. A missing file is not an error:
// it yields Default(). A malformed file is an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}

	if _, err := toml.Decode(string(raw), &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Multiplexer == "" {
		cfg.Multiplexer = MultiplexerTmux
	}
	if cfg.Capture.MaxBytes <= 0 {
		cfg.Capture.MaxBytes = Default().Capture.MaxBytes
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as needed.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
