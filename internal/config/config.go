package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bamsammich/ffd/internal/filter"
)

// Config represents the optional ffd configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`

	// Unknown lists keys present in the file that ffd does not recognize.
	Unknown []string `toml:"-"`
}

// DefaultsConfig holds persistent flag defaults. A nil pointer or empty
// slice means "not set".
type DefaultsConfig struct {
	Drives     []string `toml:"drives"`
	BufferSize *string  `toml:"buffer_size"`
	Workers    *int     `toml:"workers"`
	Color      *bool    `toml:"color"`
	TUI        *bool    `toml:"tui"`
	MaxResults *int     `toml:"max_results"`
	Exclude    []string `toml:"exclude"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Match  *string `toml:"match"`
	Prompt *string `toml:"prompt"`
	Path   *string `toml:"path"`
	Dim    *string `toml:"dim"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ffd", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadFile reads and validates the config file at path.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that toml decoding alone cannot.
func (c Config) Validate() error {
	var errs []error
	d := c.Defaults
	if d.BufferSize != nil {
		if _, err := filter.ParseSize(*d.BufferSize); err != nil {
			errs = append(errs, fmt.Errorf("defaults.buffer_size: %w", err))
		}
	}
	if d.Workers != nil && *d.Workers < 0 {
		errs = append(errs, fmt.Errorf("defaults.workers: must not be negative, got %d", *d.Workers))
	}
	if d.MaxResults != nil && *d.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("defaults.max_results: must not be negative, got %d", *d.MaxResults))
	}
	for _, drive := range d.Drives {
		if !validDrive(drive) {
			errs = append(errs, fmt.Errorf("defaults.drives: %q is not a drive label like \"C:\"", drive))
		}
	}
	for _, pattern := range d.Exclude {
		if err := filter.NewChain().AddExclude(pattern); err != nil {
			errs = append(errs, fmt.Errorf("defaults.exclude: %q: %w", pattern, err))
		}
	}
	return errors.Join(errs...)
}

// NormalizeDrive turns "c", "c:" or `C:\` into "C:".
func NormalizeDrive(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), `\/`)
	s = strings.ToUpper(s)
	if len(s) == 1 {
		s += ":"
	}
	return s
}

func validDrive(s string) bool {
	s = NormalizeDrive(s)
	return len(s) == 2 && s[1] == ':' && 'A' <= s[0] && s[0] <= 'Z'
}
