package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/huddle/pkg/dotdir"
)

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// ErrNoConfigDir is returned when writing a File that has no path.
var ErrNoConfigDir = errors.New("config file has no path")

// File is config.toml inside a resolved .huddle/ directory. The zero File
// reads as defaults and refuses writes.
type File struct {
	path string
}

// KeyValue is one resolved key, as shown by "huddle config list".
type KeyValue struct {
	Key   string
	Value string

	// Default is true when Value matches NewDefaultConfig.
	Default bool
}

// OpenFile resolves the huddle directory (see dotdir.Resolve) and returns
// its config file. The file itself need not exist.
func OpenFile(override string) (*File, error) {
	dir, err := dotdir.Resolve(override)
	if err != nil {
		return nil, err
	}
	return &File{path: dir.ConfigFile()}, nil
}

// Path is the config file location.
func (f *File) Path() string {
	return f.path
}

// Load reads the file over NewDefaultConfig. A missing file is not an error.
func (f *File) Load() (*Config, error) {
	if f.path == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Save writes cfg to a temp file beside config.toml and renames it into place.
func (f *File) Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if f.path == "" {
		return ErrNoConfigDir
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Get returns the string form of key.
func (f *File) Get(key string) (string, error) {
	info, err := lookupKey(key)
	if err != nil {
		return "", err
	}

	cfg, err := f.Load()
	if err != nil {
		return "", err
	}
	return info.get(cfg), nil
}

// Set parses value for key and saves the result.
func (f *File) Set(key, value string) error {
	info, err := lookupKey(key)
	if err != nil {
		return err
	}
	return f.update(func(cfg *Config) error {
		return info.set(cfg, value)
	})
}

// Unset restores key to its default and saves the result.
func (f *File) Unset(key string) error {
	info, err := lookupKey(key)
	if err != nil {
		return err
	}
	def := info.get(NewDefaultConfig())
	return f.update(func(cfg *Config) error {
		return info.set(cfg, def)
	})
}

// Values resolves every key in TOML section order from a single read.
func (f *File) Values() ([]KeyValue, error) {
	cfg, err := f.Load()
	if err != nil {
		return nil, err
	}
	defaults := NewDefaultConfig()

	keys := ValidConfigKeys()
	out := make([]KeyValue, 0, len(keys))
	for _, key := range keys {
		info := configKeys[key]
		value := info.get(cfg)
		out = append(out, KeyValue{
			Key:     key,
			Value:   value,
			Default: value == info.get(defaults),
		})
	}
	return out, nil
}

func (f *File) update(fn func(*Config) error) error {
	cfg, err := f.Load()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return f.Save(cfg)
}

func lookupKey(key string) (configKeyInfo, error) {
	info, ok := configKeys[key]
	if !ok {
		return configKeyInfo{}, fmt.Errorf("unknown config key: %q", key)
	}
	return info, nil
}

// ValidConfigKeys returns all supported configuration key names in TOML
// section order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(orderedKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// Parse decodes TOML over NewDefaultConfig and checks the version.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}
	return cfg, nil
}
