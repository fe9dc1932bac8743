package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/huddle/pkg/dotdir"
)

// EnvPrefix namespaces environment overrides: server.listen is read from
// HUDDLE_SERVER_LISTEN.
const EnvPrefix = "HUDDLE"

// NewViper layers defaults, the resolved config.toml (when present) and
// HUDDLE_* environment variables. Commands add flags on top with BindFlags
// and then call Load.
func NewViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	d := NewDefaultConfig()
	v.SetDefault("version", d.Version)
	for _, key := range orderedKeys {
		v.SetDefault(key, configKeys[key].get(d))
	}

	dir, err := dotdir.Resolve(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	path := dir.ConfigFile()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	switch _, err := os.Stat(path); {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// Load resolves every key through v into a Config, using the same parsers
// as "huddle config set" so a bad env var fails the same way a bad file does.
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	cfg.Version = v.GetInt("version")
	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	for _, key := range orderedKeys {
		info := configKeys[key]

		raw := v.GetString(key)
		if info.list {
			raw = strings.Join(v.GetStringSlice(key), ",")
		}
		if err := info.set(cfg, raw); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
