package cli

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/logicflow/pkg/layout"

	"github.com/BurntSushi/toml"
)

// Config is the optional layout.toml read by --config.
type Config struct {
	Layout LayoutConfig       `toml:"layout"`
	Force  layout.ForceConfig `toml:"force"`
	Watch  WatchConfig        `toml:"watch"`
}

type LayoutConfig struct {
	MaxLabelRunes int    `toml:"max_label_runes"`
	Fallback      string `toml:"fallback"`
}

type WatchConfig struct {
	BaseURL    string   `toml:"base_url"`
	Interval   Duration `toml:"interval"`
	MaxRetries int      `toml:"max_retries"`
}

// Duration decodes TOML strings such as "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Force: layout.DefaultForceConfig(),
		Watch: WatchConfig{
			Interval:   Duration{2 * time.Second},
			MaxRetries: 3,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return cfg, nil
}
