// Package config loads the focusd configuration: which channels to
// register, either from a well-known preset or an explicit list, plus the
// control server settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/audiolibrelab/focusd/internal/focus"
	"github.com/spf13/viper"
)

const (
	PresetAudio  = "audio"
	PresetVisual = "visual"
	PresetCustom = "custom"
)

type Config struct {
	// Preset selects a well-known channel registration: "audio", "visual"
	// or "custom". With "custom", Channels must be provided.
	Preset   string         `mapstructure:"preset" yaml:"preset"`
	Channels []ChannelEntry `mapstructure:"channels,omitempty" yaml:"channels,omitempty"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

type ChannelEntry struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Priority int    `mapstructure:"priority" yaml:"priority"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
	// ActivityHistory is how many flushed activity batches the server keeps
	// in memory for the /api/activity endpoint.
	ActivityHistory int `mapstructure:"activity_history" yaml:"activity_history"`
}

var defaultConfig = Config{
	Preset: PresetAudio,
	Server: ServerConfig{
		Port:            "8080",
		ActivityHistory: 64,
	},
}

// Default returns the built-in configuration: the audio preset and default
// server settings.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load reads the configuration file at path. A missing file is not an
// error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for structural problems. Duplicate
// channel names or priorities are deliberately not rejected here; the
// focus manager logs and skips those at registration time.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Preset) {
	case PresetAudio, PresetVisual:
	case PresetCustom, "":
		if len(c.Channels) == 0 {
			return fmt.Errorf("preset %q requires at least one channel", c.Preset)
		}
	default:
		return fmt.Errorf("unknown preset %q (want %q, %q or %q)", c.Preset, PresetAudio, PresetVisual, PresetCustom)
	}

	for i, ch := range c.Channels {
		if strings.TrimSpace(ch.Name) == "" {
			return fmt.Errorf("channel %d has an empty name", i)
		}
		if ch.Priority < 0 {
			return fmt.Errorf("channel %q has negative priority %d", ch.Name, ch.Priority)
		}
	}

	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if c.Server.ActivityHistory < 0 {
		return fmt.Errorf("server activity_history must not be negative")
	}
	return nil
}

// ChannelConfigs resolves the preset into the channel registration list
// handed to the focus manager.
func (c *Config) ChannelConfigs() []focus.ChannelConfig {
	switch strings.ToLower(c.Preset) {
	case PresetAudio:
		return focus.DefaultAudioChannels()
	case PresetVisual:
		return focus.DefaultVisualChannels()
	default:
		configs := make([]focus.ChannelConfig, 0, len(c.Channels))
		for _, ch := range c.Channels {
			configs = append(configs, focus.ChannelConfig{Name: ch.Name, Priority: ch.Priority})
		}
		return configs
	}
}
