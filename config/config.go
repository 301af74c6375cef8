package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-midiviz/theme"
)

var ErrInvalidConfig = errors.New("invalid config")

// ColorsConfig holds the display colors as #rrggbb strings
type ColorsConfig struct {
	Background string   `json:"background,omitempty"`
	Channels   []string `json:"channels,omitempty"` // up to 16, missing ones keep the default
}

// ExportConfig defines video export parameters
type ExportConfig struct {
	FPS    int    `json:"fps"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Codec  string `json:"codec,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	NoteOffset       int          `json:"noteOffset"`
	TicksPerPixel    int          `json:"ticksPerPixel"`
	SampleIntervalMs int          `json:"sampleIntervalMs"`
	OutputPort       string       `json:"outputPort,omitempty"`
	Palette          string       `json:"palette,omitempty"` // path to a GIMP .gpl file
	Colors           ColorsConfig `json:"colors,omitempty"`
	Export           ExportConfig `json:"export"`
}

// DefaultConfig returns a config with sensible defaults. The note offset maps
// MIDI note 21 (A0) to the lowest key.
func DefaultConfig() *Config {
	channels := theme.DefaultChannelColors()
	hex := make([]string, len(channels))
	for i, c := range channels {
		hex[i] = c.Hex()
	}
	return &Config{
		NoteOffset:       -20,
		TicksPerPixel:    10,
		SampleIntervalMs: 4,
		Colors: ColorsConfig{
			Background: theme.DefaultBackground.Hex(),
			Channels:   hex,
		},
		Export: ExportConfig{
			FPS:    30,
			Width:  1920,
			Height: 1080,
			Codec:  "libx264",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-midiviz"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults, so omitted fields keep their
// default values
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges and colors
func (c *Config) Validate() error {
	if c.TicksPerPixel <= 0 {
		return fmt.Errorf("%w: ticksPerPixel must be positive, got %d", ErrInvalidConfig, c.TicksPerPixel)
	}
	if c.SampleIntervalMs <= 0 {
		return fmt.Errorf("%w: sampleIntervalMs must be positive, got %d", ErrInvalidConfig, c.SampleIntervalMs)
	}
	if c.Export.FPS <= 0 || c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("%w: export fps/width/height must be positive, got %d/%d/%d",
			ErrInvalidConfig, c.Export.FPS, c.Export.Width, c.Export.Height)
	}
	if len(c.Colors.Channels) > theme.Channels {
		return fmt.Errorf("%w: %d channel colors, at most %d", ErrInvalidConfig, len(c.Colors.Channels), theme.Channels)
	}
	if _, err := c.Theme(theme.DefaultPalette()); err != nil {
		return err
	}
	return nil
}

// Theme builds the display theme, loading Palette when set and falling back
// to fallback otherwise
func (c *Config) Theme(fallback *theme.Palette) (*theme.Theme, error) {
	palette := fallback
	if c.Palette != "" {
		p, err := theme.LoadGPL(c.Palette)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		palette = p
	}

	t := theme.New(palette)
	if c.Colors.Background != "" {
		bg, err := theme.ParseHex(c.Colors.Background)
		if err != nil {
			return nil, fmt.Errorf("%w: background: %w", ErrInvalidConfig, err)
		}
		t.Background = bg
	}
	for i, s := range c.Colors.Channels {
		if i >= theme.Channels {
			break
		}
		if s == "" {
			continue
		}
		rgb, err := theme.ParseHex(s)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d: %w", ErrInvalidConfig, i+1, err)
		}
		t.Channels[i] = rgb
	}
	return t, nil
}

// SetChannelColor stores a channel color (0-based channel)
func (c *Config) SetChannelColor(ch int, rgb theme.RGB) {
	if ch < 0 || ch >= theme.Channels {
		return
	}
	for len(c.Colors.Channels) <= ch {
		c.Colors.Channels = append(c.Colors.Channels, "")
	}
	c.Colors.Channels[ch] = rgb.Hex()
}
