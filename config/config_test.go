package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midiviz/theme"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, -20, cfg.NoteOffset)
	assert.Equal(t, 10, cfg.TicksPerPixel)
	assert.Len(t, cfg.Colors.Channels, theme.Channels)
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"noteOffset": 0, "export": {"fps": 60, "width": 640, "height": 360}}`), 0644))

	cfg, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.NoteOffset)
	assert.Equal(t, 10, cfg.TicksPerPixel)
	assert.Equal(t, 60, cfg.Export.FPS)
	assert.Equal(t, "libx264", cfg.Export.Codec)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":     `{`,
		"fps":        `{"export": {"fps": 0, "width": 1, "height": 1}}`,
		"color":      `{"colors": {"background": "grey"}}`,
		"ticks":      `{"ticksPerPixel": -1}`,
		"channel":    `{"colors": {"channels": ["#zzzzzz"]}}`,
		"no palette": `{"palette": "/nonexistent/p.gpl"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := LoadFile(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.OutputPort = "FluidSynth"
	cfg.SetChannelColor(2, theme.RGB{1, 2, 3})

	require.NoError(t, cfg.SaveFile(path))
	loaded, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestThemeAppliesColors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Colors.Background = "#000000"
	cfg.Colors.Channels = []string{"", "#ffffff"}

	th, err := cfg.Theme(theme.DefaultPalette())

	require.NoError(t, err)
	assert.Equal(t, theme.RGB{0, 0, 0}, th.Background)
	assert.Equal(t, theme.DefaultChannelColors()[0], th.Channels[0])
	assert.Equal(t, theme.RGB{255, 255, 255}, th.Channels[1])
	assert.Equal(t, theme.RGB{0, 0, 255}, th.Channels[2])
}

func TestSetChannelColorGrowsList(t *testing.T) {
	cfg := &Config{}
	cfg.SetChannelColor(3, theme.RGB{0xab, 0xcd, 0xef})
	cfg.SetChannelColor(99, theme.RGB{})
	assert.Equal(t, []string{"", "", "", "#abcdef"}, cfg.Colors.Channels)
}
