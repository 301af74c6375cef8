package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midiviz/config"
	"go-midiviz/midi"
	"go-midiviz/theme"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.mid")
	s := midi.ToSMF(480, []midi.Tempo{{Tick: 0, BPM: 120}}, [][]midi.Event{
		{
			{Tick: 0, Command: midi.NoteOn, Channel: 0, Pitch: 60, Velocity: 100},
			{Tick: 480, Command: midi.NoteOff, Channel: 0, Pitch: 60},
		},
		{
			{Tick: 240, Command: midi.NoteOn, Channel: 1, Pitch: 64, Velocity: 100},
			{Tick: 960, Command: midi.NoteOff, Channel: 1, Pitch: 64},
		},
	})
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = s.WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return path
}

// resetFlags restores every flag to its default, cobra keeps parsed values
// and Changed between Execute calls
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithConfig(t, filepath.Join(t.TempDir(), "config.json"), args...)
}

func runWithConfig(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--config", cfgPath))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestNotesSummary(t *testing.T) {
	out, err := run(t, "notes", writeFixture(t))

	require.NoError(t, err)
	assert.Contains(t, out, "2 notes on 2 channels from 4 events")
	assert.Contains(t, out, "480 ticks per quarter")
}

func TestNotesList(t *testing.T) {
	out, err := run(t, "notes", "--list", writeFixture(t))

	require.NoError(t, err)
	assert.Contains(t, out, "start")
	assert.Contains(t, out, "   1   39          0        480      480")
}

func TestNotesWriteTransposedCopy(t *testing.T) {
	copyPath := filepath.Join(t.TempDir(), "copy.mid")

	_, err := run(t, "notes", "--write", copyPath, "--transpose", "12", writeFixture(t))
	require.NoError(t, err)

	seq, err := midi.ReadFile(copyPath)
	require.NoError(t, err)
	require.Len(t, seq.Tracks, 1)
	var pitches []int
	for _, e := range seq.Tracks[0] {
		pitches = append(pitches, e.Pitch)
	}
	assert.Equal(t, []int{72, 76, 72, 76}, pitches)
}

func TestNotesMissingFile(t *testing.T) {
	_, err := run(t, "notes", filepath.Join(t.TempDir(), "missing.mid"))
	assert.Error(t, err)
}

func TestExportPNGFrames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")

	out, err := run(t, "export", "--png", "-o", dir, "--fps", "5", "--width", "104", "--height", "60", writeFixture(t))

	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	assert.Contains(t, out, "exported")
	assert.Contains(t, out, "frames to "+dir)
}

func TestDefaultExportPath(t *testing.T) {
	assert.Equal(t, "songs/a.mp4", defaultExportPath("songs/a.mid", false))
	assert.Equal(t, "songs/a-frames", defaultExportPath("songs/a.mid", true))
}

func TestColorsSetPersists(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")

	out, err := runWithConfig(t, cfgPath, "colors", "set", "3", "#112233", "--offset", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "channel 3 is now #112233")

	stored, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "#112233", stored.Colors.Channels[2])
	assert.Equal(t, -20, stored.NoteOffset, "flag overrides are not saved")

	out, err = runWithConfig(t, cfgPath, "colors")
	require.NoError(t, err)
	assert.Contains(t, out, "channel  3")
	assert.Contains(t, out, "#112233")
}

func TestColorsBackgroundAndReset(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")

	_, err := runWithConfig(t, cfgPath, "colors", "background", "#000000")
	require.NoError(t, err)
	stored, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "#000000", stored.Colors.Background)

	_, err = runWithConfig(t, cfgPath, "colors", "reset")
	require.NoError(t, err)
	stored, err = config.LoadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, theme.DefaultBackground.Hex(), stored.Colors.Background)
}

func TestColorsSetRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"channel zero", []string{"colors", "set", "0", "#112233"}},
		{"channel too high", []string{"colors", "set", "17", "#112233"}},
		{"bad color", []string{"colors", "set", "1", "blue"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.json")
			_, err := runWithConfig(t, cfgPath, tt.args...)
			assert.Error(t, err)
			assert.NoFileExists(t, cfgPath)
		})
	}
}
