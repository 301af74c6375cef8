package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"golang.org/x/time/rate"

	"go-midiviz/debug"
	"go-midiviz/sequencer"
)

var (
	ErrInvalidExportConfig = errors.New("export: fps, width and height must be positive")
	ErrExportFailed        = errors.New("export failed")
)

// Painter renders a playback state. Interactive redraws and export frames go
// through the same painter.
type Painter interface {
	Paint(state sequencer.PlaybackState, width, height int) image.Image
}

// Progress is reported after every submitted frame
type Progress struct {
	Frame int // frames submitted so far
	Total int // estimate
	Tick  int64
}

// Fraction returns progress in 0..1
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(float64(p.Frame)/float64(p.Total), 1)
}

// Result describes a finished or cancelled export
type Result struct {
	Path     string
	Frames   int
	Canceled bool
	Elapsed  time.Duration
}

// Summary is a one-line human readable description
func (r Result) Summary() string {
	elapsed := durafmt.Parse(r.Elapsed.Round(time.Millisecond)).LimitFirstN(2).String()
	if r.Canceled {
		return fmt.Sprintf("export cancelled after %s frames (%s)", humanize.Comma(int64(r.Frames)), elapsed)
	}
	size := ""
	if info, err := os.Stat(r.Path); err == nil && !info.IsDir() {
		size = ", " + humanize.Bytes(uint64(info.Size()))
	}
	return fmt.Sprintf("exported %s frames to %s (%s%s)", humanize.Comma(int64(r.Frames)), r.Path, elapsed, size)
}

// Exporter renders a RenderingPlayer frame by frame into a sink
type Exporter struct {
	Painter  Painter
	Open     OpenFunc
	FPS      int
	Width    int
	Height   int
	Progress func(Progress) // optional, called on the export goroutine
}

// Validate checks the export parameters
func (e *Exporter) Validate() error {
	if e.FPS <= 0 || e.Width <= 0 || e.Height <= 0 {
		return fmt.Errorf("%w: fps=%d size=%dx%d", ErrInvalidExportConfig, e.FPS, e.Width, e.Height)
	}
	if e.Painter == nil || e.Open == nil {
		return fmt.Errorf("%w: painter and sink are required", ErrInvalidExportConfig)
	}
	return nil
}

// Run exports player to path. Each frame paints the current state, submits
// it, then advances to the next frame time; the loop ends once the player is
// at its end or ctx is cancelled. The sink writes to a temporary sibling of
// path which is renamed on success and removed on cancellation or failure.
// Cancellation is not an error: it returns Result.Canceled and a nil error.
func (e *Exporter) Run(ctx context.Context, player *sequencer.RenderingPlayer, path string) (Result, error) {
	if err := e.Validate(); err != nil {
		return Result{}, err
	}
	if player.FPS() != e.FPS {
		return Result{}, fmt.Errorf("%w: player built for %d fps, exporting at %d", ErrInvalidExportConfig, player.FPS(), e.FPS)
	}
	if _, err := frameDir(path); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidExportConfig, err)
	}

	started := time.Now()
	tmp := tempPath(path)
	debug.Log("export", "start %s via %s fps=%d size=%dx%d", path, tmp, e.FPS, e.Width, e.Height)

	opened, err := e.Open(tmp, e.FPS, e.Width, e.Height)
	if err != nil {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			debug.Log("export", "remove %s: %v", tmp, rmErr)
		}
		return Result{}, fmt.Errorf("%w: open %s: %w", ErrExportFailed, path, err)
	}
	sink := Guard(opened)

	discard := func() {
		if err := sink.Abort(); err != nil {
			debug.Log("export", "abort: %v", err)
		}
		if err := os.RemoveAll(tmp); err != nil {
			debug.Log("export", "remove %s: %v", tmp, err)
		}
	}

	total := player.FrameCount()
	logProgress := rate.Sometimes{Interval: time.Second}
	frames := 0

	for {
		if ctx.Err() != nil {
			discard()
			debug.Log("export", "cancelled at frame %d", frames)
			return Result{Frames: frames, Canceled: true, Elapsed: time.Since(started)}, nil
		}

		img := e.Painter.Paint(player, e.Width, e.Height)
		if err := sink.AddFrame(img); err != nil {
			discard()
			return Result{Frames: frames}, fmt.Errorf("%w: frame %d: %w", ErrExportFailed, frames, err)
		}
		frames++

		p := Progress{Frame: frames, Total: total, Tick: player.Tick()}
		if e.Progress != nil {
			e.Progress(p)
		}
		logProgress.Do(func() {
			debug.Log("export", "frame %d/%d tick=%d", p.Frame, p.Total, p.Tick)
		})

		player.AdvanceTo(int64(frames) * 1_000_000 / int64(e.FPS))
		if player.AtEnd() {
			break
		}
	}

	if err := sink.Finish(); err != nil {
		discard()
		return Result{Frames: frames}, fmt.Errorf("%w: finish: %w", ErrExportFailed, err)
	}
	if err := replaceDir(path); err != nil {
		discard()
		return Result{Frames: frames}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			debug.Log("export", "remove %s: %v", tmp, rmErr)
		}
		return Result{Frames: frames}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	res := Result{Path: path, Frames: frames, Elapsed: time.Since(started)}
	debug.Log("export", "%s", res.Summary())
	return res, nil
}

// tempPath returns a hidden sibling of path that keeps its extension, so
// encoders that pick a container from the name still see it
func tempPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+uuid.New().String()+"-"+base)
}

// frameDir reports whether path is a frame directory left by an earlier
// export. Any other existing directory is an error; a missing path or a file
// is neither.
func frameDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		var n int
		_, err := fmt.Sscanf(entry.Name(), FramePattern, &n)
		if err != nil || entry.IsDir() || fmt.Sprintf(FramePattern, n) != entry.Name() {
			return false, fmt.Errorf("%s exists and is not a frame directory", path)
		}
	}
	return true, nil
}

// replaceDir clears an old frame directory at path so Rename can put the new
// one in place. Files are left for Rename to overwrite.
func replaceDir(path string) error {
	old, err := frameDir(path)
	if err != nil || !old {
		return err
	}
	debug.Log("export", "replacing frame directory %s", path)
	return os.RemoveAll(path)
}
