package export

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// FramePattern names the files of a PNG sequence, the input pattern ffmpeg
// expects with -i dir/fr%05d.png
const FramePattern = "fr%05d.png"

// OpenPNG writes every frame as a numbered PNG into the directory path. It
// satisfies OpenFunc.
func OpenPNG(path string, fps, width, height int) (FrameSink, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	return &pngSink{dir: path}, nil
}

type pngSink struct {
	dir  string
	next int
}

func (s *pngSink) AddFrame(img image.Image) error {
	name := filepath.Join(s.dir, fmt.Sprintf(FramePattern, s.next))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.next++
	return nil
}

func (s *pngSink) Finish() error {
	return nil
}

func (s *pngSink) Abort() error {
	return os.RemoveAll(s.dir)
}
