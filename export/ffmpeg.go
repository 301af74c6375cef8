package export

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
)

// DefaultCodec is the video codec passed to ffmpeg
const DefaultCodec = "libx264"

// FFmpeg encodes frames by piping raw RGBA into an ffmpeg process
type FFmpeg struct {
	Binary string // defaults to "ffmpeg"
	Codec  string // defaults to DefaultCodec
}

// Args returns the ffmpeg command line for an output
func (f FFmpeg) Args(path string, fps, width, height int) []string {
	codec := f.Codec
	if codec == "" {
		codec = DefaultCodec
	}
	return []string{
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-preset", "veryfast",
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
		"-tune", "animation",
		"-loglevel", "error",
		"-y",
		path,
	}
}

// Open starts ffmpeg writing to path. It satisfies OpenFunc.
func (f FFmpeg) Open(path string, fps, width, height int) (FrameSink, error) {
	binary := f.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	args := f.Args(path, fps, width, height)

	cmd := exec.Command(binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	return &ffmpegSink{
		cmd:     cmd,
		stdin:   stdin,
		stderr:  &stderr,
		cmdLine: binary + " " + strings.Join(args, " "),
		frame:   image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

type ffmpegSink struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *bytes.Buffer
	cmdLine string
	frame   *image.RGBA
}

func (s *ffmpegSink) AddFrame(img image.Image) error {
	pix := s.frame.Pix
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds() == s.frame.Bounds() && rgba.Stride == s.frame.Stride {
		pix = rgba.Pix
	} else {
		draw.Draw(s.frame, s.frame.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	if _, err := s.stdin.Write(pix); err != nil {
		return fmt.Errorf("write frame to ffmpeg: %w: %s", err, s.stderr.String())
	}
	return nil
}

func (s *ffmpegSink) Finish() error {
	if err := s.stdin.Close(); err != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
		return fmt.Errorf("close ffmpeg input: %w", err)
	}
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("error executing FFmpeg command: %s; %w: %s", s.cmdLine, err, s.stderr.String())
	}
	return nil
}

func (s *ffmpegSink) Abort() error {
	s.stdin.Close()
	if s.cmd.ProcessState != nil {
		// already reaped by Finish
		return nil
	}
	s.cmd.Process.Kill()
	s.cmd.Wait()
	return nil
}
