package recorder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

const DefaultFFmpegPath = "ffmpeg"

// NewFFmpegEncoderFactory returns a factory for H.264 mp4 encoders backed by
// an ffmpeg subprocess. It fails when binary cannot be found.
func NewFFmpegEncoderFactory(binary string) (EncoderFactory, error) {
	if binary == "" {
		binary = DefaultFFmpegPath
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg is required to write mp4 videos: %w", err)
	}
	return func(path string, fps int) (Encoder, error) {
		return &ffmpegEncoder{binary: resolved, path: path, fps: fps}, nil
	}, nil
}

// ffmpegEncoder streams raw RGBA frames to ffmpeg's stdin. ffmpeg is started
// on the first frame, once the frame size is known.
type ffmpegEncoder struct {
	binary string
	path   string
	fps    int

	bounds image.Rectangle
	cmd    *exec.Cmd
	stderr bytes.Buffer
	frames chan []byte
	group  *errgroup.Group
	ctx    context.Context
}

func (e *ffmpegEncoder) args(width, height int) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(e.fps),
		"-i", "-",
		"-an",
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-f", "mp4",
		partialPath(e.path),
	}
}

func (e *ffmpegEncoder) start(bounds image.Rectangle) error {
	group, ctx := errgroup.WithContext(context.Background())

	cmd := exec.CommandContext(ctx, e.binary, e.args(bounds.Dx(), bounds.Dy())...)
	cmd.Stderr = &e.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	e.bounds = bounds
	e.cmd = cmd
	e.group = group
	e.ctx = ctx
	e.frames = make(chan []byte, 8)

	group.Go(func() error {
		return writeFrames(stdin, e.frames)
	})
	group.Go(cmd.Wait)

	return nil
}

func writeFrames(w io.WriteCloser, frames <-chan []byte) error {
	defer w.Close()
	for frame := range frames {
		if _, err := w.Write(frame); err != nil {
			return fmt.Errorf("failed to write frame to ffmpeg: %w", err)
		}
	}
	return nil
}

func (e *ffmpegEncoder) Encode(frame image.Image) error {
	if e.cmd == nil {
		if err := e.start(frame.Bounds()); err != nil {
			return err
		}
	}
	if frame.Bounds().Size() != e.bounds.Size() {
		return fmt.Errorf("frame size %v differs from video size %v", frame.Bounds().Size(), e.bounds.Size())
	}

	// The writer goroutine owns the buffer once sent.
	buf := append([]byte(nil), frameBytes(frame)...)
	select {
	case e.frames <- buf:
		return nil
	case <-e.ctx.Done():
		return fmt.Errorf("ffmpeg stopped: %s", e.stderrMessage())
	}
}

func (e *ffmpegEncoder) Close() error {
	if e.cmd == nil {
		return nil
	}
	close(e.frames)
	e.cmd = nil

	partial := partialPath(e.path)
	if err := e.group.Wait(); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("ffmpeg failed writing '%s': %w: %s", e.path, err, e.stderrMessage())
	}
	if err := os.Rename(partial, e.path); err != nil {
		return fmt.Errorf("failed to move video into place: %w", err)
	}
	return nil
}

func (e *ffmpegEncoder) stderrMessage() string {
	return strings.TrimSpace(e.stderr.String())
}
