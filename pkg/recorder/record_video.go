// Package recorder captures rendered frames of selected episodes into video files.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/loggers"
	"github.com/spiceai/plasmagym/pkg/util"
	"github.com/spiceai/plasmagym/pkg/validator"
	"go.uber.org/zap"
)

const (
	DefaultNamePrefix string = "rl-video"
	DefaultFPS        int    = 30
)

type Options struct {
	Folder     string
	NamePrefix string

	// EpisodeTrigger and StepTrigger select what to record. When both are nil,
	// CappedCubic is used.
	EpisodeTrigger EpisodeTrigger
	StepTrigger    StepTrigger

	// VideoLength caps the frames per video. Zero records until the episode ends.
	VideoLength int
	// FPS overrides the environment's render FPS when non-zero.
	FPS    int
	Format Format
	// NewEncoder overrides the encoder chosen by Format.
	NewEncoder EncoderFactory
	Logger     *zap.Logger
}

// RecordVideo records rendered frames of triggered episodes, or of fixed-length
// clips starting at triggered steps. Files are named
// <prefix>-episode-<n>.<ext> or <prefix>-step-<n>.<ext>.
type RecordVideo struct {
	environment.Wrapper

	folder         string
	namePrefix     string
	episodeTrigger EpisodeTrigger
	stepTrigger    StepTrigger
	videoLength    int
	fps            int
	format         Format
	newEncoder     EncoderFactory
	log            *zap.Logger

	episodeId int
	stepId    int

	recording      bool
	encoder        Encoder
	videoPath      string
	recordedFrames int
	files          []string
	closed         bool
}

func NewRecordVideo(env environment.Env, opts Options) (*RecordVideo, error) {
	if env.RenderMode() != environment.RenderRGBArray {
		return nil, fmt.Errorf("%w: recording requires render mode '%s', got '%s'",
			environment.ErrUnsupportedRenderMode, environment.RenderRGBArray, env.RenderMode())
	}
	if opts.VideoLength < 0 {
		return nil, fmt.Errorf("video length must not be negative, got %d", opts.VideoLength)
	}

	namePrefix := opts.NamePrefix
	if namePrefix == "" {
		namePrefix = DefaultNamePrefix
	}
	if !validator.ValidateNamePrefix(namePrefix) {
		return nil, fmt.Errorf("invalid video name prefix '%s'", namePrefix)
	}

	folder, err := filepath.Abs(opts.Folder)
	if err != nil {
		return nil, fmt.Errorf("invalid video folder '%s': %w", opts.Folder, err)
	}

	format := opts.Format
	if format == "" {
		format = FormatMP4
	}

	newEncoder := opts.NewEncoder
	if newEncoder == nil {
		switch format {
		case FormatMP4:
			newEncoder, err = NewFFmpegEncoderFactory(DefaultFFmpegPath)
			if err != nil {
				return nil, err
			}
		case FormatGIF:
			newEncoder = NewGIFEncoderFactory()
		default:
			return nil, fmt.Errorf("unsupported video format '%s'", format)
		}
	}

	log := opts.Logger
	if log == nil {
		log = loggers.ZapLogger()
	}
	if log == nil {
		log = zap.NewNop()
	}

	if stat, err := os.Stat(folder); err == nil {
		if !stat.IsDir() {
			return nil, fmt.Errorf("video folder '%s' is not a directory", folder)
		}
		log.Warn("video folder already exists, videos with the same name will be overwritten", zap.String("folder", folder))
	} else if err := util.MkDirAllInheritPerm(folder); err != nil {
		return nil, fmt.Errorf("failed to create video folder '%s': %w", folder, err)
	}

	fps := opts.FPS
	if fps <= 0 {
		fps = env.Metadata().RenderFPS
	}
	if fps <= 0 {
		fps = DefaultFPS
	}

	episodeTrigger := opts.EpisodeTrigger
	if episodeTrigger == nil && opts.StepTrigger == nil {
		episodeTrigger = CappedCubic
	}

	return &RecordVideo{
		Wrapper:        environment.Wrapper{Env: env},
		folder:         folder,
		namePrefix:     namePrefix,
		episodeTrigger: episodeTrigger,
		stepTrigger:    opts.StepTrigger,
		videoLength:    opts.VideoLength,
		fps:            fps,
		format:         format,
		newEncoder:     newEncoder,
		log:            log,
		episodeId:      -1,
	}, nil
}

func (r *RecordVideo) Folder() string {
	return r.folder
}

// RecordedFiles returns the videos written so far, in order.
func (r *RecordVideo) RecordedFiles() []string {
	return append([]string(nil), r.files...)
}

func (r *RecordVideo) IsRecording() bool {
	return r.recording
}

func (r *RecordVideo) Reset(ctx context.Context, opts environment.ResetOptions) (interface{}, environment.Info, error) {
	if r.closed {
		return nil, nil, environment.ErrClosed
	}

	obs, info, err := r.Env.Reset(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	if r.recording && r.videoLength == 0 {
		if err := r.stopRecording(); err != nil {
			return nil, nil, err
		}
	}

	r.episodeId++
	if r.episodeTrigger != nil && r.episodeTrigger(r.episodeId) {
		if err := r.startRecording(fmt.Sprintf("%s-episode-%d", r.namePrefix, r.episodeId)); err != nil {
			return nil, nil, err
		}
	}

	if r.recording {
		if err := r.captureFrame(); err != nil {
			return nil, nil, err
		}
	}

	return obs, info, nil
}

func (r *RecordVideo) Step(ctx context.Context, action interface{}) (environment.StepResult, error) {
	if r.closed {
		return environment.StepResult{}, environment.ErrClosed
	}

	res, err := r.Env.Step(ctx, action)
	if err != nil {
		return res, err
	}

	r.stepId++
	if r.stepTrigger != nil && r.stepTrigger(r.stepId) {
		if err := r.startRecording(fmt.Sprintf("%s-step-%d", r.namePrefix, r.stepId)); err != nil {
			return res, err
		}
	}

	if r.recording {
		if err := r.captureFrame(); err != nil {
			return res, err
		}
		if res.Done() && r.videoLength == 0 {
			if err := r.stopRecording(); err != nil {
				return res, err
			}
		}
	}

	return res, nil
}

// Close writes any in-progress video and closes the wrapped environment.
func (r *RecordVideo) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	stopErr := r.stopRecording()
	closeErr := r.Env.Close()
	return errors.Join(stopErr, closeErr)
}

func (r *RecordVideo) startRecording(name string) error {
	if r.recording {
		if err := r.stopRecording(); err != nil {
			return err
		}
	}

	r.recording = true
	r.recordedFrames = 0
	r.videoPath = filepath.Join(r.folder, name+r.format.Extension())
	return nil
}

func (r *RecordVideo) captureFrame() error {
	frame, err := r.Env.Render()
	if err != nil {
		return fmt.Errorf("failed to render frame for '%s': %w", r.videoPath, err)
	}
	if frame == nil {
		r.log.Warn("render returned no frame, recording stopped", zap.String("video", r.videoPath))
		return r.stopRecording()
	}

	if r.encoder == nil {
		encoder, err := r.newEncoder(r.videoPath, r.fps)
		if err != nil {
			r.recording = false
			return err
		}
		r.encoder = encoder
	}

	if err := r.encoder.Encode(frame); err != nil {
		return fmt.Errorf("failed to encode frame for '%s': %w", r.videoPath, err)
	}
	r.recordedFrames++

	if r.videoLength > 0 && r.recordedFrames >= r.videoLength {
		return r.stopRecording()
	}
	return nil
}

func (r *RecordVideo) stopRecording() error {
	if !r.recording {
		return nil
	}
	r.recording = false

	if r.recordedFrames == 0 || r.encoder == nil {
		r.log.Warn("no frames were captured, video not written", zap.String("video", r.videoPath))
		return nil
	}

	encoder := r.encoder
	r.encoder = nil
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to write video '%s': %w", r.videoPath, err)
	}

	r.files = append(r.files, r.videoPath)
	r.log.Info("video saved", zap.String("video", r.videoPath), zap.Int("frames", r.recordedFrames), zap.Int("fps", r.fps))
	return nil
}
