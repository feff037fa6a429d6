// Package runner drives episodes of an environment with a policy.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/flights"
	"go.uber.org/zap"
)

const DefaultMaxSteps int = 100000

var (
	ErrStepLimitExceeded = errors.New("episode exceeded the step limit without terminating")
)

type videoRecorder interface {
	RecordedFiles() []string
}

type Runner struct {
	Env    environment.Env
	Policy Policy
	Flight *flights.Flight
	// MaxSteps bounds a single episode. Zero means DefaultMaxSteps.
	MaxSteps int
	// Seed is passed to the first reset only.
	Seed   *int64
	Logger *zap.Logger

	seeded bool
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) maxSteps() int {
	if r.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return r.MaxSteps
}

// Run plays the flight's episodes and closes the environment on every exit
// path, which also flushes any in-progress recording.
func (r *Runner) Run(ctx context.Context) (err error) {
	defer func() {
		if closeErr := r.Env.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close environment: %w", closeErr))
		}
		if err != nil {
			r.Flight.Abort(err)
		}
	}()

	for i := 0; i < r.Flight.ExpectedEpisodes(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		episode, err := r.RunEpisode(ctx, uint64(i))
		if episode != nil {
			r.Flight.RecordEpisode(episode)
		}
		if err != nil {
			return fmt.Errorf("episode %d: %w", i, err)
		}
	}

	return nil
}

// RunEpisode resets the environment and steps it with the policy until the
// episode terminates or is truncated. On error the partially played episode
// is returned with its error fields set.
func (r *Runner) RunEpisode(ctx context.Context, id uint64) (*flights.Episode, error) {
	log := r.logger().With(zap.Uint64("episode", id))
	episode := &flights.Episode{
		EpisodeId: id,
		Start:     time.Now(),
	}

	videosBefore := 0
	if rec, ok := r.Env.(videoRecorder); ok {
		videosBefore = len(rec.RecordedFiles())
	}

	fail := func(kind string, err error) (*flights.Episode, error) {
		episode.End = time.Now()
		episode.Error = kind
		episode.ErrorMessage = err.Error()
		log.Error("episode failed", zap.String("error", kind), zap.Error(err))
		return episode, err
	}

	opts := environment.ResetOptions{}
	if !r.seeded {
		opts.Seed = r.Seed
		r.seeded = true
	}

	observation, _, err := r.Env.Reset(ctx, opts)
	if err != nil {
		return fail("reset_failed", err)
	}

	maxSteps := r.maxSteps()
	for {
		if err := ctx.Err(); err != nil {
			return fail("canceled", err)
		}
		if episode.Steps >= uint64(maxSteps) {
			return fail("step_limit", fmt.Errorf("%w (%d steps)", ErrStepLimitExceeded, maxSteps))
		}

		action, err := r.Policy.Act(observation)
		if err != nil {
			return fail("policy_failed", err)
		}

		result, err := r.Env.Step(ctx, action)
		if err != nil {
			return fail("step_failed", err)
		}

		episode.Steps++
		episode.Score += result.Reward
		observation = result.Observation

		if result.Terminated || result.Truncated {
			episode.Terminated = result.Terminated
			episode.Truncated = result.Truncated
			if reason, ok := result.Info["disruption"]; ok {
				log.Warn("episode ended early", zap.Any("reason", reason))
			}
			break
		}
	}

	episode.End = time.Now()
	if rec, ok := r.Env.(videoRecorder); ok {
		if files := rec.RecordedFiles(); len(files) > videosBefore {
			episode.VideoPath = files[len(files)-1]
		}
	}

	log.Info("episode finished",
		zap.Uint64("steps", episode.Steps),
		zap.Float64("score", episode.Score),
		zap.Bool("terminated", episode.Terminated),
		zap.Bool("truncated", episode.Truncated),
		zap.Duration("duration", episode.Duration()))

	return episode, nil
}
