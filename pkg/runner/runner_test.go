package runner_test

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/environment/plasma"
	"github.com/spiceai/plasmagym/pkg/flights"
	"github.com/spiceai/plasmagym/pkg/recorder"
	"github.com/spiceai/plasmagym/pkg/runner"
	"github.com/spiceai/plasmagym/pkg/spaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedEnv terminates after length steps, or never when length is zero.
type scriptedEnv struct {
	length   int
	steps    int
	stepErr  error
	closed   int
	lastSeed *int64
	resets   int
}

func (e *scriptedEnv) Reset(ctx context.Context, opts environment.ResetOptions) (interface{}, environment.Info, error) {
	e.steps = 0
	e.resets++
	e.lastSeed = opts.Seed
	return 0, environment.Info{}, nil
}

func (e *scriptedEnv) Step(ctx context.Context, action interface{}) (environment.StepResult, error) {
	if e.stepErr != nil {
		return environment.StepResult{}, e.stepErr
	}
	e.steps++
	return environment.StepResult{
		Observation: e.steps,
		Reward:      0.5,
		Terminated:  e.length > 0 && e.steps >= e.length,
		Info:        environment.Info{},
	}, nil
}

func (e *scriptedEnv) Render() (image.Image, error) {
	return nil, nil
}

func (e *scriptedEnv) ActionSpace() spaces.Space {
	d, _ := spaces.NewDiscrete(2, 0)
	return d
}

func (e *scriptedEnv) ObservationSpace() spaces.Space {
	d, _ := spaces.NewDiscrete(1000, 0)
	return d
}

func (e *scriptedEnv) Metadata() environment.Metadata {
	return environment.Metadata{}
}

func (e *scriptedEnv) RenderMode() environment.RenderMode {
	return environment.RenderNone
}

func (e *scriptedEnv) Close() error {
	e.closed++
	return nil
}

func newRunner(env environment.Env, episodes int) *runner.Runner {
	return &runner.Runner{
		Env:    env,
		Policy: runner.NewRandomPolicy(env.ActionSpace(), 1),
		Flight: flights.NewFlight("test/Scripted-v0", episodes),
		Logger: zap.NewNop(),
	}
}

func TestRunner(t *testing.T) {
	t.Run("Run() -- Should play every episode and close the environment", testRunEpisodes())
	t.Run("Run() -- Should stop at the step limit", testStepLimit())
	t.Run("Run() -- Should close the environment when a step fails", testStepError())
	t.Run("Run() -- Should stop when the context is canceled", testCanceled())
	t.Run("Run() -- Should record one plasma video per episode", testPlasmaRecording())
}

func testRunEpisodes() func(*testing.T) {
	return func(t *testing.T) {
		env := &scriptedEnv{length: 7}
		r := newRunner(env, 3)
		seed := int64(5)
		r.Seed = &seed

		require.NoError(t, r.Run(context.Background()))

		episodes := r.Flight.Episodes()
		require.Len(t, episodes, 3)
		for i, ep := range episodes {
			assert.EqualValues(t, i, ep.EpisodeId)
			assert.EqualValues(t, 7, ep.Steps)
			assert.Equal(t, 3.5, ep.Score)
			assert.True(t, ep.Terminated)
			assert.Empty(t, ep.Error)
		}

		assert.Equal(t, 1, env.closed)
		assert.Equal(t, 3, env.resets)
		assert.Nil(t, env.lastSeed, "only the first reset is seeded")
		assert.True(t, r.Flight.IsComplete())
	}
}

func testStepLimit() func(*testing.T) {
	return func(t *testing.T) {
		env := &scriptedEnv{}
		r := newRunner(env, 1)
		r.MaxSteps = 25

		err := r.Run(context.Background())
		assert.ErrorIs(t, err, runner.ErrStepLimitExceeded)
		assert.Equal(t, 25, env.steps)
		assert.Equal(t, 1, env.closed)

		episodes := r.Flight.Episodes()
		require.Len(t, episodes, 1)
		assert.Equal(t, "step_limit", episodes[0].Error)
		assert.Error(t, r.Flight.Err())
	}
}

func testStepError() func(*testing.T) {
	return func(t *testing.T) {
		stepErr := errors.New("solver diverged")
		env := &scriptedEnv{length: 3, stepErr: stepErr}
		r := newRunner(env, 2)

		err := r.Run(context.Background())
		assert.ErrorIs(t, err, stepErr)
		assert.Equal(t, 1, env.closed)
		assert.Len(t, r.Flight.Episodes(), 1)
		assert.True(t, r.Flight.IsComplete())
	}
}

func testCanceled() func(*testing.T) {
	return func(t *testing.T) {
		env := &scriptedEnv{}
		r := newRunner(env, 1)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := r.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, env.closed)
		assert.True(t, r.Flight.IsComplete())
	}
}

func testPlasmaRecording() func(*testing.T) {
	return func(t *testing.T) {
		env, err := environment.Make(plasma.IterHybridEnvId,
			environment.WithRenderMode(environment.RenderRGBArray),
			environment.WithMaxEpisodeSteps(5))
		require.NoError(t, err)

		dir := filepath.Join(t.TempDir(), "videos")
		rec, err := recorder.NewRecordVideo(env, recorder.Options{
			Folder:         dir,
			NamePrefix:     "plasma_simulation",
			EpisodeTrigger: recorder.Always,
			Format:         recorder.FormatGIF,
			Logger:         zap.NewNop(),
		})
		require.NoError(t, err)

		r := newRunner(rec, 2)
		require.NoError(t, r.Run(context.Background()))

		episodes := r.Flight.Episodes()
		require.Len(t, episodes, 2)
		assert.True(t, episodes[0].Truncated)
		assert.Equal(t, filepath.Join(rec.Folder(), "plasma_simulation-episode-1.gif"), episodes[1].VideoPath)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	}
}
