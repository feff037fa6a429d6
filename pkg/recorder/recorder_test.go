package recorder_test

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/environment/plasma"
	"github.com/spiceai/plasmagym/pkg/recorder"
	"github.com/spiceai/plasmagym/pkg/spaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countdownEnv struct {
	length    int
	remaining int
	mode      environment.RenderMode
	closed    bool
}

func newCountdownEnv(length int, mode environment.RenderMode) *countdownEnv {
	return &countdownEnv{length: length, mode: mode}
}

func (e *countdownEnv) Reset(ctx context.Context, opts environment.ResetOptions) (interface{}, environment.Info, error) {
	e.remaining = e.length
	return e.remaining, environment.Info{}, nil
}

func (e *countdownEnv) Step(ctx context.Context, action interface{}) (environment.StepResult, error) {
	e.remaining--
	return environment.StepResult{Observation: e.remaining, Terminated: e.remaining <= 0, Info: environment.Info{}}, nil
}

func (e *countdownEnv) Render() (image.Image, error) {
	if e.mode != environment.RenderRGBArray {
		return nil, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.SetRGBA(e.remaining%8, 0, color.RGBA{R: 255, A: 255})
	return img, nil
}

func (e *countdownEnv) ActionSpace() spaces.Space {
	d, _ := spaces.NewDiscrete(1, 0)
	return d
}

func (e *countdownEnv) ObservationSpace() spaces.Space {
	d, _ := spaces.NewDiscrete(e.length+1, 0)
	return d
}

func (e *countdownEnv) Metadata() environment.Metadata {
	return environment.Metadata{RenderModes: []environment.RenderMode{environment.RenderRGBArray}, RenderFPS: 5}
}

func (e *countdownEnv) RenderMode() environment.RenderMode {
	return e.mode
}

func (e *countdownEnv) Close() error {
	e.closed = true
	return nil
}

// frameCounter writes the number of encoded frames to its path on Close.
type frameCounter struct {
	path   string
	frames int
}

func (f *frameCounter) Encode(frame image.Image) error {
	f.frames++
	return nil
}

func (f *frameCounter) Close() error {
	return os.WriteFile(f.path, []byte(fmt.Sprint(f.frames)), 0644)
}

func countingEncoder(path string, fps int) (recorder.Encoder, error) {
	return &frameCounter{path: path}, nil
}

// runEpisode plays one episode with actions sampled from the action space.
func runEpisode(t *testing.T, env environment.Env) int {
	_, _, err := env.Reset(context.Background(), environment.ResetOptions{})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(7))
	steps := 0
	for {
		res, err := env.Step(context.Background(), env.ActionSpace().Sample(rng))
		require.NoError(t, err)
		steps++
		if res.Done() {
			return steps
		}
	}
}

func listDir(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func readFrames(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRecordVideo(t *testing.T) {
	t.Run("NewRecordVideo() -- Should require rgb_array rendering", testRequiresRGBArray())
	t.Run("RecordVideo -- Should write one video per recorded episode", testEpisodeVideo())
	t.Run("RecordVideo -- Should follow the capped cubic schedule by default", testCappedCubicDefault())
	t.Run("RecordVideo -- Should record fixed-length clips from step triggers", testStepTrigger())
	t.Run("Close() -- Should flush an unfinished recording", testCloseFlushes())
	t.Run("RecordVideo -- Should not write a video without frames", testNoFrames())
	t.Run("NewRecordVideo() -- Should reject unsafe name prefixes", testInvalidNamePrefix())
	t.Run("RecordVideo -- Should write a gif of the plasma environment", testPlasmaGIF())
	t.Run("RecordVideo -- Should write an mp4 with ffmpeg", testPlasmaMP4())
	t.Run("NewFFmpegEncoderFactory() -- Should fail when ffmpeg is missing", testMissingFFmpeg())
}

// blankEnv renders no frames even though it reports rgb_array.
type blankEnv struct {
	*countdownEnv
}

func (e *blankEnv) Render() (image.Image, error) {
	return nil, nil
}

func testNoFrames() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		rec, err := recorder.NewRecordVideo(&blankEnv{newCountdownEnv(3, environment.RenderRGBArray)}, recorder.Options{
			Folder:         dir,
			EpisodeTrigger: recorder.Always,
			NewEncoder:     countingEncoder,
			Logger:         zap.NewNop(),
		})
		require.NoError(t, err)

		runEpisode(t, rec)
		require.NoError(t, rec.Close())

		assert.Empty(t, listDir(t, dir))
		assert.Empty(t, rec.RecordedFiles())
	}
}

func testInvalidNamePrefix() func(*testing.T) {
	return func(t *testing.T) {
		_, err := recorder.NewRecordVideo(newCountdownEnv(3, environment.RenderRGBArray), recorder.Options{
			Folder:     t.TempDir(),
			NamePrefix: "../escape",
			Logger:     zap.NewNop(),
		})
		assert.Error(t, err)
	}
}

func testMissingFFmpeg() func(*testing.T) {
	return func(t *testing.T) {
		_, err := recorder.NewFFmpegEncoderFactory("plasmagym-missing-ffmpeg")
		assert.ErrorIs(t, err, exec.ErrNotFound)

		dir := filepath.Join(t.TempDir(), "videos")
		t.Setenv("PATH", t.TempDir())
		_, err = recorder.NewRecordVideo(newCountdownEnv(3, environment.RenderRGBArray), recorder.Options{
			Folder: dir,
			Format: recorder.FormatMP4,
			Logger: zap.NewNop(),
		})
		assert.ErrorIs(t, err, exec.ErrNotFound)
		assert.NoDirExists(t, dir, "nothing should be written before ffmpeg is found")
	}
}

func testRequiresRGBArray() func(*testing.T) {
	return func(t *testing.T) {
		_, err := recorder.NewRecordVideo(newCountdownEnv(3, environment.RenderNone), recorder.Options{Folder: t.TempDir()})
		assert.ErrorIs(t, err, environment.ErrUnsupportedRenderMode)
	}
}

func testEpisodeVideo() func(*testing.T) {
	return func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "videos")
		rec, err := recorder.NewRecordVideo(newCountdownEnv(4, environment.RenderRGBArray), recorder.Options{
			Folder:         dir,
			NamePrefix:     "plasma_simulation",
			EpisodeTrigger: recorder.Always,
			NewEncoder:     countingEncoder,
			Logger:         zap.NewNop(),
		})
		require.NoError(t, err)

		steps := runEpisode(t, rec)
		assert.Equal(t, 4, steps)
		require.NoError(t, rec.Close())

		assert.Equal(t, []string{"plasma_simulation-episode-0.mp4"}, listDir(t, dir))
		// One frame from reset plus one per step.
		assert.Equal(t, "5", readFrames(t, filepath.Join(dir, "plasma_simulation-episode-0.mp4")))
		assert.Equal(t, []string{filepath.Join(rec.Folder(), "plasma_simulation-episode-0.mp4")}, rec.RecordedFiles())
		assert.True(t, environment.Unwrapped(rec).(*countdownEnv).closed)
	}
}

func testCappedCubicDefault() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		rec, err := recorder.NewRecordVideo(newCountdownEnv(2, environment.RenderRGBArray), recorder.Options{
			Folder:     dir,
			NewEncoder: countingEncoder,
			Logger:     zap.NewNop(),
		})
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			runEpisode(t, rec)
		}
		require.NoError(t, rec.Close())

		assert.Equal(t, []string{
			"rl-video-episode-0.mp4",
			"rl-video-episode-1.mp4",
			"rl-video-episode-8.mp4",
		}, listDir(t, dir))
	}
}

func testStepTrigger() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		rec, err := recorder.NewRecordVideo(newCountdownEnv(10, environment.RenderRGBArray), recorder.Options{
			Folder:      dir,
			NamePrefix:  "clip",
			StepTrigger: func(step int) bool { return step == 3 },
			VideoLength: 4,
			NewEncoder:  countingEncoder,
			Logger:      zap.NewNop(),
		})
		require.NoError(t, err)

		runEpisode(t, rec)
		assert.False(t, rec.IsRecording())
		require.NoError(t, rec.Close())

		assert.Equal(t, []string{"clip-step-3.mp4"}, listDir(t, dir))
		assert.Equal(t, "4", readFrames(t, filepath.Join(dir, "clip-step-3.mp4")))
	}
}

func testCloseFlushes() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		rec, err := recorder.NewRecordVideo(newCountdownEnv(10, environment.RenderRGBArray), recorder.Options{
			Folder:         dir,
			EpisodeTrigger: recorder.Always,
			NewEncoder:     countingEncoder,
			Logger:         zap.NewNop(),
		})
		require.NoError(t, err)

		_, _, err = rec.Reset(context.Background(), environment.ResetOptions{})
		require.NoError(t, err)
		_, err = rec.Step(context.Background(), 0)
		require.NoError(t, err)
		assert.True(t, rec.IsRecording())

		require.NoError(t, rec.Close())
		require.NoError(t, rec.Close())
		assert.Equal(t, "2", readFrames(t, filepath.Join(dir, "rl-video-episode-0.mp4")))

		_, err = rec.Step(context.Background(), 0)
		assert.ErrorIs(t, err, environment.ErrClosed)
	}
}

func newPlasmaRecorder(t *testing.T, dir string, format recorder.Format) (*recorder.RecordVideo, error) {
	env, err := environment.Make(plasma.IterHybridEnvId,
		environment.WithRenderMode(environment.RenderRGBArray),
		environment.WithMaxEpisodeSteps(12))
	require.NoError(t, err)

	return recorder.NewRecordVideo(env, recorder.Options{
		Folder:         dir,
		NamePrefix:     "plasma_simulation",
		EpisodeTrigger: recorder.Always,
		Format:         format,
		Logger:         zap.NewNop(),
	})
}

func testPlasmaGIF() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		rec, err := newPlasmaRecorder(t, dir, recorder.FormatGIF)
		require.NoError(t, err)

		steps := runEpisode(t, rec)
		require.NoError(t, rec.Close())
		assert.Equal(t, 12, steps)

		assert.Equal(t, []string{"plasma_simulation-episode-0.gif"}, listDir(t, dir))

		f, err := os.Open(filepath.Join(dir, "plasma_simulation-episode-0.gif"))
		require.NoError(t, err)
		defer f.Close()

		anim, err := gif.DecodeAll(f)
		require.NoError(t, err)
		assert.Len(t, anim.Image, steps+1)
		assert.Equal(t, 10, anim.Delay[0])
		assert.Equal(t, 480, anim.Config.Width)
	}
}

func testPlasmaMP4() func(*testing.T) {
	return func(t *testing.T) {
		if _, err := exec.LookPath(recorder.DefaultFFmpegPath); err != nil {
			t.Skip("ffmpeg not installed")
		}

		dir := t.TempDir()
		rec, err := newPlasmaRecorder(t, dir, recorder.FormatMP4)
		require.NoError(t, err)

		runEpisode(t, rec)
		require.NoError(t, rec.Close())

		assert.Equal(t, []string{"plasma_simulation-episode-0.mp4"}, listDir(t, dir))
		stat, err := os.Stat(filepath.Join(dir, "plasma_simulation-episode-0.mp4"))
		require.NoError(t, err)
		assert.Greater(t, stat.Size(), int64(0))
	}
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		input    string
		episodes []int
		fires    []bool
		wantErr  bool
	}{
		{input: "always", episodes: []int{0, 1, 2}, fires: []bool{true, true, true}},
		{input: "never", episodes: []int{0, 1}, fires: []bool{false, false}},
		{input: "cubic", episodes: []int{0, 1, 2, 8, 27, 999, 1000, 2000, 2001}, fires: []bool{true, true, false, true, true, false, true, true, false}},
		{input: "every:3", episodes: []int{0, 1, 3, 4, 6}, fires: []bool{true, false, true, false, true}},
		{input: "every:0", wantErr: true},
		{input: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		trigger, err := recorder.ParseTrigger(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		for i, ep := range tt.episodes {
			assert.Equal(t, tt.fires[i], trigger(ep), "%s episode %d", tt.input, ep)
		}
	}
}

func TestParseFormat(t *testing.T) {
	f, err := recorder.ParseFormat("")
	assert.NoError(t, err)
	assert.Equal(t, recorder.FormatMP4, f)

	f, err = recorder.ParseFormat("GIF")
	assert.NoError(t, err)
	assert.Equal(t, ".gif", f.Extension())

	_, err = recorder.ParseFormat("avi")
	assert.Error(t, err)
}
