package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/spiceai/plasmagym/pkg/config"
	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/flights"
	plasmahttp "github.com/spiceai/plasmagym/pkg/http"
	"github.com/spiceai/plasmagym/pkg/loggers"
	"github.com/spiceai/plasmagym/pkg/recorder"
	"github.com/spiceai/plasmagym/pkg/runner"
	"github.com/spiceai/plasmagym/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runFlagKeys = map[string]string{
	"env":               "env_id",
	"render-mode":       "render_mode",
	"episodes":          "episodes",
	"seed":              "seed",
	"max-steps":         "max_steps",
	"max-episode-steps": "max_episode_steps",
	"http-port":         "http_port",
	"log-dir":           "log_dir",
	"stats-file":        "stats_file",
	"video":             "video.enabled",
	"video-folder":      "video.folder",
	"name-prefix":       "video.name_prefix",
	"trigger":           "video.trigger",
	"video-length":      "video.video_length",
	"fps":               "video.fps",
	"format":            "video.format",
	"ffmpeg":            "video.ffmpeg_path",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run episodes with a random agent, recording them to video",
	Example: `
plasmagym run
plasmagym run --episodes 3 --seed 42 --format gif
plasmagym run --trigger every:10 --episodes 100 --http-port 8000
`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := newViper()
		setChangedFlags(cmd.Flags(), v, runFlagKeys)

		runConfig, err := config.LoadRunConfiguration(v, config.AppPath())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runFlight(ctx, runConfig, cmd.OutOrStdout())
	},
}

type episodeSummary struct {
	Episode uint64 `csv:"episode"`
	Steps   uint64 `csv:"steps"`
	Score   string `csv:"score"`
	Outcome string `csv:"outcome"`
	Video   string `csv:"video"`
}

func outcome(e *flights.Episode) string {
	switch {
	case e.Error != "":
		return e.Error
	case e.Terminated:
		return "terminated"
	case e.Truncated:
		return "truncated"
	}
	return "incomplete"
}

func newRecorder(env environment.Env, videoConfig *config.VideoConfiguration, logger *zap.Logger) (*recorder.RecordVideo, error) {
	trigger, err := recorder.ParseTrigger(videoConfig.Trigger)
	if err != nil {
		return nil, err
	}
	format, err := recorder.ParseFormat(videoConfig.Format)
	if err != nil {
		return nil, err
	}

	opts := recorder.Options{
		Folder:         videoConfig.Folder,
		NamePrefix:     videoConfig.NamePrefix,
		EpisodeTrigger: trigger,
		VideoLength:    videoConfig.VideoLength,
		FPS:            videoConfig.FPS,
		Format:         format,
		Logger:         logger,
	}
	if format == recorder.FormatMP4 {
		opts.NewEncoder, err = recorder.NewFFmpegEncoderFactory(videoConfig.FFmpegPath)
		if err != nil {
			return nil, err
		}
	}

	return recorder.NewRecordVideo(env, opts)
}

// runFlight makes the configured environment, wraps it for recording and
// plays all episodes with a random policy. The environment is closed on
// every return path.
func runFlight(ctx context.Context, runConfig *config.RunConfiguration, out io.Writer) error {
	logger := loggers.ZapLogger()
	if logger == nil {
		logger = zap.NewNop()
	}
	if runConfig.LogDir != "" {
		fileLogger, logPath, err := loggers.NewFileLogger("plasmagym", runConfig.LogDir)
		if err != nil {
			return err
		}
		logger = loggers.Tee(logger, fileLogger)
		loggers.SetZapLogger(logger)
		fmt.Fprintf(out, "Logging to %s\n", aurora.BrightCyan(config.GetAppRelativePath(logPath)))
	}
	defer loggers.ZapLoggerSync()

	renderMode, err := environment.ParseRenderMode(runConfig.RenderMode)
	if err != nil {
		return err
	}
	makeOpts := []environment.MakeOption{environment.WithRenderMode(renderMode)}
	if runConfig.MaxEpisodeSteps > 0 {
		makeOpts = append(makeOpts, environment.WithMaxEpisodeSteps(runConfig.MaxEpisodeSteps))
	}

	env, err := environment.Make(runConfig.EnvId, makeOpts...)
	if err != nil {
		return err
	}

	if runConfig.Video != nil && runConfig.Video.Enabled {
		rec, err := newRecorder(env, runConfig.Video, logger)
		if err != nil {
			_ = env.Close()
			return err
		}
		env = rec
	}

	seed := time.Now().UnixNano()
	if runConfig.Seed != nil {
		seed = *runConfig.Seed
	}

	flight := flights.NewFlight(runConfig.EnvId, runConfig.Episodes)
	store := flights.NewStore()
	store.Add(flight)

	r := &runner.Runner{
		Env:      env,
		Policy:   runner.NewRandomPolicy(env.ActionSpace(), seed),
		Flight:   flight,
		MaxSteps: runConfig.MaxSteps,
		Seed:     runConfig.Seed,
		Logger:   logger.With(zap.String("flight", flight.Id())),
	}

	fmt.Fprintf(out, "Running %d episode(s) of %s\n", runConfig.Episodes, aurora.BrightCyan(runConfig.EnvId))

	var runErr error
	if runConfig.HttpPort != 0 {
		server := plasmahttp.NewServer(runConfig.HttpPort, store)
		if err := server.Listen(); err != nil {
			_ = env.Close()
			return err
		}
		fmt.Fprintln(out, aurora.Green(fmt.Sprintf("Listening on %s", runConfig.ServerBaseUrl())))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(server.Serve)
		g.Go(func() error {
			defer func() {
				if err := server.Shutdown(); err != nil {
					logger.Warn("failed to shut down server", zap.Error(err))
				}
			}()
			return r.Run(gctx)
		})
		runErr = g.Wait()
	} else {
		runErr = r.Run(ctx)
	}

	if runConfig.StatsFile != "" {
		if err := flight.SaveEpisodesCsv(runConfig.StatsFile); err != nil {
			logger.Error("failed to save episode stats", zap.String("path", runConfig.StatsFile), zap.Error(err))
		}
	}

	summaries := make([]*episodeSummary, 0)
	for _, e := range flight.Episodes() {
		video := ""
		if e.VideoPath != "" {
			video = config.GetAppRelativePath(e.VideoPath)
		}
		summaries = append(summaries, &episodeSummary{
			Episode: e.EpisodeId,
			Steps:   e.Steps,
			Score:   fmt.Sprintf("%.3f", e.Score),
			Outcome: outcome(e),
			Video:   video,
		})
	}
	if len(summaries) > 0 {
		if err := util.MarshalAndPrintTable(out, summaries); err != nil {
			logger.Warn("failed to print episode summary", zap.Error(err))
		}
	}

	if runErr != nil {
		fmt.Fprintln(out, aurora.Red(fmt.Sprintf("Flight %s failed: %s", flight.Id(), runErr.Error())))
		return runErr
	}

	fmt.Fprintln(out, aurora.Green(fmt.Sprintf("Flight %s completed in %.2f seconds with total score %.3f",
		flight.Id(), flight.Duration().Seconds(), flight.TotalScore())))
	return nil
}

func init() {
	d := config.LoadDefaultConfiguration()
	flags := runCmd.Flags()
	flags.String("env", d.EnvId, "Environment id")
	flags.String("render-mode", d.RenderMode, "Render mode, either 'rgb_array' or 'none'")
	flags.Int("episodes", d.Episodes, "Number of episodes to run")
	flags.Int64("seed", 0, "Seed for the first reset and the random agent (random when unset)")
	flags.Int("max-steps", d.MaxSteps, "Step guard for a single episode")
	flags.Int("max-episode-steps", 0, "Override the environment's time limit (0 keeps the registered limit)")
	flags.Uint("http-port", 0, "Serve flight progress on this port (0 disables the server)")
	flags.String("log-dir", "", "Also write logs to a rotating file in this directory")
	flags.String("stats-file", "", "Write per-episode stats to this CSV file")
	flags.Bool("video", d.Video.Enabled, "Record videos")
	flags.String("video-folder", d.Video.Folder, "Folder to write videos to")
	flags.String("name-prefix", d.Video.NamePrefix, "Video file name prefix")
	flags.String("trigger", d.Video.Trigger, "Episodes to record: 'always', 'never', 'cubic' or 'every:N'")
	flags.Int("video-length", d.Video.VideoLength, "Frames per video (0 records whole episodes)")
	flags.Int("fps", d.Video.FPS, "Video frame rate (0 uses the environment's render FPS)")
	flags.String("format", d.Video.Format, "Video format, either 'mp4' or 'gif'")
	flags.String("ffmpeg", d.Video.FFmpegPath, "Path to the ffmpeg binary")
	flags.BoolP("help", "h", false, "Print this help message")
	RootCmd.AddCommand(runCmd)
}
