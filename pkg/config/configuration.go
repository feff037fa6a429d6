package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/recorder"
	"github.com/spiceai/plasmagym/pkg/util"
	"gopkg.in/yaml.v2"
)

var (
	EnvVarPrefix string = "PLASMAGYM_"
)

type RunConfiguration struct {
	EnvId      string `json:"env_id,omitempty" mapstructure:"env_id" yaml:"env_id,omitempty"`
	RenderMode string `json:"render_mode,omitempty" mapstructure:"render_mode" yaml:"render_mode,omitempty"`
	Episodes   int    `json:"episodes,omitempty" mapstructure:"episodes" yaml:"episodes,omitempty"`
	Seed       *int64 `json:"seed,omitempty" mapstructure:"seed" yaml:"seed,omitempty"`
	// MaxSteps bounds every episode, independent of the environment's own time limit.
	MaxSteps int `json:"max_steps,omitempty" mapstructure:"max_steps" yaml:"max_steps,omitempty"`
	// MaxEpisodeSteps overrides the environment's registered time limit when non-zero.
	MaxEpisodeSteps int                 `json:"max_episode_steps,omitempty" mapstructure:"max_episode_steps" yaml:"max_episode_steps,omitempty"`
	HttpPort        uint                `json:"http_port,omitempty" mapstructure:"http_port" yaml:"http_port,omitempty"`
	LogDir          string              `json:"log_dir,omitempty" mapstructure:"log_dir" yaml:"log_dir,omitempty"`
	StatsFile       string              `json:"stats_file,omitempty" mapstructure:"stats_file" yaml:"stats_file,omitempty"`
	Video           *VideoConfiguration `json:"video,omitempty" mapstructure:"video" yaml:"video,omitempty"`
}

type VideoConfiguration struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Folder      string `json:"folder,omitempty" mapstructure:"folder" yaml:"folder,omitempty"`
	NamePrefix  string `json:"name_prefix,omitempty" mapstructure:"name_prefix" yaml:"name_prefix,omitempty"`
	Trigger     string `json:"trigger,omitempty" mapstructure:"trigger" yaml:"trigger,omitempty"`
	VideoLength int    `json:"video_length,omitempty" mapstructure:"video_length" yaml:"video_length,omitempty"`
	FPS         int    `json:"fps,omitempty" mapstructure:"fps" yaml:"fps,omitempty"`
	Format      string `json:"format,omitempty" mapstructure:"format" yaml:"format,omitempty"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty" mapstructure:"ffmpeg_path" yaml:"ffmpeg_path,omitempty"`
}

// LoadDefaultConfiguration records every episode of the ITER hybrid scenario
// to ./videos/plasma_simulation-episode-<n>.mp4.
func LoadDefaultConfiguration() *RunConfiguration {
	return &RunConfiguration{
		EnvId:      "gymtorax/IterHybrid-v0",
		RenderMode: string(environment.RenderRGBArray),
		Episodes:   1,
		MaxSteps:   100000,
		Video: &VideoConfiguration{
			Enabled:    true,
			Folder:     "./videos",
			NamePrefix: "plasma_simulation",
			Trigger:    "always",
			Format:     string(recorder.FormatMP4),
			FFmpegPath: recorder.DefaultFFmpegPath,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := LoadDefaultConfiguration()
	v.SetDefault("env_id", d.EnvId)
	v.SetDefault("render_mode", d.RenderMode)
	v.SetDefault("episodes", d.Episodes)
	v.SetDefault("max_steps", d.MaxSteps)
	v.SetDefault("max_episode_steps", d.MaxEpisodeSteps)
	v.SetDefault("http_port", d.HttpPort)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("stats_file", d.StatsFile)
	v.SetDefault("video.enabled", d.Video.Enabled)
	v.SetDefault("video.folder", d.Video.Folder)
	v.SetDefault("video.name_prefix", d.Video.NamePrefix)
	v.SetDefault("video.trigger", d.Video.Trigger)
	v.SetDefault("video.video_length", d.Video.VideoLength)
	v.SetDefault("video.fps", d.Video.FPS)
	v.SetDefault("video.format", d.Video.Format)
	v.SetDefault("video.ffmpeg_path", d.Video.FFmpegPath)

	// seed has no default, so AutomaticEnv alone would never surface it to Unmarshal.
	_ = v.BindEnv("seed")
}

// FindConfigPath returns plasmagym.yaml or plasmagym.yml in appDir, or "" if neither exists.
func FindConfigPath(appDir string) string {
	for _, name := range []string{ConfigFileName + ".yaml", ConfigFileName + ".yml"} {
		p := filepath.Join(appDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadRunConfiguration reads the config file in appDir, if any, over the
// defaults. Values already Set on v take precedence over both.
func LoadRunConfiguration(v *viper.Viper, appDir string) (*RunConfiguration, error) {
	setDefaults(v)
	v.SetConfigType("yaml")

	if configPath := FindConfigPath(appDir); configPath != "" {
		configBytes, err := util.ReplaceEnvVariablesFromPath(configPath, EnvVarPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to read config '%s': %w", configPath, err)
		}

		err = v.ReadConfig(bytes.NewBuffer(configBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", configPath, err)
		}
	}

	var config *RunConfiguration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *RunConfiguration) Validate() error {
	if c.EnvId == "" {
		return errors.New("env_id is required")
	}
	if c.Episodes < 1 {
		return fmt.Errorf("episodes must be at least 1, got %d", c.Episodes)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	if c.MaxEpisodeSteps < 0 {
		return fmt.Errorf("max_episode_steps must not be negative, got %d", c.MaxEpisodeSteps)
	}

	mode, err := environment.ParseRenderMode(c.RenderMode)
	if err != nil {
		return err
	}

	if c.Video == nil || !c.Video.Enabled {
		return nil
	}
	if mode != environment.RenderRGBArray {
		return fmt.Errorf("video recording requires render_mode '%s', got '%s'", environment.RenderRGBArray, c.RenderMode)
	}
	if _, err := recorder.ParseTrigger(c.Video.Trigger); err != nil {
		return err
	}
	if _, err := recorder.ParseFormat(c.Video.Format); err != nil {
		return err
	}
	if c.Video.VideoLength < 0 {
		return fmt.Errorf("video.video_length must not be negative, got %d", c.Video.VideoLength)
	}

	return nil
}

func (c *RunConfiguration) ServerBaseUrl() string {
	return fmt.Sprintf("http://localhost:%d", c.HttpPort)
}

// WriteDefaultConfiguration writes the default configuration to path. An
// existing file is left untouched unless overwrite is set.
func WriteDefaultConfiguration(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("config '%s' already exists", path)
	}

	marshalledConfig, err := yaml.Marshal(LoadDefaultConfiguration())
	if err != nil {
		return err
	}

	if err := util.MkDirAllInheritPerm(filepath.Dir(path)); err != nil {
		return fmt.Errorf("error initializing %s: %w", path, err)
	}

	if err := os.WriteFile(path, marshalledConfig, 0644); err != nil {
		return fmt.Errorf("error initializing %s: %w", path, err)
	}

	return nil
}
