package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spiceai/plasmagym/pkg/config"
	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/version"
)

func GenerateReport(runConfig *config.RunConfiguration) (string, error) {
	body := strings.Builder{}

	body.WriteString("## Diagnostics Report\n\n")

	body.WriteString("Application\n")
	body.WriteString("---------------\n")
	body.WriteString(fmt.Sprintf("version: %s\n", version.Version()))
	body.WriteString(fmt.Sprintf("app_dir: %s\n", config.AppPath()))
	configPath := config.FindConfigPath(config.AppPath())
	if configPath == "" {
		configPath = "(defaults)"
	}
	body.WriteString(fmt.Sprintf("config: %s\n", configPath))
	body.WriteString(fmt.Sprintf("env_id: %s\n", runConfig.EnvId))
	body.WriteString(fmt.Sprintf("render_mode: %s\n", runConfig.RenderMode))
	body.WriteString("\n\n")

	registered := environment.Registered()
	body.WriteString(fmt.Sprintf("Registered Environments (%d entries)\n", len(registered)))
	body.WriteString("---------------\n")
	for _, id := range registered {
		body.WriteString(id)
		body.WriteString("\n")
	}
	body.WriteString("\n")

	if runConfig.Video == nil || !runConfig.Video.Enabled {
		body.WriteString("Video recording disabled\n")
		return body.String(), nil
	}

	body.WriteString("Video\n")
	body.WriteString("---------------\n")
	body.WriteString(fmt.Sprintf("format: %s\n", runConfig.Video.Format))
	body.WriteString(fmt.Sprintf("trigger: %s\n", runConfig.Video.Trigger))
	if ffmpegPath, err := exec.LookPath(runConfig.Video.FFmpegPath); err != nil {
		body.WriteString(fmt.Sprintf("ffmpeg: not found (%s)\n", runConfig.Video.FFmpegPath))
	} else {
		body.WriteString(fmt.Sprintf("ffmpeg: %s\n", ffmpegPath))
	}
	body.WriteString("\n")

	folder, err := filepath.Abs(runConfig.Video.Folder)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(folder)
	if os.IsNotExist(err) {
		body.WriteString(fmt.Sprintf("Video folder %s does not exist yet\n", folder))
		return body.String(), nil
	}
	if err != nil {
		return "", err
	}

	body.WriteString(fmt.Sprintf("Video Folder Contents (%d entries)\n", len(entries)))
	body.WriteString("---------------\n")

	for _, entry := range entries {
		body.WriteString(entry.Name())
		body.WriteString("\n")
	}

	body.WriteString("\n")

	return body.String(), nil
}
