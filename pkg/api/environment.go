package api

import (
	"github.com/spiceai/plasmagym/pkg/environment"
)

type Environment struct {
	Id              string   `json:"id"`
	MaxEpisodeSteps int      `json:"max_episode_steps,omitempty"`
	RenderModes     []string `json:"render_modes"`
	RenderFPS       int      `json:"render_fps,omitempty"`
}

func NewEnvironment(spec *environment.Spec) *Environment {
	modes := make([]string, 0, len(spec.Metadata.RenderModes))
	for _, m := range spec.Metadata.RenderModes {
		modes = append(modes, string(m))
	}
	return &Environment{
		Id:              spec.Id,
		MaxEpisodeSteps: spec.MaxEpisodeSteps,
		RenderModes:     modes,
		RenderFPS:       spec.Metadata.RenderFPS,
	}
}
