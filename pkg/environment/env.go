// Package environment defines the reset/step/close contract that simulated
// environments implement, a registry to construct them by id, and the core
// wrappers applied on construction.
package environment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/spiceai/plasmagym/pkg/spaces"
)

var (
	ErrResetNeeded           = errors.New("environment must be reset before stepping or rendering")
	ErrUnknownEnvironment    = errors.New("unknown environment")
	ErrUnsupportedRenderMode = errors.New("unsupported render mode")
	ErrClosed                = errors.New("environment is closed")
)

type RenderMode string

const (
	RenderNone     RenderMode = "none"
	RenderRGBArray RenderMode = "rgb_array"
)

func ParseRenderMode(s string) (RenderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RenderNone):
		return RenderNone, nil
	case string(RenderRGBArray):
		return RenderRGBArray, nil
	}
	return "", fmt.Errorf("%w '%s'", ErrUnsupportedRenderMode, s)
}

// Info carries auxiliary diagnostics returned from Reset and Step.
type Info map[string]interface{}

type ResetOptions struct {
	// Seed reseeds the environment's random source when non-nil.
	Seed *int64
}

type StepResult struct {
	Observation interface{}
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Done reports whether the episode ended on this step.
func (r StepResult) Done() bool {
	return r.Terminated || r.Truncated
}

type Metadata struct {
	RenderModes []RenderMode
	RenderFPS   int
}

func (m Metadata) SupportsRenderMode(mode RenderMode) bool {
	if mode == RenderNone {
		return true
	}
	for _, rm := range m.RenderModes {
		if rm == mode {
			return true
		}
	}
	return false
}

// Env is a simulated system driven one action at a time.
type Env interface {
	Reset(ctx context.Context, opts ResetOptions) (interface{}, Info, error)
	Step(ctx context.Context, action interface{}) (StepResult, error)
	// Render returns the current frame, or nil when the render mode is RenderNone.
	Render() (image.Image, error)
	ActionSpace() spaces.Space
	ObservationSpace() spaces.Space
	Metadata() Metadata
	RenderMode() RenderMode
	Close() error
}
