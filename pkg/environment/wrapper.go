package environment

import (
	"context"
	"fmt"
	"image"
)

// Wrapper forwards every call to the wrapped Env. Embed it and override the
// methods whose behavior changes.
type Wrapper struct {
	Env
}

func (w *Wrapper) Unwrap() Env {
	return w.Env
}

// Unwrapped peels every Wrapper layer off env.
func Unwrapped(env Env) Env {
	for {
		u, ok := env.(interface{ Unwrap() Env })
		if !ok {
			return env
		}
		env = u.Unwrap()
	}
}

// OrderEnforcing rejects Step and Render calls made before the first Reset.
type OrderEnforcing struct {
	Wrapper
	hasReset bool
}

func NewOrderEnforcing(env Env) *OrderEnforcing {
	return &OrderEnforcing{Wrapper: Wrapper{Env: env}}
}

func (o *OrderEnforcing) Reset(ctx context.Context, opts ResetOptions) (interface{}, Info, error) {
	obs, info, err := o.Env.Reset(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	o.hasReset = true
	return obs, info, nil
}

func (o *OrderEnforcing) Step(ctx context.Context, action interface{}) (StepResult, error) {
	if !o.hasReset {
		return StepResult{}, ErrResetNeeded
	}
	return o.Env.Step(ctx, action)
}

func (o *OrderEnforcing) Render() (image.Image, error) {
	if !o.hasReset {
		return nil, ErrResetNeeded
	}
	return o.Env.Render()
}

// TimeLimit truncates an episode after MaxEpisodeSteps steps.
type TimeLimit struct {
	Wrapper
	maxEpisodeSteps int
	elapsedSteps    int
}

func NewTimeLimit(env Env, maxEpisodeSteps int) (*TimeLimit, error) {
	if maxEpisodeSteps <= 0 {
		return nil, fmt.Errorf("max episode steps must be positive, got %d", maxEpisodeSteps)
	}
	return &TimeLimit{Wrapper: Wrapper{Env: env}, maxEpisodeSteps: maxEpisodeSteps}, nil
}

func (t *TimeLimit) ElapsedSteps() int {
	return t.elapsedSteps
}

func (t *TimeLimit) Reset(ctx context.Context, opts ResetOptions) (interface{}, Info, error) {
	t.elapsedSteps = 0
	return t.Env.Reset(ctx, opts)
}

func (t *TimeLimit) Step(ctx context.Context, action interface{}) (StepResult, error) {
	res, err := t.Env.Step(ctx, action)
	if err != nil {
		return res, err
	}
	t.elapsedSteps++
	if t.elapsedSteps >= t.maxEpisodeSteps && !res.Terminated {
		res.Truncated = true
	}
	return res, nil
}
