// Package plasma provides a 0-D surrogate of the ITER hybrid scenario,
// registered as "gymtorax/IterHybrid-v0".
package plasma

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/spaces"
	"gonum.org/v1/gonum/mat"
)

const (
	IterHybridEnvId string = "gymtorax/IterHybrid-v0"

	ActionIp   string = "Ip"
	ActionNBI  string = "P_NBI"
	ActionECRH string = "P_ECRH"

	ObsIp          string = "Ip"
	ObsDensity     string = "ne"
	ObsEnergy      string = "W"
	ObsFusionPower string = "P_fus"
	ObsQ95         string = "q95"
	ObsBetaN       string = "beta_N"
	ObsTime        string = "time"

	scenarioDuration float64 = 150 // s
	stepDuration     float64 = 1   // s
	renderFPS        int     = 10
	maxEpisodeSteps  int     = 200

	q95Limit       float64 = 3.2
	betaNLimit     float64 = 3.5
	betaNSoftLimit float64 = 2.8
	maxRewardGain  float64 = 50
)

func init() {
	environment.MustRegister(environment.Spec{
		Id:              IterHybridEnvId,
		EntryPoint:      newIterHybridEnv,
		MaxEpisodeSteps: maxEpisodeSteps,
		Metadata:        iterHybridMetadata(),
	})
}

func iterHybridMetadata() environment.Metadata {
	return environment.Metadata{
		RenderModes: []environment.RenderMode{environment.RenderRGBArray},
		RenderFPS:   renderFPS,
	}
}

// IterHybridEnv drives plasma current and auxiliary heating through an ITER
// hybrid discharge. An episode ends at the end of the scenario or on disruption.
type IterHybridEnv struct {
	model      *transportModel
	renderMode environment.RenderMode
	rng        *rand.Rand

	actionSpace      *spaces.Dict
	observationSpace *spaces.Dict

	state     plasmaState
	history   []plasmaState
	disrupted string
	isReset   bool
	closed    bool
}

func newIterHybridEnv(cfg environment.Config) (environment.Env, error) {
	return NewIterHybridEnv(cfg.RenderMode)
}

func NewIterHybridEnv(renderMode environment.RenderMode) (*IterHybridEnv, error) {
	if !iterHybridMetadata().SupportsRenderMode(renderMode) {
		return nil, fmt.Errorf("%w '%s'", environment.ErrUnsupportedRenderMode, renderMode)
	}

	actionSpace, err := newScalarDict(map[string][2]float64{
		ActionIp:   {0.5, 15},
		ActionNBI:  {0, 33},
		ActionECRH: {0, 20},
	})
	if err != nil {
		return nil, err
	}

	inf := math.Inf(1)
	observationSpace, err := newScalarDict(map[string][2]float64{
		ObsIp:          {0, 15},
		ObsDensity:     {0, inf},
		ObsEnergy:      {0, inf},
		ObsFusionPower: {0, inf},
		ObsQ95:         {0, inf},
		ObsBetaN:       {0, inf},
		ObsTime:        {0, inf},
	})
	if err != nil {
		return nil, err
	}

	return &IterHybridEnv{
		model:            newTransportModel(ITER),
		renderMode:       renderMode,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		actionSpace:      actionSpace,
		observationSpace: observationSpace,
	}, nil
}

func newScalarDict(bounds map[string][2]float64) (*spaces.Dict, error) {
	members := make(map[string]spaces.Space, len(bounds))
	for name, b := range bounds {
		box, err := spaces.NewScalarBox(b[0], b[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		members[name] = box
	}
	return spaces.NewDict(members), nil
}

func (e *IterHybridEnv) Reset(ctx context.Context, opts environment.ResetOptions) (interface{}, environment.Info, error) {
	if e.closed {
		return nil, nil, environment.ErrClosed
	}
	if opts.Seed != nil {
		e.rng.Seed(*opts.Seed)
	}

	ip := 3 + 0.2*(e.rng.Float64()-0.5)
	e.state = plasmaState{
		Ip:           ip,
		StoredEnergy: 5 + e.rng.Float64(),
		Density:      e.model.greenwaldFraction * e.model.machine.GreenwaldDensity(ip),
		OhmicPower:   e.model.ohmicCoefficient * ip * ip,
	}
	e.state.FusionPower = e.model.fusionCoefficient * e.state.StoredEnergy * e.state.StoredEnergy
	e.state.Q95 = e.model.machine.Q95(ip)
	e.state.BetaN = e.model.machine.BetaN(e.state.StoredEnergy, ip)

	e.history = append(e.history[:0], e.state)
	e.disrupted = ""
	e.isReset = true

	return e.observation(), environment.Info{"Q": e.state.fusionGain()}, nil
}

func (e *IterHybridEnv) Step(ctx context.Context, action interface{}) (environment.StepResult, error) {
	if e.closed {
		return environment.StepResult{}, environment.ErrClosed
	}
	if !e.isReset {
		return environment.StepResult{}, environment.ErrResetNeeded
	}
	if err := ctx.Err(); err != nil {
		return environment.StepResult{}, err
	}

	controls, err := e.parseAction(action)
	if err != nil {
		return environment.StepResult{}, err
	}

	e.state = e.model.advance(e.state, controls[ActionIp], controls[ActionNBI]+controls[ActionECRH], stepDuration)
	e.history = append(e.history, e.state)

	gain := e.state.fusionGain()
	reward := 0.1 * math.Min(gain, maxRewardGain)
	if e.state.BetaN > betaNSoftLimit {
		reward -= e.state.BetaN - betaNSoftLimit
	}

	info := environment.Info{"Q": gain}
	terminated := false
	switch {
	case e.state.Q95 < q95Limit:
		e.disrupted = fmt.Sprintf("q95 %.2f below %.1f", e.state.Q95, q95Limit)
	case e.state.BetaN > betaNLimit:
		e.disrupted = fmt.Sprintf("beta_N %.2f above %.1f", e.state.BetaN, betaNLimit)
	}
	if e.disrupted != "" {
		info["disruption"] = e.disrupted
		reward = -10
		terminated = true
	} else if e.state.Time >= scenarioDuration-1e-9 {
		terminated = true
	}
	if terminated {
		e.isReset = false
	}

	return environment.StepResult{
		Observation: e.observation(),
		Reward:      reward,
		Terminated:  terminated,
		Info:        info,
	}, nil
}

// parseAction accepts a sample of the action space. Members may be any
// mat.Vector or a bare float64, and are clipped into their bounds.
func (e *IterHybridEnv) parseAction(action interface{}) (map[string]float64, error) {
	m, ok := action.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid action type %T: expected map[string]interface{}", action)
	}

	controls := make(map[string]float64, len(m))
	for _, key := range e.actionSpace.Keys() {
		raw, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("invalid action: missing '%s'", key)
		}

		var v mat.Vector
		switch x := raw.(type) {
		case mat.Vector:
			v = x
		case float64:
			v = mat.NewVecDense(1, []float64{x})
		default:
			return nil, fmt.Errorf("invalid action '%s' of type %T", key, raw)
		}
		if v.Len() != 1 || math.IsNaN(v.AtVec(0)) {
			return nil, fmt.Errorf("invalid action '%s': expected one finite value", key)
		}

		box := e.actionSpace.Get(key).(*spaces.Box)
		controls[key] = box.Clip(v).AtVec(0)
	}
	return controls, nil
}

func (e *IterHybridEnv) observation() map[string]interface{} {
	scalar := func(x float64) interface{} {
		return mat.NewVecDense(1, []float64{x})
	}
	return map[string]interface{}{
		ObsIp:          scalar(e.state.Ip),
		ObsDensity:     scalar(e.state.Density),
		ObsEnergy:      scalar(e.state.StoredEnergy),
		ObsFusionPower: scalar(e.state.FusionPower),
		ObsQ95:         scalar(e.state.Q95),
		ObsBetaN:       scalar(e.state.BetaN),
		ObsTime:        scalar(e.state.Time),
	}
}

func (e *IterHybridEnv) Render() (image.Image, error) {
	if e.closed {
		return nil, environment.ErrClosed
	}
	if e.renderMode != environment.RenderRGBArray {
		return nil, nil
	}
	if len(e.history) == 0 {
		return nil, environment.ErrResetNeeded
	}
	return renderFrame(e.history, e.disrupted != ""), nil
}

func (e *IterHybridEnv) ActionSpace() spaces.Space {
	return e.actionSpace
}

func (e *IterHybridEnv) ObservationSpace() spaces.Space {
	return e.observationSpace
}

func (e *IterHybridEnv) Metadata() environment.Metadata {
	return iterHybridMetadata()
}

func (e *IterHybridEnv) RenderMode() environment.RenderMode {
	return e.renderMode
}

func (e *IterHybridEnv) Close() error {
	e.closed = true
	e.history = nil
	return nil
}
