package environment

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spiceai/plasmagym/pkg/validator"
)

// Config is handed to an environment's entry point by Make.
type Config struct {
	RenderMode RenderMode
	Params     map[string]string
}

type EntryPoint func(cfg Config) (Env, error)

// Spec describes how to construct a registered environment.
type Spec struct {
	Id              string
	EntryPoint      EntryPoint
	MaxEpisodeSteps int
	Metadata        Metadata
}

var (
	registryMutex sync.RWMutex
	registry      = make(map[string]*Spec)
)

func Register(spec Spec) error {
	if spec.Id == "" || spec.EntryPoint == nil {
		return fmt.Errorf("environment spec requires an id and an entry point")
	}
	if !validator.ValidateEnvId(spec.Id) {
		return fmt.Errorf("invalid environment id '%s': expected [namespace/]Name[-vN]", spec.Id)
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, ok := registry[spec.Id]; ok {
		return fmt.Errorf("environment '%s' is already registered", spec.Id)
	}
	s := spec
	registry[spec.Id] = &s
	return nil
}

// MustRegister is Register for use from package init functions.
func MustRegister(spec Spec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

func GetSpec(id string) (*Spec, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	spec, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownEnvironment, id)
	}
	return spec, nil
}

// Registered returns all registered ids, sorted.
func Registered() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type MakeOption func(*makeOptions)

type makeOptions struct {
	renderMode      RenderMode
	maxEpisodeSteps *int
	params          map[string]string
}

func WithRenderMode(mode RenderMode) MakeOption {
	return func(o *makeOptions) {
		o.renderMode = mode
	}
}

// WithMaxEpisodeSteps overrides the registered limit. Zero disables truncation.
func WithMaxEpisodeSteps(steps int) MakeOption {
	return func(o *makeOptions) {
		o.maxEpisodeSteps = &steps
	}
}

func WithParams(params map[string]string) MakeOption {
	return func(o *makeOptions) {
		o.params = params
	}
}

// Make constructs the environment registered as id, wrapped in OrderEnforcing
// and, when a step limit applies, TimeLimit.
func Make(id string, opts ...MakeOption) (Env, error) {
	spec, err := GetSpec(id)
	if err != nil {
		return nil, err
	}

	o := &makeOptions{renderMode: RenderNone}
	for _, opt := range opts {
		opt(o)
	}

	if !spec.Metadata.SupportsRenderMode(o.renderMode) {
		return nil, fmt.Errorf("%w '%s' for environment '%s'", ErrUnsupportedRenderMode, o.renderMode, id)
	}

	env, err := spec.EntryPoint(Config{RenderMode: o.renderMode, Params: o.params})
	if err != nil {
		return nil, fmt.Errorf("failed to create environment '%s': %w", id, err)
	}

	env = NewOrderEnforcing(env)

	maxSteps := spec.MaxEpisodeSteps
	if o.maxEpisodeSteps != nil {
		maxSteps = *o.maxEpisodeSteps
	}
	if maxSteps > 0 {
		env, err = NewTimeLimit(env, maxSteps)
		if err != nil {
			return nil, err
		}
	}

	return env, nil
}
