// Package replay runs scripted reconcile passes from a TOML scenario.
//
// A scenario is a list of steps. Each step may replace the child list,
// complete exit animations by key, and advance the transition clock.
// Every step ends with one render pass.
//
//	name = "middle removal"
//	durationMs = 100
//	easing = "linear"
//
//	[[step]]
//	children = ["a", "b", "c"]
//
//	[[step]]
//	children = ["a", "c"]
//
//	[[step]]
//	tick = "100ms"
//
// When durationMs is zero no transitions are attached, and removed
// children stay in place until a step lists them under complete.
package replay

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/transitiongroup/internal/errors"
	"github.com/vango-dev/transitiongroup/pkg/transition"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name       string `toml:"name"`
	DurationMs int    `toml:"durationMs"`
	Easing     string `toml:"easing"`
	Steps      []Step `toml:"step"`
}

// Step is one entry of a scenario. A nil Children keeps the previous list.
// An empty string in Children is an unkeyed child.
type Step struct {
	Children []string `toml:"children"`
	Complete []string `toml:"complete"`
	Tick     string   `toml:"tick"`

	tick time.Duration
}

// Load reads and parses the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E130").
			WithDetailf("cannot read %s", path).
			Wrap(err)
	}
	return Parse(data)
}

// Parse decodes a scenario from TOML and validates it.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := toml.Unmarshal(data, &sc); err != nil {
		return nil, errors.New("E130").Wrap(err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("E130").WithDetail("scenario has no steps")
	}
	if sc.DurationMs < 0 {
		return errors.New("E130").WithDetailf("durationMs must not be negative, got %d", sc.DurationMs)
	}
	if sc.Easing != "" {
		if _, ok := transition.Easing(sc.Easing); !ok {
			return errors.New("E130").
				WithDetailf("unknown easing %q", sc.Easing).
				WithSuggestion(fmt.Sprintf("Use one of: %v", transition.EasingNames()))
		}
	}

	for i := range sc.Steps {
		st := &sc.Steps[i]
		if st.Tick == "" {
			continue
		}
		d, err := time.ParseDuration(st.Tick)
		if err != nil || d < 0 {
			return errors.New("E130").
				WithDetailf("step %d: invalid tick %q", i+1, st.Tick).
				WithSuggestion(`Use a Go duration such as "16ms" or "1s".`)
		}
		st.tick = d
	}
	return nil
}

// Transitions reports whether removed children get a timed transition.
func (sc *Scenario) Transitions() bool {
	return sc.DurationMs > 0
}

// Duration returns the exit transition duration.
func (sc *Scenario) Duration() time.Duration {
	return time.Duration(sc.DurationMs) * time.Millisecond
}

// TickDuration returns the parsed tick of the step.
func (st Step) TickDuration() time.Duration {
	return st.tick
}
