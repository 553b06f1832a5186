// internal/plan/plan.go
package plan

import (
	"time"

	"github.com/tamzrod/modbus-sampler/internal/config"
	"github.com/tamzrod/modbus-sampler/internal/engine"
)

// Step is one sampler of the plan, ready to run.
type Step struct {
	Name string
	Type string
	Op   engine.Operation

	// Err is a property error found while building the step.
	// The step still runs and reports it as a failed sample.
	Err error
}

// Plan describes the load: Threads independent sessions, each running
// Steps in order Iterations times.
type Plan struct {
	Threads    int
	Iterations int
	Pacing     time.Duration
	Steps      []Step
}

// Sample is one host result produced by the loop.
type Sample struct {
	Thread    int
	Iteration int
	Sampler   string
	Type      string
	At        time.Time
	Elapsed   time.Duration
	Result    engine.Result
}

// FromConfig builds a plan from a validated, normalized config.
func FromConfig(cfg *config.Config) Plan {
	p := Plan{
		Threads:    cfg.Plan.Threads,
		Iterations: cfg.Plan.Iterations,
		Pacing:     time.Duration(cfg.Plan.PacingMs) * time.Millisecond,
		Steps:      make([]Step, 0, len(cfg.Plan.Samplers)),
	}

	for _, s := range cfg.Plan.Samplers {
		op, err := config.Build(s)
		p.Steps = append(p.Steps, Step{
			Name: s.Name,
			Type: s.Type,
			Op:   op,
			Err:  err,
		})
	}
	return p
}
