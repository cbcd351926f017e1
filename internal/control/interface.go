// Package control runs the discovery-then-poll loop that drives the motor.
package control

import (
	"context"
	"time"

	"codeberg.org/mutker/rnboctl/internal/discovery"
	"codeberg.org/mutker/rnboctl/internal/errors"
)

// Actuator is the hardware surface the loop owns for its lifetime.
type Actuator interface {
	discovery.Feedback
	Actuate(percent float64) (float64, error)
	Release() error
}

// Discoverer resolves the output path once per run.
type Discoverer interface {
	Run(ctx context.Context) (discovery.Result, error)
}

// CycleObserver receives the result of every completed poll cycle.
type CycleObserver interface {
	ObserveCycle(result CycleResult)
}

type Outcome int

const (
	Actuated Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Actuated {
		return "actuated"
	}

	return "skipped"
}

// CycleResult describes one steady-state cycle. Ratio is only meaningful
// for Actuated; Reason only for Skipped.
type CycleResult struct {
	Time    time.Time
	Path    string
	Outcome Outcome
	Ratio   float64
	Percent float64
	Reason  errors.ErrorCode
	Raw     string
}
