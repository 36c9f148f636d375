package ports

import (
	"time"

	"quantsim/internal/domain"
)

// MetricResults is one step's worth of named metric values.
type MetricResults map[string]float64

// RunInfo identifies where in which run a batch of metric values was
// produced.
type RunInfo struct {
	RunID string
	Phase Phase
	Step  int
	Time  time.Time
}

// Metric computes named values from the account state after one event has
// been fully processed.
type Metric interface {
	Calculate(account *domain.Account, event domain.Event) MetricResults
}

// MetricsLogger records per-step metric results. A logger shared between
// concurrent runs must be internally synchronized. Implementations must not
// let their own failures interrupt the simulation loop: log and continue.
type MetricsLogger interface {
	Log(results MetricResults, info RunInfo)
	Start(phase Phase)
	End(phase Phase)
	Reset()
}
