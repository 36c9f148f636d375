// Package engine drives simulation runs: the sequential per-run event loop
// and the concurrency manager for independent parallel runs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quantsim/internal/channel"
	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// State tracks a run through its lifecycle.
type State string

const (
	StateCreated State = "CREATED"
	StateWarmup  State = "WARMUP"
	StateMain    State = "MAIN"
	StateDone    State = "DONE"
)

// Config assembles the collaborators of one run. Each run must own its
// Strategy, Policy and Broker instances exclusively; only the MetricsLogger
// may be shared between runs, and then it must be internally synchronized.
type Config struct {
	Name          string
	Strategy      ports.Strategy
	Policy        ports.Policy
	Broker        ports.Broker
	Metrics       []ports.Metric
	MetricsLogger ports.MetricsLogger
	Logger        ports.Logger

	// Timeframe clips the admissible simulated time window; the zero value
	// admits everything.
	Timeframe domain.Timeframe
	// ChannelCapacity bounds the event channel; defaults to 64.
	ChannelCapacity int
	// WarmupEvents is the number of leading events delivered to the strategy
	// while policy output is still discarded.
	WarmupEvents int
}

// Result is the outcome of one completed run.
type Result struct {
	RunID      string
	Name       string
	Account    *domain.Account
	Steps      int
	Dropped    int64
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Run executes one simulation end to end: it owns the event channel and
// sequences strategy, policy, broker and metrics strictly per time step. No
// step begins before the previous step's broker sync completed, so metrics
// always observe a consistent account.
type Run struct {
	id    string
	cfg   Config
	state State
}

// NewRun validates the configuration and returns a run in the CREATED state
// with a fresh run ID.
func NewRun(cfg Config) (*Run, error) {
	switch {
	case cfg.Strategy == nil:
		return nil, fmt.Errorf("%w: strategy is required", ports.ErrConfiguration)
	case cfg.Policy == nil:
		return nil, fmt.Errorf("%w: policy is required", ports.ErrConfiguration)
	case cfg.Broker == nil:
		return nil, fmt.Errorf("%w: broker is required", ports.ErrConfiguration)
	case cfg.MetricsLogger == nil:
		return nil, fmt.Errorf("%w: metrics logger is required", ports.ErrConfiguration)
	case cfg.Logger == nil:
		return nil, fmt.Errorf("%w: logger is required", ports.ErrConfiguration)
	case cfg.WarmupEvents < 0:
		return nil, fmt.Errorf("%w: warmup events cannot be negative", ports.ErrConfiguration)
	}
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = 64
	}
	return &Run{id: uuid.NewString(), cfg: cfg, state: StateCreated}, nil
}

// ID returns the run's unique identifier.
func (r *Run) ID() string { return r.id }

// State returns the run's current lifecycle state.
func (r *Run) State() State { return r.state }

// Execute plays the feed into the run's own event channel and processes
// events until the channel closes or the context is cancelled. It always
// unwinds cleanly: lifecycle hooks fire, the feed goroutine is joined, and
// the final account state is returned even on cancellation.
func (r *Run) Execute(ctx context.Context, feed ports.Feed) Result {
	result := Result{RunID: r.id, Name: r.cfg.Name, StartedAt: time.Now()}
	log := r.cfg.Logger

	ch := channel.New(r.cfg.ChannelCapacity, r.cfg.Timeframe, log)
	feedDone := make(chan error, 1)
	go func() {
		feedDone <- feed.Play(ctx, ch)
	}()

	phase := ports.PhaseMain
	r.state = StateMain
	if r.cfg.WarmupEvents > 0 {
		phase = ports.PhaseWarmup
		r.state = StateWarmup
	}
	r.cfg.Strategy.Start(phase)
	r.cfg.MetricsLogger.Start(phase)

	log.Info(ctx, "run started", map[string]interface{}{
		"run": r.id, "name": r.cfg.Name, "timeframe": r.cfg.Timeframe.String(),
	})

	step := 0
	for {
		if ctx.Err() != nil {
			ch.Close()
			result.Err = fmt.Errorf("%w: %v", ports.ErrContextCanceled, ctx.Err())
			break
		}

		event, err := ch.Receive()
		if err != nil {
			if !errors.Is(err, ports.ErrChannelClosed) {
				result.Err = err
			}
			break
		}
		step++

		if phase == ports.PhaseWarmup && step > r.cfg.WarmupEvents {
			r.cfg.Strategy.End(ports.PhaseWarmup)
			r.cfg.MetricsLogger.End(ports.PhaseWarmup)
			phase = ports.PhaseMain
			r.state = StateMain
			r.cfg.Strategy.Start(phase)
			r.cfg.MetricsLogger.Start(phase)
		}

		signals := r.cfg.Strategy.Generate(ctx, event)
		if phase == ports.PhaseMain {
			orders := r.cfg.Policy.Act(ctx, signals, r.cfg.Broker.Account(), event)
			r.cfg.Broker.Place(ctx, orders)
		}
		account := r.cfg.Broker.Sync(ctx, event)

		info := ports.RunInfo{RunID: r.id, Phase: phase, Step: step, Time: event.Time()}
		for _, metric := range r.cfg.Metrics {
			r.logMetrics(ctx, metric.Calculate(account, event), info)
		}
	}

	ch.Close()
	if feedErr := <-feedDone; feedErr != nil && result.Err == nil && !errors.Is(feedErr, ports.ErrChannelClosed) {
		result.Err = feedErr
	}

	r.cfg.Strategy.End(phase)
	r.cfg.MetricsLogger.End(phase)
	r.state = StateDone

	result.Account = r.cfg.Broker.Account()
	result.Steps = step
	result.Dropped = ch.Dropped()
	result.FinishedAt = time.Now()

	log.Info(ctx, "run finished", map[string]interface{}{
		"run": r.id, "steps": step, "dropped": result.Dropped,
		"equity": result.Account.EquityValue, "trades": len(result.Account.Trades),
	})
	return result
}

// logMetrics shields the run loop from a faulty metrics sink: a panic there
// is logged and the simulation continues.
func (r *Run) logMetrics(ctx context.Context, results ports.MetricResults, info ports.RunInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			r.cfg.Logger.Error(ctx, fmt.Errorf("metrics logger panic: %v", rec), "metrics sink failed, continuing run",
				map[string]interface{}{"run": r.id, "step": info.Step})
		}
	}()
	r.cfg.MetricsLogger.Log(results, info)
}
