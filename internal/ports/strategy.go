package ports

import (
	"context"

	"quantsim/internal/domain"
)

// Phase identifies which stage of a run a lifecycle hook refers to. During
// warm-up a strategy receives events so it can seed its buffers, but no
// orders reach the broker.
type Phase string

const (
	PhaseWarmup Phase = "WARMUP"
	PhaseMain   Phase = "MAIN"
)

// Strategy turns one event into zero or more signals. A strategy may hold
// internal state (indicator buffers), but it must never read or mutate
// account or broker state; that isolation is what lets independent strategy
// instances run across concurrent backtests.
type Strategy interface {
	// Generate returns the signals this event produces.
	Generate(ctx context.Context, event domain.Event) []domain.Signal
	// Start is called when a run phase begins.
	Start(phase Phase)
	// End is called when a run phase ends.
	End(phase Phase)
	// Reset clears internal state so the instance can be reused.
	Reset()
}

// Policy turns signals into concrete orders, applying sizing and risk rules
// against a read-only account snapshot. Act must be deterministic for the
// same (signals, account, event) triple, and must not mutate the account.
type Policy interface {
	Act(ctx context.Context, signals []domain.Signal, account *domain.Account, event domain.Event) []domain.Order
	Reset()
}
