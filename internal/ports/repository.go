package ports

import (
	"context"
	"time"

	"quantsim/internal/domain"
)

// RunRecord is the persisted summary of one completed simulation run.
type RunRecord struct {
	RunID          string
	Name           string
	BaseCurrency   domain.Currency
	StartedAt      time.Time
	FinishedAt     time.Time
	StartingEquity float64
	FinalEquity    float64
	Trades         int
	Rejected       int
	Err            string
}

// RunRepository stores run summaries and their trades for later analysis.
type RunRepository interface {
	// SaveRun persists a run summary and returns its storage ID.
	SaveRun(ctx context.Context, rec *RunRecord) (int64, error)
	// SaveTrades persists the trades of a run.
	SaveTrades(ctx context.Context, runID string, trades []domain.Trade) error
	// FindRun retrieves a run summary by its run ID. Returns nil, nil when
	// no such run exists.
	FindRun(ctx context.Context, runID string) (*RunRecord, error)
	// FindTrades retrieves the trades of a run in execution order.
	FindTrades(ctx context.Context, runID string) ([]domain.Trade, error)
}
