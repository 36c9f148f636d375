package ports

import (
	"context"

	"quantsim/internal/domain"
)

// Broker accepts orders and turns events into executions and account state.
// Place never fails for the caller: per-order validation failures land in
// the account's order-state table as rejections. Sync processes one event
// and returns the resulting read-only snapshot.
type Broker interface {
	Place(ctx context.Context, orders []domain.Order)
	Sync(ctx context.Context, event domain.Event) *domain.Account
	Account() *domain.Account
}
