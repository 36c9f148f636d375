// Package metrics computes and records per-step metric values.
package metrics

import (
	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// AccountMetric captures the account-level values after each step.
type AccountMetric struct{}

func (AccountMetric) Calculate(account *domain.Account, event domain.Event) ports.MetricResults {
	return ports.MetricResults{
		"account.equity":       account.EquityValue,
		"account.buying_power": account.BuyingPower,
		"account.positions":    float64(account.OpenPositions()),
		"account.open_orders":  float64(len(account.OpenOrders())),
		"account.trades":       float64(len(account.Trades)),
	}
}

var _ ports.Metric = AccountMetric{}
