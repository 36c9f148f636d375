// Package rates provides exchange-rate providers for multi-currency
// accounting.
package rates

import (
	"fmt"
	"time"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// FixedRates converts currencies through a static table of quotes against a
// base currency: one unit of a quoted currency equals its quote in base
// units. The conversion accepts the query time to satisfy the provider
// contract, but a fixed table returns the same rate for every instant.
type FixedRates struct {
	base   domain.Currency
	quotes map[domain.Currency]float64
}

// NewFixedRates returns a provider quoting against the given base currency.
func NewFixedRates(base domain.Currency) *FixedRates {
	return &FixedRates{
		base:   base,
		quotes: map[domain.Currency]float64{base: 1},
	}
}

// Register adds or replaces the quote for a currency: 1 unit of currency
// equals rate units of the base currency.
func (r *FixedRates) Register(currency domain.Currency, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("%w: rate for %s must be positive, got %v", ports.ErrConfiguration, currency, rate)
	}
	r.quotes[currency] = rate
	return nil
}

// Supports reports whether the provider can convert the given currency.
func (r *FixedRates) Supports(currency domain.Currency) bool {
	_, ok := r.quotes[currency]
	return ok
}

// Convert converts an amount into the target currency. Both sides must be
// registered; unknown currencies yield ErrUnsupportedCurrency.
func (r *FixedRates) Convert(amount domain.Amount, to domain.Currency, at time.Time) (domain.Amount, error) {
	if amount.Currency == to {
		return amount, nil
	}
	from, ok := r.quotes[amount.Currency]
	if !ok {
		return domain.Amount{}, fmt.Errorf("%w: %s", ports.ErrUnsupportedCurrency, amount.Currency)
	}
	target, ok := r.quotes[to]
	if !ok {
		return domain.Amount{}, fmt.Errorf("%w: %s", ports.ErrUnsupportedCurrency, to)
	}
	return domain.Amount{Currency: to, Value: amount.Value * from / target}, nil
}

var _ ports.ExchangeRates = (*FixedRates)(nil)
