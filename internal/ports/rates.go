package ports

import (
	"time"

	"quantsim/internal/domain"
)

// ExchangeRates converts amounts between currencies using the rate in effect
// at a given simulated time. Convert is a pure function of its inputs.
type ExchangeRates interface {
	Convert(amount domain.Amount, to domain.Currency, at time.Time) (domain.Amount, error)
}
