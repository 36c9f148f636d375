package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in one currency.
type Amount struct {
	Currency Currency
	Value    float64
}

// NewAmount returns an amount of the given currency.
func NewAmount(currency Currency, value float64) Amount {
	return Amount{Currency: currency, Value: value}
}

func (a Amount) String() string {
	return fmt.Sprintf("%.2f %s", a.Value, a.Currency)
}

// Wallet is a multi-currency cash ledger. Balances are kept as decimals so
// repeated deposits and withdrawals of fractional cash flows cannot
// accumulate float drift in the account ledger.
type Wallet struct {
	balances map[Currency]decimal.Decimal
}

// NewWallet returns a wallet holding the given initial amounts.
func NewWallet(amounts ...Amount) *Wallet {
	w := &Wallet{balances: make(map[Currency]decimal.Decimal)}
	for _, a := range amounts {
		w.Deposit(a)
	}
	return w
}

// Deposit adds the amount to the balance of its currency. Depositing a
// negative amount withdraws.
func (w *Wallet) Deposit(a Amount) {
	w.balances[a.Currency] = w.balances[a.Currency].Add(decimal.NewFromFloat(a.Value))
}

// Withdraw removes the amount from the balance of its currency. Balances may
// go negative; enforcing buying power is the broker's job, not the ledger's.
func (w *Wallet) Withdraw(a Amount) {
	w.Deposit(Amount{Currency: a.Currency, Value: -a.Value})
}

// Balance returns the balance held in one currency.
func (w *Wallet) Balance(currency Currency) float64 {
	return w.balances[currency].InexactFloat64()
}

// Currencies returns the currencies with a non-zero balance, sorted for
// deterministic iteration.
func (w *Wallet) Currencies() []Currency {
	out := make([]Currency, 0, len(w.balances))
	for c, v := range w.balances {
		if !v.IsZero() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Amounts returns the wallet content as a list of amounts, sorted by currency.
func (w *Wallet) Amounts() []Amount {
	currencies := w.Currencies()
	out := make([]Amount, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, Amount{Currency: c, Value: w.Balance(c)})
	}
	return out
}

// Clone returns an independent copy of the wallet.
func (w *Wallet) Clone() *Wallet {
	cp := &Wallet{balances: make(map[Currency]decimal.Decimal, len(w.balances))}
	for c, v := range w.balances {
		cp.balances[c] = v
	}
	return cp
}

func (w *Wallet) String() string {
	amounts := w.Amounts()
	if len(amounts) == 0 {
		return "empty"
	}
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
