package domain

// Currency is an ISO-like currency or crypto quote-asset code (e.g. "USD", "USDT").
type Currency string

// Common currencies used throughout tests and defaults.
const (
	USD  Currency = "USD"
	EUR  Currency = "EUR"
	GBP  Currency = "GBP"
	JPY  Currency = "JPY"
	USDT Currency = "USDT"
	BTC  Currency = "BTC"
)

// AssetType classifies the kind of instrument an Asset represents.
type AssetType string

const (
	AssetStock  AssetType = "STOCK"
	AssetCrypto AssetType = "CRYPTO"
	AssetForex  AssetType = "FOREX"
	AssetCFD    AssetType = "CFD"
	AssetFuture AssetType = "FUTURE"
)

// Asset is the immutable identity of a tradable instrument. It is a comparable
// value and is used directly as a map key; equality is by identity fields only.
type Asset struct {
	Symbol   string
	Type     AssetType
	Currency Currency
	Exchange string
}

// NewStock returns a stock asset denominated in the given currency.
func NewStock(symbol string, currency Currency) Asset {
	return Asset{Symbol: symbol, Type: AssetStock, Currency: currency}
}

// NewCrypto returns a crypto asset quoted in the given currency (e.g. "ETH" in USDT).
func NewCrypto(symbol string, currency Currency) Asset {
	return Asset{Symbol: symbol, Type: AssetCrypto, Currency: currency}
}

// NewForexPair returns a forex pair asset quoted in the given currency.
func NewForexPair(symbol string, currency Currency) Asset {
	return Asset{Symbol: symbol, Type: AssetForex, Currency: currency}
}

func (a Asset) String() string {
	return a.Symbol
}
