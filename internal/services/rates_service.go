package services

import "github.com/shopspring/decimal"

// RateTable maps an uppercase currency symbol to its price in the store's
// settlement currency.
type RateTable map[string]decimal.Decimal

// RateSource supplies point-in-time cryptocurrency rates. Checkout treats the
// returned table as read-only input; the rate frozen onto an order is exactly
// what the source handed over for that checkout.
type RateSource interface {
	Rates() RateTable
}

// StaticRateSource serves fixed mock rates. A real deployment would replace
// it with a market-data client behind the same interface.
type StaticRateSource struct {
	rates RateTable
}

// NewStaticRateSource returns the mock rate source used by the reference
// deployment: 650M IDR per BTC, 45M IDR per ETH.
func NewStaticRateSource() *StaticRateSource {
	return &StaticRateSource{
		rates: RateTable{
			"BTC": decimal.NewFromInt(650_000_000),
			"ETH": decimal.NewFromInt(45_000_000),
		},
	}
}

// Rates returns a copy of the table so callers cannot mutate the source.
func (s *StaticRateSource) Rates() RateTable {
	rates := make(RateTable, len(s.rates))
	for symbol, rate := range s.rates {
		rates[symbol] = rate
	}
	return rates
}
