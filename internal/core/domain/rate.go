package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the cached conversion rate for one ordered currency pair.
// Symbol is "BASE/QUOTE" (e.g. "SUI/NGN"): Rate is the quote-currency price
// of one unit of the base currency.
type ExchangeRate struct {
	Symbol      string          `json:"symbol"`
	Rate        decimal.Decimal `json:"rate"`
	LastUpdated time.Time       `json:"last_updated"`
}

// RateSymbol builds the ordered pair label for a base/quote currency pair.
func RateSymbol(base, quote string) string {
	return base + "/" + quote
}

// SplitRateSymbol splits a pair label into base and quote codes.
// Returns false if the label is not of the form "BASE/QUOTE".
func SplitRateSymbol(symbol string) (base, quote string, ok bool) {
	parts := strings.SplitN(symbol, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
