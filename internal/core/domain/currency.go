package domain

// CurrencyKind discriminates fiat currencies from crypto tokens.
type CurrencyKind string

const (
	KindFiat   CurrencyKind = "FIAT"
	KindCrypto CurrencyKind = "CRYPTO"
)

// Currency is a closed tagged variant: a fiat code or a crypto token.
// Routing decisions (settlement currency, wallet addressing) key off Kind.
type Currency struct {
	Kind CurrencyKind `json:"kind"`
	Code string       `json:"code"`
}

// Default settlement currencies for the platform.
var (
	DefaultFiat   = Currency{Kind: KindFiat, Code: "NGN"}
	DefaultCrypto = Currency{Kind: KindCrypto, Code: "SUI"}
)

// supportedFiat is the fixed set of fiat settlement currencies.
var supportedFiat = map[string]bool{
	"NGN": true, "USD": true, "EUR": true, "GBP": true, "KES": true,
	"GHS": true, "ZAR": true, "EGP": true, "MAD": true, "XOF": true,
	"XAF": true, "TZS": true, "UGX": true, "RWF": true, "ETB": true,
	"CAD": true, "AUD": true, "INR": true, "CNY": true, "JPY": true,
	"BRL": true, "AED": true, "SAR": true, "TRY": true, "CHF": true,
	"SEK": true, "NOK": true, "DKK": true, "PLN": true, "MXN": true,
}

// supportedCrypto is the fixed set of platform crypto tokens.
var supportedCrypto = map[string]bool{
	"SUI":  true,
	"USDC": true,
}

// Fiat returns the fiat Currency for code if supported, else the default fiat.
func Fiat(code string) Currency {
	if supportedFiat[code] {
		return Currency{Kind: KindFiat, Code: code}
	}
	return DefaultFiat
}

// Crypto returns the crypto Currency for token if supported, else the default token.
func Crypto(token string) Currency {
	if supportedCrypto[token] {
		return Currency{Kind: KindCrypto, Code: token}
	}
	return DefaultCrypto
}

// IsSupportedFiat reports whether code is a supported fiat currency.
func IsSupportedFiat(code string) bool { return supportedFiat[code] }

// IsSupportedCrypto reports whether token is a supported crypto token.
func IsSupportedCrypto(token string) bool { return supportedCrypto[token] }

// String returns the currency code.
func (c Currency) String() string { return c.Code }

const accountNumberWidth = 10

// IsAccountNumber reports whether s has the fiat account-number shape:
// exactly 10 decimal digits. Everything else is treated as a crypto address.
func IsAccountNumber(s string) bool {
	if len(s) != accountNumberWidth {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
