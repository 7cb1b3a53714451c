package currency

import "errors"

// ErrUnusablePhoneNumber is returned by DeriveAccountNumber when the input
// contains no digits at all.
var ErrUnusablePhoneNumber = errors.New("phone number contains no digits")

// countryCurrencies maps ISO-3166 alpha-2 country codes to the currency a
// wallet created from that country settles in. Countries whose currency the
// platform does not support fall through to the default fiat via domain.Fiat.
var countryCurrencies = map[string]string{
	// Africa
	"NG": "NGN", "KE": "KES", "GH": "GHS", "ZA": "ZAR", "EG": "EGP",
	"MA": "MAD", "TZ": "TZS", "UG": "UGX", "RW": "RWF", "ET": "ETB",
	"SN": "XOF", "CI": "XOF", "ML": "XOF", "BF": "XOF", "NE": "XOF",
	"TG": "XOF", "BJ": "XOF", "GW": "XOF",
	"CM": "XAF", "GA": "XAF", "TD": "XAF", "CG": "XAF", "CF": "XAF",
	"GQ": "XAF",
	"ZM": "ZMW", "ZW": "ZWL", "MW": "MWK", "MZ": "MZN", "BW": "BWP",
	"NA": "NAD", "LS": "LSL", "SZ": "SZL", "AO": "AOA", "CD": "CDF",
	"SL": "SLL", "LR": "LRD", "GM": "GMD", "GN": "GNF", "MR": "MRU",
	"DZ": "DZD", "TN": "TND", "LY": "LYD", "SD": "SDG", "SS": "SSP",
	"SO": "SOS", "DJ": "DJF", "ER": "ERN", "BI": "BIF", "MG": "MGA",
	"MU": "MUR", "SC": "SCR", "KM": "KMF", "CV": "CVE", "ST": "STN",

	// Americas
	"US": "USD", "CA": "CAD", "MX": "MXN", "BR": "BRL", "AR": "ARS",
	"CL": "CLP", "CO": "COP", "PE": "PEN", "VE": "VES", "EC": "USD",
	"PA": "USD", "JM": "JMD", "TT": "TTD", "BB": "BBD", "BS": "BSD",

	// Europe
	"GB": "GBP", "IE": "EUR", "FR": "EUR", "DE": "EUR", "ES": "EUR",
	"PT": "EUR", "IT": "EUR", "NL": "EUR", "BE": "EUR", "AT": "EUR",
	"FI": "EUR", "GR": "EUR", "CH": "CHF", "SE": "SEK", "NO": "NOK",
	"DK": "DKK", "PL": "PLN", "CZ": "CZK", "HU": "HUF", "RO": "RON",
	"TR": "TRY", "RU": "RUB", "UA": "UAH",

	// Asia & Oceania
	"IN": "INR", "CN": "CNY", "JP": "JPY", "KR": "KRW", "SG": "SGD",
	"HK": "HKD", "MY": "MYR", "TH": "THB", "PH": "PHP", "ID": "IDR",
	"VN": "VND", "PK": "PKR", "BD": "BDT", "LK": "LKR", "NP": "NPR",
	"AE": "AED", "SA": "SAR", "QA": "QAR", "KW": "KWD", "BH": "BHD",
	"OM": "OMR", "JO": "JOD", "IL": "ILS", "LB": "LBP", "IQ": "IQD",
	"AU": "AUD", "NZ": "NZD", "FJ": "FJD", "PG": "PGK",
}
