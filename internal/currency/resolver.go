// Package currency maps phone numbers and country codes to settlement
// currencies and derives wallet addresses. The resolvers are pure lookups.
// GenerateCryptoAddress is the exception: it draws on the clock and the
// system entropy source to make addresses unique.
package currency

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/crypto/sha3"
)

// DefaultRegion is assumed when a phone number's country cannot be parsed.
const DefaultRegion = "NG"

const accountNumberWidth = 10

// FromCountryCode resolves an ISO-3166 alpha-2 country code to that
// country's settlement currency. The lookup is case-insensitive and total:
// unknown or blank codes resolve to the platform default fiat currency.
func FromCountryCode(code string) domain.Currency {
	if c, ok := countryCurrencies[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return domain.Fiat(c)
	}
	return domain.DefaultFiat
}

// FromPhoneNumber resolves a phone number's country to a settlement
// currency. Parsing is best-effort: any parse failure degrades to the
// default region rather than propagating an error.
func FromPhoneNumber(phone string) domain.Currency {
	num, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil {
		return FromCountryCode(DefaultRegion)
	}
	region := phonenumbers.GetRegionCodeForNumber(num)
	if region == "" {
		region = DefaultRegion
	}
	return FromCountryCode(region)
}

// DeriveAccountNumber derives the 10-digit fiat account number from a phone
// number: non-digits are stripped, the last 10 digits are kept, and shorter
// inputs are left-padded with zeros. Unlike the currency resolvers this
// fails loudly: input with no usable digits is an error for the caller to
// surface as a validation failure.
func DeriveAccountNumber(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if s == "" {
		return "", ErrUnusablePhoneNumber
	}
	if len(s) >= accountNumberWidth {
		return s[len(s)-accountNumberWidth:], nil
	}
	return strings.Repeat("0", accountNumberWidth-len(s)) + s, nil
}

// GenerateCryptoAddress produces a fresh on-chain-style wallet address:
// "0x" followed by 40 hex characters of a sha3-256 digest over a UUID and
// the current nanosecond clock.
func GenerateCryptoAddress() string {
	var seed [32]byte
	id := uuid.New()
	copy(seed[:16], id[:])
	binary.BigEndian.PutUint64(seed[16:24], uint64(time.Now().UnixNano()))
	_, _ = rand.Read(seed[24:])

	sum := sha3.Sum256(seed[:])
	return "0x" + hex.EncodeToString(sum[:20])
}
