// Package valueobjects - Money is the ledger's only unit of account.
//
// Per the ledger's non-goals, money here is integer-minor-unit-only: no
// floating point, no arbitrary-precision rationals, no FX conversion.
// Amounts are always non-negative; a negative delta is expressed as a debit
// on one side and a credit on the other, never as negative Money.
package valueobjects

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an exact integer amount of a currency's minor unit (e.g. cents).
type Money struct {
	minorUnits int64
	currency   Currency
}

// Sentinel errors for Money operations. Callers in the ledger package map
// these onto the ledger's error Kinds (ArithmeticError, CurrencyMismatch,
// Validation).
var (
	ErrNegativeAmount           = errors.New("amount cannot be negative")
	ErrCurrencyMismatch         = errors.New("cannot operate on different currencies")
	ErrInsufficientLedgerAmount = errors.New("insufficient amount")
	ErrInvalidAmount            = errors.New("invalid amount format")
	ErrOverflow                 = errors.New("arithmetic overflow")
)

// NewMoney builds a Money value from an already-scaled integer amount of
// minor units (e.g. 1050 cents for $10.50).
func NewMoney(minorUnits int64, currency Currency) (Money, error) {
	if minorUnits < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{minorUnits: minorUnits, currency: currency}, nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{minorUnits: 0, currency: currency}
}

// ParseDecimal parses a decimal string (e.g. "100.50") into Money, scaling
// it to the currency's minor unit. An input with more fractional digits
// than the currency's declared scale is rejected (the caller has no way to
// express that precision honestly) rather than silently rounded.
func ParseDecimal(s string, currency Currency) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if neg {
		return Money{}, ErrNegativeAmount
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (hasFrac && !isDigits(fracPart)) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if hasFrac && len(fracPart) > currency.Scale() {
		return Money{}, fmt.Errorf("%w: %q has more fractional digits than %s allows (scale %d)", ErrInvalidAmount, s, currency.Code(), currency.Scale())
	}

	fracPart = fracPart + strings.Repeat("0", currency.Scale()-len(fracPart))

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	var frac int64
	if fracPart != "" {
		frac, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}

	scaleFactor := pow10(currency.Scale())
	scaledWhole, overflow := mulInt64(whole, scaleFactor)
	if overflow {
		return Money{}, ErrOverflow
	}
	total, overflow := addInt64(scaledWhole, frac)
	if overflow {
		return Money{}, ErrOverflow
	}

	return Money{minorUnits: total, currency: currency}, nil
}

// Currency returns the currency this amount is denominated in.
func (m Money) Currency() Currency { return m.currency }

// MinorUnits returns the exact integer amount in minor units.
func (m Money) MinorUnits() int64 { return m.minorUnits }

// String renders a human-readable decimal amount, e.g. "100.50 USD".
func (m Money) String() string {
	scale := m.currency.Scale()
	factor := pow10(scale)
	whole := m.minorUnits / factor
	frac := m.minorUnits % factor
	if scale == 0 {
		return fmt.Sprintf("%d %s", whole, m.currency.Code())
	}
	return fmt.Sprintf("%d.%0*d %s", whole, scale, frac, m.currency.Code())
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.minorUnits == 0 }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.minorUnits > 0 }

// Add returns the sum of two same-currency amounts.
func (m Money) Add(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}
	sum, overflow := addInt64(m.minorUnits, other.minorUnits)
	if overflow {
		return Money{}, ErrOverflow
	}
	return Money{minorUnits: sum, currency: m.currency}, nil
}

// Subtract returns m - other. A negative result is rejected with
// ErrInsufficientLedgerAmount, so Subtract never yields a negative Money.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}
	diff, overflow := subInt64(m.minorUnits, other.minorUnits)
	if overflow {
		return Money{}, ErrOverflow
	}
	if diff < 0 {
		return Money{}, ErrInsufficientLedgerAmount
	}
	return Money{minorUnits: diff, currency: m.currency}, nil
}

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.minorUnits >= other.minorUnits, nil
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.minorUnits < other.minorUnits, nil
}

// Equals reports whether two amounts have the same currency and value.
func (m Money) Equals(other Money) bool {
	return m.currency.Equals(other.currency) && m.minorUnits == other.minorUnits
}

func isDigits(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pow10(n int) int64 {
	result := int64(1)
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}

func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

func subInt64(a, b int64) (int64, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, true
	}
	return diff, false
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	result := a * b
	if result/b != a {
		return 0, true
	}
	if result > math.MaxInt64 || result < math.MinInt64 {
		return 0, true
	}
	return result, false
}
