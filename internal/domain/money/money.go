// Package money provides the exact decimal value type used for every monetary
// quantity in the system. Amounts are backed by shopspring/decimal and are
// always held at a fixed scale of two fractional digits; binary floating
// point is never used for arithmetic, comparison, or persistence.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every Amount.
const Scale = 2

var (
	ErrMalformed = errors.New("malformed monetary amount")
	ErrNegative  = errors.New("monetary amount must not be negative")
)

// Amount is an exact decimal monetary value. The zero value is zero currency
// units. Amounts are plain values and may be freely copied.
type Amount struct {
	d decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// NewFromDecimal builds an Amount from a raw decimal, rounding half-up to the
// fixed scale.
func NewFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.Round(Scale)}
}

// FromMinorUnits converts an integer count of minor units ("cents") into an
// Amount. The conversion is exact.
func FromMinorUnits(units int64) Amount {
	return Amount{d: decimal.New(units, -Scale)}
}

// Parse reads a user-supplied monetary string. Both decimal-comma and
// decimal-point locales are accepted: the rightmost separator followed by one
// or two digits is taken as the decimal separator, everything else must form
// valid three-digit thousands groups. Negative and malformed input is
// rejected.
func Parse(text string) (Amount, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Amount{}, ErrMalformed
	}
	if strings.HasPrefix(s, "-") {
		return Amount{}, ErrNegative
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != '.' {
			return Amount{}, ErrMalformed
		}
	}

	normalized, err := normalize(s)
	if err != nil {
		return Amount{}, err
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Amount{}, ErrMalformed
	}
	return Amount{d: d.Round(Scale)}, nil
}

// normalize rewrites a locale-formatted number into plain "1234.56" form.
func normalize(s string) (string, error) {
	lastSep := strings.LastIndexAny(s, ",.")
	if lastSep < 0 {
		return s, nil
	}

	sep := s[lastSep]
	frac := s[lastSep+1:]
	if (len(frac) == 1 || len(frac) == 2) && strings.IndexByte(s, sep) == lastSep {
		// The final separator is the decimal separator; anything before it
		// may only group thousands.
		intPart, err := stripThousands(s[:lastSep])
		if err != nil {
			return "", err
		}
		return intPart + "." + frac, nil
	}

	return stripThousands(s)
}

// stripThousands removes grouping separators, requiring every group after the
// first to contain exactly three digits.
func stripThousands(s string) (string, error) {
	if s == "" {
		return "0", nil
	}
	groups := strings.Split(strings.ReplaceAll(s, ",", "."), ".")
	for i, g := range groups {
		if !allDigits(g) {
			return "", ErrMalformed
		}
		if len(groups) == 1 {
			continue
		}
		if i == 0 {
			if len(g) == 0 || len(g) > 3 {
				return "", ErrMalformed
			}
		} else if len(g) != 3 {
			return "", ErrMalformed
		}
	}
	return strings.Join(groups, ""), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// MinorUnits converts the amount to an integer count of minor units, rounding
// half-up at the scale boundary. FromMinorUnits(a.MinorUnits()) == a for any
// Amount at the supported scale.
func (a Amount) MinorUnits() int64 {
	return a.d.Shift(Scale).Round(0).IntPart()
}

// Decimal exposes the underlying decimal for persistence adapters.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether two amounts represent the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }
func (a Amount) IsZero() bool     { return a.d.IsZero() }

// String renders the amount in fixed two-decimal form, e.g. "700.00". This is
// the only textual representation that crosses process boundaries.
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// MarshalJSON emits the fixed two-decimal form as a JSON string so no
// consumer can misread the value as a binary float.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts the fixed string form produced by MarshalJSON. Signed
// values are allowed here because serialized ledger entries carry signed
// amounts.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	if neg {
		parsed = parsed.Neg()
	}
	*a = parsed
	return nil
}
