package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in minor units. Journal lines are stored in cents so
// balance checks are exact integer arithmetic.
type Cents int64

var hundred = decimal.NewFromInt(100)

// CentsFromDecimal converts a dollar amount to cents, rounding half away from zero
func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// ParseDollars parses a decimal dollar string such as "12.34". Amounts with a
// nonzero digit past the cents are rejected.
func ParseDollars(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return exactCents(d)
}

func exactCents(d decimal.Decimal) (Cents, error) {
	if !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d.String())
	}
	return CentsFromDecimal(d), nil
}

// Decimal returns the dollar value
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// DollarString formats the amount as a two-place decimal string
func (c Cents) DollarString() string {
	return c.Decimal().StringFixed(2)
}

// Abs returns the absolute value
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// IsZero reports whether the amount is zero
func (c Cents) IsZero() bool { return c == 0 }

// MarshalJSON renders cents as a dollar string so API clients never see minor units
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.DollarString())
}

// UnmarshalJSON accepts a dollar string or a JSON number of dollars
func (c *Cents) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var d decimal.Decimal
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("invalid amount: %s", string(data))
		}
		parsed, err := exactCents(d)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	parsed, err := ParseDollars(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer
func (c Cents) Value() (driver.Value, error) {
	return int64(c), nil
}

// Scan implements sql.Scanner
func (c *Cents) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*c = 0
	case int64:
		*c = Cents(v)
	case int32:
		*c = Cents(v)
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return err
		}
		*c = Cents(d.IntPart())
	default:
		return fmt.Errorf("cannot scan %T into Cents", value)
	}
	return nil
}
