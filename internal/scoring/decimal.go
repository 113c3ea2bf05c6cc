package scoring

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decimal is a fixed-point value with two decimal places, stored as
// hundredths. Weighted totals are kept in this representation so that
// persisted scores compare and round-trip without binary float drift.
type Decimal int64

// DecimalFromFloat rounds a float to two decimal places, half away from zero.
func DecimalFromFloat(value float64) Decimal {
	return Decimal(math.Round(value * 100))
}

// ParseDecimal parses a decimal string such as "70.00" or "7".
func ParseDecimal(value string) (Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("empty decimal value")
	}

	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", value, err)
	}

	return DecimalFromFloat(parsed), nil
}

// Float64 returns the value as a float. Intended for display and
// arithmetic-free comparisons only.
func (d Decimal) Float64() float64 {
	return float64(d) / 100
}

// String formats the value with exactly two decimal places.
func (d Decimal) String() string {
	units := int64(d) / 100
	cents := int64(d) % 100
	if cents < 0 {
		cents = -cents
	}
	if d < 0 && units == 0 {
		return fmt.Sprintf("-0.%02d", cents)
	}
	return fmt.Sprintf("%d.%02d", units, cents)
}

// MarshalJSON renders the value as a plain JSON number with two decimals.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	parsed, err := ParseDecimal(text)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so totals persist as numeric(5,2).
func (d Decimal) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for numeric, text, and float columns.
func (d *Decimal) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = 0
		return nil
	case int64:
		*d = Decimal(v * 100)
		return nil
	case float64:
		*d = DecimalFromFloat(v)
		return nil
	case []byte:
		parsed, err := ParseDecimal(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDecimal(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("unsupported decimal source type %T", src)
	}
}

// GormDataType keeps GORM migrations on a fixed-precision column.
func (Decimal) GormDataType() string {
	return "numeric(5,2)"
}
