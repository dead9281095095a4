package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in cents.  Prices are stored as DECIMAL(10,2) in
// the database and converted at the repository boundary so that
// arithmetic in Go never touches floating point.
type Money int64

// String renders the amount with two decimal places, e.g. "50.00".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMoney converts a decimal string such as "50", "50.5" or "50.00"
// into cents.  More than two fractional digits is rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("money %q: more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money %q: %w", s, err)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Money(v), nil
}

// Scan implements sql.Scanner for DECIMAL columns, which the MySQL
// driver delivers as []byte.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = 0
		return nil
	case []byte:
		p, err := ParseMoney(string(v))
		if err != nil {
			return err
		}
		*m = p
		return nil
	case string:
		p, err := ParseMoney(v)
		if err != nil {
			return err
		}
		*m = p
		return nil
	case int64:
		*m = Money(v * 100)
		return nil
	case float64:
		p, err := ParseMoney(strconv.FormatFloat(v, 'f', 2, 64))
		if err != nil {
			return err
		}
		*m = p
		return nil
	}
	return fmt.Errorf("money: unsupported scan type %T", src)
}

// Value implements driver.Valuer so a Money can be bound directly to a
// DECIMAL placeholder.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}
