// Package money represents monetary amounts as integer cents to avoid
// floating point drift in balance arithmetic. Amounts cross the wire as
// decimal strings with two fractional digits ("1250.00", "-50.00").
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a signed amount in minor units (cents).
type Cents int64

// Parse converts a decimal string with up to 2 fractional digits into cents.
// A leading '+' or '-' is allowed.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount required")
	}

	neg := false
	if s[0] == '+' {
		s = s[1:]
	} else if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	if s == "" {
		return 0, fmt.Errorf("invalid amount")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount")
	}

	// Both parts must be bare digit runs; ParseInt alone would let a stray
	// sign through ("10.-5", "--5.00").
	intPart := parts[0]
	if !isDigits(intPart) {
		return 0, fmt.Errorf("invalid amount")
	}

	frac := "00"
	if len(parts) == 2 {
		if len(parts[1]) > 2 {
			return 0, fmt.Errorf("amount supports up to 2 decimals")
		}
		if !isDigits(parts[1]) {
			return 0, fmt.Errorf("invalid amount")
		}
		frac = parts[1] + strings.Repeat("0", 2-len(parts[1]))
	}

	ip, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount integer: %w", err)
	}

	fp, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount fractional: %w", err)
	}

	if ip > (math.MaxInt64-fp)/100 {
		return 0, fmt.Errorf("amount out of range")
	}

	total := ip*100 + fp
	if neg {
		total = -total
	}

	return Cents(total), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// String renders the amount as a decimal with exactly two fractional digits.
func (c Cents) String() string {
	v := int64(c)

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MulRatio multiplies the amount by num/den, rounding half up.
// Used for the 2.5x payout (num=5, den=2).
func (c Cents) MulRatio(num, den int64) Cents {
	v := int64(c) * num

	q := v / den
	r := v % den
	if r < 0 {
		r = -r
	}
	if r*2 >= den {
		if v < 0 {
			q--
		} else {
			q++
		}
	}

	return Cents(q)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		// Tolerate bare numbers too.
		s = string(data)
	}

	v, err := Parse(s)
	if err != nil {
		return err
	}

	*c = v

	return nil
}

func (c Cents) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}

	*c = v

	return nil
}
