package plan

import "fmt"

// Cents is a currency amount in integer cents.
type Cents int64

// CentsFromDollars converts a whole-dollar amount to cents.
func CentsFromDollars(d int64) Cents {
	return Cents(d * 100)
}

// Mul multiplies the amount by a seat count.
func (c Cents) Mul(n int) Cents {
	return c * Cents(n)
}

// Format renders the amount the way the upgrade form displays it:
// whole-dollar amounts without decimals ("$100"), fractional amounts
// with two ("$10.50").
func (c Cents) Format() string {
	if c%100 == 0 {
		return fmt.Sprintf("$%d", c/100)
	}
	return fmt.Sprintf("$%.2f", float64(c)/100)
}
