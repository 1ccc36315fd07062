package logic

import (
	"fmt"
	"unicode/utf8"
)

// DigitCount is the number of cells in an alarm value (H, H, M, M).
const DigitCount = 4

// Radix is the per-cell modulus used when incrementing alarm digits.
var Radix = [DigitCount]int{3, 10, 6, 10}

// Digits is a candidate or registered alarm time as four decimal cells.
type Digits [DigitCount]int

// Increment advances cell i modulo its radix. Increments never refuse an
// illegal intermediate value; only Legal decides validity.
func (d Digits) Increment(i int) (Digits, error) {
	if i < 0 || i >= DigitCount {
		return d, fmt.Errorf("digit index %d out of range [0, %d)", i, DigitCount)
	}
	d[i] = (d[i] + 1) % Radix[i]
	return d, nil
}

// Legal reports whether d is a valid time of day. H1=2 with H2>3 is the
// only state the radices allow that is not.
func (d Digits) Legal() bool {
	return !(d[0] == 2 && d[1] > 3)
}

// Hour returns the hour encoded in the first two cells.
func (d Digits) Hour() int { return d[0]*10 + d[1] }

// Minute returns the minute encoded in the last two cells.
func (d Digits) Minute() int { return d[2]*10 + d[3] }

// Matches reports whether d is due at hour:minute.
func (d Digits) Matches(hour, minute int) bool {
	return d.Hour() == hour && d.Minute() == minute
}

// Less orders digits lexicographically, which is chronological order.
func (d Digits) Less(o Digits) bool {
	for i := range d {
		if d[i] != o[i] {
			return d[i] < o[i]
		}
	}
	return false
}

// String returns the persisted HHMM form.
func (d Digits) String() string {
	return fmt.Sprintf("%d%d%d%d", d[0], d[1], d[2], d[3])
}

// Clock returns the HH:MM form used in logs and on the status page.
func (d Digits) Clock() string {
	return fmt.Sprintf("%d%d:%d%d", d[0], d[1], d[2], d[3])
}

// DigitsAt builds the digits for a time of day.
func DigitsAt(hour, minute int) Digits {
	return Digits{hour / 10, hour % 10, minute / 10, minute % 10}
}

// ParseDigits parses a persisted HHMM line. It returns the number of
// characters (runes) found so callers can report a wrong length.
func ParseDigits(s string) (Digits, int, error) {
	var d Digits
	n := utf8.RuneCountInString(s)
	if n != DigitCount {
		return d, n, fmt.Errorf("size mismatch: %d characters instead of %d", n, DigitCount)
	}
	i := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return d, n, fmt.Errorf("invalid digit %q at position %d", c, i)
		}
		d[i] = int(c - '0')
		i++
	}
	return d, n, nil
}
