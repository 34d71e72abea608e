// Package date validates split day/month/year form fields and converts them
// to calendar dates. Dates carry no time of day and are kept at UTC midnight.
package date

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	FieldDay   = "day"
	FieldMonth = "month"
	FieldYear  = "year"
)

// MessageInvalidDate is shown when the three fields do not form a real date.
const MessageInvalidDate = "Please enter a valid date"

var ErrInvalidDate = errors.New("invalid date")

// now is swapped in tests.
var now = time.Now

// Fields holds the raw text of the three date inputs.
type Fields struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

// IsValid reports whether (year, month, day) survives a round trip through
// calendar normalization unchanged.
func IsValid(year, month, day int) bool {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// DaysInMonth returns the number of days in the 1-based month of year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Of truncates t to its calendar date at UTC midnight.
func Of(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func New(year, month, day int) (time.Time, error) {
	if !IsValid(year, month, day) {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// InitialFields renders t for editing: two-digit day and month, four-digit
// year.
func InitialFields(t time.Time) Fields {
	return Fields{
		Day:   fmt.Sprintf("%02d", t.Day()),
		Month: fmt.Sprintf("%02d", int(t.Month())),
		Year:  fmt.Sprintf("%04d", t.Year()),
	}
}

// ApplyFieldEdit updates one field from raw keyboard input. Non-digits are
// dropped; month is clamped to [1,12]; day is clamped to the length of the
// month given by the other two fields; year is cut to four digits but not
// range checked. It never fails: unparsable input falls back to a clamped
// default. Unknown field names leave current unchanged.
func ApplyFieldEdit(field, raw string, current Fields) Fields {
	digits := onlyDigits(raw)
	next := current

	switch field {
	case FieldMonth:
		m := parseOr(digits, 1)
		next.Month = fmt.Sprintf("%02d", clamp(m, 1, 12))
	case FieldYear:
		if len(digits) > 4 {
			digits = digits[:4]
		}
		next.Year = digits
	case FieldDay:
		y := parseOr(current.Year, now().Year())
		m := parseOr(current.Month, 1)
		d := parseOr(digits, 1)
		next.Day = fmt.Sprintf("%02d", clamp(d, 1, DaysInMonth(y, m)))
	}
	return next
}

// Date converts the fields to a calendar date.
func (f Fields) Date() (time.Time, error) {
	y, errY := strconv.Atoi(strings.TrimSpace(f.Year))
	m, errM := strconv.Atoi(strings.TrimSpace(f.Month))
	d, errD := strconv.Atoi(strings.TrimSpace(f.Day))
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("%w: %q-%q-%q", ErrInvalidDate, f.Year, f.Month, f.Day)
	}
	return New(y, m, d)
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseOr reads the leading decimal digits of s. Zero or an absent number
// yields def. Values too large for int saturate so clamping still applies.
func parseOr(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	if n == 0 {
		return def
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
