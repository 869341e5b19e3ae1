// Package dateutil parses year-month periods and renders them with
// user-friendly format tokens.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// ErrInvalidPeriod indicates a period that is not in YYYY-MM form.
var ErrInvalidPeriod = errors.New("invalid period")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultPeriodFormat renders "2021-03" as "Mar 2021".
const DefaultPeriodFormat = "MMM YYYY"

// periodLayout is the wire layout of a period once the synthetic day is appended.
const periodLayout = "2006-01-02"

// syntheticDay is appended to "YYYY-MM" so parsing never depends on the day
// of month or on time zone offsets.
const syntheticDay = "-01"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// PeriodPresets provides named shortcuts for common period formats.
var PeriodPresets = map[string]string{
	"short":   "MMM YYYY",
	"long":    "MMMM YYYY",
	"numeric": "MM/YYYY",
	"iso":     "YYYY-MM",
}

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D
// Use brackets to escape literal text: [Since] preserves "Since" literally.
// Any non-token characters outside brackets are preserved as literals.
// Returns ErrInvalidDateFormat if the format is empty, too long, or has unclosed brackets.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var result strings.Builder
	result.Grow(len(format) + 10)

	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.Index(format[i+1:], "]")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}

		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// ResolvePeriodFormat turns a preset name or token format into a Go layout.
// An empty value selects DefaultPeriodFormat.
func ResolvePeriodFormat(value string) (string, error) {
	if value == "" {
		value = DefaultPeriodFormat
	}
	if preset, ok := PeriodPresets[strings.ToLower(value)]; ok {
		value = preset
	}
	return ParseDateFormat(value)
}

// ParsePeriod parses a "YYYY-MM" period into the first day of that month (UTC).
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(periodLayout, strings.TrimSpace(period)+syntheticDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return t, nil
}

// FormatPeriod renders a "YYYY-MM" period with the given Go layout.
// An empty period renders as "". A period that cannot be parsed is returned
// unchanged so user input is never silently dropped.
func FormatPeriod(period, layout string) string {
	if period == "" {
		return ""
	}
	t, err := ParsePeriod(period)
	if err != nil {
		return period
	}
	return t.Format(layout)
}
