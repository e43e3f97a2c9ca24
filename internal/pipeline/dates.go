package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateOrder classifies how the numeric components of a date string must be
// read.
type DateOrder string

const (
	OrderISO        DateOrder = "ISO"
	OrderDayFirst   DateOrder = "DMY"
	OrderMonthFirst DateOrder = "MDY"
	OrderAmbiguous  DateOrder = "AMBIGUOUS"
	OrderUnknown    DateOrder = "UNKNOWN"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}[-/]\d{2}[-/]\d{2}`)
	digitRuns      = regexp.MustCompile(`\d+`)
)

// DetectDateOrder inspects a date string and reports whether its component
// order is fixed by the values themselves. A first component above 12 must
// be a day; a second above 12 forces the first to be a month; otherwise the
// string is ambiguous and the caller's preference decides.
func DetectDateOrder(s string) DateOrder {
	s = strings.TrimSpace(s)
	if isoDatePattern.MatchString(s) {
		return OrderISO
	}

	parts := digitRuns.FindAllString(s, 3)
	if len(parts) < 3 {
		return OrderUnknown
	}
	first, err1 := strconv.Atoi(parts[0])
	second, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return OrderUnknown
	}

	switch {
	case first > 12:
		return OrderDayFirst
	case second > 12:
		return OrderMonthFirst
	default:
		return OrderAmbiguous
	}
}

// ParseDate parses a date string to a calendar date. ISO forms are never
// ambiguous; for two-numeral prefixes the order follows DetectDateOrder,
// with dayFirst breaking ties. The ambiguous resolution is silent.
func ParseDate(s string, dayFirst bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}

	order := DetectDateOrder(s)
	if order == OrderISO {
		t, err := time.Parse("2006-01-02", strings.ReplaceAll(s, "/", "-")[:10])
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse %q as date: invalid day or month value", s)
		}
		return t, nil
	}

	parts := digitRuns.FindAllString(s, 3)
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf(
			"cannot parse %q as date; expected format: DD/MM/YYYY (e.g. 25/12/2024) or YYYY-MM-DD", s)
	}

	first, _ := strconv.Atoi(parts[0])
	second, _ := strconv.Atoi(parts[1])
	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) > 4 {
		return time.Time{}, fmt.Errorf(
			"cannot parse %q as date; expected format: DD/MM/YYYY (e.g. 25/12/2024) or YYYY-MM-DD", s)
	}
	if year < 100 {
		year += 2000
	}

	var day, month int
	switch order {
	case OrderDayFirst:
		day, month = first, second
	case OrderMonthFirst:
		day, month = second, first
	default:
		if dayFirst {
			day, month = first, second
		} else {
			day, month = second, first
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf(
			"cannot parse %q as date: invalid day or month value (supported orders: DD/MM/YYYY and MM/DD/YYYY)", s)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		// time.Date normalized an impossible date such as 31/02.
		return time.Time{}, fmt.Errorf(
			"cannot parse %q as date: day %d does not exist in month %d", s, day, month)
	}
	return t, nil
}
