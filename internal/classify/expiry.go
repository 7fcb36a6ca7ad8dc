package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	fullMonthRe = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2}),?\s*(\d{4})?`)
	byMonthRe   = regexp.MustCompile(`by\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s+(\d{1,2})`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

var monthByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// DaysToExpiry estimates the whole calendar days between now and the first
// date mentioned in the text. A missing year means the year of now. Returns
// nil when no pattern yields a valid date. Past dates give negative values.
func DaysToExpiry(text string, now time.Time) *int {
	q := strings.ToLower(text)

	if m := fullMonthRe.FindStringSubmatch(q); m != nil {
		if d, ok := dateFrom(m[1][:3], m[2], m[3], now); ok {
			return daysBetween(now, d)
		}
	}
	if m := byMonthRe.FindStringSubmatch(q); m != nil {
		if d, ok := dateFrom(m[1], m[2], "", now); ok {
			return daysBetween(now, d)
		}
	}
	if m := isoDateRe.FindStringSubmatch(q); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := validDate(y, time.Month(mo), day, now.Location()); ok {
			return daysBetween(now, d)
		}
	}
	return nil
}

func dateFrom(monthPrefix, dayStr, yearStr string, now time.Time) (time.Time, bool) {
	month, ok := monthByPrefix[monthPrefix]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	year := now.Year()
	if yearStr != "" {
		if year, err = strconv.Atoi(yearStr); err != nil {
			return time.Time{}, false
		}
	}
	return validDate(year, month, day, now.Location())
}

// validDate rejects dates that time.Date would normalise (e.g. February 30).
func validDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func daysBetween(now, target time.Time) *int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(math.Round(target.Sub(today).Hours() / 24))
	return &days
}
