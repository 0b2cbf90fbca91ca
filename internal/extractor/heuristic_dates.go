package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"workorder-intake-go/internal/types"
)

const (
	defaultHour = 9
	// a time at most this many bytes from a date belongs to it ("June 5 at 2 pm")
	maxPairGap = 12
)

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	namedDateRe   = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)

	meridiemTimeRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*([ap])\.?m\b`)
	clockTimeRe    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

var monthPrefixes = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

type dateParts struct {
	year       int // 0 when the text gave no year
	month      time.Month
	day        int
	hasYear    bool
	start, end int
}

type timeOfDay struct {
	hour, minute int
	start, end   int
}

// ResolveSchedule finds the first date in raw (numeric M/D/Y, then ISO Y-M-D, then
// "Month D[, Year]") and resolves it relative to now. The time of day is the one
// written next to that date, else the first time anywhere in raw, else 09:00.
// Dates without a year land in the current year unless already past, then next year.
// When no date is present the result is tomorrow at 09:00.
//
// Only the date is kept off the past. An explicit year is taken as written, even
// one already gone, and a date of today keeps its time even if that hour has passed.
func ResolveSchedule(raw string, now time.Time) time.Time {
	times := findTimes(raw)

	for _, find := range []func(string) []dateParts{findNumericDates, findISODates, findNamedDates} {
		for _, p := range find(raw) {
			hour, minute := pairedTime(raw, p, times)
			if t, ok := resolveDate(p, now, hour, minute); ok {
				return t
			}
		}
	}
	return types.DefaultStart(now)
}

func resolveDate(p dateParts, now time.Time, hour, minute int) (time.Time, bool) {
	year := p.year
	if !p.hasYear {
		year = types.ResolveYear(p.month, p.day, now)
	}
	t := time.Date(year, p.month, p.day, hour, minute, 0, 0, now.Location())
	// reject dates time.Date had to normalize (Feb 30, 13/45/2025, ...)
	if t.Year() != year || t.Month() != p.month || t.Day() != p.day {
		return time.Time{}, false
	}
	return t, true
}

func findNumericDates(raw string) []dateParts {
	var out []dateParts
	for _, m := range numericDateRe.FindAllStringSubmatchIndex(raw, -1) {
		month, _ := strconv.Atoi(raw[m[2]:m[3]])
		day, _ := strconv.Atoi(raw[m[4]:m[5]])
		yearText := raw[m[6]:m[7]]
		year, _ := strconv.Atoi(yearText)
		if len(yearText) == 2 {
			year += 2000
		}
		if month < 1 || month > 12 {
			continue
		}
		out = append(out, dateParts{year: year, month: time.Month(month), day: day, hasYear: true, start: m[0], end: m[1]})
	}
	return out
}

func findISODates(raw string) []dateParts {
	var out []dateParts
	for _, m := range isoDateRe.FindAllStringSubmatchIndex(raw, -1) {
		year, _ := strconv.Atoi(raw[m[2]:m[3]])
		month, _ := strconv.Atoi(raw[m[4]:m[5]])
		day, _ := strconv.Atoi(raw[m[6]:m[7]])
		if month < 1 || month > 12 {
			continue
		}
		out = append(out, dateParts{year: year, month: time.Month(month), day: day, hasYear: true, start: m[0], end: m[1]})
	}
	return out
}

func findNamedDates(raw string) []dateParts {
	var out []dateParts
	for _, m := range namedDateRe.FindAllStringSubmatchIndex(raw, -1) {
		month, ok := monthPrefixes[strings.ToLower(raw[m[2]:m[3]])[:3]]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(raw[m[4]:m[5]])
		p := dateParts{month: month, day: day, start: m[0], end: m[1]}
		if m[6] >= 0 {
			p.year, _ = strconv.Atoi(raw[m[6]:m[7]])
			p.hasYear = true
		}
		out = append(out, p)
	}
	return out
}

// findTimes returns every "H:MM am/pm", "H am/pm" and 24-hour "HH:MM" in raw,
// meridiem forms first. A clock time inside a meridiem match is not repeated.
func findTimes(raw string) []timeOfDay {
	var out []timeOfDay
	for _, m := range meridiemTimeRe.FindAllStringSubmatchIndex(raw, -1) {
		hour, _ := strconv.Atoi(raw[m[2]:m[3]])
		if hour < 1 || hour > 12 {
			continue
		}
		minute := 0
		if m[4] >= 0 {
			minute, _ = strconv.Atoi(raw[m[4]:m[5]])
		}
		pm := strings.EqualFold(raw[m[6]:m[7]], "p")
		switch {
		case pm && hour != 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		out = append(out, timeOfDay{hour: hour, minute: minute, start: m[0], end: m[1]})
	}
	meridiem := len(out)
	for _, m := range clockTimeRe.FindAllStringSubmatchIndex(raw, -1) {
		covered := false
		for _, t := range out[:meridiem] {
			if m[0] < t.end && m[1] > t.start {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		hour, _ := strconv.Atoi(raw[m[2]:m[3]])
		minute, _ := strconv.Atoi(raw[m[4]:m[5]])
		out = append(out, timeOfDay{hour: hour, minute: minute, start: m[0], end: m[1]})
	}
	return out
}

// pairedTime picks the time closest to the date within maxPairGap with no sentence
// break between them, preferring one after the date on a tie. Without one it falls
// back to the first time in raw.
func pairedTime(raw string, p dateParts, times []timeOfDay) (int, int) {
	best, bestScore := -1, 0
	for i, t := range times {
		var gap, score int
		switch {
		case t.start >= p.end:
			gap = t.start - p.end
			score = 2 * gap
		case t.end <= p.start:
			gap = p.start - t.end
			score = 2*gap + 1
		default:
			continue
		}
		if gap > maxPairGap || strings.ContainsAny(gapText(raw, p, t), ".;\n") {
			continue
		}
		if best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return times[best].hour, times[best].minute
	}
	if len(times) > 0 {
		return times[0].hour, times[0].minute
	}
	return defaultHour, 0
}

func gapText(raw string, p dateParts, t timeOfDay) string {
	if t.start >= p.end {
		return raw[p.end:t.start]
	}
	return raw[t.end:p.start]
}
