package types

import (
	"strings"
	"time"
)

var tradeAliases = map[string]TradeCategory{
	"hvac":                  TradeHVAC,
	"hvac/r":                TradeHVAC,
	"heating":               TradeHVAC,
	"cooling":               TradeHVAC,
	"heating and cooling":   TradeHVAC,
	"air conditioning":      TradeHVAC,
	"ac":                    TradeHVAC,
	"a/c":                   TradeHVAC,
	"refrigeration":         TradeHVAC,
	"plumbing":              TradePlumbing,
	"plumber":               TradePlumbing,
	"electrical":            TradeElectrical,
	"electric":              TradeElectrical,
	"electrician":           TradeElectrical,
	"handyman":              TradeHandyman,
	"general repair":        TradeHandyman,
	"general maintenance":   TradeHandyman,
	"facilities":            TradeFacilities,
	"facility":              TradeFacilities,
	"facilities tech":       TradeFacilities,
	"facilities technician": TradeFacilities,
	"facility maintenance":  TradeFacilities,
	"other":                 TradeOther,
}

var urgencyAliases = map[string]string{
	"emergency":     UrgencyEmergency,
	"urgent":        UrgencyEmergency,
	"critical":      UrgencyEmergency,
	"asap":          UrgencyEmergency,
	"immediate":     UrgencyEmergency,
	"immediately":   UrgencyEmergency,
	"same_day":      UrgencySameDay,
	"today":         UrgencySameDay,
	"next_day":      UrgencyNextDay,
	"tomorrow":      UrgencyNextDay,
	"within_week":   UrgencyWithinWeek,
	"within_a_week": UrgencyWithinWeek,
	"this_week":     UrgencyWithinWeek,
	"week":          UrgencyWithinWeek,
	"flexible":      UrgencyFlexible,
	"anytime":       UrgencyFlexible,
	"whenever":      UrgencyFlexible,
	"no_rush":       UrgencyFlexible,
	"low":           UrgencyFlexible,
}

// NormalizeTrade maps case and synonym variants onto the trade vocabulary.
// Blank stays blank; anything unrecognized is filed as Other.
func NormalizeTrade(s string) TradeCategory {
	key := strings.Join(strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s))), " ")
	if key == "" {
		return ""
	}
	if t, ok := tradeAliases[key]; ok {
		return t
	}
	return TradeOther
}

// NormalizeUrgency maps case, separator and synonym variants onto the urgency enum.
// Blank stays blank; anything unrecognized becomes within_week.
func NormalizeUrgency(s string) string {
	key := strings.Join(strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s))), "_")
	if key == "" {
		return ""
	}
	if u, ok := urgencyAliases[key]; ok {
		return u
	}
	return UrgencyWithinWeek
}

// ResolveYear applies the rollover rule to a month/day with no year: the current
// year unless that date is already strictly before today, then next year.
func ResolveYear(month time.Month, day int, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	candidate := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if candidate.Before(today) {
		return now.Year() + 1
	}
	return now.Year()
}

// DefaultStart is tomorrow at 09:00 in now's location.
func DefaultStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 9, 0, 0, 0, now.Location())
}

var scheduleLayouts = []string{
	ScheduleLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NormalizeSchedule rewrites a scheduled start into ScheduleLayout. A value that does
// not parse becomes DefaultStart; a date before today keeps its month, day and time
// and is moved to the year the rollover rule gives.
func NormalizeSchedule(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	var (
		t   time.Time
		err error
	)
	for _, layout := range scheduleLayouts {
		if t, err = time.ParseInLocation(layout, s, now.Location()); err == nil {
			break
		}
	}
	if err != nil {
		return DefaultStart(now).Format(ScheduleLayout)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !t.Before(today) {
		return t.Format(ScheduleLayout)
	}
	year := ResolveYear(t.Month(), t.Day(), now)
	moved := time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
	// Feb 29 moved into a non-leap year
	if moved.Day() != t.Day() {
		return DefaultStart(now).Format(ScheduleLayout)
	}
	return moved.Format(ScheduleLayout)
}
