package extractor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"workorder-intake-go/internal/types"
)

// UntitledJob is used when the raw text yields no title.
const UntitledJob = "Untitled Work Order"

const (
	maxTitleRunes = 100
	minContactLen = 3
	maxContactLen = 40
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?1[\s.\-]?)?(?:\((\d{3})\)|(\d{3}))[\s.\-]?(\d{3})[\s.\-]?(\d{4})`)

	durationRangeRe  = regexp.MustCompile(`(?i)\b(\d+)\s*(?:-|to)\s*(\d+)\s*(?:hours?|hrs?)\b`)
	durationSingleRe = regexp.MustCompile(`(?i)\b(\d+)\s*(?:hours?|hrs?)\b`)

	dollarRe       = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+)(\.\d{1,2})?`)
	commaGroupedRe = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?\b`)
	payRateRe      = regexp.MustCompile(`(?i)\$\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?\s*(?:/\s*|per\s+)?(hr|hour|flat)\b`)

	contactRe = regexp.MustCompile(`(?i)\b(?:contact|attn|attention)\s*:\s*([A-Za-z][A-Za-z ]*)`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

type keywordRule struct {
	re    *regexp.Regexp
	value string
}

// Trade keyword families, checked in order.
var tradeRules = []keywordRule{
	{regexp.MustCompile(`(?i)\bhvac\b|air[\s\-]?condition|\ba/c\b`), string(types.TradeHVAC)},
	{regexp.MustCompile(`(?i)\bplumb`), string(types.TradePlumbing)},
	{regexp.MustCompile(`(?i)\belectr`), string(types.TradeElectrical)},
	{regexp.MustCompile(`(?i)\bhandyman\b`), string(types.TradeHandyman)},
	{regexp.MustCompile(`(?i)\bfacilit`), string(types.TradeFacilities)},
}

var urgencyRules = []keywordRule{
	{regexp.MustCompile(`(?i)\b(?:emergency|critical|asap|immediately)\b`), types.UrgencyEmergency},
	{regexp.MustCompile(`(?i)\b(?:today|same[\s\-]day)\b`), types.UrgencySameDay},
	{regexp.MustCompile(`(?i)\b(?:tomorrow|next[\s\-]day)\b`), types.UrgencyNextDay},
	{regexp.MustCompile(`(?i)\bweek\b`), types.UrgencyWithinWeek},
}

// a contact name ends at the first of these words
var contactStopWords = map[string]bool{
	"at": true, "on": true, "call": true, "phone": true, "email": true, "tel": true, "cell": true, "or": true,
}

// Heuristic extracts a record from raw text with regular expressions and keyword rules.
// It never fails: any field it cannot find gets its empty or default value.
func Heuristic(raw string, now time.Time) types.ExtractedRecord {
	collapsed := collapseWhitespace(raw)
	budgetMin, budgetMax := extractBudget(raw)
	trade := types.TradeCategory(matchKeyword(tradeRules, raw, string(types.TradeHVAC)))

	return types.ExtractedRecord{
		JobTitle:         extractTitle(collapsed),
		Description:      heuristicDescription(collapsed, trade),
		TradeCategory:    trade,
		ServiceAddress:   extractAddress(raw),
		ScheduledStart:   ResolveSchedule(raw, now).Format(types.ScheduleLayout),
		Urgency:          matchKeyword(urgencyRules, raw, types.UrgencyWithinWeek),
		DurationEstimate: extractDuration(raw),
		BudgetMin:        budgetMin,
		BudgetMax:        budgetMax,
		PayRate:          extractPayRate(raw),
		ContactName:      extractContactName(raw),
		ContactPhone:     ExtractPhone(raw),
		ContactEmail:     emailRe.FindString(raw),
	}
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func extractTitle(collapsed string) string {
	if collapsed == "" {
		return UntitledJob
	}
	runes := []rune(collapsed)
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}
	title := strings.TrimSpace(string(runes))
	if title == "" {
		return UntitledJob
	}
	return title
}

func heuristicDescription(collapsed string, trade types.TradeCategory) string {
	return types.RenderDescription(map[string]string{
		"Symptoms":  collapsed,
		"Diagnosis": "To be confirmed by the technician on site.",
		"Solution":  "Inspect, diagnose and repair per on-site findings.",
		"Safety":    "Follow standard " + string(trade) + " safety procedures; isolate power or supply before work.",
	})
}

func matchKeyword(rules []keywordRule, text, fallback string) string {
	for _, r := range rules {
		if r.re.MatchString(text) {
			return r.value
		}
	}
	return fallback
}

func extractAddress(raw string) string {
	return strings.TrimSpace(types.AddressPattern.FindString(raw))
}

// ExtractPhone returns the first standalone 10-digit North American number
// formatted as (AAA) PPP-LLLL, or "" if none is present.
func ExtractPhone(raw string) string {
	for pos := 0; pos < len(raw); {
		loc := phoneRe.FindStringSubmatchIndex(raw[pos:])
		if loc == nil {
			return ""
		}
		start, end := pos+loc[0], pos+loc[1]
		if !digitAt(raw, start-1) && !digitAt(raw, end) {
			m := raw[start:end]
			sub := phoneRe.FindStringSubmatch(m)
			area := sub[1]
			if area == "" {
				area = sub[2]
			}
			return "(" + area + ") " + sub[3] + "-" + sub[4]
		}
		pos = start + 1
	}
	return ""
}

func digitAt(s string, i int) bool {
	return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func extractDuration(raw string) string {
	if m := durationRangeRe.FindStringSubmatch(raw); m != nil {
		return m[1] + "-" + m[2] + " hours"
	}
	if m := durationSingleRe.FindStringSubmatch(raw); m != nil {
		if m[1] == "1" {
			return "1 hour"
		}
		return m[1] + " hours"
	}
	return ""
}

func parseAmount(whole, frac string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(whole, ",", "")+frac, 64)
	return v, err == nil
}

// extractBudget collects dollar-prefixed and comma-grouped amounts and returns their min and max.
func extractBudget(raw string) (float64, float64) {
	type span struct{ start, end int }
	var amounts []float64
	var taken []span

	for _, m := range dollarRe.FindAllStringSubmatchIndex(raw, -1) {
		frac := ""
		if m[4] >= 0 {
			frac = raw[m[4]:m[5]]
		}
		if v, ok := parseAmount(raw[m[2]:m[3]], frac); ok {
			amounts = append(amounts, v)
			taken = append(taken, span{m[0], m[1]})
		}
	}
	for _, m := range commaGroupedRe.FindAllStringIndex(raw, -1) {
		overlaps := false
		for _, s := range taken {
			if m[0] < s.end && m[1] > s.start {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		if v, ok := parseAmount(raw[m[0]:m[1]], ""); ok {
			amounts = append(amounts, v)
		}
	}

	if len(amounts) == 0 {
		return 0, 0
	}
	sort.Float64s(amounts)
	return amounts[0], amounts[len(amounts)-1]
}

func extractPayRate(raw string) string {
	m := payRateRe.FindString(raw)
	return collapseWhitespace(m)
}

func extractContactName(raw string) string {
	m := contactRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	var words []string
	for _, w := range strings.Fields(m[1]) {
		if contactStopWords[strings.ToLower(w)] {
			break
		}
		words = append(words, w)
	}
	name := strings.Join(words, " ")
	if len(name) > maxContactLen {
		name = strings.TrimSpace(name[:maxContactLen])
	}
	if len(name) < minContactLen {
		return ""
	}
	return name
}
