// Package confidence scores how far downstream consumers should trust an extracted record.
package confidence

import (
	"math"
	"strings"
	"unicode"

	"workorder-intake-go/internal/types"
)

// CriticalWeight is how much more a critical field counts toward the overall score.
// 1.5 is a tuning constant, not a derived one.
const CriticalWeight = 1.5

// CriticalFields are the fields a dispatcher cannot work without.
var CriticalFields = map[string]bool{
	types.FieldContactEmail:   true,
	types.FieldContactPhone:   true,
	types.FieldServiceAddress: true,
	types.FieldScheduledStart: true,
}

var sourceMultipliers = map[types.Source]float64{
	types.SourcePrimary:   1.0,
	types.SourceSecondary: 0.98,
	types.SourceHeuristic: 0.7,
}

// Multiplier returns the trust factor for a source; unknown sources get the heuristic factor.
func Multiplier(src types.Source) float64 {
	if m, ok := sourceMultipliers[src]; ok {
		return m
	}
	return sourceMultipliers[types.SourceHeuristic]
}

// BaseScores returns the per-field scores before the source multiplier.
func BaseScores(rec types.ExtractedRecord) types.FieldConfidence {
	return types.FieldConfidence{
		types.FieldJobTitle:         pick(len(rec.JobTitle) > 5, 0.9, 0.3),
		types.FieldDescription:      pick(len(rec.Description) > 20, 0.9, 0.5),
		types.FieldTradeCategory:    pick(rec.TradeCategory.Valid(), 0.95, 0.6),
		types.FieldServiceAddress:   pick(types.HasAddressShape(rec.ServiceAddress), 0.95, 0.4),
		types.FieldScheduledStart:   pick(rec.ScheduledStart != "", 0.85, 0.3),
		types.FieldUrgency:          pick(rec.Urgency != "", 0.9, 0.5),
		types.FieldDurationEstimate: pick(containsDigit(rec.DurationEstimate), 0.8, 0.4),
		types.FieldBudgetMin:        pick(rec.BudgetMin > 0, 0.85, 0.3),
		types.FieldBudgetMax:        pick(rec.BudgetMax > 0, 0.85, 0.3),
		types.FieldPayRate:          pick(types.HasPayRateShape(rec.PayRate), 0.85, 0.4),
		types.FieldContactName:      pick(len(strings.TrimSpace(rec.ContactName)) > 2, 0.9, 0.4),
		types.FieldContactPhone:     pick(types.HasPhoneShape(rec.ContactPhone), 0.95, 0.4),
		types.FieldContactEmail:     pick(strings.Contains(rec.ContactEmail, "@"), 0.95, 0.3),
	}
}

// Score computes per-field confidence and the weighted overall score for rec
// produced by src. It is pure: equal inputs always give equal outputs.
func Score(rec types.ExtractedRecord, src types.Source) (float64, types.FieldConfidence) {
	mult := Multiplier(src)
	fields := BaseScores(rec)

	var weighted, weights float64
	for _, name := range types.RecordFields {
		adjusted := round(math.Min(fields[name]*mult, 1.0), 3)
		fields[name] = adjusted

		w := 1.0
		if CriticalFields[name] {
			w = CriticalWeight
		}
		weighted += w * adjusted
		weights += w
	}
	return round(weighted/weights, 2), fields
}

// Result scores rec and assembles the caller-facing result.
func Result(rec types.ExtractedRecord, src types.Source) types.ExtractionResult {
	overall, fields := Score(rec, src)
	return types.ExtractionResult{
		Record:          rec,
		Confidence:      overall,
		FieldConfidence: fields,
		Source:          src,
	}
}

func pick(ok bool, hi, lo float64) float64 {
	if ok {
		return hi
	}
	return lo
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
