package aggregator

import (
	"sort"

	"workorder-intake-go/internal/types"
)

// WeakFieldThreshold is the field confidence under which a field counts as weak.
const WeakFieldThreshold = 0.5

// Insight summarizes a batch of extraction results.
type Insight struct {
	Total          int                  `json:"total"`
	SourceCounts   map[types.Source]int `json:"source_counts"`
	MeanConfidence float64              `json:"mean_confidence"`
	// WeakFields counts, per field, how many results scored it under WeakFieldThreshold.
	WeakFields  map[string]int `json:"weak_fields"`
	BelowReview int            `json:"below_review"`
}

// Aggregate builds the batch insight; results under reviewThreshold overall count toward BelowReview.
func Aggregate(results []types.ExtractionResult, reviewThreshold float64) Insight {
	ins := Insight{
		Total:        len(results),
		SourceCounts: map[types.Source]int{},
		WeakFields:   map[string]int{},
	}
	var sum float64
	for _, r := range results {
		ins.SourceCounts[r.Source]++
		sum += r.Confidence
		if r.Confidence < reviewThreshold {
			ins.BelowReview++
		}
		for field, v := range r.FieldConfidence {
			if v < WeakFieldThreshold {
				ins.WeakFields[field]++
			}
		}
	}
	if len(results) > 0 {
		ins.MeanConfidence = sum / float64(len(results))
	}
	return ins
}

// FieldCount is one entry of a weak-field ranking.
type FieldCount struct {
	Field string `json:"field"`
	Count int    `json:"count"`
}

// TopWeakFields returns the n most often weak fields, most frequent first.
func (i Insight) TopWeakFields(n int) []FieldCount {
	out := make([]FieldCount, 0, len(i.WeakFields))
	for f, c := range i.WeakFields {
		out = append(out, FieldCount{Field: f, Count: c})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Field < out[b].Field
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// HeuristicShare is the fraction of results no backend produced.
func (i Insight) HeuristicShare() float64 {
	if i.Total == 0 {
		return 0
	}
	return float64(i.SourceCounts[types.SourceHeuristic]) / float64(i.Total)
}
