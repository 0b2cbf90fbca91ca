package actionable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"workorder-intake-go/internal/aggregator"
	"workorder-intake-go/internal/types"
)

func TestRoute(t *testing.T) {
	strong := types.FieldConfidence{
		types.FieldContactEmail:   0.95,
		types.FieldContactPhone:   0.95,
		types.FieldServiceAddress: 0.95,
		types.FieldScheduledStart: 0.85,
	}

	got := Route(types.ExtractionResult{Confidence: 0.9, FieldConfidence: strong}, 0.75)
	assert.Equal(t, Routing{Decision: AutoDispatch}, got)

	got = Route(types.ExtractionResult{Confidence: 0.6, FieldConfidence: strong}, 0.75)
	assert.Equal(t, ManualReview, got.Decision)
	assert.Equal(t, []string{"overall confidence 0.60 below 0.75"}, got.Reasons)

	weak := types.FieldConfidence{
		types.FieldContactEmail:   0.3,
		types.FieldContactPhone:   0.95,
		types.FieldServiceAddress: 0.4,
		types.FieldScheduledStart: 0.85,
	}
	got = Route(types.ExtractionResult{Confidence: 0.8, FieldConfidence: weak}, 0.75)
	assert.Equal(t, ManualReview, got.Decision)
	assert.Equal(t, []string{"contact_email weak (0.30)", "service_address weak (0.40)"}, got.Reasons)
}

func TestGenerate(t *testing.T) {
	assert.Equal(t, "No work orders processed", Generate(aggregator.Insight{}).Insight)

	outage := aggregator.Insight{Total: 10, SourceCounts: map[types.Source]int{types.SourceHeuristic: 6, types.SourcePrimary: 4}}
	assert.Contains(t, Generate(outage).Insight, "60%")

	review := aggregator.Insight{
		Total:        4,
		SourceCounts: map[types.Source]int{types.SourcePrimary: 4},
		BelowReview:  2,
		WeakFields:   map[string]int{types.FieldContactEmail: 2, types.FieldPayRate: 1},
	}
	card := Generate(review)
	assert.Contains(t, card.Insight, "50% of work orders need manual review")
	assert.Contains(t, card.Insight, "contact_email, pay_rate")

	healthy := aggregator.Insight{Total: 5, SourceCounts: map[types.Source]int{types.SourcePrimary: 5}}
	assert.Equal(t, "No strong low-confidence pattern detected", Generate(healthy).Insight)
}
