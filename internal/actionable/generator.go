package actionable

import (
	"fmt"
	"sort"
	"strings"

	"workorder-intake-go/internal/aggregator"
	"workorder-intake-go/internal/confidence"
	"workorder-intake-go/internal/types"
)

type Decision string

const (
	AutoDispatch Decision = "auto_dispatch"
	ManualReview Decision = "manual_review"
)

// criticalFloor is the field confidence a critical field needs for auto dispatch.
const criticalFloor = 0.5

// patternShare is the batch share at which a pattern is worth acting on.
const patternShare = 0.35

type Routing struct {
	Decision Decision `json:"decision"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Route decides whether a result can be dispatched without a human look.
func Route(res types.ExtractionResult, threshold float64) Routing {
	var reasons []string
	if res.Confidence < threshold {
		reasons = append(reasons, fmt.Sprintf("overall confidence %.2f below %.2f", res.Confidence, threshold))
	}

	var weak []string
	for field := range confidence.CriticalFields {
		if v, ok := res.FieldConfidence[field]; ok && v < criticalFloor {
			weak = append(weak, fmt.Sprintf("%s weak (%.2f)", field, v))
		}
	}
	sort.Strings(weak)
	reasons = append(reasons, weak...)

	if len(reasons) > 0 {
		return Routing{Decision: ManualReview, Reasons: reasons}
	}
	return Routing{Decision: AutoDispatch}
}

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate turns a batch insight into the single most useful follow-up.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.Total == 0 {
		return ActionCard{
			Insight: "No work orders processed",
			Action:  "Nothing to do",
			Impact:  "None",
		}
	}

	if share := ins.HeuristicShare(); share >= patternShare {
		return ActionCard{
			Insight: fmt.Sprintf("Extraction backends unavailable for %.0f%% of work orders", share*100),
			Action:  "Check backend credentials, quota and status; review heuristic records before dispatch",
			Impact:  "Restores high-confidence extraction and cuts manual review load",
		}
	}

	if review := float64(ins.BelowReview) / float64(ins.Total); review >= patternShare {
		fields := make([]string, 0, 3)
		for _, fc := range ins.TopWeakFields(3) {
			fields = append(fields, fc.Field)
		}
		insight := fmt.Sprintf("%.0f%% of work orders need manual review", review*100)
		if len(fields) > 0 {
			insight += "; weakest fields: " + strings.Join(fields, ", ")
		}
		return ActionCard{
			Insight: insight,
			Action:  "Ask requesters to include address, contact details and a date in job descriptions",
			Impact:  "Fewer manual reviews and faster dispatch",
		}
	}

	return ActionCard{
		Insight: "No strong low-confidence pattern detected",
		Action:  "Continue auto-dispatching above the review threshold",
		Impact:  "Low immediate intervention",
	}
}
