package types

import "strings"

// TradeCategory is the fixed trade vocabulary a work order is filed under.
type TradeCategory string

const (
	TradeHVAC       TradeCategory = "HVAC"
	TradePlumbing   TradeCategory = "Plumbing"
	TradeElectrical TradeCategory = "Electrical"
	TradeHandyman   TradeCategory = "Handyman"
	TradeFacilities TradeCategory = "Facilities Tech"
	TradeOther      TradeCategory = "Other"
)

var tradeCategories = []TradeCategory{TradeHVAC, TradePlumbing, TradeElectrical, TradeHandyman, TradeFacilities, TradeOther}

// Valid reports whether c is part of the fixed vocabulary (exact match).
func (c TradeCategory) Valid() bool {
	for _, t := range tradeCategories {
		if c == t {
			return true
		}
	}
	return false
}

// Urgency levels, most to least pressing.
const (
	UrgencyEmergency  = "emergency"
	UrgencySameDay    = "same_day"
	UrgencyNextDay    = "next_day"
	UrgencyWithinWeek = "within_week"
	UrgencyFlexible   = "flexible"
)

// ValidUrgency reports whether u is one of the urgency enum values.
func ValidUrgency(u string) bool {
	switch u {
	case UrgencyEmergency, UrgencySameDay, UrgencyNextDay, UrgencyWithinWeek, UrgencyFlexible:
		return true
	}
	return false
}

// ScheduleLayout is the layout of ExtractedRecord.ScheduledStart.
const ScheduleLayout = "2006-01-02T15:04:05"

// Description section labels, in rendering order.
var DescriptionSections = []string{"Symptoms", "Diagnosis", "Solution", "Safety"}

// RenderDescription joins the four labeled sections into the single description string.
// Missing sections render with an empty body so the label set is always complete.
func RenderDescription(sections map[string]string) string {
	parts := make([]string, 0, len(DescriptionSections))
	for _, label := range DescriptionSections {
		parts = append(parts, label+": "+strings.TrimSpace(sections[label]))
	}
	return strings.Join(parts, "\n\n")
}

// ExtractedRecord is the normalized work order derived from free text.
type ExtractedRecord struct {
	JobTitle         string        `json:"job_title"`
	Description      string        `json:"description"`
	TradeCategory    TradeCategory `json:"trade_category"`
	ServiceAddress   string        `json:"service_address"`
	ScheduledStart   string        `json:"scheduled_start"`
	Urgency          string        `json:"urgency"`
	DurationEstimate string        `json:"duration_estimate"`
	BudgetMin        float64       `json:"budget_min"`
	BudgetMax        float64       `json:"budget_max"`
	PayRate          string        `json:"pay_rate"`
	ContactName      string        `json:"contact_name"`
	ContactPhone     string        `json:"contact_phone"`
	ContactEmail     string        `json:"contact_email"`
}

// Field names as they appear in JSON and in FieldConfidence.
const (
	FieldJobTitle         = "job_title"
	FieldDescription      = "description"
	FieldTradeCategory    = "trade_category"
	FieldServiceAddress   = "service_address"
	FieldScheduledStart   = "scheduled_start"
	FieldUrgency          = "urgency"
	FieldDurationEstimate = "duration_estimate"
	FieldBudgetMin        = "budget_min"
	FieldBudgetMax        = "budget_max"
	FieldPayRate          = "pay_rate"
	FieldContactName      = "contact_name"
	FieldContactPhone     = "contact_phone"
	FieldContactEmail     = "contact_email"
)

// RecordFields lists every ExtractedRecord field name in declaration order.
var RecordFields = []string{
	FieldJobTitle, FieldDescription, FieldTradeCategory, FieldServiceAddress, FieldScheduledStart,
	FieldUrgency, FieldDurationEstimate, FieldBudgetMin, FieldBudgetMax, FieldPayRate,
	FieldContactName, FieldContactPhone, FieldContactEmail,
}

// FieldConfidence maps a record field name to a score in [0,1].
type FieldConfidence map[string]float64

// Source identifies which extraction path produced a record.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceHeuristic Source = "heuristic"
)

// ExtractionResult is created once per request and handed to the caller.
type ExtractionResult struct {
	Record          ExtractedRecord `json:"record"`
	Confidence      float64         `json:"confidence"`
	FieldConfidence FieldConfidence `json:"fieldConfidence"`
	Source          Source          `json:"source"`
}

// ExtractRequest is the caller-facing request body.
type ExtractRequest struct {
	RawText string `json:"raw_text" validate:"required"`
}

// ExtractResponse is the caller-facing response envelope.
type ExtractResponse struct {
	Success         bool             `json:"success"`
	Data            *ExtractedRecord `json:"data,omitempty"`
	Confidence      float64          `json:"confidence,omitempty"`
	FieldConfidence FieldConfidence  `json:"fieldConfidence,omitempty"`
	Source          Source           `json:"source,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// NewSuccessResponse wraps a result in the success envelope.
func NewSuccessResponse(res ExtractionResult) ExtractResponse {
	rec := res.Record
	return ExtractResponse{
		Success:         true,
		Data:            &rec,
		Confidence:      res.Confidence,
		FieldConfidence: res.FieldConfidence,
		Source:          res.Source,
	}
}

// NewErrorResponse builds the failure envelope.
func NewErrorResponse(err error) ExtractResponse {
	return ExtractResponse{Success: false, Error: err.Error()}
}
