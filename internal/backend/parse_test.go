package backend

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workorder-intake-go/internal/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced single line", "```json {\"a\":1} ```", `{"a":1}`},
		{"prose around", "Here you go:\n{\"a\":{\"b\":2}}\nThanks!", `{"a":{"b":2}}`},
		{"braces inside strings", `{"a":"x } y {"}`, `{"a":"x } y {"}`},
		{"escaped quote", `{"a":"say \"}\""}`, `{"a":"say \"}\""}`},
		{"first object wins", `{"a":1} {"b":2}`, `{"a":1}`},
		{"unbalanced", `{"a":1`, ""},
		{"no object", "sorry, I cannot help", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.reply))
		})
	}
}

func TestParseReply_Complete(t *testing.T) {
	reply := "```json\n" + `{
  "job_title": "Replace condenser fan motor",
  "description": "Symptoms: not cooling\n\nDiagnosis: seized motor\n\nSolution: replace\n\nSafety: lockout",
  "trade_category": "HVAC",
  "service_address": "123 Main St, Springfield, IL 62704",
  "scheduled_start": "2026-01-05T10:30:00",
  "urgency": "emergency",
  "duration_estimate": "2-3 hours",
  "budget_min": "$1,200",
  "budget_max": 3500,
  "pay_rate": "$95/hr",
  "contact_name": " Dana Reyes ",
  "contact_phone": "(555) 123-4567",
  "contact_email": "dana@example.com"
}` + "\n```"

	rec, err := ParseReply(reply)
	require.NoError(t, err)
	assert.Equal(t, "Replace condenser fan motor", rec.JobTitle)
	assert.Equal(t, types.TradeHVAC, rec.TradeCategory)
	assert.Equal(t, 1200.0, rec.BudgetMin)
	assert.Equal(t, 3500.0, rec.BudgetMax)
	assert.Equal(t, "Dana Reyes", rec.ContactName)
	assert.Equal(t, "2026-01-05T10:30:00", rec.ScheduledStart)
}

func TestParseReply_NullsAndMissingOptionalFields(t *testing.T) {
	rec, err := ParseReply(`{"job_title":"Fix sink","description":"Symptoms: drip","budget_min":null,"contact_email":null}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.BudgetMin)
	assert.Empty(t, rec.ContactEmail)
	assert.Empty(t, rec.ScheduledStart)
}

func TestParseReply_NormalizesVocabularies(t *testing.T) {
	rec, err := ParseReply(`{"job_title":"Fix AC unit","description":"Symptoms: warm air","trade_category":"air conditioning","urgency":"urgent","scheduled_start":"2020-01-05T09:00:00"}`)
	require.NoError(t, err)
	assert.Equal(t, types.TradeHVAC, rec.TradeCategory)
	assert.Equal(t, types.UrgencyEmergency, rec.Urgency)
	assert.Equal(t, "2020-01-05T09:00:00", rec.ScheduledStart)

	tests := []struct {
		trade   string
		urgency string
		want    types.TradeCategory
		wantUrg string
	}{
		{"hvac", "Same Day", types.TradeHVAC, types.UrgencySameDay},
		{"Plumber", "next-day", types.TradePlumbing, types.UrgencyNextDay},
		{"ELECTRICIAN", "WITHIN_WEEK", types.TradeElectrical, types.UrgencyWithinWeek},
		{"facilities technician", "no rush", types.TradeFacilities, types.UrgencyFlexible},
		{"roofing", "whenever it suits", types.TradeOther, types.UrgencyWithinWeek},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.trade+"/"+tt.urgency, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{
				"job_title": "Fix", "description": "Symptoms: x",
				"trade_category": tt.trade, "urgency": tt.urgency,
			})
			require.NoError(t, err)
			rec, err := ParseReply(string(body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.TradeCategory)
			assert.Equal(t, tt.wantUrg, rec.Urgency)
		})
	}
}

func TestParseReply_ObjectDescription(t *testing.T) {
	rec, err := ParseReply(`{
  "job_title": "Fix sink",
  "description": {
    "symptoms": "Kitchen sink drips",
    "Diagnosis": ["worn washer", "loose nut"],
    "solution": "Replace washer",
    "SAFETY": "Shut off supply valve"
  }
}`)
	require.NoError(t, err)
	assert.Equal(t,
		"Symptoms: Kitchen sink drips\n\nDiagnosis: worn washer; loose nut\n\nSolution: Replace washer\n\nSafety: Shut off supply valve",
		rec.Description)
}

func TestParseReply_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		check func(t *testing.T, err error)
	}{
		{"not json", "I could not find a job here.", func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, ErrNoJSON))
		}},
		{"missing title", `{"description":"Symptoms: x"}`, func(t *testing.T, err error) {
			var re *ReplyError
			require.True(t, errors.As(err, &re))
			assert.NotEmpty(t, re.Violations)
		}},
		{"empty description", `{"job_title":"Fix","description":""}`, func(t *testing.T, err error) {
			var re *ReplyError
			assert.True(t, errors.As(err, &re))
		}},
		{"wrong field type", `{"job_title":"Fix","description":"x","contact_phone":5551234567}`, func(t *testing.T, err error) {
			var re *ReplyError
			assert.True(t, errors.As(err, &re))
		}},
		{"unparseable budget", `{"job_title":"Fix","description":"x","budget_min":"about a grand"}`, func(t *testing.T, err error) {
			assert.Contains(t, err.Error(), "budget")
		}},
		{"array at top level", `[{"job_title":"Fix"}]`, func(t *testing.T, err error) {
			assert.Error(t, err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReply(tt.reply)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	got, err := normalizeDescription(json.RawMessage(`"  plain text  "`))
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)

	got, err = normalizeDescription(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = normalizeDescription(json.RawMessage(`{"Symptoms":"leak","notes":"tenant home after 5"}`))
	require.NoError(t, err)
	assert.Contains(t, got, "Symptoms: leak tenant home after 5")
	for _, label := range types.DescriptionSections {
		assert.Contains(t, got, label+":")
	}

	_, err = normalizeDescription(json.RawMessage(`42`))
	assert.Error(t, err)
}
