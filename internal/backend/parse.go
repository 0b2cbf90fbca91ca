package backend

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/xeipuuv/gojsonschema"

	"workorder-intake-go/internal/types"
)

//go:embed reply_schema.json
var replySchemaJSON string

var (
	replySchema     *gojsonschema.Schema
	replySchemaErr  error
	replySchemaOnce sync.Once
)

// ErrNoJSON means the reply held no JSON object at all.
var ErrNoJSON = errors.New("no JSON object in reply")

// ReplyError lists the schema violations of a reply.
type ReplyError struct {
	Violations []string
}

func (e *ReplyError) Error() string {
	return "reply does not match record shape: " + strings.Join(e.Violations, "; ")
}

func loadReplySchema() (*gojsonschema.Schema, error) {
	replySchemaOnce.Do(func() {
		replySchema, replySchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(replySchemaJSON))
	})
	return replySchema, replySchemaErr
}

// wireRecord is the record as providers actually send it.
type wireRecord struct {
	JobTitle         string          `json:"job_title"`
	Description      json.RawMessage `json:"description"`
	TradeCategory    string          `json:"trade_category"`
	ServiceAddress   string          `json:"service_address"`
	ScheduledStart   string          `json:"scheduled_start"`
	Urgency          string          `json:"urgency"`
	DurationEstimate string          `json:"duration_estimate"`
	BudgetMin        flexNumber      `json:"budget_min"`
	BudgetMax        flexNumber      `json:"budget_max"`
	PayRate          string          `json:"pay_rate"`
	ContactName      string          `json:"contact_name"`
	ContactPhone     string          `json:"contact_phone"`
	ContactEmail     string          `json:"contact_email"`
}

// flexNumber accepts 1200, "1200", "$1,200.50" and null.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(str)
		if s == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("budget value %q is not a number", string(b))
	}
	*n = flexNumber(v)
	return nil
}

// ParseReply pulls the JSON object out of a provider reply, checks its shape and
// decodes it into a record with the description already flattened and trade and
// urgency mapped onto their vocabularies. scheduled_start is left as sent; the
// adapter normalizes it against the extraction clock.
// It runs once per reply; callers never re-ask the provider on failure.
func ParseReply(reply string) (types.ExtractedRecord, error) {
	doc := extractJSON(reply)
	if doc == "" {
		return types.ExtractedRecord{}, ErrNoJSON
	}

	schema, err := loadReplySchema()
	if err != nil {
		return types.ExtractedRecord{}, fmt.Errorf("load reply schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return types.ExtractedRecord{}, fmt.Errorf("decode reply: %w", err)
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		return types.ExtractedRecord{}, &ReplyError{Violations: violations}
	}

	var w wireRecord
	if err := json.Unmarshal([]byte(doc), &w); err != nil {
		return types.ExtractedRecord{}, fmt.Errorf("decode reply: %w", err)
	}
	description, err := normalizeDescription(w.Description)
	if err != nil {
		return types.ExtractedRecord{}, err
	}

	return types.ExtractedRecord{
		JobTitle:         strings.TrimSpace(w.JobTitle),
		Description:      description,
		TradeCategory:    types.NormalizeTrade(w.TradeCategory),
		ServiceAddress:   strings.TrimSpace(w.ServiceAddress),
		ScheduledStart:   strings.TrimSpace(w.ScheduledStart),
		Urgency:          types.NormalizeUrgency(w.Urgency),
		DurationEstimate: strings.TrimSpace(w.DurationEstimate),
		BudgetMin:        float64(w.BudgetMin),
		BudgetMax:        float64(w.BudgetMax),
		PayRate:          strings.TrimSpace(w.PayRate),
		ContactName:      strings.TrimSpace(w.ContactName),
		ContactPhone:     strings.TrimSpace(w.ContactPhone),
		ContactEmail:     strings.TrimSpace(w.ContactEmail),
	}, nil
}

// normalizeDescription resolves the description union: a plain string passes through,
// an object keyed by section label is rendered into the four-section string.
func normalizeDescription(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("description: %w", err)
		}
		return strings.TrimSpace(s), nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", fmt.Errorf("description: %w", err)
		}
		return renderSections(obj), nil
	default:
		return "", fmt.Errorf("description: unsupported JSON type")
	}
}

func renderSections(obj map[string]any) string {
	sections := make(map[string]string, len(types.DescriptionSections))
	var extra []string
	for key, v := range obj {
		label, ok := sectionLabel(key)
		if !ok {
			if text := sectionText(v); text != "" {
				extra = append(extra, text)
			}
			continue
		}
		sections[label] = sectionText(v)
	}
	// unlabeled content is kept under Symptoms rather than dropped
	if len(extra) > 0 {
		sort.Strings(extra)
		sections["Symptoms"] = strings.TrimSpace(sections["Symptoms"] + " " + strings.Join(extra, " "))
	}
	return types.RenderDescription(sections)
}

func sectionLabel(key string) (string, bool) {
	k := strings.TrimSpace(key)
	for _, label := range types.DescriptionSections {
		if strings.EqualFold(k, label) {
			return label, true
		}
	}
	return "", false
}

func sectionText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := sectionText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// extractJSON finds the first balanced JSON object in a reply.
// Markdown fences are stripped first; braces inside string literals are ignored.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}
	s = stripFences(strings.ReplaceAll(s, "\r\n", "\n"))

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

// stripFences removes ``` fence markers and their language tags, keeping any content on the same line.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "```") {
			t = strings.TrimLeftFunc(strings.TrimPrefix(t, "```"), unicode.IsLetter)
		}
		lines[i] = strings.TrimSuffix(t, "```")
	}
	return strings.Join(lines, "\n")
}
