package prompts

import (
	"strconv"
	"time"
)

// Instruction is the rendered system and user message pair for one extraction call.
type Instruction struct {
	System string
	User   string
}

// BuildExtraction renders the extraction templates anchored to today's date.
func BuildExtraction(raw string, today time.Time) (Instruction, error) {
	system, err := Get(ExtractionFile, KeySystem)
	if err != nil {
		return Instruction{}, err
	}
	user, err := Get(ExtractionFile, KeyUser)
	if err != nil {
		return Instruction{}, err
	}

	data := map[string]string{
		"Today":       today.Format("2006-01-02"),
		"Tomorrow":    today.AddDate(0, 0, 1).Format("2006-01-02"),
		"CurrentYear": strconv.Itoa(today.Year()),
		"NextYear":    strconv.Itoa(today.Year() + 1),
		"RawText":     raw,
	}
	return Instruction{
		System: Format(system, data),
		User:   Format(user, data),
	}, nil
}
