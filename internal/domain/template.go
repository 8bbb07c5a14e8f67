package domain

import (
	"encoding/json"
	"strings"
)

// QuestionSeparator delimits the fields of an un-templated question payload.
const QuestionSeparator = "␟"

// QuestionText is the human-readable part of a question payload.
type QuestionText struct {
	Title       string
	Description string
	Category    string
	Language    string
	Type        QuestionType
	Options     []string
}

// ParseQuestionData decodes a raw question payload. JSON payloads carry their
// fields by name; otherwise the payload is split on QuestionSeparator as
// title, options, category, language. Payloads with three fields omit the
// options.
func ParseQuestionData(raw string) QuestionText {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		if qt, ok := parseJSONQuestion(trimmed); ok {
			return qt
		}
	}

	parts := strings.Split(raw, QuestionSeparator)
	var qt QuestionText
	switch {
	case len(parts) >= 4:
		qt.Title = parts[0]
		qt.Options = parseOptions(parts[1])
		qt.Category = parts[2]
		qt.Language = parts[3]
		qt.Description = "Options: " + parts[1]
		if len(qt.Options) > 0 {
			qt.Type = TypeSingleSelect
		}
	case len(parts) == 3:
		qt.Title = parts[0]
		qt.Category = parts[1]
		qt.Language = parts[2]
	default:
		qt.Title = raw
	}
	return qt
}

func parseJSONQuestion(raw string) (QuestionText, bool) {
	var payload struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Lang        string   `json:"lang"`
		Type        string   `json:"type"`
		Outcomes    []string `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.Title == "" {
		return QuestionText{}, false
	}
	qt := QuestionText{
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Language:    payload.Lang,
		Type:        QuestionType(payload.Type),
		Options:     payload.Outcomes,
	}
	if qt.Description == "" && len(qt.Options) > 0 {
		qt.Description = "Options: " + strings.Join(qt.Options, ", ")
	}
	return qt, true
}

// parseOptions reads a comma separated list of quoted outcomes such as
// `"Yes","No"`. Unquoted input yields nil.
func parseOptions(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte("["+s+"]"), &out); err != nil {
		return nil
	}
	return out
}
