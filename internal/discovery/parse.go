package discovery

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/masahif/seoplanner/internal/planner"
)

const rawPreviewLen = 500

// frameworkJSON is the object the model is asked to return
type frameworkJSON struct {
	SourceContext       string   `json:"source_context"`
	CentralEntity       string   `json:"central_entity"`
	CentralSearchIntent string   `json:"central_search_intent"`
	FunctionalWords     []string `json:"functional_words"`
	Explanation         string   `json:"explanation"`
	Confidence          string   `json:"confidence"`
}

// stripFences extracts the body of a ```json or ``` fenced block
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	return strings.TrimSpace(s)
}

// ParseFramework decodes a model response. A response that is not a JSON
// object yields a degraded low-confidence framework instead of an error.
func ParseFramework(raw string) *planner.Framework {
	body := stripFences(raw)
	if !strings.HasPrefix(body, "{") {
		return degraded(raw, "response is not a JSON object")
	}
	var data frameworkJSON
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return degraded(raw, err.Error())
	}

	words := data.FunctionalWords
	if words == nil {
		words = []string{}
	}
	return &planner.Framework{
		SourceContext:       data.SourceContext,
		CentralEntity:       data.CentralEntity,
		CentralSearchIntent: data.CentralSearchIntent,
		FunctionalWords:     words,
		Explanation:         data.Explanation,
		Confidence:          planner.ParseConfidence(strings.ToLower(strings.TrimSpace(data.Confidence))),
		RawResponse:         raw,
	}
}

func degraded(raw, reason string) *planner.Framework {
	return &planner.Framework{
		ParseError:      reason,
		SourceContext:   "Could not parse - please try again",
		FunctionalWords: []string{},
		Explanation:     "The AI response could not be parsed. Raw: " + preview(raw, rawPreviewLen),
		Confidence:      planner.ConfidenceLow,
		RawResponse:     raw,
	}
}

// preview returns at most n runes of s
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
