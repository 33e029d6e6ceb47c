package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no JSON object in response")

// stageReply is the decoded stage response. Each stage names its label field
// differently; labelFor resolves the right one.
type stageReply struct {
	WorkType   string  `json:"work_type"`
	Category   string  `json:"category"`
	SearchType string  `json:"search_type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseStageReply decodes a provider response, tolerating fenced code blocks
// and prose around the JSON object.
func parseStageReply(raw string) (stageReply, error) {
	text := stripFences(raw)

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return stageReply{}, errNoJSON
	}

	var reply stageReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return stageReply{}, err
	}
	return reply, nil
}

// stripFences removes a markdown code fence wrapping, with or without a
// language tag.
func stripFences(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		// Drop the language tag line.
		first := strings.TrimSpace(text[:i])
		if first == "" || !strings.ContainsAny(first, "{}") {
			text = text[i+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
