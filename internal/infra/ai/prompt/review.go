package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
)

// SystemPrompt provides strict directions and schema for JSON output.
func SystemPrompt(category, instructions, policyText string) string {
	var sb strings.Builder
	sb.WriteString(`You are a senior editorial quality reviewer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase severity values: high, medium, low, none.
- findings is an array of objects; include at least a title, severity, and summary. Keep items concise.
- When quoting evidence, copy the offending text verbatim into excerpt and name the field it came from.
- Report only issues in the category "` + category + `".

`)
	if instructions != "" {
		sb.WriteString("Review focus:\n")
		sb.WriteString(instructions)
		sb.WriteString("\n\n")
	}
	if policyText != "" {
		sb.WriteString("House policy to review against:\n")
		sb.WriteString(policyText)
		sb.WriteString("\n\n")
	}
	sb.WriteString(`Schema (example with empty values):
{
  "findings": [
    {
      "title": "<string>",
      "severity": "<high|medium|low|none>",
      "summary": "<string>",
      "field": "<string>",
      "excerpt": "<string>",
      "suggestion": "<string>"
    }
  ]
}`)
	return sb.String()
}

// UserPrompt frames the analyzable content for one review call.
func UserPrompt(combinedText string) string {
	return fmt.Sprintf("Review the following content and respond with the JSON per schema.\n\n%s", combinedText)
}

// response mirrors the schema above.
type response struct {
	Findings []struct {
		Title      string `json:"title"`
		Severity   string `json:"severity"`
		Summary    string `json:"summary"`
		Field      string `json:"field"`
		Excerpt    string `json:"excerpt"`
		Suggestion string `json:"suggestion"`
	} `json:"findings"`
}

// ParseFindings decodes a model response into normalized findings. Models
// sometimes wrap JSON in code fences despite instructions; strip them before
// decoding. Unknown severities degrade to low rather than dropping the item.
func ParseFindings(raw, category string) ([]*findings.Finding, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var resp response
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("decode analyzer response: %w", err)
	}

	out := make([]*findings.Finding, 0, len(resp.Findings))
	for _, rf := range resp.Findings {
		if strings.TrimSpace(rf.Title) == "" {
			continue
		}
		sev, err := findings.ParseSeverity(rf.Severity)
		if err != nil {
			sev = findings.SeverityLow
		}
		f := &findings.Finding{
			Category:   category,
			Severity:   sev,
			Title:      rf.Title,
			Summary:    rf.Summary,
			Suggestion: rf.Suggestion,
		}
		if rf.Excerpt != "" || rf.Field != "" {
			f.Evidence = &findings.Evidence{Field: rf.Field, Excerpt: rf.Excerpt}
		}
		out = append(out, f)
	}
	return out, nil
}
