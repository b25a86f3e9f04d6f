package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/casewatch/internal/model"
)

type rawAnalysis struct {
	CaseTitle           string `json:"case_title"`
	PersonName          string `json:"person_name"`
	WrongfulDeportation string `json:"wrongful_deportation"`
	WrongfulDetention   string `json:"wrongful_detention"`
	IsUSCitizen         string `json:"is_us_citizen"`
	CaseSummary         string `json:"case_summary"`
}

// ParseAnalysis decodes a model reply into an Analysis. Code fences and
// prose around the JSON object are tolerated; verdict fields outside
// yes/no collapse to unknown.
func ParseAnalysis(raw string) (*model.Analysis, error) {
	body := extractJSONObject(stripCodeFences(raw))
	if body == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var r rawAnalysis
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	a := &model.Analysis{
		CaseTitle:           strings.TrimSpace(r.CaseTitle),
		PersonName:          strings.TrimSpace(r.PersonName),
		WrongfulDeportation: verdict(r.WrongfulDeportation),
		WrongfulDetention:   verdict(r.WrongfulDetention),
		IsUSCitizen:         verdict(r.IsUSCitizen),
		CaseSummary:         strings.TrimSpace(r.CaseSummary),
	}

	if a.CaseTitle == "" && a.CaseSummary == "" {
		return nil, fmt.Errorf("analysis has neither title nor summary")
	}
	if a.PersonName == "" {
		a.PersonName = "unknown"
	}

	return a, nil
}

// verdict maps a reply value onto the three-valued set; a missing value is unknown
func verdict(s string) model.Verdict {
	v := model.ParseVerdict(s)
	if v == model.VerdictNone {
		return model.VerdictUnknown
	}
	return v
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} span, honoring strings
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
