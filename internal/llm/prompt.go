package llm

import (
	"fmt"

	"github.com/ppiankov/casewatch/internal/extract"
)

// DefaultMaxChars is the prompt budget for case text
const DefaultMaxChars = 100000

// SystemPrompt frames every extraction call
const SystemPrompt = "You are a legal analyst specializing in immigration law. " +
	"You extract facts from court opinions and answer only with JSON matching the requested schema."

// Schema describes the six fields the model must return
const Schema = `{
  "case_title": "string - the title of the court case",
  "person_name": "string - name of the person who was deported or detained",
  "wrongful_deportation": "yes | no | unknown - whether the case involves a wrongful deportation claim",
  "wrongful_detention": "yes | no | unknown - whether the case involves a wrongful detention claim",
  "is_us_citizen": "yes | no | unknown - whether the person is a US citizen",
  "case_summary": "string - a summary of the case and its key findings"
}`

// BuildPrompt constructs the extraction prompt for one case
func BuildPrompt(caseName, text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	return fmt.Sprintf(`Please analyze the following court case and extract key information about deportation or detention claims.

Court Case: %s

Case Text:
%s

Based on this case, identify whether it involves wrongful deportation or detention, the name of the affected person,
whether they are a US citizen, and provide a summary of the case.
If any information is not explicitly stated or unclear, respond with "unknown".

Respond with a single JSON object with exactly these fields:
%s`, caseName, extract.Truncate(text, maxChars), Schema)
}
