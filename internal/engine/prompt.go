// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"strings"
	"text/template"

	"github.com/pdiddy/notescan/pkg/types"
)

// relationPromptTmpl instructs the model to extract subject-predicate-object
// relationships between the listed entities from a passage of prose.
var relationPromptTmpl = template.Must(template.New("relations").Parse(`You are a narrative knowledge extraction system. Analyze the following passage and extract relationships between entities.

Known entities (prefer these exact labels when they appear):
{{range .Entities}}- {{.Label}}{{if .Kind}} ({{.Kind}}){{end}}
{{end}}
For each relationship, identify:
- subject: the entity the statement is about
- predicate: a short lowercase verb phrase (e.g. "travels to", "rules", "is allied with")
- object: the entity or thing the statement relates the subject to
- confidence: a float between 0.0 and 1.0 indicating how directly the passage supports the relationship

Only extract relationships the passage states or strongly implies. Respond with a JSON object containing a "relations" array. Do not include any text outside the JSON object.

Example response:
{"relations": [{"subject": "Aragorn", "predicate": "travels to", "object": "Gondor", "confidence": 0.95}]}

Passage:
{{.Content}}
`))

type promptData struct {
	Content  string
	Entities []types.EntitySpan
}

func buildPrompt(content string, entities []types.EntitySpan) (string, error) {
	var b strings.Builder
	if err := relationPromptTmpl.Execute(&b, promptData{Content: content, Entities: entities}); err != nil {
		return "", err
	}
	return b.String(), nil
}
