package aikit

import (
	"strings"
	"text/template"
)

// DefaultOrchestrationPrompt instructs the orchestration model to pick capability groups.
const DefaultOrchestrationPrompt = `Based on the capability groups and their capabilities provided, determine the best groups to use for the given prompt.
Only determine the groups based on the capabilities inside them. Do not determine the individual capabilities to use.
If you are unsure a group is required, include it just in case.

If a response does not require any group then set needed to false, indicating a simple text response will suffice.
The groups and their capabilities are as follows:`

var systemPromptTemplate = template.Must(template.New("system_prompt").Parse(
	`{{.Instructions}}{{if .Manifest}}{{if .Instructions}}

{{end}}Available capability groups and their capabilities:
{{.Manifest}}{{end}}`))

// renderSystemPrompt appends the manifest, when present, to the instructions.
func renderSystemPrompt(instructions, manifest string) (string, error) {
	var buf strings.Builder
	if err := systemPromptTemplate.Execute(&buf, map[string]string{
		"Instructions": instructions,
		"Manifest":     manifest,
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripCodeFence removes a surrounding markdown code fence from model output.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
