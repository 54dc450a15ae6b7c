// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"bytes"
	"text/template"
)

// expansionPromptTmpl asks the model to split a research description into
// sub-topics with comma-separated search keywords, returned as a JSON object.
var expansionPromptTmpl = template.Must(template.New("expansion").Parse(`You are an academic research assistant. A user has provided the following research topic description:

"{{.Description}}"

Please analyze this description and:
1. Identify the main research topic
2. Break it down into smaller, manageable sub-topics if it's complex
3. For each sub-topic, generate 3-5 specific academic keywords that would be effective for searching research papers
4. Format your response as a JSON object with sub-topics as keys and comma-separated keywords as values

Example format:
{
    "sub-topic 1": "keyword1, keyword2, keyword3",
    "sub-topic 2": "keyword4, keyword5, keyword6"
}

If the topic is simple, just provide one sub-topic with relevant keywords.
Only return the JSON object, nothing else.
`))

// renderPrompt executes the expansion prompt template for description.
func renderPrompt(description string) (string, error) {
	var buf bytes.Buffer
	if err := expansionPromptTmpl.Execute(&buf, struct{ Description string }{Description: description}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
