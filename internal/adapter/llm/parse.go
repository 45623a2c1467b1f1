package llm

import (
	"encoding/json"
	"sort"
)

// Chat endpoints have shipped several response layouts over time. The
// known shapes are tried in order and the first match wins; anything
// unrecognized falls back to the raw payload so the caller still sees
// what the backend said.

type chatShape struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Content string `json:"content"`
		Text    string `json:"text"`
	} `json:"choices"`
	Response string `json:"response"`
	Output   string `json:"output"`
}

// extractChatText pulls the generated text out of a chat response body.
func extractChatText(body []byte) string {
	var shape chatShape
	if err := json.Unmarshal(body, &shape); err != nil {
		return string(body)
	}

	if shape.Message != nil && shape.Message.Content != "" {
		return shape.Message.Content
	}
	if len(shape.Choices) > 0 {
		first := shape.Choices[0]
		switch {
		case first.Message != nil && first.Message.Content != "":
			return first.Message.Content
		case first.Content != "":
			return first.Content
		case first.Text != "":
			return first.Text
		}
	}
	if shape.Response != "" {
		return shape.Response
	}
	if shape.Output != "" {
		return shape.Output
	}

	return string(body)
}

// extractModelNames pulls model names out of a tags/models response.
// Accepted shapes: a list of names, a list of {"name": ...} objects,
// {"models": [...]} with either element shape, or an object keyed by
// model name. Duplicates are dropped; list order is preserved and
// map-keyed responses are sorted by name.
func extractModelNames(body []byte) []string {
	var names []string

	var asList []json.RawMessage
	if err := json.Unmarshal(body, &asList); err == nil {
		names = namesFromList(asList)
	} else {
		var asObject struct {
			Models []json.RawMessage `json:"models"`
		}
		if err := json.Unmarshal(body, &asObject); err == nil && asObject.Models != nil {
			names = namesFromList(asObject.Models)
		} else {
			var asMap map[string]json.RawMessage
			if err := json.Unmarshal(body, &asMap); err == nil {
				for name := range asMap {
					names = append(names, name)
				}
				// Map iteration order is random; keep the output stable.
				sort.Strings(names)
			}
		}
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func namesFromList(items []json.RawMessage) []string {
	var names []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			names = append(names, s)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Name != "" {
			names = append(names, obj.Name)
		}
	}
	return names
}
