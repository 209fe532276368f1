package tagging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const snippetLimit = 160

// decodeModelJSON unmarshals the JSON object in model output. Models
// sometimes wrap the object in a Markdown fence or a sentence of prose, so
// only the outermost {...} span is decoded.
func decodeModelJSON(content string, target any) error {
	object, ok := outermostObject(content)
	if !ok {
		return fmt.Errorf("no JSON object in payload (payload snippet: %s)", summarizePayloadSnippet(content))
	}
	if err := json.Unmarshal([]byte(object), target); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			err = fmt.Errorf("invalid JSON at offset %d: %w", syntaxErr.Offset, err)
		}
		return fmt.Errorf("%w (payload snippet: %s)", err, summarizePayloadSnippet(object))
	}
	return nil
}

// outermostObject returns the text from the first '{' to the last '}'.
// Fence markers never contain braces, so this also strips ```json fences.
func outermostObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// summarizePayloadSnippet collapses whitespace and truncates for error text.
func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "..."
	}
	return clean
}
