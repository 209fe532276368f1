package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

const (
	// InputPlaceholder is replaced by the source media path.
	InputPlaceholder = "{input}"
	// OutputPlaceholder is replaced by the destination path.
	OutputPlaceholder = "{output}"
)

// Template is a parsed argument list with placeholders.
type Template struct {
	tokens []string
}

// ParseTemplate splits a shell-like argument string without invoking a shell.
func ParseTemplate(raw string) (Template, error) {
	tokens, err := shlex.Split(raw)
	if err != nil {
		return Template{}, fmt.Errorf("invalid argument template: %w", err)
	}
	if len(tokens) == 0 {
		return Template{}, fmt.Errorf("argument template is empty")
	}
	return Template{tokens: tokens}, nil
}

// MustParseTemplate is ParseTemplate for compile-time constants.
func MustParseTemplate(raw string) Template {
	tmpl, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Expand substitutes the placeholders. Each token stays a single argument
// even when a path contains spaces.
func (t Template) Expand(input, output string) []string {
	replacer := strings.NewReplacer(InputPlaceholder, input, OutputPlaceholder, output)
	args := make([]string, len(t.tokens))
	for i, token := range t.tokens {
		args[i] = replacer.Replace(token)
	}
	return args
}
