package dispatcher

import (
	"strings"
	"unicode"
)

// Parse strips prefix from content and splits the rest into a lower-cased command
// name and its arguments. ok is false if content does not start with prefix or
// names no command.
func Parse(prefix, content string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}

	tokens := Tokenize(content[len(prefix):])
	if len(tokens) == 0 || tokens[0] == "" {
		return "", nil, false
	}

	return strings.ToLower(tokens[0]), tokens[1:], true
}

// Tokenize splits s on whitespace. Double-quoted substrings form a single token
// without their quotes; an unterminated quote runs to the end of s.
func Tokenize(s string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)

	flush := func() {
		if started {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		started = false
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	flush()

	return tokens
}
