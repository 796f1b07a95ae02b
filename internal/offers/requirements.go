package offers

import (
	"errors"
	"strings"
)

// ErrNoRequirements is returned when a requirements string yields no items
var ErrNoRequirements = errors.New("no valid requirement items found")

// ParseRequirements splits a list-literal-like requirements string into its items.
// It never fails: when nothing can be extracted the raw string is returned as the only item.
func ParseRequirements(raw string) []string {
	items, err := TryParseRequirements(raw)
	if err != nil {
		return []string{raw}
	}
	return items
}

// TryParseRequirements is ParseRequirements with the failure reported to the caller.
// Input that is neither quoted nor bracketed is a single phrase and is kept whole, commas
// included.
func TryParseRequirements(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	quoted := len(s) > 0 && isQuote(s[0])
	s = trimOne(s, isQuote)
	if !quoted && !strings.HasPrefix(s, "[") {
		if s == "" {
			return nil, ErrNoRequirements
		}
		return []string{s}, nil
	}
	s = trimOne(s, func(b byte) bool { return b == '[' || b == ']' })

	var items []string
	for _, tok := range scanTokens(s) {
		tok = trimOne(strings.TrimSpace(tok), func(b byte) bool { return b == '[' || b == ']' })
		tok = trimOne(tok, isQuote)
		tok = strings.ReplaceAll(tok, `\'`, `'`)
		tok = strings.ReplaceAll(tok, `\"`, `"`)
		if tok = strings.TrimSpace(tok); tok != "" {
			items = append(items, tok)
		}
	}
	if len(items) == 0 {
		return nil, ErrNoRequirements
	}
	return items, nil
}

func isQuote(b byte) bool {
	return b == '\'' || b == '"'
}

// trimOne removes at most one leading and one trailing byte matching fn
func trimOne(s string, fn func(byte) bool) string {
	if len(s) > 0 && fn(s[0]) {
		s = s[1:]
	}
	if len(s) > 0 && fn(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func scanTokens(s string) []string {
	var tokens []string
	i := 0
	for i < len(s) {
		c := s[i]
		if c == ',' || isSpace(c) {
			i++
			continue
		}

		var end int
		switch c {
		case '\'', '"':
			end = scanQuoted(s, i, c)
		case '[':
			end = scanDelimited(s, i, ']')
		case '{':
			end = scanDelimited(s, i, '}')
		default:
			end = scanBare(s, i)
		}
		tokens = append(tokens, s[i:end])
		i = end
	}
	return tokens
}

// scanQuoted returns the index just past the closing quote, or len(s) when unterminated
func scanQuoted(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(s)
}

func scanDelimited(s string, start int, closer byte) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case closer:
			return i + 1
		}
	}
	return len(s)
}

// scanBare runs until a separator comma: one followed by whitespace or end of input.
// Commas inside numbers such as "$50,000" are kept.
func scanBare(s string, start int) int {
	for i := start; i < len(s); i++ {
		if s[i] == ',' && (i+1 == len(s) || isSpace(s[i+1])) {
			return i
		}
	}
	return len(s)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
