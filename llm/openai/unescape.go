package openai

import "strings"

// escapeSequences are applied in order; the doubled forms must come first so
// that `\\n` collapses to a newline instead of a backslash followed by one.
var escapeSequences = []struct{ from, to string }{
	{`\\n`, "\n"},
	{`\\t`, "\t"},
	{`\\r`, "\r"},
	{`\\"`, `"`},
	{`\n`, "\n"},
	{`\t`, "\t"},
	{`\r`, "\r"},
	{`\"`, `"`},
}

// UnescapeJSONValues walks a decoded JSON value and turns literal escape
// sequences inside strings into the characters they name.
// Objects and arrays are rebuilt with the same keys and order; other values pass through.
func UnescapeJSONValues(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = UnescapeJSONValues(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = UnescapeJSONValues(item)
		}
		return out
	case string:
		for _, seq := range escapeSequences {
			v = strings.ReplaceAll(v, seq.from, seq.to)
		}
		return v
	default:
		return value
	}
}
