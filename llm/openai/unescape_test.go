package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestUnescapeJSONValues(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "string",
			in:   `Hello\nWorld`,
			want: "Hello\nWorld",
		},
		{
			name: "double escaped",
			in:   `Hello\\nWorld`,
			want: "Hello\nWorld",
		},
		{
			name: "object",
			in:   map[string]any{"text": `Hello\nWorld`},
			want: map[string]any{"text": "Hello\nWorld"},
		},
		{
			name: "array",
			in:   []any{`Hello\nWorld`, `Goodbye\tWorld`},
			want: []any{"Hello\nWorld", "Goodbye\tWorld"},
		},
		{
			name: "mixed",
			in: map[string]any{
				"text":   `Hello\nWorld\\n!`,
				"array":  []any{`Goodbye\tWorld`, `See you\rlater`},
				"nested": map[string]any{"inner_text": `Inner\"Quote\"`},
			},
			want: map[string]any{
				"text":   "Hello\nWorld\n!",
				"array":  []any{"Goodbye\tWorld", "See you\rlater"},
				"nested": map[string]any{"inner_text": `Inner"Quote"`},
			},
		},
		{
			name: "scalars pass through",
			in:   []any{float64(1), true, nil},
			want: []any{float64(1), true, nil},
		},
		{
			name: "exact numbers pass through",
			in:   map[string]any{"id": json.Number("9007199254740993"), "note": `a\nb`},
			want: map[string]any{"id": json.Number("9007199254740993"), "note": "a\nb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnescapeJSONValues(tt.in))
		})
	}
}

func TestUnescapeJSONValues_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"a": []any{`x\ny`}}
	_ = UnescapeJSONValues(in)
	assert.Equal(t, `x\ny`, in["a"].([]any)[0])
}

func TestUnescapeJSONValues_PlainStringsUnchanged(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-zA-Z0-9 .,:;!?]*`).Draw(t, "s")
		if got := UnescapeJSONValues(s); got != s {
			t.Fatalf("expected %q unchanged, got %q", s, got)
		}
	})
}
