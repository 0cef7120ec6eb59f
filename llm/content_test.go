package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestContentConstructors(t *testing.T) {
	text := NewTextContent("hello")
	got, ok := text.AsText()
	require.True(t, ok)
	assert.Equal(t, "hello", got)
	_, _, ok = text.AsImage()
	assert.False(t, ok)
	assert.Nil(t, text.Audience())
	assert.Nil(t, text.Priority())

	img := NewImageContent("aGVsbG8=", "image/png")
	data, mime, ok := img.AsImage()
	require.True(t, ok)
	assert.Equal(t, "aGVsbG8=", data)
	assert.Equal(t, "image/png", mime)
	_, ok = img.AsText()
	assert.False(t, ok)
}

func TestContentEmptyTextIsValid(t *testing.T) {
	got, ok := NewTextContent("").AsText()
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestWithAudienceAndPriority(t *testing.T) {
	c := NewTextContent("x").
		WithAudience([]MessageRole{RoleUser}).
		WithPriority(0.5)

	assert.Equal(t, []MessageRole{RoleUser}, c.Audience())
	require.NotNil(t, c.Priority())
	assert.InDelta(t, 0.5, *c.Priority(), 1e-9)

	// Setting priority first and audience second keeps both.
	d := NewImageContent("data", "image/jpeg").WithPriority(1.0).WithAudience([]MessageRole{RoleAssistant})
	assert.Equal(t, []MessageRole{RoleAssistant}, d.Audience())
	require.NotNil(t, d.Priority())
	assert.InDelta(t, 1.0, *d.Priority(), 1e-9)
}

func TestWithAudienceDoesNotMutateReceiver(t *testing.T) {
	base := NewTextContent("x").WithAudience([]MessageRole{RoleUser})
	derived := base.WithAudience([]MessageRole{RoleAssistant}).WithPriority(0.1)

	assert.Equal(t, []MessageRole{RoleUser}, base.Audience())
	assert.Nil(t, base.Priority())
	assert.Equal(t, []MessageRole{RoleAssistant}, derived.Audience())
}

func TestWithAudienceCopiesInput(t *testing.T) {
	roles := []MessageRole{RoleUser}
	c := NewTextContent("x").WithAudience(roles)
	roles[0] = RoleAssistant
	assert.Equal(t, []MessageRole{RoleUser}, c.Audience())
}

func TestWithAudienceEmptyRestrictsEveryone(t *testing.T) {
	c := NewTextContent("x").WithAudience(nil)
	assert.NotNil(t, c.Audience())
	assert.False(t, c.VisibleTo(RoleAssistant))
	assert.True(t, NewTextContent("x").VisibleTo(RoleAssistant))
}

func TestWithPriorityPanicsOutOfRange(t *testing.T) {
	assert.PanicsWithValue(t, "priority must be between 0.0 and 1.0", func() {
		NewTextContent("x").WithPriority(1.5)
	})
	assert.Panics(t, func() {
		NewTextContent("x").WithPriority(-0.01)
	})
	assert.NotPanics(t, func() {
		NewTextContent("x").WithPriority(0.0)
		NewTextContent("x").WithPriority(1.0)
	})
}

func TestUnannotated(t *testing.T) {
	c := NewImageContent("data", "image/png").WithAudience([]MessageRole{RoleUser}).WithPriority(0.3)
	u := c.Unannotated()

	assert.Nil(t, u.Audience())
	assert.Nil(t, u.Priority())
	data, mime, ok := u.AsImage()
	require.True(t, ok)
	assert.Equal(t, "data", data)
	assert.Equal(t, "image/png", mime)
	assert.NotNil(t, c.Audience(), "original keeps its annotations")
}

func TestContentJSON(t *testing.T) {
	c := NewTextContent("hi").WithAudience([]MessageRole{RoleUser}).WithPriority(0.25)
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","text":"hi","annotations":{"audience":["user"],"priority":0.25}}`, string(data))

	img, err := json.Marshal(NewImageContent("abc", "image/gif"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"image","data":"abc","mimeType":"image/gif"}`, string(img))

	var decoded Content
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c, decoded)

	err = json.Unmarshal([]byte(`{"type":"audio","data":"x"}`), &decoded)
	assert.Error(t, err)
}

func TestContentJSONAudience(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
		visible bool
	}{
		{"empty", NewTextContent("secret").WithAudience([]MessageRole{}), `{"type":"text","text":"secret","annotations":{"audience":[]}}`, false},
		{"unset", NewTextContent("open").WithPriority(0.5), `{"type":"text","text":"open","annotations":{"priority":0.5}}`, true},
		{"user only", NewTextContent("mine").WithAudience([]MessageRole{RoleUser}), `{"type":"text","text":"mine","annotations":{"audience":["user"]}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.content)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var decoded Content
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.visible, decoded.VisibleTo(RoleAssistant))
			assert.Equal(t, tt.content.Audience() == nil, decoded.Audience() == nil)
		})
	}
}

func TestTextAccessorProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "text")
		got, ok := NewTextContent(s).AsText()
		if !ok || got != s {
			t.Fatalf("round trip of %q produced %q", s, got)
		}
	})
}

func TestPriorityRangeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.Float64Range(0, 1).Draw(t, "priority")
		c := NewTextContent("x").WithPriority(p)
		if c.Priority() == nil || *c.Priority() != p {
			t.Fatalf("priority %v was not stored", p)
		}
	})
}
