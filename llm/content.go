package llm

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ContentType identifies the variant held by a Content value.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
)

// Annotations carry optional audience and priority hints for a piece of content.
// A nil Audience means the content is visible to every role. A non-nil slice,
// even an empty one, restricts visibility to the listed roles.
type Annotations struct {
	Audience []MessageRole `json:"audience"`
	Priority *float64      `json:"priority,omitempty"`
}

type annotationsJSON struct {
	Audience *[]MessageRole `json:"audience,omitempty"`
	Priority *float64       `json:"priority,omitempty"`
}

// MarshalJSON writes an unset audience as absent and an empty one as [].
func (a Annotations) MarshalJSON() ([]byte, error) {
	out := annotationsJSON{Priority: a.Priority}
	if a.Audience != nil {
		out.Audience = &a.Audience
	}
	return json.Marshal(out)
}

// TextContent is a text payload.
type TextContent struct {
	Text        string       `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// ImageContent is a base64 image payload. Data is never validated.
type ImageContent struct {
	Data        string       `json:"data"`
	MimeType    string       `json:"mimeType"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// Content is a unit of tool output or message payload: either text or an image.
// Values are immutable; the With* methods return modified copies.
type Content struct {
	Type  ContentType
	Text  *TextContent
	Image *ImageContent
}

// NewTextContent creates unannotated text content.
func NewTextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: &TextContent{Text: text}}
}

// NewImageContent creates unannotated image content.
func NewImageContent(data, mimeType string) Content {
	return Content{Type: ContentTypeImage, Image: &ImageContent{Data: data, MimeType: mimeType}}
}

// AsText returns the text if this is text content.
func (c Content) AsText() (string, bool) {
	if c.Type == ContentTypeText && c.Text != nil {
		return c.Text.Text, true
	}
	return "", false
}

// AsImage returns the image data and MIME type if this is image content.
func (c Content) AsImage() (data, mimeType string, ok bool) {
	if c.Type == ContentTypeImage && c.Image != nil {
		return c.Image.Data, c.Image.MimeType, true
	}
	return "", "", false
}

// WithAudience returns a copy of c whose audience is set to roles.
// Any existing priority is kept.
func (c Content) WithAudience(roles []MessageRole) Content {
	ann := c.copyAnnotations()
	ann.Audience = append(make([]MessageRole, 0, len(roles)), roles...)
	return c.withAnnotations(ann)
}

// WithPriority returns a copy of c whose priority is set to p.
// Any existing audience is kept. It panics if p is outside [0.0, 1.0].
func (c Content) WithPriority(p float64) Content {
	if p < 0.0 || p > 1.0 {
		panic("priority must be between 0.0 and 1.0")
	}
	ann := c.copyAnnotations()
	ann.Priority = &p
	return c.withAnnotations(ann)
}

// Audience returns the audience annotation, or nil if none is set.
func (c Content) Audience() []MessageRole {
	if ann := c.annotations(); ann != nil {
		return ann.Audience
	}
	return nil
}

// Priority returns the priority annotation, or nil if none is set.
func (c Content) Priority() *float64 {
	if ann := c.annotations(); ann != nil {
		return ann.Priority
	}
	return nil
}

// Unannotated returns a copy of c with annotations removed.
func (c Content) Unannotated() Content {
	switch c.Type {
	case ContentTypeText:
		if c.Text != nil {
			return NewTextContent(c.Text.Text)
		}
	case ContentTypeImage:
		if c.Image != nil {
			return NewImageContent(c.Image.Data, c.Image.MimeType)
		}
	}
	return c
}

// VisibleTo reports whether the content is addressed to role.
// Content without an audience is visible to everyone.
func (c Content) VisibleTo(role MessageRole) bool {
	audience := c.Audience()
	return audience == nil || slices.Contains(audience, role)
}

func (c Content) annotations() *Annotations {
	switch c.Type {
	case ContentTypeText:
		if c.Text != nil {
			return c.Text.Annotations
		}
	case ContentTypeImage:
		if c.Image != nil {
			return c.Image.Annotations
		}
	}
	return nil
}

func (c Content) copyAnnotations() Annotations {
	var ann Annotations
	if existing := c.annotations(); existing != nil {
		if existing.Audience != nil {
			ann.Audience = slices.Clone(existing.Audience)
		}
		if existing.Priority != nil {
			p := *existing.Priority
			ann.Priority = &p
		}
	}
	return ann
}

func (c Content) withAnnotations(ann Annotations) Content {
	switch c.Type {
	case ContentTypeText:
		if c.Text != nil {
			text := *c.Text
			text.Annotations = &ann
			return Content{Type: ContentTypeText, Text: &text}
		}
	case ContentTypeImage:
		if c.Image != nil {
			img := *c.Image
			img.Annotations = &ann
			return Content{Type: ContentTypeImage, Image: &img}
		}
	}
	return c
}

// contentJSON is the MCP wire shape: {"type":"text","text":...} or
// {"type":"image","data":...,"mimeType":...}.
type contentJSON struct {
	Type        ContentType  `json:"type"`
	Text        *string      `json:"text,omitempty"`
	Data        *string      `json:"data,omitempty"`
	MimeType    *string      `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// MarshalJSON encodes content using the MCP content schema.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ContentTypeText:
		if c.Text == nil {
			return nil, fmt.Errorf("text content has no payload")
		}
		return json.Marshal(contentJSON{Type: c.Type, Text: &c.Text.Text, Annotations: c.Text.Annotations})
	case ContentTypeImage:
		if c.Image == nil {
			return nil, fmt.Errorf("image content has no payload")
		}
		return json.Marshal(contentJSON{
			Type:        c.Type,
			Data:        &c.Image.Data,
			MimeType:    &c.Image.MimeType,
			Annotations: c.Image.Annotations,
		})
	default:
		return nil, fmt.Errorf("unknown content type: %q", c.Type)
	}
}

// UnmarshalJSON decodes content from the MCP content schema.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw contentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ContentTypeText:
		var text string
		if raw.Text != nil {
			text = *raw.Text
		}
		*c = Content{Type: ContentTypeText, Text: &TextContent{Text: text, Annotations: raw.Annotations}}
	case ContentTypeImage:
		var img ImageContent
		if raw.Data != nil {
			img.Data = *raw.Data
		}
		if raw.MimeType != nil {
			img.MimeType = *raw.MimeType
		}
		img.Annotations = raw.Annotations
		*c = Content{Type: ContentTypeImage, Image: &img}
	default:
		return fmt.Errorf("unsupported content type: %q", raw.Type)
	}
	return nil
}
