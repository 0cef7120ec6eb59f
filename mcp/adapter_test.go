package mcp

import (
	"errors"
	"sync"
	"testing"

	"github.com/aschepis/backscratcher/chatwire/llm"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMCPContent_Text(t *testing.T) {
	tc := mcp.NewTextContent("hello")
	tc.Annotations = &mcp.Annotations{Audience: []mcp.Role{mcp.RoleAssistant}}

	got, err := FromMCPContent(tc)
	require.NoError(t, err)

	text, ok := got.AsText()
	require.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Equal(t, []llm.MessageRole{llm.RoleAssistant}, got.Audience())
	assert.True(t, got.VisibleTo(llm.RoleAssistant))
	assert.False(t, got.VisibleTo(llm.RoleUser))
}

func TestFromMCPContent_Image(t *testing.T) {
	got, err := FromMCPContent(mcp.NewImageContent("aW1n", "image/png"))
	require.NoError(t, err)

	data, mimeType, ok := got.AsImage()
	require.True(t, ok)
	assert.Equal(t, "aW1n", data)
	assert.Equal(t, "image/png", mimeType)
	assert.Nil(t, got.Audience())
}

func TestFromMCPContent_Unsupported(t *testing.T) {
	_, err := FromMCPContent(mcp.NewAudioContent("YXVk", "audio/wav"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedContent))
}

func TestFromMCPContents_SkipsUnsupported(t *testing.T) {
	got, skipped := FromMCPContents([]mcp.Content{
		mcp.NewTextContent("a"),
		mcp.NewAudioContent("YXVk", "audio/wav"),
		mcp.NewImageContent("aW1n", "image/png"),
	})
	assert.Equal(t, 1, skipped)
	require.Len(t, got, 2)
	assert.Equal(t, llm.ContentTypeText, got[0].Type)
	assert.Equal(t, llm.ContentTypeImage, got[1].Type)
}

func TestToolResponseFromResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		item := ToolResponseFromResult("call_1", &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("done")},
		}, nil)

		require.NotNil(t, item.ToolResponse)
		assert.Equal(t, "call_1", item.ToolResponse.ID)
		assert.NoError(t, item.ToolResponse.Err)
		require.Len(t, item.ToolResponse.Result, 1)
	})

	t.Run("tool error", func(t *testing.T) {
		item := ToolResponseFromResult("call_2", &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("file not found")},
			IsError: true,
		}, nil)

		require.NotNil(t, item.ToolResponse)
		require.Error(t, item.ToolResponse.Err)
		toolErr := llm.AsToolError(item.ToolResponse.Err)
		assert.Equal(t, llm.ExecutionError, toolErr.Kind)
		assert.Equal(t, "file not found", toolErr.Message)
	})

	t.Run("call error", func(t *testing.T) {
		item := ToolResponseFromResult("call_3", nil, errors.New("connection closed"))
		require.Error(t, item.ToolResponse.Err)
		assert.Contains(t, item.ToolResponse.Err.Error(), "connection closed")
	})

	t.Run("nil result", func(t *testing.T) {
		item := ToolResponseFromResult("call_4", nil, nil)
		require.Error(t, item.ToolResponse.Err)
		assert.Equal(t, llm.Internal, llm.AsToolError(item.ToolResponse.Err).Kind)
	})
}

func TestNameAdapter_FromMCPTool(t *testing.T) {
	adapter := NewNameAdapter()
	tool := mcp.NewTool("gmail.messages.list",
		mcp.WithDescription("List messages"),
		mcp.WithString("query", mcp.Required()),
	)

	got, err := adapter.FromMCPTool(tool)
	require.NoError(t, err)

	assert.Equal(t, "gmail_messages_list", got.Name)
	assert.Equal(t, "List messages", got.Description)
	schema, ok := got.InputSchema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"query"}, schema["required"])
	assert.Contains(t, schema["properties"], "query")

	original, ok := adapter.ToOriginalName("gmail_messages_list")
	require.True(t, ok)
	assert.Equal(t, "gmail.messages.list", original)
}

func TestNameAdapter_Collision(t *testing.T) {
	adapter := NewNameAdapter()

	_, err := adapter.Register("a.b")
	require.NoError(t, err)
	_, err = adapter.Register("a.b")
	require.NoError(t, err, "re-registering the same name is allowed")

	_, err = adapter.Register("a b")
	require.Error(t, err)
	assert.True(t, llm.IsDuplicateToolName(err))
}

func TestNameAdapter_FromMCPToolsCollision(t *testing.T) {
	_, err := NewNameAdapter().FromMCPTools([]mcp.Tool{
		mcp.NewTool("fs.read"),
		mcp.NewTool("fs_read"),
	})
	require.Error(t, err)
	assert.True(t, llm.IsDuplicateToolName(err))
}

func TestNameAdapter_ResolveCall(t *testing.T) {
	adapter := NewNameAdapter()
	_, err := adapter.Register("fs.read")
	require.NoError(t, err)

	call, ok := adapter.ResolveCall(llm.ToolCall{Name: "fs_read", Arguments: map[string]any{"path": "/tmp"}})
	assert.True(t, ok)
	assert.Equal(t, "fs.read", call.Name)

	call, ok = adapter.ResolveCall(llm.ToolCall{Name: "unknown"})
	assert.False(t, ok)
	assert.Equal(t, "unknown", call.Name)
}

func TestNameAdapter_Concurrent(t *testing.T) {
	adapter := NewNameAdapter()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = adapter.Register("shared.tool")
			_, _ = adapter.ToOriginalName("shared_tool")
		}()
	}
	wg.Wait()

	original, ok := adapter.ToOriginalName("shared_tool")
	require.True(t, ok)
	assert.Equal(t, "shared.tool", original)
}
