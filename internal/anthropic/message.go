// Package anthropic reads Anthropic Messages API responses and maps them onto
// the data stream encoder's input.
package anthropic

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
)

// MessageResponse models the non-streaming Messages API response.
type MessageResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        *Usage         `json:"usage,omitempty"`
}

// ContentBlock captures text and tool_use blocks; other block types are ignored.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use fields
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Usage represents token usage in Anthropic's format.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// DataStream converts the message into a single generation. Text blocks are
// concatenated in order; tool_use inputs become the arguments string as-is.
func (m MessageResponse) DataStream() *datastream.Response {
	var (
		text strings.Builder
		gen  datastream.Generation
	)
	for _, block := range m.Content {
		switch strings.ToLower(block.Type) {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			gen.ToolCalls = append(gen.ToolCalls, datastream.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: toolArguments(block.Input),
			})
		}
	}
	gen.Text = text.String()

	out := &datastream.Response{Generations: []datastream.Generation{gen}}
	if m.Usage != nil {
		out.Usage = datastream.NewUsage(
			m.Usage.InputTokens,
			m.Usage.OutputTokens,
			m.Usage.InputTokens+m.Usage.OutputTokens,
		)
	}
	return out
}

func toolArguments(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "{}"
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}
