package loopback

import (
	"context"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/tokligence/tokligence-datastream/internal/adapter"
	"github.com/tokligence/tokligence-datastream/internal/openai"
)

// Ensure LoopbackAdapter implements ChatAdapter.
var _ adapter.ChatAdapter = (*LoopbackAdapter)(nil)

// LoopbackAdapter echoes the last user message back to the caller. When the
// request declares tools, the reply also calls the first one with the echoed
// text as its "input" argument.
type LoopbackAdapter struct {
	// OmitUsage drops token accounting from responses.
	OmitUsage bool
}

// New creates a LoopbackAdapter instance.
func New() *LoopbackAdapter {
	return &LoopbackAdapter{}
}

// CreateCompletion fabricates a deterministic completion.
func (a *LoopbackAdapter) CreateCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("no messages provided")
	}

	// find last user message; default to final message if none
	message := req.Messages[len(req.Messages)-1]
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if strings.ToLower(req.Messages[i].Role) == "user" {
			message = req.Messages[i]
			break
		}
	}
	echo := strings.TrimSpace(message.Content)

	reply := openai.ChatMessage{
		Role:    "assistant",
		Content: "[loopback] " + echo,
	}
	if len(req.Tools) > 0 {
		args, err := sonic.MarshalString(map[string]string{"input": echo})
		if err != nil {
			return openai.ChatCompletionResponse{}, err
		}
		reply.ToolCalls = []openai.ToolCall{{
			ID:   "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
			Type: "function",
			Function: openai.ToolCallFunction{
				Name:      req.Tools[0].Function.Name,
				Arguments: args,
			},
		}}
	}

	var usage *openai.UsageBreakdown
	if !a.OmitUsage {
		prompt := len(req.Messages) * 10
		completion := len(reply.Content) / 4
		usage = &openai.UsageBreakdown{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		}
	}

	return openai.NewCompletionResponse("chatcmpl-"+uuid.NewString(), req.Model, reply, usage), nil
}
