package adapter

import (
	"context"

	"github.com/tokligence/tokligence-datastream/internal/openai"
)

// ChatAdapter produces a complete chat response for a request. The demo
// command encodes whatever an adapter returns.
type ChatAdapter interface {
	CreateCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}
