package datastream

// Response is the read-only view of a chat response handed to the encoder.
// Generations are emitted in slice order; a nil Usage suppresses the finish record.
type Response struct {
	Generations []Generation `json:"generations" yaml:"generations"`
	Usage       *Usage       `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// Generation is one candidate output. An empty Text is treated as absent.
type Generation struct {
	Text      string     `json:"text,omitempty" yaml:"text,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty"`
}

// ToolCall describes a function invocation requested by the model.
// Arguments is carried verbatim and never parsed.
type ToolCall struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

// Usage carries token accounting. Each counter may be absent.
type Usage struct {
	PromptTokens     *int `json:"promptTokens" yaml:"promptTokens"`
	CompletionTokens *int `json:"completionTokens" yaml:"completionTokens"`
	TotalTokens      *int `json:"totalTokens" yaml:"totalTokens"`
}

// Tokens returns a pointer to n, for building Usage literals.
func Tokens(n int) *int {
	return &n
}

// NewUsage builds a Usage with all three counters present.
func NewUsage(prompt, completion, total int) *Usage {
	return &Usage{
		PromptTokens:     Tokens(prompt),
		CompletionTokens: Tokens(completion),
		TotalTokens:      Tokens(total),
	}
}

// TextResponse is a convenience constructor for a single text generation.
func TextResponse(text string, usage *Usage) *Response {
	return &Response{
		Generations: []Generation{{Text: text}},
		Usage:       usage,
	}
}
