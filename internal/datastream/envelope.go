package datastream

// finishEvent is the tag-8 payload.
type finishEvent struct {
	Type  string       `json:"type"`
	Usage usagePayload `json:"usage"`
}

// usagePayload keeps the nil counters so they serialize as JSON null.
type usagePayload struct {
	PromptTokens     *int `json:"promptTokens"`
	CompletionTokens *int `json:"completionTokens"`
	TotalTokens      *int `json:"totalTokens"`
}

// toolCallEvent is the tag-1 payload. Arguments stays a JSON string.
type toolCallEvent struct {
	Type     string           `json:"type"`
	ID       string           `json:"id"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func newFinishEvent(u *Usage) finishEvent {
	return finishEvent{
		Type: "finish",
		Usage: usagePayload{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		},
	}
}

func newToolCallEvent(tc ToolCall) toolCallEvent {
	return toolCallEvent{
		Type: "tool_call",
		ID:   tc.ID,
		Function: toolCallFunction{
			Name:      tc.Name,
			Arguments: tc.Arguments,
		},
	}
}
