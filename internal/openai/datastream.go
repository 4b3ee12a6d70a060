package openai

import (
	"sort"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
)

// DataStream converts the response into the encoder's input. Choices become
// generations ordered by their index.
func (r ChatCompletionResponse) DataStream() *datastream.Response {
	choices := make([]ChatCompletionChoice, len(r.Choices))
	copy(choices, r.Choices)
	sort.SliceStable(choices, func(i, j int) bool { return choices[i].Index < choices[j].Index })

	out := &datastream.Response{
		Generations: make([]datastream.Generation, 0, len(choices)),
	}
	for _, choice := range choices {
		gen := datastream.Generation{Text: choice.Message.Content}
		for _, tc := range choice.Message.ToolCalls {
			gen.ToolCalls = append(gen.ToolCalls, datastream.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		out.Generations = append(out.Generations, gen)
	}
	if r.Usage != nil {
		out.Usage = datastream.NewUsage(r.Usage.PromptTokens, r.Usage.CompletionTokens, r.Usage.TotalTokens)
	}
	return out
}
