package openai

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Accumulator folds streamed chunks back into a complete response.
// Not safe for concurrent use.
type Accumulator struct {
	id      string
	model   string
	created int64
	choices map[int]*choiceBuf
	usage   *UsageBreakdown
}

type choiceBuf struct {
	role    string
	content strings.Builder
	finish  string
	tools   map[int]*toolBuf
}

type toolBuf struct {
	id, typ, name string
	args          strings.Builder
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{choices: make(map[int]*choiceBuf)}
}

// Add merges one chunk.
func (a *Accumulator) Add(chunk ChatCompletionChunk) {
	if a.id == "" {
		a.id = chunk.ID
	}
	if a.model == "" {
		a.model = chunk.Model
	}
	if a.created == 0 {
		a.created = chunk.Created
	}
	if chunk.Usage != nil {
		u := *chunk.Usage
		a.usage = &u
	}
	for _, c := range chunk.Choices {
		cb, ok := a.choices[c.Index]
		if !ok {
			cb = &choiceBuf{tools: make(map[int]*toolBuf)}
			a.choices[c.Index] = cb
		}
		if c.Delta.Role != "" {
			cb.role = c.Delta.Role
		}
		cb.content.WriteString(c.Delta.Content)
		if c.FinishReason != nil && *c.FinishReason != "" {
			cb.finish = *c.FinishReason
		}
		for _, tc := range c.Delta.ToolCalls {
			tb, ok := cb.tools[tc.Index]
			if !ok {
				tb = &toolBuf{}
				cb.tools[tc.Index] = tb
			}
			if tc.ID != "" {
				tb.id = tc.ID
			}
			if tc.Type != "" {
				tb.typ = tc.Type
			}
			if tc.Function != nil {
				if tc.Function.Name != "" {
					tb.name = tc.Function.Name
				}
				tb.args.WriteString(tc.Function.Arguments)
			}
		}
	}
}

// AddData merges the payload of one SSE "data:" line. The [DONE] sentinel
// reports io.EOF.
func (a *Accumulator) AddData(payload string) error {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}
	if payload == "[DONE]" {
		return io.EOF
	}
	var chunk ChatCompletionChunk
	if err := sonic.UnmarshalString(payload, &chunk); err != nil {
		return fmt.Errorf("parse chunk: %w", err)
	}
	a.Add(chunk)
	return nil
}

// Response returns the accumulated response. Choices and tool calls are
// ordered by their stream index.
func (a *Accumulator) Response() ChatCompletionResponse {
	resp := ChatCompletionResponse{
		ID:      a.id,
		Object:  "chat.completion",
		Created: a.created,
		Model:   a.model,
	}
	if a.usage != nil {
		u := *a.usage
		resp.Usage = &u
	}
	for _, idx := range sortedKeys(a.choices) {
		cb := a.choices[idx]
		role := cb.role
		if role == "" {
			role = "assistant"
		}
		msg := ChatMessage{Role: role, Content: cb.content.String()}
		for _, ti := range sortedKeys(cb.tools) {
			tb := cb.tools[ti]
			typ := tb.typ
			if typ == "" {
				typ = "function"
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:       tb.id,
				Type:     typ,
				Function: ToolCallFunction{Name: tb.name, Arguments: tb.args.String()},
			})
		}
		resp.Choices = append(resp.Choices, ChatCompletionChoice{
			Index:        idx,
			FinishReason: cb.finish,
			Message:      msg,
		})
	}
	return resp
}

// AccumulateSSE reads an OpenAI chat completion SSE body until [DONE] or EOF.
func AccumulateSSE(r io.Reader) (ChatCompletionResponse, error) {
	acc := NewAccumulator()
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return ChatCompletionResponse{}, err
		}
		eof := err != nil
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			if perr := acc.AddData(strings.TrimPrefix(line, "data:")); perr != nil {
				if errors.Is(perr, io.EOF) {
					break
				}
				return ChatCompletionResponse{}, perr
			}
		}
		if eof {
			break
		}
	}
	return acc.Response(), nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
