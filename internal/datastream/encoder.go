// Package datastream encodes chat responses into the line-oriented data stream
// protocol read by web chat UIs:
//
//	0:"text chunk"
//	1:{"type":"tool_call","id":"...","function":{"name":"...","arguments":"..."}}
//	8:{"type":"finish","usage":{"promptTokens":1,"completionTokens":2,"totalTokens":3}}
//
// Encoding is synchronous and buffered; transport is left to the caller.
package datastream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

var (
	// ErrInvalidChunkSize is returned when a chunked encode is asked for a non-positive size.
	ErrInvalidChunkSize = errors.New("datastream: chunk size must be positive")
	// ErrNilResponse is returned when the response itself is nil.
	ErrNilResponse = errors.New("datastream: nil response")
)

// MarshalFunc serializes a value to JSON.
type MarshalFunc func(v any) ([]byte, error)

// jsonAPI keeps HTML characters as-is and replaces invalid UTF-8.
var jsonAPI = sonic.Config{ValidateString: true}.Froze()

var defaultEncoder = NewEncoder()

// Encoder turns a Response into a data stream. An Encoder is immutable once
// built and may be shared between goroutines.
type Encoder struct {
	marshal  MarshalFunc
	observer Observer
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithMarshal replaces the primary JSON marshaller.
func WithMarshal(fn MarshalFunc) Option {
	return func(e *Encoder) {
		if fn != nil {
			e.marshal = fn
		}
	}
}

// WithObserver attaches observers. Multiple observers are notified in order.
func WithObserver(obs ...Observer) Option {
	return func(e *Encoder) {
		var list multiObserver
		if _, ok := e.observer.(nopObserver); !ok {
			list = append(list, e.observer)
		}
		for _, o := range obs {
			if o != nil {
				list = append(list, o)
			}
		}
		switch len(list) {
		case 0:
		case 1:
			e.observer = list[0]
		default:
			e.observer = list
		}
	}
}

// NewEncoder returns an Encoder backed by sonic.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		marshal:  jsonAPI.Marshal,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of e with the extra options applied.
func (e *Encoder) With(opts ...Option) *Encoder {
	cp := *e
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Encode writes one text record per non-empty generation, then the finish record.
func (e *Encoder) Encode(resp *Response) (string, error) {
	if resp == nil {
		return "", ErrNilResponse
	}
	s := e.newStream()
	for _, gen := range resp.Generations {
		s.text(gen.Text)
	}
	s.finish(resp.Usage)
	return s.String(), nil
}

// EncodeChunked behaves like Encode but splits every text into records of at
// most chunkSize characters.
func (e *Encoder) EncodeChunked(resp *Response, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
	}
	if resp == nil {
		return "", ErrNilResponse
	}
	s := e.newStream()
	for _, gen := range resp.Generations {
		chunks, _ := SplitChunks(gen.Text, chunkSize)
		for _, chunk := range chunks {
			s.text(chunk)
		}
	}
	s.finish(resp.Usage)
	return s.String(), nil
}

// EncodeWithToolCalls writes, per generation, the full text record followed by
// one record per tool call, then the finish record.
func (e *Encoder) EncodeWithToolCalls(resp *Response) (string, error) {
	if resp == nil {
		return "", ErrNilResponse
	}
	s := e.newStream()
	for _, gen := range resp.Generations {
		s.text(gen.Text)
		for _, tc := range gen.ToolCalls {
			s.toolCall(tc)
		}
	}
	s.finish(resp.Usage)
	return s.String(), nil
}

// EncodeMode dispatches to the encode operation selected by mode.
// chunkSize is only read for ModeChunked.
func (e *Encoder) EncodeMode(resp *Response, mode Mode, chunkSize int) (string, error) {
	switch mode {
	case ModePlain:
		return e.Encode(resp)
	case ModeChunked:
		return e.EncodeChunked(resp, chunkSize)
	case ModeToolCalls:
		return e.EncodeWithToolCalls(resp)
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
}

// Encode encodes resp with the default encoder.
func Encode(resp *Response) (string, error) {
	return defaultEncoder.Encode(resp)
}

// EncodeChunked encodes resp with the default encoder, chunking text.
func EncodeChunked(resp *Response, chunkSize int) (string, error) {
	return defaultEncoder.EncodeChunked(resp, chunkSize)
}

// EncodeWithToolCalls encodes resp with the default encoder, including tool calls.
func EncodeWithToolCalls(resp *Response) (string, error) {
	return defaultEncoder.EncodeWithToolCalls(resp)
}

// stream is the per-call output buffer.
type stream struct {
	enc *Encoder
	b   strings.Builder
}

func (e *Encoder) newStream() *stream {
	return &stream{enc: e}
}

func (s *stream) String() string {
	return s.b.String()
}

func (s *stream) write(tag Tag, payload string) {
	writeRecord(&s.b, tag, payload)
	s.enc.observer.OnRecord(tag, len(payload)+3)
}

func (s *stream) text(text string) {
	if text == "" {
		return
	}
	s.write(TagText, s.enc.escape(text))
}

func (s *stream) toolCall(tc ToolCall) {
	payload, err := s.enc.safeMarshal(newToolCallEvent(tc))
	if err != nil {
		s.enc.observer.OnFallback(TagToolCall, err)
		s.write(TagToolCall, ToolCallFallback)
		return
	}
	s.write(TagToolCall, payload)
}

func (s *stream) finish(u *Usage) {
	if u == nil {
		return
	}
	payload, err := s.enc.safeMarshal(newFinishEvent(u))
	if err != nil {
		s.enc.observer.OnFallback(TagFinish, err)
		s.write(TagFinish, FinishFallback)
		return
	}
	s.write(TagFinish, payload)
}

// safeMarshal turns marshaller panics into errors so a single record can
// never abort the stream.
func (e *Encoder) safeMarshal(v any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("datastream: marshal panic: %v", r)
		}
	}()
	b, err := e.marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
