package datastream

import "strings"

// Tag identifies the record kind on the wire. Clients key their parsing on
// these values, so they must never be renumbered or reused.
type Tag byte

const (
	TagText     Tag = '0'
	TagToolCall Tag = '1'
	TagFinish   Tag = '8'
)

func (t Tag) String() string {
	switch t {
	case TagText:
		return "text"
	case TagToolCall:
		return "tool_call"
	case TagFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// Fallback payloads written when an envelope cannot be serialized.
const (
	FinishFallback   = `{"type":"finish","error":"Failed to serialize usage data"}`
	ToolCallFallback = `{"type":"tool_call","error":"Failed to serialize tool call"}`
)

// writeRecord appends "<tag>:<payload>\n" to b.
func writeRecord(b *strings.Builder, tag Tag, payload string) {
	b.WriteByte(byte(tag))
	b.WriteByte(':')
	b.WriteString(payload)
	b.WriteByte('\n')
}
