package datastream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode and EncodeMode for unsupported modes.
var ErrUnknownMode = errors.New("datastream: unknown mode")

// Mode selects one of the encode operations.
type Mode string

const (
	ModePlain     Mode = "plain"
	ModeChunked   Mode = "chunked"
	ModeToolCalls Mode = "tools"
)

// Modes lists the supported modes in display order.
var Modes = []Mode{ModePlain, ModeChunked, ModeToolCalls}

// ParseMode accepts the canonical names plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "text":
		return ModePlain, nil
	case "chunked", "chunk":
		return ModeChunked, nil
	case "tools", "tool_calls", "toolcalls":
		return ModeToolCalls, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}
