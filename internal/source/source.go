// Package source loads response documents from disk or stdin and converts
// them to datastream.Response values.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/tokligence/tokligence-datastream/internal/anthropic"
	"github.com/tokligence/tokligence-datastream/internal/datastream"
	"github.com/tokligence/tokligence-datastream/internal/openai"
)

// Format names the shape of a response document.
type Format string

const (
	FormatAuto      Format = "auto"
	FormatNative    Format = "native"
	FormatOpenAI    Format = "openai"
	FormatOpenAISSE Format = "openai-sse"
	FormatAnthropic Format = "anthropic"
)

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("source: unknown format")

// ParseFormat validates a format name; empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatNative, FormatOpenAI, FormatOpenAISSE, FormatAnthropic:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

// Document is a decoded response plus the metadata the CLI reports.
type Document struct {
	Format   Format
	Model    string
	Response *datastream.Response
}

// Load reads path ("-" for stdin) and decodes it.
func Load(path string, format Format, stdin io.Reader) (Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", displayName(path), err)
	}
	doc, err := Decode(data, filepath.Ext(path), format)
	if err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", displayName(path), err)
	}
	return doc, nil
}

// Decode parses data. ext selects YAML (".yaml", ".yml") or SSE (".sse");
// anything else is read as JSON.
func Decode(data []byte, ext string, format Format) (Document, error) {
	if format == "" {
		format = FormatAuto
	}
	ext = strings.ToLower(ext)

	if format == FormatOpenAISSE || ext == ".sse" || (format == FormatAuto && looksLikeSSE(data)) {
		resp, err := openai.AccumulateSSE(bytes.NewReader(data))
		if err != nil {
			return Document{}, err
		}
		return Document{Format: FormatOpenAISSE, Model: resp.Model, Response: resp.DataStream()}, nil
	}

	jsonData := data
	if ext == ".yaml" || ext == ".yml" {
		converted, err := yamlToJSON(data)
		if err != nil {
			return Document{}, err
		}
		jsonData = converted
	}

	if format == FormatAuto {
		detected, err := detect(jsonData)
		if err != nil {
			return Document{}, err
		}
		format = detected
	}

	switch format {
	case FormatNative:
		var resp datastream.Response
		if err := sonic.Unmarshal(jsonData, &resp); err != nil {
			return Document{}, fmt.Errorf("parse native response: %w", err)
		}
		return Document{Format: format, Response: &resp}, nil
	case FormatOpenAI:
		var resp openai.ChatCompletionResponse
		if err := sonic.Unmarshal(jsonData, &resp); err != nil {
			return Document{}, fmt.Errorf("parse openai response: %w", err)
		}
		return Document{Format: format, Model: resp.Model, Response: resp.DataStream()}, nil
	case FormatAnthropic:
		var msg anthropic.MessageResponse
		if err := sonic.Unmarshal(jsonData, &msg); err != nil {
			return Document{}, fmt.Errorf("parse anthropic response: %w", err)
		}
		return Document{Format: format, Model: msg.Model, Response: msg.DataStream()}, nil
	default:
		return Document{}, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

// detect picks a format from the top-level keys.
func detect(data []byte) (Format, error) {
	var probe map[string]interface{}
	if err := sonic.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	if _, ok := probe["choices"]; ok {
		return FormatOpenAI, nil
	}
	if _, ok := probe["content"]; ok {
		if t, _ := probe["type"].(string); t == "message" || probe["stop_reason"] != nil {
			return FormatAnthropic, nil
		}
	}
	return FormatNative, nil
}

func looksLikeSSE(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("data:"))
}

// yamlToJSON re-encodes a YAML document so every format shares the JSON decoders.
func yamlToJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out, err := sonic.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return out, nil
}

// normalizeYAML turns map[interface{}]interface{} nodes into JSON-friendly maps.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
