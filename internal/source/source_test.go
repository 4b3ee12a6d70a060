package source

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
)

func TestLoadOpenAIFixture(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "openai.json"), FormatAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatOpenAI, doc.Format)
	assert.Equal(t, "gpt-4o-mini", doc.Model)

	out, err := datastream.EncodeWithToolCalls(doc.Response)
	require.NoError(t, err)
	assert.Equal(t,
		"0:\"Let me look that up.\"\n"+
			`1:{"type":"tool_call","id":"call_weather","function":{"name":"get_weather","arguments":"{\"city\":\"Paris\"}"}}`+"\n"+
			`8:{"type":"finish","usage":{"promptTokens":10,"completionTokens":15,"totalTokens":25}}`+"\n",
		out)
}

func TestLoadAnthropicFixture(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "anthropic.json"), FormatAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatAnthropic, doc.Format)

	out, err := datastream.Encode(doc.Response)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "0:\"Hi \\\"there\\\"\"\n"), out)
	assert.Contains(t, out, `"totalTokens":7`)
}

func TestLoadNativeYAML(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "native.yaml"), FormatAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatNative, doc.Format)
	require.Len(t, doc.Response.Generations, 2)
	require.Len(t, doc.Response.Generations[1].ToolCalls, 1)
	assert.Equal(t, `{"q":"golang"}`, doc.Response.Generations[1].ToolCalls[0].Arguments)
	require.NotNil(t, doc.Response.Usage)
	assert.Equal(t, 30, *doc.Response.Usage.TotalTokens)
}

func TestLoadSSEFixture(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "stream.sse"), FormatAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatOpenAISSE, doc.Format)
	require.Len(t, doc.Response.Generations, 1)
	assert.Equal(t, "Hello world", doc.Response.Generations[0].Text)
	assert.Nil(t, doc.Response.Usage)
}

func TestLoadFromStdin(t *testing.T) {
	in := strings.NewReader(`{"generations":[{"text":"piped"}],"usage":{"promptTokens":1,"completionTokens":null,"totalTokens":1}}`)
	doc, err := Load("-", "", in)
	require.NoError(t, err)
	out, err := datastream.Encode(doc.Response)
	require.NoError(t, err)
	assert.Equal(t, "0:\"piped\"\n"+`8:{"type":"finish","usage":{"promptTokens":1,"completionTokens":null,"totalTokens":1}}`+"\n", out)
}

func TestDecodeForcedFormat(t *testing.T) {
	_, err := Decode([]byte(`not json`), ".json", FormatOpenAI)
	assert.Error(t, err)

	_, err = Decode([]byte(`{}`), ".json", Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	f, err = ParseFormat("Anthropic")
	require.NoError(t, err)
	assert.Equal(t, FormatAnthropic, f)

	_, err = ParseFormat("gemini")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), FormatAuto, nil)
	assert.Error(t, err)
}
