package datastream

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestEscapeJSON(t *testing.T) {
	cases := map[string]string{
		"plain":      `"plain"`,
		`Hi "there"`: `"Hi \"there\""`,
		"a\\b":       `"a\\b"`,
		"line\nnext": `"line\nnext"`,
		"cr\rhere":   `"cr\rhere"`,
		"":           `""`,
	}
	for in, want := range cases {
		if got := EscapeJSON(in); got != want {
			t.Fatalf("EscapeJSON(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestManualEscapeProducesValidJSON(t *testing.T) {
	inputs := []string{
		`quote " and backslash \`,
		"newline\ncarriage\rtab\tbell\a",
		"nul\x00 and del\x7f",
		"unicode ✓ 日本語",
		"bad utf8 \xff\xfe",
		`\"`,
	}
	for _, in := range inputs {
		out := manualEscape(in)
		if !strings.HasPrefix(out, `"`) || !strings.HasSuffix(out, `"`) {
			t.Fatalf("manualEscape(%q) not quoted: %s", in, out)
		}
		var decoded string
		if err := sonic.UnmarshalString(out, &decoded); err != nil {
			t.Fatalf("manualEscape(%q) produced invalid JSON %s: %v", in, out, err)
		}
		if !strings.Contains(in, "\xff") && decoded != in {
			t.Fatalf("round trip mismatch: got %q want %q", decoded, in)
		}
	}
}

func TestManualEscapeMinimumSet(t *testing.T) {
	got := manualEscape("\"\\\n\r")
	want := `"\"\\\n\r"`
	if got != want {
		t.Fatalf("manualEscape = %s, want %s", got, want)
	}
}

func TestSplitChunks(t *testing.T) {
	chunks, err := SplitChunks("abcdefg", 3)
	if err != nil {
		t.Fatalf("SplitChunks: %v", err)
	}
	want := []string{"abc", "def", "g"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d (%q)", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}

	multi, err := SplitChunks("日本語テキスト", 2)
	if err != nil {
		t.Fatalf("SplitChunks: %v", err)
	}
	if len(multi) != 4 || multi[0] != "日本" || multi[3] != "ト" {
		t.Fatalf("unexpected multibyte chunks %q", multi)
	}

	if empty, err := SplitChunks("", 4); err != nil || len(empty) != 0 {
		t.Fatalf("expected no chunks for empty text, got %q err=%v", empty, err)
	}
	if _, err := SplitChunks("abc", 0); err != ErrInvalidChunkSize {
		t.Fatalf("expected ErrInvalidChunkSize, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"plain":      ModePlain,
		" Chunked ":  ModeChunked,
		"tool_calls": ModeToolCalls,
		"tools":      ModeToolCalls,
	} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("sse"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
