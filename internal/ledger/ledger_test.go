package ledger

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
)

func TestNewEntry(t *testing.T) {
	stats := datastream.Stats{TextRecords: 2, ToolCallRecords: 1, FinishRecords: 1, Bytes: 120, Fallbacks: 1}
	usage := &datastream.Usage{PromptTokens: datastream.Tokens(10), TotalTokens: datastream.Tokens(25)}

	e := NewEntry("fixture.json", "gpt-4o", datastream.ModeToolCalls, usage, stats)
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", e.ID)
	}
	if e.Records != 4 || e.Bytes != 120 || e.Fallbacks != 1 {
		t.Fatalf("unexpected stats %+v", e)
	}
	if e.PromptTokens == nil || *e.PromptTokens != 10 {
		t.Fatalf("unexpected prompt tokens %v", e.PromptTokens)
	}
	if e.CompletionTokens != nil {
		t.Fatalf("expected absent completion tokens")
	}
	if e.Mode != "tools" || e.CreatedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestNewEntryWithoutUsage(t *testing.T) {
	e := NewEntry("-", "", datastream.ModePlain, nil, datastream.Stats{})
	if e.PromptTokens != nil || e.CompletionTokens != nil || e.TotalTokens != nil {
		t.Fatalf("expected nil counters %+v", e)
	}
}
