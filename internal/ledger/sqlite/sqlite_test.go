package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
	"github.com/tokligence/tokligence-datastream/internal/ledger"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRecordAndSummary(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	stats := datastream.Stats{TextRecords: 1, FinishRecords: 1, Bytes: 40}
	entries := []ledger.Entry{
		ledger.NewEntry("a.json", "gpt-4o", datastream.ModePlain, datastream.NewUsage(10, 15, 25), stats),
		ledger.NewEntry("b.json", "gpt-4o", datastream.ModeChunked, datastream.NewUsage(5, 5, 10), stats),
		ledger.NewEntry("c.json", "claude", datastream.ModeToolCalls, nil, stats),
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.Summary(ctx, "")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if all.Entries != 3 || all.TotalTokens != 35 || all.Records != 6 || all.Bytes != 120 {
		t.Fatalf("unexpected summary %+v", all)
	}

	gpt, err := store.Summary(ctx, "gpt-4o")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if gpt.Entries != 2 || gpt.PromptTokens != 15 || gpt.CompletionTokens != 20 {
		t.Fatalf("unexpected model summary %+v", gpt)
	}
}

func TestListRecentOrdering(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, offset := range []time.Duration{-2 * time.Hour, -1 * time.Hour, 0} {
		e := ledger.NewEntry("f", "m", datastream.ModePlain, nil, datastream.Stats{TextRecords: i + 1})
		e.CreatedAt = now.Add(offset)
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Records != 3 || recent[1].Records != 2 {
		t.Fatalf("unexpected ordering: %+v", recent)
	}
	if recent[0].PromptTokens != nil {
		t.Fatalf("expected NULL prompt tokens to stay nil")
	}
}

func TestRecordValidation(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), ledger.Entry{Mode: "plain"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if err := store.Record(context.Background(), ledger.Entry{ID: "x"}); err == nil {
		t.Fatalf("expected error for missing mode")
	}
}
