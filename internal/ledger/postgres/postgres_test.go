package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
	"github.com/tokligence/tokligence-datastream/internal/ledger"
)

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), "", Options{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestStoreAgainstDatabase(t *testing.T) {
	dsn := os.Getenv("DATASTREAM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DATASTREAM_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := New(ctx, dsn, Options{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	model := "pg-test-" + ledger.NewEntry("", "", datastream.ModePlain, nil, datastream.Stats{}).ID
	e := ledger.NewEntry("pg.json", model, datastream.ModeToolCalls, datastream.NewUsage(3, 4, 7), datastream.Stats{TextRecords: 1, FinishRecords: 1, Bytes: 50})
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}

	sum, err := store.Summary(ctx, model)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Entries != 1 || sum.TotalTokens != 7 || sum.Records != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	recent, err := store.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) == 0 {
		t.Fatalf("expected recent entries")
	}
}
