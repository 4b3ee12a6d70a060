package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
)

// Entry is one encoded response recorded in the ledger. Token counters are
// nil when the response did not report them.
type Entry struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Model            string    `json:"model"`
	Mode             string    `json:"mode"`
	PromptTokens     *int64    `json:"prompt_tokens,omitempty"`
	CompletionTokens *int64    `json:"completion_tokens,omitempty"`
	TotalTokens      *int64    `json:"total_tokens,omitempty"`
	Records          int       `json:"records"`
	Bytes            int       `json:"bytes"`
	Fallbacks        int       `json:"fallbacks"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary aggregates ledger entries.
type Summary struct {
	Entries          int64 `json:"entries"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	Records          int64 `json:"records"`
	Bytes            int64 `json:"bytes"`
}

// Store defines persistence behaviour for the ledger.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	// Summary aggregates all entries, or only those for model when non-empty.
	Summary(ctx context.Context, model string) (Summary, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// NewEntry builds an entry for one encode call.
func NewEntry(source, model string, mode datastream.Mode, usage *datastream.Usage, stats datastream.Stats) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Source:    source,
		Model:     model,
		Mode:      string(mode),
		Records:   stats.Records(),
		Bytes:     stats.Bytes,
		Fallbacks: stats.Fallbacks,
		CreatedAt: time.Now().UTC(),
	}
	if usage != nil {
		e.PromptTokens = widen(usage.PromptTokens)
		e.CompletionTokens = widen(usage.CompletionTokens)
		e.TotalTokens = widen(usage.TotalTokens)
	}
	return e
}

func widen(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}
