package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarzLars/piperd/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	ctx := context.Background()
	cfg := config.HistoryConfig{RetentionMode: "ephemeral"}
	st, err := Open(ctx, cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.Record(ctx, Entry{RequestID: "req-1"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	entries, err := st.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("ephemeral store should keep nothing, got %d entries", len(entries))
	}
}

func TestRecordAndRecent(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Path: filepath.Join(tmp, "history.db"), RetentionMode: "session"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	recorded := time.Date(2025, 6, 15, 12, 30, 45, 0, time.UTC)
	st.clock = func() time.Time { return recorded }

	entry := Entry{
		RequestID: "req-123",
		SessionID: "session-1",
		Voice:     "en_US-lessac-medium",
		Sentences: 3,
		Skipped:   1,
		Samples:   44100,
		Duration:  1250 * time.Millisecond,
	}
	if err := st.Record(context.Background(), entry); err != nil {
		t.Fatalf("record: %v", err)
	}
	entries, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.RequestID != "req-123" || got.Voice != "en_US-lessac-medium" {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.Sentences != 3 || got.Skipped != 1 || got.Samples != 44100 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if got.Duration != 1250*time.Millisecond {
		t.Fatalf("unexpected duration: %v", got.Duration)
	}
	if !got.CreatedAt.Equal(recorded) {
		t.Fatalf("created_at did not survive the round trip: got %v, want %v", got.CreatedAt, recorded)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Path: filepath.Join(tmp, "history.db"), RetentionMode: "persistent"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	st.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := st.Record(context.Background(), Entry{RequestID: "first"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	st.clock = func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }
	if err := st.Record(context.Background(), Entry{RequestID: "second"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RequestID != "second" {
		t.Fatalf("expected newest first, got %s", entries[0].RequestID)
	}
}

func TestPruneByDaysAndCount(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Path: filepath.Join(tmp, "history.db"), RetentionMode: "persistent", RetentionDays: 1, MaxRequests: 1}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	st.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := st.Record(context.Background(), Entry{RequestID: "old"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	st.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := st.Record(context.Background(), Entry{RequestID: "new"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	entries, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after prune, got %d", len(entries))
	}
	if entries[0].RequestID != "new" {
		t.Fatalf("expected old entry pruned, kept %s", entries[0].RequestID)
	}
}
