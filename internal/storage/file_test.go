package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", "NONE"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q) error = %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) = %v, want nil store", driver, st)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatalf("Open(postgres): want error")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal")

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	base := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	qs := []Question{
		{At: base, ChatID: 1, FromID: 10, Username: "anna", Text: "wann öffnet das amt?"},
		{At: base.Add(1 * time.Hour), ChatID: 2, FromID: 20, Text: "parking nearby?"},
		{At: base.Add(2 * time.Hour), ChatID: 3, FromID: 30, Username: "birk", Text: "do you take walk-ins?"},
	}
	for _, q := range qs {
		if err := st.AppendQuestion(ctx, q); err != nil {
			t.Fatalf("AppendQuestion(%q) error = %v", q.Text, err)
		}
	}

	got, err := st.RecentQuestions(ctx, base.Add(30*time.Minute), 0)
	if err != nil {
		t.Fatalf("RecentQuestions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentQuestions() returned %d questions, want 2", len(got))
	}
	if got[0].Text != "parking nearby?" || got[1].Text != "do you take walk-ins?" {
		t.Errorf("RecentQuestions() order = [%q, %q], want chronological", got[0].Text, got[1].Text)
	}

	// limit keeps the newest entries.
	got, err = st.RecentQuestions(ctx, time.Time{}, 2)
	if err != nil {
		t.Fatalf("RecentQuestions(limit=2) error = %v", err)
	}
	if len(got) != 2 || got[1].Text != "do you take walk-ins?" {
		t.Fatalf("RecentQuestions(limit=2) = %v, want newest two", got)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen: journal persists across restarts.
	st2, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer st2.Close()
	got, err = st2.RecentQuestions(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("RecentQuestions() after reopen error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("RecentQuestions() after reopen returned %d questions, want 3", len(got))
	}
}

func TestFileStoreEmptyJournal(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "journal")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer st.Close()

	got, err := st.RecentQuestions(context.Background(), time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("RecentQuestions() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("RecentQuestions() on empty journal = %v, want none", got)
	}
}
