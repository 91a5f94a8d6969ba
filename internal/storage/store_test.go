package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pinsched/pkg/logx"
)

func sampleRuns(now time.Time) []RunRecord {
	return []RunRecord{
		{At: now.Add(-2 * time.Minute), Description: "morning pulse", Action: "pulse", Pin: "GPIO17", Scheduled: now.Add(-2 * time.Minute), TookMS: 201},
		{At: now.Add(-1 * time.Minute), Description: "clock resync", Action: "resync", Scheduled: now.Add(-1 * time.Minute), TookMS: 48},
		{At: now, Description: "broken", Action: "activate", Pin: "GPIO9", Scheduled: now, Error: "pin GPIO9 is not bound"},
	}
}

func testStoreRoundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for _, r := range sampleRuns(now) {
		if err := st.AppendRun(ctx, r); err != nil {
			t.Fatalf("AppendRun: %v", err)
		}
	}

	got, err := st.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentRuns returned %d records, want 2", len(got))
	}
	// Oldest-first of the two most recent.
	if got[0].Description != "clock resync" || got[1].Description != "broken" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[1].Error == "" {
		t.Fatal("error field lost in round trip")
	}
	if got[0].Pin != "" {
		t.Fatalf("resync record grew a pin: %q", got[0].Pin)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "history")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	testStoreRoundTrip(t, st)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "history.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	testStoreRoundTrip(t, st)
}

func TestOpenDisabledAndUnknown(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("Open(disabled) = (%v, %v), want (nil, nil)", st, err)
	}
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
