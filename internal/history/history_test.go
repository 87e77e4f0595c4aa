package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"repodump/internal/config"
	"repodump/models"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewSQLite(config.HistoryConfig{
		Path: filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewDispatchesByDriver(t *testing.T) {
	store, err := New(config.HistoryConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()
	if store.Driver() != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", store.Driver())
	}

	if _, err := New(config.HistoryConfig{Driver: "mongodb"}); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
	if _, err := New(config.HistoryConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected an error for mysql without a DSN")
	}
}

func TestSaveRunAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	first, err := store.SaveRun(ctx, Run{
		Platform:   "github",
		Username:   "acme",
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
		Total:      12,
		Succeeded:  10,
		Failed:     2,
	}, nil)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	second, err := store.SaveRun(ctx, Run{
		Platform:   "gitlab",
		Username:   "widgets",
		StartedAt:  started.Add(time.Minute),
		FinishedAt: started.Add(2 * time.Minute),
		Total:      3,
		Succeeded:  3,
	}, nil)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if second <= first {
		t.Fatalf("run IDs should be increasing: %d then %d", first, second)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Username != "widgets" {
		t.Fatalf("newest run should come first, got %q", runs[0].Username)
	}
	if runs[1].Total != 12 || runs[1].Succeeded != 10 || runs[1].Failed != 2 {
		t.Fatalf("counters lost: %+v", runs[1])
	}

	limited, err := store.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored, got %d runs", len(limited))
	}
}

func TestSaveRunPersistsIssues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	issues := []models.Issue{
		{
			Repo:      models.Repo{Platform: models.PlatformGitHub, Owner: "acme", Name: "api"},
			Kind:      models.IssueNetwork,
			Message:   "dial tcp: connection refused",
			Timestamp: now,
		},
		{
			Repo:      models.Repo{Platform: models.PlatformGitHub, Owner: "acme", Name: "old"},
			Kind:      models.IssueConflict,
			Message:   "destination already contains a repository",
			Timestamp: now,
		},
	}

	runID, err := store.SaveRun(ctx, Run{
		Platform:   "github",
		Username:   "acme",
		StartedAt:  now,
		FinishedAt: now,
		Total:      2,
		Failed:     2,
	}, issues)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	records, err := store.IssuesForRun(ctx, runID)
	if err != nil {
		t.Fatalf("IssuesForRun: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 issue records, got %d", len(records))
	}
	if records[0].Repo != "github/acme/api" || records[0].Kind != "network" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Kind != "conflict" {
		t.Fatalf("unexpected second record: %+v", records[1])
	}

	none, err := store.IssuesForRun(ctx, runID+100)
	if err != nil {
		t.Fatalf("IssuesForRun: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no records for an unknown run, got %d", len(none))
	}
}
