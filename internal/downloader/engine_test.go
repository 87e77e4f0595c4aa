package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"repodump/models"
)

func testRepo(name string) models.Repo {
	return models.Repo{
		Platform:      models.PlatformGitHub,
		Owner:         "acme",
		Name:          name,
		CloneURL:      "https://github.com/acme/" + name + ".git",
		DefaultBranch: "main",
	}
}

// markerClone stands in for git: it creates the destination with a .git
// entry, like a real clone would.
func markerClone(ctx context.Context, cloneURL, dest string) error {
	return os.MkdirAll(filepath.Join(dest, ".git"), 0o755)
}

func newTestEngine(t *testing.T, base string, maxParallel int, clone CloneFunc) *Engine {
	t.Helper()
	opts := []Option{}
	if clone != nil {
		opts = append(opts, WithCloneFunc(clone))
	}
	eng, err := New(Config{BaseDirectory: base, MaxParallel: maxParallel}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestNewValidatesConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero parallel", Config{BaseDirectory: "x", MaxParallel: 0}, true},
		{"negative parallel", Config{BaseDirectory: "x", MaxParallel: -3}, true},
		{"over limit", Config{BaseDirectory: "x", MaxParallel: 21}, true},
		{"missing base", Config{MaxParallel: 5}, true},
		{"lower bound", Config{BaseDirectory: "x", MaxParallel: 1}, false},
		{"upper bound", Config{BaseDirectory: "x", MaxParallel: 20}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %+v", tc.cfg)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDownloadAllEmptyInput(t *testing.T) {
	base := filepath.Join(t.TempDir(), "repos")
	eng := newTestEngine(t, base, 5, markerClone)

	results, err := eng.DownloadAll(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if results.Total() != 0 {
		t.Fatalf("expected empty results, got %+v", results)
	}
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Fatalf("base directory should not have been created")
	}
}

func TestDownloadAllCompleteness(t *testing.T) {
	base := t.TempDir()

	var repos []models.Repo
	for i := 0; i < 10; i++ {
		repos = append(repos, testRepo(fmt.Sprintf("repo-%d", i)))
	}

	// Every odd repo fails with a simulated network error.
	clone := func(ctx context.Context, cloneURL, dest string) error {
		if strings.HasSuffix(cloneURL, "1.git") || strings.HasSuffix(cloneURL, "3.git") ||
			strings.HasSuffix(cloneURL, "5.git") || strings.HasSuffix(cloneURL, "7.git") ||
			strings.HasSuffix(cloneURL, "9.git") {
			return errors.New("dial tcp: connection refused")
		}
		return markerClone(ctx, cloneURL, dest)
	}

	eng := newTestEngine(t, base, 4, clone)
	results, err := eng.DownloadAll(context.Background(), repos, nil)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}

	if results.Total() != len(repos) {
		t.Fatalf("expected %d outcomes, got %d", len(repos), results.Total())
	}
	if len(results.Successful) != 5 || len(results.Issues) != 5 {
		t.Fatalf("expected 5/5 split, got %d successful, %d issues",
			len(results.Successful), len(results.Issues))
	}

	seen := make(map[string]bool)
	for _, r := range results.Successful {
		seen[r.Repo.Name] = true
	}
	for _, issue := range results.Issues {
		if seen[issue.Repo.Name] {
			t.Fatalf("repo %s reported twice", issue.Repo.Name)
		}
		seen[issue.Repo.Name] = true
		if issue.Kind != models.IssueNetwork {
			t.Fatalf("expected network issue for %s, got %s", issue.Repo.Name, issue.Kind)
		}
	}
	for _, r := range repos {
		if !seen[r.Name] {
			t.Fatalf("repo %s missing from results", r.Name)
		}
	}
}

func TestConcurrencyBound(t *testing.T) {
	for _, maxParallel := range []int{1, 5, 20} {
		t.Run(fmt.Sprintf("max=%d", maxParallel), func(t *testing.T) {
			var (
				mu     sync.Mutex
				active int
				peak   int
			)
			clone := func(ctx context.Context, cloneURL, dest string) error {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return markerClone(ctx, cloneURL, dest)
			}

			var repos []models.Repo
			for i := 0; i < 40; i++ {
				repos = append(repos, testRepo(fmt.Sprintf("repo-%d", i)))
			}

			eng := newTestEngine(t, t.TempDir(), maxParallel, clone)
			results, err := eng.DownloadAll(context.Background(), repos, nil)
			if err != nil {
				t.Fatalf("DownloadAll: %v", err)
			}
			if len(results.Successful) != len(repos) {
				t.Fatalf("expected all successful, got %d issues", len(results.Issues))
			}

			mu.Lock()
			defer mu.Unlock()
			if peak > maxParallel {
				t.Fatalf("observed %d simultaneous clones, bound is %d", peak, maxParallel)
			}
		})
	}
}

func TestConflictWhenGitWorkingCopyExists(t *testing.T) {
	base := t.TempDir()
	repo := testRepo("existing")

	dest := filepath.Join(base, "github", "acme", "existing")
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	payload := filepath.Join(dest, "README.md")
	if err := os.WriteFile(payload, []byte("do not touch"), 0o644); err != nil {
		t.Fatal(err)
	}

	cloneCalled := false
	eng := newTestEngine(t, base, 2, func(ctx context.Context, cloneURL, dest string) error {
		cloneCalled = true
		return nil
	})

	results, err := eng.DownloadAll(context.Background(), []models.Repo{repo}, nil)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if cloneCalled {
		t.Fatal("clone must not be attempted for an existing working copy")
	}
	if len(results.Issues) != 1 || results.Issues[0].Kind != models.IssueConflict {
		t.Fatalf("expected one conflict, got %+v", results.Issues)
	}
	if results.Issues[0].ExistingPath != dest {
		t.Fatalf("expected existing path %s, got %s", dest, results.Issues[0].ExistingPath)
	}

	content, err := os.ReadFile(payload)
	if err != nil || string(content) != "do not touch" {
		t.Fatalf("pre-existing content was modified: %q, %v", content, err)
	}
}

func TestFileConflictWhenPlainDirectoryExists(t *testing.T) {
	base := t.TempDir()
	repo := testRepo("plain")

	dest := filepath.Join(base, "github", "acme", "plain")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	eng := newTestEngine(t, base, 2, markerClone)
	results, err := eng.DownloadAll(context.Background(), []models.Repo{repo}, nil)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if len(results.Issues) != 1 || results.Issues[0].Kind != models.IssueFileConflict {
		t.Fatalf("expected one file conflict, got %+v", results.Issues)
	}
}

func TestRerunReportsConflict(t *testing.T) {
	base := t.TempDir()
	repo := testRepo("once")
	eng := newTestEngine(t, base, 2, markerClone)

	first, err := eng.DownloadAll(context.Background(), []models.Repo{repo}, nil)
	if err != nil {
		t.Fatalf("first DownloadAll: %v", err)
	}
	if len(first.Successful) != 1 {
		t.Fatalf("first run should succeed, got %+v", first)
	}

	second, err := eng.DownloadAll(context.Background(), []models.Repo{repo}, nil)
	if err != nil {
		t.Fatalf("second DownloadAll: %v", err)
	}
	if len(second.Issues) != 1 || second.Issues[0].Kind != models.IssueConflict {
		t.Fatalf("second run should report conflict, got %+v", second)
	}
}

func TestPathTraversalRejectedBeforeFilesystemAccess(t *testing.T) {
	base := filepath.Join(t.TempDir(), "repos")

	cloneCalled := false
	eng := newTestEngine(t, base, 2, func(ctx context.Context, cloneURL, dest string) error {
		cloneCalled = true
		return nil
	})

	evil := testRepo("ok")
	evil.Name = "../../etc"

	_, err := eng.DownloadAll(context.Background(), []models.Repo{testRepo("ok"), evil}, nil)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if cloneCalled {
		t.Fatal("no clone may run when the batch is rejected")
	}
	if _, statErr := os.Stat(base); !os.IsNotExist(statErr) {
		t.Fatal("base directory must not be created for a rejected batch")
	}
}

func TestDuplicateDestinationYieldsSingleSuccess(t *testing.T) {
	base := t.TempDir()

	clone := func(ctx context.Context, cloneURL, dest string) error {
		time.Sleep(10 * time.Millisecond)
		return markerClone(ctx, cloneURL, dest)
	}
	eng := newTestEngine(t, base, 2, clone)

	repos := []models.Repo{testRepo("dup"), testRepo("dup")}
	results, err := eng.DownloadAll(context.Background(), repos, nil)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if len(results.Successful) != 1 {
		t.Fatalf("expected exactly one success, got %d", len(results.Successful))
	}
	if len(results.Issues) != 1 || results.Issues[0].Kind != models.IssueConflict {
		t.Fatalf("loser must observe a conflict, got %+v", results.Issues)
	}
}

func TestProgressCallbackPerRepo(t *testing.T) {
	base := t.TempDir()

	repos := []models.Repo{testRepo("good"), testRepo("bad")}
	clone := func(ctx context.Context, cloneURL, dest string) error {
		if strings.Contains(cloneURL, "bad") {
			return errors.New("remote: authentication failed")
		}
		return markerClone(ctx, cloneURL, dest)
	}

	var mu sync.Mutex
	calls := make(map[string][]State)
	progress := func(repo models.Repo, state State, issue *models.Issue) {
		mu.Lock()
		calls[repo.Name] = append(calls[repo.Name], state)
		mu.Unlock()
	}

	eng := newTestEngine(t, base, 2, clone)
	if _, err := eng.DownloadAll(context.Background(), repos, progress); err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := map[string]State{"good": StateSuccess, "bad": StateIssue}
	for name, terminal := range want {
		states := calls[name]
		if len(states) != 2 {
			t.Fatalf("expected 2 callbacks for %s, got %v", name, states)
		}
		if states[0] != StateStarted || states[1] != terminal {
			t.Fatalf("unexpected callback sequence for %s: %v", name, states)
		}
	}
}

func TestTokenNeverAppearsInIssueMessages(t *testing.T) {
	base := t.TempDir()
	const token = "ghp_supersecret123"

	clone := func(ctx context.Context, cloneURL, dest string) error {
		// Real git errors echo the URL they tried, credentials included.
		return fmt.Errorf("unable to access '%s': authentication failed", cloneURL)
	}

	eng, err := New(Config{BaseDirectory: base, MaxParallel: 2, Token: token},
		WithCloneFunc(clone))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	results, err := eng.DownloadAll(context.Background(), []models.Repo{testRepo("leaky")}, nil)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if len(results.Issues) != 1 {
		t.Fatalf("expected one issue, got %+v", results)
	}
	issue := results.Issues[0]
	if issue.Kind != models.IssueAuth {
		t.Fatalf("expected auth issue, got %s", issue.Kind)
	}
	if strings.Contains(issue.Message, token) {
		t.Fatalf("token leaked into issue message: %s", issue.Message)
	}
	if issue.Timestamp.IsZero() {
		t.Fatal("issue timestamp not set")
	}
}
