package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"

	"repodump/models"
)

// MaxParallel bounds accepted by Config.
const (
	MinParallel      = 1
	MaxParallelLimit = 20
)

// Config controls one Engine. It is supplied by the caller (CLI or embedding
// application) and validated by New.
type Config struct {
	// BaseDirectory is the root under which repositories are placed as
	// <base>/<platform>/<owner>/<name>.
	BaseDirectory string

	// MaxParallel bounds simultaneous clone operations (1–20).
	MaxParallel int

	// Token, when set, is embedded into clone URLs using the platform's
	// credential convention. It never appears in Issue messages.
	Token string
}

// State is the lifecycle stage reported through ProgressFunc.
type State string

const (
	StateStarted State = "started"
	StateSuccess State = "success"
	StateIssue   State = "issue"
)

// ProgressFunc receives per-repository lifecycle notifications: once with
// StateStarted before the clone is attempted and once with the terminal
// state. It is invoked outside the concurrency gate, so a slow callback does
// not serialize unrelated clones. issue is non-nil only for StateIssue.
type ProgressFunc func(repo models.Repo, state State, issue *models.Issue)

// Engine orchestrates gate, workers and collector over an input batch.
type Engine struct {
	cfg   Config
	gate  *gate
	clone CloneFunc

	// inflight guards against two descriptors in one batch racing the
	// existence check for the same destination path.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option customises an Engine.
type Option func(*Engine)

// WithCloneFunc overrides how repositories are cloned. Used by tests to
// substitute the external git invocation.
func WithCloneFunc(fn CloneFunc) Option {
	return func(e *Engine) { e.clone = fn }
}

// New validates cfg and constructs an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.BaseDirectory == "" {
		return nil, errors.New("downloader: base directory is required")
	}
	if cfg.MaxParallel < MinParallel || cfg.MaxParallel > MaxParallelLimit {
		return nil, fmt.Errorf("downloader: max parallel must be between %d and %d, got %d",
			MinParallel, MaxParallelLimit, cfg.MaxParallel)
	}

	g, err := newGate(cfg.MaxParallel)
	if err != nil {
		return nil, fmt.Errorf("downloader: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		gate:     g,
		clone:    gitClone,
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// DownloadAll clones every repository in repos and returns once each has
// produced exactly one outcome. A failure in one repository never aborts the
// others; at most MaxParallel clones run at any moment. An empty batch
// returns empty results without touching the filesystem.
//
// Invoking DownloadAll again for the same repositories reports a conflict
// for each previously downloaded one — existing paths are never updated.
func (e *Engine) DownloadAll(ctx context.Context, repos []models.Repo, progress ProgressFunc) (*Results, error) {
	if len(repos) == 0 {
		return &Results{}, nil
	}

	// A descriptor that could escape the base directory is a contract
	// violation, not a per-repo issue: reject the whole batch before any
	// filesystem access.
	for _, r := range repos {
		if err := validateRepo(r); err != nil {
			return nil, err
		}
	}

	c := newCollector(len(repos))

	workers := e.cfg.MaxParallel
	if workers > len(repos) {
		workers = len(repos)
	}

	jobs := make(chan models.Repo)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for repo := range jobs {
				e.process(ctx, repo, c, progress)
			}
		}()
	}

	for _, r := range repos {
		jobs <- r
	}
	close(jobs)
	wg.Wait()

	return c.snapshot(), nil
}

func (e *Engine) process(ctx context.Context, repo models.Repo, c *collector, progress ProgressFunc) {
	if progress != nil {
		progress(repo, StateStarted, nil)
	}

	issue := e.downloadOne(ctx, repo)
	if issue == nil {
		c.recordSuccess(models.Result{Repo: repo})
		if progress != nil {
			progress(repo, StateSuccess, nil)
		}
		return
	}

	c.recordIssue(*issue)
	if progress != nil {
		progress(repo, StateIssue, issue)
	}
}

// downloadOne runs the per-repository pipeline: conflict check, parent
// directory creation, authenticated URL construction, clone, classification.
// A nil return means the clone succeeded.
func (e *Engine) downloadOne(ctx context.Context, repo models.Repo) *models.Issue {
	dest := e.destination(repo)

	// First claim on a destination wins; a duplicate descriptor in the same
	// batch observes a conflict instead of racing the existence check.
	if !e.claim(dest) {
		return newIssue(repo, models.IssueConflict,
			"duplicate destination path in batch: "+dest, dest)
	}
	defer e.unclaim(dest)

	if _, err := os.Stat(dest); err == nil {
		if isGitWorkingCopy(dest) {
			return newIssue(repo, models.IssueConflict,
				"repository already exists: "+dest, dest)
		}
		return newIssue(repo, models.IssueFileConflict,
			"non-git directory exists: "+dest, dest)
	}

	cloneURL, err := AuthenticatedCloneURL(repo, e.cfg.Token)
	if err != nil {
		return newIssue(repo, models.IssueGit, Redact(err.Error(), e.cfg.Token), "")
	}

	if err := e.gate.acquire(ctx); err != nil {
		return newIssue(repo, models.IssueGit, "clone not attempted: "+err.Error(), "")
	}
	defer e.gate.release()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return newIssue(repo, models.IssueGit, "creating parent directory: "+err.Error(), "")
	}

	slog.Debug("Cloning repository", "repo", repo.FullName(), "dest", dest)

	if err := e.clone(ctx, cloneURL, dest); err != nil {
		if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
			return newIssue(repo, models.IssueConflict,
				"repository already exists: "+dest, dest)
		}
		return newIssue(repo, classifyCloneError(err), Redact(err.Error(), e.cfg.Token), "")
	}
	return nil
}

// destination computes <base>/<platform>/<owner>/<name>.
func (e *Engine) destination(repo models.Repo) string {
	return filepath.Join(e.cfg.BaseDirectory, string(repo.Platform), repo.Owner, repo.Name)
}

func (e *Engine) claim(dest string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, taken := e.inflight[dest]; taken {
		return false
	}
	e.inflight[dest] = struct{}{}
	return true
}

func (e *Engine) unclaim(dest string) {
	e.mu.Lock()
	delete(e.inflight, dest)
	e.mu.Unlock()
}

// isGitWorkingCopy reports whether path contains git metadata. A .git entry
// may be a directory or, for worktrees, a file; existence is what matters.
func isGitWorkingCopy(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// validateRepo rejects descriptors whose fields could escape the base
// directory when joined into a filesystem path.
func validateRepo(r models.Repo) error {
	if !r.Platform.Valid() {
		return fmt.Errorf("downloader: unsupported platform %q for %s/%s", r.Platform, r.Owner, r.Name)
	}
	if r.CloneURL == "" {
		return fmt.Errorf("downloader: missing clone URL for %s", r.FullName())
	}
	if err := validatePathSegment(r.Owner); err != nil {
		return fmt.Errorf("downloader: invalid owner %q: %w", r.Owner, err)
	}
	if err := validatePathSegment(r.Name); err != nil {
		return fmt.Errorf("downloader: invalid repository name %q: %w", r.Name, err)
	}
	return nil
}

func validatePathSegment(s string) error {
	switch {
	case s == "":
		return errors.New("must not be empty")
	case s == "." || s == "..":
		return errors.New("must not be a relative path segment")
	case strings.ContainsAny(s, `/\`):
		return errors.New("must not contain path separators")
	}
	return nil
}

func newIssue(repo models.Repo, kind models.IssueKind, msg, existing string) *models.Issue {
	return &models.Issue{
		Repo:         repo,
		Kind:         kind,
		Message:      msg,
		ExistingPath: existing,
		Timestamp:    time.Now(),
	}
}
