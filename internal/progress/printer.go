// Package progress renders download progress for headless runs: one line
// per finished repository on the console plus a plain-text run log under
// ~/.repodump/logs.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"repodump/internal/downloader"
	"repodump/models"
)

// Printer writes per-repository progress lines and a final summary. It is
// safe to use as the engine's progress callback from multiple workers.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	logFile io.Writer
	total   int
	done    int
}

// NewPrinter returns a Printer for a batch of total repositories. logFile
// may be nil when no run log is wanted.
func NewPrinter(out io.Writer, logFile io.Writer, total int) *Printer {
	return &Printer{out: out, logFile: logFile, total: total}
}

// Header announces the batch before any cloning starts.
func (p *Printer) Header(platform models.Platform, username string, parallel int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf("Downloading %d repositories from %s/%s (parallelism %d)",
		p.total, platform, username, parallel)
	fmt.Fprintln(p.out, headerStyle.Render(line))
	p.log(line)
}

// Callback returns the ProgressFunc to hand to the engine.
func (p *Printer) Callback() downloader.ProgressFunc {
	return func(repo models.Repo, state downloader.State, issue *models.Issue) {
		switch state {
		case downloader.StateStarted:
			p.started(repo)
		case downloader.StateSuccess:
			p.finished(repo, nil)
		case downloader.StateIssue:
			p.finished(repo, issue)
		}
	}
}

func (p *Printer) started(repo models.Repo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log(fmt.Sprintf("started %s", repo.FullName()))
}

func (p *Printer) finished(repo models.Repo, issue *models.Issue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	counter := fmt.Sprintf("[%d/%d]", p.done, p.total)

	if issue == nil {
		fmt.Fprintf(p.out, "%s %s %s\n",
			dimStyle.Render(counter), okStyle.Render("✓"), repo.FullName())
		p.log(fmt.Sprintf("%s ok %s", counter, repo.FullName()))
		return
	}
	fmt.Fprintf(p.out, "%s %s %s %s %s\n",
		dimStyle.Render(counter), failStyle.Render("✗"), repo.FullName(),
		failStyle.Render("("+string(issue.Kind)+")"), issue.Message)
	p.log(fmt.Sprintf("%s %s %s: %s", counter, issue.Kind, repo.FullName(), issue.Message))
}

// Summary prints the batch outcome with a per-kind issue breakdown.
func (p *Printer) Summary(results *downloader.Results, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("Done: %d succeeded, %d failed in %s",
		len(results.Successful), len(results.Issues), elapsed.Round(time.Second))
	if len(results.Issues) == 0 {
		fmt.Fprintln(p.out, okStyle.Render(line))
	} else {
		fmt.Fprintln(p.out, failStyle.Render(line))
	}
	p.log(line)

	for kind, count := range results.IssueCounts() {
		detail := fmt.Sprintf("  %s: %d", kind, count)
		fmt.Fprintln(p.out, dimStyle.Render(detail))
		p.log(detail)
	}
}

func (p *Printer) log(line string) {
	if p.logFile == nil {
		return
	}
	fmt.Fprintf(p.logFile, "%s %s\n", time.Now().Format(time.RFC3339), line)
}

// OpenLogFile creates a timestamped run log inside dir and returns it. The
// caller owns the file.
func OpenLogFile(dir string) (*os.File, error) {
	name := fmt.Sprintf("repodump-%s.log", time.Now().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	return f, nil
}
