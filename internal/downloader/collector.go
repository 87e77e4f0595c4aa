package downloader

import (
	"sync"

	"repodump/models"
)

// Results aggregates every outcome of one DownloadAll call. Both slices are
// in completion order, which is non-deterministic under concurrency —
// consumers must not assume input order.
type Results struct {
	Successful []models.Result `json:"successful"`
	Issues     []models.Issue  `json:"issues"`
}

// Total returns the number of recorded outcomes.
func (r *Results) Total() int {
	return len(r.Successful) + len(r.Issues)
}

// IssueCounts returns the number of issues per kind.
func (r *Results) IssueCounts() map[models.IssueKind]int {
	counts := make(map[models.IssueKind]int)
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// collector accumulates outcomes from concurrently running workers. Exactly
// one outcome is recorded per submitted repository; outcomes are never
// dropped or double-counted.
type collector struct {
	mu         sync.Mutex
	successful []models.Result
	issues     []models.Issue
}

func newCollector(capacity int) *collector {
	return &collector{
		successful: make([]models.Result, 0, capacity),
		issues:     make([]models.Issue, 0, capacity),
	}
}

func (c *collector) recordSuccess(res models.Result) {
	c.mu.Lock()
	c.successful = append(c.successful, res)
	c.mu.Unlock()
}

func (c *collector) recordIssue(issue models.Issue) {
	c.mu.Lock()
	c.issues = append(c.issues, issue)
	c.mu.Unlock()
}

// snapshot returns the accumulated results. Call only after all workers
// have finished recording.
func (c *collector) snapshot() *Results {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Results{
		Successful: append([]models.Result(nil), c.successful...),
		Issues:     append([]models.Issue(nil), c.issues...),
	}
}
