package downloader

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"repodump/models"
)

func TestClassifyCloneError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want models.IssueKind
	}{
		{"typed auth required", fmt.Errorf("clone: %w", transport.ErrAuthenticationRequired), models.IssueAuth},
		{"typed authorization failed", transport.ErrAuthorizationFailed, models.IssueAuth},
		{"auth text", errors.New("remote: HTTP Basic: Access denied. Authentication failed"), models.IssueAuth},
		{"permission denied", errors.New("Permission denied (publickey)"), models.IssueAuth},
		{"prompt for credentials", errors.New("could not read Username for 'https://github.com'"), models.IssueAuth},
		{"rate limit", errors.New("API rate limit exceeded for 1.2.3.4"), models.IssueRateLimit},
		{"too many requests", errors.New("HTTP 429 Too Many Requests"), models.IssueRateLimit},
		{"dns failure", errors.New("dial tcp: lookup github.com: no such host"), models.IssueNetwork},
		{"refused", errors.New("connect: connection refused"), models.IssueNetwork},
		{"timeout", errors.New("read tcp: i/o timeout: operation timed out"), models.IssueNetwork},
		{"generic git failure", errors.New("fatal: repository 'x' not found"), models.IssueGit},
		{"empty remote", errors.New("remote repository is empty"), models.IssueGit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyCloneError(tc.err); got != tc.want {
				t.Fatalf("classifyCloneError(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}
