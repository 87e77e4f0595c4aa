package downloader

import (
	"context"
	"errors"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"repodump/models"
)

// CloneFunc performs a full clone of cloneURL into dest. The default
// implementation delegates to go-git; tests substitute their own.
type CloneFunc func(ctx context.Context, cloneURL, dest string) error

// gitClone clones with complete history, all branches and all tags,
// checking out the remote's default branch.
func gitClone(ctx context.Context, cloneURL, dest string) error {
	_, err := gogit.PlainCloneContext(ctx, dest, false, &gogit.CloneOptions{
		URL:  cloneURL,
		Tags: gogit.AllTags,
	})
	return err
}

// classifyCloneError maps a clone failure onto an IssueKind. Typed go-git
// transport errors are checked first, then message heuristics; anything
// unrecognised falls through to IssueGit.
func classifyCloneError(err error) models.IssueKind {
	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) {
		return models.IssueAuth
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "rate limit", "too many requests", "429"):
		return models.IssueRateLimit
	case containsAny(msg, "authentication", "authorization", "permission denied",
		"unauthorized", "invalid credentials", "could not read username",
		"401", "403"):
		return models.IssueAuth
	case containsAny(msg, "connection refused", "connection reset", "timed out",
		"timeout", "no such host", "network is unreachable", "dial tcp",
		"temporary failure", "tls handshake", "broken pipe"):
		return models.IssueNetwork
	default:
		return models.IssueGit
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
