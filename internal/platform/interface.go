package platform

import (
	"context"
	"fmt"

	"repodump/models"
)

// Client abstracts a git hosting platform's REST API. Implementations
// paginate the upstream API to completion and hand back a flat list of
// repository descriptors for the download engine.
type Client interface {
	// Name identifies the platform ("github", "gitlab").
	Name() string

	// ListRepos returns every repository owned by the given user, org or
	// group, with the filters applied.
	ListRepos(ctx context.Context, username string, f Filters) ([]models.Repo, error)

	// RateLimit returns the platform's current API rate-limit status.
	RateLimit(ctx context.Context) (*models.RateLimit, error)
}

// Filters controls which repositories ListRepos returns.
type Filters struct {
	ExcludeForks    bool
	ExcludeArchived bool
}

// New returns the API client for the given platform. host overrides the
// default public endpoint for self-hosted instances.
func New(p models.Platform, token, host string) (Client, error) {
	switch p {
	case models.PlatformGitHub:
		return NewGitHub(token, host)
	case models.PlatformGitLab:
		return NewGitLab(token, host)
	default:
		return nil, fmt.Errorf("unsupported platform %q (supported: github, gitlab)", p)
	}
}

// keep applies listing filters to a converted repository.
func keep(r models.Repo, f Filters) bool {
	if f.ExcludeForks && r.Fork {
		return false
	}
	if f.ExcludeArchived && r.Archived {
		return false
	}
	return true
}
