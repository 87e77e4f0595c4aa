package models

import "time"

// Platform identifies a git hosting platform.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitLab Platform = "gitlab"
)

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	return p == PlatformGitHub || p == PlatformGitLab
}

// Repo describes one remote repository to download. Instances are produced
// by the platform API clients and are read-only from then on.
type Repo struct {
	Platform      Platform `json:"platform"`
	Owner         string   `json:"owner"`
	Name          string   `json:"name"`
	CloneURL      string   `json:"clone_url"`
	Fork          bool     `json:"fork"`
	Private       bool     `json:"private"`
	Archived      bool     `json:"archived"`
	SizeKB        int64    `json:"size_kb"`
	DefaultBranch string   `json:"default_branch"`
}

// FullName returns the platform-qualified identifier, e.g. "github/acme/api".
func (r Repo) FullName() string {
	return string(r.Platform) + "/" + r.Owner + "/" + r.Name
}

// RateLimit is the platform API rate-limit status.
type RateLimit struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Reset     time.Time `json:"reset"`
}
