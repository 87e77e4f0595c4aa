package models

import "time"

// IssueKind classifies why a repository could not be downloaded.
type IssueKind string

const (
	// IssueConflict means the destination exists and is a git working copy.
	IssueConflict IssueKind = "conflict"
	// IssueFileConflict means the destination exists but is not a git working copy.
	IssueFileConflict IssueKind = "file_conflict"
	// IssueNetwork covers connection, DNS and timeout failures.
	IssueNetwork IssueKind = "network"
	// IssueAuth covers authentication and permission rejections.
	IssueAuth IssueKind = "auth"
	// IssueRateLimit means the platform reported its rate limit was exceeded.
	IssueRateLimit IssueKind = "rate_limit"
	// IssueGit is the catch-all for any other clone failure.
	IssueGit IssueKind = "git"
)

// Issue records one classified download failure. Issues are append-only;
// they are never mutated after creation.
type Issue struct {
	Repo         Repo      `json:"repo"`
	Kind         IssueKind `json:"kind"`
	Message      string    `json:"message"`
	ExistingPath string    `json:"existing_path,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Result records one successful download.
type Result struct {
	Repo Repo `json:"repo"`
}
