package config

import "repodump/models"

// Config is the root configuration structure for repodump.
// Serialised to ~/.repodump/config.yaml.
type Config struct {
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	Download    DownloadConfig    `mapstructure:"download"    yaml:"download"`
	History     HistoryConfig     `mapstructure:"history"     yaml:"history"`
	Targets     []Target          `mapstructure:"targets"     yaml:"targets,omitempty"`
}

// CredentialsConfig holds one token per supported platform. Values may use
// ${VAR} syntax to reference environment variables; expansion happens at
// load time so the file on disk never has to contain a literal secret.
type CredentialsConfig struct {
	GitHubToken string `mapstructure:"github_token" yaml:"github_token,omitempty"`
	GitLabToken string `mapstructure:"gitlab_token" yaml:"gitlab_token,omitempty"`
}

// TokenFor returns the configured token for a platform, or "".
func (c CredentialsConfig) TokenFor(p models.Platform) string {
	switch p {
	case models.PlatformGitHub:
		return c.GitHubToken
	case models.PlatformGitLab:
		return c.GitLabToken
	}
	return ""
}

// DownloadConfig controls the download engine.
type DownloadConfig struct {
	// BaseDirectory is the root of the <base>/<platform>/<owner>/<name> tree.
	BaseDirectory string `mapstructure:"base_directory" yaml:"base_directory"`
	// MaxParallel bounds simultaneous clones (1-20).
	MaxParallel int `mapstructure:"max_parallel" yaml:"max_parallel"`
	// IncludeForks includes forked repositories in listings.
	IncludeForks bool `mapstructure:"include_forks" yaml:"include_forks"`
	// IncludePrivate includes private repositories (requires a token).
	IncludePrivate bool `mapstructure:"include_private" yaml:"include_private"`
}

// HistoryConfig controls the run-history store.
type HistoryConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" yaml:"driver"`
	// Path is the SQLite file path.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn" yaml:"dsn,omitempty"`
}

// Target is one platform/username pair to download.
type Target struct {
	Platform string        `mapstructure:"platform" yaml:"platform"`
	Username string        `mapstructure:"username" yaml:"username"`
	// Host overrides the public endpoint for self-hosted instances.
	Host    string        `mapstructure:"host"    yaml:"host,omitempty"`
	Filters TargetFilters `mapstructure:"filters" yaml:"filters,omitempty"`
}

// TargetFilters excludes categories of repositories from one target.
// A nil field means no filter; false means exclude that category.
type TargetFilters struct {
	Forks    *bool `mapstructure:"forks"    yaml:"forks,omitempty"`
	Archived *bool `mapstructure:"archived" yaml:"archived,omitempty"`
}

// ExcludeForks reports whether forked repositories should be dropped.
func (f TargetFilters) ExcludeForks() bool {
	return f.Forks != nil && !*f.Forks
}

// ExcludeArchived reports whether archived repositories should be dropped.
func (f TargetFilters) ExcludeArchived() bool {
	return f.Archived != nil && !*f.Archived
}
