package platform

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"repodump/models"
)

// GitLabClient implements Client for GitLab (cloud and self-hosted).
type GitLabClient struct {
	client *gitlab.Client
	token  string
	host   string
}

// NewGitLab creates a GitLabClient for gitlab.com or a self-hosted instance.
func NewGitLab(token, host string) (*GitLabClient, error) {
	opts := []gitlab.ClientOptionFunc{}
	if host != "" && host != "gitlab.com" {
		base := fmt.Sprintf("https://%s/api/v4/", host)
		opts = append(opts, gitlab.WithBaseURL(base))
	}

	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}

	return &GitLabClient{client: client, token: token, host: host}, nil
}

func (g *GitLabClient) Name() string { return "gitlab" }

// ListRepos pages through every project in the user's namespace. Groups are
// not served by the user-projects endpoint, so an empty or 404 result falls
// back to the group-projects listing.
func (g *GitLabClient) ListRepos(ctx context.Context, username string, f Filters) ([]models.Repo, error) {
	repos, notFound, err := g.listUserProjects(ctx, username, f)
	if err != nil {
		return nil, err
	}
	if notFound || len(repos) == 0 {
		groupRepos, groupNotFound, err := g.listGroupProjects(ctx, username, f)
		if err != nil {
			return nil, err
		}
		if !groupNotFound {
			return groupRepos, nil
		}
		if notFound {
			return nil, fmt.Errorf("GitLab user or group %q not found", username)
		}
	}
	return repos, nil
}

func (g *GitLabClient) listUserProjects(ctx context.Context, username string, f Filters) ([]models.Repo, bool, error) {
	stats := true
	opts := &gitlab.ListProjectsOptions{
		Statistics:  &stats,
		ListOptions: gitlab.ListOptions{PerPage: 100, Page: 1},
	}

	var out []models.Repo
	for {
		projects, resp, err := g.client.Projects.ListUserProjects(username, opts, gitlab.WithContext(ctx))
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil, true, nil
			}
			return nil, false, fmt.Errorf("listing GitLab projects for %s: %w", username, err)
		}
		out = append(out, g.convertProjects(projects, f)...)
		if resp.NextPage == 0 {
			return out, false, nil
		}
		opts.Page = int64(resp.NextPage)
	}
}

func (g *GitLabClient) listGroupProjects(ctx context.Context, group string, f Filters) ([]models.Repo, bool, error) {
	opts := &gitlab.ListGroupProjectsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100, Page: 1},
	}

	var out []models.Repo
	for {
		projects, resp, err := g.client.Groups.ListGroupProjects(group, opts, gitlab.WithContext(ctx))
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil, true, nil
			}
			return nil, false, fmt.Errorf("listing GitLab group projects for %s: %w", group, err)
		}
		out = append(out, g.convertProjects(projects, f)...)
		if resp.NextPage == 0 {
			return out, false, nil
		}
		opts.Page = int64(resp.NextPage)
	}
}

// RateLimit reports the documented default: GitLab exposes no dedicated
// rate-limit endpoint.
func (g *GitLabClient) RateLimit(ctx context.Context) (*models.RateLimit, error) {
	return &models.RateLimit{Remaining: 600, Limit: 600}, nil
}

func (g *GitLabClient) convertProjects(projects []*gitlab.Project, f Filters) []models.Repo {
	repos := make([]models.Repo, 0, len(projects))
	for _, p := range projects {
		if p == nil {
			continue
		}
		owner, name := splitNamespace(p.PathWithNamespace, p.Path)

		var sizeKB int64
		if p.Statistics != nil {
			sizeKB = p.Statistics.RepositorySize / 1024
		}

		branch := p.DefaultBranch
		if branch == "" {
			branch = "main"
		}

		repo := models.Repo{
			Platform:      models.PlatformGitLab,
			Owner:         owner,
			Name:          name,
			CloneURL:      p.HTTPURLToRepo,
			Fork:          p.ForkedFromProject != nil,
			Private:       p.Visibility != gitlab.PublicVisibility,
			Archived:      p.Archived,
			SizeKB:        sizeKB,
			DefaultBranch: branch,
		}
		if keep(repo, f) {
			repos = append(repos, repo)
		}
	}
	return repos
}

// splitNamespace extracts the immediate namespace and project path from
// "group/subgroup/path". Only the immediate namespace is kept so both
// segments stay filesystem-safe.
func splitNamespace(pathWithNamespace, fallbackPath string) (owner, name string) {
	parts := strings.Split(pathWithNamespace, "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2], parts[len(parts)-1]
	}
	return "", fallbackPath
}
