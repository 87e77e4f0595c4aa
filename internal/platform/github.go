package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"repodump/models"
)

// GitHubClient implements Client for GitHub and GitHub Enterprise.
type GitHubClient struct {
	client *gogithub.Client
	token  string
}

// NewGitHub creates a GitHubClient. An empty token yields an unauthenticated
// client limited to public repositories.
func NewGitHub(token, host string) (*GitHubClient, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := gogithub.NewClient(httpClient)

	// Support GitHub Enterprise by overriding the base URL.
	if host != "" && host != "github.com" {
		base := fmt.Sprintf("https://%s/api/v3/", host)
		upload := fmt.Sprintf("https://%s/api/uploads/", host)
		var err error
		client, err = client.WithEnterpriseURLs(base, upload)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub enterprise URLs: %w", err)
		}
	}

	return &GitHubClient{client: client, token: token}, nil
}

func (g *GitHubClient) Name() string { return "github" }

// ListRepos pages through every repository owned by username. When the token
// belongs to that user the authenticated listing is used so private
// repositories are included; otherwise the public user listing is tried
// first, falling back to the org listing on 404.
func (g *GitHubClient) ListRepos(ctx context.Context, username string, f Filters) ([]models.Repo, error) {
	if g.token != "" {
		user, _, err := g.client.Users.Get(ctx, "")
		if err == nil && strings.EqualFold(user.GetLogin(), username) {
			return g.listAuthenticated(ctx, f)
		}
	}

	repos, err := g.listUser(ctx, username, f)
	if err != nil {
		if isGitHubNotFound(err) {
			return g.listOrg(ctx, username, f)
		}
		return nil, err
	}
	return repos, nil
}

func (g *GitHubClient) listAuthenticated(ctx context.Context, f Filters) ([]models.Repo, error) {
	opts := &gogithub.RepositoryListOptions{
		Visibility:  "all",
		Affiliation: "owner",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	var out []models.Repo
	for {
		page, resp, err := g.client.Repositories.List(ctx, "", opts)
		if err != nil {
			return nil, fmt.Errorf("listing GitHub repos: %w", err)
		}
		out = append(out, convertGitHubRepos(page, f)...)
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (g *GitHubClient) listUser(ctx context.Context, username string, f Filters) ([]models.Repo, error) {
	opts := &gogithub.RepositoryListOptions{
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	var out []models.Repo
	for {
		page, resp, err := g.client.Repositories.List(ctx, username, opts)
		if err != nil {
			return nil, fmt.Errorf("listing GitHub repos for %s: %w", username, err)
		}
		out = append(out, convertGitHubRepos(page, f)...)
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (g *GitHubClient) listOrg(ctx context.Context, org string, f Filters) ([]models.Repo, error) {
	opts := &gogithub.RepositoryListByOrgOptions{
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	var out []models.Repo
	for {
		page, resp, err := g.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("listing GitHub org repos for %s: %w", org, err)
		}
		out = append(out, convertGitHubRepos(page, f)...)
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// RateLimit returns the core REST rate-limit bucket.
func (g *GitHubClient) RateLimit(ctx context.Context) (*models.RateLimit, error) {
	limits, _, err := g.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching GitHub rate limit: %w", err)
	}
	core := limits.GetCore()
	if core == nil {
		return nil, errors.New("github rate limit response missing core resource")
	}
	return &models.RateLimit{
		Remaining: core.Remaining,
		Limit:     core.Limit,
		Reset:     core.Reset.Time,
	}, nil
}

func convertGitHubRepos(ghRepos []*gogithub.Repository, f Filters) []models.Repo {
	repos := make([]models.Repo, 0, len(ghRepos))
	for _, r := range ghRepos {
		if r == nil {
			continue
		}
		repo := models.Repo{
			Platform:      models.PlatformGitHub,
			Owner:         r.GetOwner().GetLogin(),
			Name:          r.GetName(),
			CloneURL:      r.GetCloneURL(),
			Fork:          r.GetFork(),
			Private:       r.GetPrivate(),
			Archived:      r.GetArchived(),
			SizeKB:        int64(r.GetSize()),
			DefaultBranch: r.GetDefaultBranch(),
		}
		if keep(repo, f) {
			repos = append(repos, repo)
		}
	}
	return repos
}

func isGitHubNotFound(err error) bool {
	var ghErr *gogithub.ErrorResponse
	return errors.As(err, &ghErr) &&
		ghErr.Response != nil &&
		ghErr.Response.StatusCode == http.StatusNotFound
}
