package platform

import (
	"testing"

	gogithub "github.com/google/go-github/v68/github"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"repodump/models"
)

func TestNewRejectsUnknownPlatform(t *testing.T) {
	if _, err := New(models.Platform("sourcehut"), "", ""); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestNewReturnsMatchingClient(t *testing.T) {
	gh, err := New(models.PlatformGitHub, "", "")
	if err != nil {
		t.Fatalf("github client: %v", err)
	}
	if gh.Name() != "github" {
		t.Fatalf("expected github, got %s", gh.Name())
	}

	gl, err := New(models.PlatformGitLab, "", "")
	if err != nil {
		t.Fatalf("gitlab client: %v", err)
	}
	if gl.Name() != "gitlab" {
		t.Fatalf("expected gitlab, got %s", gl.Name())
	}
}

func TestConvertGitHubReposAppliesFilters(t *testing.T) {
	ghRepos := []*gogithub.Repository{
		{
			Owner:         &gogithub.User{Login: gogithub.Ptr("acme")},
			Name:          gogithub.Ptr("api"),
			CloneURL:      gogithub.Ptr("https://github.com/acme/api.git"),
			DefaultBranch: gogithub.Ptr("main"),
			Size:          gogithub.Ptr(42),
		},
		{
			Owner:    &gogithub.User{Login: gogithub.Ptr("acme")},
			Name:     gogithub.Ptr("forked"),
			CloneURL: gogithub.Ptr("https://github.com/acme/forked.git"),
			Fork:     gogithub.Ptr(true),
		},
		{
			Owner:    &gogithub.User{Login: gogithub.Ptr("acme")},
			Name:     gogithub.Ptr("old"),
			CloneURL: gogithub.Ptr("https://github.com/acme/old.git"),
			Archived: gogithub.Ptr(true),
		},
		nil,
	}

	all := convertGitHubRepos(ghRepos, Filters{})
	if len(all) != 3 {
		t.Fatalf("expected 3 repos without filters, got %d", len(all))
	}
	if all[0].SizeKB != 42 || all[0].DefaultBranch != "main" {
		t.Fatalf("unexpected conversion: %+v", all[0])
	}

	filtered := convertGitHubRepos(ghRepos, Filters{ExcludeForks: true, ExcludeArchived: true})
	if len(filtered) != 1 || filtered[0].Name != "api" {
		t.Fatalf("expected only api after filtering, got %+v", filtered)
	}
}

func TestConvertGitLabProjects(t *testing.T) {
	g := &GitLabClient{}
	projects := []*gitlab.Project{
		{
			PathWithNamespace: "acme/widgets",
			Path:              "widgets",
			HTTPURLToRepo:     "https://gitlab.com/acme/widgets.git",
			DefaultBranch:     "trunk",
			Visibility:        gitlab.PublicVisibility,
		},
	}

	repos := g.convertProjects(projects, Filters{})
	if len(repos) != 1 {
		t.Fatalf("expected 1 repo, got %d", len(repos))
	}
	r := repos[0]
	if r.Owner != "acme" || r.Name != "widgets" {
		t.Fatalf("unexpected owner/name: %s/%s", r.Owner, r.Name)
	}
	if r.Private {
		t.Fatal("public project marked private")
	}
	if r.DefaultBranch != "trunk" {
		t.Fatalf("unexpected branch %s", r.DefaultBranch)
	}
}

func TestConvertGitLabNestedNamespace(t *testing.T) {
	g := &GitLabClient{}
	projects := []*gitlab.Project{
		{
			PathWithNamespace: "corp/platform/infra",
			Path:              "infra",
			HTTPURLToRepo:     "https://gitlab.com/corp/platform/infra.git",
			Visibility:        gitlab.PrivateVisibility,
		},
	}

	repos := g.convertProjects(projects, Filters{})
	if len(repos) != 1 {
		t.Fatalf("expected 1 repo, got %d", len(repos))
	}
	if repos[0].Owner != "platform" || repos[0].Name != "infra" {
		t.Fatalf("unexpected owner/name: %s/%s", repos[0].Owner, repos[0].Name)
	}
	if !repos[0].Private {
		t.Fatal("private project not marked private")
	}
	if repos[0].DefaultBranch != "main" {
		t.Fatalf("expected default branch fallback, got %q", repos[0].DefaultBranch)
	}
}
