package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"repodump/internal/downloader"
	"repodump/models"
)

func testRepo(name string) models.Repo {
	return models.Repo{Platform: models.PlatformGitHub, Owner: "acme", Name: name}
}

func TestPrinterCountsTerminalStatesOnly(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil, 2)
	cb := p.Callback()

	cb(testRepo("api"), downloader.StateStarted, nil)
	cb(testRepo("api"), downloader.StateSuccess, nil)
	cb(testRepo("web"), downloader.StateStarted, nil)
	cb(testRepo("web"), downloader.StateIssue, &models.Issue{
		Repo:    testRepo("web"),
		Kind:    models.IssueNetwork,
		Message: "dial tcp: connection refused",
	})

	text := out.String()
	if !strings.Contains(text, "[1/2]") || !strings.Contains(text, "[2/2]") {
		t.Fatalf("expected two counter lines, got:\n%s", text)
	}
	if !strings.Contains(text, "github/acme/api") {
		t.Fatalf("missing success line:\n%s", text)
	}
	if !strings.Contains(text, "(network)") || !strings.Contains(text, "connection refused") {
		t.Fatalf("missing issue detail:\n%s", text)
	}
	if strings.Contains(text, "[3/2]") {
		t.Fatalf("started events must not advance the counter:\n%s", text)
	}
}

func TestPrinterWritesRunLog(t *testing.T) {
	var out, log bytes.Buffer
	p := NewPrinter(&out, &log, 1)

	p.Header(models.PlatformGitLab, "widgets", 5)
	cb := p.Callback()
	cb(testRepo("api"), downloader.StateStarted, nil)
	cb(testRepo("api"), downloader.StateSuccess, nil)
	p.Summary(&downloader.Results{
		Successful: []models.Result{{Repo: testRepo("api")}},
	}, 3*time.Second)

	text := log.String()
	for _, want := range []string{
		"Downloading 1 repositories from gitlab/widgets",
		"started github/acme/api",
		"[1/1] ok github/acme/api",
		"Done: 1 succeeded, 0 failed",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("run log missing %q:\n%s", want, text)
		}
	}
}

func TestSummaryBreaksDownIssueKinds(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil, 3)

	results := &downloader.Results{
		Successful: []models.Result{{Repo: testRepo("ok")}},
		Issues: []models.Issue{
			{Repo: testRepo("a"), Kind: models.IssueNetwork},
			{Repo: testRepo("b"), Kind: models.IssueNetwork},
		},
	}
	p.Summary(results, 1500*time.Millisecond)

	text := out.String()
	if !strings.Contains(text, "1 succeeded, 2 failed") {
		t.Fatalf("missing totals:\n%s", text)
	}
	if !strings.Contains(text, "network: 2") {
		t.Fatalf("missing issue breakdown:\n%s", text)
	}
}
