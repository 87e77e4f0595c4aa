package downloader

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"repodump/models"
)

// credSchemes maps each platform to its credential-embedding convention.
// GitHub accepts the token alone in the userinfo component; GitLab expects
// the oauth2:<token> form.
var credSchemes = map[models.Platform]func(token string) *url.Userinfo{
	models.PlatformGitHub: func(token string) *url.Userinfo {
		return url.User(token)
	},
	models.PlatformGitLab: func(token string) *url.Userinfo {
		return url.UserPassword("oauth2", token)
	},
}

// AuthenticatedCloneURL embeds token into the userinfo component of the
// repository's HTTPS clone URL, using the convention of the repository's
// platform. An empty token or a non-HTTP clone URL is returned unchanged.
func AuthenticatedCloneURL(repo models.Repo, token string) (string, error) {
	if token == "" {
		return repo.CloneURL, nil
	}
	if !strings.HasPrefix(repo.CloneURL, "https://") && !strings.HasPrefix(repo.CloneURL, "http://") {
		// SSH and other transports carry their own credentials.
		return repo.CloneURL, nil
	}

	u, err := url.Parse(repo.CloneURL)
	if err != nil {
		return "", fmt.Errorf("parsing clone URL for %s: %w", repo.FullName(), err)
	}

	scheme, ok := credSchemes[repo.Platform]
	if !ok {
		return "", fmt.Errorf("no credential scheme for platform %q", repo.Platform)
	}
	u.User = scheme(token)
	return u.String(), nil
}

var userinfoPattern = regexp.MustCompile(`://[^@/\s]+@`)

// Redact scrubs credentials from a message before it is stored in an Issue:
// any literal occurrence of token and any URL userinfo section are replaced.
func Redact(msg, token string) string {
	if token != "" {
		msg = strings.ReplaceAll(msg, token, "*****")
	}
	return userinfoPattern.ReplaceAllString(msg, "://*****@")
}
