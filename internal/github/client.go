package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// Client wraps the GitHub REST API for a single access token
type Client struct {
	gh *github.Client
}

// ClientOptions configures NewClient
type ClientOptions struct {
	Token string
	// APIURL overrides the API base URL (GitHub Enterprise, tests)
	APIURL string
	// AllowList restricts outbound requests. Nil allows any host.
	AllowList *AllowList
}

// RepositoryStats are the counts shown for a remote repository
type RepositoryStats struct {
	Commits      int
	Branches     int
	Contributors int
}

// Repository summarizes a repository visible to the authenticated user
type Repository struct {
	FullName      string `json:"fullName"`
	CloneURL      string `json:"cloneUrl"`
	DefaultBranch string `json:"defaultBranch"`
	Private       bool   `json:"private"`
}

// NewClient creates a client authenticated with opts.Token
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, sgerrors.NewAuthRequiredError("a GitHub token is required")
	}

	if opts.AllowList != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.AllowList.Client())
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	if opts.APIURL != "" {
		base := opts.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil || u.Host == "" {
			return nil, sgerrors.NewValidationError("invalid GitHub API URL %q", opts.APIURL)
		}
		client.BaseURL = u
	}

	return &Client{gh: client}, nil
}

// ValidateToken returns the login of the token's owner
func (c *Client) ValidateToken(ctx context.Context) (string, error) {
	user, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", classify(err, "validate token")
	}
	return user.GetLogin(), nil
}

// ListRepositories returns every repository the authenticated user can see
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "full_name",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repos []Repository
	for {
		page, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, classify(err, "list repositories")
		}
		for _, r := range page {
			repos = append(repos, Repository{
				FullName:      r.GetFullName(),
				CloneURL:      r.GetCloneURL(),
				DefaultBranch: r.GetDefaultBranch(),
				Private:       r.GetPrivate(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

// RepositoryStats counts commits on the default branch, branches and contributors.
// Each count requests a single item per page and reads the last page number.
func (c *Client) RepositoryStats(ctx context.Context, id Identifier) (RepositoryStats, error) {
	var stats RepositoryStats
	one := github.ListOptions{PerPage: 1}

	commits, resp, err := c.gh.Repositories.ListCommits(ctx, id.Owner, id.Name, &github.CommitsListOptions{ListOptions: one})
	switch {
	case isEmptyRepository(err):
	case err != nil:
		return RepositoryStats{}, classify(err, "count commits")
	default:
		stats.Commits = pageCount(resp, len(commits))
	}

	branches, resp, err := c.gh.Repositories.ListBranches(ctx, id.Owner, id.Name, &github.BranchListOptions{ListOptions: one})
	if err != nil {
		return RepositoryStats{}, classify(err, "count branches")
	}
	stats.Branches = pageCount(resp, len(branches))

	contributors, resp, err := c.gh.Repositories.ListContributors(ctx, id.Owner, id.Name, &github.ListContributorsOptions{ListOptions: one})
	if err != nil {
		return RepositoryStats{}, classify(err, "count contributors")
	}
	stats.Contributors = pageCount(resp, len(contributors))

	return stats, nil
}

func pageCount(resp *github.Response, n int) int {
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage
	}
	return n
}

// isEmptyRepository matches the 409 GitHub returns when listing commits of an empty repository
func isEmptyRepository(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusConflict
}

func classify(err error, action string) error {
	var hostErr *HostNotAllowedError
	if errors.As(err, &hostErr) {
		return sgerrors.Wrap(sgerrors.KindValidation, err, "%s: %s", action, hostErr.Error())
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return sgerrors.Wrap(sgerrors.KindAuthRequired, err, "%s: token rejected by GitHub", action)
		case http.StatusForbidden:
			return sgerrors.Wrap(sgerrors.KindAuthRequired, err, "%s: access denied", action)
		case http.StatusNotFound:
			return sgerrors.Wrap(sgerrors.KindNotFound, err, "%s: repository not found", action)
		}
		return sgerrors.Wrap(sgerrors.KindNetwork, err, "%s: GitHub returned %s", action, ghErr.Response.Status)
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return sgerrors.Wrap(sgerrors.KindNetwork, err, "%s: rate limited until %s", action, rateErr.Rate.Reset.Time)
	}

	return sgerrors.NewNetworkError(err, "%s failed", action)
}
