package github

import (
	"context"

	"github.com/google/go-github/v48/github"
)

// PullRequest fetches a single pull request by number.
func (g *Gateway) PullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	var out *github.PullRequest
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		pr, _, err := c.PullRequests.Get(ctx, owner, repo, number)
		out = pr
		return err
	})
	return out, err
}

// ListPullRequests lists pull requests; state may be "open", "closed" or
// "all" (default "open").
func (g *Gateway) ListPullRequests(ctx context.Context, owner, repo, state string) ([]*github.PullRequest, error) {
	if state == "" {
		state = "open"
	}

	var out []*github.PullRequest
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		prs, _, err := c.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{State: state})
		out = prs
		return err
	})
	return out, err
}

// ListPullRequestFiles lists the files touched by a pull request.
func (g *Gateway) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*github.CommitFile, error) {
	var out []*github.CommitFile
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		files, _, err := c.PullRequests.ListFiles(ctx, owner, repo, number, nil)
		out = files
		return err
	})
	return out, err
}
