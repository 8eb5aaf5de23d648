package github

import (
	"context"

	"github.com/google/go-github/v48/github"
)

// IssueOptions narrows an issue listing. Zero values fall back to open
// issues, newest first.
type IssueOptions struct {
	State     string
	Labels    []string
	Sort      string
	Direction string
}

func (o IssueOptions) withDefaults() IssueOptions {
	if o.State == "" {
		o.State = "open"
	}
	if o.Sort == "" {
		o.Sort = "created"
	}
	if o.Direction == "" {
		o.Direction = "desc"
	}
	return o
}

// ListIssues lists repository issues.
func (g *Gateway) ListIssues(ctx context.Context, owner, repo string, opts IssueOptions) ([]*github.Issue, error) {
	opts = opts.withDefaults()

	var out []*github.Issue
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		issues, _, err := c.Issues.ListByRepo(ctx, owner, repo, &github.IssueListByRepoOptions{
			State:     opts.State,
			Labels:    opts.Labels,
			Sort:      opts.Sort,
			Direction: opts.Direction,
		})
		out = issues
		return err
	})
	return out, err
}

// Issue fetches a single issue by number.
func (g *Gateway) Issue(ctx context.Context, owner, repo string, number int) (*github.Issue, error) {
	var out *github.Issue
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		issue, _, err := c.Issues.Get(ctx, owner, repo, number)
		out = issue
		return err
	})
	return out, err
}

// CreateIssue files a new issue and returns it.
func (g *Gateway) CreateIssue(ctx context.Context, owner, repo, title, body string, labels []string) (*github.Issue, error) {
	var out *github.Issue
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		req := &github.IssueRequest{Title: github.String(title), Body: github.String(body)}
		if len(labels) > 0 {
			req.Labels = &labels
		}
		issue, _, err := c.Issues.Create(ctx, owner, repo, req)
		out = issue
		return err
	})
	return out, err
}

// ListIssueComments lists the comments of an issue.
func (g *Gateway) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	var out []*github.IssueComment
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		comments, _, err := c.Issues.ListComments(ctx, owner, repo, number, nil)
		out = comments
		return err
	})
	return out, err
}

// CreateIssueComment appends a comment to an issue.
func (g *Gateway) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueComment, error) {
	var out *github.IssueComment
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		comment, _, err := c.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
			Body: github.String(body),
		})
		out = comment
		return err
	})
	return out, err
}

// AddIssueLabels attaches labels to an issue.
func (g *Gateway) AddIssueLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	return g.call(ctx, func(ctx context.Context, c *github.Client) error {
		_, _, err := c.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
		return err
	})
}

// SearchIssues searches issues and pull requests with a GitHub search query.
func (g *Gateway) SearchIssues(ctx context.Context, query string) (*github.IssuesSearchResult, error) {
	var out *github.IssuesSearchResult
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		result, _, err := c.Search.Issues(ctx, query, nil)
		out = result
		return err
	})
	return out, err
}
