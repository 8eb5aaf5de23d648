package github

import (
	"context"

	"github.com/google/go-github/v48/github"
)

// WorkflowRuns lists the repository's recent workflow runs, newest first.
func (g *Gateway) WorkflowRuns(ctx context.Context, owner, repo string) ([]*github.WorkflowRun, error) {
	var out []*github.WorkflowRun
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		runs, _, err := c.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, &github.ListWorkflowRunsOptions{
			ListOptions: github.ListOptions{PerPage: 50},
		})
		if err != nil {
			return err
		}
		if runs != nil {
			out = runs.WorkflowRuns
		}
		return nil
	})
	return out, err
}
