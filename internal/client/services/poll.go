package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v48/github"
	"github.com/sethvargo/go-retry"

	"github.com/dipcp/dipcp/internal/logging"
)

// WorkflowOutcome is the result of waiting for a submission's workflow run.
type WorkflowOutcome string

const (
	// WorkflowCompleted means the run finished with a success conclusion.
	WorkflowCompleted WorkflowOutcome = "completed"
	// WorkflowFailed means the run finished with any other conclusion.
	WorkflowFailed WorkflowOutcome = "failed"
	// WorkflowTimedOut means no run finished within the polling budget.
	WorkflowTimedOut WorkflowOutcome = "timed_out"
)

// WorkflowLister fetches recent workflow runs. Satisfied by *github.Gateway.
type WorkflowLister interface {
	WorkflowRuns(ctx context.Context, owner, repo string) ([]*gh.WorkflowRun, error)
}

// WorkflowPoller waits for a workflow run triggered by a submission to
// finish, polling at a fixed interval with a bounded number of attempts.
type WorkflowPoller struct {
	remote   WorkflowLister
	log      logging.Logger
	attempts uint64
	interval time.Duration
}

func NewWorkflowPoller(remote WorkflowLister, log logging.Logger, attempts int, interval time.Duration) *WorkflowPoller {
	if attempts <= 0 {
		attempts = 10
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &WorkflowPoller{remote: remote, log: log, attempts: uint64(attempts), interval: interval}
}

var errRunPending = errors.New("workflow run still pending")

// AwaitWorkflow polls until a run created at or after since completes, the
// attempt budget is exhausted (WorkflowTimedOut), or the API errors out.
func (p *WorkflowPoller) AwaitWorkflow(ctx context.Context, owner, repo string, since time.Time) (WorkflowOutcome, error) {
	var outcome WorkflowOutcome

	b := retry.WithMaxRetries(p.attempts, retry.NewConstant(p.interval))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		runs, err := p.remote.WorkflowRuns(ctx, owner, repo)
		if err != nil {
			return fmt.Errorf("listing workflow runs: %w", err)
		}
		run := latestRunSince(runs, since)
		if run == nil || run.GetStatus() != "completed" {
			p.log.Debug(ctx, "workflow run not finished yet", "repo", owner+"/"+repo)
			return retry.RetryableError(errRunPending)
		}
		if run.GetConclusion() == "success" {
			outcome = WorkflowCompleted
		} else {
			outcome = WorkflowFailed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRunPending) {
			return WorkflowTimedOut, nil
		}
		return "", err
	}
	return outcome, nil
}

// latestRunSince returns the newest run created at or after since.
func latestRunSince(runs []*gh.WorkflowRun, since time.Time) *gh.WorkflowRun {
	var latest *gh.WorkflowRun
	for _, r := range runs {
		created := r.GetCreatedAt().Time
		if created.Before(since) {
			continue
		}
		if latest == nil || created.After(latest.GetCreatedAt().Time) {
			latest = r
		}
	}
	return latest
}
