package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dipcp/dipcp/internal/client/github"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/common"
)

// Login reads a token without echo, verifies it and saves the session.
func (a *App) Login(ctx context.Context) error {
	token, err := GetToken(os.Stdout)
	if err != nil {
		printlnFn("could not read token:", err.Error())
		return err
	}
	user, err := a.session.Login(ctx, token)
	if err != nil {
		printlnFn("login failed:", err.Error())
		return err
	}
	a.user = user
	printlnFn(fmt.Sprintf("Logged in as %s", user.Login))
	return nil
}

// Logout forgets the saved credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		printlnFn("logout failed:", err.Error())
		return err
	}
	a.user = nil
	printlnFn("Logged out")
	return nil
}

// SelectRepo validates owner/repo against the API and makes it current.
// With an empty arg it prompts for the repository interactively.
func (a *App) SelectRepo(ctx context.Context, arg string) error {
	if arg == "" {
		line, err := GetSimpleText(a.reader, "Repository (owner/name)", os.Stdout)
		if err != nil {
			return err
		}
		arg = line
	}
	owner, repo, err := splitRepoArg(arg)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	if _, err := a.gateway.Repository(ctx, owner, repo); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printlnFn(fmt.Sprintf("repository %s/%s not found", owner, repo))
		} else {
			printlnFn("could not reach repository:", err.Error())
		}
		return err
	}
	a.owner, a.repo = owner, repo
	printlnFn(fmt.Sprintf("Working repository is now %s/%s", owner, repo))
	return nil
}

// Sync runs one differential sync pass for the selected repository.
func (a *App) Sync(ctx context.Context) error {
	if !a.hasRepo() {
		printlnFn("Select a repository first: repo <owner>/<name>")
		return common.ErrNotInitialized
	}
	info, err := a.syncer.SyncRepository(ctx, a.owner, a.repo)
	if err != nil {
		if github.IsRateLimited(err) {
			printlnFn("sync aborted: API rate limit exceeded")
		} else {
			printlnFn("sync failed:", err.Error())
		}
		return err
	}
	printlnFn(fmt.Sprintf("Synced %d files (%d downloaded, %d removed)",
		info.FileCount, info.DownloadedCount, info.DeletedCount))
	if info.FailedDirs > 0 {
		printlnFn(fmt.Sprintf("Warning: %d directories could not be read; re-run sync later", info.FailedDirs))
	}
	return nil
}

// Status prints the rate-limit state and the last sync summary.
func (a *App) Status(ctx context.Context) error {
	if a.guard.IsBlocked() {
		printlnFn(fmt.Sprintf("Rate limit: blocked for another %s", a.guard.Remaining().Round(time.Second)))
	} else {
		printlnFn("Rate limit: clear")
	}

	if !a.hasRepo() {
		return nil
	}
	info, err := a.syncer.LastSyncInfo(a.owner, a.repo)
	if errors.Is(err, common.ErrNotFound) {
		printlnFn("Never synced")
		return nil
	}
	if err != nil {
		printlnFn("could not read sync info:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Last sync %s: %d files, %d downloaded, %d removed",
		info.LastSync.Format("2006-01-02 15:04:05"), info.FileCount, info.DownloadedCount, info.DeletedCount))
	return nil
}

// List prints cached files followed by local edits and tombstones.
func (a *App) List(ctx context.Context) error {
	locals, err := a.workspace.LocalFiles(ctx)
	if err != nil {
		printlnFn("could not list workspace:", err.Error())
		return err
	}
	for _, f := range locals {
		printlnFn(fmt.Sprintf("  local  %s (%d bytes)", f.Path, f.Size))
	}

	recs, err := a.tracking.DeletionRecords(ctx)
	if err != nil {
		printlnFn("could not list deletions:", err.Error())
		return err
	}
	for _, r := range recs {
		printlnFn(fmt.Sprintf("  deleted %s (%s)", r.Path, r.DeletedFrom))
	}
	if len(locals) == 0 && len(recs) == 0 {
		printlnFn("Nothing local; run sync to populate the cache")
	}
	return nil
}

// Delete removes a file locally: the tombstone first, while the cached copy
// still proves a remote counterpart exists, then the cached and local
// copies.
func (a *App) Delete(ctx context.Context, path string) error {
	if err := a.tracking.RecordDeletion(ctx, path, models.DeletedLocally); err != nil {
		printlnFn("could not record deletion:", err.Error())
		return err
	}
	if err := a.workspace.DeleteLocalFile(ctx, path); err != nil {
		printlnFn("could not delete local copy:", err.Error())
		return err
	}
	if err := a.workspace.DeleteCachedFile(ctx, path); err != nil {
		printlnFn("could not delete cached copy:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Deleted %s", path))
	return nil
}
