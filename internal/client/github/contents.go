package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v48/github"

	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/common"
)

// Repository fetches repository metadata. Public read: works without a
// token.
func (g *Gateway) Repository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	var out *github.Repository
	err := g.publicCall(ctx, func(ctx context.Context, c *github.Client) error {
		r, _, err := c.Repositories.Get(ctx, owner, repo)
		out = r
		return err
	})
	return out, err
}

// Branch fetches the head of a branch. Public read.
func (g *Gateway) Branch(ctx context.Context, owner, repo, branch string) (*github.Branch, error) {
	var out *github.Branch
	err := g.publicCall(ctx, func(ctx context.Context, c *github.Client) error {
		b, _, err := c.Repositories.GetBranch(ctx, owner, repo, branch, false)
		out = b
		return err
	})
	return out, err
}

// Contributors lists repository contributors as members. Public read.
func (g *Gateway) Contributors(ctx context.Context, owner, repo string) ([]models.Member, error) {
	var out []models.Member
	err := g.publicCall(ctx, func(ctx context.Context, c *github.Client) error {
		contributors, _, err := c.Repositories.ListContributors(ctx, owner, repo, &github.ListContributorsOptions{
			ListOptions: github.ListOptions{PerPage: 100},
		})
		if err != nil {
			return err
		}
		for _, cb := range contributors {
			out = append(out, models.Member{
				Login:         cb.GetLogin(),
				AvatarURL:     cb.GetAvatarURL(),
				Contributions: cb.GetContributions(),
			})
		}
		return nil
	})
	return out, err
}

// ListDirectory enumerates one directory level of the repository tree.
func (g *Gateway) ListDirectory(ctx context.Context, owner, repo, path string) ([]models.RemoteEntry, error) {
	var out []models.RemoteEntry
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		file, dir, _, err := c.Repositories.GetContents(ctx, owner, repo, path, nil)
		if err != nil {
			return err
		}
		if dir == nil && file != nil {
			dir = []*github.RepositoryContent{file}
		}
		for _, item := range dir {
			entry := models.RemoteEntry{
				Path: item.GetPath(),
				SHA:  item.GetSHA(),
				Size: int64(item.GetSize()),
			}
			switch item.GetType() {
			case "dir":
				entry.Type = models.EntryTypeDir
			default:
				entry.Type = models.EntryTypeFile
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

// FileContent downloads and decodes one file, returning its text and the
// blob SHA the remote reports for it. A decode failure (e.g. malformed
// base64 or binary encoding) is returned as-is for the caller to skip.
func (g *Gateway) FileContent(ctx context.Context, owner, repo, path string) (content, sha string, err error) {
	err = g.call(ctx, func(ctx context.Context, c *github.Client) error {
		file, _, _, err := c.Repositories.GetContents(ctx, owner, repo, path, nil)
		if err != nil {
			return err
		}
		if file == nil {
			return fmt.Errorf("%w: %s is not a file", common.ErrNotFound, path)
		}
		text, err := file.GetContent()
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		content = text
		sha = file.GetSHA()
		return nil
	})
	return content, sha, err
}

// FileExists reports whether a path exists in the repository. A 404 is the
// expected "no" answer, not an error.
func (g *Gateway) FileExists(ctx context.Context, owner, repo, path string) (bool, error) {
	_, _, err := g.FileContent(ctx, owner, repo, path)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateFile commits a new file to the default branch.
func (g *Gateway) CreateFile(ctx context.Context, owner, repo, path, content, message string) error {
	return g.call(ctx, func(ctx context.Context, c *github.Client) error {
		_, _, err := c.Repositories.CreateFile(ctx, owner, repo, path, &github.RepositoryContentFileOptions{
			Message: github.String(message),
			Content: []byte(content),
		})
		return err
	})
}

// DeleteFile removes a file upstream. The remote requires the current blob
// SHA, so the file is looked up first.
func (g *Gateway) DeleteFile(ctx context.Context, owner, repo, path, message string) error {
	return g.call(ctx, func(ctx context.Context, c *github.Client) error {
		file, _, _, err := c.Repositories.GetContents(ctx, owner, repo, path, nil)
		if err != nil {
			return err
		}
		if file == nil {
			return fmt.Errorf("%w: %s is not a file", common.ErrNotFound, path)
		}
		if message == "" {
			message = fmt.Sprintf("Delete %s", path)
		}
		_, _, err = c.Repositories.DeleteFile(ctx, owner, repo, path, &github.RepositoryContentFileOptions{
			Message: github.String(message),
			SHA:     github.String(file.GetSHA()),
		})
		return err
	})
}
