package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v48/github"

	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/common"
)

// VerifyToken installs token and resolves the user it authenticates. On
// success the authenticated client stays cached for subsequent calls.
func (g *Gateway) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	g.SetToken(token)

	var out *models.User
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		u, _, err := c.Users.Get(ctx, "")
		if err != nil {
			return err
		}
		out = &models.User{
			ID:        u.GetID(),
			Login:     u.GetLogin(),
			Name:      u.GetName(),
			Email:     u.GetEmail(),
			AvatarURL: u.GetAvatarURL(),
		}
		return nil
	})
	return out, err
}

// UserByLogin looks up a public user profile. Public read.
func (g *Gateway) UserByLogin(ctx context.Context, login string) (*github.User, error) {
	var out *github.User
	err := g.publicCall(ctx, func(ctx context.Context, c *github.Client) error {
		u, _, err := c.Users.Get(ctx, login)
		out = u
		return err
	})
	return out, err
}

// UserRepositories lists the repositories owned by a user.
func (g *Gateway) UserRepositories(ctx context.Context, login string) ([]*github.Repository, error) {
	var out []*github.Repository
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		repos, _, err := c.Repositories.List(ctx, login, nil)
		out = repos
		return err
	})
	return out, err
}

// UserPublicEvents lists a user's recent public activity. Public read.
func (g *Gateway) UserPublicEvents(ctx context.Context, login string) ([]*github.Event, error) {
	var out []*github.Event
	err := g.publicCall(ctx, func(ctx context.Context, c *github.Client) error {
		evs, _, err := c.Activity.ListEventsPerformedByUser(ctx, login, true, nil)
		out = evs
		return err
	})
	return out, err
}

// PermissionLevel returns the collaborator permission ("admin", "write",
// "read", "none") a user has on the repository.
func (g *Gateway) PermissionLevel(ctx context.Context, owner, repo, login string) (string, error) {
	var out string
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		level, _, err := c.Repositories.GetPermissionLevel(ctx, owner, repo, login)
		if err != nil {
			return err
		}
		out = level.GetPermission()
		return nil
	})
	return out, err
}

// IsStarred reports whether the authenticated user starred the repository.
// A 404 is the expected "no" answer.
func (g *Gateway) IsStarred(ctx context.Context, owner, repo string) (bool, error) {
	var out bool
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		starred, _, err := c.Activity.IsStarred(ctx, owner, repo)
		out = starred
		return err
	})
	if err != nil {
		// Absent star relations come back as 404.
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return out, nil
}

// Star stars the repository for the authenticated user.
func (g *Gateway) Star(ctx context.Context, owner, repo string) error {
	return g.call(ctx, func(ctx context.Context, c *github.Client) error {
		_, err := c.Activity.Star(ctx, owner, repo)
		return err
	})
}

// AcceptInvitation finds the authenticated user's pending invitation for
// owner/repo and accepts it. Returns common.ErrNotFound when there is none.
func (g *Gateway) AcceptInvitation(ctx context.Context, owner, repo string) error {
	full := fmt.Sprintf("%s/%s", owner, repo)

	return g.call(ctx, func(ctx context.Context, c *github.Client) error {
		invitations, _, err := c.Users.ListInvitations(ctx, nil)
		if err != nil {
			return err
		}
		for _, inv := range invitations {
			if inv.GetRepo().GetFullName() == full {
				_, err := c.Users.AcceptInvitation(ctx, inv.GetID())
				return err
			}
		}
		return fmt.Errorf("%w: no pending invitation for %s", common.ErrNotFound, full)
	})
}
