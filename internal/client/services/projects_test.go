package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

type fakeContributors struct {
	members []models.Member
	err     error
	calls   int
}

func (f *fakeContributors) Contributors(context.Context, string, string) ([]models.Member, error) {
	f.calls++
	return f.members, f.err
}

func TestProjects_SaveAndGet(t *testing.T) {
	p := NewProjects(openStore(t), &fakeContributors{}, logging.NewDefault())
	ctx := context.Background()

	data := json.RawMessage(`{"title":"Guide"}`)
	require.NoError(t, p.SaveProject(ctx, "proj-1", data))

	got, err := p.Project(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", got.ID)
	assert.JSONEq(t, `{"title":"Guide"}`, string(got.Data))
	assert.False(t, got.Timestamp.IsZero())

	all, err := p.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProjects_DeleteDropsMembersToo(t *testing.T) {
	store := openStore(t)
	fake := &fakeContributors{members: []models.Member{{Login: "alice"}}}
	p := NewProjects(store, fake, logging.NewDefault())
	ctx := context.Background()

	require.NoError(t, p.SaveProject(ctx, "proj-1", json.RawMessage(`{}`)))
	_, err := p.RefreshMembers(ctx, "proj-1", "acme", "proj")
	require.NoError(t, err)

	require.NoError(t, p.DeleteProject(ctx, "proj-1"))

	_, err = p.Project(ctx, "proj-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = p.Members(ctx, "proj-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRefreshMembers_CachesFetchedList(t *testing.T) {
	fake := &fakeContributors{members: []models.Member{{Login: "alice", Contributions: 3}}}
	p := NewProjects(openStore(t), fake, logging.NewDefault())
	ctx := context.Background()

	list, err := p.RefreshMembers(ctx, "proj-1", "acme", "proj")
	require.NoError(t, err)
	require.Len(t, list.Members, 1)
	assert.Equal(t, "alice", list.Members[0].Login)

	// A later read comes from the cache, not the API.
	cached, err := p.Members(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, list.Members, cached.Members)
	assert.Equal(t, 1, fake.calls)
}

func TestRefreshMembers_PropagatesFetchErrors(t *testing.T) {
	fake := &fakeContributors{err: errors.New("boom")}
	p := NewProjects(openStore(t), fake, logging.NewDefault())

	_, err := p.RefreshMembers(context.Background(), "proj-1", "acme", "proj")
	require.Error(t, err)

	_, err = p.Members(context.Background(), "proj-1")
	assert.ErrorIs(t, err, common.ErrNotFound, "a failed refresh must not poison the cache")
}
