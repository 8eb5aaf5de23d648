package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dipcp/dipcp/internal/client/kvstore"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/logging"
)

// ContributorLister fetches a repository's contributor list. Satisfied by
// *github.Gateway.
type ContributorLister interface {
	Contributors(ctx context.Context, owner, repo string) ([]models.Member, error)
}

// Projects caches opaque project data and project member lists.
type Projects struct {
	store  kvstore.Store
	remote ContributorLister
	log    logging.Logger
	now    func() time.Time
}

func NewProjects(store kvstore.Store, remote ContributorLister, log logging.Logger) *Projects {
	return &Projects{store: store, remote: remote, log: log, now: time.Now}
}

// SaveProject stores project data under id. The data is opaque to this
// layer and stored as is.
func (p *Projects) SaveProject(ctx context.Context, id string, data json.RawMessage) error {
	proj := models.Project{ID: id, Data: data, Timestamp: p.now()}
	raw, err := json.Marshal(proj)
	if err != nil {
		return fmt.Errorf("encoding project %s: %w", id, err)
	}
	return p.store.Put(ctx, kvstore.PartitionProjects, &kvstore.Entry{Key: id, Value: raw})
}

// Project returns the cached project, or common.ErrNotFound.
func (p *Projects) Project(ctx context.Context, id string) (*models.Project, error) {
	entry, err := p.store.Get(ctx, kvstore.PartitionProjects, id)
	if err != nil {
		return nil, err
	}
	var proj models.Project
	if err := json.Unmarshal(entry.Value, &proj); err != nil {
		return nil, fmt.Errorf("decoding project %s: %w", id, err)
	}
	return &proj, nil
}

// Projects lists every cached project in id order.
func (p *Projects) Projects(ctx context.Context) ([]models.Project, error) {
	entries, err := p.store.GetAll(ctx, kvstore.PartitionProjects)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(entries))
	for _, e := range entries {
		var proj models.Project
		if err := json.Unmarshal(e.Value, &proj); err != nil {
			p.log.Warn(ctx, "skipping malformed project entry", "key", e.Key, "error", err.Error())
			continue
		}
		out = append(out, proj)
	}
	return out, nil
}

// DeleteProject drops the cached project and its member list. Idempotent.
func (p *Projects) DeleteProject(ctx context.Context, id string) error {
	if err := p.store.Delete(ctx, kvstore.PartitionProjects, id); err != nil {
		return err
	}
	return p.store.Delete(ctx, kvstore.PartitionMembersCache, id)
}

// Members returns the cached member list for the project, or
// common.ErrNotFound when it was never fetched.
func (p *Projects) Members(ctx context.Context, projectID string) (*models.MemberList, error) {
	entry, err := p.store.Get(ctx, kvstore.PartitionMembersCache, projectID)
	if err != nil {
		return nil, err
	}
	var list models.MemberList
	if err := json.Unmarshal(entry.Value, &list); err != nil {
		return nil, fmt.Errorf("decoding member list for %s: %w", projectID, err)
	}
	return &list, nil
}

// RefreshMembers fetches the repository's contributors and replaces the
// cached member list for the project.
func (p *Projects) RefreshMembers(ctx context.Context, projectID, owner, repo string) (*models.MemberList, error) {
	members, err := p.remote.Contributors(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching contributors of %s/%s: %w", owner, repo, err)
	}
	list := models.MemberList{
		ProjectID: projectID,
		Members:   members,
		Timestamp: p.now(),
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encoding member list: %w", err)
	}
	err = p.store.Put(ctx, kvstore.PartitionMembersCache, &kvstore.Entry{Key: projectID, Value: raw})
	if err != nil {
		return nil, fmt.Errorf("caching member list for %s: %w", projectID, err)
	}
	return &list, nil
}
