package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/content/domain"
)

type fakeProjects struct {
	lastFilter domain.ListFilter
	lastStatus string
	created    *domain.ProjectInput
}

func (f *fakeProjects) List(_ context.Context, fl domain.ListFilter) ([]domain.Project, error) {
	f.lastFilter = fl
	return []domain.Project{}, nil
}

func (f *fakeProjects) Get(_ context.Context, key, status string) (*domain.Project, error) {
	f.lastStatus = status
	return &domain.Project{ID: "p-1", Slug: key, Status: domain.StatusPublished}, nil
}

func (f *fakeProjects) Create(_ context.Context, in *domain.ProjectInput) (*domain.Project, error) {
	f.created = in
	return &domain.Project{ID: "p-1", Slug: in.Slug, Title: in.Title, Status: in.Status}, nil
}

func (f *fakeProjects) Update(_ context.Context, id string, in *domain.ProjectInput) (*domain.Project, error) {
	return &domain.Project{ID: id, Slug: in.Slug}, nil
}

func (f *fakeProjects) SoftDelete(context.Context, string) error { return nil }

type fakeBacklog struct {
	items    map[string]*domain.BacklogItem
	promoted *domain.LogEntryInput
	deleted  []string
}

func (f *fakeBacklog) List(context.Context, domain.ListFilter) ([]domain.BacklogItem, error) {
	return nil, nil
}

func (f *fakeBacklog) Get(_ context.Context, id string) (*domain.BacklogItem, error) {
	b, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeBacklog) Create(_ context.Context, in *domain.BacklogItemInput) (*domain.BacklogItem, error) {
	return &domain.BacklogItem{ID: "b-new", Title: in.Title, Status: in.Status, StudioProjectID: in.StudioProjectID}, nil
}

func (f *fakeBacklog) Update(_ context.Context, id string, in *domain.BacklogItemInput) (*domain.BacklogItem, error) {
	return &domain.BacklogItem{ID: id, Title: in.Title, Status: in.Status, StudioProjectID: in.StudioProjectID}, nil
}

func (f *fakeBacklog) SoftDelete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBacklog) Promote(_ context.Context, id string, entry *domain.LogEntryInput) (*domain.Promotion, error) {
	f.promoted = entry
	item := *f.items[id]
	item.Status = domain.BacklogShipped
	return &domain.Promotion{BacklogItem: &item, LogEntry: &domain.LogEntry{ID: "l-1", Slug: entry.Slug, Title: entry.Title}}, nil
}

func strPtr(s string) *string { return &s }

func newBacklog() *fakeBacklog {
	return &fakeBacklog{items: map[string]*domain.BacklogItem{
		"b-mine":    {ID: "b-mine", Title: "Ship the MCP tools", Description: "All six of them.", Status: domain.BacklogInProgress, StudioProjectID: strPtr("sp-1"), Tags: []string{"mcp"}},
		"b-theirs":  {ID: "b-theirs", Title: "Other", Status: domain.BacklogIdea, StudioProjectID: strPtr("sp-2")},
		"b-shipped": {ID: "b-shipped", Title: "Done", Status: domain.BacklogShipped, StudioProjectID: strPtr("sp-1")},
	}}
}

var (
	admin        = &authdomain.Profile{ID: "u-admin", Role: authdomain.RoleAdmin}
	editor       = &authdomain.Profile{ID: "u-editor", Role: authdomain.RoleEditor}
	viewer       = &authdomain.Profile{ID: "u-viewer", Role: authdomain.RoleViewer}
	collaborator = &authdomain.Profile{ID: "u-collab", Role: authdomain.RoleCollaborator, ProjectIDs: []string{"sp-1"}}
)

func TestContentService_PublicReadsArePublishedOnly(t *testing.T) {
	projects := &fakeProjects{}
	svc := NewContentService(projects, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.ListProjects(ctx, nil, domain.ListFilter{Status: domain.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, projects.lastFilter.Status)

	_, err = svc.GetProject(ctx, nil, "folio")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, projects.lastStatus)

	_, err = svc.ListProjects(ctx, viewer, domain.ListFilter{Status: domain.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, projects.lastFilter.Status, "signed-in readers may filter freely")
}

func TestContentService_CreateProject(t *testing.T) {
	ctx := context.Background()

	t.Run("viewer is forbidden", func(t *testing.T) {
		svc := NewContentService(&fakeProjects{}, nil, nil, nil)
		_, err := svc.CreateProject(ctx, viewer, &domain.ProjectInput{Slug: "folio", Title: "Folio"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("collaborator cannot write unscoped tables", func(t *testing.T) {
		svc := NewContentService(&fakeProjects{}, nil, nil, nil)
		_, err := svc.CreateProject(ctx, collaborator, &domain.ProjectInput{Slug: "folio", Title: "Folio"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("editor creates with defaults", func(t *testing.T) {
		projects := &fakeProjects{}
		svc := NewContentService(projects, nil, nil, nil)
		out, err := svc.CreateProject(ctx, editor, &domain.ProjectInput{Slug: " folio ", Title: "Folio"})
		require.NoError(t, err)
		assert.Equal(t, "folio", out.Slug)
		assert.Equal(t, domain.StatusDraft, projects.created.Status)
		assert.NotNil(t, projects.created.Tags)
	})

	t.Run("invalid slug", func(t *testing.T) {
		svc := NewContentService(&fakeProjects{}, nil, nil, nil)
		_, err := svc.CreateProject(ctx, editor, &domain.ProjectInput{Slug: "Not A Slug", Title: "Folio"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("editor cannot delete", func(t *testing.T) {
		svc := NewContentService(&fakeProjects{}, nil, nil, nil)
		assert.ErrorIs(t, svc.DeleteProject(ctx, editor, "p-1"), domain.ErrForbidden)
		assert.NoError(t, svc.DeleteProject(ctx, admin, "p-1"))
	})
}

func TestContentService_CollaboratorBacklogScope(t *testing.T) {
	ctx := context.Background()
	backlog := newBacklog()
	svc := NewContentService(nil, nil, backlog, nil)

	_, err := svc.CreateBacklogItem(ctx, collaborator, &domain.BacklogItemInput{Title: "New", StudioProjectID: strPtr("sp-1")})
	require.NoError(t, err)

	_, err = svc.CreateBacklogItem(ctx, collaborator, &domain.BacklogItemInput{Title: "New", StudioProjectID: strPtr("sp-2")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateBacklogItem(ctx, collaborator, &domain.BacklogItemInput{Title: "Unscoped"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.UpdateBacklogItem(ctx, collaborator, "b-theirs", &domain.BacklogItemInput{Title: "Steal", StudioProjectID: strPtr("sp-1")})
	assert.ErrorIs(t, err, domain.ErrForbidden, "current project must be assigned too")

	_, err = svc.UpdateBacklogItem(ctx, collaborator, "b-mine", &domain.BacklogItemInput{Title: "Move", StudioProjectID: strPtr("sp-2")})
	assert.ErrorIs(t, err, domain.ErrForbidden, "target project must be assigned")

	out, err := svc.UpdateBacklogItem(ctx, collaborator, "b-mine", &domain.BacklogItemInput{Title: "Renamed", StudioProjectID: strPtr("sp-1")})
	require.NoError(t, err)
	assert.Equal(t, domain.BacklogIdea, out.Status)

	assert.ErrorIs(t, svc.DeleteBacklogItem(ctx, collaborator, "b-mine"), domain.ErrForbidden)
	assert.NoError(t, svc.DeleteBacklogItem(ctx, admin, "b-mine"))
	assert.Equal(t, []string{"b-mine"}, backlog.deleted)
}

func TestContentService_PromoteBacklogItem(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults come from the item", func(t *testing.T) {
		backlog := newBacklog()
		svc := NewContentService(nil, nil, backlog, nil)

		out, err := svc.PromoteBacklogItem(ctx, editor, "b-mine", &domain.PromoteInput{})
		require.NoError(t, err)
		assert.Equal(t, domain.BacklogShipped, out.BacklogItem.Status)
		assert.Equal(t, "ship-the-mcp-tools", backlog.promoted.Slug)
		assert.Equal(t, "Ship the MCP tools", backlog.promoted.Title)
		assert.Equal(t, "All six of them.", backlog.promoted.Body)
		assert.Equal(t, domain.StatusDraft, backlog.promoted.Status)
		assert.Equal(t, []string{"mcp"}, backlog.promoted.Tags)
	})

	t.Run("explicit fields win", func(t *testing.T) {
		backlog := newBacklog()
		svc := NewContentService(nil, nil, backlog, nil)

		_, err := svc.PromoteBacklogItem(ctx, editor, "b-mine", &domain.PromoteInput{Slug: "mcp-launch", Title: "MCP launch", Status: domain.StatusPublished})
		require.NoError(t, err)
		assert.Equal(t, "mcp-launch", backlog.promoted.Slug)
		assert.Equal(t, domain.StatusPublished, backlog.promoted.Status)
	})

	t.Run("already shipped", func(t *testing.T) {
		svc := NewContentService(nil, nil, newBacklog(), nil)
		_, err := svc.PromoteBacklogItem(ctx, editor, "b-shipped", &domain.PromoteInput{})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("missing item", func(t *testing.T) {
		svc := NewContentService(nil, nil, newBacklog(), nil)
		_, err := svc.PromoteBacklogItem(ctx, editor, "nope", &domain.PromoteInput{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("collaborators cannot create log entries", func(t *testing.T) {
		svc := NewContentService(nil, nil, newBacklog(), nil)
		_, err := svc.PromoteBacklogItem(ctx, collaborator, "b-mine", &domain.PromoteInput{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("viewer", func(t *testing.T) {
		svc := NewContentService(nil, nil, newBacklog(), nil)
		_, err := svc.PromoteBacklogItem(ctx, viewer, "b-mine", &domain.PromoteInput{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
