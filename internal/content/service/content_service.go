package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/folio-studio/folio-backend/internal/access"
	authdomain "github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/content/domain"
	"github.com/folio-studio/folio-backend/internal/logging"
)

const (
	tableProjects   = "projects"
	tableLogEntries = "log_entries"
	tableBacklog    = "backlog_items"
	tableGlossary   = "verbivore_entries"
)

type ProjectStore interface {
	List(ctx context.Context, f domain.ListFilter) ([]domain.Project, error)
	Get(ctx context.Context, key, status string) (*domain.Project, error)
	Create(ctx context.Context, in *domain.ProjectInput) (*domain.Project, error)
	Update(ctx context.Context, key string, in *domain.ProjectInput) (*domain.Project, error)
	SoftDelete(ctx context.Context, key string) error
}

type LogEntryStore interface {
	List(ctx context.Context, f domain.ListFilter) ([]domain.LogEntry, error)
	Get(ctx context.Context, key, status string) (*domain.LogEntry, error)
	Create(ctx context.Context, in *domain.LogEntryInput) (*domain.LogEntry, error)
	Update(ctx context.Context, key string, in *domain.LogEntryInput) (*domain.LogEntry, error)
	SoftDelete(ctx context.Context, key string) error
}

type BacklogStore interface {
	List(ctx context.Context, f domain.ListFilter) ([]domain.BacklogItem, error)
	Get(ctx context.Context, id string) (*domain.BacklogItem, error)
	Create(ctx context.Context, in *domain.BacklogItemInput) (*domain.BacklogItem, error)
	Update(ctx context.Context, id string, in *domain.BacklogItemInput) (*domain.BacklogItem, error)
	SoftDelete(ctx context.Context, id string) error
	Promote(ctx context.Context, id string, entry *domain.LogEntryInput) (*domain.Promotion, error)
}

type GlossaryStore interface {
	List(ctx context.Context, f domain.ListFilter) ([]domain.GlossaryEntry, error)
	Get(ctx context.Context, key, status string) (*domain.GlossaryEntry, error)
	Create(ctx context.Context, in *domain.GlossaryEntryInput) (*domain.GlossaryEntry, error)
	Update(ctx context.Context, key string, in *domain.GlossaryEntryInput) (*domain.GlossaryEntry, error)
	Publish(ctx context.Context, key string) (*domain.GlossaryEntry, error)
	SoftDelete(ctx context.Context, key string) error
}

// ContentService applies validation and role checks in front of the
// content repositories. A nil profile is an anonymous public reader and
// only ever sees published rows.
type ContentService struct {
	projects ProjectStore
	logs     LogEntryStore
	backlog  BacklogStore
	glossary GlossaryStore
}

func NewContentService(projects ProjectStore, logs LogEntryStore, backlog BacklogStore, glossary GlossaryStore) *ContentService {
	return &ContentService{projects: projects, logs: logs, backlog: backlog, glossary: glossary}
}

func authorize(p *authdomain.Profile, op access.Operation, table, projectID string) error {
	if !access.CanAccess(p, op, table, projectID) {
		return fmt.Errorf("%w: %s on %s", domain.ErrForbidden, op, table)
	}
	return nil
}

// readFilter forces the published filter for anonymous readers.
func readFilter(p *authdomain.Profile, table string, f domain.ListFilter) (domain.ListFilter, error) {
	if p == nil {
		f.Status = domain.StatusPublished
		return f, nil
	}
	return f, authorize(p, access.OpRead, table, "")
}

func readStatus(p *authdomain.Profile, table string) (string, error) {
	if p == nil {
		return domain.StatusPublished, nil
	}
	return "", authorize(p, access.OpRead, table, "")
}

// Projects

func (s *ContentService) ListProjects(ctx context.Context, p *authdomain.Profile, f domain.ListFilter) ([]domain.Project, error) {
	f, err := readFilter(p, tableProjects, f)
	if err != nil {
		return nil, err
	}
	return s.projects.List(ctx, f)
}

func (s *ContentService) GetProject(ctx context.Context, p *authdomain.Profile, key string) (*domain.Project, error) {
	status, err := readStatus(p, tableProjects)
	if err != nil {
		return nil, err
	}
	return s.projects.Get(ctx, key, status)
}

func (s *ContentService) CreateProject(ctx context.Context, p *authdomain.Profile, in *domain.ProjectInput) (*domain.Project, error) {
	if err := authorize(p, access.OpCreate, tableProjects, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out, err := s.projects.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("content.project.created", "id", out.ID, "slug", out.Slug, "profile_id", p.ID)
	return out, nil
}

func (s *ContentService) UpdateProject(ctx context.Context, p *authdomain.Profile, key string, in *domain.ProjectInput) (*domain.Project, error) {
	if err := authorize(p, access.OpUpdate, tableProjects, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.projects.Update(ctx, key, in)
}

func (s *ContentService) DeleteProject(ctx context.Context, p *authdomain.Profile, key string) error {
	if err := authorize(p, access.OpDelete, tableProjects, ""); err != nil {
		return err
	}
	if err := s.projects.SoftDelete(ctx, key); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("content.project.deleted", "key", key, "profile_id", p.ID)
	return nil
}

// Log entries

func (s *ContentService) ListLogEntries(ctx context.Context, p *authdomain.Profile, f domain.ListFilter) ([]domain.LogEntry, error) {
	f, err := readFilter(p, tableLogEntries, f)
	if err != nil {
		return nil, err
	}
	return s.logs.List(ctx, f)
}

func (s *ContentService) GetLogEntry(ctx context.Context, p *authdomain.Profile, key string) (*domain.LogEntry, error) {
	status, err := readStatus(p, tableLogEntries)
	if err != nil {
		return nil, err
	}
	return s.logs.Get(ctx, key, status)
}

func (s *ContentService) CreateLogEntry(ctx context.Context, p *authdomain.Profile, in *domain.LogEntryInput) (*domain.LogEntry, error) {
	if err := authorize(p, access.OpCreate, tableLogEntries, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.logs.Create(ctx, in)
}

func (s *ContentService) UpdateLogEntry(ctx context.Context, p *authdomain.Profile, key string, in *domain.LogEntryInput) (*domain.LogEntry, error) {
	if err := authorize(p, access.OpUpdate, tableLogEntries, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.logs.Update(ctx, key, in)
}

func (s *ContentService) DeleteLogEntry(ctx context.Context, p *authdomain.Profile, key string) error {
	if err := authorize(p, access.OpDelete, tableLogEntries, ""); err != nil {
		return err
	}
	return s.logs.SoftDelete(ctx, key)
}

// Backlog

func (s *ContentService) ListBacklog(ctx context.Context, p *authdomain.Profile, f domain.ListFilter) ([]domain.BacklogItem, error) {
	if err := authorize(p, access.OpRead, tableBacklog, ""); err != nil {
		return nil, err
	}
	return s.backlog.List(ctx, f)
}

func (s *ContentService) GetBacklogItem(ctx context.Context, p *authdomain.Profile, id string) (*domain.BacklogItem, error) {
	if err := authorize(p, access.OpRead, tableBacklog, ""); err != nil {
		return nil, err
	}
	return s.backlog.Get(ctx, id)
}

func (s *ContentService) CreateBacklogItem(ctx context.Context, p *authdomain.Profile, in *domain.BacklogItemInput) (*domain.BacklogItem, error) {
	if err := authorize(p, access.OpCreate, tableBacklog, deref(in.StudioProjectID)); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.backlog.Create(ctx, in)
}

// UpdateBacklogItem checks the caller against both the item's current
// studio project and the one it is being moved to.
func (s *ContentService) UpdateBacklogItem(ctx context.Context, p *authdomain.Profile, id string, in *domain.BacklogItemInput) (*domain.BacklogItem, error) {
	if err := s.authorizeBacklogWrite(ctx, p, access.OpUpdate, id); err != nil {
		return nil, err
	}
	if err := authorize(p, access.OpUpdate, tableBacklog, deref(in.StudioProjectID)); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.backlog.Update(ctx, id, in)
}

func (s *ContentService) DeleteBacklogItem(ctx context.Context, p *authdomain.Profile, id string) error {
	if err := s.authorizeBacklogWrite(ctx, p, access.OpDelete, id); err != nil {
		return err
	}
	return s.backlog.SoftDelete(ctx, id)
}

// PromoteBacklogItem ships a backlog item as a new log entry. Title and body
// fall back to the item's own and the slug is derived from the title.
func (s *ContentService) PromoteBacklogItem(ctx context.Context, p *authdomain.Profile, id string, in *domain.PromoteInput) (*domain.Promotion, error) {
	if err := authorize(p, access.OpCreate, tableLogEntries, ""); err != nil {
		return nil, err
	}
	item, err := s.backlog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, access.OpUpdate, tableBacklog, deref(item.StudioProjectID)); err != nil {
		return nil, err
	}
	if item.Status == domain.BacklogShipped {
		return nil, fmt.Errorf("%w: backlog item is already shipped", domain.ErrConflict)
	}

	entry := &domain.LogEntryInput{
		Slug:      in.Slug,
		Title:     in.Title,
		Body:      in.Body,
		EntryDate: in.EntryDate,
		Status:    in.Status,
		Tags:      item.Tags,
	}
	if strings.TrimSpace(entry.Title) == "" {
		entry.Title = item.Title
	}
	if strings.TrimSpace(entry.Body) == "" {
		entry.Body = item.Description
	}
	if strings.TrimSpace(entry.Slug) == "" {
		entry.Slug = domain.Slugify(entry.Title)
	}
	entry.Normalize()
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	out, err := s.backlog.Promote(ctx, id, entry)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("content.backlog.promoted",
		"backlog_item_id", id, "log_entry_id", out.LogEntry.ID, "profile_id", p.ID)
	return out, nil
}

func (s *ContentService) authorizeBacklogWrite(ctx context.Context, p *authdomain.Profile, op access.Operation, id string) error {
	if !access.Scoped(p) {
		return authorize(p, op, tableBacklog, "")
	}
	item, err := s.backlog.Get(ctx, id)
	if err != nil {
		return err
	}
	return authorize(p, op, tableBacklog, deref(item.StudioProjectID))
}

// Glossary

func (s *ContentService) ListGlossary(ctx context.Context, p *authdomain.Profile, f domain.ListFilter) ([]domain.GlossaryEntry, error) {
	f, err := readFilter(p, tableGlossary, f)
	if err != nil {
		return nil, err
	}
	return s.glossary.List(ctx, f)
}

func (s *ContentService) GetGlossaryEntry(ctx context.Context, p *authdomain.Profile, key string) (*domain.GlossaryEntry, error) {
	status, err := readStatus(p, tableGlossary)
	if err != nil {
		return nil, err
	}
	return s.glossary.Get(ctx, key, status)
}

func (s *ContentService) CreateGlossaryEntry(ctx context.Context, p *authdomain.Profile, in *domain.GlossaryEntryInput) (*domain.GlossaryEntry, error) {
	if err := authorize(p, access.OpCreate, tableGlossary, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.glossary.Create(ctx, in)
}

func (s *ContentService) UpdateGlossaryEntry(ctx context.Context, p *authdomain.Profile, key string, in *domain.GlossaryEntryInput) (*domain.GlossaryEntry, error) {
	if err := authorize(p, access.OpUpdate, tableGlossary, ""); err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.glossary.Update(ctx, key, in)
}

func (s *ContentService) PublishGlossaryEntry(ctx context.Context, p *authdomain.Profile, key string) (*domain.GlossaryEntry, error) {
	if err := authorize(p, access.OpUpdate, tableGlossary, ""); err != nil {
		return nil, err
	}
	out, err := s.glossary.Publish(ctx, key)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("content.glossary.published", "key", key, "term", out.Term, "profile_id", p.ID)
	return out, nil
}

func (s *ContentService) DeleteGlossaryEntry(ctx context.Context, p *authdomain.Profile, key string) error {
	if err := authorize(p, access.OpDelete, tableGlossary, ""); err != nil {
		return err
	}
	return s.glossary.SoftDelete(ctx, key)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
