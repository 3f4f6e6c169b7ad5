package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/folio-studio/folio-backend/internal/access"
	authdomain "github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/canvas/domain"
	"github.com/folio-studio/folio-backend/internal/logging"
)

// CanvasStore is implemented by repository.CanvasRepository.
type CanvasStore interface {
	Get(ctx context.Context, k domain.Kind, id string) (*domain.Canvas, error)
	List(ctx context.Context, k domain.Kind, studioProjectID string) ([]domain.Canvas, error)
	SaveIfVersion(ctx context.Context, k domain.Kind, c *domain.Canvas, expected int) error
}

// Ref names a canvas and the version the caller last saw.
type Ref struct {
	Kind            string
	ID              string
	ExpectedVersion int
}

type CanvasService struct {
	store CanvasStore
	now   func() time.Time
	newID func() string
}

func NewCanvasService(store CanvasStore) *CanvasService {
	return &CanvasService{store: store, now: time.Now, newID: uuid.NewString}
}

func (s *CanvasService) ListCanvases(ctx context.Context, p *authdomain.Profile, kind, studioProjectID string) ([]domain.Canvas, error) {
	k, err := domain.LookupKind(kind)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, access.OpRead, k.Table, "") {
		return nil, fmt.Errorf("%w: read on %s", domain.ErrForbidden, k.Table)
	}
	return s.store.List(ctx, k, studioProjectID)
}

func (s *CanvasService) GetCanvas(ctx context.Context, p *authdomain.Profile, kind, id string) (*domain.Canvas, error) {
	k, err := domain.LookupKind(kind)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, access.OpRead, k.Table, "") {
		return nil, fmt.Errorf("%w: read on %s", domain.ErrForbidden, k.Table)
	}
	return s.store.Get(ctx, k, id)
}

func (s *CanvasService) AddItem(ctx context.Context, p *authdomain.Profile, ref Ref, block string, in domain.ItemInput) (*domain.Canvas, *domain.Item, error) {
	var added *domain.Item
	c, err := s.mutate(ctx, p, ref, "canvas.item.added", func(k domain.Kind, d *domain.Data) error {
		now := s.now().UTC()
		it, err := d.AddItem(k, block, domain.Item{ID: s.newID(), CreatedAt: now, UpdatedAt: now}, in)
		added = it
		return err
	})
	return c, added, err
}

func (s *CanvasService) UpdateItem(ctx context.Context, p *authdomain.Profile, ref Ref, itemID string, in domain.ItemInput) (*domain.Canvas, *domain.Item, error) {
	var updated *domain.Item
	c, err := s.mutate(ctx, p, ref, "canvas.item.updated", func(_ domain.Kind, d *domain.Data) error {
		it, err := d.UpdateItem(itemID, in, s.now().UTC())
		updated = it
		return err
	})
	return c, updated, err
}

func (s *CanvasService) MoveItem(ctx context.Context, p *authdomain.Profile, ref Ref, itemID, block string, position int) (*domain.Canvas, *domain.Item, error) {
	var moved *domain.Item
	c, err := s.mutate(ctx, p, ref, "canvas.item.moved", func(k domain.Kind, d *domain.Data) error {
		it, err := d.MoveItem(k, itemID, block, position, s.now().UTC())
		moved = it
		return err
	})
	return c, moved, err
}

func (s *CanvasService) DeleteItem(ctx context.Context, p *authdomain.Profile, ref Ref, itemID string) (*domain.Canvas, error) {
	return s.mutate(ctx, p, ref, "canvas.item.deleted", func(_ domain.Kind, d *domain.Data) error {
		return d.DeleteItem(itemID)
	})
}

// mutate loads the canvas, rejects a stale expected version up front,
// applies fn to the decoded blob and saves it with a conditional update.
func (s *CanvasService) mutate(ctx context.Context, p *authdomain.Profile, ref Ref, event string, fn func(domain.Kind, *domain.Data) error) (*domain.Canvas, error) {
	k, err := domain.LookupKind(ref.Kind)
	if err != nil {
		return nil, err
	}
	if ref.ExpectedVersion < 1 {
		return nil, fmt.Errorf("%w: expected_version is required", domain.ErrValidation)
	}
	if !access.CanAccess(p, access.OpUpdate, k.Table, "") && !access.Scoped(p) {
		return nil, fmt.Errorf("%w: update on %s", domain.ErrForbidden, k.Table)
	}

	c, err := s.store.Get(ctx, k, ref.ID)
	if err != nil {
		return nil, err
	}
	projectID := ""
	if c.StudioProjectID != nil {
		projectID = *c.StudioProjectID
	}
	if !access.CanAccess(p, access.OpUpdate, k.Table, projectID) {
		return nil, fmt.Errorf("%w: update on %s", domain.ErrForbidden, k.Table)
	}
	if c.Version != ref.ExpectedVersion {
		return nil, &domain.VersionConflictError{Expected: ref.ExpectedVersion, Current: c.Version}
	}

	if err := fn(k, &c.Data); err != nil {
		return nil, err
	}
	if err := s.store.SaveIfVersion(ctx, k, c, ref.ExpectedVersion); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info(event, "kind", k.Name, "canvas_id", c.ID, "version", c.Version, "profile_id", p.ID)
	return c, nil
}
