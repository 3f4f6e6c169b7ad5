package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/folio-studio/folio-backend/internal/auth/domain"
)

// ProfileStore is implemented by repository.ProfileRepository.
type ProfileStore interface {
	GetByFirebaseUID(ctx context.Context, uid string) (*domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Upsert(ctx context.Context, req *domain.SyncProfileRequest, firstRole string) (*domain.Profile, error)
	Count(ctx context.Context) (int, error)
	UpdateDisplayName(ctx context.Context, id string, displayName *string) (*domain.Profile, error)
	SetRole(ctx context.Context, id, role string, projectIDs []string) (*domain.Profile, error)
}

type AuthService struct {
	profiles ProfileStore
}

func NewAuthService(profiles ProfileStore) *AuthService {
	return &AuthService{profiles: profiles}
}

// SyncProfile creates or refreshes the caller's profile after sign-in.
// The very first profile becomes the site admin; everyone after starts as a viewer.
func (s *AuthService) SyncProfile(ctx context.Context, req *domain.SyncProfileRequest) (*domain.Profile, error) {
	if strings.TrimSpace(req.FirebaseUID) == "" {
		return nil, fmt.Errorf("firebase uid required")
	}
	if strings.TrimSpace(req.Email) == "" {
		// Phone or anonymous sign-ins carry no email claim.
		req.Email = req.FirebaseUID + "@firebase.local"
	}

	role := domain.RoleViewer
	if _, err := s.profiles.GetByFirebaseUID(ctx, req.FirebaseUID); err == domain.ErrProfileNotFound {
		n, err := s.profiles.Count(ctx)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			role = domain.RoleAdmin
		}
	} else if err != nil {
		return nil, err
	}

	return s.profiles.Upsert(ctx, req, role)
}

// ProfileByFirebaseUID resolves a Firebase user to their profile.
func (s *AuthService) ProfileByFirebaseUID(ctx context.Context, uid string) (*domain.Profile, error) {
	return s.profiles.GetByFirebaseUID(ctx, uid)
}

// ProfileByID resolves the subject of an OAuth access token.
func (s *AuthService) ProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// ResolveProfile loads the profile behind a verified identity.
func (s *AuthService) ResolveProfile(ctx context.Context, id *domain.Identity) (*domain.Profile, error) {
	if id.ProfileID != "" {
		return s.profiles.GetByID(ctx, id.ProfileID)
	}
	return s.profiles.GetByFirebaseUID(ctx, id.FirebaseUID)
}

// UpdateProfile updates the caller-editable fields.
func (s *AuthService) UpdateProfile(ctx context.Context, profileID string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		if len(trimmed) > 120 {
			return nil, fmt.Errorf("display_name too long")
		}
		req.DisplayName = &trimmed
	}
	return s.profiles.UpdateDisplayName(ctx, profileID, req.DisplayName)
}

// SetRole changes another profile's role. Callers must already be admins.
func (s *AuthService) SetRole(ctx context.Context, profileID string, req *domain.SetRoleRequest) (*domain.Profile, error) {
	if !domain.ValidRole(req.Role) {
		return nil, domain.ErrInvalidRole
	}
	return s.profiles.SetRole(ctx, profileID, req.Role, req.ProjectIDs)
}
