package domain

import (
	"errors"
	"time"
)

// Roles, from most to least privileged.
const (
	RoleAdmin        = "admin"
	RoleEditor       = "editor"
	RoleCollaborator = "collaborator"
	RoleViewer       = "viewer"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidRole     = errors.New("invalid role")
)

// Profile is the application-side record of a Firebase user: their role
// and the studio projects they may write to as a collaborator.
type Profile struct {
	ID          string     `json:"id"`
	FirebaseUID string     `json:"firebase_uid"`
	Email       string     `json:"email"`
	DisplayName *string    `json:"display_name,omitempty"`
	Role        string     `json:"role"`
	ProjectIDs  []string   `json:"project_ids"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// HasProject reports whether the profile is assigned to projectID.
func (p *Profile) HasProject(projectID string) bool {
	if p == nil || projectID == "" {
		return false
	}
	for _, id := range p.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// SyncProfileRequest carries identity data taken from a verified ID token.
type SyncProfileRequest struct {
	FirebaseUID string
	Email       string
	DisplayName *string
}

// UpdateProfileRequest represents fields a user may change on their own profile.
type UpdateProfileRequest struct {
	DisplayName *string
}

// SetRoleRequest is an admin-only change of role and project assignments.
type SetRoleRequest struct {
	Role       string
	ProjectIDs []string
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleCollaborator, RoleViewer:
		return true
	}
	return false
}

// Identity sources.
const (
	SourceFirebase = "firebase"
	SourceOAuth    = "oauth"
)

// Identity is what a verified bearer token says about the caller.
type Identity struct {
	// Source is SourceFirebase for ID tokens and SourceOAuth for access
	// tokens issued by this service.
	Source      string
	FirebaseUID string
	ProfileID   string
	Email       string
	ClientID    string
	Scope       string
}

// AccessClaims are the claims carried by an OAuth access token.
type AccessClaims struct {
	ProfileID string
	ClientID  string
	Scope     string
	ExpiresAt time.Time
}
