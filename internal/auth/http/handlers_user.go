package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/folio-studio/folio-backend/internal/api/http"
	"github.com/folio-studio/folio-backend/internal/auth"
	"github.com/folio-studio/folio-backend/internal/auth/domain"
)

// GetProfile returns the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profile": auth.ProfileFrom(c)})
}

// SyncProfile is called by the site after Firebase sign-in so the user has
// a profile row. Accepts an optional JSON body with display_name.
func (h *Handler) SyncProfile(c *gin.Context) {
	id := auth.IdentityFrom(c)
	if id == nil || id.Source != domain.SourceFirebase {
		httpapi.Error(c, http.StatusUnauthorized, "a Firebase ID token is required", nil)
		return
	}

	var body struct {
		DisplayName *string `json:"display_name,omitempty"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			httpapi.Error(c, http.StatusBadRequest, "invalid JSON body", err)
			return
		}
	}

	profile, err := h.authService.SyncProfile(c.Request.Context(), &domain.SyncProfileRequest{
		FirebaseUID: id.FirebaseUID,
		Email:       id.Email,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		httpapi.Error(c, http.StatusInternalServerError, "failed to sync profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfile updates the user's profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName *string `json:"display_name,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	p := auth.ProfileFrom(c)
	profile, err := h.authService.UpdateProfile(c.Request.Context(), p.ID, &domain.UpdateProfileRequest{
		DisplayName: req.DisplayName,
	})
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			httpapi.Error(c, http.StatusNotFound, "profile not found", nil)
			return
		}
		httpapi.Error(c, http.StatusBadRequest, "failed to update profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// SetRole changes another user's role and project assignments (admin only).
func (h *Handler) SetRole(c *gin.Context) {
	var req struct {
		Role       string   `json:"role"`
		ProjectIDs []string `json:"project_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	profile, err := h.authService.SetRole(c.Request.Context(), c.Param("id"), &domain.SetRoleRequest{
		Role:       req.Role,
		ProjectIDs: req.ProjectIDs,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidRole):
		httpapi.Error(c, http.StatusBadRequest, "invalid role", err)
		return
	case errors.Is(err, domain.ErrProfileNotFound):
		httpapi.Error(c, http.StatusNotFound, "profile not found", nil)
		return
	case err != nil:
		httpapi.Error(c, http.StatusInternalServerError, "failed to set role", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
