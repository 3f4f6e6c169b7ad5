package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-studio/folio-backend/internal/auth/domain"
)

const (
	CtxIdentity = "auth_identity"
	CtxProfile  = "auth_profile"
)

// IdentityFrom returns the verified bearer identity set by the auth middleware.
func IdentityFrom(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(CtxIdentity); ok {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}

// ProfileFrom returns the caller's profile set by the auth middleware.
func ProfileFrom(c *gin.Context) *domain.Profile {
	if v, ok := c.Get(CtxProfile); ok {
		if p, ok := v.(*domain.Profile); ok {
			return p
		}
	}
	return nil
}
