package http

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/auth/middleware"
)

// Register attaches profile routes. sync only needs a verified token since
// it is what creates the profile; the rest need the profile itself.
func (h *Handler) Register(rg *gin.RouterGroup, authn *middleware.Authenticator) {
	rg.POST("/auth/sync", authn.RequireSiteIdentity(), h.SyncProfile)

	me := rg.Group("", authn.RequireSiteProfile())
	me.GET("/me", h.GetProfile)
	me.PUT("/me", h.UpdateProfile)
	me.PUT("/profiles/:id/role", middleware.RequireRole(domain.RoleAdmin), h.SetRole)
}
