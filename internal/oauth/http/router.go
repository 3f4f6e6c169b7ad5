package http

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-studio/folio-backend/internal/auth/middleware"
)

// Register attaches the authorization server endpoints at the root of r.
// Only the consent decision needs a signed-in site user, and an access
// token issued here never counts as one.
func (h *Handler) Register(r gin.IRouter, authn *middleware.Authenticator) {
	r.GET("/.well-known/oauth-authorization-server", h.AuthServerMetadata)
	r.GET("/.well-known/oauth-protected-resource", h.ProtectedResourceMetadata)

	r.POST("/register", h.RegisterClient)

	o := r.Group("/oauth")
	o.GET("/authorize", h.Authorize)
	o.GET("/consent", h.GetConsent)
	o.POST("/consent", authn.RequireSiteProfile(), h.PostConsent)
	o.POST("/token", h.Token)
	o.POST("/revoke", h.Revoke)
}
