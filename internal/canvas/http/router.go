package http

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-studio/folio-backend/internal/auth/middleware"
)

func (h *Handler) Register(rg *gin.RouterGroup, authn *middleware.Authenticator) {
	g := rg.Group("/canvases/:kind", authn.RequireSiteProfile())
	g.GET("", h.ListCanvases)
	g.GET("/:id", h.GetCanvas)
	g.POST("/:id/items", h.AddItem)
	g.PATCH("/:id/items/:item", h.UpdateItem)
	g.POST("/:id/items/:item/move", h.MoveItem)
	g.DELETE("/:id/items/:item", h.DeleteItem)
}
