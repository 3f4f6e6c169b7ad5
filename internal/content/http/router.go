package http

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-studio/folio-backend/internal/auth/middleware"
)

// Register attaches the authenticated content routes for site sessions.
// Role checks happen in the service so each table follows the permission
// table.
func (h *Handler) Register(rg *gin.RouterGroup, authn *middleware.Authenticator) {
	g := rg.Group("", authn.RequireSiteProfile())

	g.GET("/projects", h.ListProjects)
	g.POST("/projects", h.CreateProject)
	g.GET("/projects/:key", h.GetProject)
	g.PUT("/projects/:key", h.UpdateProject)
	g.DELETE("/projects/:key", h.DeleteProject)

	g.GET("/log", h.ListLogEntries)
	g.POST("/log", h.CreateLogEntry)
	g.GET("/log/:key", h.GetLogEntry)
	g.PUT("/log/:key", h.UpdateLogEntry)
	g.DELETE("/log/:key", h.DeleteLogEntry)

	g.GET("/backlog", h.ListBacklog)
	g.POST("/backlog", h.CreateBacklogItem)
	g.GET("/backlog/:key", h.GetBacklogItem)
	g.PUT("/backlog/:key", h.UpdateBacklogItem)
	g.DELETE("/backlog/:key", h.DeleteBacklogItem)
	g.POST("/backlog/:key/promote", h.PromoteBacklogItem)

	g.GET("/glossary", h.ListGlossary)
	g.POST("/glossary", h.CreateGlossaryEntry)
	g.GET("/glossary/:key", h.GetGlossaryEntry)
	g.PUT("/glossary/:key", h.UpdateGlossaryEntry)
	g.DELETE("/glossary/:key", h.DeleteGlossaryEntry)
	g.POST("/glossary/:key/publish", h.PublishGlossaryEntry)
}

// RegisterPublic attaches the anonymous read routes used by the public site.
// They only ever return published rows.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/projects", h.ListProjects)
	rg.GET("/projects/:key", h.GetProject)
	rg.GET("/log", h.ListLogEntries)
	rg.GET("/log/:key", h.GetLogEntry)
	rg.GET("/glossary", h.ListGlossary)
	rg.GET("/glossary/:key", h.GetGlossaryEntry)
}
