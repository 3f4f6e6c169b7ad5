package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httpapi "github.com/folio-studio/folio-backend/internal/api/http"
	"github.com/folio-studio/folio-backend/internal/auth"
	"github.com/folio-studio/folio-backend/internal/content/domain"
)

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpapi.Error(c, http.StatusNotFound, "not found", nil)
	case errors.Is(err, domain.ErrValidation):
		httpapi.Error(c, http.StatusBadRequest, "validation failed", err)
	case errors.Is(err, domain.ErrConflict):
		httpapi.Error(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, domain.ErrForbidden):
		httpapi.Error(c, http.StatusForbidden, "forbidden", err)
	default:
		httpapi.Error(c, http.StatusInternalServerError, "internal error", err)
	}
}

func listFilter(c *gin.Context) (domain.ListFilter, error) {
	f := domain.ListFilter{
		Status:          c.Query("status"),
		StudioProjectID: c.Query("studio_project_id"),
	}
	var err error
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, errors.New("limit must be an integer")
		}
	}
	if v := c.Query("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil {
			return f, errors.New("offset must be an integer")
		}
	}
	return f, nil
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// Projects

func (h *Handler) ListProjects(c *gin.Context) {
	f, err := listFilter(c)
	if err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	out, err := h.content.ListProjects(c.Request.Context(), auth.ProfileFrom(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

func (h *Handler) GetProject(c *gin.Context) {
	out, err := h.content.GetProject(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": out})
}

func (h *Handler) CreateProject(c *gin.Context) {
	var in domain.ProjectInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.CreateProject(c.Request.Context(), auth.ProfileFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": out})
}

func (h *Handler) UpdateProject(c *gin.Context) {
	var in domain.ProjectInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.UpdateProject(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": out})
}

func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.content.DeleteProject(c.Request.Context(), auth.ProfileFrom(c), c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Log entries

func (h *Handler) ListLogEntries(c *gin.Context) {
	f, err := listFilter(c)
	if err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	out, err := h.content.ListLogEntries(c.Request.Context(), auth.ProfileFrom(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

func (h *Handler) GetLogEntry(c *gin.Context) {
	out, err := h.content.GetLogEntry(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": out})
}

func (h *Handler) CreateLogEntry(c *gin.Context) {
	var in domain.LogEntryInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.CreateLogEntry(c.Request.Context(), auth.ProfileFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": out})
}

func (h *Handler) UpdateLogEntry(c *gin.Context) {
	var in domain.LogEntryInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.UpdateLogEntry(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": out})
}

func (h *Handler) DeleteLogEntry(c *gin.Context) {
	if err := h.content.DeleteLogEntry(c.Request.Context(), auth.ProfileFrom(c), c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Backlog

func (h *Handler) ListBacklog(c *gin.Context) {
	f, err := listFilter(c)
	if err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	out, err := h.content.ListBacklog(c.Request.Context(), auth.ProfileFrom(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *Handler) GetBacklogItem(c *gin.Context) {
	out, err := h.content.GetBacklogItem(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": out})
}

func (h *Handler) CreateBacklogItem(c *gin.Context) {
	var in domain.BacklogItemInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.CreateBacklogItem(c.Request.Context(), auth.ProfileFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": out})
}

func (h *Handler) UpdateBacklogItem(c *gin.Context) {
	var in domain.BacklogItemInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.UpdateBacklogItem(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": out})
}

func (h *Handler) DeleteBacklogItem(c *gin.Context) {
	if err := h.content.DeleteBacklogItem(c.Request.Context(), auth.ProfileFrom(c), c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PromoteBacklogItem accepts an optional body overriding the log entry's
// slug, title, body, date and status.
func (h *Handler) PromoteBacklogItem(c *gin.Context) {
	var in domain.PromoteInput
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	out, err := h.content.PromoteBacklogItem(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Glossary

func (h *Handler) ListGlossary(c *gin.Context) {
	f, err := listFilter(c)
	if err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	out, err := h.content.ListGlossary(c.Request.Context(), auth.ProfileFrom(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

func (h *Handler) GetGlossaryEntry(c *gin.Context) {
	out, err := h.content.GetGlossaryEntry(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": out})
}

func (h *Handler) CreateGlossaryEntry(c *gin.Context) {
	var in domain.GlossaryEntryInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.CreateGlossaryEntry(c.Request.Context(), auth.ProfileFrom(c), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": out})
}

func (h *Handler) UpdateGlossaryEntry(c *gin.Context) {
	var in domain.GlossaryEntryInput
	if !bind(c, &in) {
		return
	}
	out, err := h.content.UpdateGlossaryEntry(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": out})
}

func (h *Handler) PublishGlossaryEntry(c *gin.Context) {
	out, err := h.content.PublishGlossaryEntry(c.Request.Context(), auth.ProfileFrom(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": out})
}

func (h *Handler) DeleteGlossaryEntry(c *gin.Context) {
	if err := h.content.DeleteGlossaryEntry(c.Request.Context(), auth.ProfileFrom(c), c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
