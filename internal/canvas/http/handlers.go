package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httpapi "github.com/folio-studio/folio-backend/internal/api/http"
	"github.com/folio-studio/folio-backend/internal/auth"
	"github.com/folio-studio/folio-backend/internal/canvas/domain"
	"github.com/folio-studio/folio-backend/internal/canvas/service"
)

func writeError(c *gin.Context, err error) {
	var vc *domain.VersionConflictError
	switch {
	case errors.As(err, &vc):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusConflict, conflictResponse{
			Error:          "version conflict",
			Details:        "the canvas changed since it was loaded; refetch and try again",
			CurrentVersion: vc.Current,
		})
	case errors.Is(err, domain.ErrNotFound):
		httpapi.Error(c, http.StatusNotFound, "not found", err)
	case errors.Is(err, domain.ErrValidation):
		httpapi.Error(c, http.StatusBadRequest, "validation failed", err)
	case errors.Is(err, domain.ErrForbidden):
		httpapi.Error(c, http.StatusForbidden, "forbidden", err)
	default:
		httpapi.Error(c, http.StatusInternalServerError, "internal error", err)
	}
}

func ref(c *gin.Context, expected int) service.Ref {
	return service.Ref{Kind: c.Param("kind"), ID: c.Param("id"), ExpectedVersion: expected}
}

func (h *Handler) ListCanvases(c *gin.Context) {
	out, err := h.canvases.ListCanvases(c.Request.Context(), auth.ProfileFrom(c), c.Param("kind"), c.Query("studio_project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canvases": out})
}

func (h *Handler) GetCanvas(c *gin.Context) {
	out, err := h.canvases.GetCanvas(c.Request.Context(), auth.ProfileFrom(c), c.Param("kind"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canvas": out})
}

func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	canvas, item, err := h.canvases.AddItem(c.Request.Context(), auth.ProfileFrom(c), ref(c, req.ExpectedVersion), req.Block, req.ItemInput)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"canvas": canvas, "item": item})
}

func (h *Handler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	canvas, item, err := h.canvases.UpdateItem(c.Request.Context(), auth.ProfileFrom(c), ref(c, req.ExpectedVersion), c.Param("item"), req.ItemInput)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canvas": canvas, "item": item})
}

func (h *Handler) MoveItem(c *gin.Context) {
	var req moveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	canvas, item, err := h.canvases.MoveItem(c.Request.Context(), auth.ProfileFrom(c), ref(c, req.ExpectedVersion), c.Param("item"), req.Block, req.Position)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canvas": canvas, "item": item})
}

// DeleteItem takes expected_version as a query parameter.
func (h *Handler) DeleteItem(c *gin.Context) {
	expected, err := strconv.Atoi(c.Query("expected_version"))
	if err != nil {
		httpapi.Error(c, http.StatusBadRequest, "expected_version query parameter is required", err)
		return
	}
	canvas, err := h.canvases.DeleteItem(c.Request.Context(), auth.ProfileFrom(c), ref(c, expected), c.Param("item"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canvas": canvas})
}
