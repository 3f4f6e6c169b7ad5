package http

import (
	"github.com/folio-studio/folio-backend/internal/canvas/domain"
	"github.com/folio-studio/folio-backend/internal/canvas/service"
)

type Handler struct {
	canvases *service.CanvasService
}

func New(canvases *service.CanvasService) *Handler {
	return &Handler{canvases: canvases}
}

type addItemRequest struct {
	ExpectedVersion int    `json:"expected_version"`
	Block           string `json:"block"`
	domain.ItemInput
}

type updateItemRequest struct {
	ExpectedVersion int `json:"expected_version"`
	domain.ItemInput
}

type moveItemRequest struct {
	ExpectedVersion int    `json:"expected_version"`
	Block           string `json:"block"`
	Position        int    `json:"position"`
}

type conflictResponse struct {
	Error          string `json:"error"`
	Details        string `json:"details"`
	CurrentVersion int    `json:"current_version"`
}
