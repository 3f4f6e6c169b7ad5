package http

import "github.com/folio-studio/folio-backend/internal/content/service"

type Handler struct {
	content *service.ContentService
}

func New(content *service.ContentService) *Handler {
	return &Handler{content: content}
}
