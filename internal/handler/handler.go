package handler

import (
	"github.com/artyrk/filebox/internal/config"
	"github.com/artyrk/filebox/internal/storage"
)

// Handler handles HTTP requests
type Handler struct {
	store *storage.Store
	cfg   *config.Config
}

// NewHandler creates a new handler
func NewHandler(store *storage.Store, cfg *config.Config) *Handler {
	return &Handler{
		store: store,
		cfg:   cfg,
	}
}
