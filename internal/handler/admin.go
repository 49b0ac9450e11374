package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/artyrk/filebox/internal/storage"
)

// HandleAdminList returns every registry record with its download URL.
func (h *Handler) HandleAdminList(c echo.Context) error {
	files, err := h.store.List()
	if err != nil {
		log.Printf("Error listing files for admin: %v", err)
		return c.String(http.StatusInternalServerError, "Failed to list files")
	}

	return c.JSON(http.StatusOK, files)
}

// HandleAdminDelete removes a record and its backing file by numeric id.
func (h *Handler) HandleAdminDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid file id")
	}

	if err := h.store.DeleteByID(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.String(http.StatusNotFound, "File not found")
		}
		log.Printf("Error deleting file %d: %v", id, err)
		return c.String(http.StatusInternalServerError, "Failed to delete file")
	}

	log.Printf("Admin deleted file id %d", id)
	return c.JSON(http.StatusOK, map[string]string{"message": "File deleted successfully"})
}
