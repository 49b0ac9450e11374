package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artyrk/filebox/internal/storage"
	"github.com/artyrk/filebox/internal/utils"
)

// HandleDownload streams the file behind a short code. Unknown and expired
// codes both answer 404.
func (h *Handler) HandleDownload(c echo.Context) error {
	code := c.Param("code")

	record, err := h.store.Fetch(code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.String(http.StatusNotFound, "File not found")
		}
		log.Printf("Error: Failed to look up %s: %v", code, err)
		return c.String(http.StatusInternalServerError, "Server error")
	}

	file, err := os.Open(record.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: Backing file missing for %s: %s", record.ShortCode, record.StoragePath)
			return c.String(http.StatusNotFound, "File not found")
		}
		log.Printf("Error: Failed to open file for download: %v", err)
		return c.String(http.StatusInternalServerError, "Failed to open file")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to stat file")
	}

	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	disposition := "attachment"
	if shouldDisplayInline(contentType) {
		disposition = "inline"
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, record.Filename))
	c.Response().Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))

	log.Printf("File served: %s (%s) to %s", record.Filename, utils.FormatFileSize(info.Size()), c.RealIP())
	return c.Stream(http.StatusOK, contentType, file)
}

// shouldDisplayInline determines if the content should be displayed inline in the browser
func shouldDisplayInline(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") ||
		strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "image/") ||
		contentType == "application/pdf" ||
		strings.HasPrefix(contentType, "text/")
}
