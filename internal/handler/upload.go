package handler

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/artyrk/filebox/internal/model"
	"github.com/artyrk/filebox/internal/storage"
)

// HandleUpload accepts a multipart batch of files plus an optional
// "expiration" form field and stores it under a fresh short code.
func (h *Handler) HandleUpload(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.cfg.MaxSizeToBytes())

	form, err := c.MultipartForm()
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid multipart form")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return c.String(http.StatusBadRequest, "No files provided")
	}

	uploads := make([]storage.Upload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return c.String(http.StatusBadRequest, "Failed to read uploaded file")
		}
		opened = append(opened, f)

		uploads = append(uploads, storage.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Reader:      f,
		})
	}

	expiration := c.FormValue("expiration")

	record, err := h.store.Save(uploads, expiration)
	if err != nil {
		if errors.Is(err, storage.ErrNoFiles) {
			return c.String(http.StatusBadRequest, "No files provided")
		}
		log.Printf("Error: Upload failed: %v", err)
		return c.String(http.StatusInternalServerError, "Server error")
	}

	log.Printf("Stored %s as %s (expires: %v)", record.Filename, record.ShortCode, record.ExpiresAt)

	return c.JSON(http.StatusOK, model.UploadResponse{
		Filename:    record.Filename,
		ShortCode:   record.ShortCode,
		DownloadURL: record.DownloadPath(),
	})
}
