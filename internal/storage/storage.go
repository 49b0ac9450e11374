// Package storage is the upload/download gateway. It orchestrates short code
// allocation, multi-file archival, byte persistence and the registry so that
// a record and its backing file always appear and disappear together.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/artyrk/filebox/internal/archive"
	"github.com/artyrk/filebox/internal/config"
	"github.com/artyrk/filebox/internal/db"
	"github.com/artyrk/filebox/internal/model"
	"github.com/artyrk/filebox/internal/shortcode"
)

var (
	// ErrNotFound covers unknown codes and ids. Expired records are reported
	// as not found as well; the distinction is never exposed.
	ErrNotFound = errors.New("file not found")
	// ErrNoFiles is returned when an upload batch is empty.
	ErrNoFiles = errors.New("no files provided")
	// ErrCodeSpaceExhausted is returned when code generation keeps colliding
	// past the retry cap.
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique short code")
)

// maxCodeAttempts bounds the generate-and-check loop so a pathological
// random source cannot spin forever.
const maxCodeAttempts = 32

const fallbackContentType = "application/octet-stream"

// Upload is a single named byte stream in an upload batch.
type Upload struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Store is the gateway over the registry and the upload directory.
type Store struct {
	cfg *config.Config
	db  *db.DB
}

func NewStore(cfg *config.Config, database *db.DB) *Store {
	return &Store{cfg: cfg, db: database}
}

// ExpiresAt maps an expiration selector to an absolute expiration time.
// Unknown selectors behave like "never", matching the upload form's default.
func ExpiresAt(choice string, now time.Time) *time.Time {
	var d time.Duration
	switch choice {
	case "1d":
		d = 24 * time.Hour
	case "7d":
		d = 7 * 24 * time.Hour
	case "1m":
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	t := now.Add(d)
	return &t
}

// Save persists an upload batch and returns the new registry record.
// Batches with more than one file are bundled into a zip archive first.
// Bytes hit the disk before the record is inserted, so a failed upload never
// leaves a partial record behind.
func (s *Store) Save(uploads []Upload, expiration string) (model.StoredFile, error) {
	if len(uploads) == 0 {
		return model.StoredFile{}, ErrNoFiles
	}

	now := time.Now()

	code, err := s.reserveCode()
	if err != nil {
		return model.StoredFile{}, err
	}

	record := model.StoredFile{
		ShortCode: code,
		CreatedAt: now,
		ExpiresAt: ExpiresAt(expiration, now),
	}

	isArchive := len(uploads) > 1
	if isArchive {
		record.Filename = "archive_" + code + ".zip"
		record.ContentType = "application/zip"
		record.StoragePath = filepath.Join(s.cfg.UploadPath, record.Filename)

		if err := s.writeArchive(record.StoragePath, uploads); err != nil {
			return model.StoredFile{}, err
		}
	} else {
		f := uploads[0]
		record.Filename = filepath.Base(f.Name)
		if record.Filename == "" || record.Filename == "." {
			record.Filename = "upload"
		}
		record.StoragePath = filepath.Join(s.cfg.UploadPath, code+"_"+record.Filename)

		if err := writeFile(record.StoragePath, f.Reader); err != nil {
			return model.StoredFile{}, err
		}

		record.ContentType = f.ContentType
		if record.ContentType == "" {
			record.ContentType = detectContentType(record.StoragePath)
		}
	}

	return s.insertWithRetry(record, isArchive)
}

// insertWithRetry inserts the record, re-coding on a short code race. The
// registry's UNIQUE constraint decides the race; the loser keeps its bytes
// and renames them under a fresh code.
func (s *Store) insertWithRetry(record model.StoredFile, isArchive bool) (model.StoredFile, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		err := s.db.Insert(&record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, db.ErrDuplicateCode) {
			if rmErr := os.Remove(record.StoragePath); rmErr != nil {
				log.Printf("Warning: Failed to clean up %s after insert error: %v", record.StoragePath, rmErr)
			}
			return model.StoredFile{}, err
		}

		code, err := s.reserveCode()
		if err != nil {
			os.Remove(record.StoragePath)
			return model.StoredFile{}, err
		}

		oldPath := record.StoragePath
		record.ShortCode = code
		if isArchive {
			record.Filename = "archive_" + code + ".zip"
			record.StoragePath = filepath.Join(s.cfg.UploadPath, record.Filename)
		} else {
			record.StoragePath = filepath.Join(s.cfg.UploadPath, code+"_"+record.Filename)
		}
		if err := os.Rename(oldPath, record.StoragePath); err != nil {
			return model.StoredFile{}, fmt.Errorf("failed to relocate upload: %w", err)
		}
	}

	os.Remove(record.StoragePath)
	return model.StoredFile{}, ErrCodeSpaceExhausted
}

// Fetch resolves a short code to its record. Expired records are treated as
// absent even before the sweeper has removed them.
func (s *Store) Fetch(code string) (model.StoredFile, error) {
	record, err := s.db.GetByCode(code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.StoredFile{}, ErrNotFound
		}
		return model.StoredFile{}, err
	}

	if record.Expired(time.Now()) {
		return model.StoredFile{}, ErrNotFound
	}
	return record, nil
}

// List returns every registry record with its derived download URL.
func (s *Store) List() ([]model.AdminFileInfo, error) {
	records, err := s.db.ListAll()
	if err != nil {
		return nil, err
	}

	infos := make([]model.AdminFileInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, model.AdminFileInfo{
			StoredFile:  r,
			DownloadURL: r.DownloadPath(),
		})
	}
	return infos, nil
}

// DeleteByID removes a record and its backing file. A missing or undeletable
// file is logged and does not block record removal.
func (s *Store) DeleteByID(id int64) error {
	record, err := s.db.GetByID(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := os.Remove(record.StoragePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Failed to delete file %s: %v", record.StoragePath, err)
	}

	return s.db.Delete(record.ID)
}

// reserveCode generates codes until one is free in the registry, up to the
// retry cap.
func (s *Store) reserveCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := shortcode.Generate(s.cfg.CodeLength)
		if err != nil {
			return "", err
		}

		_, err = s.db.GetByCode(code)
		if errors.Is(err, db.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (s *Store) writeArchive(path string, uploads []Upload) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer dst.Close()

	entries := make([]archive.Entry, 0, len(uploads))
	for _, f := range uploads {
		entries = append(entries, archive.Entry{Name: f.Name, Reader: f.Reader})
	}

	if err := archive.Build(dst, entries); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func writeFile(path string, r io.Reader) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

func detectContentType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fallbackContentType
	}
	return mtype.String()
}
