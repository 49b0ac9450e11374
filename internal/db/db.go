// Package db implements the storage registry: the durable mapping from
// short codes to stored-file metadata.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/artyrk/filebox/internal/config"
	"github.com/artyrk/filebox/internal/migration"
	"github.com/artyrk/filebox/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode is returned when an insert collides with an existing
	// short code. Callers resolve it by generating a fresh code.
	ErrDuplicateCode = errors.New("short code already in use")
)

type DB struct {
	*sql.DB
}

// NewDB opens the SQLite registry and ensures the schema exists.
func NewDB(cfg *config.Config) (*DB, error) {
	db, err := sql.Open("sqlite3", cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// The UNIQUE constraint on short_code (see the migrations) is the safety
	// net behind the generator's retry loop.
	if err := migration.Run(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Insert stores a new record and assigns its ID. Returns ErrDuplicateCode
// when the short code is already taken.
func (db *DB) Insert(f *model.StoredFile) error {
	// Stored in UTC so the registry's timestamp comparisons are stable
	var expiresAt sql.NullTime
	if f.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: f.ExpiresAt.UTC(), Valid: true}
	}

	res, err := db.Exec(`
		INSERT INTO files (filename, short_code, content_type, storage_path, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.Filename, f.ShortCode, f.ContentType, f.StoragePath, f.CreatedAt.UTC(), expiresAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateCode
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

// GetByCode retrieves a record by its short code.
func (db *DB) GetByCode(code string) (model.StoredFile, error) {
	return db.getOne("SELECT id, filename, short_code, content_type, storage_path, created_at, expires_at FROM files WHERE short_code = ?", code)
}

// GetByID retrieves a record by its numeric id.
func (db *DB) GetByID(id int64) (model.StoredFile, error) {
	return db.getOne("SELECT id, filename, short_code, content_type, storage_path, created_at, expires_at FROM files WHERE id = ?", id)
}

func (db *DB) getOne(query string, arg any) (model.StoredFile, error) {
	var f model.StoredFile
	var expiresAt sql.NullTime

	err := db.QueryRow(query, arg).Scan(
		&f.ID, &f.Filename, &f.ShortCode, &f.ContentType, &f.StoragePath, &f.CreatedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, ErrNotFound
		}
		return f, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		f.ExpiresAt = &t
	}
	return f, nil
}

// FindExpired returns all records whose expiration time is set and earlier
// than asOf.
func (db *DB) FindExpired(asOf time.Time) ([]model.StoredFile, error) {
	rows, err := db.Query(`
		SELECT id, filename, short_code, content_type, storage_path, created_at, expires_at
		FROM files
		WHERE expires_at IS NOT NULL AND expires_at < ?
	`, asOf.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFiles(rows)
}

// ListAll returns every record in the registry.
func (db *DB) ListAll() ([]model.StoredFile, error) {
	rows, err := db.Query(`
		SELECT id, filename, short_code, content_type, storage_path, created_at, expires_at
		FROM files
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFiles(rows)
}

// Delete removes a record by id. Deleting an id that no longer exists is a
// no-op, so a sweep racing an admin delete never errors.
func (db *DB) Delete(id int64) error {
	stmt, err := db.Prepare("DELETE FROM files WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(id)
	return err
}

// Count returns the number of records in the registry.
func (db *DB) Count() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n)
	return n, err
}

func scanFiles(rows *sql.Rows) ([]model.StoredFile, error) {
	var files []model.StoredFile

	for rows.Next() {
		var f model.StoredFile
		var expiresAt sql.NullTime

		err := rows.Scan(&f.ID, &f.Filename, &f.ShortCode, &f.ContentType, &f.StoragePath, &f.CreatedAt, &expiresAt)
		if err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			f.ExpiresAt = &t
		}

		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return files, nil
}
