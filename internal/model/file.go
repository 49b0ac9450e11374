package model

import "time"

// StoredFile is the registry record for a single uploaded file or archive.
// Records are immutable once created; they are only ever inserted and deleted.
type StoredFile struct {
	ID          int64      `json:"id"`
	Filename    string     `json:"filename"`
	ShortCode   string     `json:"short_code"`
	ContentType string     `json:"content_type"`
	StoragePath string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// DownloadPath returns the relative download URL for the record.
func (f *StoredFile) DownloadPath() string {
	return "/" + f.ShortCode
}

// Expired reports whether the record is past its expiration time.
// Records without an expiration never expire.
func (f *StoredFile) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && f.ExpiresAt.Before(now)
}

// UploadResponse is the body returned to a successful upload.
type UploadResponse struct {
	Filename    string `json:"filename"`
	ShortCode   string `json:"short_code"`
	DownloadURL string `json:"download_url"`
}

// AdminFileInfo is a registry record as exposed by the admin listing,
// with the derived download URL included.
type AdminFileInfo struct {
	StoredFile
	DownloadURL string `json:"download_url"`
}
