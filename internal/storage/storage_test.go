package storage

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyrk/filebox/internal/config"
	"github.com/artyrk/filebox/internal/db"
)

func setupTestStore(t *testing.T) (*Store, *db.DB, string) {
	tempDir := t.TempDir()

	cfg := &config.Config{
		UploadPath: tempDir,
		SQLitePath: filepath.Join(tempDir, "test.db"),
		CodeLength: 6,
		MaxSize:    64.0,
	}

	database, err := db.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewStore(cfg, database), database, tempDir
}

func TestExpiresAt(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		choice string
		want   time.Duration
		never  bool
	}{
		{choice: "1d", want: 24 * time.Hour},
		{choice: "7d", want: 7 * 24 * time.Hour},
		{choice: "1m", want: 30 * 24 * time.Hour},
		{choice: "never", never: true},
		{choice: "", never: true},
		{choice: "bogus", never: true},
	}

	for _, tc := range testCases {
		t.Run(tc.choice, func(t *testing.T) {
			got := ExpiresAt(tc.choice, now)
			if tc.never {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, now.Add(tc.want), *got)
		})
	}
}

func TestSaveSingleFile(t *testing.T) {
	store, _, tempDir := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "report.txt", ContentType: "text/plain", Reader: strings.NewReader("hello world")},
	}, "never")
	require.NoError(t, err)

	assert.Greater(t, record.ID, int64(0))
	assert.Equal(t, "report.txt", record.Filename)
	assert.Len(t, record.ShortCode, 6)
	assert.Equal(t, "text/plain", record.ContentType)
	assert.Nil(t, record.ExpiresAt)
	assert.Equal(t, filepath.Join(tempDir, record.ShortCode+"_report.txt"), record.StoragePath)

	data, err := os.ReadFile(record.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestSaveDetectsContentType(t *testing.T) {
	store, _, _ := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "page.html", Reader: strings.NewReader("<!DOCTYPE html><html><body>hi</body></html>")},
	}, "never")
	require.NoError(t, err)

	assert.Contains(t, record.ContentType, "text/html")
}

func TestSaveWithExpiration(t *testing.T) {
	store, _, _ := setupTestStore(t)

	before := time.Now()
	record, err := store.Save([]Upload{
		{Name: "temp.txt", ContentType: "text/plain", Reader: strings.NewReader("short lived")},
	}, "1d")
	require.NoError(t, err)

	require.NotNil(t, record.ExpiresAt)
	assert.WithinDuration(t, before.Add(24*time.Hour), *record.ExpiresAt, time.Minute)
}

func TestSaveMultipleFilesBuildsArchive(t *testing.T) {
	store, _, tempDir := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "file1.txt", Reader: strings.NewReader("Content 1")},
		{Name: "file2.txt", Reader: strings.NewReader("Content 2")},
	}, "never")
	require.NoError(t, err)

	assert.Equal(t, "archive_"+record.ShortCode+".zip", record.Filename)
	assert.Equal(t, "application/zip", record.ContentType)
	assert.Equal(t, filepath.Join(tempDir, record.Filename), record.StoragePath)

	zr, err := zip.OpenReader(record.StoragePath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	assert.Equal(t, "file1.txt", zr.File[0].Name)
	assert.Equal(t, "file2.txt", zr.File[1].Name)
}

func TestSaveEmptyBatch(t *testing.T) {
	store, _, _ := setupTestStore(t)

	_, err := store.Save(nil, "never")
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestSaveCodesAreUnique(t *testing.T) {
	store, _, _ := setupTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		record, err := store.Save([]Upload{
			{Name: fmt.Sprintf("file%d.txt", i), ContentType: "text/plain", Reader: strings.NewReader("x")},
		}, "never")
		require.NoError(t, err)

		assert.False(t, seen[record.ShortCode], "code %s allocated twice", record.ShortCode)
		seen[record.ShortCode] = true
	}
}

func TestFetch(t *testing.T) {
	store, _, _ := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "keep.txt", ContentType: "text/plain", Reader: strings.NewReader("keep me")},
	}, "never")
	require.NoError(t, err)

	got, err := store.Fetch(record.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.StoragePath, got.StoragePath)
}

func TestFetchUnknownCode(t *testing.T) {
	store, _, _ := setupTestStore(t)

	_, err := store.Fetch("nosuch")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchExpiredRecordIsNotFound(t *testing.T) {
	store, database, _ := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "stale.txt", ContentType: "text/plain", Reader: strings.NewReader("stale")},
	}, "1d")
	require.NoError(t, err)

	// Rewrite the record with an expiration one second in the past; the
	// sweeper has not run, yet the record must already be unreachable.
	expired := time.Now().Add(-time.Second)
	require.NoError(t, database.Delete(record.ID))
	record.ExpiresAt = &expired
	require.NoError(t, database.Insert(&record))

	_, err = store.Fetch(record.ShortCode)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	store, _, _ := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "listed.txt", ContentType: "text/plain", Reader: strings.NewReader("listed")},
	}, "never")
	require.NoError(t, err)

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, record.ShortCode, infos[0].ShortCode)
	assert.Equal(t, "/"+record.ShortCode, infos[0].DownloadURL)
}

func TestDeleteByID(t *testing.T) {
	store, _, _ := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "gone.txt", ContentType: "text/plain", Reader: strings.NewReader("gone soon")},
	}, "never")
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(record.ID))

	_, err = os.Stat(record.StoragePath)
	assert.True(t, os.IsNotExist(err), "backing file should be removed")

	_, err = store.Fetch(record.ShortCode)
	assert.ErrorIs(t, err, ErrNotFound)

	// Id is gone, so a repeat admin delete reports not found
	assert.ErrorIs(t, store.DeleteByID(record.ID), ErrNotFound)
}

func TestDeleteByIDToleratesMissingFile(t *testing.T) {
	store, _, _ := setupTestStore(t)

	record, err := store.Save([]Upload{
		{Name: "vanished.txt", ContentType: "text/plain", Reader: strings.NewReader("bytes")},
	}, "never")
	require.NoError(t, err)

	require.NoError(t, os.Remove(record.StoragePath))

	// Record removal proceeds even though the file is already gone
	assert.NoError(t, store.DeleteByID(record.ID))
}

func TestDeleteByIDUnknown(t *testing.T) {
	store, _, _ := setupTestStore(t)

	assert.ErrorIs(t, store.DeleteByID(99999), ErrNotFound)
}
