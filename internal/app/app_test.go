package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyrk/filebox/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	tempDir := t.TempDir()
	return &config.Config{
		Port:           0,
		BaseURL:        "http://localhost:8080",
		UploadPath:     filepath.Join(tempDir, "uploads"),
		SQLitePath:     filepath.Join(tempDir, "test.db"),
		CodeLength:     6,
		MaxSize:        64.0,
		SweepInterval:  60,
		SweeperEnabled: true,
	}
}

func TestNewWithConfigCreatesUploadDir(t *testing.T) {
	cfg := testConfig(t)

	application, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer application.Stop()

	info, err := os.Stat(cfg.UploadPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewWithConfigInvalidDBPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLitePath = "/invalid/path/that/does/not/exist/test.db"

	_, err := NewWithConfig(cfg)
	assert.Error(t, err)
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 18099

	application, err := NewWithConfig(cfg)
	require.NoError(t, err)

	application.Start()
	defer application.Stop()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, application.Shutdown(ctx))
}
