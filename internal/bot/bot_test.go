package bot

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyrk/filebox/internal/model"
)

func newTestFrontend(apiURL string) *Frontend {
	return &Frontend{
		cfg:     Config{Token: "test-token", APIURL: apiURL},
		client:  &http.Client{Timeout: 5 * time.Second},
		pending: make(map[int64]pendingUpload),
	}
}

func TestAttachmentFrom(t *testing.T) {
	testCases := []struct {
		name     string
		msg      *models.Message
		wantID   string
		wantName string
		wantOK   bool
	}{
		{
			name:     "document",
			msg:      &models.Message{Document: &models.Document{FileID: "doc-1", FileName: "report.pdf"}},
			wantID:   "doc-1",
			wantName: "report.pdf",
			wantOK:   true,
		},
		{
			name:     "document without name",
			msg:      &models.Message{Document: &models.Document{FileID: "doc-2"}},
			wantID:   "doc-2",
			wantName: "document",
			wantOK:   true,
		},
		{
			name: "photo picks largest size",
			msg: &models.Message{Photo: []models.PhotoSize{
				{FileID: "small", FileUniqueID: "u1"},
				{FileID: "large", FileUniqueID: "u2"},
			}},
			wantID:   "large",
			wantName: "photo_u2.jpg",
			wantOK:   true,
		},
		{
			name:     "video with name",
			msg:      &models.Message{Video: &models.Video{FileID: "vid-1", FileName: "clip.mp4"}},
			wantID:   "vid-1",
			wantName: "clip.mp4",
			wantOK:   true,
		},
		{
			name:     "audio without name",
			msg:      &models.Message{Audio: &models.Audio{FileID: "aud-1", FileUniqueID: "u3"}},
			wantID:   "aud-1",
			wantName: "audio_u3.mp3",
			wantOK:   true,
		},
		{
			name:   "plain text",
			msg:    &models.Message{Text: "hello"},
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fileID, fileName, ok := attachmentFrom(tc.msg)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantID, fileID)
				assert.Equal(t, tc.wantName, fileName)
			}
		})
	}
}

func TestExpirationKeyboard(t *testing.T) {
	kb := expirationKeyboard()

	var datas []string
	for _, row := range kb.InlineKeyboard {
		for _, button := range row {
			datas = append(datas, button.CallbackData)
		}
	}

	assert.Equal(t, []string{"exp_1d", "exp_7d", "exp_1m", "exp_never", "cancel"}, datas)
}

func TestTakePending(t *testing.T) {
	f := newTestFrontend("http://localhost:8080")

	f.pending[42] = pendingUpload{FileID: "file-1", FileName: "a.txt"}

	upload, ok := f.takePending(42)
	assert.True(t, ok)
	assert.Equal(t, "file-1", upload.FileID)

	// The entry is discarded on first take
	_, ok = f.takePending(42)
	assert.False(t, ok)
}

func TestUploadToService(t *testing.T) {
	var gotExpiration, gotFilename, gotContent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotExpiration = r.FormValue("expiration")

		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		gotContent = string(data)

		json.NewEncoder(w).Encode(model.UploadResponse{
			Filename:    header.Filename,
			ShortCode:   "abc123",
			DownloadURL: "/abc123",
		})
	}))
	defer server.Close()

	f := newTestFrontend(server.URL)

	resp, err := f.uploadToService("notes.txt", strings.NewReader("bot payload"), "7d")
	require.NoError(t, err)

	assert.Equal(t, "7d", gotExpiration)
	assert.Equal(t, "notes.txt", gotFilename)
	assert.Equal(t, "bot payload", gotContent)
	assert.Equal(t, "abc123", resp.ShortCode)
	assert.Equal(t, "/abc123", resp.DownloadURL)
}

func TestUploadToServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newTestFrontend(server.URL)

	_, err := f.uploadToService("broken.txt", strings.NewReader("x"), "never")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestAbsoluteLink(t *testing.T) {
	f := newTestFrontend("http://box.example.com/")

	assert.Equal(t, "http://box.example.com/abc123", f.absoluteLink("/abc123"))
	assert.Equal(t, "http://box.example.com/abc123", f.absoluteLink("abc123"))
	assert.Equal(t, "https://other.example.com/x", f.absoluteLink("https://other.example.com/x"))
}
