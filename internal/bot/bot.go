// Package bot is the Telegram front end: it receives a file from a chat,
// asks for an expiration choice and relays the upload to the filebox HTTP
// boundary.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/artyrk/filebox/internal/model"
)

const welcomeText = "Welcome to filebox!\n\nSend me a file (document, photo, audio or video) to upload."

// Config holds the bot's runtime settings.
type Config struct {
	Token  string // Telegram bot token
	APIURL string // Base URL of the filebox service
}

// pendingUpload is the single per-chat upload awaiting an expiration choice.
type pendingUpload struct {
	FileID   string
	FileName string
}

// Frontend is a long-polling Telegram bot holding one pending upload per
// conversation. The pending entry is discarded as soon as its expiration
// callback starts being handled.
type Frontend struct {
	cfg    Config
	client *http.Client
	tg     *tgbot.Bot

	mu      sync.Mutex
	pending map[int64]pendingUpload
}

// New creates the bot and registers its handlers.
func New(cfg Config) (*Frontend, error) {
	f := &Frontend{
		cfg:     cfg,
		client:  &http.Client{Timeout: 5 * time.Minute},
		pending: make(map[int64]pendingUpload),
	}

	tg, err := tgbot.New(cfg.Token,
		tgbot.WithDefaultHandler(f.handleMessage),
		tgbot.WithCallbackQueryDataHandler("exp_", tgbot.MatchTypePrefix, f.handleExpiration),
		tgbot.WithCallbackQueryDataHandler("cancel", tgbot.MatchTypeExact, f.handleCancel),
		tgbot.WithMessageTextHandler("/start", tgbot.MatchTypeExact, f.handleStart),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	f.tg = tg

	return f, nil
}

// Run starts long-polling and blocks until ctx is cancelled.
func (f *Frontend) Run(ctx context.Context) {
	log.Println("Bot started")
	f.tg.Start(ctx)
}

func (f *Frontend) handleStart(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   welcomeText,
	})
}

func (f *Frontend) handleMessage(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	fileID, fileName, ok := attachmentFrom(update.Message)
	if !ok {
		return
	}

	chatID := update.Message.Chat.ID
	f.mu.Lock()
	f.pending[chatID] = pendingUpload{FileID: fileID, FileName: fileName}
	f.mu.Unlock()

	b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf("File received: %s\n\nChoose an expiration:", fileName),
		ReplyMarkup: expirationKeyboard(),
	})
}

func (f *Frontend) handleExpiration(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	query := update.CallbackQuery
	b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: query.ID})

	msg := query.Message.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID
	expiration := strings.TrimPrefix(query.Data, "exp_")

	upload, ok := f.takePending(chatID)
	if !ok {
		f.editMessage(ctx, b, chatID, msg.ID, "File information was lost. Please send the file again.")
		return
	}

	f.editMessage(ctx, b, chatID, msg.ID, fmt.Sprintf("Uploading %s (%s)...", upload.FileName, expiration))

	result, err := f.relayUpload(ctx, b, upload, expiration)
	if err != nil {
		log.Printf("Error: Upload relay failed: %v", err)
		f.editMessage(ctx, b, chatID, msg.ID, fmt.Sprintf("Upload failed: %v", err))
		return
	}

	link := f.absoluteLink(result.DownloadURL)
	f.editMessage(ctx, b, chatID, msg.ID, fmt.Sprintf(
		"Uploaded!\n\nFile: %s\nExpiration: %s\nLink: %s",
		result.Filename, expiration, link,
	))
}

func (f *Frontend) handleCancel(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	query := update.CallbackQuery
	b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: query.ID})

	msg := query.Message.Message
	if msg == nil {
		return
	}

	f.takePending(msg.Chat.ID)
	f.editMessage(ctx, b, msg.Chat.ID, msg.ID, "Cancelled.")
}

// relayUpload pulls the file from Telegram and posts it to the service.
func (f *Frontend) relayUpload(ctx context.Context, b *tgbot.Bot, upload pendingUpload, expiration string) (*model.UploadResponse, error) {
	tgFile, err := b.GetFile(ctx, &tgbot.GetFileParams{FileID: upload.FileID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file info: %w", err)
	}

	resp, err := f.client.Get(b.FileDownloadLink(tgFile))
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	return f.uploadToService(upload.FileName, resp.Body, expiration)
}

// uploadToService performs the multipart POST against the filebox /upload
// endpoint.
func (f *Frontend) uploadToService(fileName string, content io.Reader, expiration string) (*model.UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("files", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to buffer file: %w", err)
	}
	if err := writer.WriteField("expiration", expiration); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	uploadURL := strings.TrimSuffix(f.cfg.APIURL, "/") + "/upload"
	resp, err := f.client.Post(uploadURL, writer.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var result model.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("invalid upload response: %w", err)
	}
	return &result, nil
}

func (f *Frontend) takePending(chatID int64) (pendingUpload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	upload, ok := f.pending[chatID]
	delete(f.pending, chatID)
	return upload, ok
}

func (f *Frontend) editMessage(ctx context.Context, b *tgbot.Bot, chatID int64, messageID int, text string) {
	_, err := b.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil {
		log.Printf("Warning: Failed to edit message: %v", err)
	}
}

// absoluteLink turns the service's relative download path into a full URL.
func (f *Frontend) absoluteLink(downloadURL string) string {
	if strings.HasPrefix(downloadURL, "http://") || strings.HasPrefix(downloadURL, "https://") {
		return downloadURL
	}
	return strings.TrimSuffix(f.cfg.APIURL, "/") + "/" + strings.TrimPrefix(downloadURL, "/")
}

// attachmentFrom extracts the uploadable attachment from a chat message.
// Photos have no filename on Telegram, so one is synthesized.
func attachmentFrom(msg *models.Message) (fileID, fileName string, ok bool) {
	switch {
	case msg.Document != nil:
		name := msg.Document.FileName
		if name == "" {
			name = "document"
		}
		return msg.Document.FileID, name, true
	case len(msg.Photo) > 0:
		// Last entry is the largest size
		photo := msg.Photo[len(msg.Photo)-1]
		return photo.FileID, fmt.Sprintf("photo_%s.jpg", photo.FileUniqueID), true
	case msg.Video != nil:
		name := msg.Video.FileName
		if name == "" {
			name = fmt.Sprintf("video_%s.mp4", msg.Video.FileUniqueID)
		}
		return msg.Video.FileID, name, true
	case msg.Audio != nil:
		name := msg.Audio.FileName
		if name == "" {
			name = fmt.Sprintf("audio_%s.mp3", msg.Audio.FileUniqueID)
		}
		return msg.Audio.FileID, name, true
	}
	return "", "", false
}

// expirationKeyboard builds the inline keyboard with the four retention
// choices plus cancel.
func expirationKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "1 day", CallbackData: "exp_1d"},
				{Text: "7 days", CallbackData: "exp_7d"},
			},
			{
				{Text: "1 month", CallbackData: "exp_1m"},
				{Text: "Never", CallbackData: "exp_never"},
			},
			{
				{Text: "Cancel", CallbackData: "cancel"},
			},
		},
	}
}
