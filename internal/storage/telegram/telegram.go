package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/shiftmate/mediaflow-service/internal/config"
	"github.com/shiftmate/mediaflow-service/internal/storage"
	"github.com/shiftmate/mediaflow-service/internal/types"
)

// Backend talks to the Telegram Bot API. In telegram storage mode it only
// records file metadata; for object-store persistence it streams the file's
// bytes from Telegram's file endpoint.
type Backend struct {
	apiBase string
	token   string
	client  *http.Client
}

type fileResult struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size"`
	FilePath     string `json:"file_path"`
}

type getFileResponse struct {
	OK          bool       `json:"ok"`
	Description string     `json:"description"`
	Result      fileResult `json:"result"`
}

// NewBackend creates a new Telegram backend instance
func NewBackend(cfg *config.Config) *Backend {
	return &Backend{
		apiBase: strings.TrimSuffix(cfg.Telegram.APIBase, "/"),
		token:   cfg.Telegram.BotToken,
		client: &http.Client{
			Timeout: time.Duration(cfg.Telegram.RequestTimeout) * time.Second,
		},
	}
}

// Describe resolves file metadata without transferring any bytes. The
// returned descriptor keeps the platform file id as its reference.
func (b *Backend) Describe(ctx context.Context, fileRef string) (types.StoredFile, error) {
	result, err := b.getFile(ctx, fileRef)
	if err != nil {
		return types.StoredFile{}, err
	}

	mimeType := mimeTypeForPath(result.FilePath)

	return types.StoredFile{
		Kind:      kindForMimeType(mimeType),
		Backend:   types.BackendTelegram,
		Reference: fileRef,
		Size:      result.FileSize,
		MimeType:  mimeType,
	}, nil
}

// Download streams the file's bytes from Telegram. The caller must close the
// returned reader.
func (b *Backend) Download(ctx context.Context, fileRef string) (io.ReadCloser, storage.FileInfo, error) {
	result, err := b.getFile(ctx, fileRef)
	if err != nil {
		return nil, storage.FileInfo{}, err
	}

	downloadURL := fmt.Sprintf("%s/file/bot%s/%s", b.apiBase, b.token, result.FilePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, storage.FileInfo{}, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, storage.FileInfo{}, fmt.Errorf("failed to download file %s: %w", fileRef, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, storage.FileInfo{}, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	mimeType := mimeTypeForPath(result.FilePath)
	info := storage.FileInfo{
		Size:     result.FileSize,
		MimeType: mimeType,
		Kind:     kindForMimeType(mimeType),
	}

	return resp.Body, info, nil
}

// getFile calls the Bot API getFile method for the given file id.
func (b *Backend) getFile(ctx context.Context, fileRef string) (*fileResult, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", b.apiBase, b.token, url.QueryEscape(fileRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build getFile request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getFile request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed getFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode getFile response: %w", err)
	}

	if !parsed.OK {
		return nil, fmt.Errorf("getFile failed for %s: %s", fileRef, parsed.Description)
	}

	return &parsed.Result, nil
}

func mimeTypeForPath(filePath string) string {
	mimeType := mime.TypeByExtension(path.Ext(filePath))
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}

func kindForMimeType(mimeType string) types.FileKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return types.FileKindPhoto
	case strings.HasPrefix(mimeType, "video/"):
		return types.FileKindVideo
	default:
		return types.FileKindDocument
	}
}
