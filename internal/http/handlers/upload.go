package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"patioquote/internal/imaging"
)

const maxUploadBytes = 32 << 20

// Upload handles POST /upload: multipart file fields are normalized to the
// configured size ceiling, stored, and echoed back as public URLs. Any
// single file failure fails the whole request; no partial URL set is ever
// returned.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "at least one file field is required")
		return
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		url, err := a.storeUpload(r, header)
		if err != nil {
			a.Logger.Warn().Err(err).Str("filename", header.Filename).Msg("upload rejected")
			a.error(w, http.StatusBadRequest, "upload_failed", fmt.Sprintf("upload %s: %v", header.Filename, err))
			return
		}
		urls = append(urls, url)
	}

	a.json(w, http.StatusOK, map[string]any{"urls": urls})
}

func (a *App) storeUpload(r *http.Request, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	normalized, mime, err := imaging.Normalize(data, a.Config.UploadTargetBytes)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("patio/%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], extensionFor(mime, header.Filename))
	return a.Store.Put(r.Context(), key, normalized)
}

func extensionFor(mime, filename string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return ".jpg"
}
