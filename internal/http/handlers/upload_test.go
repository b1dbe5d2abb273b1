package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"patioquote/internal/infra"
)

type fakeStore struct {
	keys []string
	fail bool
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if f.fail {
		return "", errors.New("disk full")
	}
	f.keys = append(f.keys, key)
	return "http://localhost:8080/static/" + key, nil
}

func jpegFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, data := range files {
		part, err := writer.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newUploadApp(store *fakeStore) *App {
	logger := infra.Logger(zerolog.New(io.Discard))
	cfg := &infra.Config{DefaultCurrency: "EUR", UploadTargetBytes: 2_621_440}
	return NewApp(cfg, &logger, store, nil)
}

func TestUploadStoresFilesAndReturnsURLs(t *testing.T) {
	store := &fakeStore{}
	app := newUploadApp(store)

	body, contentType := multipartBody(t, map[string][]byte{
		"patio-front.jpg": jpegFixture(t),
		"patio-back.jpg":  jpegFixture(t),
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		URLs []string `json:"urls"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.URLs) != 2 {
		t.Fatalf("returned %d urls, want 2", len(resp.URLs))
	}
	for _, url := range resp.URLs {
		if !strings.Contains(url, "/static/patio/") {
			t.Fatalf("unexpected url %q", url)
		}
	}
	for _, key := range store.keys {
		if !strings.HasPrefix(key, "patio/") || !strings.HasSuffix(key, ".jpg") {
			t.Fatalf("unexpected storage key %q", key)
		}
	}
}

func TestUploadRejectsEmptyForm(t *testing.T) {
	app := newUploadApp(&fakeStore{})
	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Upload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRejectsNonImagePayload(t *testing.T) {
	app := newUploadApp(&fakeStore{})
	body, contentType := multipartBody(t, map[string][]byte{"notes.txt": []byte("not an image")})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Upload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadSingleStoreFailureFailsRequest(t *testing.T) {
	app := newUploadApp(&fakeStore{fail: true})
	body, contentType := multipartBody(t, map[string][]byte{"patio.jpg": jpegFixture(t)})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp["code"] != "upload_failed" {
		t.Fatalf("code = %q, want upload_failed", resp["code"])
	}
}
