package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"patioquote/internal/domain"
)

func TestNewGeminiEstimatorRequiresAPIKey(t *testing.T) {
	if _, err := NewGeminiEstimator(Options{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestNewGeminiEstimatorDefaults(t *testing.T) {
	e, err := NewGeminiEstimator(Options{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewGeminiEstimator returned error: %v", err)
	}
	if e.Model() != "gemini-2.5-flash" {
		t.Fatalf("model = %q, want gemini-2.5-flash", e.Model())
	}
	if e.attempts != 1 {
		t.Fatalf("attempts = %d, want 1", e.attempts)
	}
}

func TestImageBlobInlineDataDetectsMIME(t *testing.T) {
	e, err := NewGeminiEstimator(Options{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewGeminiEstimator returned error: %v", err)
	}
	part, err := e.imageBlob(context.Background(), domain.ImageRef{
		Data: []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'},
	})
	if err != nil {
		t.Fatalf("imageBlob returned error: %v", err)
	}
	blob, ok := part.(genai.Blob)
	if !ok {
		t.Fatalf("part = %T, want genai.Blob", part)
	}
	if blob.MIMEType != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", blob.MIMEType)
	}
}

func TestImageBlobFetchesURL(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	e, err := NewGeminiEstimator(Options{APIKey: "test-key", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewGeminiEstimator returned error: %v", err)
	}
	part, err := e.imageBlob(context.Background(), domain.ImageRef{URL: srv.URL + "/img.png"})
	if err != nil {
		t.Fatalf("imageBlob returned error: %v", err)
	}
	blob, ok := part.(genai.Blob)
	if !ok {
		t.Fatalf("part = %T, want genai.Blob", part)
	}
	if blob.MIMEType != "image/png" {
		t.Fatalf("mime = %q, want image/png", blob.MIMEType)
	}
	if len(blob.Data) != len(payload) {
		t.Fatalf("data length = %d, want %d", len(blob.Data), len(payload))
	}
}

func TestImageBlobPropagatesFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e, err := NewGeminiEstimator(Options{APIKey: "test-key", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewGeminiEstimator returned error: %v", err)
	}
	if _, err := e.imageBlob(context.Background(), domain.ImageRef{URL: srv.URL + "/missing.png"}); err == nil {
		t.Fatalf("expected error for 404 image")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                  `{"a":1}`,
		"```json\n{\"a\":1}\n```":  `{"a":1}`,
		"```\n{\"a\":1}\n```":      `{"a":1}`,
		"```json\n{\"a\": 1}\n```": `{"a": 1}`,
	}
	for in, want := range cases {
		if got := stripCodeFences(in); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
