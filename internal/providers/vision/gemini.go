package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"patioquote/internal/domain"
	"patioquote/internal/estimate"
	"patioquote/internal/infra"
)

const defaultMaxImageBytes = 20 << 20

// Options controls how the Gemini estimator is configured.
type Options struct {
	APIKey     string
	Model      string
	Attempts   int
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// GeminiEstimator calls the Gemini API in forced structured-output mode: the
// response schema is pushed into the generation config so the model cannot
// answer with free-form text.
type GeminiEstimator struct {
	apiKey     string
	model      string
	attempts   int
	httpClient *http.Client
	logger     *infra.Logger
}

// NewGeminiEstimator constructs an estimator with sane defaults. Callers may
// provide a nil HTTP client; one with a reasonable timeout is created for
// fetching image URLs.
func NewGeminiEstimator(opts Options) (*GeminiEstimator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("vision: api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}

	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &GeminiEstimator{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		attempts:   attempts,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (e *GeminiEstimator) Model() string {
	return e.model
}

// Estimate sends the images and measurement metadata to Gemini and validates
// the structured response. Transport and API failures surface as
// ErrInferenceUnavailable; unusable payloads as ErrMalformedOutput.
func (e *GeminiEstimator) Estimate(ctx context.Context, req domain.EstimateRequest) (domain.AreaCleanlinessEstimate, error) {
	var zero domain.AreaCleanlinessEstimate

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return zero, fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   estimate.ResponseSchema(),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(estimate.SystemInstruction)},
	}

	parts := []genai.Part{
		genai.Text(estimate.UserPreamble + "\n" + estimate.MetadataJSON(req)),
	}
	for i, img := range req.Images {
		blob, err := e.imageBlob(ctx, img)
		if err != nil {
			return zero, fmt.Errorf("%w: image %d: %v", domain.ErrInferenceUnavailable, i, err)
		}
		parts = append(parts, blob)
	}

	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
			e.logger.Warn().
				Err(err).
				Str("model", e.model).
				Int("attempt", attempt).
				Msg("vision: gemini call failed")
			if attempt < e.attempts {
				select {
				case <-ctx.Done():
					return zero, fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, ctx.Err())
				case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
				}
			}
			continue
		}

		raw := firstText(resp)
		raw = stripCodeFences(strings.TrimSpace(raw))
		est, err := estimate.Parse([]byte(raw))
		if err != nil {
			return zero, err
		}

		e.logger.Debug().
			Str("model", e.model).
			Float64("area_guess_m2", est.AreaGuessM2).
			Str("cleanliness", string(est.Cleanliness)).
			Msg("vision: structured estimate received")

		return est, nil
	}
	return zero, lastErr
}

// imageBlob turns an image reference into an inline part. Raw bytes are
// attached directly; URLs are fetched with the request context and a size
// cap.
func (e *GeminiEstimator) imageBlob(ctx context.Context, img domain.ImageRef) (genai.Part, error) {
	if len(img.Data) > 0 {
		mime := img.MIME
		if mime == "" {
			mime = http.DetectContentType(img.Data)
		}
		return genai.Blob{MIMEType: mime, Data: img.Data}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch image status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image body")
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return genai.Blob{MIMEType: mime, Data: data}, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }

var _ Estimator = (*GeminiEstimator)(nil)
