package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"patioquote/internal/domain"
	"patioquote/internal/middleware"
)

type quoteRequest struct {
	ImageURLs     []string `json:"image_urls"`
	ScaleMeters   *float64 `json:"scale_meters"`
	PolygonAreaM2 *float64 `json:"polygon_area_m2"`
	Currency      string   `json:"currency"`
}

type quoteInputs struct {
	ImageURLs     []string `json:"image_urls"`
	ScaleMeters   *float64 `json:"scale_meters"`
	PolygonAreaM2 *float64 `json:"polygon_area_m2"`
	Currency      string   `json:"currency"`
}

type quoteResponse struct {
	Inputs   quoteInputs                    `json:"inputs"`
	Model    domain.AreaCleanlinessEstimate `json:"model"`
	Price    int64                          `json:"price"`
	Currency string                         `json:"currency"`
}

// Quote handles POST /quote: photos in, priced estimate out.
func (a *App) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.ImageURLs) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "image_urls required")
		return
	}

	currencyCode := strings.TrimSpace(req.Currency)
	if currencyCode == "" {
		currencyCode = middleware.CurrencyFromContext(r.Context())
	}
	if currencyCode == "" {
		currencyCode = a.Config.DefaultCurrency
	}

	images := make([]domain.ImageRef, len(req.ImageURLs))
	for i, url := range req.ImageURLs {
		images[i] = domain.ImageRef{URL: url}
	}

	q, err := a.Quotes.Quote(r.Context(), domain.EstimateRequest{
		Images:        images,
		ScaleMeters:   req.ScaleMeters,
		PolygonAreaM2: req.PolygonAreaM2,
		Currency:      currencyCode,
	})
	if err != nil {
		a.quoteError(w, err)
		return
	}

	a.json(w, http.StatusOK, quoteResponse{
		Inputs: quoteInputs{
			ImageURLs:     req.ImageURLs,
			ScaleMeters:   req.ScaleMeters,
			PolygonAreaM2: req.PolygonAreaM2,
			Currency:      currencyCode,
		},
		Model:    q.Estimate,
		Price:    q.Price,
		Currency: q.Currency,
	})
}

// quoteError maps pipeline failures onto HTTP statuses: client-caused input
// problems are 400, service-caused inference problems are 500 with distinct
// codes so the two failure modes stay distinguishable in logs and monitors.
func (a *App) quoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrMalformedOutput):
		a.error(w, http.StatusInternalServerError, "malformed_inference_output", "model returned no usable structured output")
	case errors.Is(err, domain.ErrInferenceUnavailable):
		a.error(w, http.StatusInternalServerError, "inference_unavailable", "vision service unavailable")
	default:
		a.Logger.Error().Err(err).Msg("quote failed")
		a.error(w, http.StatusInternalServerError, "internal", "quote failed")
	}
}
