package domain

import (
	"fmt"
	"math"
	"strings"
)

// Cleanliness is the coarse soiling severity of a paved surface. The three
// buckets drive the per-area pricing rate.
type Cleanliness string

const (
	CleanlinessLight  Cleanliness = "Light"
	CleanlinessMedium Cleanliness = "Medium"
	CleanlinessHeavy  Cleanliness = "Heavy"
)

// CleanlinessValues lists the accepted buckets in severity order.
func CleanlinessValues() []Cleanliness {
	return []Cleanliness{CleanlinessLight, CleanlinessMedium, CleanlinessHeavy}
}

// ParseCleanliness validates a raw bucket string against the fixed enumeration.
func ParseCleanliness(raw string) (Cleanliness, error) {
	switch Cleanliness(strings.TrimSpace(raw)) {
	case CleanlinessLight:
		return CleanlinessLight, nil
	case CleanlinessMedium:
		return CleanlinessMedium, nil
	case CleanlinessHeavy:
		return CleanlinessHeavy, nil
	}
	return "", fmt.Errorf("%w: unknown cleanliness %q", ErrMalformedOutput, raw)
}

// ImageRef is one image handed to the pipeline: either raw bytes pending
// upload or an already-resolved public URL.
type ImageRef struct {
	URL  string
	Data []byte
	MIME string
}

// EstimateRequest is the immutable input to one pipeline invocation.
type EstimateRequest struct {
	Images        []ImageRef
	ScaleMeters   *float64
	PolygonAreaM2 *float64
	Currency      string
}

// Validate rejects requests the pipeline cannot act on before any inference
// call is made.
func (r EstimateRequest) Validate() error {
	if len(r.Images) == 0 {
		return fmt.Errorf("%w: at least one image is required", ErrInvalidInput)
	}
	for i, img := range r.Images {
		if strings.TrimSpace(img.URL) == "" && len(img.Data) == 0 {
			return fmt.Errorf("%w: image %d has neither url nor data", ErrInvalidInput, i)
		}
	}
	if err := validMeasurement("scale_meters", r.ScaleMeters); err != nil {
		return err
	}
	return validMeasurement("polygon_area_m2", r.PolygonAreaM2)
}

func validMeasurement(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fmt.Errorf("%w: %s must be a positive finite number", ErrInvalidInput, name)
	}
	return nil
}

// AreaCleanlinessEstimate is the structured result the vision service must
// return: a point guess plus a conservative low/high range, the soiling
// bucket, and a confidence in [0,1].
type AreaCleanlinessEstimate struct {
	AreaGuessM2 float64     `json:"areaGuess_m2"`
	AreaLowM2   float64     `json:"areaLow_m2"`
	AreaHighM2  float64     `json:"areaHigh_m2"`
	Cleanliness Cleanliness `json:"cleanliness"`
	Confidence  float64     `json:"confidence"`
	Notes       string      `json:"notes"`
}

// Quote is the final priced output. EffectiveAreaM2 is the area actually
// priced: a supplied polygon measurement wins over the model's guess, which
// is retained inside Estimate for display.
type Quote struct {
	EffectiveAreaM2 float64                 `json:"effective_area_m2"`
	Cleanliness     Cleanliness             `json:"cleanliness"`
	Price           int64                   `json:"price"`
	Currency        string                  `json:"currency"`
	Estimate        AreaCleanlinessEstimate `json:"estimate"`
}
