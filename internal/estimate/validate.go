package estimate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"patioquote/internal/domain"
)

type rawEstimate struct {
	AreaGuessM2 *float64 `json:"areaGuess_m2"`
	AreaLowM2   *float64 `json:"areaLow_m2"`
	AreaHighM2  *float64 `json:"areaHigh_m2"`
	Cleanliness *string  `json:"cleanliness"`
	Confidence  *float64 `json:"confidence"`
	Notes       *string  `json:"notes"`
}

// Parse validates the structured payload returned by the vision service and
// produces a typed estimate. It fails when the payload is absent, does not
// parse as the declared shape, misses a required field, uses a cleanliness
// value outside the enumeration, or carries a non-finite number.
//
// The low <= guess <= high ordering and confidence in [0,1] are deliberately
// not enforced beyond type: the schema is pushed down into constrained
// decoding and the range is advisory output, not a pricing input.
func Parse(payload []byte) (domain.AreaCleanlinessEstimate, error) {
	var zero domain.AreaCleanlinessEstimate
	if len(strings.TrimSpace(string(payload))) == 0 {
		return zero, fmt.Errorf("%w: no structured output present", domain.ErrMalformedOutput)
	}

	var raw rawEstimate
	dec := json.NewDecoder(strings.NewReader(string(payload)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return zero, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}

	numbers := map[string]*float64{
		"areaGuess_m2": raw.AreaGuessM2,
		"areaLow_m2":   raw.AreaLowM2,
		"areaHigh_m2":  raw.AreaHighM2,
		"confidence":   raw.Confidence,
	}
	for field, v := range numbers {
		if v == nil {
			return zero, fmt.Errorf("%w: missing field %s", domain.ErrMalformedOutput, field)
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return zero, fmt.Errorf("%w: field %s is not finite", domain.ErrMalformedOutput, field)
		}
	}
	if raw.Cleanliness == nil {
		return zero, fmt.Errorf("%w: missing field cleanliness", domain.ErrMalformedOutput)
	}
	if raw.Notes == nil {
		return zero, fmt.Errorf("%w: missing field notes", domain.ErrMalformedOutput)
	}
	if *raw.AreaGuessM2 <= 0 {
		return zero, fmt.Errorf("%w: areaGuess_m2 must be positive", domain.ErrMalformedOutput)
	}

	bucket, err := domain.ParseCleanliness(*raw.Cleanliness)
	if err != nil {
		return zero, err
	}

	return domain.AreaCleanlinessEstimate{
		AreaGuessM2: *raw.AreaGuessM2,
		AreaLowM2:   *raw.AreaLowM2,
		AreaHighM2:  *raw.AreaHighM2,
		Cleanliness: bucket,
		Confidence:  *raw.Confidence,
		Notes:       *raw.Notes,
	}, nil
}
