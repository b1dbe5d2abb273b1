package estimate

import (
	"encoding/json"

	"github.com/google/generative-ai-go/genai"

	"patioquote/internal/domain"
)

// SystemInstruction is the estimator persona handed to the vision model. It
// defines the soiling buckets by visual criteria and tells the model how to
// use any supplied ground-truth measurement.
const SystemInstruction = "You are a property-services estimator. " +
	"Infer the AREA of the paved surface in square meters and its CLEANLINESS from the photos. " +
	"If polygon_area_m2 is provided in the metadata, prefer it and sanity-check it against the images. " +
	"Otherwise use scale_meters together with visible cues (paver grid, repeating patterns, edges) to infer scale. " +
	"Cleanliness buckets: Light (dust or a light film), Medium (visible grime or some moss), Heavy (dark staining, algae, moss or oil residue). " +
	"Be conservative: report a low/high range when uncertain. All numeric fields must be numbers, not strings."

// UserPreamble is the first text part of the user turn, ahead of the
// metadata blob and the images.
const UserPreamble = "Estimate the paved area and cleanliness for the following job. Metadata:"

type metadata struct {
	ScaleMeters   *float64 `json:"scale_meters"`
	PolygonAreaM2 *float64 `json:"polygon_area_m2"`
}

// MetadataJSON serializes the optional ground-truth measurements for the
// user turn. Absent values are encoded as explicit nulls so the model sees
// both keys every time.
func MetadataJSON(req domain.EstimateRequest) string {
	blob, err := json.Marshal(metadata{
		ScaleMeters:   req.ScaleMeters,
		PolygonAreaM2: req.PolygonAreaM2,
	})
	if err != nil {
		return `{"scale_meters":null,"polygon_area_m2":null}`
	}
	return string(blob)
}

// ResponseSchema declares the exact shape the model must emit. Every field
// is required and cleanliness is constrained to the three-bucket
// enumeration; constrained decoding cannot introduce undeclared fields.
func ResponseSchema() *genai.Schema {
	buckets := domain.CleanlinessValues()
	enum := make([]string, len(buckets))
	for i, b := range buckets {
		enum[i] = string(b)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"areaGuess_m2": {Type: genai.TypeNumber, Description: "Best single estimate of the paved area in square meters."},
			"areaLow_m2":   {Type: genai.TypeNumber, Description: "Conservative lower bound of the area in square meters."},
			"areaHigh_m2":  {Type: genai.TypeNumber, Description: "Conservative upper bound of the area in square meters."},
			"cleanliness":  {Type: genai.TypeString, Format: "enum", Enum: enum},
			"confidence":   {Type: genai.TypeNumber, Description: "Confidence in the estimate, 0 to 1."},
			"notes":        {Type: genai.TypeString, Description: "Short free-text explanation; may be empty."},
		},
		Required: []string{"areaGuess_m2", "areaLow_m2", "areaHigh_m2", "cleanliness", "confidence", "notes"},
	}
}
