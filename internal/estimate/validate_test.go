package estimate

import (
	"errors"
	"strings"
	"testing"

	"patioquote/internal/domain"
)

const wellFormed = `{
	"areaGuess_m2": 42.5,
	"areaLow_m2": 38,
	"areaHigh_m2": 47,
	"cleanliness": "Medium",
	"confidence": 0.8,
	"notes": "paver grid visible"
}`

func TestParseWellFormed(t *testing.T) {
	est, err := Parse([]byte(wellFormed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if est.AreaGuessM2 != 42.5 {
		t.Fatalf("AreaGuessM2 = %v, want 42.5", est.AreaGuessM2)
	}
	if est.Cleanliness != domain.CleanlinessMedium {
		t.Fatalf("Cleanliness = %q, want Medium", est.Cleanliness)
	}
	if est.Notes != "paver grid visible" {
		t.Fatalf("Notes = %q", est.Notes)
	}
}

func TestParseRejectsMissingCleanliness(t *testing.T) {
	payload := `{"areaGuess_m2": 10, "areaLow_m2": 8, "areaHigh_m2": 12, "confidence": 0.5, "notes": ""}`
	_, err := Parse([]byte(payload))
	if !errors.Is(err, domain.ErrMalformedOutput) {
		t.Fatalf("error = %v, want ErrMalformedOutput", err)
	}
}

func TestParseRejectsUnknownBucket(t *testing.T) {
	payload := strings.Replace(wellFormed, `"Medium"`, `"Extreme"`, 1)
	_, err := Parse([]byte(payload))
	if !errors.Is(err, domain.ErrMalformedOutput) {
		t.Fatalf("error = %v, want ErrMalformedOutput", err)
	}
}

func TestParseRejectsStringNumbers(t *testing.T) {
	payload := strings.Replace(wellFormed, `"areaGuess_m2": 42.5`, `"areaGuess_m2": "42.5"`, 1)
	if _, err := Parse([]byte(payload)); err == nil {
		t.Fatalf("expected error for string-typed number")
	}
}

func TestParseRejectsEmptyPayload(t *testing.T) {
	for _, payload := range []string{"", "   ", "\n"} {
		if _, err := Parse([]byte(payload)); !errors.Is(err, domain.ErrMalformedOutput) {
			t.Fatalf("payload %q: error = %v, want ErrMalformedOutput", payload, err)
		}
	}
}

func TestParseRejectsUndeclaredFields(t *testing.T) {
	payload := strings.Replace(wellFormed, `"notes": "paver grid visible"`, `"notes": "", "surcharge": 999`, 1)
	if _, err := Parse([]byte(payload)); err == nil {
		t.Fatalf("expected error for undeclared field")
	}
}

func TestParseRejectsNonPositiveGuess(t *testing.T) {
	payload := strings.Replace(wellFormed, `"areaGuess_m2": 42.5`, `"areaGuess_m2": 0`, 1)
	if _, err := Parse([]byte(payload)); err == nil {
		t.Fatalf("expected error for non-positive area guess")
	}
}

func TestMetadataJSONEncodesNulls(t *testing.T) {
	got := MetadataJSON(domain.EstimateRequest{})
	if got != `{"scale_meters":null,"polygon_area_m2":null}` {
		t.Fatalf("MetadataJSON = %s", got)
	}

	scale := 3.5
	got = MetadataJSON(domain.EstimateRequest{ScaleMeters: &scale})
	if got != `{"scale_meters":3.5,"polygon_area_m2":null}` {
		t.Fatalf("MetadataJSON = %s", got)
	}
}

func TestResponseSchemaRequiresEveryField(t *testing.T) {
	schema := ResponseSchema()
	if len(schema.Required) != len(schema.Properties) {
		t.Fatalf("required %d fields, declared %d", len(schema.Required), len(schema.Properties))
	}
	for _, field := range schema.Required {
		if _, ok := schema.Properties[field]; !ok {
			t.Fatalf("required field %q not declared", field)
		}
	}
	buckets := schema.Properties["cleanliness"].Enum
	if len(buckets) != 3 {
		t.Fatalf("cleanliness enum = %v, want three buckets", buckets)
	}
}

func TestSystemInstructionNamesTheBuckets(t *testing.T) {
	for _, want := range []string{"Light", "Medium", "Heavy", "polygon_area_m2", "scale_meters", "square meters"} {
		if !strings.Contains(SystemInstruction, want) {
			t.Fatalf("system instruction missing %q", want)
		}
	}
}
