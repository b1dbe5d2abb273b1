package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"patioquote/internal/domain"
)

// Tariff constants, in whole currency units unless noted.
var (
	baseCallout = decimal.NewFromInt(25)
	minJob      = decimal.NewFromInt(80)

	// Per-square-meter rates by soiling bucket.
	ratePerM2 = map[domain.Cleanliness]decimal.Decimal{
		domain.CleanlinessLight:  decimal.RequireFromString("2.0"),
		domain.CleanlinessMedium: decimal.RequireFromString("3.0"),
		domain.CleanlinessHeavy:  decimal.RequireFromString("4.5"),
	}

	bulkThresholdM2 = decimal.NewFromInt(60)
	bulkFactor      = decimal.RequireFromString("0.90")
)

// Price maps an effective area and soiling bucket to a whole-unit amount:
// base + area*rate, a 10% reduction strictly above 60 m², rounded half away
// from zero, never below the 80-unit job minimum. The function is pure and
// total over non-negative finite areas.
func Price(areaM2 float64, bucket domain.Cleanliness) (int64, error) {
	if math.IsNaN(areaM2) || math.IsInf(areaM2, 0) {
		return 0, fmt.Errorf("%w: area is not finite", domain.ErrPricingDomain)
	}
	if areaM2 < 0 {
		return 0, fmt.Errorf("%w: area %v is negative", domain.ErrPricingDomain, areaM2)
	}
	rate, ok := ratePerM2[bucket]
	if !ok {
		return 0, fmt.Errorf("%w: unknown cleanliness %q", domain.ErrPricingDomain, bucket)
	}

	area := decimal.NewFromFloat(areaM2)
	raw := baseCallout.Add(area.Mul(rate))
	if area.GreaterThan(bulkThresholdM2) {
		raw = raw.Mul(bulkFactor)
	}
	price := raw.Round(0)
	if price.LessThan(minJob) {
		price = minJob
	}
	return price.IntPart(), nil
}
