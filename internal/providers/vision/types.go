package vision

import (
	"context"

	"patioquote/internal/domain"
)

// Estimator is the contract implemented by vision inference providers: given
// the request's images and measurement metadata, return a validated
// structured estimate or fail.
type Estimator interface {
	Estimate(ctx context.Context, req domain.EstimateRequest) (domain.AreaCleanlinessEstimate, error)
}
