package quote

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"patioquote/internal/domain"
	"patioquote/internal/infra"
	"patioquote/internal/pricing"
	"patioquote/internal/providers/vision"
)

// Service composes the estimation pipeline: validate the request, obtain a
// structured estimate, reconcile the effective area, price it, and assemble
// the quote. Failures in any step propagate unchanged; there are no retries
// at this layer.
type Service struct {
	estimator vision.Estimator
	logger    *infra.Logger
}

// NewService wires a quote service around the given estimator.
func NewService(estimator vision.Estimator, logger *infra.Logger) *Service {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Service{estimator: estimator, logger: logger}
}

// Quote runs one pipeline invocation. The supplied polygon area, when
// present, is ground truth and wins over the model's own guess; the guess is
// kept in the returned estimate for display and sanity-checking only.
func (s *Service) Quote(ctx context.Context, req domain.EstimateRequest) (*domain.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	est, err := s.estimator.Estimate(ctx, req)
	if err != nil {
		return nil, err
	}

	effectiveArea := est.AreaGuessM2
	if req.PolygonAreaM2 != nil {
		effectiveArea = *req.PolygonAreaM2
	}

	amount, err := pricing.Price(effectiveArea, est.Cleanliness)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Float64("effective_area_m2", effectiveArea).
		Str("cleanliness", string(est.Cleanliness)).
		Int64("price", amount).
		Str("currency", req.Currency).
		Msg("quote computed")

	return &domain.Quote{
		EffectiveAreaM2: effectiveArea,
		Cleanliness:     est.Cleanliness,
		Price:           amount,
		Currency:        req.Currency,
		Estimate:        est,
	}, nil
}
