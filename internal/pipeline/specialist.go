package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealhawk/deals-cli/pkg/pricer"
)

// SpecialistEstimator prices a product with the remotely deployed fine-tuned
// model. The model is opaque; a failed call propagates as-is with no retry,
// so the caller can exclude the candidate from ranking.
type SpecialistEstimator struct {
	client pricer.Client
}

// NewSpecialistEstimator creates a specialist estimator over the pricer service.
func NewSpecialistEstimator(client pricer.Client) *SpecialistEstimator {
	return &SpecialistEstimator{client: client}
}

// Name implements Estimator.
func (e *SpecialistEstimator) Name() string { return "specialist" }

// Estimate implements Estimator.
func (e *SpecialistEstimator) Estimate(ctx context.Context, description string) (float64, error) {
	price, err := e.client.Price(ctx, description)
	if err != nil {
		return 0, eris.Wrap(err, "specialist: remote price call")
	}
	if price < 0 {
		price = 0
	}

	zap.L().Debug("specialist: estimate complete",
		zap.Float64("price", price),
	)

	return price, nil
}
