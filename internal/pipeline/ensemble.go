package pipeline

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Estimator is the common contract for the three pricing models. Estimates
// are non-negative; implementations are independent and side-effect-free
// from the caller's perspective.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, description string) (float64, error)
}

// MetaModel is the pre-trained linear meta-regression that merges the three
// estimates. The 5-feature row is [specialist, frontier, random_forest,
// min, max]; min and max are engineered features that let the model learn
// confidence-band behavior without an explicit variance term.
type MetaModel struct {
	Coefficients []float64 `yaml:"coefficients"`
	Intercept    float64   `yaml:"intercept"`
}

// metaFeatures is the width of the meta-model's input row.
const metaFeatures = 5

// LoadMetaModel reads and validates the ensemble weights artifact.
// Load failures surface at startup, before any candidate is priced.
func LoadMetaModel(path string) (*MetaModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ensemble: read artifact %s", path)
	}

	var m MetaModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "ensemble: unmarshal artifact %s", path)
	}

	if len(m.Coefficients) != metaFeatures {
		return nil, eris.Errorf("ensemble: artifact %s has %d coefficients, want %d", path, len(m.Coefficients), metaFeatures)
	}

	return &m, nil
}

// Predict applies the linear model to a feature row.
func (m *MetaModel) Predict(row []float64) float64 {
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * row[i]
	}
	return y
}

// Ensemble combines the three estimators into one calibrated price.
type Ensemble struct {
	specialist Estimator
	frontier   Estimator
	forest     Estimator
	meta       *MetaModel
}

// NewEnsemble creates the combiner. The estimator set is fixed at
// construction; the combiner never needs to know the concrete variants.
func NewEnsemble(specialist, frontier, forest Estimator, meta *MetaModel) *Ensemble {
	return &Ensemble{
		specialist: specialist,
		frontier:   frontier,
		forest:     forest,
		meta:       meta,
	}
}

// Price asks every estimator for a price concurrently, builds the feature
// row, and applies the meta-model. A failed or timed-out estimator fails the
// whole combine: a bogus zero in the row would silently skew the regression,
// and the planner would rather drop the candidate than misprice it.
func (e *Ensemble) Price(ctx context.Context, description string) (float64, error) {
	var specialist, frontier, forest float64

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.specialist.Estimate(gCtx, description)
		if err != nil {
			return eris.Wrapf(err, "ensemble: %s estimate", e.specialist.Name())
		}
		specialist = v
		return nil
	})
	g.Go(func() error {
		v, err := e.frontier.Estimate(gCtx, description)
		if err != nil {
			return eris.Wrapf(err, "ensemble: %s estimate", e.frontier.Name())
		}
		frontier = v
		return nil
	})
	g.Go(func() error {
		v, err := e.forest.Estimate(gCtx, description)
		if err != nil {
			return eris.Wrapf(err, "ensemble: %s estimate", e.forest.Name())
		}
		forest = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	row := FeatureRow(specialist, frontier, forest)
	price := e.meta.Predict(row)
	if price < 0 {
		price = 0
	}

	zap.L().Info("ensemble: combined estimate",
		zap.Float64("specialist", specialist),
		zap.Float64("frontier", frontier),
		zap.Float64("random_forest", forest),
		zap.Float64("price", price),
	)

	return price, nil
}

// FeatureRow builds the meta-model input [specialist, frontier, forest,
// min, max].
func FeatureRow(specialist, frontier, forest float64) []float64 {
	lo, hi := specialist, specialist
	for _, v := range []float64{frontier, forest} {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return []float64{specialist, frontier, forest, lo, hi}
}
