package pipeline

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dealhawk/deals-cli/pkg/embed"
)

// ForestModel is a pre-trained regression forest over embedding vectors,
// loaded from a persisted artifact. Trees are stored as flat node arrays:
// node i splits on Feature[i] at Threshold[i], descending to Left[i] or
// Right[i]; a node with Feature[i] < 0 is a leaf holding Value[i].
type ForestModel struct {
	Dim   int    `yaml:"dim"`
	Trees []Tree `yaml:"trees"`
}

// Tree is a single regression tree in flat-array form.
type Tree struct {
	Feature   []int     `yaml:"feature"`
	Threshold []float64 `yaml:"threshold"`
	Left      []int     `yaml:"left"`
	Right     []int     `yaml:"right"`
	Value     []float64 `yaml:"value"`
}

// LoadForestModel reads and validates a forest artifact. Any structural
// problem fails here, at startup, never lazily on first estimate.
func LoadForestModel(path string) (*ForestModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "forest: read artifact %s", path)
	}

	var m ForestModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "forest: unmarshal artifact %s", path)
	}

	if err := m.validate(); err != nil {
		return nil, eris.Wrapf(err, "forest: invalid artifact %s", path)
	}

	return &m, nil
}

func (m *ForestModel) validate() error {
	if m.Dim <= 0 {
		return eris.New("dim must be positive")
	}
	if len(m.Trees) == 0 {
		return eris.New("no trees")
	}
	for ti, t := range m.Trees {
		n := len(t.Feature)
		if n == 0 || len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
			return eris.Errorf("tree %d: inconsistent node arrays", ti)
		}
		for i := 0; i < n; i++ {
			if t.Feature[i] >= m.Dim {
				return eris.Errorf("tree %d node %d: feature %d out of range", ti, i, t.Feature[i])
			}
			if t.Feature[i] >= 0 && (t.Left[i] < 0 || t.Left[i] >= n || t.Right[i] < 0 || t.Right[i] >= n) {
				return eris.Errorf("tree %d node %d: child index out of range", ti, i)
			}
		}
	}
	return nil
}

// Predict runs the vector through every tree and averages the leaf values.
func (m *ForestModel) Predict(vector []float64) float64 {
	var sum float64
	for _, t := range m.Trees {
		sum += t.predict(vector)
	}
	return sum / float64(len(m.Trees))
}

func (t Tree) predict(vector []float64) float64 {
	i := 0
	for t.Feature[i] >= 0 {
		if vector[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	return t.Value[i]
}

// ForestEstimator prices a product by encoding its description and running
// the pre-loaded regression forest over the vector.
type ForestEstimator struct {
	encoder embed.Client
	model   *ForestModel
}

// NewForestEstimator creates a forest estimator from an already-loaded model.
func NewForestEstimator(encoder embed.Client, model *ForestModel) *ForestEstimator {
	return &ForestEstimator{
		encoder: encoder,
		model:   model,
	}
}

// Name implements Estimator.
func (e *ForestEstimator) Name() string { return "random_forest" }

// Estimate implements Estimator.
func (e *ForestEstimator) Estimate(ctx context.Context, description string) (float64, error) {
	vectors, err := e.encoder.Encode(ctx, []string{description})
	if err != nil {
		return 0, eris.Wrap(err, "forest: encode description")
	}
	if len(vectors) == 0 || len(vectors[0]) != e.model.Dim {
		return 0, eris.Errorf("forest: encoder returned wrong dimension (want %d)", e.model.Dim)
	}

	price := e.model.Predict(vectors[0])
	if price < 0 {
		price = 0
	}

	zap.L().Debug("forest: estimate complete",
		zap.Float64("price", price),
	)

	return price, nil
}
