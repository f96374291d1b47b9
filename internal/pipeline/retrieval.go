package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealhawk/deals-cli/internal/model"
	"github.com/dealhawk/deals-cli/pkg/chroma"
	"github.com/dealhawk/deals-cli/pkg/embed"
)

// Retriever looks up previously priced products similar to a description.
// Results are ordered by decreasing similarity as defined by the producer;
// callers must not re-sort them.
type Retriever interface {
	Similar(ctx context.Context, description string, k int) ([]model.PricedItem, error)
}

// ChromaRetriever implements Retriever by encoding the description and
// querying a Chroma collection of priced products.
type ChromaRetriever struct {
	encoder embed.Client
	store   chroma.Client
}

// NewChromaRetriever creates a retriever over the given encoder and store.
func NewChromaRetriever(encoder embed.Client, store chroma.Client) *ChromaRetriever {
	return &ChromaRetriever{
		encoder: encoder,
		store:   store,
	}
}

// Similar returns up to k priced products similar to the description.
func (r *ChromaRetriever) Similar(ctx context.Context, description string, k int) ([]model.PricedItem, error) {
	vectors, err := r.encoder.Encode(ctx, []string{description})
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: encode description")
	}
	if len(vectors) == 0 {
		return nil, eris.New("retrieval: encoder returned no vector")
	}

	result, err := r.store.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: query vector store")
	}

	items := make([]model.PricedItem, 0, len(result.Documents))
	for i, doc := range result.Documents {
		var price float64
		if i < len(result.Metadatas) {
			switch v := result.Metadatas[i]["price"].(type) {
			case float64:
				price = v
			case int:
				price = float64(v)
			}
		}
		items = append(items, model.PricedItem{
			Description: doc,
			Price:       price,
		})
	}

	zap.L().Debug("retrieval: similar products found",
		zap.Int("requested", k),
		zap.Int("returned", len(items)),
	)

	return items, nil
}
