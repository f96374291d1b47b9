package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealhawk/deals-cli/internal/model"
	"github.com/dealhawk/deals-cli/pkg/groq"
)

const (
	frontierSystemPrompt = "You estimate the price of items. Reply only with the price, no explanation."

	// similarK is the number of retrieved neighbors embedded in the prompt.
	similarK = 5

	frontierMaxTokens   = 5
	frontierTemperature = 0.2
)

// FrontierEstimator prices a product with a frontier chat model grounded in
// similar previously priced items. The model is told to answer with just a
// price, and gets an assistant prefill of "Price $" to anchor the reply; the
// reply is still free text, so parsing is lenient and a numberless answer
// becomes 0.0 rather than an error.
type FrontierEstimator struct {
	chat      groq.Client
	retriever Retriever
	modelID   string
}

// NewFrontierEstimator creates a frontier estimator over the chat client
// and similarity retriever.
func NewFrontierEstimator(chat groq.Client, retriever Retriever, modelID string) *FrontierEstimator {
	return &FrontierEstimator{
		chat:      chat,
		retriever: retriever,
		modelID:   modelID,
	}
}

// Name implements Estimator.
func (e *FrontierEstimator) Name() string { return "frontier" }

// Estimate implements Estimator.
func (e *FrontierEstimator) Estimate(ctx context.Context, description string) (float64, error) {
	similars, err := e.retriever.Similar(ctx, description, similarK)
	if err != nil {
		return 0, eris.Wrap(err, "frontier: retrieve similar products")
	}

	temp := frontierTemperature
	maxTokens := frontierMaxTokens
	resp, err := e.chat.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:       e.modelID,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Messages:    e.messagesFor(description, similars),
	})
	if err != nil {
		return 0, eris.Wrap(err, "frontier: chat completion")
	}

	if len(resp.Choices) == 0 {
		return 0, eris.New("frontier: empty completion")
	}

	reply := resp.Choices[0].Message.Content
	price := ParsePrice(reply)
	if price == 0.0 {
		zap.L().Warn("frontier: no parseable price in reply, defaulting to 0",
			zap.String("reply", reply),
		)
	}

	zap.L().Debug("frontier: estimate complete",
		zap.Int("similar_count", len(similars)),
		zap.Float64("price", price),
	)

	return price, nil
}

// messagesFor builds the grounded pricing conversation: retrieved neighbors
// as context, the question, and an assistant prefill anchoring the answer
// format.
func (e *FrontierEstimator) messagesFor(description string, similars []model.PricedItem) []groq.Message {
	var sb strings.Builder
	sb.WriteString("For context, here are some other items that might be similar to the item.\n\n")
	for _, item := range similars {
		sb.WriteString(fmt.Sprintf("Potentially related product:\n%s\nPrice $%.2f\n\n", item.Description, item.Price))
	}
	sb.WriteString("And now the question for you:\n\nHow much does this item cost?\n\n")
	sb.WriteString(description)

	return []groq.Message{
		{Role: "system", Content: frontierSystemPrompt},
		{Role: "user", Content: sb.String()},
		{Role: "assistant", Content: "Price $"},
	}
}
