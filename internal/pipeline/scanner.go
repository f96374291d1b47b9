package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealhawk/deals-cli/internal/feed"
	"github.com/dealhawk/deals-cli/internal/model"
	"github.com/dealhawk/deals-cli/internal/resilience"
	"github.com/dealhawk/deals-cli/pkg/anthropic"
)

const scannerSystemPrompt = `You identify and summarize the 5 most detailed deals from a list, selecting those with the most complete, detailed product description and a clearly stated price.
Respond strictly in JSON with no extra explanation, using this format. You must provide the price as a number taken from the description. If a deal's price is unclear, do not include it in your response.
Most important is that you respond with the 5 deals that have the most detailed, highest quality product description. Discount terms are not important; what matters is the description of the product itself.
Be careful with products described as "$XXX off" or "reduced by $XXX" - this is not the actual price of the product. Only respond when you are highly confident about the actual price.

{"deals": [
    {
        "product_description": "Your clear summary of the product in 4-5 sentences. Product details matter far more than why it is a good deal. Avoid mentioning discounts or coupons; focus on the item itself. There should be a paragraph for each chosen product.",
        "price": 99.99,
        "url": "the url as provided"
    },
    ...
]}`

const scannerUserPromptPrefix = `Respond with the 5 most promising deals from this list, selecting those with the most detailed, high quality product description and a clear price greater than 0.
Respond strictly in JSON, and only JSON. You must rewrite the description as a summary of the product itself, not the deal terms.
Remember to include a full paragraph of description for every one of the 5 products you select.
Be careful with products described as "$XXX off" or "reduced by $XXX" - that is not the actual price of the item. Only respond when you are highly confident about the actual price.

Deals:

`

const scannerUserPromptSuffix = "\n\nRespond strictly in JSON and include exactly 5 deals, no more and no less."

const scannerMaxTokens = 2048

// Scanner finds fresh deals: it pulls raw listings from the feeds, drops
// anything already in memory, and has the summarization model select and
// rewrite the candidates worth pricing.
type Scanner struct {
	fetcher     feed.Fetcher
	ai          anthropic.Client
	modelID     string
	maxSelected int
}

// NewScanner creates a scanner over the feed fetcher and summarization model.
func NewScanner(fetcher feed.Fetcher, ai anthropic.Client, modelID string, maxSelected int) *Scanner {
	if maxSelected <= 0 {
		maxSelected = 5
	}
	return &Scanner{
		fetcher:     fetcher,
		ai:          ai,
		modelID:     modelID,
		maxSelected: maxSelected,
	}
}

// Scan returns a selection of cleaned candidates, or nil when there is
// nothing new to price. Nil with no error is a valid terminal state, not a
// failure: the feeds may simply have nothing memory hasn't seen.
func (s *Scanner) Scan(ctx context.Context, memory []model.Opportunity) (*model.Selection, error) {
	scraped, err := s.fetchNew(ctx, memory)
	if err != nil {
		return nil, err
	}
	if len(scraped) == 0 {
		zap.L().Info("scanner: no new listings to consider")
		return nil, nil
	}

	selection, err := s.selectDeals(ctx, scraped)
	if err != nil {
		return nil, err
	}

	// Defend against the model hallucinating a non-positive or missing
	// price: such entries are filtered, not errors.
	kept := selection.Deals[:0]
	for _, d := range selection.Deals {
		if d.Price > 0 {
			kept = append(kept, d)
		}
	}
	selection.Deals = kept

	if len(selection.Deals) > s.maxSelected {
		selection.Deals = selection.Deals[:s.maxSelected]
	}

	zap.L().Info("scanner: selection complete",
		zap.Int("scraped", len(scraped)),
		zap.Int("selected", len(selection.Deals)),
	)

	if len(selection.Deals) == 0 {
		return nil, nil
	}
	return selection, nil
}

// fetchNew pulls raw listings and removes any whose URL is already in
// memory. The set difference preserves the fetched order.
func (s *Scanner) fetchNew(ctx context.Context, memory []model.Opportunity) ([]model.ScrapedDeal, error) {
	scraped, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "scanner: fetch feeds")
	}

	seen := model.SeenURLs(memory)
	fresh := scraped[:0]
	for _, d := range scraped {
		if _, ok := seen[d.URL]; !ok {
			fresh = append(fresh, d)
		}
	}

	zap.L().Info("scanner: fetched listings not in memory",
		zap.Int("fetched", len(scraped)),
		zap.Int("fresh", len(fresh)),
	)

	return fresh, nil
}

// selectDeals asks the summarization model to pick and rewrite the best
// candidates. A reply that is not JSON-shaped is a hard failure of this
// scan; there is nothing sensible to salvage from it.
func (s *Scanner) selectDeals(ctx context.Context, scraped []model.ScrapedDeal) (*model.Selection, error) {
	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.modelID,
		MaxTokens: scannerMaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(scannerSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: s.makeUserPrompt(scraped)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "scanner: summarization call")
	}

	resp.Usage.LogCost(s.modelID, "scan")

	text := cleanJSON(extractText(resp))

	var selection model.Selection
	if err := json.Unmarshal([]byte(text), &selection); err != nil {
		return nil, resilience.NewMalformedResponseError(
			eris.Wrap(err, "scanner: unmarshal selection"),
		)
	}

	return &selection, nil
}

func (s *Scanner) makeUserPrompt(scraped []model.ScrapedDeal) string {
	parts := make([]string, 0, len(scraped))
	for _, d := range scraped {
		parts = append(parts, d.Describe())
	}
	return scannerUserPromptPrefix + strings.Join(parts, "\n\n") + scannerUserPromptSuffix
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
