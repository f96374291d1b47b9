package pipeline

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dealhawk/deals-cli/internal/model"
)

// DefaultDealThreshold is the discount, in the same currency unit as
// prices, a deal must strictly exceed before an alert fires.
const DefaultDealThreshold = 50

// Planner runs the full workflow: scan for fresh deals, price each selected
// candidate through the ensemble, rank by discount, and alert on the best
// one when it clears the threshold. It holds no state beyond the components
// it owns; memory is supplied read-only by the caller on every run.
type Planner struct {
	scanner   *Scanner
	ensemble  *Ensemble
	notifier  *Notifier
	threshold float64
}

// NewPlanner creates a planner. A non-positive threshold falls back to
// DefaultDealThreshold.
func NewPlanner(scanner *Scanner, ensemble *Ensemble, notifier *Notifier, threshold float64) *Planner {
	if threshold <= 0 {
		threshold = DefaultDealThreshold
	}
	return &Planner{
		scanner:   scanner,
		ensemble:  ensemble,
		notifier:  notifier,
		threshold: threshold,
	}
}

// Evaluate prices a single deal and wraps it into an opportunity.
func (p *Planner) Evaluate(ctx context.Context, deal model.Deal) (model.Opportunity, error) {
	estimate, err := p.ensemble.Price(ctx, deal.ProductDescription)
	if err != nil {
		return model.Opportunity{}, err
	}

	opp := model.Opportunity{
		Deal:     deal,
		Estimate: estimate,
		Discount: estimate - deal.Price,
	}

	zap.L().Info("planner: evaluated deal",
		zap.String("url", deal.URL),
		zap.Float64("price", deal.Price),
		zap.Float64("estimate", estimate),
		zap.Float64("discount", opp.Discount),
	)

	return opp, nil
}

// Plan runs one full cycle. It returns the best opportunity when its
// discount strictly exceeds the threshold (after alerting on it), and
// nil, nil when there is nothing actionable - whether because the scanner
// found nothing new or because no discount cleared the bar. Callers wanting
// to distinguish those cases have the error channel for actual failures.
func (p *Planner) Plan(ctx context.Context, memory []model.Opportunity) (*model.Opportunity, error) {
	zap.L().Info("planner: starting run", zap.Int("memory", len(memory)))

	selection, err := p.scanner.Scan(ctx, memory)
	if err != nil {
		return nil, err
	}
	if selection == nil {
		zap.L().Info("planner: nothing to evaluate")
		return nil, nil
	}

	opportunities := p.evaluateAll(ctx, selection.Deals)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(opportunities) == 0 {
		zap.L().Warn("planner: no candidate could be priced")
		return nil, nil
	}

	// Rank by discount descending. The sort is stable so tied discounts
	// keep the selection's original order.
	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Discount > opportunities[j].Discount
	})

	best := opportunities[0]
	zap.L().Info("planner: best opportunity",
		zap.String("url", best.Deal.URL),
		zap.Float64("discount", best.Discount),
		zap.Float64("threshold", p.threshold),
	)

	if best.Discount > p.threshold {
		p.notifier.Alert(ctx, best)
		return &best, nil
	}

	return nil, nil
}

// evaluateAll prices every selected deal concurrently, bounded by the
// selection size. A deal whose evaluation fails is excluded from ranking;
// one bad candidate must not prevent alerting on a good one. Selection
// order is preserved in the result.
func (p *Planner) evaluateAll(ctx context.Context, deals []model.Deal) []model.Opportunity {
	results := make([]*model.Opportunity, len(deals))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(deals))

	for i, deal := range deals {
		g.Go(func() error {
			opp, err := p.Evaluate(gCtx, deal)
			if err != nil {
				zap.L().Warn("planner: candidate evaluation failed, excluding from ranking",
					zap.String("url", deal.URL),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			results[i] = &opp
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	opportunities := make([]model.Opportunity, 0, len(deals))
	for _, r := range results {
		if r != nil {
			opportunities = append(opportunities, *r)
		}
	}
	return opportunities
}
