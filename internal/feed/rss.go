// Package feed pulls raw deal listings from RSS feeds.
package feed

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dealhawk/deals-cli/internal/model"
)

// Fetcher retrieves raw deal listings. Each call produces a finite batch;
// there is no cursor or restart semantics.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.ScrapedDeal, error)
}

// RSSFetcher pulls listings from a fixed set of deal RSS feeds, pacing
// requests with a rate limiter so a long feed list doesn't hammer the host.
type RSSFetcher struct {
	feeds   []string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures the fetcher.
type Option func(*RSSFetcher)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *RSSFetcher) {
		f.client = hc
	}
}

// WithRateLimit overrides the default feed-fetch pacing.
func WithRateLimit(perSecond float64) Option {
	return func(f *RSSFetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewRSSFetcher creates a fetcher over the given feed URLs.
func NewRSSFetcher(feeds []string, opts ...Option) *RSSFetcher {
	f := &RSSFetcher{
		feeds:   feeds,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch pulls every configured feed and returns the listings in feed order.
// A feed that fails to download or parse is skipped with a warning; Fetch
// only errors when every feed failed.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]model.ScrapedDeal, error) {
	parser := gofeed.NewParser()

	var deals []model.ScrapedDeal
	var failed int

	for _, feedURL := range f.feeds {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "feed: rate limiter wait")
		}

		items, err := f.fetchOne(ctx, parser, feedURL)
		if err != nil {
			failed++
			zap.L().Warn("feed: fetch failed",
				zap.String("feed", feedURL),
				zap.Error(err),
			)
			continue
		}
		deals = append(deals, items...)
	}

	if failed == len(f.feeds) && len(f.feeds) > 0 {
		return nil, eris.New("feed: all feeds failed")
	}

	zap.L().Info("feed: fetched listings",
		zap.Int("feeds", len(f.feeds)),
		zap.Int("failed_feeds", failed),
		zap.Int("listings", len(deals)),
	)

	return deals, nil
}

func (f *RSSFetcher) fetchOne(ctx context.Context, parser *gofeed.Parser, feedURL string) ([]model.ScrapedDeal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "feed: create request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "feed: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("feed: unexpected status %d", resp.StatusCode)
	}

	parsed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "feed: parse")
	}

	var deals []model.ScrapedDeal
	for _, it := range parsed.Items {
		link := strings.TrimSpace(it.Link)
		title := strings.TrimSpace(it.Title)
		if link == "" || title == "" {
			continue
		}

		var published time.Time
		if it.PublishedParsed != nil {
			published = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			published = *it.UpdatedParsed
		}

		deals = append(deals, model.ScrapedDeal{
			Title:     title,
			Summary:   cleanSummary(it.Description),
			URL:       link,
			Published: published,
		})
	}

	return deals, nil
}

// cleanSummary strips the HTML tags deal feeds embed in item descriptions.
func cleanSummary(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
