package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dealhawk/deals-cli/internal/feed"
	"github.com/dealhawk/deals-cli/internal/pipeline"
	"github.com/dealhawk/deals-cli/internal/store"
	anthropicpkg "github.com/dealhawk/deals-cli/pkg/anthropic"
	"github.com/dealhawk/deals-cli/pkg/chroma"
	"github.com/dealhawk/deals-cli/pkg/embed"
	"github.com/dealhawk/deals-cli/pkg/groq"
	"github.com/dealhawk/deals-cli/pkg/pricer"
	"github.com/dealhawk/deals-cli/pkg/pushover"
)

// env bundles the wired components a command needs for a planning run.
type env struct {
	Store   store.Store
	Planner *pipeline.Planner
}

func (e *env) Close() {
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "deals.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPlanner wires the full pipeline from config: feeds, model clients,
// the three estimators, the meta-model, and the notifier. Artifact load
// failures surface here, before any run starts.
func initPlanner(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	meta, err := pipeline.LoadMetaModel(cfg.Artifacts.EnsemblePath)
	if err != nil {
		st.Close()
		return nil, err
	}
	forestModel, err := pipeline.LoadForestModel(cfg.Artifacts.ForestPath)
	if err != nil {
		st.Close()
		return nil, err
	}

	fetcher := feed.NewRSSFetcher(cfg.Feeds.URLs,
		feed.WithRateLimit(cfg.Feeds.PerSecond),
	)

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	groqClient := groq.NewClient(cfg.Groq.Key,
		groq.WithBaseURL(cfg.Groq.BaseURL),
		groq.WithModel(cfg.Groq.Model),
	)
	pricerClient := pricer.NewClient(cfg.Pricer.BaseURL, cfg.Pricer.Key,
		pricer.WithTimeout(time.Duration(cfg.Pricer.TimeoutSecs)*time.Second),
	)
	embedClient := embed.NewClient(cfg.Embed.BaseURL,
		embed.WithTimeout(time.Duration(cfg.Embed.TimeoutSecs)*time.Second),
	)
	chromaClient := chroma.NewClient(cfg.Chroma.BaseURL, cfg.Chroma.Collection)
	pushClient := pushover.NewClient(cfg.Pushover.User, cfg.Pushover.Token)

	retriever := pipeline.NewChromaRetriever(embedClient, chromaClient)

	ensemble := pipeline.NewEnsemble(
		pipeline.NewSpecialistEstimator(pricerClient),
		pipeline.NewFrontierEstimator(groqClient, retriever, cfg.Groq.Model),
		pipeline.NewForestEstimator(embedClient, forestModel),
		meta,
	)

	scanner := pipeline.NewScanner(fetcher, anthropicClient, cfg.Anthropic.HaikuModel, cfg.Planner.MaxSelected)
	notifier := pipeline.NewNotifier(pushClient, cfg.Pushover.Enabled)
	planner := pipeline.NewPlanner(scanner, ensemble, notifier, cfg.Planner.DealThreshold)

	return &env{Store: st, Planner: planner}, nil
}
