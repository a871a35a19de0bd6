package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadenrich/internal/config"
	"github.com/sells-group/leadenrich/internal/pipeline"
	"github.com/sells-group/leadenrich/internal/store"
	anthropicpkg "github.com/sells-group/leadenrich/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initExtractor builds the extraction strategy for the given niche profile.
func initExtractor(niche config.NicheConfig) (pipeline.Extractor, error) {
	switch niche.Strategy {
	case "heuristic":
		return pipeline.NewHeuristicExtractor(), nil
	case "llm":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic API key is required for the llm strategy (LEADENRICH_ANTHROPIC_KEY)")
		}
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		return pipeline.NewLLMExtractor(client, cfg.Anthropic, niche), nil
	default:
		return nil, eris.Errorf("unknown strategy: %s", niche.Strategy)
	}
}
