package tagger

import (
	"context"
	"log/slog"
)

// Observer is told which strategy produced what outcome.
type Observer func(strategy string, outcome Outcome)

// Generator walks its strategies in order and returns the first usable
// result. The local strategy always closes the chain.
type Generator struct {
	strategies []Strategy
	vocab      Vocabulary
	count      int
	observe    Observer
}

func NewGenerator(vocab Vocabulary, count int, strategies ...Strategy) *Generator {
	chain := append([]Strategy(nil), strategies...)
	chain = append(chain, NewLocalStrategy(vocab, count))
	return &Generator{
		strategies: chain,
		vocab:      vocab,
		count:      count,
	}
}

func (g *Generator) WithObserver(observe Observer) *Generator {
	g.observe = observe
	return g
}

func (g *Generator) Count() int {
	return g.count
}

func (g *Generator) Generate(ctx context.Context, title, body string) []string {
	for _, strategy := range g.strategies {
		result := strategy.Suggest(ctx, title, body)
		if g.observe != nil {
			g.observe(strategy.Name(), result.Outcome)
		}

		switch result.Outcome {
		case OutcomeUsable:
			slog.Debug("Tags generated", "strategy", strategy.Name(), "tags", result.Tags)
			return result.Tags
		case OutcomeInsufficient:
			slog.Debug("Tag strategy returned too few tags", "strategy", strategy.Name(), "count", len(result.Tags))
		case OutcomeFailed:
			slog.Warn("Tag strategy failed", "strategy", strategy.Name(), "error", result.Err)
		}
	}

	return topUp(nil, g.vocab, g.count)
}
