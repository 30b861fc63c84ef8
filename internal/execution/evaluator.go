// Package execution evaluates arbitrage opportunities against the execution
// venue and drives trade intents through paper or live execution.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

// EvaluatorConfig holds the immutable parameters of the evaluator.
type EvaluatorConfig struct {
	Venue        string        // venue name recorded on intents, e.g. "ForecastEx"
	MarketType   string        // e.g. "Binary Option"
	RiskFreeRate float64       // annual, e.g. 0.045
	ArbThreshold float64       // minimum spread to act on, e.g. 0.02
	QuoteTimeout time.Duration // how long to wait for a two-sided quote
	Mode         domain.ExecutionMode
}

// Request is one arbitrage evaluation: a contract description plus the
// base probability already derived (and optionally sentiment-boosted)
// from the order book.
type Request struct {
	Description  string
	SymbolRoot   string
	Strike       float64
	Expiry       string // YYYYMMDD
	Right        domain.ContractRight
	PBase        float64
	DaysToExpiry int
	Quantity     float64
}

// Evaluator computes the yield-adjusted spread between the base probability
// and the venue price, and emits BUY intents when it clears the threshold.
type Evaluator struct {
	cfg   EvaluatorConfig
	venue ports.VenueAdapter
}

// NewEvaluator creates an Evaluator backed by the given venue adapter.
func NewEvaluator(cfg EvaluatorConfig, venue ports.VenueAdapter) (*Evaluator, error) {
	if cfg.Venue == "" {
		return nil, fmt.Errorf("execution.NewEvaluator: venue name is required")
	}
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = 5 * time.Second
	}
	return &Evaluator{cfg: cfg, venue: venue}, nil
}

// Evaluate resolves the venue price for the matching contract, computes the
// arb spread and returns a BUY intent iff spread > threshold, strictly.
// A spread equal to the threshold is not an opportunity.
//
// ok=false with a nil error means no opportunity this cycle: contract not
// listed, no two-sided quote in time, or spread below threshold. None of
// those are failures.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (intent domain.TradeIntent, ok bool, err error) {
	contract, found, err := e.venue.ResolveContract(ctx, req.SymbolRoot, req.Strike, req.Expiry, req.Right)
	if err != nil {
		return domain.TradeIntent{}, false, fmt.Errorf("execution.Evaluate: resolve contract: %w", err)
	}
	if !found {
		slog.Debug("contract not listed on venue", "symbol_root", req.SymbolRoot, "strike", req.Strike)
		return domain.TradeIntent{}, false, nil
	}

	quote, quoted, err := e.venue.GetQuote(ctx, contract, e.cfg.QuoteTimeout)
	if err != nil {
		return domain.TradeIntent{}, false, fmt.Errorf("execution.Evaluate: get quote: %w", err)
	}
	if !quoted {
		// DataUnavailable: no two-sided quote within the window → no opportunity.
		slog.Debug("no two-sided quote", "symbol_root", req.SymbolRoot, "timeout", e.cfg.QuoteTimeout)
		return domain.TradeIntent{}, false, nil
	}

	pMarket := quote.Midpoint()
	spread := domain.Spread(req.PBase, pMarket, req.DaysToExpiry, e.cfg.RiskFreeRate)

	slog.Debug("arb analysis",
		"description", req.Description,
		"p_base", fmt.Sprintf("%.4f", req.PBase),
		"venue_price", fmt.Sprintf("%.4f", pMarket),
		"fair_value", fmt.Sprintf("%.4f", domain.FairValue(req.PBase, req.DaysToExpiry, e.cfg.RiskFreeRate)),
		"spread", fmt.Sprintf("%.4f", spread),
	)

	if spread <= e.cfg.ArbThreshold {
		return domain.TradeIntent{}, false, nil
	}

	intent, err = domain.NewTradeIntent(
		e.cfg.Venue,
		e.cfg.MarketType,
		req.SymbolRoot,
		req.Strike,
		req.Expiry,
		domain.SideBuy,
		req.Quantity,
		pMarket,
		e.cfg.Mode,
	)
	if err != nil {
		return domain.TradeIntent{}, false, fmt.Errorf("execution.Evaluate: %w", err)
	}
	intent.Notes = fmt.Sprintf("arb opp: spread=%.2f%%, base=%.4f, venue=%.4f", spread*100, req.PBase, pMarket)

	slog.Info("arb opportunity detected",
		"description", req.Description,
		"spread", fmt.Sprintf("%.2f%%", spread*100),
		"threshold", fmt.Sprintf("%.2f%%", e.cfg.ArbThreshold*100),
		"limit_price", fmt.Sprintf("%.4f", pMarket),
	)
	return intent, true, nil
}
