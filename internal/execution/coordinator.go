package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

// Coordinator drives a trade intent through its lifecycle:
// PENDING → EXECUTED | FAILED | CANCELLED, all terminal.
//
// Every intent is recorded in the ledger before any venue interaction, so a
// crash mid-execution still leaves an auditable PENDING row.
type Coordinator struct {
	venue  ports.VenueAdapter
	ledger ports.Ledger
	mode   domain.ExecutionMode
}

// NewCoordinator validates the execution mode up front. Live mode is rejected
// unless the venue's live-execution flag is enabled in config.
func NewCoordinator(venue ports.VenueAdapter, ledger ports.Ledger, mode domain.ExecutionMode, allowLive bool) (*Coordinator, error) {
	if mode != domain.ModePaper && mode != domain.ModeLive {
		return nil, fmt.Errorf("execution.NewCoordinator: invalid mode %q, must be paper or live", mode)
	}
	if mode == domain.ModeLive && !allowLive {
		return nil, fmt.Errorf("execution.NewCoordinator: live execution is disabled for this venue")
	}
	return &Coordinator{venue: venue, ledger: ledger, mode: mode}, nil
}

// ExecuteIntent records the intent and executes it in the coordinator's mode.
// Returns the ledger id in all cases where the record was created; a non-nil
// error means the intent ended FAILED. There is no automatic retry — another
// attempt requires a new intent.
func (c *Coordinator) ExecuteIntent(ctx context.Context, intent domain.TradeIntent) (int64, error) {
	id, err := c.ledger.RecordTrade(ctx, intent)
	if err != nil {
		return 0, fmt.Errorf("execution.ExecuteIntent: record: %w", err)
	}

	if c.mode == domain.ModePaper {
		return id, c.executePaper(ctx, id, intent)
	}
	return id, c.executeLive(ctx, id, intent)
}

// executePaper marks the record EXECUTED immediately with a synthetic
// transaction id. Paper execution always succeeds.
func (c *Coordinator) executePaper(ctx context.Context, id int64, intent domain.TradeIntent) error {
	txnID := "PAPER-" + uuid.NewString()
	notes := fmt.Sprintf("paper trade executed at %s", time.Now().UTC().Format(time.RFC3339))

	if err := c.ledger.UpdateStatus(ctx, id, domain.StatusExecuted, txnID, notes); err != nil {
		return fmt.Errorf("execution.executePaper: mark executed: %w", err)
	}

	slog.Info("[PAPER] simulated execution",
		"id", id,
		"side", intent.Side,
		"quantity", intent.Quantity,
		"symbol_root", intent.SymbolRoot,
		"limit_price", intent.LimitPrice,
		"txn_id", txnID,
	)
	return nil
}

// executeLive resolves the contract and submits a real order. Any resolution
// or placement failure marks the record FAILED with the reason and reports
// the failure to the caller; the process keeps running.
func (c *Coordinator) executeLive(ctx context.Context, id int64, intent domain.TradeIntent) error {
	right := domain.RightYes
	if intent.Side == domain.SideSell {
		right = domain.RightNo
	}

	contract, found, err := c.venue.ResolveContract(ctx, intent.SymbolRoot, intent.Strike, intent.Expiry, right)
	if err != nil {
		c.markFailed(ctx, id, fmt.Sprintf("contract resolution error: %v", err))
		return fmt.Errorf("execution.executeLive: resolve contract: %w", err)
	}
	if !found {
		c.markFailed(ctx, id, "contract not found")
		return fmt.Errorf("execution.executeLive: contract not found for %s", intent.SymbolRoot)
	}

	txnID, err := c.venue.PlaceOrder(ctx, contract, intent.Side, intent.Quantity, intent.OrderType, intent.LimitPrice)
	if err != nil {
		c.markFailed(ctx, id, fmt.Sprintf("order placement failed: %v", err))
		return fmt.Errorf("execution.executeLive: place order: %w", err)
	}

	if err := c.ledger.UpdateStatus(ctx, id, domain.StatusExecuted, txnID, "live order placed"); err != nil {
		return fmt.Errorf("execution.executeLive: mark executed: %w", err)
	}

	slog.Info("[LIVE] order placed",
		"id", id,
		"side", intent.Side,
		"quantity", intent.Quantity,
		"symbol_root", intent.SymbolRoot,
		"limit_price", intent.LimitPrice,
		"txn_id", txnID,
	)
	return nil
}

// markFailed transitions the record to FAILED with the failure reason.
// Errors here are logged, not returned: the original failure takes precedence.
func (c *Coordinator) markFailed(ctx context.Context, id int64, reason string) {
	if err := c.ledger.UpdateStatus(ctx, id, domain.StatusFailed, "", reason); err != nil {
		slog.Error("could not mark trade as failed", "id", id, "reason", reason, "err", err)
	}
}
