package harvester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halcyon-fi/harvester/internal/logger"
	"github.com/halcyon-fi/harvester/internal/state"
	"github.com/halcyon-fi/harvester/internal/strategy"
	"github.com/halcyon-fi/harvester/internal/types"
)

// Harvester periodically triggers the strategy's harvest pipeline and records
// the outcome. It is the externally controlled account the anti-contract
// guard expects; a failed harvest is not retried until the next tick.
type Harvester struct {
	logger   zerolog.Logger
	strategy *strategy.Strategy
	caller   types.Caller
	interval time.Duration
}

// Config holds the configuration for creating a new Harvester instance
type Config struct {
	Strategy *strategy.Strategy
	Caller   types.Caller
	Interval time.Duration
}

// New creates a Harvester with dependency injection.
func New(cfg Config) (*Harvester, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("harvester configuration validation failed: %w", err)
	}

	h := &Harvester{
		logger:   logger.GetForComponent("harvester_loop"),
		strategy: cfg.Strategy,
		caller:   cfg.Caller,
		interval: cfg.Interval,
	}

	h.logger.Info().
		Str("caller", cfg.Caller.Address.String()).
		Dur("interval", cfg.Interval).
		Msg("Harvester instance created successfully")

	return h, nil
}

func validateConfig(cfg Config) error {
	if cfg.Strategy == nil {
		return fmt.Errorf("strategy cannot be nil")
	}
	if cfg.Caller.Address.Empty() {
		return fmt.Errorf("caller address cannot be empty")
	}
	if cfg.Caller.Contract {
		return fmt.Errorf("caller must be an externally controlled account")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

// RunLoop starts the main harvest loop with the configured interval.
// The first harvest runs immediately.
func (h *Harvester) RunLoop(ctx context.Context) {
	h.logger.Info().
		Dur("interval", h.interval).
		Msg("Starting harvest loop")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.runHarvest(ctx)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("Harvest loop stopped due to context cancellation")
			return
		case <-ticker.C:
			h.runHarvest(ctx)
		}
	}
}

// runHarvest triggers one harvest and records its outcome. Successful
// receipts are persisted by the strategy's notifiers; failures are saved
// here so the audit trail includes them.
func (h *Harvester) runHarvest(ctx context.Context) {
	h.logger.Info().Msg("--- Triggering harvest ---")
	start := time.Now()

	receipt, err := h.strategy.Harvest(ctx, h.caller)
	switch {
	case err == nil:
		h.logger.Info().
			Str("harvestId", receipt.HarvestID).
			Dur("elapsed", time.Since(start)).
			Msg("Harvest succeeded")
	case errors.Is(err, strategy.ErrStrategyPaused):
		// Expected while paused; nothing worth a receipt row.
		h.logger.Info().Msg("Harvest skipped, strategy is paused")
		return
	default:
		h.logger.Error().Err(err).Str("harvestId", receipt.HarvestID).Msg("Harvest failed")
		if _, saveErr := state.SaveHarvestReceipt(receipt); saveErr != nil {
			h.logger.Error().Err(saveErr).Msg("Failed to persist failure receipt")
		}
	}

	h.recordSnapshot(ctx)
}

// recordSnapshot captures the post-harvest idle/staked/total balances for the
// dashboard. Snapshot failures are logged, never fatal.
func (h *Harvester) recordSnapshot(ctx context.Context) {
	idle, err := h.strategy.IdleBalance(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Skipping snapshot, idle balance query failed")
		return
	}
	staked, err := h.strategy.StakedBalance(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Skipping snapshot, staked balance query failed")
		return
	}
	total, err := h.strategy.TotalBalance(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Skipping snapshot, total balance computation failed")
		return
	}

	snapshot := types.BalanceSnapshot{
		Timestamp: time.Now(),
		Idle:      idle,
		Staked:    staked,
		Total:     total,
	}
	if _, err := state.SaveBalanceSnapshot(snapshot); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to persist balance snapshot")
		return
	}

	h.logger.Debug().
		Str("idle", idle.String()).
		Str("staked", staked.String()).
		Str("total", total.String()).
		Msg("Balance snapshot recorded")
}
