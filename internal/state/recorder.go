package state

import (
	"github.com/rs/zerolog"

	"github.com/halcyon-fi/harvester/internal/logger"
	"github.com/halcyon-fi/harvester/internal/types"
)

// Recorder persists strategy notifications. It satisfies the strategy's
// Notifier interface structurally so the core never imports this package.
type Recorder struct {
	logger zerolog.Logger
}

// NewRecorder creates a Recorder. The database must be initialized before the
// first notification arrives.
func NewRecorder() *Recorder {
	return &Recorder{
		logger: logger.GetForComponent("state_recorder"),
	}
}

// HarvestCompleted persists the receipt of a successful harvest, stamping it
// with the next value of the persistent harvest counter.
func (r *Recorder) HarvestCompleted(receipt types.HarvestReceipt) {
	number, err := IncrementHarvestNumber()
	if err != nil {
		r.logger.Error().Err(err).Str("harvestId", receipt.HarvestID).Msg("Failed to increment harvest counter")
	} else {
		receipt.HarvestNumber = number
	}

	if _, err := SaveHarvestReceipt(receipt); err != nil {
		r.logger.Error().Err(err).Str("harvestId", receipt.HarvestID).Msg("Failed to persist harvest receipt")
		return
	}

	r.logger.Debug().
		Str("harvestId", receipt.HarvestID).
		Int("harvestNumber", receipt.HarvestNumber).
		Msg("Harvest receipt persisted")
}

// StatusChanged persists a lifecycle transition to the audit trail.
func (r *Recorder) StatusChanged(event types.LifecycleEvent) {
	if _, err := SaveLifecycleEvent(event); err != nil {
		r.logger.Error().Err(err).
			Str("from", string(event.PreviousStatus)).
			Str("to", string(event.NewStatus)).
			Msg("Failed to persist lifecycle event")
		return
	}

	r.logger.Debug().
		Str("from", string(event.PreviousStatus)).
		Str("to", string(event.NewStatus)).
		Str("actor", event.Actor).
		Msg("Lifecycle event persisted")
}
