/*

This file contains the lifecycle status of the strategy and the identity of
callers invoking its entry points.

*/

package types

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Status is the lifecycle state of the strategy.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusPaused Status = "PAUSED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusPaused
}

// Caller identifies the account invoking a strategy entry point. Contract is
// true when the caller is a programmable account rather than an externally
// controlled one; the harvest entry point rejects such callers.
type Caller struct {
	Address  sdk.AccAddress `json:"address"`
	Contract bool           `json:"contract"`
}

// LifecycleEvent records a single lifecycle transition for the audit trail.
type LifecycleEvent struct {
	ID             int64     `json:"id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Actor          string    `json:"actor"`  // bech32 address of the caller
	Reason         string    `json:"reason"` // e.g., "pause", "unpause", "panic"
}
