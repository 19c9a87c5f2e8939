/*

This file contains the types for harvest receipts and balance snapshots which
record the outcome of each harvest for the audit trail and the dashboard.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// HarvestReceipt records the amounts moved by a single harvest run.
// All amounts are in micro units of the respective token.
type HarvestReceipt struct {
	ID            int64       `json:"id,omitempty"`
	HarvestID     string      `json:"harvest_id"`     // UUID threading log lines of one run
	HarvestNumber int         `json:"harvest_number"` // persistent counter, survives restarts
	Timestamp     time.Time   `json:"timestamp"`
	Caller        string      `json:"caller"`         // bech32 address of the harvest trigger
	ClaimedIdle   sdkmath.Int `json:"claimed_idle"`   // idle principal after claiming rewards
	SkimAmount    sdkmath.Int `json:"skim_amount"`    // principal diverted to fee settlement
	AuxObtained   sdkmath.Int `json:"aux_obtained"`   // auxiliary tokens produced by the skim swap
	CallFee       sdkmath.Int `json:"call_fee"`       // auxiliary tokens paid to the caller
	RewardsFee    sdkmath.Int `json:"rewards_fee"`    // auxiliary tokens swapped to the burn address
	Restaked      sdkmath.Int `json:"restaked"`       // principal returned to the farm
	Success       bool        `json:"success"`
	Message       string      `json:"message,omitempty"`
}

// BalanceSnapshot captures the strategy's owned balances at a point in time.
type BalanceSnapshot struct {
	ID        int64       `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Idle      sdkmath.Int `json:"idle"`
	Staked    sdkmath.Int `json:"staked"`
	Total     sdkmath.Int `json:"total"`
}
