package farm

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/halcyon-fi/harvester/internal/chain"
	"github.com/halcyon-fi/harvester/internal/logger"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidAddress   = errors.New("address is invalid")
	ErrInvalidAmount    = errors.New("amount is invalid")
	ErrInvalidPoolID    = errors.New("pool ID is invalid")
	ErrStakeFailed      = errors.New("stake failed")
	ErrUnstakeFailed    = errors.New("unstake failed")
	ErrEmergencyFailed  = errors.New("emergency withdraw failed")
	ErrQueryFailed      = errors.New("staked amount query failed")
)

var farmLogger = logger.GetForComponent("farm_client")

// LiveFarm talks to the staking facility through the execution gateway.
type LiveFarm struct {
	strategyAddr sdk.AccAddress
	poolID       uint64
	gateway      *chain.GatewayClient
}

// NewLiveFarm creates a farm adapter bound to one pool of the staking facility.
func NewLiveFarm(strategyAddr sdk.AccAddress, poolID uint64, gateway *chain.GatewayClient) (*LiveFarm, error) {
	if strategyAddr.Empty() {
		return nil, errors.Join(ErrInvalidAddress, errors.New("strategy address cannot be empty"))
	}
	if poolID == 0 {
		return nil, errors.Join(ErrInvalidPoolID, errors.New("pool ID cannot be zero"))
	}
	if gateway == nil {
		return nil, errors.New("gateway client cannot be nil")
	}

	return &LiveFarm{
		strategyAddr: strategyAddr,
		poolID:       poolID,
		gateway:      gateway,
	}, nil
}

// stakeParams is the gateway payload for stake and unstake calls.
type stakeParams struct {
	PoolID uint64 `json:"pool_id"`
	Staker string `json:"staker"`
	Amount string `json:"amount"`
}

// Stake deposits amount of principal into the farm pool.
func (f *LiveFarm) Stake(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: %s (stake requires a positive amount)", ErrInvalidAmount, amount)
	}

	_, err := f.gateway.Execute(ctx, "farm_stake", stakeParams{
		PoolID: f.poolID,
		Staker: f.strategyAddr.String(),
		Amount: amount.String(),
	})
	if err != nil {
		return errors.Join(ErrStakeFailed, err)
	}

	farmLogger.Info().
		Uint64("poolId", f.poolID).
		Str("amount", amount.String()).
		Msg("Stake executed")

	return nil
}

// Unstake withdraws amount of principal. A zero amount is a claim-rewards-only
// call: the pool pays out pending rewards without touching the position.
func (f *LiveFarm) Unstake(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	_, err := f.gateway.Execute(ctx, "farm_unstake", stakeParams{
		PoolID: f.poolID,
		Staker: f.strategyAddr.String(),
		Amount: amount.String(),
	})
	if err != nil {
		return errors.Join(ErrUnstakeFailed, err)
	}

	farmLogger.Info().
		Uint64("poolId", f.poolID).
		Str("amount", amount.String()).
		Msg("Unstake executed")

	return nil
}

// emergencyParams is the gateway payload for an emergency withdraw.
type emergencyParams struct {
	PoolID uint64 `json:"pool_id"`
	Staker string `json:"staker"`
}

// EmergencyWithdraw pulls the full staked position, abandoning pending rewards.
func (f *LiveFarm) EmergencyWithdraw(ctx context.Context) error {
	_, err := f.gateway.Execute(ctx, "farm_emergency_withdraw", emergencyParams{
		PoolID: f.poolID,
		Staker: f.strategyAddr.String(),
	})
	if err != nil {
		return errors.Join(ErrEmergencyFailed, err)
	}

	farmLogger.Warn().
		Uint64("poolId", f.poolID).
		Msg("Emergency withdraw executed, pending rewards abandoned")

	return nil
}

// stakedAmountParams is the gateway payload for a staked amount query.
type stakedAmountParams struct {
	PoolID uint64 `json:"pool_id"`
	Staker string `json:"staker"`
}

// stakedAmountResult is the gateway response for a staked amount query.
type stakedAmountResult struct {
	Amount string `json:"amount"`
}

// StakedAmount queries the live staked position of holder in the pool.
func (f *LiveFarm) StakedAmount(ctx context.Context, holder sdk.AccAddress) (sdkmath.Int, error) {
	if holder.Empty() {
		return sdkmath.ZeroInt(), errors.Join(ErrInvalidAddress, errors.New("holder cannot be empty"))
	}

	var result stakedAmountResult
	err := f.gateway.Call(ctx, "farm_staked_amount", stakedAmountParams{
		PoolID: f.poolID,
		Staker: holder.String(),
	}, &result)
	if err != nil {
		return sdkmath.ZeroInt(), errors.Join(ErrQueryFailed, err)
	}

	amount, ok := sdkmath.NewIntFromString(result.Amount)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: unparseable amount %q", ErrQueryFailed, result.Amount)
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: negative amount %s", ErrQueryFailed, amount)
	}

	return amount, nil
}
