package farm

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Farm defines the interface for the external staking facility the strategy
// deposits principal into. Rewards accrue in the principal token and are paid
// out as a side effect of any unstake call, including a zero-amount one.
type Farm interface {
	// Stake deposits amount of principal into the farm pool.
	Stake(ctx context.Context, amount sdkmath.Int) error

	// Unstake withdraws amount of principal from the farm pool. A zero
	// amount withdraws nothing but still pays out pending rewards
	// ("claim rewards only").
	Unstake(ctx context.Context, amount sdkmath.Int) error

	// EmergencyWithdraw pulls the entire staked position out of the pool,
	// abandoning any unclaimed rewards.
	EmergencyWithdraw(ctx context.Context) error

	// StakedAmount returns the principal amount holder currently has
	// deposited in the pool, queried live. No side effects.
	StakedAmount(ctx context.Context, holder sdk.AccAddress) (sdkmath.Int, error)
}
