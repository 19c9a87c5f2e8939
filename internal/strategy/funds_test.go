package strategy

import (
	"context"
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-fi/harvester/internal/types"
)

func TestTotalBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("sums idle and staked", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(250))
		sim.staked = sdkmath.NewInt(750)
		s := newTestStrategy(t, sim)

		total, err := s.TotalBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(1000), total)
	})

	t.Run("zero when empty", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		total, err := s.TotalBalance(ctx)
		require.NoError(t, err)
		require.True(t, total.IsZero())
	})

	t.Run("reflects live staked amount, never a cache", func(t *testing.T) {
		sim := newSimChain()
		s := newTestStrategy(t, sim)

		sim.staked = sdkmath.NewInt(100)
		total, err := s.TotalBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(100), total)

		// Mutate the position behind the strategy's back.
		sim.staked = sdkmath.NewInt(175)
		total, err = s.TotalBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(175), total)
	})
}

func TestCheckedAdd(t *testing.T) {
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 255))

	t.Run("adds ordinary amounts", func(t *testing.T) {
		sum, err := checkedAdd(sdkmath.NewInt(3), sdkmath.NewInt(4))
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(7), sum)
	})

	t.Run("rejects near-cap operands", func(t *testing.T) {
		_, err := checkedAdd(huge, sdkmath.OneInt())
		require.ErrorIs(t, err, ErrBalanceOverflow)

		_, err = checkedAdd(sdkmath.OneInt(), huge)
		require.ErrorIs(t, err, ErrBalanceOverflow)
	})

	t.Run("rejects nil and negative", func(t *testing.T) {
		_, err := checkedAdd(sdkmath.Int{}, sdkmath.OneInt())
		require.ErrorIs(t, err, ErrInvalidAmount)

		_, err = checkedAdd(sdkmath.NewInt(-1), sdkmath.OneInt())
		require.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("stakes the entire idle balance", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(1000))
		s := newTestStrategy(t, sim)

		require.NoError(t, s.Deposit(ctx))
		require.True(t, sim.bal(selfAddr, principalDenom).IsZero())
		require.Equal(t, sdkmath.NewInt(1000), sim.staked)
	})

	t.Run("no-op with zero idle", func(t *testing.T) {
		sim := newSimChain()
		s := newTestStrategy(t, sim)

		require.NoError(t, s.Deposit(ctx))
		require.True(t, sim.staked.IsZero())
	})

	t.Run("rejected while paused", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(500))
		s := newTestStrategy(t, sim)
		require.NoError(t, s.Pause(ctx, types.Caller{Address: ownerAddr}))

		require.ErrorIs(t, s.Deposit(ctx), ErrStrategyPaused)
		require.Equal(t, sdkmath.NewInt(500), sim.bal(selfAddr, principalDenom))
	})

	t.Run("propagates stake failure", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(500))
		sim.failStake = errSimInsufficientFunds
		s := newTestStrategy(t, sim)

		require.ErrorIs(t, s.Deposit(ctx), errSimInsufficientFunds)
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	vault := types.Caller{Address: vaultAddr}

	t.Run("served from idle without unstaking", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(1000))
		sim.staked = sdkmath.NewInt(2000)
		s := newTestStrategy(t, sim)

		out, err := s.Withdraw(ctx, vault, sdkmath.NewInt(400))
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(400), out)
		require.Equal(t, sdkmath.NewInt(400), sim.bal(vaultAddr, principalDenom))
		require.Equal(t, sdkmath.NewInt(600), sim.bal(selfAddr, principalDenom))
		require.Equal(t, sdkmath.NewInt(2000), sim.staked, "staked position untouched")
	})

	t.Run("unstakes exactly the shortfall", func(t *testing.T) {
		// Deposit 1000, withdraw 400: the shortfall of 400 comes out of the
		// farm and the remaining 600 stays staked.
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(1000))
		s := newTestStrategy(t, sim)
		require.NoError(t, s.Deposit(ctx))

		out, err := s.Withdraw(ctx, vault, sdkmath.NewInt(400))
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(400), out)
		require.Equal(t, sdkmath.NewInt(400), sim.bal(vaultAddr, principalDenom))
		require.Equal(t, sdkmath.NewInt(600), sim.staked)
		require.True(t, sim.bal(selfAddr, principalDenom).IsZero())
	})

	t.Run("never transfers more than requested when the pool overshoots", func(t *testing.T) {
		sim := newSimChain()
		sim.staked = sdkmath.NewInt(1000)
		sim.unstakeBonus = sdkmath.NewInt(3) // pool rounds up in our favor
		s := newTestStrategy(t, sim)

		out, err := s.Withdraw(ctx, vault, sdkmath.NewInt(400))
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(400), out)
		require.Equal(t, sdkmath.NewInt(400), sim.bal(vaultAddr, principalDenom))
		require.Equal(t, sdkmath.NewInt(3), sim.bal(selfAddr, principalDenom), "overshoot stays idle")
	})

	t.Run("drains a thin pool instead of failing", func(t *testing.T) {
		sim := newSimChain()
		sim.staked = sdkmath.NewInt(600)
		s := newTestStrategy(t, sim)

		out, err := s.Withdraw(ctx, vault, sdkmath.NewInt(1000))
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(600), out)
		require.True(t, sim.staked.IsZero())
		require.Equal(t, sdkmath.NewInt(600), sim.bal(vaultAddr, principalDenom))
	})

	t.Run("vault-only", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(1000))
		s := newTestStrategy(t, sim)

		_, err := s.Withdraw(ctx, types.Caller{Address: callerAddr}, sdkmath.NewInt(100))
		require.ErrorIs(t, err, ErrUnauthorized)
		require.True(t, sim.bal(callerAddr, principalDenom).IsZero())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())

		_, err := s.Withdraw(ctx, vault, sdkmath.ZeroInt())
		require.ErrorIs(t, err, ErrInvalidAmount)

		_, err = s.Withdraw(ctx, vault, sdkmath.NewInt(-5))
		require.ErrorIs(t, err, ErrInvalidAmount)

		_, err = s.Withdraw(ctx, vault, sdkmath.Int{})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("allowed while paused", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(800))
		s := newTestStrategy(t, sim)
		require.NoError(t, s.Pause(ctx, types.Caller{Address: ownerAddr}))

		out, err := s.Withdraw(ctx, vault, sdkmath.NewInt(300))
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(300), out)
	})

	t.Run("wraps unstake failures as insufficient liquidity", func(t *testing.T) {
		sim := newSimChain()
		sim.staked = sdkmath.NewInt(1000)
		sim.failUnstake = errSimInsufficientFunds
		s := newTestStrategy(t, sim)

		_, err := s.Withdraw(ctx, vault, sdkmath.NewInt(400))
		require.ErrorIs(t, err, ErrInsufficientLiquidity)
	})
}

func TestRetire(t *testing.T) {
	ctx := context.Background()
	vault := types.Caller{Address: vaultAddr}

	t.Run("returns everything, abandoning pending rewards", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(100))
		sim.staked = sdkmath.NewInt(900)
		sim.pending = sdkmath.NewInt(50) // lost by the emergency path

		s := newTestStrategy(t, sim)
		out, err := s.Retire(ctx, vault)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(1000), out)
		require.Equal(t, sdkmath.NewInt(1000), sim.bal(vaultAddr, principalDenom))
		require.True(t, sim.staked.IsZero())
		require.True(t, sim.pending.IsZero())
	})

	t.Run("zero position retires cleanly", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		out, err := s.Retire(ctx, vault)
		require.NoError(t, err)
		require.True(t, out.IsZero())
	})

	t.Run("vault-only", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		_, err := s.Retire(ctx, types.Caller{Address: ownerAddr})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("allowed while paused", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(200))
		s := newTestStrategy(t, sim)
		require.NoError(t, s.Pause(ctx, types.Caller{Address: ownerAddr}))

		out, err := s.Retire(ctx, vault)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(200), out)
	})
}
