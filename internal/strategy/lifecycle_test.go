package strategy

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-fi/harvester/internal/types"
)

func TestGrantAllowances(t *testing.T) {
	ctx := context.Background()
	sim := newSimChain()
	s := newTestStrategy(t, sim)

	require.NoError(t, s.GrantAllowances(ctx))

	// Farm pulls principal, router pulls both tokens. Nothing else.
	require.Equal(t, MaxAllowance, sim.approvals[farmAddr.String()+"|"+principalDenom])
	require.Equal(t, MaxAllowance, sim.approvals[routerAddr.String()+"|"+principalDenom])
	require.Equal(t, MaxAllowance, sim.approvals[routerAddr.String()+"|"+auxDenom])
	require.Len(t, sim.approvals, 3)

	require.Equal(t, MaxAllowance, s.Allowance(farmAddr, principalDenom))
	require.True(t, s.Allowance(farmAddr, auxDenom).IsZero(), "farm never pulls aux")
}

func TestPause(t *testing.T) {
	ctx := context.Background()
	owner := types.Caller{Address: ownerAddr}

	t.Run("revokes allowances and exits the farm", func(t *testing.T) {
		sim := newSimChain()
		sim.staked = sdkmath.NewInt(5_000)
		sim.pending = sdkmath.NewInt(300)
		notifier := &recordingNotifier{}
		s := newTestStrategy(t, sim, notifier)
		require.NoError(t, s.GrantAllowances(ctx))

		require.NoError(t, s.Pause(ctx, owner))
		require.Equal(t, types.StatusPaused, s.Status())

		// Position pulled out, pending rewards abandoned.
		require.True(t, sim.staked.IsZero())
		require.True(t, sim.pending.IsZero())
		require.Equal(t, sdkmath.NewInt(5_000), sim.bal(selfAddr, principalDenom))

		for _, tuple := range s.allowanceTuples() {
			require.True(t, sim.approvals[tuple.spender.String()+"|"+tuple.denom].IsZero(),
				"allowance for %s/%s not revoked", tuple.spender, tuple.denom)
		}

		require.Len(t, notifier.events, 1)
		require.Equal(t, types.StatusActive, notifier.events[0].PreviousStatus)
		require.Equal(t, types.StatusPaused, notifier.events[0].NewStatus)
		require.Equal(t, "pause", notifier.events[0].Reason)
		require.Equal(t, ownerAddr.String(), notifier.events[0].Actor)
	})

	t.Run("owner-only", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		require.ErrorIs(t, s.Pause(ctx, types.Caller{Address: vaultAddr}), ErrUnauthorized)
		require.Equal(t, types.StatusActive, s.Status())
	})

	t.Run("fails when already paused", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		require.NoError(t, s.Pause(ctx, owner))
		require.ErrorIs(t, s.Pause(ctx, owner), ErrStrategyPaused)
	})
}

func TestPanic(t *testing.T) {
	ctx := context.Background()
	owner := types.Caller{Address: ownerAddr}

	t.Run("idempotent", func(t *testing.T) {
		sim := newSimChain()
		sim.staked = sdkmath.NewInt(1_000)
		notifier := &recordingNotifier{}
		s := newTestStrategy(t, sim, notifier)

		require.NoError(t, s.Panic(ctx, owner))
		require.Equal(t, types.StatusPaused, s.Status())

		// A second panic repeats the halt without erroring.
		require.NoError(t, s.Panic(ctx, owner))
		require.Equal(t, types.StatusPaused, s.Status())
		require.Len(t, notifier.events, 2)
		require.Equal(t, types.StatusPaused, notifier.events[1].PreviousStatus)
		require.Equal(t, "panic", notifier.events[1].Reason)
	})

	t.Run("owner-only", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		require.ErrorIs(t, s.Panic(ctx, types.Caller{Address: callerAddr}), ErrUnauthorized)
	})
}

func TestUnpause(t *testing.T) {
	ctx := context.Background()
	owner := types.Caller{Address: ownerAddr}

	t.Run("re-grants allowances and resumes", func(t *testing.T) {
		sim := newSimChain()
		notifier := &recordingNotifier{}
		s := newTestStrategy(t, sim, notifier)
		require.NoError(t, s.GrantAllowances(ctx))
		require.NoError(t, s.Pause(ctx, owner))

		require.NoError(t, s.Unpause(ctx, owner))
		require.Equal(t, types.StatusActive, s.Status())
		for _, tuple := range s.allowanceTuples() {
			require.Equal(t, MaxAllowance, sim.approvals[tuple.spender.String()+"|"+tuple.denom])
		}

		require.Len(t, notifier.events, 2)
		require.Equal(t, types.StatusPaused, notifier.events[1].PreviousStatus)
		require.Equal(t, types.StatusActive, notifier.events[1].NewStatus)
		require.Equal(t, "unpause", notifier.events[1].Reason)
	})

	t.Run("restores deposit and harvest", func(t *testing.T) {
		sim := newSimChain()
		sim.credit(selfAddr, principalDenom, sdkmath.NewInt(500))
		s := newTestStrategy(t, sim)
		require.NoError(t, s.Pause(ctx, owner))
		require.ErrorIs(t, s.Deposit(ctx), ErrStrategyPaused)

		require.NoError(t, s.Unpause(ctx, owner))
		require.NoError(t, s.Deposit(ctx))
		require.Equal(t, sdkmath.NewInt(500), sim.staked)

		_, err := s.Harvest(ctx, types.Caller{Address: callerAddr})
		require.NoError(t, err)
	})

	t.Run("owner-only", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		require.NoError(t, s.Pause(ctx, owner))
		require.ErrorIs(t, s.Unpause(ctx, types.Caller{Address: vaultAddr}), ErrUnauthorized)
		require.Equal(t, types.StatusPaused, s.Status())
	})

	t.Run("fails while active", func(t *testing.T) {
		s := newTestStrategy(t, newSimChain())
		require.ErrorIs(t, s.Unpause(ctx, owner), ErrStrategyActive)
	})

	t.Run("approve failure keeps the strategy paused", func(t *testing.T) {
		sim := newSimChain()
		s := newTestStrategy(t, sim)
		require.NoError(t, s.Pause(ctx, owner))

		sim.failApprove = errSimInsufficientFunds
		require.ErrorIs(t, s.Unpause(ctx, owner), errSimInsufficientFunds)
		require.Equal(t, types.StatusPaused, s.Status())
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, testConfig().Validate())
	})

	t.Run("matching denoms rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.AuxDenom = cfg.PrincipalDenom
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("missing address rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.Burn = nil
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("route endpoints must match denoms", func(t *testing.T) {
		cfg := testConfig()
		cfg.RouteToAux = types.Route{auxDenom, hubDenom, principalDenom} // reversed
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("nil adapters rejected", func(t *testing.T) {
		sim := newSimChain()
		_, err := New(testConfig(), nil, sim, sim)
		require.ErrorIs(t, err, ErrInvalidConfig)
		_, err = New(testConfig(), sim, nil, sim)
		require.ErrorIs(t, err, ErrInvalidConfig)
		_, err = New(testConfig(), sim, sim, nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}
