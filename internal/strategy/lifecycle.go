package strategy

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/halcyon-fi/harvester/internal/types"
)

// grantKey identifies one (spender, denom) allowance tuple.
type grantKey struct {
	spender string
	denom   string
}

// allowanceTuples lists every allowance the strategy hands out while active:
// the farm may pull principal, the router may pull both tokens.
func (s *Strategy) allowanceTuples() []struct {
	spender sdk.AccAddress
	denom   string
} {
	return []struct {
		spender sdk.AccAddress
		denom   string
	}{
		{s.cfg.Farm, s.cfg.PrincipalDenom},
		{s.cfg.Router, s.cfg.PrincipalDenom},
		{s.cfg.Router, s.cfg.AuxDenom},
	}
}

// GrantAllowances puts the unlimited farm/router approvals in place. Called
// once at startup and again on every unpause.
func (s *Strategy) GrantAllowances(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grantAllowancesLocked(ctx)
}

func (s *Strategy) grantAllowancesLocked(ctx context.Context) error {
	for _, t := range s.allowanceTuples() {
		if err := s.ledger.Approve(ctx, t.spender, sdk.NewCoin(t.denom, MaxAllowance)); err != nil {
			return err
		}
		s.grants[grantKey{t.spender.String(), t.denom}] = MaxAllowance
	}
	s.logger.Info().Msg("Farm and router allowances granted")
	return nil
}

func (s *Strategy) revokeAllowancesLocked(ctx context.Context) error {
	for _, t := range s.allowanceTuples() {
		if err := s.ledger.Approve(ctx, t.spender, sdk.NewCoin(t.denom, sdkmath.ZeroInt())); err != nil {
			return err
		}
		s.grants[grantKey{t.spender.String(), t.denom}] = sdkmath.ZeroInt()
	}
	s.logger.Warn().Msg("Farm and router allowances revoked")
	return nil
}

// Allowance reports the currently recorded grant for a (spender, denom)
// tuple. Zero when nothing was ever granted.
func (s *Strategy) Allowance(spender sdk.AccAddress, denom string) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit, ok := s.grants[grantKey{spender.String(), denom}]; ok {
		return limit
	}
	return sdkmath.ZeroInt()
}

// Pause transitions Active -> Paused. Owner-only. Revokes every outstanding
// allowance so stale approvals cannot move funds while paused, then pulls the
// full position out of the farm, abandoning unclaimed rewards.
func (s *Strategy) Pause(ctx context.Context, caller types.Caller) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !caller.Address.Equals(s.cfg.Owner) {
		return fmt.Errorf("%w: pause is owner-only", ErrUnauthorized)
	}
	if s.status == types.StatusPaused {
		return ErrStrategyPaused
	}

	return s.haltLocked(ctx, caller, "pause")
}

// Panic is the defensive halt: same effects as Pause but callable from either
// state, so a second invocation is safe.
func (s *Strategy) Panic(ctx context.Context, caller types.Caller) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !caller.Address.Equals(s.cfg.Owner) {
		return fmt.Errorf("%w: panic is owner-only", ErrUnauthorized)
	}

	return s.haltLocked(ctx, caller, "panic")
}

func (s *Strategy) haltLocked(ctx context.Context, caller types.Caller, reason string) error {
	if err := s.revokeAllowancesLocked(ctx); err != nil {
		return err
	}
	if err := s.farm.EmergencyWithdraw(ctx); err != nil {
		return err
	}

	previous := s.status
	s.status = types.StatusPaused

	event := types.LifecycleEvent{
		Timestamp:      s.now(),
		PreviousStatus: previous,
		NewStatus:      types.StatusPaused,
		Actor:          caller.Address.String(),
		Reason:         reason,
	}
	s.logger.Warn().
		Str("actor", event.Actor).
		Str("reason", reason).
		Msg("Strategy halted")
	s.notifyStatus(event)

	return nil
}

// Unpause transitions Paused -> Active and re-grants the unlimited farm and
// router allowances. Owner-only.
func (s *Strategy) Unpause(ctx context.Context, caller types.Caller) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !caller.Address.Equals(s.cfg.Owner) {
		return fmt.Errorf("%w: unpause is owner-only", ErrUnauthorized)
	}
	if s.status == types.StatusActive {
		return ErrStrategyActive
	}

	if err := s.grantAllowancesLocked(ctx); err != nil {
		return err
	}

	s.status = types.StatusActive

	event := types.LifecycleEvent{
		Timestamp:      s.now(),
		PreviousStatus: types.StatusPaused,
		NewStatus:      types.StatusActive,
		Actor:          caller.Address.String(),
		Reason:         "unpause",
	}
	s.logger.Info().Str("actor", event.Actor).Msg("Strategy unpaused")
	s.notifyStatus(event)

	return nil
}
