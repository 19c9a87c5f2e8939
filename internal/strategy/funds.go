package strategy

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/halcyon-fi/harvester/internal/types"
)

// Deposit stakes the strategy's entire idle principal balance into the farm.
// Callable by anyone while Active. A zero idle balance is a documented no-op,
// not an error.
func (s *Strategy) Deposit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == types.StatusPaused {
		return ErrStrategyPaused
	}
	return s.depositLocked(ctx)
}

// depositLocked is the shared restake step used by Deposit and the tail of a
// harvest. Caller holds the mutex and has already checked the status.
func (s *Strategy) depositLocked(ctx context.Context) error {
	idle, err := s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.PrincipalDenom)
	if err != nil {
		return err
	}
	if !idle.IsPositive() {
		s.logger.Debug().Msg("Deposit skipped, no idle principal")
		return nil
	}

	if err := s.farm.Stake(ctx, idle); err != nil {
		return err
	}

	s.logger.Info().Str("amount", idle.String()).Msg("Idle principal staked")
	return nil
}

// Withdraw moves up to amount of principal to the vault, unstaking the
// shortfall first when the idle balance does not cover it. Only the vault may
// call it; it works in either lifecycle state. When the pool cannot produce
// the full shortfall the transfer is clamped to what became available rather
// than failing — the vault receives the returned amount.
func (s *Strategy) Withdraw(ctx context.Context, caller types.Caller, amount sdkmath.Int) (sdkmath.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !caller.Address.Equals(s.cfg.Vault) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: withdraw is vault-only", ErrUnauthorized)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	idle, err := s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.PrincipalDenom)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	if idle.LT(amount) {
		shortfall := amount.Sub(idle)

		staked, err := s.farm.StakedAmount(ctx, s.cfg.Self)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}

		// Clamp to the live position so draining a thin pool never errors.
		unstakeAmount := sdkmath.MinInt(shortfall, staked)
		if unstakeAmount.IsPositive() {
			if err := s.farm.Unstake(ctx, unstakeAmount); err != nil {
				return sdkmath.ZeroInt(), errors.Join(ErrInsufficientLiquidity, err)
			}
		}

		// Re-read, the pool may round the unstaked amount either way.
		idle, err = s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.PrincipalDenom)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	// Never transfer more than requested even if unstaking overshot.
	out := sdkmath.MinInt(amount, idle)
	if out.IsPositive() {
		if err := s.ledger.Transfer(ctx, s.cfg.Vault, sdk.NewCoin(s.cfg.PrincipalDenom, out)); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	if out.LT(amount) {
		s.logger.Warn().
			Str("requested", amount.String()).
			Str("delivered", out.String()).
			Msg("Withdraw partially fulfilled")
	} else {
		s.logger.Info().Str("amount", out.String()).Msg("Withdraw fulfilled")
	}

	return out, nil
}

// Retire force-unstakes the full position, abandoning pending rewards, and
// sends the entire resulting idle principal to the vault. Vault-only,
// permitted in either lifecycle state. Returns the transferred amount.
func (s *Strategy) Retire(ctx context.Context, caller types.Caller) (sdkmath.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !caller.Address.Equals(s.cfg.Vault) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: retire is vault-only", ErrUnauthorized)
	}

	if err := s.farm.EmergencyWithdraw(ctx); err != nil {
		return sdkmath.ZeroInt(), err
	}

	idle, err := s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.PrincipalDenom)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if idle.IsPositive() {
		if err := s.ledger.Transfer(ctx, s.cfg.Vault, sdk.NewCoin(s.cfg.PrincipalDenom, idle)); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	s.logger.Warn().Str("amount", idle.String()).Msg("Strategy retired, principal returned to vault")
	return idle, nil
}
