package strategy

import (
	"context"
	"errors"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/halcyon-fi/harvester/internal/types"
)

// Harvest runs the claim -> fee split -> reinvest pipeline. Callable by any
// externally controlled account while Active; programmable callers are
// rejected outright, which closes the contract-caller reentrancy vector on
// this entry point. The returned receipt records what each step moved, even
// on failure (Success false, Message set).
func (s *Strategy) Harvest(ctx context.Context, caller types.Caller) (types.HarvestReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One UUID threads the log lines and the receipt of this run.
	receipt := types.HarvestReceipt{
		HarvestID:   uuid.New().String(),
		Timestamp:   s.now(),
		Caller:      caller.Address.String(),
		ClaimedIdle: sdkmath.ZeroInt(),
		SkimAmount:  sdkmath.ZeroInt(),
		AuxObtained: sdkmath.ZeroInt(),
		CallFee:     sdkmath.ZeroInt(),
		RewardsFee:  sdkmath.ZeroInt(),
		Restaked:    sdkmath.ZeroInt(),
	}

	if s.status == types.StatusPaused {
		return s.failHarvest(receipt, ErrStrategyPaused)
	}
	if caller.Contract {
		return s.failHarvest(receipt, ErrContractCaller)
	}

	// Step 1: a zero-amount unstake pays out pending rewards to the idle
	// balance without touching the position.
	if err := s.farm.Unstake(ctx, sdkmath.ZeroInt()); err != nil {
		return s.failHarvest(receipt, errors.Join(ErrInsufficientLiquidity, err))
	}

	idle, err := s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.PrincipalDenom)
	if err != nil {
		return s.failHarvest(receipt, err)
	}
	receipt.ClaimedIdle = idle

	// Step 2: skim a tenth of harvested principal into the auxiliary token.
	// minOut stays zero, the 600s deadline is the only guard the router gets.
	skim := idle.MulRaw(SkimNumerator).QuoRaw(SkimDenominator)
	receipt.SkimAmount = skim
	if skim.IsPositive() {
		deadline := s.now().Add(SwapDeadline)
		err := s.router.SwapExactInput(ctx,
			sdk.NewCoin(s.cfg.PrincipalDenom, skim),
			sdkmath.ZeroInt(), s.cfg.RouteToAux, s.cfg.Self, deadline)
		if err != nil {
			return s.failHarvest(receipt, errors.Join(ErrInsufficientLiquidity, err))
		}
	}

	// Step 3: pay the caller incentive out of the auxiliary proceeds.
	auxBal, err := s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.AuxDenom)
	if err != nil {
		return s.failHarvest(receipt, err)
	}
	receipt.AuxObtained = auxBal

	callFee := auxBal.MulRaw(CallFeeBps).QuoRaw(MaxFee)
	receipt.CallFee = callFee
	if callFee.IsPositive() {
		if err := s.ledger.Transfer(ctx, caller.Address, sdk.NewCoin(s.cfg.AuxDenom, callFee)); err != nil {
			return s.failHarvest(receipt, err)
		}
	}

	// Step 4: buy back principal with the remainder and send it to the burn
	// address, removing it from circulating supply.
	rewardsFee := auxBal.MulRaw(RewardsFeeBps).QuoRaw(MaxFee)
	receipt.RewardsFee = rewardsFee
	if rewardsFee.IsPositive() {
		deadline := s.now().Add(SwapDeadline)
		err := s.router.SwapExactInput(ctx,
			sdk.NewCoin(s.cfg.AuxDenom, rewardsFee),
			sdkmath.ZeroInt(), s.cfg.RouteToPrincipal, s.cfg.Burn, deadline)
		if err != nil {
			return s.failHarvest(receipt, errors.Join(ErrInsufficientLiquidity, err))
		}
	}

	// Step 5: restake everything left, the untouched nine tenths plus any
	// rounding leftovers.
	remaining, err := s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.PrincipalDenom)
	if err != nil {
		return s.failHarvest(receipt, err)
	}
	receipt.Restaked = remaining
	if err := s.depositLocked(ctx); err != nil {
		return s.failHarvest(receipt, err)
	}

	receipt.Success = true

	s.logger.Info().
		Str("harvestId", receipt.HarvestID).
		Str("caller", receipt.Caller).
		Str("claimedIdle", receipt.ClaimedIdle.String()).
		Str("skim", receipt.SkimAmount.String()).
		Str("auxObtained", receipt.AuxObtained.String()).
		Str("callFee", receipt.CallFee.String()).
		Str("rewardsFee", receipt.RewardsFee.String()).
		Str("restaked", receipt.Restaked.String()).
		Msg("Harvest completed")

	// Step 6: notify with the caller's identity.
	s.notifyHarvest(receipt)

	return receipt, nil
}

func (s *Strategy) failHarvest(receipt types.HarvestReceipt, err error) (types.HarvestReceipt, error) {
	receipt.Success = false
	receipt.Message = err.Error()
	s.logger.Error().Err(err).Str("harvestId", receipt.HarvestID).Str("caller", receipt.Caller).Msg("Harvest aborted")
	return receipt, err
}
