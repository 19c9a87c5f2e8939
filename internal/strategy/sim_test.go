package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/halcyon-fi/harvester/internal/types"
)

// Test denoms and fixed accounts shared by the strategy tests.
const (
	principalDenom = "uhal"
	hubDenom       = "uhub"
	auxDenom       = "uaxl"
)

var errSimInsufficientFunds = errors.New("insufficient funds")

var (
	selfAddr   = sdk.AccAddress([]byte("strategy-test-addr-1"))
	vaultAddr  = sdk.AccAddress([]byte("vault-test-address-1"))
	ownerAddr  = sdk.AccAddress([]byte("owner-test-address-1"))
	burnAddr   = sdk.AccAddress([]byte("burn-test-address-12"))
	farmAddr   = sdk.AccAddress([]byte("farm-test-address-12"))
	routerAddr = sdk.AccAddress([]byte("router-test-address1"))
	callerAddr = sdk.AccAddress([]byte("caller-test-address1"))
)

// simChain is an in-memory double for the ledger, farm and router a strategy
// talks to. Balances move the way the real collaborators move them: staking
// debits the idle balance, unstaking pays out pending rewards, swaps debit
// the input and credit the route's output denom 1:1 unless a swapRate is set.
type simChain struct {
	balances map[string]map[string]sdkmath.Int // holder -> denom -> amount
	staked   sdkmath.Int
	pending  sdkmath.Int // rewards paid out by the next unstake

	approvals map[string]sdkmath.Int // spender|denom -> limit

	// unstakeBonus mimics pool rounding overshoot: credited on top of any
	// positive unstake.
	unstakeBonus sdkmath.Int

	// swapRate overrides the default 1:1 conversion when set.
	swapRate func(route types.Route, in sdkmath.Int) sdkmath.Int

	failStake    error
	failUnstake  error
	failSwap     error
	failTransfer error
	failApprove  error
}

func newSimChain() *simChain {
	return &simChain{
		balances:     make(map[string]map[string]sdkmath.Int),
		staked:       sdkmath.ZeroInt(),
		pending:      sdkmath.ZeroInt(),
		approvals:    make(map[string]sdkmath.Int),
		unstakeBonus: sdkmath.ZeroInt(),
	}
}

func (c *simChain) bal(holder sdk.AccAddress, denom string) sdkmath.Int {
	if denoms, ok := c.balances[holder.String()]; ok {
		if amount, ok := denoms[denom]; ok {
			return amount
		}
	}
	return sdkmath.ZeroInt()
}

func (c *simChain) credit(holder sdk.AccAddress, denom string, amount sdkmath.Int) {
	if _, ok := c.balances[holder.String()]; !ok {
		c.balances[holder.String()] = make(map[string]sdkmath.Int)
	}
	c.balances[holder.String()][denom] = c.bal(holder, denom).Add(amount)
}

func (c *simChain) debit(holder sdk.AccAddress, denom string, amount sdkmath.Int) error {
	current := c.bal(holder, denom)
	if current.LT(amount) {
		return errSimInsufficientFunds
	}
	c.balances[holder.String()][denom] = current.Sub(amount)
	return nil
}

// --- ledger.Ledger ---

func (c *simChain) BalanceOf(_ context.Context, holder sdk.AccAddress, denom string) (sdkmath.Int, error) {
	return c.bal(holder, denom), nil
}

func (c *simChain) Transfer(_ context.Context, to sdk.AccAddress, coin sdk.Coin) error {
	if c.failTransfer != nil {
		return c.failTransfer
	}
	if err := c.debit(selfAddr, coin.Denom, coin.Amount); err != nil {
		return err
	}
	c.credit(to, coin.Denom, coin.Amount)
	return nil
}

func (c *simChain) Approve(_ context.Context, spender sdk.AccAddress, coin sdk.Coin) error {
	if c.failApprove != nil {
		return c.failApprove
	}
	c.approvals[spender.String()+"|"+coin.Denom] = coin.Amount
	return nil
}

// --- farm.Farm ---

func (c *simChain) Stake(_ context.Context, amount sdkmath.Int) error {
	if c.failStake != nil {
		return c.failStake
	}
	if err := c.debit(selfAddr, principalDenom, amount); err != nil {
		return err
	}
	c.staked = c.staked.Add(amount)
	return nil
}

func (c *simChain) Unstake(_ context.Context, amount sdkmath.Int) error {
	if c.failUnstake != nil {
		return c.failUnstake
	}
	if amount.GT(c.staked) {
		return errSimInsufficientFunds
	}
	c.staked = c.staked.Sub(amount)
	payout := amount.Add(c.pending)
	if amount.IsPositive() {
		payout = payout.Add(c.unstakeBonus)
	}
	c.pending = sdkmath.ZeroInt()
	if payout.IsPositive() {
		c.credit(selfAddr, principalDenom, payout)
	}
	return nil
}

func (c *simChain) EmergencyWithdraw(_ context.Context) error {
	if c.staked.IsPositive() {
		c.credit(selfAddr, principalDenom, c.staked)
	}
	c.staked = sdkmath.ZeroInt()
	c.pending = sdkmath.ZeroInt() // abandoned
	return nil
}

func (c *simChain) StakedAmount(_ context.Context, _ sdk.AccAddress) (sdkmath.Int, error) {
	return c.staked, nil
}

// --- router.Router ---

func (c *simChain) SwapExactInput(_ context.Context, tokenIn sdk.Coin, minOut sdkmath.Int, route types.Route, recipient sdk.AccAddress, _ time.Time) error {
	if c.failSwap != nil {
		return c.failSwap
	}
	if err := route.Validate(tokenIn.Denom, route.Out()); err != nil {
		return err
	}
	if err := c.debit(selfAddr, tokenIn.Denom, tokenIn.Amount); err != nil {
		return err
	}
	out := tokenIn.Amount
	if c.swapRate != nil {
		out = c.swapRate(route, tokenIn.Amount)
	}
	if out.LT(minOut) {
		return errSimInsufficientFunds
	}
	if out.IsPositive() {
		c.credit(recipient, route.Out(), out)
	}
	return nil
}

func testConfig() Config {
	return Config{
		PrincipalDenom:   principalDenom,
		AuxDenom:         auxDenom,
		Self:             selfAddr,
		Vault:            vaultAddr,
		Owner:            ownerAddr,
		Burn:             burnAddr,
		Farm:             farmAddr,
		Router:           routerAddr,
		RouteToAux:       types.Route{principalDenom, hubDenom, auxDenom},
		RouteToPrincipal: types.Route{auxDenom, hubDenom, principalDenom},
	}
}

func newTestStrategy(t *testing.T, sim *simChain, notifiers ...Notifier) *Strategy {
	t.Helper()
	s, err := New(testConfig(), sim, sim, sim, notifiers...)
	if err != nil {
		t.Fatalf("failed to build strategy: %v", err)
	}
	return s
}
