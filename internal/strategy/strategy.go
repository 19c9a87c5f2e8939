/*

This package is the accounting-and-fee-distribution core of the strategy: the
balance accountant, the deposit/withdraw reconciliation, the harvest pipeline
and the pause/emergency lifecycle state machine. Everything on-chain is
reached through the ledger, farm and router adapter interfaces so the core
can run against mocks.

*/

package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog"

	"github.com/halcyon-fi/harvester/internal/farm"
	"github.com/halcyon-fi/harvester/internal/ledger"
	"github.com/halcyon-fi/harvester/internal/logger"
	"github.com/halcyon-fi/harvester/internal/router"
	"github.com/halcyon-fi/harvester/internal/types"
)

// Error taxonomy. Every failed operation aborts with one of these (possibly
// wrapping an adapter error) and leaves no partial state behind.
var (
	ErrUnauthorized          = errors.New("caller is not authorized")
	ErrStrategyPaused        = errors.New("strategy is paused")
	ErrStrategyActive        = errors.New("strategy is not paused")
	ErrContractCaller        = errors.New("programmable callers are rejected")
	ErrInsufficientLiquidity = errors.New("external liquidity is insufficient")
	ErrBalanceOverflow       = errors.New("balance addition overflows")
	ErrInvalidAmount         = errors.New("amount is invalid")
	ErrInvalidConfig         = errors.New("strategy configuration is invalid")
)

// Fee schedule. Immutable by construction: the two shares always sum to
// MaxFee, and the skim is a fixed tenth of harvested principal.
const (
	MaxFee        = 1000
	RewardsFeeBps = 950
	CallFeeBps    = 50

	SkimNumerator   = 10
	SkimDenominator = 100

	// SwapDeadline is how long the router may take to execute a fee swap.
	SwapDeadline = 600 * time.Second
)

// maxAmountBits bounds checked additions; sdkmath.Int itself caps out at 256
// bits, so staying one bit under keeps Add from ever panicking.
const maxAmountBits = 255

// MaxAllowance is the practically unlimited allowance granted to the farm and
// router while the strategy is active.
var MaxAllowance = sdkmath.NewIntWithDecimal(1, 50)

// Config is the immutable wiring of a strategy instance, injected at
// construction. There is no update path for any of these.
type Config struct {
	PrincipalDenom string
	AuxDenom       string

	Self   sdk.AccAddress // the account custodying idle balances
	Vault  sdk.AccAddress // sole authorized caller for withdraw/retire
	Owner  sdk.AccAddress // controls lifecycle transitions
	Burn   sdk.AccAddress // recipient of the buy-back swap output
	Farm   sdk.AccAddress // staking facility, as an allowance spender
	Router sdk.AccAddress // swap router, as an allowance spender

	RouteToAux       types.Route // principal -> auxiliary fee settlement path
	RouteToPrincipal types.Route // auxiliary -> principal buy-back path
}

// Validate checks the config is complete and internally consistent.
func (c Config) Validate() error {
	if c.PrincipalDenom == "" {
		return errors.Join(ErrInvalidConfig, errors.New("principal denom cannot be empty"))
	}
	if c.AuxDenom == "" {
		return errors.Join(ErrInvalidConfig, errors.New("auxiliary denom cannot be empty"))
	}
	if c.AuxDenom == c.PrincipalDenom {
		return errors.Join(ErrInvalidConfig, errors.New("auxiliary denom must differ from principal denom"))
	}
	for name, addr := range map[string]sdk.AccAddress{
		"self": c.Self, "vault": c.Vault, "owner": c.Owner,
		"burn": c.Burn, "farm": c.Farm, "router": c.Router,
	} {
		if addr.Empty() {
			return fmt.Errorf("%w: %s address cannot be empty", ErrInvalidConfig, name)
		}
	}
	if err := c.RouteToAux.Validate(c.PrincipalDenom, c.AuxDenom); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if err := c.RouteToPrincipal.Validate(c.AuxDenom, c.PrincipalDenom); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	return nil
}

// Notifier receives strategy events. Implementations must not call back into
// the strategy.
type Notifier interface {
	HarvestCompleted(receipt types.HarvestReceipt)
	StatusChanged(event types.LifecycleEvent)
}

// Strategy is the core engine. All entry points serialize on an internal
// mutex, giving the atomic one-operation-at-a-time execution model the
// accounting logic assumes.
type Strategy struct {
	mu sync.Mutex

	cfg    Config
	ledger ledger.Ledger
	farm   farm.Farm
	router router.Router

	status    types.Status
	grants    map[grantKey]sdkmath.Int
	notifiers []Notifier

	logger zerolog.Logger
	now    func() time.Time
}

// New creates a strategy in the Active state. It performs no external calls;
// call GrantAllowances once at startup to put the farm and router approvals
// in place.
func New(cfg Config, l ledger.Ledger, f farm.Farm, r router.Router, notifiers ...Notifier) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("ledger adapter cannot be nil"))
	}
	if f == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("farm adapter cannot be nil"))
	}
	if r == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("router adapter cannot be nil"))
	}

	s := &Strategy{
		cfg:       cfg,
		ledger:    l,
		farm:      f,
		router:    r,
		status:    types.StatusActive,
		grants:    make(map[grantKey]sdkmath.Int),
		notifiers: notifiers,
		logger:    logger.GetForComponent("strategy_core"),
		now:       time.Now,
	}

	s.logger.Info().
		Str("principal", cfg.PrincipalDenom).
		Str("aux", cfg.AuxDenom).
		Str("vault", cfg.Vault.String()).
		Msg("Strategy initialized in Active state")

	return s, nil
}

// Status returns the current lifecycle state.
func (s *Strategy) Status() types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IdleBalance returns the principal balance held directly by the strategy.
func (s *Strategy) IdleBalance(ctx context.Context) (sdkmath.Int, error) {
	return s.ledger.BalanceOf(ctx, s.cfg.Self, s.cfg.PrincipalDenom)
}

// StakedBalance returns the principal currently deposited in the farm,
// queried live. Never cached.
func (s *Strategy) StakedBalance(ctx context.Context) (sdkmath.Int, error) {
	return s.farm.StakedAmount(ctx, s.cfg.Self)
}

// TotalBalance returns idle + staked principal. The addition is checked;
// overflow cannot occur under realistic token supplies but fails fast
// anyway.
func (s *Strategy) TotalBalance(ctx context.Context) (sdkmath.Int, error) {
	idle, err := s.IdleBalance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	staked, err := s.StakedBalance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return checkedAdd(idle, staked)
}

// checkedAdd adds two non-negative amounts, failing instead of panicking when
// the sum would exceed sdkmath.Int's internal bit cap.
func checkedAdd(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() {
		return sdkmath.ZeroInt(), errors.Join(ErrInvalidAmount, errors.New("amount is nil"))
	}
	if a.IsNegative() || b.IsNegative() {
		return sdkmath.ZeroInt(), errors.Join(ErrInvalidAmount, errors.New("amount is negative"))
	}
	if a.BigInt().BitLen() >= maxAmountBits || b.BigInt().BitLen() >= maxAmountBits {
		return sdkmath.ZeroInt(), ErrBalanceOverflow
	}
	return a.Add(b), nil
}

func (s *Strategy) notifyHarvest(receipt types.HarvestReceipt) {
	for _, n := range s.notifiers {
		n.HarvestCompleted(receipt)
	}
}

func (s *Strategy) notifyStatus(event types.LifecycleEvent) {
	for _, n := range s.notifiers {
		n.StatusChanged(event)
	}
}
