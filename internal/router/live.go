package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/halcyon-fi/harvester/internal/chain"
	"github.com/halcyon-fi/harvester/internal/logger"
	"github.com/halcyon-fi/harvester/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidAddress = errors.New("address is invalid")
	ErrInvalidCoin    = errors.New("input coin is invalid")
	ErrInvalidMinOut  = errors.New("minimum output is invalid")
	ErrInvalidRoute   = errors.New("route is invalid")
	ErrSwapFailed     = errors.New("swap failed")
)

var routerLogger = logger.GetForComponent("router_client")

// LiveRouter submits swaps to the external router through the execution
// gateway.
type LiveRouter struct {
	strategyAddr sdk.AccAddress
	gateway      *chain.GatewayClient
}

// NewLiveRouter creates a router adapter acting for the strategy account.
func NewLiveRouter(strategyAddr sdk.AccAddress, gateway *chain.GatewayClient) (*LiveRouter, error) {
	if strategyAddr.Empty() {
		return nil, errors.Join(ErrInvalidAddress, errors.New("strategy address cannot be empty"))
	}
	if gateway == nil {
		return nil, errors.New("gateway client cannot be nil")
	}

	return &LiveRouter{
		strategyAddr: strategyAddr,
		gateway:      gateway,
	}, nil
}

// swapParams is the gateway payload for an exact-input swap.
type swapParams struct {
	Sender       string   `json:"sender"`
	TokenInDenom string   `json:"token_in_denom"`
	AmountIn     string   `json:"amount_in"`
	MinAmountOut string   `json:"min_amount_out"`
	Route        []string `json:"route"`
	Recipient    string   `json:"recipient"`
	Deadline     int64    `json:"deadline"` // unix seconds; router rejects late execution
}

// SwapExactInput swaps tokenIn along route, crediting output to recipient.
func (r *LiveRouter) SwapExactInput(ctx context.Context, tokenIn sdk.Coin, minOut sdkmath.Int, route types.Route, recipient sdk.AccAddress, deadline time.Time) error {
	if tokenIn.Denom == "" || tokenIn.Amount.IsNil() || !tokenIn.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidCoin, tokenIn)
	}
	if minOut.IsNil() || minOut.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidMinOut, minOut)
	}
	if len(route) < 2 {
		return errors.Join(ErrInvalidRoute, errors.New("route needs at least two denoms"))
	}
	if route.In() != tokenIn.Denom {
		return fmt.Errorf("%w: route input %s does not match token %s", ErrInvalidRoute, route.In(), tokenIn.Denom)
	}
	if recipient.Empty() {
		return errors.Join(ErrInvalidAddress, errors.New("recipient cannot be empty"))
	}

	_, err := r.gateway.Execute(ctx, "router_swap_exact_input", swapParams{
		Sender:       r.strategyAddr.String(),
		TokenInDenom: tokenIn.Denom,
		AmountIn:     tokenIn.Amount.String(),
		MinAmountOut: minOut.String(),
		Route:        route,
		Recipient:    recipient.String(),
		Deadline:     deadline.Unix(),
	})
	if err != nil {
		return errors.Join(ErrSwapFailed, err)
	}

	routerLogger.Info().
		Str("route", route.String()).
		Str("amountIn", tokenIn.Amount.String()).
		Str("recipient", recipient.String()).
		Msg("Swap executed")

	return nil
}
