package router

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/halcyon-fi/harvester/internal/types"
)

// Router defines the interface for the external swap router used during fee
// settlement. The strategy only ever swaps along its two fixed routes.
type Router interface {
	// SwapExactInput swaps tokenIn along route and credits the output to
	// recipient. Fails when the deadline has elapsed before execution or
	// the output falls below minOut.
	SwapExactInput(ctx context.Context, tokenIn sdk.Coin, minOut sdkmath.Int, route types.Route, recipient sdk.AccAddress, deadline time.Time) error
}
