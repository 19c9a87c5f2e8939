package ledger

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Ledger defines the interface for the token ledger the strategy holds its
// balances on. This interface abstracts away the specific implementation
// details of balance reads and token movements, allowing for different
// implementations (live, mock, etc.).
type Ledger interface {
	// BalanceOf returns the current balance of denom held by holder.
	// No side effects.
	BalanceOf(ctx context.Context, holder sdk.AccAddress, denom string) (sdkmath.Int, error)

	// Transfer moves coin from the strategy account to the given recipient.
	// Fails when the strategy's balance is insufficient.
	Transfer(ctx context.Context, to sdk.AccAddress, coin sdk.Coin) error

	// Approve sets the spending allowance of spender over the strategy's
	// balance of coin.Denom to exactly coin.Amount, replacing any prior
	// allowance. A zero amount revokes the allowance.
	Approve(ctx context.Context, spender sdk.AccAddress, coin sdk.Coin) error
}
