package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"

	"github.com/halcyon-fi/harvester/internal/chain"
	"github.com/halcyon-fi/harvester/internal/logger"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidAddress  = errors.New("address is invalid")
	ErrInvalidDenom    = errors.New("denom is invalid")
	ErrInvalidAmount   = errors.New("amount is invalid")
	ErrQueryFailed     = errors.New("balance query failed")
	ErrTransferFailed  = errors.New("transfer failed")
	ErrApproveFailed   = errors.New("approval update failed")
)

var ledgerLogger = logger.GetForComponent("ledger_client")

const queryTimeout = 15 * time.Second

// LiveLedger reads balances from the chain node over gRPC and routes token
// movements through the execution gateway, which signs on behalf of the
// strategy account.
type LiveLedger struct {
	strategyAddr sdk.AccAddress
	bankClient   banktypes.QueryClient
	gateway      *chain.GatewayClient
}

// NewLiveLedger creates a ledger adapter bound to the strategy account.
func NewLiveLedger(strategyAddr sdk.AccAddress, grpcConn *grpc.ClientConn, gateway *chain.GatewayClient) (*LiveLedger, error) {
	if strategyAddr.Empty() {
		return nil, errors.Join(ErrInvalidAddress, errors.New("strategy address cannot be empty"))
	}
	if err := chain.ValidateGRPCConnection(grpcConn); err != nil {
		return nil, err
	}
	if gateway == nil {
		return nil, errors.New("gateway client cannot be nil")
	}

	return &LiveLedger{
		strategyAddr: strategyAddr,
		bankClient:   banktypes.NewQueryClient(grpcConn),
		gateway:      gateway,
	}, nil
}

// BalanceOf queries the live bank balance of denom held by holder.
func (l *LiveLedger) BalanceOf(ctx context.Context, holder sdk.AccAddress, denom string) (sdkmath.Int, error) {
	if holder.Empty() {
		return sdkmath.ZeroInt(), errors.Join(ErrInvalidAddress, errors.New("holder cannot be empty"))
	}
	if denom == "" {
		return sdkmath.ZeroInt(), errors.Join(ErrInvalidDenom, errors.New("denom cannot be empty"))
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	resp, err := l.bankClient.Balance(queryCtx, &banktypes.QueryBalanceRequest{
		Address: holder.String(),
		Denom:   denom,
	})
	if err != nil {
		ledgerLogger.Error().Err(err).Str("holder", holder.String()).Str("denom", denom).Msg("Balance query failed")
		return sdkmath.ZeroInt(), errors.Join(ErrQueryFailed, err)
	}
	if resp == nil || resp.Balance == nil {
		return sdkmath.ZeroInt(), errors.Join(ErrQueryFailed, errors.New("balance response is nil"))
	}
	if resp.Balance.Amount.IsNil() || resp.Balance.Amount.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", ErrInvalidAmount, resp.Balance.Amount)
	}

	return resp.Balance.Amount, nil
}

// transferParams is the gateway payload for a ledger transfer.
type transferParams struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Transfer moves coin from the strategy account to the recipient.
func (l *LiveLedger) Transfer(ctx context.Context, to sdk.AccAddress, coin sdk.Coin) error {
	if to.Empty() {
		return errors.Join(ErrInvalidAddress, errors.New("recipient cannot be empty"))
	}
	if err := validateCoin(coin); err != nil {
		return err
	}

	_, err := l.gateway.Execute(ctx, "ledger_transfer", transferParams{
		From:   l.strategyAddr.String(),
		To:     to.String(),
		Denom:  coin.Denom,
		Amount: coin.Amount.String(),
	})
	if err != nil {
		return errors.Join(ErrTransferFailed, err)
	}

	ledgerLogger.Info().
		Str("to", to.String()).
		Str("denom", coin.Denom).
		Str("amount", coin.Amount.String()).
		Msg("Transfer executed")

	return nil
}

// approveParams is the gateway payload for an allowance update.
type approveParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// Approve replaces the spender's allowance over the strategy's coin.Denom
// balance. A zero amount revokes the allowance entirely.
func (l *LiveLedger) Approve(ctx context.Context, spender sdk.AccAddress, coin sdk.Coin) error {
	if spender.Empty() {
		return errors.Join(ErrInvalidAddress, errors.New("spender cannot be empty"))
	}
	if coin.Denom == "" {
		return errors.Join(ErrInvalidDenom, errors.New("denom cannot be empty"))
	}
	if coin.Amount.IsNil() || coin.Amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, coin.Amount)
	}

	_, err := l.gateway.Execute(ctx, "ledger_approve", approveParams{
		Owner:   l.strategyAddr.String(),
		Spender: spender.String(),
		Denom:   coin.Denom,
		Amount:  coin.Amount.String(),
	})
	if err != nil {
		return errors.Join(ErrApproveFailed, err)
	}

	ledgerLogger.Info().
		Str("spender", spender.String()).
		Str("denom", coin.Denom).
		Str("amount", coin.Amount.String()).
		Msg("Allowance updated")

	return nil
}

func validateCoin(coin sdk.Coin) error {
	if coin.Denom == "" {
		return errors.Join(ErrInvalidDenom, errors.New("denom cannot be empty"))
	}
	if coin.Amount.IsNil() {
		return errors.Join(ErrInvalidAmount, errors.New("amount is nil"))
	}
	if !coin.Amount.IsPositive() {
		return fmt.Errorf("%w: %s (must be positive)", ErrInvalidAmount, coin.Amount)
	}
	return nil
}
