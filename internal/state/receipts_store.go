// ./internal/state/receipts_store.go
package state

import (
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/halcyon-fi/harvester/internal/types"
)

// SaveHarvestReceipt persists one harvest receipt and returns its row ID.
// Failed harvests are saved too; the success flag distinguishes them.
func SaveHarvestReceipt(receipt types.HarvestReceipt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if receipt.HarvestID == "" {
		return 0, fmt.Errorf("harvest ID cannot be empty")
	}

	stmt := `
		INSERT INTO harvest_receipts (
			harvest_id, harvest_number, harvest_timestamp, caller,
			claimed_idle, skim_amount, aux_obtained, call_fee, rewards_fee, restaked,
			success, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING receipt_id;`

	var id int64
	err := DB.QueryRow(stmt,
		receipt.HarvestID, receipt.HarvestNumber, receipt.Timestamp, receipt.Caller,
		amountString(receipt.ClaimedIdle), amountString(receipt.SkimAmount),
		amountString(receipt.AuxObtained), amountString(receipt.CallFee),
		amountString(receipt.RewardsFee), amountString(receipt.Restaked),
		receipt.Success, receipt.Message,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert harvest receipt: %w", err)
	}
	return id, nil
}

// GetRecentHarvests retrieves the most recent harvest receipts, newest first.
func GetRecentHarvests(limit int) ([]types.HarvestReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT
			receipt_id, harvest_id, harvest_number, harvest_timestamp, caller,
			claimed_idle, skim_amount, aux_obtained, call_fee, rewards_fee, restaked,
			success, message
		FROM harvest_receipts
		ORDER BY harvest_timestamp DESC
		LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvest receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]types.HarvestReceipt, 0, limit)
	for rows.Next() {
		receipt, err := scanHarvestReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// GetLatestHarvest retrieves the single most recent harvest receipt.
// Returns sql.ErrNoRows when no harvest has been recorded yet.
func GetLatestHarvest() (types.HarvestReceipt, error) {
	receipts, err := GetRecentHarvests(1)
	if err != nil {
		return types.HarvestReceipt{}, err
	}
	if len(receipts) == 0 {
		return types.HarvestReceipt{}, sql.ErrNoRows
	}
	return receipts[0], nil
}

func scanHarvestReceipt(rows *sql.Rows) (types.HarvestReceipt, error) {
	var receipt types.HarvestReceipt
	var claimed, skim, aux, callFee, rewardsFee, restaked string
	var message sql.NullString

	err := rows.Scan(
		&receipt.ID, &receipt.HarvestID, &receipt.HarvestNumber, &receipt.Timestamp, &receipt.Caller,
		&claimed, &skim, &aux, &callFee, &rewardsFee, &restaked,
		&receipt.Success, &message,
	)
	if err != nil {
		return types.HarvestReceipt{}, fmt.Errorf("failed to scan harvest receipt: %w", err)
	}
	receipt.Message = message.String

	for _, field := range []struct {
		raw  string
		into *sdkmath.Int
	}{
		{claimed, &receipt.ClaimedIdle},
		{skim, &receipt.SkimAmount},
		{aux, &receipt.AuxObtained},
		{callFee, &receipt.CallFee},
		{rewardsFee, &receipt.RewardsFee},
		{restaked, &receipt.Restaked},
	} {
		amount, err := parseAmount(field.raw)
		if err != nil {
			return types.HarvestReceipt{}, err
		}
		*field.into = amount
	}

	return receipt, nil
}

// amountString renders an sdkmath.Int for a NUMERIC(78,0) column, treating a
// nil amount as zero.
func amountString(amount sdkmath.Int) string {
	if amount.IsNil() {
		return "0"
	}
	return amount.String()
}

// parseAmount converts a NUMERIC(78,0) column value back into an sdkmath.Int.
func parseAmount(raw string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("unparseable amount column value: %q", raw)
	}
	return amount, nil
}
