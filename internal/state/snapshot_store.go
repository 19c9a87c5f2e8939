// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/halcyon-fi/harvester/internal/types"
)

// SaveBalanceSnapshot persists one idle/staked/total balance observation.
func SaveBalanceSnapshot(snapshot types.BalanceSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	stmt := `
		INSERT INTO balance_snapshots (snapshot_timestamp, idle_amount, staked_amount, total_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING snapshot_id;`

	var id int64
	err := DB.QueryRow(stmt,
		snapshot.Timestamp,
		amountString(snapshot.Idle), amountString(snapshot.Staked), amountString(snapshot.Total),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert balance snapshot: %w", err)
	}
	return id, nil
}

// GetLatestSnapshot retrieves the most recent balance snapshot.
// Returns sql.ErrNoRows when none has been recorded yet.
func GetLatestSnapshot() (types.BalanceSnapshot, error) {
	snapshots, err := GetRecentSnapshots(1)
	if err != nil {
		return types.BalanceSnapshot{}, err
	}
	if len(snapshots) == 0 {
		return types.BalanceSnapshot{}, sql.ErrNoRows
	}
	return snapshots[0], nil
}

// GetRecentSnapshots retrieves recent balance snapshots, newest first.
func GetRecentSnapshots(limit int) ([]types.BalanceSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT snapshot_id, snapshot_timestamp, idle_amount, staked_amount, total_amount
		FROM balance_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]types.BalanceSnapshot, 0, limit)
	for rows.Next() {
		var snapshot types.BalanceSnapshot
		var idle, staked, total string
		if err := rows.Scan(&snapshot.ID, &snapshot.Timestamp, &idle, &staked, &total); err != nil {
			return nil, fmt.Errorf("failed to scan balance snapshot: %w", err)
		}
		if snapshot.Idle, err = parseAmount(idle); err != nil {
			return nil, err
		}
		if snapshot.Staked, err = parseAmount(staked); err != nil {
			return nil, err
		}
		if snapshot.Total, err = parseAmount(total); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}
