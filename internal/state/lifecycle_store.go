// ./internal/state/lifecycle_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/halcyon-fi/harvester/internal/types"
)

// SaveLifecycleEvent persists one lifecycle transition for the audit trail.
func SaveLifecycleEvent(event types.LifecycleEvent) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if !event.PreviousStatus.Valid() || !event.NewStatus.Valid() {
		return 0, fmt.Errorf("lifecycle event has invalid status: %s -> %s",
			event.PreviousStatus, event.NewStatus)
	}

	stmt := `
		INSERT INTO lifecycle_events (event_timestamp, previous_status, new_status, actor, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING event_id;`

	var id int64
	err := DB.QueryRow(stmt,
		event.Timestamp, string(event.PreviousStatus), string(event.NewStatus),
		event.Actor, event.Reason,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert lifecycle event: %w", err)
	}
	return id, nil
}

// GetRecentLifecycleEvents retrieves recent lifecycle transitions, newest first.
func GetRecentLifecycleEvents(limit int) ([]types.LifecycleEvent, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT event_id, event_timestamp, previous_status, new_status, actor, reason
		FROM lifecycle_events
		ORDER BY event_timestamp DESC
		LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lifecycle events: %w", err)
	}
	defer rows.Close()

	events := make([]types.LifecycleEvent, 0, limit)
	for rows.Next() {
		var event types.LifecycleEvent
		var previous, next string
		var reason sql.NullString
		if err := rows.Scan(&event.ID, &event.Timestamp, &previous, &next, &event.Actor, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan lifecycle event: %w", err)
		}
		event.PreviousStatus = types.Status(previous)
		event.NewStatus = types.Status(next)
		event.Reason = reason.String
		events = append(events, event)
	}
	return events, rows.Err()
}
