/*

This file manages the persistent global harvest counter. The counter is
stored in the database so harvest numbering stays continuous across restarts.

*/

package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// GetCurrentHarvestNumber retrieves the current harvest number from the database
func GetCurrentHarvestNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `SELECT current_harvest FROM harvest_counter WHERE id = 1;`

	var currentHarvest int
	row := DB.QueryRow(query)
	if err := row.Scan(&currentHarvest); err != nil {
		if err == sql.ErrNoRows {
			// Counter row missing, EnsureSchema seeds it at zero
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read harvest counter: %w", err)
	}

	return currentHarvest, nil
}

// IncrementHarvestNumber atomically bumps the counter and returns the new value.
func IncrementHarvestNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	stmt := `
		UPDATE harvest_counter
		SET current_harvest = current_harvest + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_harvest;`

	var newValue int
	if err := DB.QueryRow(stmt).Scan(&newValue); err != nil {
		return 0, fmt.Errorf("failed to increment harvest counter: %w", err)
	}

	log.Debug().Int("harvestNumber", newValue).Msg("Harvest counter incremented")
	return newValue, nil
}
