package state

import (
	"database/sql"
	"fmt"
	"time"
)

// StrategySummary represents high-level strategy statistics for the dashboard.
// Amounts are micro-unit decimal strings.
type StrategySummary struct {
	Status            string    `json:"status"`
	IdleAmount        string    `json:"idle_amount"`
	StakedAmount      string    `json:"staked_amount"`
	TotalAmount       string    `json:"total_amount"`
	TotalHarvests     int       `json:"total_harvests"`
	LastHarvestAt     time.Time `json:"last_harvest_at,omitempty"`
	LastSnapshotAt    time.Time `json:"last_snapshot_at,omitempty"`
}

// PerformanceMetrics represents aggregated fee-distribution data.
type PerformanceMetrics struct {
	TotalHarvests      int    `json:"total_harvests"`
	SuccessfulHarvests int    `json:"successful_harvests"`
	TotalSkimmed       string `json:"total_skimmed"`
	TotalCallFees      string `json:"total_call_fees"`
	TotalRewardsFees   string `json:"total_rewards_fees"`
	TotalRestaked      string `json:"total_restaked"`
}

// GetStrategySummary assembles the dashboard summary from the latest
// snapshot, the harvest counter and the lifecycle audit trail.
func GetStrategySummary() (StrategySummary, error) {
	if DB == nil {
		return StrategySummary{}, fmt.Errorf("database not initialized")
	}

	summary := StrategySummary{
		Status:       "ACTIVE", // lifecycle starts Active; overridden by the latest event below
		IdleAmount:   "0",
		StakedAmount: "0",
		TotalAmount:  "0",
	}

	snapshot, err := GetLatestSnapshot()
	switch {
	case err == nil:
		summary.IdleAmount = snapshot.Idle.String()
		summary.StakedAmount = snapshot.Staked.String()
		summary.TotalAmount = snapshot.Total.String()
		summary.LastSnapshotAt = snapshot.Timestamp
	case err != sql.ErrNoRows:
		return StrategySummary{}, err
	}

	summary.TotalHarvests, err = GetCurrentHarvestNumber()
	if err != nil {
		return StrategySummary{}, err
	}

	harvest, err := GetLatestHarvest()
	switch {
	case err == nil:
		summary.LastHarvestAt = harvest.Timestamp
	case err != sql.ErrNoRows:
		return StrategySummary{}, err
	}

	events, err := GetRecentLifecycleEvents(1)
	if err != nil {
		return StrategySummary{}, err
	}
	if len(events) > 0 {
		summary.Status = string(events[0].NewStatus)
	}

	return summary, nil
}

// GetPerformanceMetrics aggregates fee distribution across all recorded
// harvests.
func GetPerformanceMetrics() (PerformanceMetrics, error) {
	if DB == nil {
		return PerformanceMetrics{}, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COALESCE(SUM(skim_amount) FILTER (WHERE success), 0)::TEXT,
			COALESCE(SUM(call_fee) FILTER (WHERE success), 0)::TEXT,
			COALESCE(SUM(rewards_fee) FILTER (WHERE success), 0)::TEXT,
			COALESCE(SUM(restaked) FILTER (WHERE success), 0)::TEXT
		FROM harvest_receipts;`

	var metrics PerformanceMetrics
	err := DB.QueryRow(query).Scan(
		&metrics.TotalHarvests,
		&metrics.SuccessfulHarvests,
		&metrics.TotalSkimmed,
		&metrics.TotalCallFees,
		&metrics.TotalRewardsFees,
		&metrics.TotalRestaked,
	)
	if err != nil {
		return PerformanceMetrics{}, fmt.Errorf("failed to aggregate performance metrics: %w", err)
	}

	return metrics, nil
}
