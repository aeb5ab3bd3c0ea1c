// Package quota implements upstream API point-budget tracking and request
// gating. The Warcraft Logs API enforces a per-hour point budget; exceeding
// it turns every remaining call into an error response. The tracker keeps
// the last known budget state and refuses or throttles requests before the
// budget is burned.
package quota

import (
	"time"
)

// Redis keys for quota state storage. State is shared across concurrent
// harvester processes using the same API credentials.
const (
	RedisKeyLimitPerHour   = "wcl:quota:limit_per_hour"
	RedisKeyPointsSpent    = "wcl:quota:points_spent"
	RedisKeyResetTimestamp = "wcl:quota:reset_timestamp"
	RedisKeyLastUpdate     = "wcl:quota:last_update"
)

// Thresholds for quota decisions, in remaining points.
const (
	// PointsThresholdCritical blocks all requests when remaining points fall
	// below this value. The leftover budget is kept for manual inspection
	// (the quota command) rather than burned on doomed jobs.
	PointsThresholdCritical = 50

	// PointsThresholdWarning applies throttling when remaining points fall
	// below this value.
	PointsThresholdWarning = 300

	// PointsThresholdHealthy indicates normal operation.
	PointsThresholdHealthy = 1000
)

// DefaultMaxAge is how long a quota snapshot is trusted before the tracker
// asks for a fresh rateLimitData reading.
const DefaultMaxAge = 2 * time.Minute

// Data is one rateLimitData reading from the upstream API.
type Data struct {
	// LimitPerHour is the total point budget per rolling hour.
	LimitPerHour int `json:"limitPerHour"`

	// PointsSpentThisHour is the budget consumed so far. The upstream
	// reports fractional points.
	PointsSpentThisHour float64 `json:"pointsSpentThisHour"`

	// PointsResetIn is the number of seconds until the budget resets.
	PointsResetIn int `json:"pointsResetIn"`
}

// Remaining returns the unspent point budget.
func (d Data) Remaining() float64 {
	return float64(d.LimitPerHour) - d.PointsSpentThisHour
}

// State represents the last known upstream quota state.
type State struct {
	// LimitPerHour is the total point budget per rolling hour.
	LimitPerHour int `json:"limit_per_hour"`

	// PointsSpent is the budget consumed when the state was captured.
	PointsSpent float64 `json:"points_spent"`

	// ResetAt is the timestamp when the point budget resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is the timestamp when this state was captured. Used to
	// detect stale state that should be refreshed from the upstream.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy indicates whether the budget is in a healthy state.
	IsHealthy bool `json:"is_healthy"`
}

// Remaining returns the unspent point budget at capture time.
func (s *State) Remaining() float64 {
	return float64(s.LimitPerHour) - s.PointsSpent
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked because the
// remaining budget is nearly exhausted.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining() < PointsThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining() < PointsThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the point budget resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field from the current remaining budget.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining() >= PointsThresholdHealthy
}
