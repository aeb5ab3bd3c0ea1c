package quota

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

// Tests here exercise the in-process fallback; the Redis-backed path is
// covered by the integration tests.

func TestTracker_DefaultState(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error: %v", err)
	}

	if !state.IsHealthy {
		t.Error("default state should be healthy")
	}
	if !state.IsStale(DefaultMaxAge) {
		t.Error("default state should be stale so the first request refreshes it")
	}
}

func TestTracker_UpdateFromData(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()

	err := tracker.UpdateFromData(ctx, Data{
		LimitPerHour:        3600,
		PointsSpentThisHour: 1200.5,
		PointsResetIn:       1800,
	})
	if err != nil {
		t.Fatalf("UpdateFromData() error: %v", err)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error: %v", err)
	}

	if state.LimitPerHour != 3600 {
		t.Errorf("LimitPerHour = %d, want 3600", state.LimitPerHour)
	}
	if state.PointsSpent != 1200.5 {
		t.Errorf("PointsSpent = %v, want 1200.5", state.PointsSpent)
	}
	if state.IsStale(DefaultMaxAge) {
		t.Error("freshly updated state should not be stale")
	}
	if !state.IsHealthy {
		t.Error("state with 2399.5 points remaining should be healthy")
	}
}

func TestTracker_ShouldAllowRequest(t *testing.T) {
	tests := []struct {
		name    string
		spent   float64
		allowed bool
	}{
		{
			name:    "healthy budget allows",
			spent:   0,
			allowed: true,
		},
		{
			name:    "critical budget blocks",
			spent:   3600 - PointsThresholdCritical + 1,
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(nil, zerolog.Nop())
			ctx := context.Background()

			err := tracker.UpdateFromData(ctx, Data{
				LimitPerHour:        3600,
				PointsSpentThisHour: tt.spent,
				PointsResetIn:       1800,
			})
			if err != nil {
				t.Fatalf("UpdateFromData() error: %v", err)
			}

			allowed, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error: %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("ShouldAllowRequest() = %v, want %v", allowed, tt.allowed)
			}
		})
	}
}

func TestTracker_NeedsRefresh(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()

	stale, err := tracker.NeedsRefresh(ctx, DefaultMaxAge)
	if err != nil {
		t.Fatalf("NeedsRefresh() error: %v", err)
	}
	if !stale {
		t.Error("tracker with no reading should need a refresh")
	}

	if err := tracker.UpdateFromData(ctx, Data{LimitPerHour: 3600, PointsResetIn: 3600}); err != nil {
		t.Fatalf("UpdateFromData() error: %v", err)
	}

	stale, err = tracker.NeedsRefresh(ctx, DefaultMaxAge)
	if err != nil {
		t.Fatalf("NeedsRefresh() error: %v", err)
	}
	if stale {
		t.Error("tracker with a fresh reading should not need a refresh")
	}
}
