package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	wclPointsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wcl_quota_points_remaining",
		Help: "Remaining points in the current upstream quota window",
	})

	wclQuotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wcl_quota_blocks_total",
		Help: "Total number of requests blocked due to critical quota level",
	})

	wclQuotaThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wcl_quota_throttles_total",
		Help: "Total number of requests throttled due to low quota level",
	})
)

// throttleDelay is the pause applied per request while in the warning band.
const throttleDelay = 1 * time.Second

// Tracker monitors the upstream point budget and gates requests.
// When a Redis client is provided the state is shared across processes;
// otherwise the tracker falls back to process-local memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	mu  sync.RWMutex
	mem *State
}

// NewTracker creates a new quota tracker. redisClient may be nil, in which
// case state lives only in this process.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// defaultState is returned when no quota reading has been captured yet.
// Assume healthy until the first rateLimitData refresh, but mark it stale
// so callers refresh immediately.
func defaultState() *State {
	return &State{
		LimitPerHour: 3600,
		PointsSpent:  0,
		ResetAt:      time.Now().Add(time.Hour),
		IsHealthy:    true,
	}
}

// GetState retrieves the current quota state. Returns a default healthy
// (but stale) state when no reading exists yet.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	if t.redis == nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
		if t.mem == nil {
			return defaultState(), nil
		}
		copied := *t.mem
		return &copied, nil
	}

	limit, err := t.redis.Get(ctx, RedisKeyLimitPerHour).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get limit per hour: %w", err)
	}
	if err == redis.Nil {
		t.logger.Debug().Msg("No quota state in Redis, returning default healthy state")
		return defaultState(), nil
	}

	spent, err := t.redis.Get(ctx, RedisKeyPointsSpent).Float64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get points spent: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &State{
		LimitPerHour: limit,
		PointsSpent:  spent,
		ResetAt:      time.Unix(resetTimestamp, 0),
		LastUpdate:   lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromData stores a fresh rateLimitData reading.
func (t *Tracker) UpdateFromData(ctx context.Context, data Data) error {
	now := time.Now()
	state := &State{
		LimitPerHour: data.LimitPerHour,
		PointsSpent:  data.PointsSpentThisHour,
		ResetAt:      now.Add(time.Duration(data.PointsResetIn) * time.Second),
		LastUpdate:   now,
	}
	state.UpdateHealth()

	if t.redis != nil {
		pipe := t.redis.Pipeline()
		pipe.Set(ctx, RedisKeyLimitPerHour, data.LimitPerHour, 0)
		pipe.Set(ctx, RedisKeyPointsSpent, data.PointsSpentThisHour, 0)
		pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)

		lastUpdateJSON, err := json.Marshal(state.LastUpdate)
		if err != nil {
			return fmt.Errorf("marshal last update: %w", err)
		}
		pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store quota state in redis: %w", err)
		}
	} else {
		t.mu.Lock()
		t.mem = state
		t.mu.Unlock()
	}

	wclPointsRemaining.Set(state.Remaining())

	logEvent := t.logger.Info().
		Float64("points_remaining", state.Remaining()).
		Int("limit_per_hour", state.LimitPerHour).
		Time("reset_at", state.ResetAt).
		Bool("is_healthy", state.IsHealthy)

	if state.NeedsCriticalBlock() {
		logEvent = t.logger.Error().Float64("points_remaining", state.Remaining())
		logEvent.Msg("Upstream quota CRITICAL - requests will be blocked")
	} else if state.NeedsThrottling() {
		logEvent = t.logger.Warn().Float64("points_remaining", state.Remaining())
		logEvent.Msg("Upstream quota WARNING - requests will be throttled")
	} else {
		logEvent.Msg("Upstream quota state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed under the current
// quota state. Returns false when the remaining budget is critical. In the
// warning band the call sleeps briefly to slow the pool down, then allows
// the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get quota state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Float64("points_remaining", state.Remaining()).
			Dur("reset_in", state.TimeUntilReset()).
			Msg("Upstream quota critical - blocking request")

		wclQuotaBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Float64("points_remaining", state.Remaining()).
			Msg("Upstream quota low - throttling request")

		wclQuotaThrottlesTotal.Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(throttleDelay):
		}
	}

	return true, nil
}

// NeedsRefresh reports whether the stored state is too old to trust.
func (t *Tracker) NeedsRefresh(ctx context.Context, maxAge time.Duration) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}
	return state.IsStale(maxAge), nil
}
