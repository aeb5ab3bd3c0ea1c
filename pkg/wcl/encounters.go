package wcl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// encountersQuery resolves the boss list of a raid zone.
const encountersQuery = `query($id: Int!) { worldData { zone(id: $id) { encounters { id name } } } }`

// encounterCacheTTL bounds how long a cached boss list is reused. Zone
// rosters change only when the upstream adds content.
const encounterCacheTTL = 24 * time.Hour

// Encounter is one boss of a raid zone.
type Encounter struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Encounters returns the boss list for the given zone. When a Redis client
// is configured, the list is cached across runs.
func (c *Client) Encounters(ctx context.Context, zoneID int) ([]Encounter, error) {
	cacheKey := fmt.Sprintf("wcl:encounters:%d", zoneID)

	if c.config.Redis != nil {
		cached, err := c.config.Redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var encounters []Encounter
			if err := json.Unmarshal([]byte(cached), &encounters); err == nil {
				c.logger.Debug().
					Int("zone_id", zoneID).
					Int("encounters", len(encounters)).
					Msg("Encounter list served from cache")
				return encounters, nil
			}
		}
	}

	var data struct {
		WorldData struct {
			Zone struct {
				Encounters []Encounter `json:"encounters"`
			} `json:"zone"`
		} `json:"worldData"`
	}

	if err := c.Query(ctx, "encounters", encountersQuery, map[string]any{"id": zoneID}, &data); err != nil {
		return nil, fmt.Errorf("fetch encounters for zone %d: %w", zoneID, err)
	}

	encounters := data.WorldData.Zone.Encounters

	if c.config.Redis != nil && len(encounters) > 0 {
		if payload, err := json.Marshal(encounters); err == nil {
			if err := c.config.Redis.Set(ctx, cacheKey, payload, encounterCacheTTL).Err(); err != nil {
				c.logger.Warn().Err(err).Int("zone_id", zoneID).Msg("Failed to cache encounter list")
			}
		}
	}

	return encounters, nil
}
