package wcl

import (
	"context"

	"github.com/raidwatch/wcl-harvester/pkg/quota"
)

// rateLimitQuery is the cheapest query the upstream accepts. It reports the
// point budget state without spending meaningful points itself.
const rateLimitQuery = `{ rateLimitData { limitPerHour pointsSpentThisHour pointsResetIn } }`

// RateLimitData fetches the current upstream quota usage. The call bypasses
// quota gating so the state can still be inspected when the budget is
// exhausted.
func (c *Client) RateLimitData(ctx context.Context) (quota.Data, error) {
	var data struct {
		RateLimitData quota.Data `json:"rateLimitData"`
	}

	if err := c.query(ctx, "rate_limit_data", rateLimitQuery, nil, &data); err != nil {
		return quota.Data{}, err
	}

	return data.RateLimitData, nil
}
