package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"myopiadx/internal/risk"
)

// VerdictCache memoizes risk assessments. Assess is a pure function of
// the measurement triple, so a cached verdict never goes stale; the TTL
// only bounds memory.
type VerdictCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewVerdictCache(client *redisv9.Client, ttl time.Duration) *VerdictCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VerdictCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *VerdictCache) Get(ctx context.Context, m risk.Measurement) (*risk.Verdict, bool, error) {
	raw, err := c.client.Get(ctx, verdictKey(m)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get verdict failed: %w", err)
	}

	var verdict risk.Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached verdict failed: %w", err)
	}
	return &verdict, true, nil
}

func (c *VerdictCache) Set(ctx context.Context, m risk.Measurement, verdict risk.Verdict) error {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict cache failed: %w", err)
	}
	if err := c.client.Set(ctx, verdictKey(m), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set verdict failed: %w", err)
	}
	return nil
}

// %g renders the fewest digits that identify the float uniquely, so
// 24.5 and 24.50001 get distinct keys.
func verdictKey(m risk.Measurement) string {
	return fmt.Sprintf("risk:verdict:%g:%g:%g", m.AxialLength, m.Refraction, m.VisualAcuity)
}
