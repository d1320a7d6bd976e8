package licensing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle rate-limits last-seen bookkeeping writes so busy sites that
// validate on every page load do not turn each check into a store update.
// Allow reports whether the caller should persist a heartbeat now.
type Throttle interface {
	Allow(ctx context.Context, licenseKey, siteSignature string) bool
}

// RedisThrottle implements Throttle with SetNX keys that expire after the
// configured interval. Redis being down fails open: the write proceeds.
type RedisThrottle struct {
	client   redis.UniversalClient
	interval time.Duration
}

// NewRedisThrottle creates a throttle allowing one heartbeat write per
// license/site pair per interval.
func NewRedisThrottle(client redis.UniversalClient, interval time.Duration) *RedisThrottle {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RedisThrottle{client: client, interval: interval}
}

func (t *RedisThrottle) Allow(ctx context.Context, licenseKey, siteSignature string) bool {
	key := "heartbeat:" + licenseKey + ":" + siteSignature
	ok, err := t.client.SetNX(ctx, key, 1, t.interval).Result()
	if err != nil {
		return true
	}
	return ok
}

// noopThrottle always allows; used when no throttle is configured.
type noopThrottle struct{}

func (noopThrottle) Allow(context.Context, string, string) bool { return true }
