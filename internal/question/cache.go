package question

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

const poolKey = "rapidfire:questions:active"

// Cache keeps the active question pool in Redis in front of a slower loader.
// Concurrent cache misses collapse into one backing load via singleflight,
// and the TTL is jittered so multiple processes don't refill in lockstep.
type Cache struct {
	client *redis.Client
	loader Loader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCache(client *redis.Client, loader Loader, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Cache) FetchActiveQuestions(ctx context.Context) ([]entities.Question, error) {
	raw, err := c.client.Get(ctx, poolKey).Bytes()
	if err == nil {
		var cached []entities.Question
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	result, err, _ := c.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache meanwhile.
		raw, err := c.client.Get(ctx, poolKey).Bytes()
		if err == nil {
			var cached []entities.Question
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}

		pool, err := c.loader.FetchActiveQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if encoded, err := json.Marshal(pool); err == nil {
			_ = c.client.Set(ctx, poolKey, encoded, c.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]entities.Question), nil
}

// Invalidate drops the cached pool, forcing the next load to hit the store.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, poolKey).Err()
}

func (c *Cache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
