package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache provides Redis-backed lesson content caching to offload Postgres.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ ContentCache = (*Cache)(nil)

func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(lessonID int64) string {
	return "lesson:content:" + strconv.FormatInt(lessonID, 10)
}

// Get returns nil, nil on a miss.
func (c *Cache) Get(ctx context.Context, lessonID int64) (*Content, error) {
	data, err := c.client.Get(ctx, c.key(lessonID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var content Content
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func (c *Cache) Set(ctx context.Context, content Content) error {
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(content.ID), data, c.ttl).Err()
}

