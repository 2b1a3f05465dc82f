// Package cache keeps per-page view lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telhawk-systems/tableviews/views/internal/models"
)

const (
	keyPrefix = "tableviews:list:"
	genPrefix = "tableviews:gen:"
	epochKey  = "tableviews:gen"
)

// ListCache stores the JSON-encoded result of listing a page.
//
// Every invalidation bumps a generation counter. A list is only stored if the
// generation read before querying the repository is still current, so a
// list read before a write cannot overwrite the invalidation that followed it.
type ListCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{redis: client, ttl: ttl}
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string, maxRetries, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if maxRetries > 0 {
		opts.MaxRetries = maxRetries
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func key(page string) string {
	return keyPrefix + page
}

func genKey(page string) string {
	return genPrefix + page
}

// Generation returns the current invalidation generation of page. Pass it to
// Set after reading the list from the repository.
func (c *ListCache) Generation(ctx context.Context, page string) (string, error) {
	vals, err := c.redis.MGet(ctx, epochKey, genKey(page)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return generation(vals), nil
}

func generation(vals []any) string {
	return fmt.Sprintf("%v/%v", vals[0], vals[1])
}

// Get returns the cached list for page. ok is false on a miss.
func (c *ListCache) Get(ctx context.Context, page string) (views []*models.TableView, ok bool, err error) {
	data, err := c.redis.Get(ctx, key(page)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached views: %w", err)
	}
	var cached []cachedView
	if err := json.Unmarshal(data, &cached); err != nil {
		// a corrupt entry is a miss; the caller overwrites it
		return nil, false, nil
	}
	views = make([]*models.TableView, len(cached))
	for i, cv := range cached {
		views[i] = cv.model()
	}
	return views, true, nil
}

// Set stores views for page with the cache TTL if page is still at
// generation gen. stored is false when an invalidation got there first.
func (c *ListCache) Set(ctx context.Context, page, gen string, views []*models.TableView) (stored bool, err error) {
	cached := make([]cachedView, len(views))
	for i, tv := range views {
		cached[i] = fromModel(tv)
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return false, fmt.Errorf("failed to marshal views: %w", err)
	}

	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.MGet(ctx, epochKey, genKey(page)).Result()
		if err != nil {
			return err
		}
		if generation(vals) != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(page), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, epochKey, genKey(page))
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to cache views: %w", err)
	}
	return stored, nil
}

// Invalidate drops the cached list for page and bumps its generation.
func (c *ListCache) Invalidate(ctx context.Context, page string) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(page))
		pipe.Del(ctx, key(page))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", page, err)
	}
	return nil
}

// InvalidateAll drops every cached list and bumps the shared generation.
func (c *ListCache) InvalidateAll(ctx context.Context) error {
	if err := c.redis.Incr(ctx, epochKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached views: %w", err)
	}
	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached views: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached views: %w", err)
	}
	return nil
}

// cachedView keeps the fields models.TableView hides from the API.
type cachedView struct {
	models.TableView
	ViewOrder int `json:"view_order"`
}

func fromModel(tv *models.TableView) cachedView {
	return cachedView{TableView: *tv, ViewOrder: tv.ViewOrder}
}

func (cv cachedView) model() *models.TableView {
	tv := cv.TableView
	tv.ViewOrder = cv.ViewOrder
	tv.View.ViewOrder = cv.ViewOrder
	return &tv
}
