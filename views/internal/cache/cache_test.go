package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/resource"
	"github.com/telhawk-systems/tableviews/views/internal/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleViews() []*models.TableView {
	v := catalog.NewView(resource.Forwards)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []*models.TableView{
		{ID: 1, Page: "forwards", View: v.Document(resource.Forwards, 0), ViewOrder: 0, CreatedAt: created, UpdatedAt: created},
		{ID: 4, Page: "forwards", View: v.Document(resource.Forwards, 1), ViewOrder: 1, CreatedAt: created, UpdatedAt: created},
	}
}

func store(t *testing.T, c *ListCache, page string, views []*models.TableView) {
	t.Helper()
	ctx := context.Background()
	gen, err := c.Generation(ctx, page)
	require.NoError(t, err)
	stored, err := c.Set(ctx, page, gen, views)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestListCacheRoundTrip(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewListCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "forwards")
	require.NoError(t, err)
	assert.False(t, ok)

	store(t, c, "forwards", sampleViews())
	got, ok, err := c.Get(ctx, "forwards")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, 1, got[1].ViewOrder)
	assert.Equal(t, 1, got[1].View.ViewOrder)
	assert.Equal(t, resource.Forwards.DefaultTitle, got[0].View.Title)
	assert.True(t, got[0].CreatedAt.Equal(sampleViews()[0].CreatedAt))
}

func TestListCacheEmptyListIsAHit(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewListCache(client, time.Minute)
	ctx := context.Background()

	store(t, c, "payments", []*models.TableView{})
	got, ok, err := c.Get(ctx, "payments")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestListCacheExpires(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewListCache(client, time.Minute)
	ctx := context.Background()

	store(t, c, "forwards", sampleViews())
	mr.FastForward(2 * time.Minute)
	_, ok, err := c.Get(ctx, "forwards")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCacheInvalidate(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewListCache(client, time.Minute)
	ctx := context.Background()

	for _, page := range []string{"channel", "forwards", "invoices"} {
		store(t, c, page, sampleViews())
	}
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, c.Invalidate(ctx, "channel"))
	assert.False(t, mr.Exists(key("channel")))
	assert.True(t, mr.Exists(key("forwards")))

	require.NoError(t, c.InvalidateAll(ctx))
	assert.False(t, mr.Exists(key("forwards")))
	assert.False(t, mr.Exists(key("invoices")))
	assert.True(t, mr.Exists("unrelated"))

	assert.NoError(t, c.InvalidateAll(ctx), "nothing left to drop")
}

func TestListCacheSkipsStaleSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewListCache(client, time.Minute)
	ctx := context.Background()

	gen, err := c.Generation(ctx, "channel")
	require.NoError(t, err)
	// a write lands between the repository read and the cache fill
	require.NoError(t, c.Invalidate(ctx, "channel"))
	stored, err := c.Set(ctx, "channel", gen, sampleViews())
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(key("channel")))

	gen, err = c.Generation(ctx, "forwards")
	require.NoError(t, err)
	require.NoError(t, c.InvalidateAll(ctx))
	stored, err = c.Set(ctx, "forwards", gen, sampleViews())
	require.NoError(t, err)
	assert.False(t, stored)

	// invalidating another page does not block this one
	gen, err = c.Generation(ctx, "forwards")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "invoices"))
	stored, err = c.Set(ctx, "forwards", gen, sampleViews())
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestListCacheCorruptEntryIsAMiss(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewListCache(client, time.Minute)
	require.NoError(t, mr.Set(key("channel"), "{not json"))

	_, ok, err := c.Get(context.Background(), "channel")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCacheUnavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewListCache(client, time.Minute)
	mr.Close()

	_, _, err := c.Get(context.Background(), "channel")
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	mr, _ := setupTestRedis(t)
	client, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0", 1, 2)
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClient(context.Background(), "not a url", 0, 0)
	assert.Error(t, err)
}
