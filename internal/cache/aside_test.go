package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_CachesLoadedValue(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (payload, error) {
		calls++
		return payload{Name: "tech", Count: calls}, nil
	}

	first, err := Aside(ctx, "k", time.Minute, load)
	require.NoError(t, err)
	second, err := Aside(ctx, "k", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("k"))

	mr.FastForward(2 * time.Minute)
	third, err := Aside(ctx, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Count)
}

func TestAside_DoesNotCacheErrors(t *testing.T) {
	mr := useMiniredis(t)
	_, err := Aside(context.Background(), "k", time.Minute, func(context.Context) (payload, error) {
		return payload{}, errors.New("boom")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Aside(context.Background(), "k", time.Minute, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestInvalidateUserStats(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set(UserStatsKey("a"), "{}"))
	require.NoError(t, mr.Set(UserStatsKey("b"), "{}"))
	require.NoError(t, mr.Set(CategoriesKey(), "[]"))

	InvalidateUserStats(context.Background(), "a", "", "b")
	assert.False(t, mr.Exists("user:a:stats"))
	assert.False(t, mr.Exists("user:b:stats"))
	assert.True(t, mr.Exists(CategoriesKey()))

	InvalidateCategories(context.Background())
	assert.False(t, mr.Exists(CategoriesKey()))
}
