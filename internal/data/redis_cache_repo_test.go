package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/internal/testutil"
)

func TestRedisCacheRepo_SetGetDelete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "session:abc", []byte(`{"user":"u1"}`), time.Minute))

	val, err := repo.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"user":"u1"}`), val)

	exists, err := repo.Exists(ctx, "session:abc")
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := repo.Delete(ctx, "session:abc")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "session:abc")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRedisCacheRepo_GetMissingKeyReturnsNil(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)

	val, err := repo.Get(context.Background(), "session:missing")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisCacheRepo_EmptyKeyRejected(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	assert.Error(t, repo.Set(ctx, "", []byte("x"), time.Minute))
	_, err := repo.Get(ctx, "")
	assert.Error(t, err)
	_, err = repo.Delete(ctx, "")
	assert.Error(t, err)
}

func TestRedisCacheRepo_SetIfNotExists(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	set, err := repo.SetIfNotExists(ctx, "lock:sync", []byte("worker-1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, set)

	// a second claim loses and leaves the original value intact
	set, err = repo.SetIfNotExists(ctx, "lock:sync", []byte("worker-2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, set)

	val, err := repo.Get(ctx, "lock:sync")
	require.NoError(t, err)
	assert.Equal(t, []byte("worker-1"), val)
}

func TestRedisCacheRepo_SetExpires(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "ephemeral", []byte("v"), 50*time.Millisecond))
	time.Sleep(120 * time.Millisecond)

	val, err := repo.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisCacheRepo_Health(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	assert.NoError(t, repo.Health(context.Background()))
}
