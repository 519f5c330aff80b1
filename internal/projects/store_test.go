package projects

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestStore_Upsert(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	p, err := store.Upsert(ctx, "solana", `"Solana" OR "$SOL" -is:retweet lang:en`, true)
	require.NoError(t, err)
	assert.Equal(t, "solana", p.Name)
	assert.True(t, p.Enabled)
	assert.NotZero(t, p.RequestedAt)

	got, err := store.Get(ctx, "solana")
	require.NoError(t, err)
	assert.Equal(t, p.Query, got.Query)
	assert.Equal(t, p.RequestedAt, got.RequestedAt)

	// Re-upsert keeps the original request time
	time.Sleep(time.Millisecond)
	p2, err := store.Upsert(ctx, "solana", "", false)
	require.NoError(t, err)
	assert.Equal(t, p.RequestedAt, p2.RequestedAt)
	assert.False(t, p2.Enabled)
}

func TestStore_UpsertDefaultQuery(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	p, err := store.Upsert(context.Background(), "bonk", "", true)
	require.NoError(t, err)
	assert.Equal(t, `"bonk" OR "$BONK" -is:retweet lang:en`, p.Query)
}

func TestStore_UpsertNormalizesName(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	p, err := store.Upsert(ctx, "  Solana ", "", true)
	require.NoError(t, err)
	assert.Equal(t, "solana", p.Name)

	_, err = store.Get(ctx, "SOLANA")
	assert.NoError(t, err)
}

func TestStore_Get_NotFound(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	p, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, p)
}

func TestStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Upsert(ctx, "pyth", "", true)
	require.NoError(t, err)

	err = store.Delete(ctx, "pyth")
	assert.NoError(t, err)

	_, err = store.Get(ctx, "pyth")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a project that does not exist is not an error
	err = store.Delete(ctx, "pyth")
	assert.NoError(t, err)
}

func TestStore_ListEnabled(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Upsert(ctx, "solana", "", true)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "jupiter", "", true)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "bonk", "", false)
	require.NoError(t, err)

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	enabled, err := store.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Len(t, enabled, 2)
	for _, p := range enabled {
		assert.True(t, p.Enabled)
	}
}

func TestStore_Seed(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	defaults := map[string]string{
		"solana": `"Solana" OR "$SOL" -is:retweet lang:en`,
		"bonk":   `"Bonk" OR "$BONK" -is:retweet lang:en`,
	}

	require.NoError(t, store.Seed(ctx, defaults))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Seeding again must not clobber user changes
	require.NoError(t, store.Delete(ctx, "bonk"))
	require.NoError(t, store.Seed(ctx, defaults))

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestValidateName(t *testing.T) {
	valid := []string{"solana", "pyth.network", "dog-wif-hat", "a", "project_1"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q should be valid", name)
	}

	invalid := []string{"", " ", "Solana", "name with spaces", "name:colon", "name\ttab"}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q should be invalid", name)
	}
}
