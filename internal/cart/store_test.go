package cart

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClear(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	customerID := snowflake.ID(42)
	require.NoError(t, mr.Set("cart:42", `[{"sku":"widget"}]`))

	require.NoError(t, store.Clear(context.Background(), customerID))
	assert.False(t, mr.Exists("cart:42"))
}

func TestClearMissingCartIsNotAnError(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	assert.NoError(t, store.Clear(context.Background(), snowflake.ID(7)))
}
