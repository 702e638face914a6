// Package cart is a redis-backed shopping cart store. The payment service
// clears a customer's cart once their payment completes.
package cart

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type Store interface {
	Clear(ctx context.Context, customerID snowflake.ID) error
}

var Module = fx.Module("cart",
	fx.Provide(NewStore),
)

type redisStore struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) Store {
	return &redisStore{redis: client}
}

func (s *redisStore) Clear(ctx context.Context, customerID snowflake.ID) error {
	return s.redis.Del(ctx, key(customerID)).Err()
}

func key(customerID snowflake.ID) string {
	return fmt.Sprintf("cart:%s", customerID.String())
}
