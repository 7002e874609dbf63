package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alp4ka/pagereader"
)

var _ Store = (*Redis)(nil)

// DefaultRedisPrefix prefixes job names when none is set.
const DefaultRedisPrefix = "pagereader:checkpoint:"

// Redis stores execution contexts as JSON strings under prefix+job.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a store on client. A zero ttl keeps checkpoints forever.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}

	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Load - implements Store.
func (r *Redis) Load(ctx context.Context, job string) (pagereader.ExecutionContext, error) {
	data, err := r.client.Get(ctx, r.prefix+job).Bytes()
	if errors.Is(err, redis.Nil) {
		return pagereader.ExecutionContext{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decode(data)
}

// Save - implements Store.
func (r *Redis) Save(ctx context.Context, job string, ec pagereader.ExecutionContext) error {
	data, err := encode(ec)
	if err != nil {
		return err
	}

	if err = r.client.Set(ctx, r.prefix+job, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Close - implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
