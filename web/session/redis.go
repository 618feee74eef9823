package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/procodebh/crm-console/logger"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "console:session:"
	redisOpTimeout = 3 * time.Second
	changedMessage = "changed"
)

// RedisProvider keeps each session record in a Redis hash and announces
// changes on a pub/sub channel named after the hash.
type RedisProvider struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProvider creates a provider whose records expire ttl after their
// last write. A zero ttl disables expiry.
func NewRedisProvider(client *redis.Client, ttl time.Duration) *RedisProvider {
	return &RedisProvider{client: client, ttl: ttl}
}

func (p *RedisProvider) Open(sid string) Storage {
	return &redisRecord{provider: p, key: redisKeyPrefix + sid}
}

type redisRecord struct {
	provider *RedisProvider
	key      string
}

func (r *redisRecord) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := r.provider.client.HGet(ctx, r.key, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warningf("session record %s: read %s failed: %v", r.key, key, err)
		}
		return "", false
	}
	return v, true
}

func (r *redisRecord) Apply(set map[string]string, remove ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_, err := r.provider.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pairs := make([]any, 0, len(set)*2)
			for k, v := range set {
				pairs = append(pairs, k, v)
			}
			pipe.HSet(ctx, r.key, pairs...)
		}
		if len(remove) > 0 {
			pipe.HDel(ctx, r.key, remove...)
		}
		if r.provider.ttl > 0 {
			pipe.Expire(ctx, r.key, r.provider.ttl)
		}
		pipe.Publish(ctx, r.key, changedMessage)
		return nil
	})
	return err
}

func (r *redisRecord) Subscribe(fn func()) func() {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := r.provider.client.Subscribe(ctx, r.key)

	// Wait for the subscription to be confirmed so no change is missed.
	confirmCtx, confirmCancel := context.WithTimeout(ctx, redisOpTimeout)
	if _, err := pubsub.Receive(confirmCtx); err != nil {
		logger.Warningf("session record %s: subscribe failed: %v", r.key, err)
	}
	confirmCancel()

	go func() {
		for range pubsub.Channel() {
			fn()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = pubsub.Close()
		})
	}
}
