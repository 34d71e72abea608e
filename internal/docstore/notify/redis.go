package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const changedPayload = "changed"

// Dial connects to redis. An empty address yields a nil client.
func Dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Redis fans signals out through redis PUBLISH/SUBSCRIBE so that writers in
// other processes wake local subscriptions. With a nil client it degrades
// to an in-process broker.
type Redis struct {
	client *redis.Client
	local  *Local
	log    logger.Logger

	warnedUnavailable atomic.Bool
}

func NewRedis(client *redis.Client, log logger.Logger) *Redis {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Redis{client: client, local: NewLocal(), log: log}
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.log.Warn("redis notifications unavailable", map[string]interface{}{"error": err})
	}
}

func (r *Redis) Publish(ctx context.Context, channel string) error {
	if r.isUnavailable() {
		return r.local.Publish(ctx, channel)
	}
	if err := r.client.Publish(ctx, channel, changedPayload).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if r.isUnavailable() {
		return r.local.Subscribe(ctx, channel)
	}

	ps := r.client.Subscribe(ctx, channel)
	// Receive blocks until the server confirms, so no publish that happens
	// after Subscribe returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		r.warnUnavailableOnce(err)
		return nil, err
	}

	s := &redisSub{ps: ps, ch: make(chan struct{}, 1)}
	msgs := ps.Channel()
	go func() {
		defer close(s.ch)
		for range msgs {
			signal(s.ch)
		}
	}()
	return s, nil
}

func (r *Redis) Close() error {
	var errs []error
	if r.local != nil {
		errs = append(errs, r.local.Close())
	}
	if !r.isUnavailable() {
		errs = append(errs, r.client.Close())
	}
	return errors.Join(errs...)
}

type redisSub struct {
	ps   *redis.PubSub
	ch   chan struct{}
	once sync.Once
	err  error
}

func (s *redisSub) C() <-chan struct{} {
	return s.ch
}

func (s *redisSub) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
	})
	return s.err
}
