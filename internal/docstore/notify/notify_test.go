package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSignal(t *testing.T, s Subscription) {
	t.Helper()
	select {
	case _, ok := <-s.C():
		require.True(t, ok, "subscription closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}

func assertNoSignal(t *testing.T, s Subscription) {
	t.Helper()
	select {
	case <-s.C():
		t.Fatal("unexpected signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocal_PublishCoalesces(t *testing.T) {
	b := NewLocal()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, Channel("jobs"))
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, Channel("users"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(ctx, Channel("jobs")))
	}

	waitSignal(t, sub)
	assertNoSignal(t, sub)
	assertNoSignal(t, other)
}

func TestLocal_CloseRemovesSubscription(t *testing.T) {
	b := NewLocal()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers("c"))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, b.Subscribers("c"))

	_, ok := <-sub.C()
	assert.False(t, ok)
	require.NoError(t, b.Publish(ctx, "c"))
}

func TestLocal_BrokerCloseEndsSubscriptions(t *testing.T) {
	b := NewLocal()
	sub, err := b.Subscribe(context.Background(), "c")
	require.NoError(t, err)

	require.NoError(t, b.Close())
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.NoError(t, sub.Close())
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client
}

func TestRedis_PublishReachesSubscriber(t *testing.T) {
	client := setupRedis(t)
	b := NewRedis(client, logger.NewTestLogger(t))
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, Channel("jobs"))
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, Channel("jobs")))
	waitSignal(t, sub)

	require.NoError(t, sub.Close())
	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed")
	}
}

func TestRedis_CrossClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	writer := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	reader := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	defer writer.Close()
	defer reader.Close()

	ctx := context.Background()
	sub, err := reader.Subscribe(ctx, "docstore:jobs")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, writer.Publish(ctx, "docstore:jobs"))
	waitSignal(t, sub)
}

func TestRedis_NilClientFallsBackToLocal(t *testing.T) {
	b := NewRedis(nil, nil)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "c"))
	waitSignal(t, sub)
	assert.NoError(t, b.Close())
}

func TestRedis_PublishError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectPublish("docstore:jobs", changedPayload).SetErr(errors.New("connection refused"))

	b := NewRedis(client, logger.NewTestLogger(t))
	err := b.Publish(context.Background(), "docstore:jobs")
	require.Error(t, err)
	assert.True(t, b.warnedUnavailable.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDial_EmptyAddress(t *testing.T) {
	client, err := Dial(context.Background(), config.RedisConfig{Address: ""})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestDial_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := Dial(context.Background(), config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}
