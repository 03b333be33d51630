package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(setupTestRedis(t))
	ctx := context.Background()

	ch, stop, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer stop()

	p := domain.Project{ID: "p1", Title: "Logo", Category: "branding", Description: "New mark"}
	require.NoError(t, bus.Publish(ctx, Created(p)))
	require.NoError(t, bus.Publish(ctx, Deleted("p1")))

	ev := receive(t, ch)
	assert.Equal(t, TypeCreated, ev.Type)
	require.NotNil(t, ev.Project)
	assert.Equal(t, "Logo", ev.Project.Title)

	ev = receive(t, ch)
	assert.Equal(t, TypeDeleted, ev.Type)
	assert.Equal(t, "p1", ev.ID)
	assert.Nil(t, ev.Project)
}

func TestBus_StopClosesChannel(t *testing.T) {
	bus := NewBus(setupTestRedis(t))

	ch, stop, err := bus.Subscribe(context.Background())
	require.NoError(t, err)
	stop()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}
}
