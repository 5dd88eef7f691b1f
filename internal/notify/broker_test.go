package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBroker(client, nil)
}

func TestBrokerDeliversPublishedSignals(t *testing.T) {
	broker := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals, err := broker.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, broker.Changed(ctx, "products"))
	require.NoError(t, broker.Changed(ctx, "orders"))

	require.Equal(t, "products", receiveSignal(t, signals))
	require.Equal(t, "orders", receiveSignal(t, signals))
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	broker := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())

	signals, err := broker.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-signals:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel did not close")
	}
}

func receiveSignal(t *testing.T, signals <-chan string) string {
	t.Helper()
	select {
	case entity := <-signals:
		return entity
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
		return ""
	}
}
