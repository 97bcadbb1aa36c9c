package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failing  bool
}

func (f *fakeClient) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub, cancel
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub, _ := startHub(t)
	a, b := &fakeClient{}, &fakeClient{}
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))

	hub.Publish(map[string]string{"type": "order_created"})

	assert.Eventually(t, func() bool { return a.received() == 1 && b.received() == 1 }, time.Second, 5*time.Millisecond)
	assert.JSONEq(t, `{"type":"order_created"}`, string(a.messages[0]))
}

func TestHub_DropsFailingClient(t *testing.T) {
	hub, _ := startHub(t)
	bad := &fakeClient{failing: true}
	require.True(t, hub.Register(bad))

	hub.Publish(map[string]string{"type": "stock_update"})

	assert.Eventually(t, func() bool { return hub.Len() == 0 && bad.isClosed() }, time.Second, 5*time.Millisecond)
}

func TestHub_Unregister(t *testing.T) {
	hub, _ := startHub(t)
	c := &fakeClient{}
	require.True(t, hub.Register(c))
	hub.Unregister(c)

	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.isClosed())
}

func TestHub_StopClosesClientsAndRejectsLateCalls(t *testing.T) {
	hub, cancel := startHub(t)
	c := &fakeClient{}
	require.True(t, hub.Register(c))

	cancel()
	<-hub.Done()

	assert.True(t, c.isClosed())
	assert.False(t, hub.Register(&fakeClient{}))
	hub.Unregister(c)
	hub.Publish(map[string]string{"type": "ignored"})
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	// Run is not started, so the queue fills and later events are dropped.
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.Publish(i)
	}
	assert.Len(t, hub.broadcast, broadcastBuffer)
}
