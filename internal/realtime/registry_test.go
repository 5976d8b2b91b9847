package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamtasks-backend/internal/identity"
	"teamtasks-backend/internal/metrics"
)

type fakeConn struct {
	handle string
	err    error

	mu   sync.Mutex
	sent [][]byte
}

func (f *fakeConn) Handle() string { return f.handle }

func (f *fakeConn) Send(payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("per_user")
	require.NoError(t, err)
	assert.Equal(t, "user_42", p.GroupForUser(42))
	assert.Equal(t, "user_42", p.GroupFor(identity.Identity{UserID: 42, Username: "alice"}))
	assert.Equal(t, AnonymousGroup, p.GroupFor(identity.Anonymous()))

	p, err = ParsePolicy("broadcast")
	require.NoError(t, err)
	assert.Equal(t, BroadcastGroup, p.GroupForUser(42))
	assert.Equal(t, BroadcastGroup, p.GroupFor(identity.Anonymous()))

	_, err = ParsePolicy("team")
	assert.Error(t, err)
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{handle: "c1"}

	before := testutil.ToFloat64(metrics.Connections)
	r.Join("user_1", c)
	r.Join("user_1", c)

	assert.Len(t, r.MembersOf("user_1"), 1)
	assert.Equal(t, 1, r.Deliver("user_1", []byte("x")))
	assert.Equal(t, 1, c.count(), "a doubly joined connection receives each push once")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Connections))

	r.Leave("user_1", "c1")
	assert.Equal(t, before, testutil.ToFloat64(metrics.Connections))
}

func TestRegistry_LeaveAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Leave("nobody", "c1")

	r.Join("user_1", &fakeConn{handle: "c1"})
	r.Leave("user_1", "c2")
	r.Leave("user_2", "c1")
	assert.Len(t, r.MembersOf("user_1"), 1)
}

func TestRegistry_DeliverToEmptyGroup(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Deliver("user_9", []byte("x")))
	assert.Empty(t, r.MembersOf("user_9"))
}

func TestRegistry_FailedSendDoesNotStopOthers(t *testing.T) {
	r := NewRegistry()
	good1 := &fakeConn{handle: "a"}
	bad := &fakeConn{handle: "b", err: ErrSendBufferFull}
	closed := &fakeConn{handle: "c", err: ErrClosed}
	good2 := &fakeConn{handle: "d"}
	for _, c := range []*fakeConn{good1, bad, closed, good2} {
		r.Join("user_1", c)
	}

	n, err := r.Publish(context.Background(), "user_1", []byte(`{"type":"mention"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, good1.count())
	assert.Equal(t, 1, good2.count())
}

func TestRegistry_MembersOfIsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Join("g", &fakeConn{handle: "a"})
	snap := r.MembersOf("g")
	r.Join("g", &fakeConn{handle: "b"})
	assert.Len(t, snap, 1)
	assert.Len(t, r.MembersOf("g"), 2)
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &fakeConn{handle: string(rune('A' + i))}
			r.Join("g", c)
			r.Deliver("g", []byte("x"))
			r.Leave("g", c.Handle())
		}(i)
	}
	wg.Wait()
	assert.Empty(t, r.MembersOf("g"))
}

func TestWSConn_SendNeverBlocks(t *testing.T) {
	c := &wsConn{handle: "h", send: make(chan []byte, 1), done: make(chan struct{})}

	require.NoError(t, c.Send([]byte("1")))
	assert.True(t, errors.Is(c.Send([]byte("2")), ErrSendBufferFull))

	c.close()
	c.close()
	assert.True(t, errors.Is(c.Send([]byte("3")), ErrClosed))
}

func TestRedisRelay_HandleMessage(t *testing.T) {
	local := NewRegistry()
	c := &fakeConn{handle: "a"}
	local.Join("user_3", c)
	relay := NewRedisRelay(nil, "chan", local)

	assert.Equal(t, 1, relay.handleMessage(`{"group":"user_3","payload":{"type":"overdue","title":"t","message":"m"}}`))
	require.Equal(t, 1, c.count())
	assert.JSONEq(t, `{"type":"overdue","title":"t","message":"m"}`, string(c.sent[0]))

	assert.Equal(t, 0, relay.handleMessage("not json"))
	assert.Equal(t, 0, relay.handleMessage(`{"group":"user_4","payload":{}}`))
}
