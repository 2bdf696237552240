package remote

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celements/wikibridge/testutil"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/observation"
)

type received struct {
	mu     sync.Mutex
	events []observation.Event
	source []any
	data   []any
}

func (r *received) listener(name string) observation.Listener {
	return observation.NewListener(name, func(event observation.Event, source, data any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
		r.source = append(r.source, source)
		r.data = append(r.data, data)
	}, observation.AllEvent{})
}

func (r *received) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type node struct {
	manager  *observation.Manager
	relay    *Relay
	client   *Client
	received *received
}

func startNode(t *testing.T, ctx context.Context, url, name string) *node {
	t.Helper()
	client, err := Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	n := &node{manager: observation.NewManager(), client: client, received: &received{}}
	require.NoError(t, n.manager.AddListener(n.received.listener("recorder")))
	n.relay = NewRelay(n.manager, client, WithNode(name))
	require.NoError(t, n.relay.Start(ctx))
	return n
}

func TestRelayOverWebsocket(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)
	t.Cleanup(func() { _ = hub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	a := startNode(t, ctx, url, "node-a")
	b := startNode(t, ctx, url, "node-b")
	require.Eventually(t, func() bool { return hub.Peers() == 2 }, 2*time.Second, 10*time.Millisecond)

	doc := testutil.LoadUniverse(t).Members
	a.manager.Notify(observation.NewDocumentUpdatedEvent(doc.Reference), "store", doc)
	// local only
	a.manager.Notify(observation.ApplicationReadyEvent{}, nil, nil)

	require.Eventually(t, func() bool { return b.received.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	b.received.mu.Lock()
	event, source, data := b.received.events[0], b.received.source[0], b.received.data[0]
	b.received.mu.Unlock()

	updated, ok := event.(observation.DocumentUpdatedEvent)
	require.True(t, ok, "unexpected event %T", event)
	assert.True(t, updated.Document().Equal(doc.Reference))
	assert.Equal(t, "node-a", source.(RemoteSource).Node)
	rec, ok := data.(types.DocumentRecord)
	require.True(t, ok, "unexpected data %T", data)
	assert.Equal(t, doc.Content, rec.Content)

	// nothing echoes back to a
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, a.received.count())
}

func TestRelayStopsWithAdapter(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	ctx := context.Background()
	n := startNode(t, ctx, "ws"+strings.TrimPrefix(server.URL, "http"), "node-a")
	_, ok := n.manager.Listener(RelayListenerName)
	require.True(t, ok)

	require.NoError(t, hub.Close())
	select {
	case <-n.relay.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after the hub closed")
	}
	_, ok = n.manager.Listener(RelayListenerName)
	assert.False(t, ok)
}

type loopback struct {
	ch chan EventData
}

func (l *loopback) Send(_ context.Context, ed EventData) error {
	l.ch <- ed
	return nil
}

func (l *loopback) Receive() <-chan EventData { return l.ch }
func (l *loopback) Close() error              { return nil }

func TestRelayIgnoresOwnNode(t *testing.T) {
	adapter := &loopback{ch: make(chan EventData, 4)}
	m := observation.NewManager()
	rec := &received{}
	require.NoError(t, m.AddListener(rec.listener("recorder")))

	ctx, cancel := context.WithCancel(context.Background())
	relay := NewRelay(m, adapter, WithNode("self"))
	require.NoError(t, relay.Start(ctx))

	m.Notify(observation.WikiCreatedEvent{WikiID: "intranet"}, nil, nil)
	other, _, err := NewConverter().ToRemote("other", observation.WikiDeletedEvent{WikiID: "intranet"}, nil)
	require.NoError(t, err)
	adapter.ch <- other

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-relay.Done()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, observation.WikiDeletedEvent{WikiID: "intranet"}, rec.events[1])
	assert.Equal(t, RemoteSource{Node: "other", MessageID: other.ID}, rec.source[1])
}
