package remote

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/celements/wikibridge/xwiki/observation"
)

// RelayListenerName is the listener name of a Relay.
const RelayListenerName = "remote-relay"

// RemoteSource is the source of events received from another node.
type RemoteSource struct {
	Node      string
	MessageID string
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithNode sets the node id, a random uuid by default.
func WithNode(node string) RelayOption {
	return func(r *Relay) {
		r.node = node
	}
}

// WithConverter replaces the default converter.
func WithConverter(c *Converter) RelayOption {
	return func(r *Relay) {
		r.converter = c
	}
}

// WithRelayLogger sets the relay logger.
func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithSendTimeout bounds how long a local notification waits for the adapter.
func WithSendTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		r.sendTimeout = d
	}
}

// Relay connects a local observation.Manager to other nodes.
type Relay struct {
	node        string
	manager     *observation.Manager
	adapter     Adapter
	converter   *Converter
	logger      *slog.Logger
	sendTimeout time.Duration
	done        chan struct{}
}

func NewRelay(manager *observation.Manager, adapter Adapter, opts ...RelayOption) *Relay {
	r := &Relay{
		manager:     manager,
		adapter:     adapter,
		sendTimeout: 5 * time.Second,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.node == "" {
		r.node = uuid.NewString()
	}
	if r.converter == nil {
		r.converter = NewConverter()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("logger", "remote.relay", "node", r.node)
	return r
}

// Node returns the id of the local node.
func (r *Relay) Node() string {
	return r.node
}

func (r *Relay) Name() string {
	return RelayListenerName
}

func (r *Relay) Events() []observation.Event {
	return []observation.Event{observation.AllEvent{}}
}

// OnEvent sends remote-able local events to the other nodes.
func (r *Relay) OnEvent(event observation.Event, source, data any) {
	if _, remote := source.(RemoteSource); remote {
		return
	}
	ed, ok, err := r.converter.ToRemote(r.node, event, data)
	if err != nil {
		r.logger.Warn("failed to convert event", "event", event, "error", err)
		return
	}
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.sendTimeout)
	defer cancel()
	if err := r.adapter.Send(ctx, ed); err != nil {
		r.logger.Warn("failed to send event", "kind", ed.Kind, "id", ed.ID, "error", err)
		return
	}
	r.logger.Debug("event sent", "kind", ed.Kind, "id", ed.ID)
}

// Start registers the relay as listener and starts injecting received
// events until ctx is done or the adapter stops.
func (r *Relay) Start(ctx context.Context) error {
	if err := r.manager.AddListener(r); err != nil {
		return err
	}
	go r.receive(ctx)
	return nil
}

// Done is closed once the relay stopped receiving.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

func (r *Relay) receive(ctx context.Context) {
	defer close(r.done)
	defer r.manager.RemoveListener(RelayListenerName)
	in := r.adapter.Receive()
	for {
		select {
		case <-ctx.Done():
			return
		case ed, ok := <-in:
			if !ok {
				r.logger.Info("adapter stopped")
				return
			}
			r.inject(ed)
		}
	}
}

func (r *Relay) inject(ed EventData) {
	if ed.Node == r.node {
		return
	}
	event, data, err := r.converter.FromRemote(ed)
	if err != nil {
		r.logger.Warn("dropping remote event", "from", ed.Node, "kind", ed.Kind, "error", err)
		return
	}
	r.manager.Notify(event, RemoteSource{Node: ed.Node, MessageID: ed.ID}, data)
}
