package observation

// Listener receives the events it registered for.
type Listener interface {
	// Name identifies the listener. Names are unique within a Manager.
	Name() string
	// Events lists the events the listener is registered for initially.
	Events() []Event
	// OnEvent handles a fired event. source is whatever fired it, data is
	// optional event specific payload.
	OnEvent(event Event, source, data any)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(event Event, source, data any)

type funcListener struct {
	name   string
	events []Event
	fn     ListenerFunc
}

// NewListener returns a Listener named name calling fn for events.
func NewListener(name string, fn ListenerFunc, events ...Event) Listener {
	return &funcListener{name: name, events: events, fn: fn}
}

func (l *funcListener) Name() string    { return l.name }
func (l *funcListener) Events() []Event { return l.events }

func (l *funcListener) OnEvent(event Event, source, data any) {
	l.fn(event, source, data)
}
