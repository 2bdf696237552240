package observation

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"slices"
	"sync"
)

var (
	// ErrListenerExists is returned when a listener name is already taken.
	ErrListenerExists = errors.New("listener already registered")
	// ErrListenerNotFound is returned for operations on unknown listener names.
	ErrListenerNotFound = errors.New("listener not found")
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report listener failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

type registration struct {
	listener Listener
	events   []Event
}

// Manager keeps listeners and dispatches events to them synchronously, in
// registration order. It is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	regs   map[string]*registration
	order  []string
	logger *slog.Logger
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{regs: map[string]*registration{}}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("logger", "observation")
	return m
}

// AddListener registers l for the events it declares.
func (m *Manager) AddListener(l Listener) error {
	return m.AddListenerFor(l, l.Events()...)
}

// AddListenerFor registers l for events instead of the ones it declares.
func (m *Manager) AddListenerFor(l Listener, events ...Event) error {
	if l == nil {
		return errors.New("nil listener")
	}
	name := l.Name()
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.regs[name]; ok {
		m.logger.Warn("listener name already used",
			"listener", name, "registered", fmt.Sprintf("%T", existing.listener), "rejected", fmt.Sprintf("%T", l))
		return fmt.Errorf("%w: %s", ErrListenerExists, name)
	}
	m.regs[name] = &registration{listener: l, events: slices.Clone(events)}
	m.order = append(m.order, name)
	return nil
}

// RemoveListener unregisters the listener named name. Unknown names are ignored.
func (m *Manager) RemoveListener(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regs[name]; !ok {
		return
	}
	delete(m.regs, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })
}

// Listener returns the listener registered under name.
func (m *Manager) Listener(name string) (Listener, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, ok := m.regs[name]
	if !ok {
		return nil, false
	}
	return reg.listener, true
}

// Listeners returns the registered listeners in registration order.
func (m *Manager) Listeners() []Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Listener, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.regs[name].listener)
	}
	return out
}

// AddEvent registers one more event for the listener named name.
func (m *Manager) AddEvent(name string, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.regs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrListenerNotFound, name)
	}
	reg.events = append(reg.events, event)
	return nil
}

// RemoveEvent removes every registered event of the listener equal to event.
func (m *Manager) RemoveEvent(name string, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.regs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrListenerNotFound, name)
	}
	reg.events = slices.DeleteFunc(slices.Clone(reg.events), func(e Event) bool {
		return reflect.DeepEqual(e, event)
	})
	return nil
}

// Notify calls every listener with a registered event matching event. Each
// listener is called at most once per notification. A panicking listener is
// logged and does not prevent the others from being notified.
func (m *Manager) Notify(event Event, source, data any) {
	if event == nil {
		return
	}
	for _, l := range m.matching(event) {
		m.dispatch(l, event, source, data)
	}
}

func (m *Manager) matching(event Event) []Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Listener
	for _, name := range m.order {
		reg := m.regs[name]
		if slices.ContainsFunc(reg.events, func(e Event) bool { return e != nil && e.Matches(event) }) {
			out = append(out, reg.listener)
		}
	}
	return out
}

func (m *Manager) dispatch(l Listener, event Event, source, data any) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("listener failed",
				"listener", l.Name(), "event", fmt.Sprintf("%T", event), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	l.OnEvent(event, source, data)
}
