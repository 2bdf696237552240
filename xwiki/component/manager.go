package component

import (
	"cmp"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for disposal and lenient injection failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLenientRequirements makes requirement injection failures non fatal:
// they are logged and the component is returned without the dependency.
func WithLenientRequirements() Option {
	return func(m *Manager) {
		m.lenient = true
	}
}

// WithNotifier adds a notifier told about registrations.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifiers = append(m.notifiers, n)
	}
}

type bean struct {
	name string
	desc *Descriptor // nil for instances registered by name only
	// mu guards singleton creation
	mu       sync.Mutex
	instance any
}

func (b *bean) provides(role reflect.Type) bool {
	if b.desc != nil {
		return b.desc.Role == role
	}
	return implements(b.instance, role)
}

// Manager holds component registrations. It is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	beans     map[string]*bean
	notifiers []Notifier
	lenient   bool
	logger    *slog.Logger
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{beans: map[string]*bean{}}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("logger", "component")
	return m
}

// AddNotifier adds a notifier after construction.
func (m *Manager) AddNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

// RegisterComponent registers desc, replacing and disposing any component
// registered under the same role and hint.
func (m *Manager) RegisterComponent(desc Descriptor) error {
	if desc.Factory == nil {
		return fmt.Errorf("%w: %s has no factory", ErrInvalidDescriptor, desc.BeanName())
	}
	return m.register(desc, nil)
}

// RegisterInstance registers an existing singleton instance for desc.
func (m *Manager) RegisterInstance(desc Descriptor, instance any) error {
	if instance == nil {
		return fmt.Errorf("%w: nil instance for %s", ErrInvalidDescriptor, desc.BeanName())
	}
	if desc.Role != nil && !implements(instance, desc.Role) {
		return fmt.Errorf("%w: %T does not implement %s", ErrInvalidDescriptor, instance, desc.RoleName())
	}
	desc.Instantiation = Singleton
	return m.register(desc, instance)
}

func (m *Manager) register(desc Descriptor, instance any) error {
	if desc.Role == nil {
		return fmt.Errorf("%w: missing role", ErrInvalidDescriptor)
	}
	desc.Hint = normalizeHint(desc.Hint)
	b := &bean{name: desc.BeanName(), desc: &desc, instance: instance}

	m.mu.Lock()
	old := m.beans[b.name]
	m.beans[b.name] = b
	notifiers := slices.Clone(m.notifiers)
	m.mu.Unlock()

	if old != nil {
		m.dispose(old)
		if old.desc != nil {
			for _, n := range notifiers {
				n.ComponentUnregistered(*old.desc)
			}
		}
	}
	for _, n := range notifiers {
		n.ComponentRegistered(desc)
	}
	m.logger.Debug("component registered", "bean", b.name, "instantiation", desc.Instantiation)
	return nil
}

// RegisterNamed registers instance under a plain name. Such instances are
// found by role lookups whose hint equals name.
func (m *Manager) RegisterNamed(name string, instance any) error {
	if name == "" || instance == nil {
		return fmt.Errorf("%w: named instances need a name and a value", ErrInvalidDescriptor)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beans[name] = &bean{name: name, instance: instance}
	return nil
}

// UnregisterComponent removes the component and disposes its singleton.
func (m *Manager) UnregisterComponent(role reflect.Type, hint string) error {
	name := BeanName(role, hint)
	m.mu.Lock()
	b, ok := m.beans[name]
	delete(m.beans, name)
	notifiers := slices.Clone(m.notifiers)
	m.mu.Unlock()

	if !ok {
		return &LookupError{Role: role, Hint: normalizeHint(hint), Err: ErrComponentLookup}
	}
	m.dispose(b)
	if b.desc != nil {
		for _, n := range notifiers {
			n.ComponentUnregistered(*b.desc)
		}
	}
	m.logger.Debug("component unregistered", "bean", name)
	return nil
}

func (m *Manager) dispose(b *bean) {
	b.mu.Lock()
	inst := b.instance
	b.instance = nil
	b.mu.Unlock()
	if d, ok := inst.(Disposable); ok {
		if err := d.Dispose(); err != nil {
			m.logger.Warn("failed to dispose component", "bean", b.name, "error", err)
		}
	}
}

// Lookup returns the component for role and hint. The bean name is tried
// first, then the bare hint.
func (m *Manager) Lookup(role reflect.Type, hint string) (any, error) {
	return m.lookup(role, hint, nil)
}

func (m *Manager) find(role reflect.Type, hint string) (*bean, bool) {
	hint = normalizeHint(hint)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.beans[BeanName(role, hint)]; ok {
		return b, true
	}
	if b, ok := m.beans[hint]; ok && b.provides(role) {
		return b, true
	}
	return nil, false
}

func (m *Manager) lookup(role reflect.Type, hint string, chain []string) (any, error) {
	if role == nil {
		return nil, &LookupError{Hint: hint, Err: fmt.Errorf("%w: missing role", ErrComponentLookup)}
	}
	b, ok := m.find(role, hint)
	if !ok {
		return nil, &LookupError{Role: role, Hint: normalizeHint(hint), Err: ErrComponentLookup}
	}
	inst, err := m.instance(b, chain)
	if err != nil {
		return nil, &LookupError{Role: role, Hint: normalizeHint(hint), Err: err}
	}
	return inst, nil
}

func (m *Manager) instance(b *bean, chain []string) (any, error) {
	if slices.Contains(chain, b.name) {
		return nil, fmt.Errorf("%w: %s", ErrCyclicRequirement, strings.Join(append(chain, b.name), " -> "))
	}
	if b.desc == nil {
		return b.instance, nil
	}
	if b.desc.Instantiation == PerLookup {
		return m.create(b, chain)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.instance != nil {
		return b.instance, nil
	}
	inst, err := m.create(b, chain)
	if err != nil {
		return nil, err
	}
	b.instance = inst
	return inst, nil
}

func (m *Manager) create(b *bean, chain []string) (any, error) {
	if b.desc.Factory == nil {
		return nil, fmt.Errorf("%w: %s has no factory", ErrInvalidDescriptor, b.name)
	}
	inst, err := b.desc.Factory()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %s: %w", b.name, err)
	}
	chain = append(slices.Clone(chain), b.name)
	for _, req := range b.desc.Requirements {
		if err := m.inject(inst, req, chain); err != nil {
			if !m.lenient {
				return nil, fmt.Errorf("failed to inject [%s] into %s: %w", BeanName(req.Role, req.Hint), b.name, err)
			}
			m.logger.Warn("component requirement not injected",
				"bean", b.name, "requirement", BeanName(req.Role, req.Hint), "error", err)
		}
	}
	if i, ok := inst.(Initializable); ok {
		if err := i.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", b.name, err)
		}
	}
	return inst, nil
}

func (m *Manager) inject(target any, req Requirement, chain []string) error {
	if req.Inject == nil {
		return fmt.Errorf("%w: requirement on %s has no inject function", ErrInvalidDescriptor, RoleName(req.Role))
	}
	var dep any
	var err error
	switch req.Kind {
	case List:
		dep, err = m.lookupList(req.Role, chain)
	case Map:
		dep, err = m.lookupMap(req.Role, chain)
	default:
		dep, err = m.lookup(req.Role, req.Hint, chain)
	}
	if err != nil {
		return err
	}
	return req.Inject(target, dep)
}

// LookupList returns every component of role, ordered by hint.
func (m *Manager) LookupList(role reflect.Type) ([]any, error) {
	return m.lookupList(role, nil)
}

func (m *Manager) lookupList(role reflect.Type, chain []string) ([]any, error) {
	list := []any{}
	for _, b := range m.beansOf(role) {
		inst, err := m.instance(b, chain)
		if err != nil {
			return nil, &LookupError{Role: role, Hint: b.desc.Hint, Err: err}
		}
		list = append(list, inst)
	}
	return list, nil
}

// LookupMap returns every component of role keyed by hint.
func (m *Manager) LookupMap(role reflect.Type) (map[string]any, error) {
	return m.lookupMap(role, nil)
}

func (m *Manager) lookupMap(role reflect.Type, chain []string) (map[string]any, error) {
	result := map[string]any{}
	for _, b := range m.beansOf(role) {
		inst, err := m.instance(b, chain)
		if err != nil {
			return nil, &LookupError{Role: role, Hint: b.desc.Hint, Err: err}
		}
		result[b.desc.Hint] = inst
	}
	return result, nil
}

func (m *Manager) beansOf(role reflect.Type) []*bean {
	m.mu.RLock()
	var beans []*bean
	for _, b := range m.beans {
		if b.desc != nil && b.desc.Role == role {
			beans = append(beans, b)
		}
	}
	m.mu.RUnlock()
	slices.SortFunc(beans, func(a, b *bean) int { return cmp.Compare(a.desc.Hint, b.desc.Hint) })
	return beans
}

// HasComponent reports whether Lookup would find a component.
func (m *Manager) HasComponent(role reflect.Type, hint string) bool {
	_, ok := m.find(role, hint)
	return ok
}

// Descriptors returns the descriptors registered for role, ordered by hint.
func (m *Manager) Descriptors(role reflect.Type) []Descriptor {
	var out []Descriptor
	for _, b := range m.beansOf(role) {
		out = append(out, *b.desc)
	}
	return out
}

// Release drops instance from the singleton cache, so that the next lookup
// creates a new one, and disposes it. Registered instances stay registered
// and are not disposed.
func (m *Manager) Release(instance any) error {
	if instance == nil {
		return nil
	}
	m.mu.RLock()
	beans := make([]*bean, 0, len(m.beans))
	for _, b := range m.beans {
		beans = append(beans, b)
	}
	m.mu.RUnlock()

	registered := false
	for _, b := range beans {
		b.mu.Lock()
		switch {
		case !sameInstance(b.instance, instance):
		case b.desc == nil || b.desc.Factory == nil:
			registered = true
		case b.desc.Instantiation == Singleton:
			b.instance = nil
		}
		b.mu.Unlock()
	}
	if registered {
		return nil
	}
	if d, ok := instance.(Disposable); ok {
		return d.Dispose()
	}
	return nil
}

func implements(instance any, role reflect.Type) bool {
	t := reflect.TypeOf(instance)
	if t == nil {
		return false
	}
	if role.Kind() == reflect.Interface {
		return t.Implements(role)
	}
	return t.AssignableTo(role)
}

func sameInstance(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}
