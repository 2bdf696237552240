package observation

import (
	"reflect"
	"sync"

	"github.com/celements/wikibridge/xwiki/component"
)

// ComponentListenerBridge keeps a Manager in sync with the listeners
// registered as components of role Listener, and fires the component
// descriptor events. Install it with component.WithNotifier or
// (*component.Manager).AddNotifier.
type ComponentListenerBridge struct {
	observation *Manager
	components  *component.Manager

	mu    sync.Mutex
	names map[string]string // bean name -> listener name
}

func NewComponentListenerBridge(observation *Manager, components *component.Manager) *ComponentListenerBridge {
	return &ComponentListenerBridge{
		observation: observation,
		components:  components,
		names:       map[string]string{},
	}
}

var listenerRole = reflect.TypeFor[Listener]()

func (b *ComponentListenerBridge) ComponentRegistered(desc component.Descriptor) {
	if desc.Role == listenerRole {
		b.addListener(desc)
	}
	b.observation.Notify(ComponentDescriptorAddedEvent{Role: desc.Role, Hint: desc.Hint}, b.components, desc)
}

func (b *ComponentListenerBridge) ComponentUnregistered(desc component.Descriptor) {
	if desc.Role == listenerRole {
		b.mu.Lock()
		name, ok := b.names[desc.BeanName()]
		delete(b.names, desc.BeanName())
		b.mu.Unlock()
		if ok {
			b.observation.RemoveListener(name)
		}
	}
	b.observation.Notify(ComponentDescriptorRemovedEvent{Role: desc.Role, Hint: desc.Hint}, b.components, desc)
}

func (b *ComponentListenerBridge) addListener(desc component.Descriptor) {
	l, err := component.Lookup[Listener](b.components, desc.Hint)
	if err != nil {
		b.observation.logger.Error("failed to look up listener component", "hint", desc.Hint, "error", err)
		return
	}
	if err := b.observation.AddListener(l); err != nil {
		b.observation.logger.Error("failed to register listener component", "hint", desc.Hint, "error", err)
		return
	}
	b.mu.Lock()
	b.names[desc.BeanName()] = l.Name()
	b.mu.Unlock()
}

// RegisterAll adds the listener components registered before the bridge was
// installed.
func (b *ComponentListenerBridge) RegisterAll() {
	for _, desc := range b.components.Descriptors(listenerRole) {
		b.mu.Lock()
		_, known := b.names[desc.BeanName()]
		b.mu.Unlock()
		if !known {
			b.addListener(desc)
		}
	}
}
