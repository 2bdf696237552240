package observation

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/celements/wikibridge/xwiki/component"
)

type wikiCounter struct {
	created int
}

func (c *wikiCounter) Name() string    { return "wiki-counter" }
func (c *wikiCounter) Events() []Event { return []Event{WikiCreatedEvent{}} }

func (c *wikiCounter) OnEvent(Event, any, any) {
	c.created++
}

func TestComponentListenerBridge(t *testing.T) {
	obs := NewManager()
	cm := component.NewManager()
	bridge := NewComponentListenerBridge(obs, cm)
	cm.AddNotifier(bridge)

	var descriptorEvents []string
	_ = obs.AddListener(NewListener("descriptors", func(event Event, _, _ any) {
		switch e := event.(type) {
		case ComponentDescriptorAddedEvent:
			descriptorEvents = append(descriptorEvents, "+"+e.Hint)
		case ComponentDescriptorRemovedEvent:
			descriptorEvents = append(descriptorEvents, "-"+e.Hint)
		}
	}, ComponentDescriptorAddedEvent{Role: reflect.TypeFor[Listener]()}, ComponentDescriptorRemovedEvent{}))

	counter := &wikiCounter{}
	if err := component.RegisterValue[Listener](cm, "counter", counter); err != nil {
		t.Fatalf("RegisterValue: %v", err)
	}
	if _, ok := obs.Listener("wiki-counter"); !ok {
		t.Fatal("listener component was not added")
	}

	obs.Notify(WikiCreatedEvent{WikiID: "intranet"}, nil, nil)
	if counter.created != 1 {
		t.Errorf("expected one event, got %d", counter.created)
	}

	if err := cm.UnregisterComponent(reflect.TypeFor[Listener](), "counter"); err != nil {
		t.Fatalf("UnregisterComponent: %v", err)
	}
	if _, ok := obs.Listener("wiki-counter"); ok {
		t.Error("listener component was not removed")
	}
	obs.Notify(WikiCreatedEvent{WikiID: "intranet"}, nil, nil)
	if counter.created != 1 {
		t.Errorf("removed listener was notified")
	}

	if diff := cmp.Diff([]string{"+counter", "-counter"}, descriptorEvents); diff != "" {
		t.Errorf("descriptor events (-want +got):\n%s", diff)
	}
}

func TestComponentListenerBridgeRegisterAll(t *testing.T) {
	obs := NewManager()
	cm := component.NewManager()
	_ = component.RegisterValue[Listener](cm, "", &wikiCounter{})

	bridge := NewComponentListenerBridge(obs, cm)
	bridge.RegisterAll()
	bridge.RegisterAll()

	if got := len(obs.Listeners()); got != 1 {
		t.Errorf("expected 1 listener, got %d", got)
	}
}
