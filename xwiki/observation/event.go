package observation

import (
	"fmt"
	"reflect"

	"github.com/celements/wikibridge/internal/matching"
	"github.com/celements/wikibridge/reference"
)

// Event is both what is fired and what listeners register for. A
// registered event e receives a fired event f when e.Matches(f).
type Event interface {
	Matches(other Event) bool
}

// DocumentEvent carries the document an event is about. On registered
// events Filter restricts the documents matched, nil matching all of them.
type DocumentEvent struct {
	Ref    reference.DocumentReference
	Filter matching.Filter
}

// Document returns the document the event was fired for.
func (e DocumentEvent) Document() reference.DocumentReference {
	return e.Ref
}

func (e DocumentEvent) matchDocument(other DocumentEvent) bool {
	if e.Filter == nil {
		return true
	}
	return other.Ref.Entity() != nil && e.Filter.Match(other.Ref)
}

func (e DocumentEvent) describe(kind string) string {
	switch {
	case e.Ref.Entity() != nil:
		return fmt.Sprintf("%s[%s]", kind, e.Ref)
	case e.Filter != nil:
		return fmt.Sprintf("%s[filter=%s]", kind, e.Filter)
	}
	return kind
}

// DocumentCreatedEvent is fired after a new document was saved.
type DocumentCreatedEvent struct{ DocumentEvent }

// NewDocumentCreatedEvent returns the event fired for ref.
func NewDocumentCreatedEvent(ref reference.DocumentReference) DocumentCreatedEvent {
	return DocumentCreatedEvent{DocumentEvent{Ref: ref}}
}

// OnDocumentCreated returns an event to register, restricted by filter.
func OnDocumentCreated(filter matching.Filter) DocumentCreatedEvent {
	return DocumentCreatedEvent{DocumentEvent{Filter: filter}}
}

func (e DocumentCreatedEvent) Matches(other Event) bool {
	o, ok := other.(DocumentCreatedEvent)
	return ok && e.matchDocument(o.DocumentEvent)
}

func (e DocumentCreatedEvent) String() string { return e.describe("DocumentCreated") }

// DocumentUpdatedEvent is fired after an existing document was saved.
type DocumentUpdatedEvent struct{ DocumentEvent }

func NewDocumentUpdatedEvent(ref reference.DocumentReference) DocumentUpdatedEvent {
	return DocumentUpdatedEvent{DocumentEvent{Ref: ref}}
}

func OnDocumentUpdated(filter matching.Filter) DocumentUpdatedEvent {
	return DocumentUpdatedEvent{DocumentEvent{Filter: filter}}
}

func (e DocumentUpdatedEvent) Matches(other Event) bool {
	o, ok := other.(DocumentUpdatedEvent)
	return ok && e.matchDocument(o.DocumentEvent)
}

func (e DocumentUpdatedEvent) String() string { return e.describe("DocumentUpdated") }

// DocumentDeletedEvent is fired after a document was deleted.
type DocumentDeletedEvent struct{ DocumentEvent }

func NewDocumentDeletedEvent(ref reference.DocumentReference) DocumentDeletedEvent {
	return DocumentDeletedEvent{DocumentEvent{Ref: ref}}
}

func OnDocumentDeleted(filter matching.Filter) DocumentDeletedEvent {
	return DocumentDeletedEvent{DocumentEvent{Filter: filter}}
}

func (e DocumentDeletedEvent) Matches(other Event) bool {
	o, ok := other.(DocumentDeletedEvent)
	return ok && e.matchDocument(o.DocumentEvent)
}

func (e DocumentDeletedEvent) String() string { return e.describe("DocumentDeleted") }

// WikiCreatedEvent is fired when a wiki is created. An empty WikiID on a
// registered event matches every wiki.
type WikiCreatedEvent struct {
	WikiID string
}

func (e WikiCreatedEvent) Matches(other Event) bool {
	o, ok := other.(WikiCreatedEvent)
	return ok && (e.WikiID == "" || e.WikiID == o.WikiID)
}

// WikiDeletedEvent is fired when a wiki is deleted.
type WikiDeletedEvent struct {
	WikiID string
}

func (e WikiDeletedEvent) Matches(other Event) bool {
	o, ok := other.(WikiDeletedEvent)
	return ok && (e.WikiID == "" || e.WikiID == o.WikiID)
}

// ComponentDescriptorAddedEvent is fired when a component is registered. A
// nil Role on a registered event matches every role.
type ComponentDescriptorAddedEvent struct {
	Role reflect.Type
	Hint string
}

func (e ComponentDescriptorAddedEvent) Matches(other Event) bool {
	o, ok := other.(ComponentDescriptorAddedEvent)
	return ok && (e.Role == nil || e.Role == o.Role)
}

// ComponentDescriptorRemovedEvent is fired when a component is unregistered.
type ComponentDescriptorRemovedEvent struct {
	Role reflect.Type
	Hint string
}

func (e ComponentDescriptorRemovedEvent) Matches(other Event) bool {
	o, ok := other.(ComponentDescriptorRemovedEvent)
	return ok && (e.Role == nil || e.Role == o.Role)
}

// ApplicationReadyEvent is fired once all components are registered.
type ApplicationReadyEvent struct{}

func (ApplicationReadyEvent) Matches(other Event) bool {
	_, ok := other.(ApplicationReadyEvent)
	return ok
}

// AllEvent matches every event.
type AllEvent struct{}

func (AllEvent) Matches(other Event) bool {
	return other != nil
}
