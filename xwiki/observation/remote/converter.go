package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/observation"
)

// ErrUnknownKind is returned when decoding an envelope of an unregistered kind.
var ErrUnknownKind = errors.New("unknown remote event kind")

// EventData is the wire envelope of a remote event.
type EventData struct {
	ID     string          `json:"id"`
	Node   string          `json:"node"`
	Kind   string          `json:"kind"`
	Event  json.RawMessage `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	SentAt time.Time       `json:"sent_at"`
}

// Codec converts one kind of event to and from its JSON payload.
type Codec struct {
	// Accepts reports whether the codec handles the event.
	Accepts func(observation.Event) bool
	Encode  func(observation.Event) (any, error)
	Decode  func(json.RawMessage) (observation.Event, error)
}

// Converter holds the codecs of the remote-able event kinds. Events without a
// codec stay local.
type Converter struct {
	mu     sync.RWMutex
	kinds  []string
	codecs map[string]Codec
	now    func() time.Time
}

// NewConverter returns a converter knowing the document and wiki events.
func NewConverter() *Converter {
	c := &Converter{codecs: map[string]Codec{}, now: time.Now}
	c.Register("document.created", documentCodec(
		func(ref reference.DocumentReference) observation.Event { return observation.NewDocumentCreatedEvent(ref) }))
	c.Register("document.updated", documentCodec(
		func(ref reference.DocumentReference) observation.Event { return observation.NewDocumentUpdatedEvent(ref) }))
	c.Register("document.deleted", documentCodec(
		func(ref reference.DocumentReference) observation.Event { return observation.NewDocumentDeletedEvent(ref) }))
	c.Register("wiki.created", wikiCodec(
		func(id string) observation.Event { return observation.WikiCreatedEvent{WikiID: id} }))
	c.Register("wiki.deleted", wikiCodec(
		func(id string) observation.Event { return observation.WikiDeletedEvent{WikiID: id} }))
	return c
}

// Register adds or replaces the codec of kind.
func (c *Converter) Register(kind string, codec Codec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.codecs[kind]; !ok {
		c.kinds = append(c.kinds, kind)
	}
	c.codecs[kind] = codec
}

// Kind returns the kind handling event.
func (c *Converter) Kind(event observation.Event) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, kind := range c.kinds {
		if c.codecs[kind].Accepts(event) {
			return kind, true
		}
	}
	return "", false
}

// ToRemote wraps event and data into an envelope sent by node. It reports
// false for events that are not remote-able.
func (c *Converter) ToRemote(node string, event observation.Event, data any) (EventData, bool, error) {
	kind, ok := c.Kind(event)
	if !ok {
		return EventData{}, false, nil
	}
	c.mu.RLock()
	codec := c.codecs[kind]
	c.mu.RUnlock()

	payload, err := codec.Encode(event)
	if err != nil {
		return EventData{}, true, fmt.Errorf("failed to encode %s event: %w", kind, err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return EventData{}, true, fmt.Errorf("failed to encode %s event: %w", kind, err)
	}
	ed := EventData{
		ID:     uuid.NewString(),
		Node:   node,
		Kind:   kind,
		Event:  raw,
		SentAt: c.now().UTC(),
	}
	if rec, ok := documentData(data); ok {
		if ed.Data, err = json.Marshal(rec); err != nil {
			return EventData{}, true, fmt.Errorf("failed to encode %s data: %w", kind, err)
		}
	}
	return ed, true, nil
}

// FromRemote unwraps an envelope. Document data comes back as a
// types.DocumentRecord, absent data as nil.
func (c *Converter) FromRemote(ed EventData) (observation.Event, any, error) {
	c.mu.RLock()
	codec, ok := c.codecs[ed.Kind]
	c.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, ed.Kind)
	}
	event, err := codec.Decode(ed.Event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s event %s: %w", ed.Kind, ed.ID, err)
	}
	if len(ed.Data) == 0 {
		return event, nil, nil
	}
	var rec types.DocumentRecord
	if err := json.Unmarshal(ed.Data, &rec); err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s data %s: %w", ed.Kind, ed.ID, err)
	}
	return event, rec, nil
}

func documentData(data any) (types.DocumentRecord, bool) {
	switch d := data.(type) {
	case *types.Document:
		if d != nil {
			return d.Record(), true
		}
	case types.DocumentRecord:
		return d, true
	}
	return types.DocumentRecord{}, false
}

type documentPayload struct {
	Reference string `json:"reference"`
}

type documentEvent interface {
	observation.Event
	Document() reference.DocumentReference
}

func documentCodec(build func(reference.DocumentReference) observation.Event) Codec {
	proto := build(reference.DocumentReference{})
	return Codec{
		Accepts: func(e observation.Event) bool {
			_, ok := e.(documentEvent)
			return ok && sameType(e, proto)
		},
		Encode: func(e observation.Event) (any, error) {
			ref := e.(documentEvent).Document()
			if ref.Entity() == nil {
				return nil, errors.New("event without document")
			}
			return documentPayload{Reference: ref.String()}, nil
		},
		Decode: func(raw json.RawMessage) (observation.Event, error) {
			var p documentPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
			ref, err := reference.ResolveDocument(p.Reference)
			if err != nil {
				return nil, err
			}
			return build(ref), nil
		},
	}
}

type wikiPayload struct {
	Wiki string `json:"wiki"`
}

func wikiCodec(build func(string) observation.Event) Codec {
	proto := build("")
	return Codec{
		Accepts: func(e observation.Event) bool { return sameType(e, proto) },
		Encode: func(e observation.Event) (any, error) {
			switch w := e.(type) {
			case observation.WikiCreatedEvent:
				return wikiPayload{Wiki: w.WikiID}, nil
			case observation.WikiDeletedEvent:
				return wikiPayload{Wiki: w.WikiID}, nil
			}
			return nil, fmt.Errorf("not a wiki event: %T", e)
		},
		Decode: func(raw json.RawMessage) (observation.Event, error) {
			var p wikiPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
			return build(p.Wiki), nil
		},
	}
}

func sameType(a, b any) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}
