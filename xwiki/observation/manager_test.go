package observation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/celements/wikibridge/internal/matching"
	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/testutil"
)

type recorder struct {
	calls []string
}

func (r *recorder) listener(name string, events ...Event) Listener {
	return NewListener(name, func(event Event, source, data any) {
		r.calls = append(r.calls, name)
	}, events...)
}

func TestEventMatching(t *testing.T) {
	blogPost := testutil.DocRef(t, "xwiki:Blog.Post")
	homePage := testutil.DocRef(t, "xwiki:Main.WebHome")
	blogSpace := testutil.SpaceRef(t, "xwiki", "Blog")
	postPattern, err := reference.NewRegexEntityReference("Po.*", reference.TypeDocument, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		registered Event
		fired      Event
		want       bool
	}{
		{"unfiltered created", OnDocumentCreated(nil), NewDocumentCreatedEvent(blogPost), true},
		{"exact document", OnDocumentCreated(matching.NewExactFilter(blogPost)), NewDocumentCreatedEvent(blogPost), true},
		{"other document", OnDocumentCreated(matching.NewExactFilter(blogPost)), NewDocumentCreatedEvent(homePage), false},
		{"space filter", OnDocumentUpdated(matching.NewExactFilter(blogSpace)), NewDocumentUpdatedEvent(blogPost), true},
		{"space filter other space", OnDocumentUpdated(matching.NewExactFilter(blogSpace)), NewDocumentUpdatedEvent(homePage), false},
		{"regex filter", OnDocumentDeleted(matching.NewRegexFilter(postPattern)), NewDocumentDeletedEvent(blogPost), true},
		{"regex filter mismatch", OnDocumentDeleted(matching.NewRegexFilter(postPattern)), NewDocumentDeletedEvent(homePage), false},
		{"different kind", OnDocumentCreated(nil), NewDocumentDeletedEvent(blogPost), false},
		{"any wiki", WikiCreatedEvent{}, WikiCreatedEvent{WikiID: "intranet"}, true},
		{"same wiki", WikiDeletedEvent{WikiID: "intranet"}, WikiDeletedEvent{WikiID: "intranet"}, true},
		{"other wiki", WikiDeletedEvent{WikiID: "intranet"}, WikiDeletedEvent{WikiID: "xwiki"}, false},
		{"application ready", ApplicationReadyEvent{}, ApplicationReadyEvent{}, true},
		{"all", AllEvent{}, WikiCreatedEvent{WikiID: "x"}, true},
		{"all but nil", AllEvent{}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.registered.Matches(tt.fired); got != tt.want {
				t.Errorf("%v.Matches(%v) = %v, want %v", tt.registered, tt.fired, got, tt.want)
			}
		})
	}
}

func TestManagerNotify(t *testing.T) {
	doc := testutil.DocRef(t, "xwiki:Blog.Post")
	rec := &recorder{}
	m := NewManager()

	for _, l := range []Listener{
		rec.listener("created", OnDocumentCreated(nil)),
		rec.listener("all", AllEvent{}),
		// two matching events, called once
		rec.listener("twice", OnDocumentCreated(nil), OnDocumentCreated(matching.NewExactFilter(doc))),
		rec.listener("deleted", OnDocumentDeleted(nil)),
	} {
		if err := m.AddListener(l); err != nil {
			t.Fatalf("AddListener(%s): %v", l.Name(), err)
		}
	}

	m.Notify(NewDocumentCreatedEvent(doc), nil, nil)
	if diff := cmp.Diff([]string{"created", "all", "twice"}, rec.calls); diff != "" {
		t.Errorf("notified listeners (-want +got):\n%s", diff)
	}

	t.Run("duplicate name", func(t *testing.T) {
		err := m.AddListener(rec.listener("created"))
		if !errors.Is(err, ErrListenerExists) {
			t.Errorf("expected ErrListenerExists, got %v", err)
		}
	})

	t.Run("add and remove events", func(t *testing.T) {
		rec.calls = nil
		if err := m.AddEvent("deleted", OnDocumentCreated(nil)); err != nil {
			t.Fatal(err)
		}
		if err := m.RemoveEvent("created", OnDocumentCreated(nil)); err != nil {
			t.Fatal(err)
		}
		m.Notify(NewDocumentCreatedEvent(doc), nil, nil)
		if diff := cmp.Diff([]string{"all", "twice", "deleted"}, rec.calls); diff != "" {
			t.Errorf("notified listeners (-want +got):\n%s", diff)
		}
		if err := m.AddEvent("unknown", AllEvent{}); !errors.Is(err, ErrListenerNotFound) {
			t.Errorf("expected ErrListenerNotFound, got %v", err)
		}
	})

	t.Run("remove listener", func(t *testing.T) {
		m.RemoveListener("all")
		m.RemoveListener("never-registered")
		if _, ok := m.Listener("all"); ok {
			t.Error("listener still registered")
		}
		if got := len(m.Listeners()); got != 3 {
			t.Errorf("expected 3 listeners, got %d", got)
		}
	})
}

func TestManagerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	var source, data any
	_ = m.AddListener(NewListener("broken", func(Event, any, any) { panic("boom") }, AllEvent{}))
	_ = m.AddListener(NewListener("fine", func(_ Event, s, d any) { source, data = s, d }, AllEvent{}))

	m.Notify(ApplicationReadyEvent{}, "app", 42)

	if source != "app" || data != 42 {
		t.Errorf("second listener got source=%v data=%v", source, data)
	}
	if !strings.Contains(buf.String(), "listener failed") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected the panic to be logged, got %q", buf.String())
	}
}
