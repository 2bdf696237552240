package component

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type Greeter interface {
	Greet() string
}

type greeter struct {
	word        string
	initialized bool
	disposed    bool
}

func (g *greeter) Greet() string { return g.word }

func (g *greeter) Initialize() error {
	g.initialized = true
	return nil
}

func (g *greeter) Dispose() error {
	g.disposed = true
	return nil
}

type Welcomer interface {
	Welcome() string
}

type welcomer struct {
	greeter Greeter
	all     []Greeter
	byHint  map[string]Greeter
}

func (w *welcomer) Welcome() string {
	if w.greeter == nil {
		return "..."
	}
	return w.greeter.Greet() + "!"
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) ComponentRegistered(d Descriptor) {
	n.events = append(n.events, "+"+d.Hint)
}

func (n *recordingNotifier) ComponentUnregistered(d Descriptor) {
	n.events = append(n.events, "-"+d.Hint)
}

func newGreeter(word string) func() (Greeter, error) {
	return func() (Greeter, error) { return &greeter{word: word}, nil }
}

func TestBeanName(t *testing.T) {
	role := reflect.TypeFor[Greeter]()
	if got := BeanName(role, ""); got != "github.com/celements/wikibridge/xwiki/component.Greeter|default" {
		t.Errorf("BeanName = %q", got)
	}
	if got := BeanName(role, "en"); !strings.HasSuffix(got, ".Greeter|en") {
		t.Errorf("BeanName = %q", got)
	}
}

func TestLookup(t *testing.T) {
	m := NewManager()
	if err := Register(m, "", Singleton, newGreeter("hello")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(m, "fr", PerLookup, newGreeter("bonjour")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("singleton is shared and initialized", func(t *testing.T) {
		a, err := Lookup[Greeter](m, "")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		b, _ := Lookup[Greeter](m, DefaultHint)
		if a != b {
			t.Error("expected the same singleton instance")
		}
		if !a.(*greeter).initialized {
			t.Error("singleton was not initialized")
		}
	})

	t.Run("per lookup creates new instances", func(t *testing.T) {
		a, _ := Lookup[Greeter](m, "fr")
		b, _ := Lookup[Greeter](m, "fr")
		if a == b {
			t.Error("expected distinct instances")
		}
	})

	t.Run("bare hint fallback", func(t *testing.T) {
		if err := m.RegisterNamed("pirate", &greeter{word: "ahoy"}); err != nil {
			t.Fatalf("RegisterNamed: %v", err)
		}
		g, err := Lookup[Greeter](m, "pirate")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if g.Greet() != "ahoy" {
			t.Errorf("Greet = %q", g.Greet())
		}
		if !m.HasComponent(reflect.TypeFor[Greeter](), "pirate") {
			t.Error("HasComponent should use the fallback too")
		}
	})

	t.Run("bare hint of another role", func(t *testing.T) {
		_ = m.RegisterNamed("number", 42)
		if _, err := Lookup[Greeter](m, "number"); !errors.Is(err, ErrComponentLookup) {
			t.Errorf("expected ErrComponentLookup, got %v", err)
		}
	})

	t.Run("missing component", func(t *testing.T) {
		_, err := Lookup[Greeter](m, "de")
		var lookupErr *LookupError
		if !errors.As(err, &lookupErr) || !errors.Is(err, ErrComponentLookup) {
			t.Fatalf("expected LookupError, got %v", err)
		}
		if lookupErr.Hint != "de" || lookupErr.Role != reflect.TypeFor[Greeter]() {
			t.Errorf("unexpected error fields %+v", lookupErr)
		}
		if !strings.Contains(err.Error(), "component.Greeter") {
			t.Errorf("error should name the role: %v", err)
		}
	})

	t.Run("list and map ordered by hint", func(t *testing.T) {
		list, err := LookupList[Greeter](m)
		if err != nil {
			t.Fatalf("LookupList: %v", err)
		}
		var words []string
		for _, g := range list {
			words = append(words, g.Greet())
		}
		if diff := cmp.Diff([]string{"hello", "bonjour"}, words); diff != "" {
			t.Errorf("list (-want +got):\n%s", diff)
		}
		byHint, _ := LookupMap[Greeter](m)
		if len(byHint) != 2 || byHint["fr"].Greet() != "bonjour" {
			t.Errorf("unexpected map %v", byHint)
		}
	})
}

func TestRequirements(t *testing.T) {
	welcomerReqs := []Requirement{
		Requires("", func(w *welcomer, g Greeter) { w.greeter = g }),
		RequiresList(func(w *welcomer, gs []Greeter) { w.all = gs }),
		RequiresMap(func(w *welcomer, gs map[string]Greeter) { w.byHint = gs }),
	}
	newWelcomer := func() (Welcomer, error) { return &welcomer{}, nil }

	t.Run("injected", func(t *testing.T) {
		m := NewManager()
		_ = Register(m, "", Singleton, newGreeter("hello"))
		_ = Register(m, "", Singleton, newWelcomer, welcomerReqs...)

		w, err := Lookup[Welcomer](m, "")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if w.Welcome() != "hello!" {
			t.Errorf("Welcome = %q", w.Welcome())
		}
		if impl := w.(*welcomer); len(impl.all) != 1 || len(impl.byHint) != 1 {
			t.Errorf("list/map requirements not injected: %+v", impl)
		}
	})

	t.Run("strict failure", func(t *testing.T) {
		m := NewManager()
		_ = Register(m, "", Singleton, newWelcomer, welcomerReqs...)
		if _, err := Lookup[Welcomer](m, ""); !errors.Is(err, ErrComponentLookup) {
			t.Errorf("expected the missing greeter to fail the lookup, got %v", err)
		}
	})

	t.Run("lenient failure is logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		m := NewManager(WithLenientRequirements(), WithLogger(logger))
		_ = Register(m, "", Singleton, newWelcomer, welcomerReqs...)

		w, err := Lookup[Welcomer](m, "")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if w.Welcome() != "..." {
			t.Errorf("Welcome = %q", w.Welcome())
		}
		if !strings.Contains(buf.String(), "component requirement not injected") {
			t.Errorf("expected a warning, got %q", buf.String())
		}
	})

	t.Run("cycle", func(t *testing.T) {
		m := NewManager()
		_ = Register(m, "", Singleton, newWelcomer,
			Requires("", func(w *welcomer, other Welcomer) {}))
		if _, err := Lookup[Welcomer](m, ""); !errors.Is(err, ErrCyclicRequirement) {
			t.Errorf("expected ErrCyclicRequirement, got %v", err)
		}
	})
}

func TestLifecycle(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewManager(WithNotifier(notifier))
	role := reflect.TypeFor[Greeter]()

	_ = Register(m, "en", Singleton, newGreeter("hello"))
	first, _ := Lookup[Greeter](m, "en")

	t.Run("release drops the singleton", func(t *testing.T) {
		if err := m.Release(first); err != nil {
			t.Fatalf("Release: %v", err)
		}
		if !first.(*greeter).disposed {
			t.Error("released instance was not disposed")
		}
		second, _ := Lookup[Greeter](m, "en")
		if second == first {
			t.Error("expected a new instance after release")
		}
	})

	t.Run("replacement disposes", func(t *testing.T) {
		current, _ := Lookup[Greeter](m, "en")
		_ = Register(m, "en", Singleton, newGreeter("hi"))
		if !current.(*greeter).disposed {
			t.Error("replaced singleton was not disposed")
		}
	})

	t.Run("unregister", func(t *testing.T) {
		current, _ := Lookup[Greeter](m, "en")
		if err := m.UnregisterComponent(role, "en"); err != nil {
			t.Fatalf("UnregisterComponent: %v", err)
		}
		if !current.(*greeter).disposed {
			t.Error("unregistered singleton was not disposed")
		}
		if m.HasComponent(role, "en") {
			t.Error("component still registered")
		}
		if err := m.UnregisterComponent(role, "en"); !errors.Is(err, ErrComponentLookup) {
			t.Errorf("second unregister: expected ErrComponentLookup, got %v", err)
		}
	})

	expected := []string{"+en", "-en", "+en", "-en"}
	if diff := cmp.Diff(expected, notifier.events); diff != "" {
		t.Errorf("notifications (-want +got):\n%s", diff)
	}
}

func TestRegisterValidation(t *testing.T) {
	m := NewManager()
	if err := m.RegisterComponent(Descriptor{Role: reflect.TypeFor[Greeter]()}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("missing factory: expected ErrInvalidDescriptor, got %v", err)
	}
	if err := m.RegisterInstance(Descriptor{Role: reflect.TypeFor[Greeter]()}, 42); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("wrong instance type: expected ErrInvalidDescriptor, got %v", err)
	}
	if err := RegisterValue[Greeter](m, "v", &greeter{word: "yo"}); err != nil {
		t.Errorf("RegisterValue: %v", err)
	}
	descs := m.Descriptors(reflect.TypeFor[Greeter]())
	if len(descs) != 1 || descs[0].Hint != "v" || descs[0].Instantiation != Singleton {
		t.Errorf("unexpected descriptors %v", descs)
	}
}

func TestReleaseRegisteredInstance(t *testing.T) {
	tests := []struct {
		name     string
		register func(m *Manager, g *greeter) error
	}{
		{"value", func(m *Manager, g *greeter) error { return RegisterValue[Greeter](m, "v", g) }},
		{"named", func(m *Manager, g *greeter) error { return m.RegisterNamed("v", g) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			g := &greeter{word: "yo"}
			if err := tt.register(m, g); err != nil {
				t.Fatalf("register: %v", err)
			}
			if err := m.Release(g); err != nil {
				t.Fatalf("Release: %v", err)
			}
			if g.disposed {
				t.Error("registered instance was disposed")
			}
			got, err := Lookup[Greeter](m, "v")
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if got != Greeter(g) {
				t.Error("expected the registered instance after release")
			}
		})
	}
}
