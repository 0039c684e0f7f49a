package registry

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/logging"
)

// Binder registers callbacks with the platform's event subsystem.
//
// *discordgo.Session implements it.
type Binder interface {
	AddHandler(handler interface{}) func()
	AddHandlerOnce(handler interface{}) func()
}

// Event describes one callback for a gateway event. Several events may share a name.
type Event struct {
	Name string
	Once bool
	// handler is a func(*discordgo.Session, T) accepted by discordgo.
	handler interface{}
}

// On creates an event firing on every occurrence for the lifetime of the session.
func On[T any](name string, fn func(*discordgo.Session, T)) Event {
	return Event{Name: name, handler: wrap(name, fn)}
}

// Once creates an event firing exactly one time.
func Once[T any](name string, fn func(*discordgo.Session, T)) Event {
	return Event{Name: name, Once: true, handler: wrap(name, fn)}
}

func wrap[T any](name string, fn func(*discordgo.Session, T)) interface{} {
	if fn == nil {
		return nil
	}
	return func(s *discordgo.Session, ev T) {
		defer func() {
			if r := recover(); r != nil {
				logging.WritePanic("event "+name, r, debug.Stack())
			}
		}()
		fn(s, ev)
	}
}

// Handler returns the wrapped callback.
func (e Event) Handler() interface{} {
	return e.handler
}

// Events is a multimap from event name to its registered callbacks.
type Events struct {
	mu      sync.Mutex
	byName  map[string][]Event
	removes []func()
}

func NewEvents() *Events {
	return &Events{byName: make(map[string][]Event)}
}

// Load validates and binds events in order. Invalid events are logged and skipped.
//
// Returns the number of bound events.
func (r *Events) Load(b Binder, events ...Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ev := range events {
		if ev.Name == "" || ev.handler == nil {
			logging.WriteWarn(fmt.Sprintf("Skipping invalid event %q", ev.Name))
			continue
		}

		var remove func()
		if ev.Once {
			remove = b.AddHandlerOnce(ev.handler)
		} else {
			remove = b.AddHandler(ev.handler)
		}

		r.byName[ev.Name] = append(r.byName[ev.Name], ev)
		r.removes = append(r.removes, remove)
		n++
	}
	return n
}

// Clear unbinds every registered callback.
func (r *Events) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, remove := range r.removes {
		if remove != nil {
			remove()
		}
	}
	r.removes = nil
	r.byName = make(map[string][]Event)
}

// Handlers returns the events registered under name in registration order.
func (r *Events) Handlers(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.byName[name]...)
}

func (r *Events) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.removes)
}
