package dispatch

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrStopPropagation halts handler iteration for the current event. It is a
// signal, not a failure; the dispatcher swallows it after stopping.
var ErrStopPropagation = errors.New("dispatch: stop propagation")

type HandlerFunc func(ctx context.Context, ev *Event) error

// Guard wraps a handler body. It may call next, reply with a rejection and
// return nil, or suspend next for later resumption. Guards compose the
// authorization checks that used to be decorators in older bots.
type Guard func(ctx context.Context, ev *Event, next HandlerFunc) error

// Chain composes guards left to right: each must pass control on for the
// next (and eventually the handler body) to run.
func Chain(guards ...Guard) Guard {
	return func(ctx context.Context, ev *Event, next HandlerFunc) error {
		wrapped := next
		for i := len(guards) - 1; i >= 0; i-- {
			g := guards[i]
			inner := wrapped
			wrapped = func(ctx context.Context, ev *Event) error {
				return g(ctx, ev, inner)
			}
		}
		return wrapped(ctx, ev)
	}
}

type commandHandler struct {
	names []string
	group int
	order int
	guard Guard
	fn    HandlerFunc
}

type messageHandler struct {
	pattern *regexp.Regexp // nil matches any text message
	group   int
	order   int
	guard   Guard
	fn      HandlerFunc
}

type callbackHandler struct {
	pattern *regexp.Regexp
	group   int
	order   int
	fn      HandlerFunc
}

// Registry holds the ordered handler tables for the three match domains.
// It is owned by the application root and passed to modules at startup;
// registration is not expected after dispatch begins, but is safe.
type Registry struct {
	mu        sync.RWMutex
	nextOrder int
	commands  []*commandHandler
	messages  []*messageHandler
	callbacks []*callbackHandler
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Command registers fn for the given command names (the first is canonical,
// the rest aliases). Within the command domain the first registered handler
// matching a name wins.
func (r *Registry) Command(names []string, group int, guard Guard, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	r.commands = append(r.commands, &commandHandler{
		names: lowered,
		group: group,
		order: r.nextOrder,
		guard: guard,
		fn:    fn,
	})
	r.nextOrder++
}

// Message registers fn for text messages matching pattern. A nil pattern
// matches every text-bearing message. All matching message handlers fire,
// in group order, unless one stops propagation.
func (r *Registry) Message(pattern *regexp.Regexp, group int, guard Guard, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, &messageHandler{
		pattern: pattern,
		group:   group,
		order:   r.nextOrder,
		guard:   guard,
		fn:      fn,
	})
	r.nextOrder++
}

// Callback registers fn for callback queries whose data matches pattern.
func (r *Registry) Callback(pattern *regexp.Regexp, group int, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, &callbackHandler{
		pattern: pattern,
		group:   group,
		order:   r.nextOrder,
		fn:      fn,
	})
	r.nextOrder++
}

type selected struct {
	group  int
	order  int
	domain string
	guard  Guard
	fn     HandlerFunc
}

func sortSelected(hs []selected) {
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].group != hs[j].group {
			return hs[i].group < hs[j].group
		}
		return hs[i].order < hs[j].order
	})
}
