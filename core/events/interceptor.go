// Package events provides the module interceptor: a publish/subscribe
// registry keyed by module name that replays a published descriptor to
// subscribers that arrive late.
package events

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/schema"
)

// Handler receives a published module descriptor.
type Handler func(d *schema.Descriptor)

// DuplicatePublishError is returned when a module publishes twice.
type DuplicatePublishError struct {
	Module string
}

func (e *DuplicatePublishError) Error() string {
	return fmt.Sprintf("module %q already published", e.Module)
}

// UnresolvedSubscriptionError describes subscriptions to a module that never
// published. It is diagnostic only.
type UnresolvedSubscriptionError struct {
	Module      string
	Subscribers []string
}

func (e *UnresolvedSubscriptionError) Error() string {
	return fmt.Sprintf("module %q never published (%d subscribers: %s)",
		e.Module, len(e.Subscribers), strings.Join(e.Subscribers, ", "))
}

// Recorder observes interceptor activity.
type Recorder interface {
	EventPublished(module string)
	EventReplayed(module string)
}

type subscription struct {
	id      string
	owner   string
	handler Handler
	fired   bool
}

type topic struct {
	descriptor  *schema.Descriptor
	subscribers []*subscription
}

// Interceptor is the module-loader event bus.
//
// A handler subscribed before publication fires once, at publication. A
// handler subscribed after publication fires once, immediately. No handler
// fires twice.
type Interceptor struct {
	mu       sync.Mutex
	topics   map[string]*topic
	logger   zerolog.Logger
	recorder Recorder
}

// New creates an interceptor.
func New(logger zerolog.Logger) *Interceptor {
	return &Interceptor{
		topics: make(map[string]*topic),
		logger: logger,
	}
}

// SetRecorder attaches a metrics recorder.
func (i *Interceptor) SetRecorder(r Recorder) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.recorder = r
}

func (i *Interceptor) topic(name string) *topic {
	t, ok := i.topics[name]
	if !ok {
		t = &topic{}
		i.topics[name] = t
	}
	return t
}

// Subscribe registers h for the named module and returns a subscription id.
// When the module has already published, h is invoked before Subscribe
// returns.
func (i *Interceptor) Subscribe(module string, h Handler) string {
	return i.SubscribeAs("", module, h)
}

// SubscribeAs is Subscribe with the subscribing module recorded for
// diagnostics.
func (i *Interceptor) SubscribeAs(owner, module string, h Handler) string {
	sub := &subscription{id: uuid.NewString(), owner: owner, handler: h}

	i.mu.Lock()
	t := i.topic(module)
	t.subscribers = append(t.subscribers, sub)
	d := t.descriptor
	if d != nil {
		sub.fired = true
	}
	rec := i.recorder
	i.mu.Unlock()

	if d != nil {
		i.logger.Debug().
			Str("module", module).
			Str("subscriber", owner).
			Msg("replaying published module")
		if rec != nil {
			rec.EventReplayed(module)
		}
		h(d)
	}
	return sub.id
}

// Publish records d and invokes every pending subscriber of d.Name in
// subscription order. Handlers run outside the lock, so they may subscribe.
func (i *Interceptor) Publish(d *schema.Descriptor) error {
	i.mu.Lock()
	t := i.topic(d.Name)
	if t.descriptor != nil {
		i.mu.Unlock()
		return &DuplicatePublishError{Module: d.Name}
	}
	t.descriptor = d

	var pending []*subscription
	for _, s := range t.subscribers {
		if !s.fired {
			s.fired = true
			pending = append(pending, s)
		}
	}
	rec := i.recorder
	i.mu.Unlock()

	i.logger.Debug().
		Str("module", d.Name).
		Int("subscribers", len(pending)).
		Msg("module published")
	if rec != nil {
		rec.EventPublished(d.Name)
	}

	for _, s := range pending {
		s.handler(d)
	}
	return nil
}

// Descriptor returns the published descriptor for module.
func (i *Interceptor) Descriptor(module string) (*schema.Descriptor, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	t, ok := i.topics[module]
	if !ok || t.descriptor == nil {
		return nil, false
	}
	return t.descriptor, true
}

// Published returns the names of published modules, sorted.
func (i *Interceptor) Published() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	var names []string
	for name, t := range i.topics {
		if t.descriptor != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Unresolved returns one error per module that has subscribers but never
// published, sorted by module name.
func (i *Interceptor) Unresolved() []*UnresolvedSubscriptionError {
	i.mu.Lock()
	defer i.mu.Unlock()

	var out []*UnresolvedSubscriptionError
	for name, t := range i.topics {
		if t.descriptor != nil || len(t.subscribers) == 0 {
			continue
		}
		e := &UnresolvedSubscriptionError{Module: name}
		for _, s := range t.subscribers {
			owner := s.owner
			if owner == "" {
				owner = s.id
			}
			e.Subscribers = append(e.Subscribers, owner)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Module < out[b].Module })
	return out
}
