package watcher

import (
	"context"

	"github.com/conneroisu/mdserve/internal/logging"
	"github.com/conneroisu/mdserve/internal/registry"
)

// Pump is the single consumer of the normalized event stream. It applies
// classified operations to the registry and publishes reload messages. One
// event yields at most one store mutation followed by at most one
// broadcast, in that order: the mutation is complete before subscribers
// hear about it, so a viewer that re-fetches on reload always sees the
// post-mutation artifact.
type Pump struct {
	events      <-chan Event
	registry    *registry.DocumentRegistry
	broadcaster *registry.Broadcaster
	log         logging.Logger
}

// NewPump creates a pump reading from events. Run must be the only
// consumer of the channel.
func NewPump(events <-chan Event, reg *registry.DocumentRegistry, broadcaster *registry.Broadcaster, log logging.Logger) *Pump {
	return &Pump{
		events:      events,
		registry:    reg,
		broadcaster: broadcaster,
		log:         log.WithComponent("pump"),
	}
}

// Run consumes events in delivery order until the stream closes or ctx is
// cancelled. A failure while processing one event never stops the loop.
func (p *Pump) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.events:
			if !ok {
				return
			}
			p.Handle(ctx, ev)
		}
	}
}

// Handle processes a single normalized event.
func (p *Pump) Handle(ctx context.Context, ev Event) {
	action := Classify(ev)

	switch action.Op {
	case OpContentChanged, OpCreated:
		p.applyDocumentChange(ctx, action.Path)
	case OpAssetChanged:
		p.log.Debug(ctx, "Asset changed, notifying viewers", "path", action.Path)
		p.broadcaster.Broadcast(registry.Message{Type: registry.MessageReload})
	default:
		p.log.Debug(ctx, "Ignoring event", "kind", ev.Kind.String(), "path", ev.Path)
	}
}

// applyDocumentChange refreshes a tracked document, or admits an untracked
// one in dynamic mode, and publishes a reload on success. Failures keep
// the previous state and publish nothing.
func (p *Pump) applyDocumentChange(ctx context.Context, path string) {
	key := p.registry.KeyFor(path)

	if p.registry.Tracked(key) {
		if err := p.registry.Refresh(key); err != nil {
			p.log.Warn(ctx, err, "Failed to refresh document", "key", key)
			return
		}
		p.log.Debug(ctx, "Document refreshed", "key", key)
		p.broadcaster.Broadcast(registry.Message{Type: registry.MessageReload})
		return
	}

	if !p.registry.Dynamic() {
		return
	}

	if err := p.registry.Admit(path); err != nil {
		p.log.Warn(ctx, err, "Failed to admit document", "path", path)
		return
	}
	p.log.Debug(ctx, "Document admitted", "key", key)
	p.broadcaster.Broadcast(registry.Message{Type: registry.MessageReload})
}
