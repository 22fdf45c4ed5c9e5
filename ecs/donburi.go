package ecs

import (
	"github.com/phanxgames/timeline"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for timeline interaction
// events.
var InteractionEventType = events.NewEventType[timeline.InteractionEvent]()

// Bridge publishes interaction events into a Donburi world. Because the
// renderer holds a single callback, Bridge can chain to one more consumer.
type Bridge struct {
	world donburi.World
	next  func(timeline.InteractionEvent)
}

// NewBridge creates a bridge publishing into world.
func NewBridge(world donburi.World) *Bridge {
	return &Bridge{world: world}
}

// Chain sets a callback invoked after each publish. Pass nil to clear it.
func (b *Bridge) Chain(fn func(timeline.InteractionEvent)) *Bridge {
	b.next = fn
	return b
}

// Emit publishes ev. Events are queued until ProcessEvents runs.
func (b *Bridge) Emit(ev timeline.InteractionEvent) {
	InteractionEventType.Publish(b.world, ev)
	if b.next != nil {
		b.next(ev)
	}
}

// Attach installs the bridge as r's interaction callback.
func (b *Bridge) Attach(r *timeline.Renderer) {
	r.SetInteractionCallback(b.Emit)
}

// Subscribe registers fn for events of type t only.
func Subscribe(world donburi.World, t timeline.EventType, fn func(donburi.World, timeline.InteractionEvent)) {
	InteractionEventType.Subscribe(world, func(w donburi.World, ev timeline.InteractionEvent) {
		if ev.Type == t {
			fn(w, ev)
		}
	})
}
