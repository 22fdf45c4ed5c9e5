// Package ecs forwards timeline interaction events into a [Donburi] world.
//
// [NewBridge] returns a callback suitable for
// [timeline.Renderer.SetInteractionCallback]. Each event is published to
// [InteractionEventType]; systems subscribe to it and drain the queue with
// ProcessEvents once per tick:
//
//	bridge := ecs.NewBridge(world)
//	renderer.SetInteractionCallback(bridge.Emit)
//	ecs.InteractionEventType.Subscribe(world, onInteraction)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
