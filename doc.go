// Package timeline renders a live, editable multi-track timeline (tracks,
// clips, playhead, selection, collaborator cursors) on [Ebitengine], driven
// by immutable [SceneState] snapshots.
//
// # Overview
//
// A caller owns the application state and hands the renderer one complete
// snapshot per visible change:
//
//	r, err := timeline.NewRenderer(nil, timeline.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	r.SetInteractionCallback(func(ev timeline.InteractionEvent) {
//		// update state, then call r.RenderScene with the new snapshot
//	})
//	if err := r.RenderScene(&state); err != nil {
//		return err
//	}
//	return r.Run("Timeline")
//
// [Renderer.RenderScene] diffs the snapshot against the last one it rendered
// ([Differ.CalculateDiff]) and applies only the changes to a retained
// [SceneGraph]. Visuals are created when an id first appears, patched in
// place while it persists and disposed when it disappears. Ids are identity
// keys: reusing one for a different entity is undefined.
//
// # Layers
//
// The scene graph keeps eight fixed layers, back to front: background, grid,
// tracks, clips, selection, playhead, collaborators and overlay. Scrolling
// translates layers; clip positions are computed in unscrolled track space
// as startTime * pixelsPerBeat.
//
// # Interaction
//
// [InteractionManager] turns raw surface input into the closed set of
// [EventType] values using the hit tags the scene graph attaches to clip,
// track, playhead and ruler drawables. Exactly one callback receives them.
//
// # Failure handling
//
// A diff or apply failure is reported to the configured [ErrorReporter],
// the scene graph is cleared and the snapshot is rendered again from
// scratch. Only a failure of that recovery pass is returned.
//
// # Scripted runs
//
// [LoadScript] parses a YAML list of clicks, drags, key presses, waits and
// screenshots. Attached with [Renderer.SetScript], it replays one step per
// tick through an [Injector] surface such as [EbitenSurface], which makes
// visual checks repeatable:
//
//	steps:
//	  - {action: click, x: 120, y: 60}
//	  - {action: key, key: space}
//	  - {action: screenshot, label: playing}
//
// [Ebitengine]: https://ebitengine.org
package timeline
