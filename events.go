package timeline

import "time"

// EventType is the closed set of interaction events delivered to the
// interaction callback.
type EventType uint8

const (
	EventClipSelected EventType = iota + 1
	EventTrackSelected
	EventClipMoved
	EventClipResized
	EventTimelineScrubbed
	EventPlayheadDragged
	EventCanvasClicked
	EventCanvasRightClicked
	EventCanvasInteracted
	EventSelectionChanged
	EventViewportChanged
	EventZoomChanged
	EventScrollChanged
	EventCollaboratorCursorMoved
	EventShortcut
	EventPlayPauseToggled
)

var eventTypeNames = [...]string{
	EventClipSelected:            "clip-selected",
	EventTrackSelected:           "track-selected",
	EventClipMoved:               "clip-moved",
	EventClipResized:             "clip-resized",
	EventTimelineScrubbed:        "timeline-scrubbed",
	EventPlayheadDragged:         "playhead-dragged",
	EventCanvasClicked:           "canvas-clicked",
	EventCanvasRightClicked:      "canvas-right-clicked",
	EventCanvasInteracted:        "canvas-interacted",
	EventSelectionChanged:        "selection-changed",
	EventViewportChanged:         "viewport-changed",
	EventZoomChanged:             "zoom-changed",
	EventScrollChanged:           "scroll-changed",
	EventCollaboratorCursorMoved: "collaborator-cursor-moved",
	EventShortcut:                "shortcut",
	EventPlayPauseToggled:        "play-pause-toggled",
}

// String returns the kebab-case name of the event type.
func (t EventType) String() string {
	if int(t) < len(eventTypeNames) && eventTypeNames[t] != "" {
		return eventTypeNames[t]
	}
	return "unknown"
}

// InteractionEvent is one classified input event. Payload's concrete type is
// fixed by Type; see the payload types below.
type InteractionEvent struct {
	Type EventType
	// Timestamp is monotonic time since the interaction manager was created.
	Timestamp time.Duration
	Payload   EventPayload
}

// EventPayload is implemented by every payload type in this package.
type EventPayload interface {
	EventType() EventType
}

// ClipSelected is the payload of EventClipSelected. Additive is set when
// shift was held.
type ClipSelected struct {
	ClipID   string
	Additive bool
}

// TrackSelected is the payload of EventTrackSelected.
type TrackSelected struct {
	TrackID string
}

// ClipMoved is the payload of EventClipMoved. Deltas are measured from the
// press position; DeltaBeats is DeltaX at the current zoom.
type ClipMoved struct {
	ClipID     string
	DeltaX     float64
	DeltaY     float64
	DeltaBeats float64
}

// ClipResized is the payload of EventClipResized.
type ClipResized struct {
	ClipID     string
	DeltaX     float64
	DeltaBeats float64
}

// TimelineScrubbed is the payload of EventTimelineScrubbed. Time is in beats.
type TimelineScrubbed struct {
	Time float64
}

// PlayheadDragged is the payload of EventPlayheadDragged. Time is in beats.
type PlayheadDragged struct {
	Time float64
}

// CanvasClicked is the payload of EventCanvasClicked.
type CanvasClicked struct {
	X, Y float64
	Time float64
}

// CanvasRightClicked is the payload of EventCanvasRightClicked. Target is
// the tagged drawable under the pointer, if any.
type CanvasRightClicked struct {
	X, Y   float64
	Target HitTag
}

// CanvasInteracted is the payload of EventCanvasInteracted, emitted on every
// pointer down.
type CanvasInteracted struct {
	X, Y   float64
	Button MouseButton
}

// SelectionChanged is the payload of EventSelectionChanged.
type SelectionChanged struct {
	ClipIDs  []string
	Additive bool
}

// ViewportChanged is the payload of EventViewportChanged. Deltas are
// incremental: each one is measured from the previous emission, or from the
// press position for the first, and the anchor moves after every emission.
// A pan is the sum of its deltas, not the last one. Target is the drawable
// the drag started on.
type ViewportChanged struct {
	DeltaX, DeltaY float64
	Target         HitTag
}

// ZoomChanged is the payload of EventZoomChanged. Factor multiplies the
// current pixels-per-beat; AnchorX is the surface x that should stay fixed.
type ZoomChanged struct {
	Factor  float64
	AnchorX float64
}

// ScrollChanged is the payload of EventScrollChanged, in pixels.
type ScrollChanged struct {
	DeltaX, DeltaY float64
}

// CollaboratorCursorMoved is the payload of EventCollaboratorCursorMoved.
// X and Y are in content coordinates (scroll applied).
type CollaboratorCursorMoved struct {
	X, Y float64
}

// ShortcutAction names a recognised editing shortcut.
type ShortcutAction uint8

const (
	ShortcutCopy ShortcutAction = iota + 1
	ShortcutPaste
	ShortcutUndo
	ShortcutRedo
)

// String returns the lowercase action name.
func (a ShortcutAction) String() string {
	switch a {
	case ShortcutCopy:
		return "copy"
	case ShortcutPaste:
		return "paste"
	case ShortcutUndo:
		return "undo"
	case ShortcutRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// Shortcut is the payload of EventShortcut.
type Shortcut struct {
	Action ShortcutAction
}

// PlayPauseToggled is the payload of EventPlayPauseToggled.
type PlayPauseToggled struct{}

func (ClipSelected) EventType() EventType            { return EventClipSelected }
func (TrackSelected) EventType() EventType           { return EventTrackSelected }
func (ClipMoved) EventType() EventType               { return EventClipMoved }
func (ClipResized) EventType() EventType             { return EventClipResized }
func (TimelineScrubbed) EventType() EventType        { return EventTimelineScrubbed }
func (PlayheadDragged) EventType() EventType         { return EventPlayheadDragged }
func (CanvasClicked) EventType() EventType           { return EventCanvasClicked }
func (CanvasRightClicked) EventType() EventType      { return EventCanvasRightClicked }
func (CanvasInteracted) EventType() EventType        { return EventCanvasInteracted }
func (SelectionChanged) EventType() EventType        { return EventSelectionChanged }
func (ViewportChanged) EventType() EventType         { return EventViewportChanged }
func (ZoomChanged) EventType() EventType             { return EventZoomChanged }
func (ScrollChanged) EventType() EventType           { return EventScrollChanged }
func (CollaboratorCursorMoved) EventType() EventType { return EventCollaboratorCursorMoved }
func (Shortcut) EventType() EventType                { return EventShortcut }
func (PlayPauseToggled) EventType() EventType        { return EventPlayPauseToggled }
