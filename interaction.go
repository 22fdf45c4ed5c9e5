package timeline

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	// viewportThreshold is the movement in pixels below which drag moves are
	// treated as noise.
	viewportThreshold = 2.0
	// clickThreshold is the net press-to-release movement below which a
	// drag is reclassified as a click.
	clickThreshold = 5.0
	// wheelScrollStep converts one wheel notch into pixels.
	wheelScrollStep = 40.0
	// wheelZoomBase is the zoom factor per wheel notch.
	wheelZoomBase = 1.1
)

// HitTester resolves surface coordinates against the drawn scene.
type HitTester interface {
	// HitTest returns the tag of the topmost tagged drawable at (x, y).
	HitTest(x, y float64) (HitTag, bool)
	// TimeAt converts a surface x coordinate to a timeline position in beats.
	TimeAt(x float64) float64
	// ContentPoint converts surface coordinates to scrolled content coordinates.
	ContentPoint(x, y float64) (float64, float64)
	PixelsPerBeat() float64
}

// InteractionConfig configures an InteractionManager.
type InteractionConfig struct {
	// CursorBroadcastInterval is the minimum time between two
	// EventCollaboratorCursorMoved events. 0 emits on every move.
	CursorBroadcastInterval time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

type dragState struct {
	active           bool
	button           MouseButton
	mods             KeyModifiers
	startX, startY   float64
	anchorX, anchorY float64
	target           HitTag
}

// InteractionManager classifies raw surface input into InteractionEvents
// using the hit tags the scene graph installs. It binds its listeners once
// at construction and removes all of them on Destroy.
type InteractionManager struct {
	surface Surface
	hits    HitTester
	cfg     InteractionConfig

	handles  []ListenerHandle
	callback func(InteractionEvent)

	epoch      time.Time
	lastCursor time.Time
	cursorSent bool

	drag      dragState
	destroyed bool
}

// NewInteractionManager binds to surface's pointer, wheel and key input.
func NewInteractionManager(surface Surface, hits HitTester, cfg InteractionConfig) *InteractionManager {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	m := &InteractionManager{
		surface: surface,
		hits:    hits,
		cfg:     cfg,
		epoch:   cfg.Clock(),
	}
	m.handles = append(m.handles,
		surface.AddListener(InputPointerDown, m.onPointerDown),
		surface.AddListener(InputPointerMove, m.onPointerMove),
		surface.AddListener(InputPointerUp, m.onPointerUp),
		surface.AddListener(InputWheel, m.onWheel),
		surface.AddListener(InputKeyDown, m.onKeyDown),
	)
	return m
}

// SetCallback replaces the event callback. Passing nil drops events.
func (m *InteractionManager) SetCallback(fn func(InteractionEvent)) {
	m.callback = fn
}

// Dragging reports whether a left-button drag is being tracked.
func (m *InteractionManager) Dragging() bool {
	return m.drag.active
}

// Destroy removes every listener installed on the surface and drops the
// callback. Safe to call more than once.
func (m *InteractionManager) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	for _, h := range m.handles {
		h.Remove()
	}
	m.handles = nil
	m.callback = nil
	m.drag = dragState{}
}

func (m *InteractionManager) emit(p EventPayload) {
	if m.callback == nil {
		return
	}
	m.callback(InteractionEvent{
		Type:      p.EventType(),
		Timestamp: m.cfg.Clock().Sub(m.epoch),
		Payload:   p,
	})
}

func (m *InteractionManager) hitAt(x, y float64) HitTag {
	tag, ok := m.hits.HitTest(x, y)
	if !ok {
		return HitTag{}
	}
	return tag
}

func (m *InteractionManager) onPointerDown(ev *InputEvent) {
	m.emit(CanvasInteracted{X: ev.X, Y: ev.Y, Button: ev.Button})
	switch ev.Button {
	case MouseButtonRight:
		m.emit(CanvasRightClicked{X: ev.X, Y: ev.Y, Target: m.hitAt(ev.X, ev.Y)})
		return
	case MouseButtonMiddle:
		return
	}
	m.drag = dragState{
		active:  true,
		button:  ev.Button,
		mods:    ev.Modifiers,
		startX:  ev.X,
		startY:  ev.Y,
		anchorX: ev.X,
		anchorY: ev.Y,
		target:  m.hitAt(ev.X, ev.Y),
	}
}

func (m *InteractionManager) onPointerMove(ev *InputEvent) {
	m.broadcastCursor(ev.X, ev.Y)
	if !m.drag.active {
		return
	}
	dx := ev.X - m.drag.anchorX
	dy := ev.Y - m.drag.anchorY
	if math.Hypot(dx, dy) < viewportThreshold {
		return
	}
	m.drag.anchorX, m.drag.anchorY = ev.X, ev.Y
	m.emit(ViewportChanged{DeltaX: dx, DeltaY: dy, Target: m.drag.target})
}

func (m *InteractionManager) broadcastCursor(x, y float64) {
	if m.cfg.CursorBroadcastInterval > 0 {
		now := m.cfg.Clock()
		if m.cursorSent && now.Sub(m.lastCursor) < m.cfg.CursorBroadcastInterval {
			return
		}
		m.lastCursor = now
		m.cursorSent = true
	}
	cx, cy := m.hits.ContentPoint(x, y)
	m.emit(CollaboratorCursorMoved{X: cx, Y: cy})
}

func (m *InteractionManager) onPointerUp(ev *InputEvent) {
	if !m.drag.active {
		return
	}
	d := m.drag
	m.drag = dragState{}
	dx, dy := ev.X-d.startX, ev.Y-d.startY
	if math.Hypot(dx, dy) < clickThreshold {
		m.click(ev.X, ev.Y, d.mods|ev.Modifiers)
		return
	}
	m.dragEnd(d, ev.X, dx, dy)
}

// click dispatches on the tag of the topmost drawable under the pointer.
func (m *InteractionManager) click(x, y float64, mods KeyModifiers) {
	tag := m.hitAt(x, y)
	switch tag.Kind {
	case HitClip, HitClipResize:
		additive := mods.Has(ModShift)
		m.emit(ClipSelected{ClipID: tag.ID, Additive: additive})
		if additive {
			m.emit(SelectionChanged{ClipIDs: []string{tag.ID}, Additive: true})
		}
	case HitTrack:
		m.emit(TrackSelected{TrackID: tag.ID})
	case HitPlayhead:
		m.emit(PlayheadDragged{Time: m.hits.TimeAt(x)})
	case HitRuler:
		m.emit(TimelineScrubbed{Time: m.hits.TimeAt(x)})
	default:
		m.emit(CanvasClicked{X: x, Y: y, Time: m.hits.TimeAt(x)})
	}
}

// dragEnd emits the terminal event of a drag by the tag it started on.
func (m *InteractionManager) dragEnd(d dragState, x, dx, dy float64) {
	beats := 0.0
	if ppb := m.hits.PixelsPerBeat(); ppb > 0 {
		beats = dx / ppb
	}
	switch d.target.Kind {
	case HitClip:
		m.emit(ClipMoved{ClipID: d.target.ID, DeltaX: dx, DeltaY: dy, DeltaBeats: beats})
	case HitClipResize:
		m.emit(ClipResized{ClipID: d.target.ID, DeltaX: dx, DeltaBeats: beats})
	case HitRuler:
		m.emit(TimelineScrubbed{Time: m.hits.TimeAt(x)})
	case HitPlayhead:
		m.emit(PlayheadDragged{Time: m.hits.TimeAt(x)})
	}
}

func (m *InteractionManager) onWheel(ev *InputEvent) {
	if ev.Modifiers.Has(ModCtrl) || ev.Modifiers.Has(ModMeta) {
		if ev.WheelY == 0 {
			return
		}
		m.emit(ZoomChanged{Factor: math.Pow(wheelZoomBase, ev.WheelY), AnchorX: ev.X})
		return
	}
	dx, dy := -ev.WheelX*wheelScrollStep, -ev.WheelY*wheelScrollStep
	if ev.Modifiers.Has(ModShift) {
		dx, dy = dy, dx
	}
	m.emit(ScrollChanged{DeltaX: dx, DeltaY: dy})
}

func (m *InteractionManager) onKeyDown(ev *InputEvent) {
	if ev.Key == ebiten.KeySpace && ev.Modifiers == 0 {
		ev.PreventDefault()
		m.emit(PlayPauseToggled{})
		return
	}
	if !ev.Modifiers.Has(ModCtrl) && !ev.Modifiers.Has(ModMeta) {
		return
	}
	var action ShortcutAction
	switch ev.Key {
	case ebiten.KeyC:
		action = ShortcutCopy
	case ebiten.KeyV:
		action = ShortcutPaste
	case ebiten.KeyZ:
		action = ShortcutUndo
		if ev.Modifiers.Has(ModShift) {
			action = ShortcutRedo
		}
	case ebiten.KeyY:
		action = ShortcutRedo
	default:
		return
	}
	ev.PreventDefault()
	m.emit(Shortcut{Action: action})
}
