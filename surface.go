package timeline

import (
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// InputKind identifies a raw input event delivered by a Surface.
type InputKind uint8

const (
	InputPointerDown InputKind = iota
	InputPointerMove
	InputPointerUp
	InputWheel
	InputKeyDown
	inputKindCount
)

// String returns the lowercase name of the input kind.
func (k InputKind) String() string {
	switch k {
	case InputPointerDown:
		return "pointer-down"
	case InputPointerMove:
		return "pointer-move"
	case InputPointerUp:
		return "pointer-up"
	case InputWheel:
		return "wheel"
	case InputKeyDown:
		return "key-down"
	default:
		return "unknown"
	}
}

// InputEvent is a raw pointer, wheel or key event in surface coordinates.
type InputEvent struct {
	Kind      InputKind
	X, Y      float64
	Button    MouseButton
	Modifiers KeyModifiers
	WheelX    float64
	WheelY    float64
	Key       ebiten.Key

	defaultPrevented bool
}

// PreventDefault asks the surface to suppress the host's default action for
// this event.
func (e *InputEvent) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *InputEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Surface is the drawing surface the renderer draws onto and receives input
// from. Listeners run synchronously on the loop goroutine.
type Surface interface {
	Size() (width, height int)
	Resize(width, height int)
	AddListener(kind InputKind, fn func(*InputEvent)) ListenerHandle
	// Poll reads pending input and dispatches it to listeners.
	Poll()
	Destroy()
}

type listener struct {
	id      uint32
	fn      func(*InputEvent)
	removed bool
}

// Listeners is a per-kind listener registry that Surface implementations
// embed to manage AddListener and dispatch.
type Listeners struct {
	byKind [inputKindCount][]*listener
	nextID uint32
}

// ListenerHandle removes a listener installed with AddListener.
type ListenerHandle struct {
	id   uint32
	kind InputKind
	reg  *Listeners
}

// Remove unregisters the listener. Removing twice is a no-op. It is safe to
// call from inside a listener; a removed listener that has not run yet for
// the event being dispatched is skipped.
func (h ListenerHandle) Remove() {
	if h.reg == nil {
		return
	}
	s := h.reg.byKind[h.kind]
	for i, ln := range s {
		if ln.id == h.id {
			ln.removed = true
			// Dispatch may be ranging over s, so never shift it in place.
			h.reg.byKind[h.kind] = slices.Delete(slices.Clone(s), i, i+1)
			return
		}
	}
}

// Add registers fn for kind.
func (l *Listeners) Add(kind InputKind, fn func(*InputEvent)) ListenerHandle {
	if kind >= inputKindCount {
		return ListenerHandle{}
	}
	l.nextID++
	l.byKind[kind] = append(l.byKind[kind], &listener{id: l.nextID, fn: fn})
	return ListenerHandle{id: l.nextID, kind: kind, reg: l}
}

// Dispatch calls every listener registered for ev.Kind in registration order.
// Listeners added during dispatch first run on the next event.
func (l *Listeners) Dispatch(ev *InputEvent) {
	if ev.Kind >= inputKindCount {
		return
	}
	for _, h := range l.byKind[ev.Kind] {
		if !h.removed {
			h.fn(ev)
		}
	}
}

// Count returns the number of installed listeners across all kinds.
func (l *Listeners) Count() int {
	n := 0
	for _, s := range l.byKind {
		n += len(s)
	}
	return n
}

// Reset drops every listener.
func (l *Listeners) Reset() {
	for i, s := range l.byKind {
		for _, ln := range s {
			ln.removed = true
		}
		l.byKind[i] = nil
	}
}

// --- Ebitengine surface ---

// EbitenSurface polls Ebitengine's input state once per tick and turns level
// state (button held, cursor position) into discrete events. Synthetic input
// queued with the Inject methods is consumed before real pointer input.
type EbitenSurface struct {
	Listeners

	width, height int
	config        SurfaceConfig
	background    Color

	down      bool
	button    MouseButton
	lastX     float64
	lastY     float64
	hasCursor bool

	injectQueue []syntheticEvent
	keyBuf      []ebiten.Key

	suppressed int
	destroyed  bool
}

// NewEbitenSurface creates a surface sized and coloured from cfg.
func NewEbitenSurface(cfg SurfaceConfig) *EbitenSurface {
	return &EbitenSurface{
		width:      cfg.Width,
		height:     cfg.Height,
		config:     cfg,
		background: ParseColor(cfg.BackgroundColor),
	}
}

// Size returns the logical surface size.
func (s *EbitenSurface) Size() (int, int) {
	return s.width, s.height
}

// Resize changes the logical surface size. Non-positive sizes are passed
// through to Ebitengine's own validation on the next Layout.
func (s *EbitenSurface) Resize(width, height int) {
	s.width, s.height = width, height
}

// AddListener registers fn for kind.
func (s *EbitenSurface) AddListener(kind InputKind, fn func(*InputEvent)) ListenerHandle {
	return s.Add(kind, fn)
}

// Background returns the configured clear colour.
func (s *EbitenSurface) Background() Color {
	return s.background
}

// Antialias reports whether vector drawing is antialiased.
func (s *EbitenSurface) Antialias() bool {
	return s.config.Antialias
}

// SuppressedDefaults returns how many events had PreventDefault called.
func (s *EbitenSurface) SuppressedDefaults() int {
	return s.suppressed
}

// Destroy drops all listeners and pending synthetic input.
func (s *EbitenSurface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.Reset()
	s.injectQueue = nil
}

// Poll reads one tick of input. It must be called from ebiten.Game.Update.
func (s *EbitenSurface) Poll() {
	if s.destroyed {
		return
	}
	mods := readModifiers()
	if !s.processInjected(mods) {
		s.pollPointer(mods)
	}
	s.pollWheel(mods)
	s.pollKeys(mods)
}

func (s *EbitenSurface) pollPointer(mods KeyModifiers) {
	mx, my := ebiten.CursorPosition()
	var pressed bool
	var button MouseButton
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		pressed, button = true, MouseButtonLeft
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		pressed, button = true, MouseButtonRight
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle):
		pressed, button = true, MouseButtonMiddle
	}
	s.pointer(float64(mx), float64(my), pressed, button, mods)
}

// pointer runs the press/move/release state machine for the single mouse
// pointer. The button captured at press time is kept until release.
func (s *EbitenSurface) pointer(x, y float64, pressed bool, button MouseButton, mods KeyModifiers) {
	moved := !s.hasCursor || x != s.lastX || y != s.lastY
	s.hasCursor = true
	switch {
	case pressed && !s.down:
		s.down = true
		s.button = button
		if moved {
			s.dispatch(&InputEvent{Kind: InputPointerMove, X: x, Y: y, Button: button, Modifiers: mods})
		}
		s.dispatch(&InputEvent{Kind: InputPointerDown, X: x, Y: y, Button: button, Modifiers: mods})
	case !pressed && s.down:
		if moved {
			s.dispatch(&InputEvent{Kind: InputPointerMove, X: x, Y: y, Button: s.button, Modifiers: mods})
		}
		s.down = false
		s.dispatch(&InputEvent{Kind: InputPointerUp, X: x, Y: y, Button: s.button, Modifiers: mods})
	case moved:
		b := button
		if s.down {
			b = s.button
		}
		s.dispatch(&InputEvent{Kind: InputPointerMove, X: x, Y: y, Button: b, Modifiers: mods})
	}
	s.lastX, s.lastY = x, y
}

func (s *EbitenSurface) pollWheel(mods KeyModifiers) {
	wx, wy := ebiten.Wheel()
	if wx == 0 && wy == 0 {
		return
	}
	s.dispatch(&InputEvent{Kind: InputWheel, X: s.lastX, Y: s.lastY, WheelX: wx, WheelY: wy, Modifiers: mods})
}

func (s *EbitenSurface) pollKeys(mods KeyModifiers) {
	s.keyBuf = appendJustPressedKeys(s.keyBuf[:0])
	for _, k := range s.keyBuf {
		s.dispatch(&InputEvent{Kind: InputKeyDown, Key: k, X: s.lastX, Y: s.lastY, Modifiers: mods})
	}
}

func (s *EbitenSurface) dispatch(ev *InputEvent) {
	s.Dispatch(ev)
	if ev.DefaultPrevented() {
		s.suppressed++
	}
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}
