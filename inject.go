package timeline

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// syntheticEvent is a single queued input event. Pointer events carry
// surface coordinates; key events carry Key and Modifiers.
type syntheticEvent struct {
	key       bool
	x, y      float64
	pressed   bool
	button    MouseButton
	keyCode   ebiten.Key
	modifiers KeyModifiers
}

// InjectPress queues a left-button press at (x, y). Each queued event is
// consumed by one Poll call.
func (s *EbitenSurface) InjectPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{x: x, y: y, pressed: true, button: MouseButtonLeft})
}

// InjectRightPress queues a right-button press at (x, y).
func (s *EbitenSurface) InjectRightPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{x: x, y: y, pressed: true, button: MouseButtonRight})
}

// InjectMove queues a pointer move with the button held down. Use it between
// InjectPress and InjectRelease to simulate a drag.
func (s *EbitenSurface) InjectMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{x: x, y: y, pressed: true, button: MouseButtonLeft})
}

// InjectRelease queues a pointer release at (x, y).
func (s *EbitenSurface) InjectRelease(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{x: x, y: y, button: MouseButtonLeft})
}

// InjectClick queues a press followed by a release at the same position.
// Consumes two polls.
func (s *EbitenSurface) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag queues a press at (fromX, fromY), frames-2 linearly
// interpolated moves, and a release at (toX, toY). Minimum frames is 2.
func (s *EbitenSurface) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

// InjectKey queues a key press with the given modifiers.
func (s *EbitenSurface) InjectKey(key ebiten.Key, mods KeyModifiers) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{key: true, keyCode: key, modifiers: mods})
}

// PendingInjected returns the number of queued synthetic events.
func (s *EbitenSurface) PendingInjected() int {
	return len(s.injectQueue)
}

// processInjected pops one queued event and feeds it through the pointer
// state machine or key dispatch. Returns true if an event was consumed, in
// which case real pointer input is skipped for this poll.
func (s *EbitenSurface) processInjected(mods KeyModifiers) bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	if evt.key {
		s.dispatch(&InputEvent{Kind: InputKeyDown, Key: evt.keyCode, X: s.lastX, Y: s.lastY, Modifiers: evt.modifiers | mods})
		return true
	}
	s.pointer(evt.x, evt.y, evt.pressed, evt.button, mods)
	return true
}

// appendJustPressedKeys is swapped in tests that run without a game loop.
var appendJustPressedKeys = inpututil.AppendJustPressedKeys
