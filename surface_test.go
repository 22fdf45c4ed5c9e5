package timeline

import (
	"slices"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// stubKeys replaces the key reader for the duration of a test.
func stubKeys(t *testing.T, keys ...ebiten.Key) {
	t.Helper()
	prev := appendJustPressedKeys
	appendJustPressedKeys = func(buf []ebiten.Key) []ebiten.Key { return append(buf, keys...) }
	t.Cleanup(func() { appendJustPressedKeys = prev })
}

func newTestSurface(t *testing.T) *EbitenSurface {
	t.Helper()
	stubKeys(t)
	return NewEbitenSurface(SurfaceConfig{Width: 320, Height: 200, BackgroundColor: "#ff0000", Antialias: true})
}

func kinds(evs []InputEvent) []InputKind {
	out := make([]InputKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func recordAll(s *EbitenSurface) *[]InputEvent {
	var evs []InputEvent
	for k := InputKind(0); k < inputKindCount; k++ {
		s.AddListener(k, func(ev *InputEvent) { evs = append(evs, *ev) })
	}
	return &evs
}

func TestNewEbitenSurface(t *testing.T) {
	s := newTestSurface(t)
	if w, h := s.Size(); w != 320 || h != 200 {
		t.Errorf("Size = (%d, %d), want (320, 200)", w, h)
	}
	if s.Background() != (Color{1, 0, 0, 1}) {
		t.Errorf("Background = %v, want red", s.Background())
	}
	if !s.Antialias() {
		t.Error("Antialias = false, want true")
	}
	s.Resize(640, 480)
	if w, h := s.Size(); w != 640 || h != 480 {
		t.Errorf("Size after Resize = (%d, %d), want (640, 480)", w, h)
	}
}

func TestInputKindString(t *testing.T) {
	tests := []struct {
		kind InputKind
		want string
	}{
		{InputPointerDown, "pointer-down"},
		{InputPointerMove, "pointer-move"},
		{InputPointerUp, "pointer-up"},
		{InputWheel, "wheel"},
		{InputKeyDown, "key-down"},
		{inputKindCount, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestInjectClick(t *testing.T) {
	s := newTestSurface(t)
	evs := recordAll(s)

	s.InjectClick(50, 60)
	if s.PendingInjected() != 2 {
		t.Fatalf("PendingInjected = %d, want 2", s.PendingInjected())
	}

	// Frame 1: press, preceded by a move to the press position.
	s.Poll()
	if got := kinds(*evs); len(got) != 2 || got[0] != InputPointerMove || got[1] != InputPointerDown {
		t.Fatalf("frame 1 kinds = %v, want [move down]", got)
	}
	if s.PendingInjected() != 1 {
		t.Errorf("PendingInjected = %d, want 1", s.PendingInjected())
	}

	// Frame 2: release in place, no move.
	s.Poll()
	got := kinds(*evs)
	if len(got) != 3 || got[2] != InputPointerUp {
		t.Fatalf("frame 2 kinds = %v, want [move down up]", got)
	}
	up := (*evs)[2]
	if up.X != 50 || up.Y != 60 || up.Button != MouseButtonLeft {
		t.Errorf("up = (%v, %v, %v), want (50, 60, left)", up.X, up.Y, up.Button)
	}
}

func TestInjectDrag(t *testing.T) {
	s := newTestSurface(t)
	evs := recordAll(s)

	s.InjectDrag(10, 10, 200, 200, 5)
	if s.PendingInjected() != 5 {
		t.Fatalf("PendingInjected = %d, want 5", s.PendingInjected())
	}
	for i := 0; i < 5; i++ {
		s.Poll()
	}

	var downs, moves, ups int
	for _, ev := range *evs {
		switch ev.Kind {
		case InputPointerDown:
			downs++
		case InputPointerMove:
			moves++
		case InputPointerUp:
			ups++
		}
	}
	// One move to the press point, three interpolated moves, one move to the
	// release point.
	if downs != 1 || moves != 5 || ups != 1 {
		t.Errorf("down/move/up = %d/%d/%d, want 1/5/1", downs, moves, ups)
	}
	last := (*evs)[len(*evs)-1]
	if last.Kind != InputPointerUp || last.X != 200 || last.Y != 200 {
		t.Errorf("last event = %+v, want up at (200, 200)", last)
	}
}

func TestInjectRightPressKeepsButton(t *testing.T) {
	s := newTestSurface(t)
	evs := recordAll(s)

	s.InjectRightPress(5, 5)
	s.InjectRelease(5, 5)
	s.Poll()
	s.Poll()

	for _, ev := range *evs {
		if ev.Kind != InputPointerMove && ev.Button != MouseButtonRight {
			t.Errorf("%v button = %v, want right", ev.Kind, ev.Button)
		}
	}
}

func TestInjectKeyAndSuppression(t *testing.T) {
	s := newTestSurface(t)
	var got []ebiten.Key
	s.AddListener(InputKeyDown, func(ev *InputEvent) {
		got = append(got, ev.Key)
		if ev.Modifiers.Has(ModCtrl) {
			ev.PreventDefault()
		}
	})

	s.InjectKey(ebiten.KeyC, ModCtrl)
	s.InjectKey(ebiten.KeyA, 0)
	s.Poll()
	s.Poll()

	if len(got) != 2 || got[0] != ebiten.KeyC || got[1] != ebiten.KeyA {
		t.Errorf("keys = %v, want [C A]", got)
	}
	if n := s.SuppressedDefaults(); n != 1 {
		t.Errorf("SuppressedDefaults = %d, want 1", n)
	}
}

func TestPollReadsJustPressedKeys(t *testing.T) {
	s := NewEbitenSurface(SurfaceConfig{Width: 10, Height: 10})
	stubKeys(t, ebiten.KeySpace)
	var got []ebiten.Key
	s.AddListener(InputKeyDown, func(ev *InputEvent) { got = append(got, ev.Key) })

	s.Poll()
	if len(got) != 1 || got[0] != ebiten.KeySpace {
		t.Errorf("keys = %v, want [Space]", got)
	}
}

func TestListenerHandleRemove(t *testing.T) {
	var l Listeners
	calls := 0
	h1 := l.Add(InputWheel, func(*InputEvent) { calls++ })
	l.Add(InputWheel, func(*InputEvent) { calls += 10 })

	h1.Remove()
	h1.Remove()
	l.Dispatch(&InputEvent{Kind: InputWheel})
	if calls != 10 {
		t.Errorf("calls = %d, want 10", calls)
	}
	if l.Count() != 1 {
		t.Errorf("Count = %d, want 1", l.Count())
	}

	var zero ListenerHandle
	zero.Remove()
	if h := l.Add(inputKindCount, func(*InputEvent) {}); h != (ListenerHandle{}) {
		t.Error("Add with an unknown kind should return a zero handle")
	}
}

func TestListenersDispatchOrder(t *testing.T) {
	var l Listeners
	var order []int
	for i := 0; i < 3; i++ {
		l.Add(InputPointerDown, func(*InputEvent) { order = append(order, i) })
	}
	l.Dispatch(&InputEvent{Kind: InputPointerDown})
	l.Dispatch(&InputEvent{Kind: InputPointerUp})
	if len(order) != 3 || order[0] != 0 || order[2] != 2 {
		t.Errorf("order = %v, want [0 1 2]", order)
	}
}

func TestListenersRemoveDuringDispatch(t *testing.T) {
	tests := []struct {
		name      string
		remove    func(self, sibling ListenerHandle, l *Listeners)
		wantCalls []string
		wantCount int
	}{
		{
			name:      "self",
			remove:    func(self, _ ListenerHandle, _ *Listeners) { self.Remove() },
			wantCalls: []string{"first", "second"},
			wantCount: 1,
		},
		{
			name:      "later sibling",
			remove:    func(_, sibling ListenerHandle, _ *Listeners) { sibling.Remove() },
			wantCalls: []string{"first"},
			wantCount: 1,
		},
		{
			name:      "reset",
			remove:    func(_, _ ListenerHandle, l *Listeners) { l.Reset() },
			wantCalls: []string{"first"},
			wantCount: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Listeners
			var calls []string
			var self, sibling ListenerHandle
			self = l.Add(InputKeyDown, func(*InputEvent) {
				calls = append(calls, "first")
				tt.remove(self, sibling, &l)
			})
			sibling = l.Add(InputKeyDown, func(*InputEvent) { calls = append(calls, "second") })

			l.Dispatch(&InputEvent{Kind: InputKeyDown})
			if !slices.Equal(calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", calls, tt.wantCalls)
			}
			if l.Count() != tt.wantCount {
				t.Errorf("Count = %d, want %d", l.Count(), tt.wantCount)
			}
		})
	}
}

func TestListenersAddDuringDispatch(t *testing.T) {
	var l Listeners
	calls := 0
	l.Add(InputWheel, func(*InputEvent) {
		l.Add(InputWheel, func(*InputEvent) { calls++ })
	})
	l.Dispatch(&InputEvent{Kind: InputWheel})
	if calls != 0 {
		t.Errorf("calls on the first event = %d, want 0", calls)
	}
	l.Dispatch(&InputEvent{Kind: InputWheel})
	if calls != 1 {
		t.Errorf("calls on the second event = %d, want 1", calls)
	}
}

func TestEbitenSurfaceDestroy(t *testing.T) {
	s := newTestSurface(t)
	recordAll(s)
	s.InjectClick(1, 1)

	s.Destroy()
	s.Destroy()
	if s.Count() != 0 {
		t.Errorf("Count after Destroy = %d, want 0", s.Count())
	}
	if s.PendingInjected() != 0 {
		t.Errorf("PendingInjected after Destroy = %d, want 0", s.PendingInjected())
	}
	s.Poll()
}

func TestInteractionOverEbitenSurface(t *testing.T) {
	s := newTestSurface(t)
	m := NewInteractionManager(s, defaultHits(), InteractionConfig{})
	rec := &recorder{}
	m.SetCallback(rec.record)

	s.InjectDrag(150, 60, 230, 70, 4)
	for s.PendingInjected() > 0 {
		s.Poll()
	}
	p, ok := rec.last().Payload.(ClipMoved)
	if !ok || p.ClipID != "c1" || p.DeltaX != 80 || p.DeltaY != 10 {
		t.Errorf("last payload = %+v, want ClipMoved{c1 80 10}", rec.last().Payload)
	}

	m.Destroy()
	if s.Count() != 0 {
		t.Errorf("listeners after Destroy = %d, want 0", s.Count())
	}
}
