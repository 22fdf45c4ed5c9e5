package timeline

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestTweenPositionLinear(t *testing.T) {
	n := NewContainer("n")
	g := TweenPosition(n, 100, 50, 1, ease.Linear)

	g.Update(0.5)
	assertNear(t, "X at half", n.X, 50)
	assertNear(t, "Y at half", n.Y, 25)
	if g.Done {
		t.Error("Done = true at half, want false")
	}

	g.Update(0.5)
	assertNear(t, "X at end", n.X, 100)
	assertNear(t, "Y at end", n.Y, 50)
	if !g.Done {
		t.Error("Done = false at end, want true")
	}
}

func TestTweenAlphaMarksDirty(t *testing.T) {
	n := NewContainer("n")
	g := TweenAlpha(n, 0, 1, ease.Linear)
	n.transformDirty = false

	g.Update(0.25)
	assertNear(t, "Alpha", n.Alpha, 0.75)
	if !n.transformDirty {
		t.Error("Update should mark the target dirty")
	}
}

func TestTweenStopsOnDisposedTarget(t *testing.T) {
	n := NewContainer("n")
	g := TweenPosition(n, 100, 0, 1, ease.Linear)
	n.Dispose()

	g.Update(0.5)
	if !g.Done {
		t.Error("Done = false after target disposed, want true")
	}
	if n.X != 0 {
		t.Errorf("X = %v after disposed update, want 0", n.X)
	}
}

func TestTweenUpdateAfterDoneIsNoop(t *testing.T) {
	n := NewContainer("n")
	g := TweenAlpha(n, 0.5, 0.1, ease.Linear)
	g.Update(1)
	n.Alpha = 0.9
	g.Update(1)
	if n.Alpha != 0.9 {
		t.Errorf("Alpha = %v, want 0.9 (no writes after Done)", n.Alpha)
	}
}

func TestTweenSetRetargetReplaces(t *testing.T) {
	n := NewContainer("n")
	s := newTweenSet()
	s.start(n, channelPosition, TweenPosition(n, 100, 0, 1, ease.Linear))
	s.start(n, channelPosition, TweenPosition(n, 10, 0, 1, ease.Linear))
	s.start(n, channelAlpha, TweenAlpha(n, 0, 1, ease.Linear))

	if got := s.len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}

	s.update(1)
	assertNear(t, "X", n.X, 10)
	if got := s.len(); got != 0 {
		t.Errorf("len after finish = %d, want 0", got)
	}
}

func TestTweenSetCancelAndReset(t *testing.T) {
	n := NewContainer("n")
	s := newTweenSet()
	s.start(n, channelPosition, TweenPosition(n, 100, 0, 1, ease.Linear))
	s.start(n, channelAlpha, TweenAlpha(n, 0, 1, ease.Linear))

	s.cancel(n, channelPosition)
	s.update(0.5)
	if n.X != 0 {
		t.Errorf("X = %v after cancel, want 0", n.X)
	}
	if got := s.len(); got != 1 {
		t.Errorf("len = %d, want 1", got)
	}

	s.reset()
	if got := s.len(); got != 0 {
		t.Errorf("len after reset = %d, want 0", got)
	}
}
