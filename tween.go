package timeline

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	cursorGlideDuration  = 0.12 // seconds
	fidelityFadeDuration = 0.25
)

// TweenGroup animates up to 2 float64 fields on a Node simultaneously.
// The group writes values and marks the node dirty on every Update. If the
// target node is disposed, the group stops immediately.
type TweenGroup struct {
	tweens [2]*gween.Tween
	count  int
	fields [2]*float64
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	if g.target != nil {
		g.target.MarkDirty()
	}
}

// TweenPosition animates node.X and node.Y to (toX, toY).
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(node.Y), float32(toY), duration, fn)
	g.fields[0] = &node.X
	g.fields[1] = &node.Y
	return g
}

// TweenAlpha animates node.Alpha to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.Alpha), float32(to), duration, fn)
	g.fields[0] = &node.Alpha
	return g
}

// tweenSet owns the running tweens of one scene graph. At most one tween is
// kept per (node, channel) so a retarget replaces the running animation.
type tweenSet struct {
	active map[tweenKey]*TweenGroup
}

type tweenChannel uint8

const (
	channelPosition tweenChannel = iota
	channelAlpha
)

type tweenKey struct {
	node    *Node
	channel tweenChannel
}

func newTweenSet() *tweenSet {
	return &tweenSet{active: make(map[tweenKey]*TweenGroup)}
}

func (s *tweenSet) start(node *Node, ch tweenChannel, g *TweenGroup) {
	s.active[tweenKey{node, ch}] = g
}

// cancel stops the tween on (node, ch) without finishing it.
func (s *tweenSet) cancel(node *Node, ch tweenChannel) {
	delete(s.active, tweenKey{node, ch})
}

// update advances every tween and drops finished ones.
func (s *tweenSet) update(dt float32) {
	for k, g := range s.active {
		g.Update(dt)
		if g.Done {
			delete(s.active, k)
		}
	}
}

func (s *tweenSet) len() int {
	return len(s.active)
}

func (s *tweenSet) reset() {
	clear(s.active)
}
