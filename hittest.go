package timeline

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitKind identifies the domain entity type behind a hit-testable drawable.
type HitKind uint8

const (
	HitNone       HitKind = iota // untagged canvas
	HitClip                      // clip body
	HitClipResize                // clip resize handle (right edge)
	HitTrack                     // track lane background
	HitPlayhead                  // playhead line or head
	HitRuler                     // timeline ruler strip
)

// String returns the lowercase name of the hit kind.
func (k HitKind) String() string {
	switch k {
	case HitClip:
		return "clip"
	case HitClipResize:
		return "clip-resize"
	case HitTrack:
		return "track"
	case HitPlayhead:
		return "playhead"
	case HitRuler:
		return "ruler"
	default:
		return "none"
	}
}

// HitTag is the (type, id) marker attached to a drawable by the scene graph.
type HitTag struct {
	Kind HitKind
	ID   string
}

// hitTable maps tagged drawables to their domain identity. Lookups are keyed
// by node pointer; tags are removed when their subtree is disposed.
type hitTable struct {
	tags map[*Node]HitTag
	buf  []*Node
}

func newHitTable() *hitTable {
	return &hitTable{tags: make(map[*Node]HitTag)}
}

// tag marks n as hit-testable and associates it with tag.
func (h *hitTable) tag(n *Node, tag HitTag) {
	n.Interactable = true
	h.tags[n] = tag
}

// untagSubtree drops tags for n and all of its descendants.
func (h *hitTable) untagSubtree(n *Node) {
	n.Walk(func(c *Node) { delete(h.tags, c) })
}

func (h *hitTable) reset() {
	clear(h.tags)
	h.buf = h.buf[:0]
}

// lookup resolves the tag for n, walking up to the nearest tagged ancestor.
func (h *hitTable) lookup(n *Node) (HitTag, bool) {
	for p := n; p != nil; p = p.Parent {
		if t, ok := h.tags[p]; ok {
			return t, true
		}
	}
	return HitTag{}, false
}

// nodeContainsLocal tests whether (lx, ly) falls inside a node's hit region.
// Uses HitShape if set; otherwise derives the box from Width/Height.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	if n.Width <= 0 || n.Height <= 0 {
		return false
	}
	return lx >= 0 && lx <= n.Width && ly >= 0 && ly <= n.Height
}

// collectInteractable walks the tree in painter order appending interactable
// nodes to buf. Invisible subtrees are skipped.
func collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible {
		return buf
	}
	if n.Interactable {
		buf = append(buf, n)
	}
	for _, child := range n.children {
		buf = collectInteractable(child, buf)
	}
	return buf
}

// hitTest finds the topmost interactable node at (worldX, worldY) and its
// tag. World transforms must be current.
func (h *hitTable) hitTest(root *Node, worldX, worldY float64) (*Node, HitTag, bool) {
	h.buf = collectInteractable(root, h.buf[:0])
	// Reverse painter order: topmost visual node first.
	for i := len(h.buf) - 1; i >= 0; i-- {
		n := h.buf[i]
		lx, ly := n.WorldToLocal(worldX, worldY)
		if nodeContainsLocal(n, lx, ly) {
			tag, ok := h.lookup(n)
			return n, tag, ok
		}
	}
	return nil, HitTag{}, false
}
