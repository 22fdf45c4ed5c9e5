package timeline

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// HitShape is used for custom hit testing regions in local coordinates.
type HitShape interface {
	Contains(x, y float64) bool
}

// Node is the retained drawable element. A single flat struct is used for
// all node kinds to avoid interface dispatch on the draw and hit-test paths.
type Node struct {
	Name string
	Kind NodeKind

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local). Scroll and zoom only ever translate or scale, so
	// rotation and skew are not supported.
	X, Y   float64
	ScaleX float64
	ScaleY float64

	worldTransform [6]float64
	worldAlpha     float64
	transformDirty bool

	Alpha        float64
	Visible      bool
	Interactable bool

	// Geometry. Width/Height size rects and text boxes; for NodeLine they
	// are the end point relative to the node origin.
	Width, Height float64
	Points        []Vec2

	// Paint
	Fill        Color
	Stroke      Color
	StrokeWidth float64

	// Text fields (NodeText)
	Text     string
	FontSize float64

	// Image fields (NodeImage). The source is uploaded lazily on first draw.
	Image       image.Image
	uploaded    *ebiten.Image
	imageSource image.Image

	HitShape HitShape

	disposed bool
}

func nodeDefaults(n *Node) {
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Visible = true
	n.transformDirty = true
}

// NewContainer creates a container node with no visual representation.
func NewContainer(name string) *Node {
	n := &Node{Name: name, Kind: NodeContainer}
	nodeDefaults(n)
	return n
}

// NewRect creates a filled rectangle of the given size.
func NewRect(name string, w, h float64, fill Color) *Node {
	n := &Node{Name: name, Kind: NodeRect, Width: w, Height: h, Fill: fill}
	nodeDefaults(n)
	return n
}

// NewOutline creates an unfilled rectangle stroked with the given color.
func NewOutline(name string, w, h float64, stroke Color, strokeWidth float64) *Node {
	n := &Node{Name: name, Kind: NodeRect, Width: w, Height: h, Stroke: stroke, StrokeWidth: strokeWidth}
	nodeDefaults(n)
	return n
}

// NewLine creates a line segment from the node origin to (dx, dy).
func NewLine(name string, dx, dy float64, stroke Color, strokeWidth float64) *Node {
	n := &Node{Name: name, Kind: NodeLine, Width: dx, Height: dy, Stroke: stroke, StrokeWidth: strokeWidth}
	nodeDefaults(n)
	return n
}

// NewPolyline creates an open path through points.
func NewPolyline(name string, points []Vec2, stroke Color, strokeWidth float64) *Node {
	n := &Node{Name: name, Kind: NodePolyline, Points: points, Stroke: stroke, StrokeWidth: strokeWidth}
	nodeDefaults(n)
	return n
}

// NewText creates a single-line text node.
func NewText(name, content string, size float64, c Color) *Node {
	n := &Node{Name: name, Kind: NodeText, Text: content, FontSize: size, Fill: c}
	nodeDefaults(n)
	n.Width, n.Height = measureText(content, size)
	return n
}

// NewImage creates a node that draws img at its natural size.
func NewImage(name string, img image.Image) *Node {
	n := &Node{Name: name, Kind: NodeImage}
	nodeDefaults(n)
	n.SetImage(img)
	return n
}

// SetText replaces a text node's content and re-measures it.
func (n *Node) SetText(content string) {
	if n.Text == content {
		return
	}
	n.Text = content
	n.Width, n.Height = measureText(content, n.FontSize)
}

// SetImage replaces the image drawn by a NodeImage. The previous upload is
// released on the next draw.
func (n *Node) SetImage(img image.Image) {
	n.Image = img
	if img != nil {
		b := img.Bounds()
		n.Width, n.Height = float64(b.Dx()), float64(b.Dy())
	} else {
		n.Width, n.Height = 0, 0
	}
}

// SetSize sets Width and Height.
func (n *Node) SetSize(w, h float64) {
	n.Width = w
	n.Height = h
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("timeline: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("timeline: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("timeline: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for i, child := range n.children {
		child.Parent = nil
		markSubtreeDirty(child)
		n.children[i] = nil
	}
	n.children = n.children[:0]
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Walk calls fn for n and every descendant in painter order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// CountNodes returns the number of nodes in the subtree rooted at n.
func (n *Node) CountNodes() int {
	count := 1
	for _, c := range n.children {
		count += c.CountNodes()
	}
	return count
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants, releasing uploaded images.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.HitShape = nil
	n.Points = nil
	n.Image = nil
	n.imageSource = nil
	if n.uploaded != nil {
		n.uploaded.Deallocate()
		n.uploaded = nil
	}
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
