package timeline

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// drawCommand is a single draw instruction emitted during tree traversal.
type drawCommand struct {
	kind        NodeKind
	transform   [6]float64
	alpha       float64
	width       float64
	height      float64
	fill        Color
	stroke      Color
	strokeWidth float64
	node        *Node // source node, for points, text and images
}

// drawList walks a retained tree and produces draw commands. The command
// buffer is reused across frames.
type drawList struct {
	commands  []drawCommand
	antialias bool
}

const defaultCommandCap = 512

func newDrawList(antialias bool) *drawList {
	return &drawList{commands: make([]drawCommand, 0, defaultCommandCap), antialias: antialias}
}

// build refreshes world transforms and collects commands for root.
func (d *drawList) build(root *Node) {
	d.commands = d.commands[:0]
	updateWorldTransform(root, identityTransform, 1, false)
	d.traverse(root)
}

// traverse walks the tree depth-first in child order (painter order) and
// emits commands for visible, non-empty leaf kinds.
func (d *drawList) traverse(n *Node) {
	if !n.Visible || n.worldAlpha <= 0 {
		return
	}
	if cmd, ok := commandFor(n); ok {
		d.commands = append(d.commands, cmd)
	}
	for _, child := range n.children {
		d.traverse(child)
	}
}

func commandFor(n *Node) (drawCommand, bool) {
	cmd := drawCommand{
		kind:        n.Kind,
		transform:   n.worldTransform,
		alpha:       n.worldAlpha,
		width:       n.Width,
		height:      n.Height,
		fill:        n.Fill,
		stroke:      n.Stroke,
		strokeWidth: n.StrokeWidth,
		node:        n,
	}
	switch n.Kind {
	case NodeRect:
		if n.Width <= 0 || n.Height <= 0 || (n.Fill.A == 0 && (n.Stroke.A == 0 || n.StrokeWidth <= 0)) {
			return cmd, false
		}
	case NodeLine:
		if (n.Width == 0 && n.Height == 0) || n.Stroke.A == 0 {
			return cmd, false
		}
	case NodePolyline:
		if len(n.Points) < 2 || n.Stroke.A == 0 {
			return cmd, false
		}
	case NodeText:
		if n.Text == "" || n.Fill.A == 0 {
			return cmd, false
		}
	case NodeImage:
		if n.Image == nil {
			return cmd, false
		}
	default:
		return cmd, false
	}
	return cmd, true
}

// submit draws all commands onto target and returns the number of draw calls.
func (d *drawList) submit(target *ebiten.Image) int {
	calls := 0
	for i := range d.commands {
		calls += d.submitOne(target, &d.commands[i])
	}
	return calls
}

func (d *drawList) submitOne(target *ebiten.Image, cmd *drawCommand) int {
	m := cmd.transform
	switch cmd.kind {
	case NodeRect:
		x, y := float32(m[4]), float32(m[5])
		w, h := float32(cmd.width*m[0]), float32(cmd.height*m[3])
		calls := 0
		if cmd.fill.A > 0 {
			vector.DrawFilledRect(target, x, y, w, h, cmd.fill.WithAlpha(cmd.alpha).toNRGBA(), d.antialias)
			calls++
		}
		if cmd.stroke.A > 0 && cmd.strokeWidth > 0 {
			vector.StrokeRect(target, x, y, w, h, float32(cmd.strokeWidth), cmd.stroke.WithAlpha(cmd.alpha).toNRGBA(), d.antialias)
			calls++
		}
		return calls
	case NodeLine:
		x0, y0 := transformPoint(m, 0, 0)
		x1, y1 := transformPoint(m, cmd.width, cmd.height)
		vector.StrokeLine(target, float32(x0), float32(y0), float32(x1), float32(y1),
			float32(cmd.strokeWidth), cmd.stroke.WithAlpha(cmd.alpha).toNRGBA(), d.antialias)
		return 1
	case NodePolyline:
		pts := cmd.node.Points
		clr := cmd.stroke.WithAlpha(cmd.alpha).toNRGBA()
		sw := float32(math.Max(cmd.strokeWidth, 1))
		px, py := transformPoint(m, pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			x, y := transformPoint(m, p.X, p.Y)
			vector.StrokeLine(target, float32(px), float32(py), float32(x), float32(y), sw, clr, d.antialias)
			px, py = x, y
		}
		// Segments share a source image and batch into one draw call.
		return 1
	case NodeText:
		face, err := labelFace(cmd.node.FontSize)
		if err != nil {
			return 0
		}
		op := &text.DrawOptions{}
		op.GeoM.Scale(m[0], m[3])
		op.GeoM.Translate(m[4], m[5])
		op.ColorScale.ScaleWithColor(cmd.fill.WithAlpha(cmd.alpha).toNRGBA())
		text.Draw(target, cmd.node.Text, face, op)
		return 1
	case NodeImage:
		img := uploadImage(cmd.node)
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(m[0], m[3])
		op.GeoM.Translate(m[4], m[5])
		op.ColorScale.ScaleAlpha(float32(cmd.alpha))
		target.DrawImage(img, &op)
		return 1
	}
	return 0
}

// uploadImage returns the GPU copy of a NodeImage's source, re-uploading
// when the source has changed since the last draw.
func uploadImage(n *Node) *ebiten.Image {
	if n.uploaded != nil && n.imageSource == n.Image {
		return n.uploaded
	}
	if n.uploaded != nil {
		n.uploaded.Deallocate()
	}
	n.uploaded = ebiten.NewImageFromImage(n.Image)
	n.imageSource = n.Image
	return n.uploaded
}
