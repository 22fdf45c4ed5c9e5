package timeline

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tanema/gween/ease"
)

const (
	rulerHeight     = 24.0
	minGridSpacing  = 6.0 // pixels between adjacent grid lines
	maxGridLines    = 4096
	playheadHitHalf = 4.0
	playheadHeadW   = 10.0
	cursorDotSize   = 8.0
)

var (
	rulerFill        = Color{0.12, 0.12, 0.15, 1}
	gridMinorColor   = Color{1, 1, 1, 0.06}
	gridMajorColor   = Color{1, 1, 1, 0.16}
	rulerTickColor   = Color{1, 1, 1, 0.5}
	selectionColor   = Color{0.35, 0.65, 1, 1}
	defaultPlayhead  = Color{1, 0.3, 0.3, 1}
	defaultTimeRange = Color{0.35, 0.65, 1, 0.15}
)

// gridWindow is the content-space x range the grid was last drawn for.
type gridWindow struct {
	start, end float64
	valid      bool
}

// covers reports whether [scrollX, scrollX+width] lies inside the window.
func (w gridWindow) covers(scrollX, width float64) bool {
	return w.valid && scrollX >= w.start && scrollX+width <= w.end
}

// --- Grid ---

// RedrawGrid rebuilds the beat grid and ruler ticks for the area around the
// current scroll position: one viewport width either side.
func (g *SceneGraph) RedrawGrid() {
	if g.destroyed {
		return
	}
	g.ensureScaffold()
	g.clearChildren(g.gridLines)
	g.clearChildren(g.rulerTicks)
	g.stats.GridRedraws++

	ppb := g.view.PixelsPerBeat
	if ppb <= 0 || g.width <= 0 {
		g.gridWindow = gridWindow{}
		return
	}
	step := g.view.GridResolution
	if step <= 0 {
		step = 1
	}
	for step*ppb < minGridSpacing {
		step *= 2
	}
	bpm := g.view.BeatsPerMeasure
	if bpm <= 0 {
		bpm = 4
	}
	start := math.Max(0, g.view.ScrollX-g.width)
	end := g.view.ScrollX + 2*g.width
	first := math.Floor(start/ppb/step) * step

	for i := 0; i < maxGridLines; i++ {
		beat := first + float64(i)*step
		x := beat * ppb
		if x > end {
			break
		}
		measure := isMultiple(beat, float64(bpm))
		clr := gridMinorColor
		if measure {
			clr = gridMajorColor
		}
		line := NewLine("grid", 0, g.height, clr, 1)
		line.SetPosition(x, 0)
		g.gridLines.AddChild(line)
		if measure {
			tick := NewLine("tick", 0, rulerHeight, rulerTickColor, 1)
			tick.SetPosition(x, 0)
			g.rulerTicks.AddChild(tick)
			bar := NewText("bar", strconv.Itoa(int(math.Round(beat/float64(bpm)))+1), labelFontSize, rulerTickColor)
			bar.SetPosition(x+3, 4)
			g.rulerTicks.AddChild(bar)
		}
	}
	g.gridWindow = gridWindow{start: start, end: end, valid: true}
}

func isMultiple(v, of float64) bool {
	r := math.Mod(v, of)
	return r < 1e-9 || of-r < 1e-9
}

// --- Playhead ---

type playheadVisual struct {
	state Playhead
	root  *Node
	line  *Node
	head  *Node
}

func (g *SceneGraph) newPlayheadVisual() *playheadVisual {
	pv := &playheadVisual{}
	pv.root = NewContainer("playhead")
	pv.root.Visible = false
	pv.line = NewLine("line", 0, g.height, defaultPlayhead, 1)
	pv.head = NewRect("head", playheadHeadW, playheadHeadW, defaultPlayhead)
	pv.head.SetPosition(-playheadHeadW/2, 0)
	pv.root.AddChild(pv.line)
	pv.root.AddChild(pv.head)
	pv.root.HitShape = HitRect{X: -playheadHitHalf, Width: playheadHitHalf * 2, Height: g.height}
	g.hits.tag(pv.root, HitTag{Kind: HitPlayhead})
	return pv
}

func (g *SceneGraph) updatePlayhead(p *Patch[Playhead]) {
	pv := g.playhead
	pv.state = p.Value
	if p.Fields.Has(PlayheadVisible) {
		pv.root.Visible = p.Value.Visible
	}
	if p.Fields.Has(PlayheadColor | PlayheadPlaying) {
		clr := p.Value.Color
		if clr.A == 0 {
			clr = defaultPlayhead
		}
		pv.line.Stroke = clr
		pv.head.Fill = clr
		if !p.Value.Playing {
			pv.head.Fill = clr.WithAlpha(0.7)
		}
	}
	if p.Fields.Has(PlayheadCurrentTime) {
		g.layoutPlayhead()
	}
}

func (g *SceneGraph) layoutPlayhead() {
	pv := g.playhead
	if pv == nil {
		return
	}
	pv.root.SetPosition(pv.state.CurrentTime*g.view.PixelsPerBeat, 0)
	pv.line.SetSize(0, g.height)
	pv.root.HitShape = HitRect{X: -playheadHitHalf, Width: playheadHitHalf * 2, Height: g.height}
}

// PlayheadX returns the playhead's content x position and visibility.
func (g *SceneGraph) PlayheadX() (float64, bool) {
	if g.playhead == nil {
		return 0, false
	}
	return g.playhead.root.X, g.playhead.root.Visible
}

// --- Selection ---

// redrawSelection clears the selection layer and draws the current selection
// from scratch.
func (g *SceneGraph) redrawSelection() {
	g.selectionDirty = false
	layer := g.layers[LayerSelection]
	g.clearChildren(layer)
	g.stats.SelectionRedraws++

	sel := g.selection
	ppb := g.view.PixelsPerBeat
	if tr := sel.TimeRange; tr != nil && tr.End > tr.Start {
		band := NewRect("time-range", (tr.End-tr.Start)*ppb, g.contentHeight(), defaultTimeRange)
		band.SetPosition(tr.Start*ppb, 0)
		layer.AddChild(band)
	}
	for _, id := range sel.TrackIDs {
		tv, ok := g.tracks[id]
		if !ok {
			continue
		}
		band := NewRect("track:"+id, trackBandWidth, tv.height(), selectionColor.WithAlpha(0.08))
		band.SetPosition(0, tv.track.Y)
		layer.AddChild(band)
	}
	for _, id := range sel.ClipIDs {
		r, ok := g.ClipBounds(id)
		if !ok || !g.clips[id].track.lane.Visible {
			continue
		}
		box := NewOutline("clip:"+id, r.Width, r.Height, selectionColor, 2)
		box.SetPosition(r.X, r.Y)
		layer.AddChild(box)
	}
}

// contentHeight is the bottom edge of the lowest track.
func (g *SceneGraph) contentHeight() float64 {
	h := g.height
	for _, tv := range g.tracks {
		h = math.Max(h, tv.track.Y+tv.height())
	}
	return h
}

// --- Collaborators ---

type collaboratorVisual struct {
	collab Collaborator
	root   *Node
	dot    *Node
	label  *Node
}

func (g *SceneGraph) updateCollaborators(d *CollectionDiff[Collaborator]) error {
	for _, id := range d.Removed {
		if cv, ok := g.collaborators[id]; ok {
			g.tweens.cancel(cv.root, channelPosition)
			g.disposeVisual(cv.root)
			delete(g.collaborators, id)
		}
	}
	for _, c := range d.Added {
		if err := g.addCollaborator(c); err != nil {
			return err
		}
	}
	for _, u := range d.Updated {
		cv, ok := g.collaborators[u.ID]
		if !ok {
			if err := g.addCollaborator(u.Value); err != nil {
				return err
			}
			continue
		}
		g.patchCollaborator(cv, u.Fields, u.Value)
	}
	return nil
}

func (g *SceneGraph) addCollaborator(c Collaborator) error {
	if _, dup := g.collaborators[c.ID]; dup {
		return fmt.Errorf("collaborator %q: %w", c.ID, ErrDuplicateID)
	}
	cv := &collaboratorVisual{collab: c}
	cv.root = NewContainer("collaborator:" + c.ID)
	cv.dot = NewRect("dot", cursorDotSize, cursorDotSize, c.Color)
	cv.label = NewText("name", c.Name, labelFontSize, c.Color)
	cv.label.SetPosition(cursorDotSize+2, cursorDotSize)
	cv.root.AddChild(cv.dot)
	cv.root.AddChild(cv.label)
	if cur := c.Cursor; cur != nil {
		cv.root.SetPosition(cur.X, cur.Y)
		cv.root.Visible = cur.Visible
	} else {
		cv.root.Visible = false
	}
	g.layers[LayerCollaborators].AddChild(cv.root)
	g.collaborators[c.ID] = cv
	return nil
}

func (g *SceneGraph) patchCollaborator(cv *collaboratorVisual, f Fields, c Collaborator) {
	cv.collab = c
	if f.Has(CollaboratorName) {
		cv.label.SetText(c.Name)
	}
	if f.Has(CollaboratorColor) {
		cv.dot.Fill = c.Color
		cv.label.Fill = c.Color
	}
	if !f.Has(CollaboratorCursor) {
		return
	}
	cur := c.Cursor
	if cur == nil || !cur.Visible {
		g.tweens.cancel(cv.root, channelPosition)
		cv.root.Visible = false
		return
	}
	if !cv.root.Visible {
		g.tweens.cancel(cv.root, channelPosition)
		cv.root.SetPosition(cur.X, cur.Y)
		cv.root.Visible = true
		return
	}
	g.tweens.start(cv.root, channelPosition, TweenPosition(cv.root, cur.X, cur.Y, cursorGlideDuration, ease.OutQuad))
}

// CollaboratorPosition returns the drawn cursor position of a collaborator.
func (g *SceneGraph) CollaboratorPosition(id string) (x, y float64, visible, ok bool) {
	cv, ok := g.collaborators[id]
	if !ok {
		return 0, 0, false, false
	}
	return cv.root.X, cv.root.Y, cv.root.Visible, true
}

// --- Markers and regions ---

type markerVisual struct {
	marker Marker
	root   *Node
	line   *Node
	label  *Node
}

type regionVisual struct {
	region Region
	root   *Node
	band   *Node
	label  *Node
}

func (g *SceneGraph) updateMarkers(d *CollectionDiff[Marker]) error {
	for _, id := range d.Removed {
		if mv, ok := g.markers[id]; ok {
			g.disposeVisual(mv.root)
			delete(g.markers, id)
		}
	}
	for _, m := range d.Added {
		if _, dup := g.markers[m.ID]; dup {
			return fmt.Errorf("marker %q: %w", m.ID, ErrDuplicateID)
		}
		g.addMarker(m)
	}
	for _, u := range d.Updated {
		mv, ok := g.markers[u.ID]
		if !ok {
			g.addMarker(u.Value)
			continue
		}
		mv.marker = u.Value
		if u.Fields.Has(MarkerLabel) {
			mv.label.SetText(u.Value.Label)
		}
		if u.Fields.Has(MarkerColor) {
			mv.line.Stroke = u.Value.Color
			mv.label.Fill = u.Value.Color
		}
		if u.Fields.Has(MarkerTime) {
			g.layoutMarker(mv)
		}
	}
	return nil
}

func (g *SceneGraph) addMarker(m Marker) {
	mv := &markerVisual{marker: m}
	mv.root = NewContainer("marker:" + m.ID)
	mv.line = NewLine("line", 0, rulerHeight, m.Color, 2)
	mv.label = NewText("label", m.Label, labelFontSize, m.Color)
	mv.label.SetPosition(3, rulerHeight-mv.label.Height-2)
	mv.root.AddChild(mv.line)
	mv.root.AddChild(mv.label)
	g.layoutMarker(mv)
	g.markersBox.AddChild(mv.root)
	g.markers[m.ID] = mv
}

func (g *SceneGraph) layoutMarker(mv *markerVisual) {
	mv.root.SetPosition(mv.marker.Time*g.view.PixelsPerBeat, 0)
}

func (g *SceneGraph) updateRegions(d *CollectionDiff[Region]) error {
	for _, id := range d.Removed {
		if rv, ok := g.regions[id]; ok {
			g.disposeVisual(rv.root)
			delete(g.regions, id)
		}
	}
	for _, r := range d.Added {
		if _, dup := g.regions[r.ID]; dup {
			return fmt.Errorf("region %q: %w", r.ID, ErrDuplicateID)
		}
		g.addRegion(r)
	}
	for _, u := range d.Updated {
		rv, ok := g.regions[u.ID]
		if !ok {
			g.addRegion(u.Value)
			continue
		}
		rv.region = u.Value
		if u.Fields.Has(RegionLabel) {
			rv.label.SetText(u.Value.Label)
		}
		if u.Fields.Has(RegionColor) {
			rv.band.Fill = u.Value.Color.WithAlpha(0.3)
		}
		if u.Fields.Has(RegionStart | RegionEnd) {
			g.layoutRegion(rv)
		}
	}
	return nil
}

func (g *SceneGraph) addRegion(r Region) {
	rv := &regionVisual{region: r}
	rv.root = NewContainer("region:" + r.ID)
	rv.band = NewRect("band", 0, rulerHeight, r.Color.WithAlpha(0.3))
	rv.label = NewText("label", r.Label, labelFontSize, ColorWhite)
	rv.label.SetPosition(labelPadding, rulerHeight-rv.label.Height-2)
	rv.root.AddChild(rv.band)
	rv.root.AddChild(rv.label)
	g.layoutRegion(rv)
	g.regionsBox.AddChild(rv.root)
	g.regions[r.ID] = rv
}

func (g *SceneGraph) layoutRegion(rv *regionVisual) {
	ppb := g.view.PixelsPerBeat
	rv.root.SetPosition(rv.region.Start*ppb, 0)
	rv.band.SetSize(math.Max(rv.region.End-rv.region.Start, 0)*ppb, rulerHeight)
}

// MarkerCount returns the number of marker visuals.
func (g *SceneGraph) MarkerCount() int {
	return len(g.markers)
}

// RegionCount returns the number of region visuals.
func (g *SceneGraph) RegionCount() int {
	return len(g.regions)
}
