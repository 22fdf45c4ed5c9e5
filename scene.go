package timeline

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

// Layer is one of the fixed z-ordered buckets under the scene root. Layers
// are drawn in declaration order, back to front, and never reordered.
type Layer uint8

const (
	LayerBackground Layer = iota
	LayerGrid
	LayerTracks
	LayerClips
	LayerSelection
	LayerPlayhead
	LayerCollaborators
	LayerOverlay
	layerCount
)

var layerNames = [layerCount]string{
	"background", "grid", "tracks", "clips",
	"selection", "playhead", "collaborators", "overlay",
}

// String returns the layer name.
func (l Layer) String() string {
	if l < layerCount {
		return layerNames[l]
	}
	return "unknown"
}

const reducedClipAlpha = 0.6

// SceneGraphConfig configures a SceneGraph.
type SceneGraphConfig struct {
	Width, Height   float64
	Background      Color
	Antialias       bool
	WaveformCaching bool
	OrphanPolicy    OrphanPolicy
	Reporter        ErrorReporter
	Logger          *slog.Logger
	Debug           bool
}

// GraphStats counts the mutations a SceneGraph has performed. It is meant
// for tests and the debug overlay.
type GraphStats struct {
	TracksCreated     int
	TracksDisposed    int
	TrackPatches      int
	ClipsCreated      int
	ClipsDisposed     int
	ClipPatches       int
	OrphansSkipped    int
	SelectionRedraws  int
	GridRedraws       int
	BackgroundRedraws int
	WaveformRedraws   int
}

// DrawStats describes one Draw call.
type DrawStats struct {
	Commands     int
	DrawCalls    int
	TraverseTime time.Duration
	SubmitTime   time.Duration
}

// SceneGraph owns the retained tree that mirrors the latest applied
// snapshot. Visuals are keyed by entity id and tagged for hit testing. It is
// not safe for concurrent use.
type SceneGraph struct {
	root   *Node
	layers [layerCount]*Node
	cfg    SceneGraphConfig

	scaffolded bool
	background *Node
	gridLines  *Node
	ruler      *Node
	rulerTicks *Node
	regionsBox *Node
	markersBox *Node
	debugText  *Node
	playhead   *playheadVisual

	tracks        map[string]*trackVisual
	clips         map[string]*clipVisual
	collaborators map[string]*collaboratorVisual
	markers       map[string]*markerVisual
	regions       map[string]*regionVisual

	hits      *hitTable
	tweens    *tweenSet
	waveforms *waveformCache
	draw      *drawList

	width, height float64
	view          TimelineView
	selection     Selection
	activeTool    string
	gridWindow    gridWindow

	selectionDirty bool
	reduced        bool
	destroyed      bool

	stats    GraphStats
	lastDraw DrawStats
	logger   *slog.Logger
	reporter ErrorReporter
	warned   map[*Node]bool
}

// NewSceneGraph creates a scene graph with all layers attached to its root.
func NewSceneGraph(cfg SceneGraphConfig) *SceneGraph {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NewLogReporter(cfg.Logger)
	}
	if cfg.OrphanPolicy == "" {
		cfg.OrphanPolicy = OrphanOmit
	}
	g := &SceneGraph{
		root:          NewContainer("root"),
		cfg:           cfg,
		tracks:        make(map[string]*trackVisual),
		clips:         make(map[string]*clipVisual),
		collaborators: make(map[string]*collaboratorVisual),
		markers:       make(map[string]*markerVisual),
		regions:       make(map[string]*regionVisual),
		hits:          newHitTable(),
		tweens:        newTweenSet(),
		draw:          newDrawList(cfg.Antialias),
		width:         cfg.Width,
		height:        cfg.Height,
		logger:        cfg.Logger.With("component", "timeline"),
		reporter:      cfg.Reporter,
	}
	if cfg.WaveformCaching {
		g.waveforms = newWaveformCache()
	}
	for l := Layer(0); l < layerCount; l++ {
		g.layers[l] = NewContainer(l.String())
		g.root.AddChild(g.layers[l])
	}
	g.ensureScaffold()
	return g
}

// Root returns the scene root.
func (g *SceneGraph) Root() *Node {
	return g.root
}

// LayerNode returns the container for layer l.
func (g *SceneGraph) LayerNode(l Layer) *Node {
	return g.layers[l]
}

// Stats returns the mutation counters.
func (g *SceneGraph) Stats() GraphStats {
	return g.stats
}

// LastDraw returns the stats of the most recent Draw.
func (g *SceneGraph) LastDraw() DrawStats {
	return g.lastDraw
}

// ObjectCount returns the number of nodes in the tree, root included.
func (g *SceneGraph) ObjectCount() int {
	return g.root.CountNodes()
}

// Size returns the current surface size the graph lays out against.
func (g *SceneGraph) Size() (float64, float64) {
	return g.width, g.height
}

// ensureScaffold builds the fixed per-layer nodes (background, grid holder,
// ruler, playhead, debug text) when the layers are empty.
func (g *SceneGraph) ensureScaffold() {
	if g.scaffolded {
		return
	}
	g.scaffolded = true

	g.background = NewRect("background", g.width, g.height, g.cfg.Background)
	g.layers[LayerBackground].AddChild(g.background)

	g.gridLines = NewContainer("grid-lines")
	g.layers[LayerGrid].AddChild(g.gridLines)

	g.playhead = g.newPlayheadVisual()
	g.layers[LayerPlayhead].AddChild(g.playhead.root)

	g.ruler = NewContainer("ruler")
	band := NewRect("ruler-band", trackBandWidth, rulerHeight, rulerFill)
	g.hits.tag(band, HitTag{Kind: HitRuler})
	g.regionsBox = NewContainer("regions")
	g.rulerTicks = NewContainer("ruler-ticks")
	g.markersBox = NewContainer("markers")
	g.ruler.AddChild(band)
	g.ruler.AddChild(g.regionsBox)
	g.ruler.AddChild(g.rulerTicks)
	g.ruler.AddChild(g.markersBox)
	g.layers[LayerOverlay].AddChild(g.ruler)

	g.debugText = NewText("debug", "", defaultFontSize, ColorWhite)
	g.debugText.Visible = g.cfg.Debug
	g.layers[LayerOverlay].AddChild(g.debugText)
	g.placeDebugText()
}

// Apply mutates the retained tree so that it matches next, touching only
// what d reports as changed. next must be the snapshot d was computed to.
func (g *SceneGraph) Apply(d *SceneDiff, next *SceneState) error {
	if g.destroyed {
		return ErrDestroyed
	}
	if d == nil || next == nil {
		return nil
	}
	g.ensureScaffold()

	if p := d.Viewport; p != nil && p.Fields.Has(ViewportWidth|ViewportHeight) {
		g.HandleResize(p.Value.Width, p.Value.Height)
	}
	gridDone := false
	if p := d.Timeline; p != nil {
		gridDone = g.updateTimeline(p)
	}
	if err := g.updateTracks(&d.Tracks); err != nil {
		return err
	}
	if err := g.updateClips(&d.Clips); err != nil {
		return err
	}
	if p := d.Playhead; p != nil {
		g.updatePlayhead(p)
	}
	if p := d.Selection; p != nil {
		g.selection = p.Value
		g.selectionDirty = true
	}
	if err := g.updateCollaborators(&d.Collaborators); err != nil {
		return err
	}
	if err := g.updateMarkers(&d.Markers); err != nil {
		return err
	}
	if err := g.updateRegions(&d.Regions); err != nil {
		return err
	}
	if p := d.Tools; p != nil {
		g.activeTool = p.Value.ActiveTool
	}
	if g.selectionDirty {
		g.redrawSelection()
	}
	if h := d.ShouldRedrawWaveforms; h != nil && *h {
		g.RedrawWaveforms()
	}
	if h := d.ShouldRedrawGrid; h != nil && *h && !gridDone {
		g.RedrawGrid()
	}
	return nil
}

// updateTimeline applies scroll and zoom. Returns true if the grid was
// redrawn.
func (g *SceneGraph) updateTimeline(p *Patch[TimelineView]) bool {
	g.view = p.Value
	if p.Fields.Has(TimelineScrollX | TimelineScrollY) {
		g.applyScroll()
	}
	zoom := p.Fields.Has(TimelinePixelsPerBeat)
	if zoom {
		g.relayout()
	}
	grid := zoom || p.Fields.Has(TimelineBeatsPerMeasure|TimelineGridResolution)
	if !grid && p.Fields.Has(TimelineScrollX) && !g.gridWindow.covers(g.view.ScrollX, g.width) {
		grid = true
	}
	if grid {
		g.RedrawGrid()
	}
	return grid
}

// applyScroll translates the scrolled layers. Tracks, clips and selection
// share one transform so clips stay locked to their lanes.
func (g *SceneGraph) applyScroll() {
	sx, sy := -g.view.ScrollX, -g.view.ScrollY
	g.layers[LayerGrid].SetPosition(sx, 0)
	g.layers[LayerTracks].SetPosition(sx, sy)
	g.layers[LayerClips].SetPosition(sx, sy)
	g.layers[LayerSelection].SetPosition(sx, sy)
	g.layers[LayerCollaborators].SetPosition(sx, sy)
	g.layers[LayerPlayhead].SetPosition(sx, 0)
	g.ruler.SetPosition(sx, 0)
}

// relayout recomputes every horizontally time-dependent visual after a zoom.
func (g *SceneGraph) relayout() {
	for _, cv := range g.clips {
		g.layoutClip(cv)
		g.redrawWaveform(cv)
	}
	for _, mv := range g.markers {
		g.layoutMarker(mv)
	}
	for _, rv := range g.regions {
		g.layoutRegion(rv)
	}
	g.layoutPlayhead()
	g.selectionDirty = true
}

// HandleResize re-derives the background and grid for a new surface size.
// Track and clip visuals are not touched. Non-positive sizes are ignored.
func (g *SceneGraph) HandleResize(width, height float64) {
	if g.destroyed || width <= 0 || height <= 0 {
		return
	}
	g.ensureScaffold()
	g.width, g.height = width, height
	g.background.SetSize(width, height)
	g.stats.BackgroundRedraws++
	g.layoutPlayhead()
	g.placeDebugText()
	g.RedrawGrid()
}

// SetReducedFidelity fades the clips layer and hides waveforms when on.
func (g *SceneGraph) SetReducedFidelity(on bool) {
	if g.destroyed || g.reduced == on {
		return
	}
	g.reduced = on
	target := 1.0
	if on {
		target = reducedClipAlpha
	}
	layer := g.layers[LayerClips]
	g.tweens.start(layer, channelAlpha, TweenAlpha(layer, target, fidelityFadeDuration, ease.OutQuad))
	for _, cv := range g.clips {
		cv.wave.Visible = !on
	}
}

// ReducedFidelity reports whether reduced fidelity is on.
func (g *SceneGraph) ReducedFidelity() bool {
	return g.reduced
}

// SetDebugText replaces the debug overlay text. It is shown only in debug
// mode.
func (g *SceneGraph) SetDebugText(s string) {
	if g.debugText == nil {
		return
	}
	g.debugText.SetText(s)
	g.placeDebugText()
}

func (g *SceneGraph) placeDebugText() {
	if g.debugText == nil {
		return
	}
	g.debugText.SetPosition(g.width-g.debugText.Width-8, rulerHeight+4)
}

// ActiveTool returns the last applied tools.activeTool.
func (g *SceneGraph) ActiveTool() string {
	return g.activeTool
}

// Tick advances animations by dt seconds.
func (g *SceneGraph) Tick(dt float64) {
	if g.destroyed {
		return
	}
	g.tweens.update(float32(dt))
}

// Animating reports whether any tween is running.
func (g *SceneGraph) Animating() bool {
	return g.tweens.len() > 0
}

// HitTest returns the tag of the topmost tagged drawable at surface (x, y).
func (g *SceneGraph) HitTest(x, y float64) (HitTag, bool) {
	if g.destroyed {
		return HitTag{}, false
	}
	updateWorldTransform(g.root, identityTransform, 1, false)
	_, tag, ok := g.hits.hitTest(g.root, x, y)
	return tag, ok
}

// TimeAt converts a surface x coordinate to beats.
func (g *SceneGraph) TimeAt(x float64) float64 {
	if g.view.PixelsPerBeat <= 0 {
		return 0
	}
	return (x + g.view.ScrollX) / g.view.PixelsPerBeat
}

// ContentPoint converts surface coordinates to scrolled content coordinates.
func (g *SceneGraph) ContentPoint(x, y float64) (float64, float64) {
	return x + g.view.ScrollX, y + g.view.ScrollY
}

// PixelsPerBeat returns the applied zoom.
func (g *SceneGraph) PixelsPerBeat() float64 {
	return g.view.PixelsPerBeat
}

// Draw submits the tree to target.
func (g *SceneGraph) Draw(target *ebiten.Image) DrawStats {
	if g.destroyed {
		return DrawStats{}
	}
	var stats DrawStats
	t0 := time.Now()
	g.draw.build(g.root)
	stats.TraverseTime = time.Since(t0)
	stats.Commands = len(g.draw.commands)

	t0 = time.Now()
	stats.DrawCalls = g.draw.submit(target)
	stats.SubmitTime = time.Since(t0)
	g.lastDraw = stats
	if g.cfg.Debug {
		g.debugLog(stats)
	}
	return stats
}

// Clear empties every layer and visual map. The layers stay attached and
// the graph can be applied to again, starting from an empty diff base.
func (g *SceneGraph) Clear() {
	if g.destroyed {
		return
	}
	g.tweens.reset()
	g.hits.reset()
	for _, layer := range g.layers {
		disposeChildren(layer)
		layer.SetPosition(0, 0)
	}
	clear(g.tracks)
	clear(g.clips)
	clear(g.collaborators)
	clear(g.markers)
	clear(g.regions)
	if g.waveforms != nil {
		g.waveforms.reset()
	}
	g.background, g.gridLines, g.ruler, g.rulerTicks = nil, nil, nil, nil
	g.regionsBox, g.markersBox, g.debugText, g.playhead = nil, nil, nil, nil
	g.view = TimelineView{}
	g.selection = Selection{}
	g.activeTool = ""
	g.gridWindow = gridWindow{}
	g.selectionDirty = false
	g.scaffolded = false
	clear(g.warned)
	if g.reduced {
		g.layers[LayerClips].SetAlpha(reducedClipAlpha)
	} else {
		g.layers[LayerClips].SetAlpha(1)
	}
}

// Destroy clears the graph and detaches all layers from the root. Safe to
// call more than once.
func (g *SceneGraph) Destroy() {
	if g.destroyed {
		return
	}
	g.Clear()
	g.root.RemoveChildren()
	for _, layer := range g.layers {
		layer.Dispose()
	}
	g.destroyed = true
}

// disposeVisual untags and disposes a visual subtree.
func (g *SceneGraph) disposeVisual(n *Node) {
	if n == nil {
		return
	}
	g.hits.untagSubtree(n)
	n.Dispose()
}

// disposeChildren disposes every child of n, keeping n.
func disposeChildren(n *Node) {
	for _, c := range slices.Clone(n.Children()) {
		c.Dispose()
	}
}

// clearChildren untags and disposes every child of n.
func (g *SceneGraph) clearChildren(n *Node) {
	for _, c := range slices.Clone(n.Children()) {
		g.disposeVisual(c)
	}
}

func (g *SceneGraph) reportOrphan(c Clip) {
	g.stats.OrphansSkipped++
	if g.cfg.OrphanPolicy != OrphanReport {
		return
	}
	g.reporter.Report(fmt.Errorf("clip %q on track %q: %w", c.ID, c.TrackID, ErrOrphanClip),
		"clip", c.ID, "track", c.TrackID)
}
