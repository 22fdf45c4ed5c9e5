package timeline

import (
	"fmt"
	"math"
	"strconv"
)

const (
	trackBandWidth       = 1 << 20
	collapsedTrackHeight = 24.0
	clipInset            = 2.0
	clipHandleWidth      = 6.0
	labelPadding         = 4.0
	labelFontSize        = 11.0
	waveformTop          = 16.0
	volumeBarWidth       = 40.0
)

var (
	separatorColor = Color{0, 0, 0, 0.5}
	outlineColor   = Color{1, 1, 1, 0.9}
	handleColor    = Color{1, 1, 1, 0.25}
	waveformColor  = Color{1, 1, 1, 0.7}
	mutedColor     = Color{0.95, 0.75, 0.2, 1}
	soloColor      = Color{0.3, 0.85, 0.4, 1}
)

// trackVisual is the projection of one track: a header band in the tracks
// layer and a clip lane in the clips layer, both at the track's Y.
type trackVisual struct {
	track     Track
	root      *Node
	band      *Node
	separator *Node
	label     *Node
	muted     *Node
	solo      *Node
	volume    *Node
	presence  *Node
	lane      *Node
	clips     map[string]*clipVisual
}

func (tv *trackVisual) height() float64 {
	if tv.track.Collapsed {
		return collapsedTrackHeight
	}
	return tv.track.Height
}

// clipVisual is the projection of one clip inside its track's lane.
type clipVisual struct {
	clip    Clip
	track   *trackVisual
	root    *Node
	body    *Node
	outline *Node
	label   *Node
	handle  *Node
	wave    *Node
	cursors *Node

	// size the waveform was last built for
	waveW, waveH float64
}

func (cv *clipVisual) size() (w, h float64) {
	return cv.body.Width, cv.body.Height
}

func bandFill(t Track) Color {
	if t.Selected {
		return t.Color.WithAlpha(0.3)
	}
	return t.Color.WithAlpha(0.15)
}

// --- Tracks ---

func (g *SceneGraph) updateTracks(d *CollectionDiff[Track]) error {
	for _, id := range d.Removed {
		g.removeTrack(id)
	}
	for _, t := range d.Added {
		if err := g.addTrack(t); err != nil {
			return err
		}
	}
	for _, u := range d.Updated {
		tv, ok := g.tracks[u.ID]
		if !ok {
			if err := g.addTrack(u.Value); err != nil {
				return err
			}
			continue
		}
		g.patchTrack(tv, u.Fields, u.Value)
	}
	return nil
}

func (g *SceneGraph) addTrack(t Track) error {
	if _, dup := g.tracks[t.ID]; dup {
		return fmt.Errorf("track %q: %w", t.ID, ErrDuplicateID)
	}
	tv := &trackVisual{track: t, clips: make(map[string]*clipVisual)}
	h := tv.height()

	tv.root = NewContainer("track:" + t.ID)
	tv.root.SetPosition(0, t.Y)
	tv.band = NewRect("band", trackBandWidth, h, bandFill(t))
	g.hits.tag(tv.band, HitTag{Kind: HitTrack, ID: t.ID})
	tv.separator = NewLine("separator", trackBandWidth, 0, separatorColor, 1)
	tv.separator.SetPosition(0, h)
	tv.label = NewText("name", t.Name, labelFontSize, ColorWhite)
	tv.label.SetPosition(labelPadding, labelPadding)
	tv.muted = NewText("muted", "M", labelFontSize, mutedColor)
	tv.solo = NewText("solo", "S", labelFontSize, soloColor)
	tv.volume = NewRect("volume", volumeBarWidth*clamp01(t.Volume), 3, t.Color)
	tv.presence = NewText("presence", "", labelFontSize, ColorWhite)
	tv.root.AddChild(tv.band)
	tv.root.AddChild(tv.separator)
	tv.root.AddChild(tv.label)
	tv.root.AddChild(tv.muted)
	tv.root.AddChild(tv.solo)
	tv.root.AddChild(tv.volume)
	tv.root.AddChild(tv.presence)
	tv.layoutHeader()

	tv.lane = NewContainer("lane:" + t.ID)
	tv.lane.SetPosition(0, t.Y)
	tv.lane.Visible = !t.Collapsed

	g.layers[LayerTracks].AddChild(tv.root)
	g.layers[LayerClips].AddChild(tv.lane)
	g.tracks[t.ID] = tv
	g.stats.TracksCreated++
	if g.isTrackSelected(t.ID) {
		g.selectionDirty = true
	}
	return nil
}

// layoutHeader positions the header widgets after the name label.
func (tv *trackVisual) layoutHeader() {
	t := tv.track
	x := labelPadding + tv.label.Width + labelPadding*2
	tv.muted.SetPosition(x, labelPadding)
	tv.muted.Visible = t.Muted
	x += tv.muted.Width + labelPadding
	tv.solo.SetPosition(x, labelPadding)
	tv.solo.Visible = t.Solo
	x += tv.solo.Width + labelPadding
	if n := len(t.Collaborators); n > 0 {
		tv.presence.SetText("● " + strconv.Itoa(n))
		tv.presence.Visible = true
	} else {
		tv.presence.SetText("")
		tv.presence.Visible = false
	}
	tv.presence.SetPosition(x, labelPadding)
	tv.volume.SetPosition(labelPadding, labelPadding+tv.label.Height+2)
	tv.volume.SetSize(volumeBarWidth*clamp01(t.Volume), 3)
	tv.volume.Visible = !t.Collapsed
}

func (g *SceneGraph) patchTrack(tv *trackVisual, f Fields, t Track) {
	tv.track = t
	g.stats.TrackPatches++
	if f.Has(TrackY) {
		tv.root.SetPosition(0, t.Y)
		tv.lane.SetPosition(0, t.Y)
	}
	if f.Has(TrackHeight | TrackCollapsed) {
		h := tv.height()
		tv.band.SetSize(trackBandWidth, h)
		tv.separator.SetPosition(0, h)
		tv.lane.Visible = !t.Collapsed
		for _, cv := range tv.clips {
			g.layoutClip(cv)
			g.redrawWaveform(cv)
		}
	}
	if f.Has(TrackColor | TrackSelected) {
		tv.band.Fill = bandFill(t)
		tv.volume.Fill = t.Color
	}
	if f.Has(TrackName) {
		tv.label.SetText(t.Name)
	}
	if f.Has(TrackName | TrackMuted | TrackSolo | TrackVolume | TrackCollaborators | TrackCollapsed) {
		tv.layoutHeader()
	}
	if f.Has(TrackY|TrackHeight|TrackCollapsed) && (g.isTrackSelected(t.ID) || g.anyClipSelected(tv)) {
		g.selectionDirty = true
	}
}

// removeTrack disposes the track's header and lane. Clip visuals in the lane
// go with it; their clips become orphans until re-added.
func (g *SceneGraph) removeTrack(id string) {
	tv, ok := g.tracks[id]
	if !ok {
		return
	}
	if g.isTrackSelected(id) || g.anyClipSelected(tv) {
		g.selectionDirty = true
	}
	for cid := range tv.clips {
		delete(g.clips, cid)
		if g.waveforms != nil {
			g.waveforms.evict(cid)
		}
		g.stats.ClipsDisposed++
	}
	g.disposeVisual(tv.lane)
	g.disposeVisual(tv.root)
	delete(g.tracks, id)
	g.stats.TracksDisposed++
}

// --- Clips ---

func (g *SceneGraph) updateClips(d *CollectionDiff[Clip]) error {
	for _, id := range d.Removed {
		g.removeClip(id)
	}
	for _, c := range d.Added {
		if err := g.addClip(c); err != nil {
			return err
		}
	}
	for _, u := range d.Updated {
		cv, ok := g.clips[u.ID]
		if !ok {
			if err := g.addClip(u.Value); err != nil {
				return err
			}
			continue
		}
		g.patchClip(cv, u.Fields, u.Value)
	}
	return nil
}

func (g *SceneGraph) addClip(c Clip) error {
	if _, dup := g.clips[c.ID]; dup {
		return fmt.Errorf("clip %q: %w", c.ID, ErrDuplicateID)
	}
	tv, ok := g.tracks[c.TrackID]
	if !ok {
		g.reportOrphan(c)
		return nil
	}
	cv := &clipVisual{clip: c, track: tv}
	cv.root = NewContainer("clip:" + c.ID)
	cv.body = NewRect("body", 0, 0, c.Color)
	g.hits.tag(cv.body, HitTag{Kind: HitClip, ID: c.ID})
	cv.wave = NewContainer("waveform")
	cv.wave.Visible = !g.reduced
	cv.label = NewText("name", "", labelFontSize, ColorWhite)
	cv.label.SetPosition(labelPadding, 2)
	cv.cursors = NewContainer("cursors")
	cv.outline = NewOutline("outline", 0, 0, outlineColor, 2)
	cv.handle = NewRect("handle", clipHandleWidth, 0, handleColor)
	g.hits.tag(cv.handle, HitTag{Kind: HitClipResize, ID: c.ID})
	cv.root.AddChild(cv.body)
	cv.root.AddChild(cv.wave)
	cv.root.AddChild(cv.label)
	cv.root.AddChild(cv.cursors)
	cv.root.AddChild(cv.outline)
	cv.root.AddChild(cv.handle)

	g.paintClip(cv)
	g.layoutClip(cv)
	g.redrawWaveform(cv)

	tv.lane.AddChild(cv.root)
	tv.clips[c.ID] = cv
	g.clips[c.ID] = cv
	g.stats.ClipsCreated++
	if g.isClipSelected(c.ID) {
		g.selectionDirty = true
	}
	return nil
}

func (g *SceneGraph) patchClip(cv *clipVisual, f Fields, c Clip) {
	cv.clip = c
	g.stats.ClipPatches++
	if f.Has(ClipTrackID) {
		tv, ok := g.tracks[c.TrackID]
		if !ok {
			g.removeClip(c.ID)
			g.reportOrphan(c)
			return
		}
		delete(cv.track.clips, c.ID)
		cv.track = tv
		tv.clips[c.ID] = cv
		tv.lane.AddChild(cv.root)
	}
	if f.Has(ClipColor | ClipSelected | ClipDragging | ClipResizing) {
		g.paintClip(cv)
	}
	geometry := f.Has(ClipTrackID | ClipStartTime | ClipDuration)
	if geometry || f.Has(ClipName|ClipCursors) {
		g.layoutClip(cv)
	}
	if f.Has(ClipTrackID|ClipDuration|ClipAudio|ClipColor) || cv.waveStale() {
		g.redrawWaveform(cv)
	}
	if geometry && g.isClipSelected(c.ID) {
		g.selectionDirty = true
	}
}

func (g *SceneGraph) removeClip(id string) {
	cv, ok := g.clips[id]
	if !ok {
		return
	}
	if g.isClipSelected(id) {
		g.selectionDirty = true
	}
	delete(cv.track.clips, id)
	delete(g.clips, id)
	if g.waveforms != nil {
		g.waveforms.evict(id)
	}
	g.disposeVisual(cv.root)
	g.stats.ClipsDisposed++
}

// paintClip applies the colour and state flags.
func (g *SceneGraph) paintClip(cv *clipVisual) {
	c := cv.clip
	cv.body.Fill = c.Color
	if c.Dragging {
		cv.body.Fill = c.Color.WithAlpha(0.7)
	}
	cv.outline.Visible = c.Selected
	cv.handle.Fill = handleColor
	if c.Resizing {
		cv.handle.Fill = outlineColor
	}
}

// layoutClip positions the clip from its start time and duration at the
// current zoom and sizes it to its lane.
func (g *SceneGraph) layoutClip(cv *clipVisual) {
	ppb := g.view.PixelsPerBeat
	c := cv.clip
	w := math.Max(c.Duration*ppb, 1)
	h := math.Max(cv.track.height()-2*clipInset, 1)
	cv.root.SetPosition(c.StartTime*ppb, clipInset)
	cv.body.SetSize(w, h)
	cv.outline.SetSize(w, h)
	cv.handle.SetSize(math.Min(clipHandleWidth, w), h)
	cv.handle.SetPosition(w-cv.handle.Width, 0)
	cv.label.SetText(truncateText(c.Name, labelFontSize, w-2*labelPadding))
	g.layoutClipCursors(cv)
}

// layoutClipCursors rebuilds the collaborator markers drawn inside a clip.
func (g *SceneGraph) layoutClipCursors(cv *clipVisual) {
	disposeChildren(cv.cursors)
	ppb := g.view.PixelsPerBeat
	w, h := cv.size()
	for _, m := range cv.clip.Cursors {
		x := (m.Time - cv.clip.StartTime) * ppb
		if x < 0 || x > w {
			continue
		}
		line := NewLine("cursor:"+m.CollaboratorID, 0, h, m.Color, 2)
		line.SetPosition(x, 0)
		cv.cursors.AddChild(line)
	}
}

func (cv *clipVisual) waveStale() bool {
	w, h := cv.size()
	return w != cv.waveW || h != cv.waveH
}

// RedrawWaveforms rebuilds the waveform of every clip.
func (g *SceneGraph) RedrawWaveforms() {
	for _, cv := range g.clips {
		g.redrawWaveform(cv)
	}
}

// redrawWaveform rebuilds one clip's waveform, from the raster cache when
// caching is enabled and as vector geometry otherwise.
func (g *SceneGraph) redrawWaveform(cv *clipVisual) {
	disposeChildren(cv.wave)
	w, h := cv.size()
	cv.waveW, cv.waveH = w, h
	samples := waveformSamples(cv.clip.Audio)
	if len(samples) < 2 {
		return
	}
	g.stats.WaveformRedraws++
	top := waveformTop
	if h-top < 8 {
		top = 0
	}
	cv.wave.SetPosition(0, top)
	bh := h - top

	if g.waveforms == nil {
		cv.wave.AddChild(NewPolyline("path", waveformPath(samples, w, bh), waveformColor, 1))
		return
	}
	iw := int(math.Ceil(math.Min(w, maxWaveformWidth)))
	ih := int(math.Ceil(bh))
	img, err := g.waveforms.image(cv.clip.ID, cv.clip.Audio, iw, ih, waveformColor)
	if err != nil {
		g.reporter.Report(err, "clip", cv.clip.ID)
		cv.wave.AddChild(NewPolyline("path", waveformPath(samples, w, bh), waveformColor, 1))
		return
	}
	node := NewImage("raster", img)
	if float64(iw) < w {
		node.SetScale(w/float64(iw), 1)
	}
	cv.wave.AddChild(node)
}

// --- Lookups ---

func (g *SceneGraph) isClipSelected(id string) bool {
	for _, s := range g.selection.ClipIDs {
		if s == id {
			return true
		}
	}
	return false
}

func (g *SceneGraph) isTrackSelected(id string) bool {
	for _, s := range g.selection.TrackIDs {
		if s == id {
			return true
		}
	}
	return false
}

func (g *SceneGraph) anyClipSelected(tv *trackVisual) bool {
	for id := range tv.clips {
		if g.isClipSelected(id) {
			return true
		}
	}
	return false
}

// HasTrack reports whether a visual exists for track id.
func (g *SceneGraph) HasTrack(id string) bool {
	_, ok := g.tracks[id]
	return ok
}

// HasClip reports whether a visual exists for clip id.
func (g *SceneGraph) HasClip(id string) bool {
	_, ok := g.clips[id]
	return ok
}

// TrackCount returns the number of track visuals.
func (g *SceneGraph) TrackCount() int {
	return len(g.tracks)
}

// ClipCount returns the number of clip visuals.
func (g *SceneGraph) ClipCount() int {
	return len(g.clips)
}

// ClipBounds returns a clip's rectangle in unscrolled content coordinates.
func (g *SceneGraph) ClipBounds(id string) (Rect, bool) {
	cv, ok := g.clips[id]
	if !ok {
		return Rect{}, false
	}
	w, h := cv.size()
	return Rect{X: cv.root.X, Y: cv.track.track.Y + cv.root.Y, Width: w, Height: h}, true
}

// ClipTrack returns the id of the lane holding the clip visual.
func (g *SceneGraph) ClipTrack(id string) (string, bool) {
	cv, ok := g.clips[id]
	if !ok {
		return "", false
	}
	return cv.track.track.ID, true
}
