package timeline

import (
	"maps"
	"math/bits"
	"slices"
)

// Fields is a bitmask of changed properties. Each entity type has its own
// block of constants below; a mask is only meaningful for its own type.
type Fields uint32

// Has reports whether any of the bits in f are set.
func (m Fields) Has(f Fields) bool {
	return m&f != 0
}

// Count returns the number of changed properties.
func (m Fields) Count() int {
	return bits.OnesCount32(uint32(m))
}

// allFields returns a mask with the lowest n bits set.
func allFields(n int) Fields {
	return Fields(1)<<n - 1
}

const (
	ViewportWidth Fields = 1 << iota
	ViewportHeight
	ViewportResolution
	ViewportPixelRatio
	viewportFieldCount = iota
)

const (
	TimelineScrollX Fields = 1 << iota
	TimelineScrollY
	TimelinePixelsPerBeat
	TimelineBeatsPerMeasure
	TimelineSnapToGrid
	TimelineGridResolution
	TimelineVisibleRange
	timelineFieldCount = iota
)

const (
	PlayheadCurrentTime Fields = 1 << iota
	PlayheadVisible
	PlayheadPlaying
	PlayheadColor
	playheadFieldCount = iota
)

const (
	SelectionClipIDs Fields = 1 << iota
	SelectionTrackIDs
	SelectionTimeRange
	selectionFieldCount = iota
)

const (
	ToolsActiveTool Fields = 1 << iota
	ToolsSettings
	toolsFieldCount = iota
)

const (
	TrackName Fields = 1 << iota
	TrackY
	TrackHeight
	TrackColor
	TrackMuted
	TrackSolo
	TrackSelected
	TrackVolume
	TrackCollapsed
	TrackCollaborators
)

const (
	ClipTrackID Fields = 1 << iota
	ClipName
	ClipStartTime
	ClipDuration
	ClipColor
	ClipSelected
	ClipDragging
	ClipResizing
	ClipAudio
	ClipCursors
)

const (
	CollaboratorName Fields = 1 << iota
	CollaboratorColor
	CollaboratorCursor
)

const (
	MarkerTime Fields = 1 << iota
	MarkerLabel
	MarkerColor
)

const (
	RegionStart Fields = 1 << iota
	RegionEnd
	RegionLabel
	RegionColor
)

// Patch is the change to a scalar group: the set of changed properties and
// the group's full next value to read them from.
type Patch[T any] struct {
	Fields Fields
	Value  T
}

// Update pairs an entity id with its changed properties and next value.
type Update[T any] struct {
	ID     string
	Fields Fields
	Value  T
}

// CollectionDiff is the delta of one id-keyed collection. Added and Updated
// follow the next snapshot's order; Removed follows the previous one's.
type CollectionDiff[T any] struct {
	Added   []T
	Removed []string
	Updated []Update[T]
}

// Empty reports whether the collection is unchanged.
func (d CollectionDiff[T]) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// SceneDiff is the structural delta between two snapshots. Nil scalar
// patches and empty collection diffs mean "unchanged".
type SceneDiff struct {
	Viewport  *Patch[Viewport]
	Timeline  *Patch[TimelineView]
	Playhead  *Patch[Playhead]
	Selection *Patch[Selection]
	Tools     *Patch[Tools]

	Tracks        CollectionDiff[Track]
	Clips         CollectionDiff[Clip]
	Collaborators CollectionDiff[Collaborator]
	Markers       CollectionDiff[Marker]
	Regions       CollectionDiff[Region]

	// Redraw hints are non-nil only when their value changed.
	ShouldRedrawWaveforms *bool
	ShouldRedrawGrid      *bool
}

// Empty reports whether the diff carries no changes at all.
func (d *SceneDiff) Empty() bool {
	return d.Viewport == nil && d.Timeline == nil && d.Playhead == nil &&
		d.Selection == nil && d.Tools == nil &&
		d.Tracks.Empty() && d.Clips.Empty() && d.Collaborators.Empty() &&
		d.Markers.Empty() && d.Regions.Empty() &&
		d.ShouldRedrawWaveforms == nil && d.ShouldRedrawGrid == nil
}

// Differ computes SceneDiffs. The zero value diffs every part of the state.
type Differ struct {
	// IgnoreCollaborators leaves the collaborators collection out of every
	// diff, so cursor presence is neither diffed nor drawn.
	IgnoreCollaborators bool
}

// CalculateDiff diffs two snapshots with a zero Differ.
func CalculateDiff(prev, next *SceneState) SceneDiff {
	return Differ{}.CalculateDiff(prev, next)
}

// CalculateDiff returns the structural delta from prev to next. A nil prev
// reports every entity as added and copies every scalar group verbatim, so a
// scene graph can bootstrap from empty. Neither input is modified or
// retained.
func (df Differ) CalculateDiff(prev, next *SceneState) SceneDiff {
	var d SceneDiff
	if next == nil {
		return d
	}
	if prev == nil {
		d.Viewport = &Patch[Viewport]{Fields: allFields(viewportFieldCount), Value: next.Viewport}
		d.Timeline = &Patch[TimelineView]{Fields: allFields(timelineFieldCount), Value: next.Timeline}
		d.Playhead = &Patch[Playhead]{Fields: allFields(playheadFieldCount), Value: next.Playhead}
		d.Selection = &Patch[Selection]{Fields: allFields(selectionFieldCount), Value: next.Selection}
		d.Tools = &Patch[Tools]{Fields: allFields(toolsFieldCount), Value: next.Tools}
		d.Tracks.Added = slices.Clone(next.Tracks)
		d.Clips.Added = slices.Clone(next.Clips)
		d.Markers.Added = slices.Clone(next.Markers)
		d.Regions.Added = slices.Clone(next.Regions)
		if !df.IgnoreCollaborators {
			d.Collaborators.Added = slices.Clone(next.Collaborators)
		}
		waveforms, grid := next.ShouldRedrawWaveforms, next.ShouldRedrawGrid
		d.ShouldRedrawWaveforms = &waveforms
		d.ShouldRedrawGrid = &grid
		return d
	}

	d.Viewport = scalarPatch(prev.Viewport, next.Viewport, diffViewport)
	d.Timeline = scalarPatch(prev.Timeline, next.Timeline, diffTimeline)
	d.Playhead = scalarPatch(prev.Playhead, next.Playhead, diffPlayhead)
	d.Selection = scalarPatch(prev.Selection, next.Selection, diffSelection)
	d.Tools = scalarPatch(prev.Tools, next.Tools, diffTools)

	d.Tracks = diffCollection(prev.Tracks, next.Tracks, trackID, diffTrack)
	d.Clips = diffCollection(prev.Clips, next.Clips, clipID, diffClip)
	d.Markers = diffCollection(prev.Markers, next.Markers, markerID, diffMarker)
	d.Regions = diffCollection(prev.Regions, next.Regions, regionID, diffRegion)
	if !df.IgnoreCollaborators {
		d.Collaborators = diffCollection(prev.Collaborators, next.Collaborators, collaboratorID, diffCollaborator)
	}

	if prev.ShouldRedrawWaveforms != next.ShouldRedrawWaveforms {
		v := next.ShouldRedrawWaveforms
		d.ShouldRedrawWaveforms = &v
	}
	if prev.ShouldRedrawGrid != next.ShouldRedrawGrid {
		v := next.ShouldRedrawGrid
		d.ShouldRedrawGrid = &v
	}
	return d
}

func scalarPatch[T any](prev, next T, diff func(a, b T) Fields) *Patch[T] {
	f := diff(prev, next)
	if f == 0 {
		return nil
	}
	return &Patch[T]{Fields: f, Value: next}
}

// diffCollection builds id maps for both sides and classifies every entity
// as added, removed, updated or unchanged.
func diffCollection[T any](prev, next []T, id func(T) string, diff func(a, b T) Fields) CollectionDiff[T] {
	var d CollectionDiff[T]
	old := make(map[string]T, len(prev))
	for _, e := range prev {
		old[id(e)] = e
	}
	seen := make(map[string]struct{}, len(next))
	for _, e := range next {
		key := id(e)
		seen[key] = struct{}{}
		before, ok := old[key]
		if !ok {
			d.Added = append(d.Added, e)
			continue
		}
		if f := diff(before, e); f != 0 {
			d.Updated = append(d.Updated, Update[T]{ID: key, Fields: f, Value: e})
		}
	}
	for _, e := range prev {
		key := id(e)
		if _, ok := seen[key]; !ok {
			d.Removed = append(d.Removed, key)
			seen[key] = struct{}{} // report duplicate ids once
		}
	}
	return d
}

func trackID(t Track) string               { return t.ID }
func clipID(c Clip) string                 { return c.ID }
func collaboratorID(c Collaborator) string { return c.ID }
func markerID(m Marker) string             { return m.ID }
func regionID(r Region) string             { return r.ID }

// mark returns f when changed is true.
func mark(changed bool, f Fields) Fields {
	if changed {
		return f
	}
	return 0
}

func diffViewport(a, b Viewport) Fields {
	return mark(a.Width != b.Width, ViewportWidth) |
		mark(a.Height != b.Height, ViewportHeight) |
		mark(a.Resolution != b.Resolution, ViewportResolution) |
		mark(a.PixelRatio != b.PixelRatio, ViewportPixelRatio)
}

func diffTimeline(a, b TimelineView) Fields {
	return mark(a.ScrollX != b.ScrollX, TimelineScrollX) |
		mark(a.ScrollY != b.ScrollY, TimelineScrollY) |
		mark(a.PixelsPerBeat != b.PixelsPerBeat, TimelinePixelsPerBeat) |
		mark(a.BeatsPerMeasure != b.BeatsPerMeasure, TimelineBeatsPerMeasure) |
		mark(a.SnapToGrid != b.SnapToGrid, TimelineSnapToGrid) |
		mark(a.GridResolution != b.GridResolution, TimelineGridResolution) |
		mark(a.VisibleRange != b.VisibleRange, TimelineVisibleRange)
}

func diffPlayhead(a, b Playhead) Fields {
	return mark(a.CurrentTime != b.CurrentTime, PlayheadCurrentTime) |
		mark(a.Visible != b.Visible, PlayheadVisible) |
		mark(a.Playing != b.Playing, PlayheadPlaying) |
		mark(a.Color != b.Color, PlayheadColor)
}

func diffSelection(a, b Selection) Fields {
	return mark(!slices.Equal(a.ClipIDs, b.ClipIDs), SelectionClipIDs) |
		mark(!slices.Equal(a.TrackIDs, b.TrackIDs), SelectionTrackIDs) |
		mark(!ptrEqual(a.TimeRange, b.TimeRange), SelectionTimeRange)
}

func diffTools(a, b Tools) Fields {
	return mark(a.ActiveTool != b.ActiveTool, ToolsActiveTool) |
		mark(!maps.Equal(a.Settings, b.Settings), ToolsSettings)
}

func diffTrack(a, b Track) Fields {
	return mark(a.Name != b.Name, TrackName) |
		mark(a.Y != b.Y, TrackY) |
		mark(a.Height != b.Height, TrackHeight) |
		mark(a.Color != b.Color, TrackColor) |
		mark(a.Muted != b.Muted, TrackMuted) |
		mark(a.Solo != b.Solo, TrackSolo) |
		mark(a.Selected != b.Selected, TrackSelected) |
		mark(a.Volume != b.Volume, TrackVolume) |
		mark(a.Collapsed != b.Collapsed, TrackCollapsed) |
		mark(!slices.Equal(a.Collaborators, b.Collaborators), TrackCollaborators)
}

func diffClip(a, b Clip) Fields {
	return mark(a.TrackID != b.TrackID, ClipTrackID) |
		mark(a.Name != b.Name, ClipName) |
		mark(a.StartTime != b.StartTime, ClipStartTime) |
		mark(a.Duration != b.Duration, ClipDuration) |
		mark(a.Color != b.Color, ClipColor) |
		mark(a.Selected != b.Selected, ClipSelected) |
		mark(a.Dragging != b.Dragging, ClipDragging) |
		mark(a.Resizing != b.Resizing, ClipResizing) |
		mark(!audioEqual(a.Audio, b.Audio), ClipAudio) |
		mark(!slices.Equal(a.Cursors, b.Cursors), ClipCursors)
}

func diffCollaborator(a, b Collaborator) Fields {
	return mark(a.Name != b.Name, CollaboratorName) |
		mark(a.Color != b.Color, CollaboratorColor) |
		mark(!ptrEqual(a.Cursor, b.Cursor), CollaboratorCursor)
}

func diffMarker(a, b Marker) Fields {
	return mark(a.Time != b.Time, MarkerTime) |
		mark(a.Label != b.Label, MarkerLabel) |
		mark(a.Color != b.Color, MarkerColor)
}

func diffRegion(a, b Region) Fields {
	return mark(a.Start != b.Start, RegionStart) |
		mark(a.End != b.End, RegionEnd) |
		mark(a.Label != b.Label, RegionLabel) |
		mark(a.Color != b.Color, RegionColor)
}

// ptrEqual compares two optional values by content.
func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func audioEqual(a, b *AudioSummary) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b || (slices.Equal(a.WaveformPoints, b.WaveformPoints) && slices.Equal(a.Peaks, b.Peaks))
}
