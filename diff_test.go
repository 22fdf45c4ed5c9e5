package timeline

import (
	"slices"
	"testing"
)

func baseState() *SceneState {
	return &SceneState{
		Viewport: Viewport{Width: 800, Height: 600, Resolution: 1, PixelRatio: 1},
		Timeline: TimelineView{PixelsPerBeat: 40, BeatsPerMeasure: 4, GridResolution: 1},
		Tracks: []Track{
			{ID: "t1", Name: "Drums", Y: 0, Height: 80, Color: ColorWhite, Volume: 1},
		},
		Playhead: Playhead{Visible: true, Color: ColorWhite},
	}
}

// withClip returns a copy of s with clip appended. Slices are cloned so the
// original snapshot is not mutated.
func withClip(s *SceneState, c Clip) *SceneState {
	next := *s
	next.Clips = append(slices.Clone(s.Clips), c)
	return &next
}

func TestCalculateDiffFirstFrame(t *testing.T) {
	s := withClip(baseState(), Clip{ID: "c1", TrackID: "t1", Duration: 4})
	s.Markers = []Marker{{ID: "m1", Time: 8}}
	s.Regions = []Region{{ID: "r1", Start: 0, End: 16}}
	s.Collaborators = []Collaborator{{ID: "u1"}}
	s.ShouldRedrawGrid = true

	d := CalculateDiff(nil, s)

	if d.Viewport == nil || d.Viewport.Value != s.Viewport || d.Viewport.Fields.Count() != 4 {
		t.Errorf("Viewport patch = %+v, want full copy", d.Viewport)
	}
	if d.Timeline == nil || d.Timeline.Value != s.Timeline {
		t.Errorf("Timeline patch = %+v, want full copy", d.Timeline)
	}
	if d.Playhead == nil || d.Playhead.Value != s.Playhead {
		t.Errorf("Playhead patch = %+v, want full copy", d.Playhead)
	}
	if d.Selection == nil || d.Tools == nil {
		t.Error("Selection and Tools patches should be present on first frame")
	}
	if len(d.Tracks.Added) != 1 || len(d.Clips.Added) != 1 ||
		len(d.Markers.Added) != 1 || len(d.Regions.Added) != 1 || len(d.Collaborators.Added) != 1 {
		t.Errorf("added counts = %d/%d/%d/%d/%d, want all 1",
			len(d.Tracks.Added), len(d.Clips.Added), len(d.Markers.Added),
			len(d.Regions.Added), len(d.Collaborators.Added))
	}
	if d.ShouldRedrawGrid == nil || !*d.ShouldRedrawGrid {
		t.Error("ShouldRedrawGrid should be copied as true")
	}
	if d.ShouldRedrawWaveforms == nil || *d.ShouldRedrawWaveforms {
		t.Error("ShouldRedrawWaveforms should be copied as false")
	}
}

func TestCalculateDiffFirstFrameDoesNotAlias(t *testing.T) {
	s := baseState()
	d := CalculateDiff(nil, s)
	d.Tracks.Added[0].Name = "mutated"
	if s.Tracks[0].Name != "Drums" {
		t.Errorf("input track name = %q, want Drums", s.Tracks[0].Name)
	}
}

func TestCalculateDiffIdentical(t *testing.T) {
	s := withClip(baseState(), Clip{
		ID: "c1", TrackID: "t1", Duration: 4,
		Audio: &AudioSummary{Peaks: []float64{0.5, 1}},
	})
	s.Selection = Selection{ClipIDs: []string{"c1"}, TimeRange: &TimeRange{0, 4}}
	s.Tools = Tools{ActiveTool: "select", Settings: map[string]string{"snap": "on"}}

	// A deep copy with fresh pointers must still diff empty.
	cp := *s
	cp.Clips = slices.Clone(s.Clips)
	cp.Clips[0].Audio = &AudioSummary{Peaks: []float64{0.5, 1}}
	cp.Selection.TimeRange = &TimeRange{0, 4}
	cp.Tools.Settings = map[string]string{"snap": "on"}

	for name, next := range map[string]*SceneState{"same reference": s, "deep equal": &cp} {
		t.Run(name, func(t *testing.T) {
			d := CalculateDiff(s, next)
			if !d.Empty() {
				t.Errorf("diff = %+v, want empty", d)
			}
		})
	}
}

func TestCalculateDiffNilNext(t *testing.T) {
	d := CalculateDiff(baseState(), nil)
	if !d.Empty() {
		t.Errorf("diff = %+v, want empty", d)
	}
}

func TestCalculateDiffScalarKeys(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *SceneState)
		check  func(t *testing.T, d SceneDiff)
	}{
		{"scroll", func(s *SceneState) { s.Timeline.ScrollX = 100 }, func(t *testing.T, d SceneDiff) {
			if d.Timeline == nil || d.Timeline.Fields != TimelineScrollX {
				t.Errorf("Timeline patch = %+v, want ScrollX only", d.Timeline)
			}
		}},
		{"zoom and snap", func(s *SceneState) {
			s.Timeline.PixelsPerBeat = 80
			s.Timeline.SnapToGrid = true
		}, func(t *testing.T, d SceneDiff) {
			if d.Timeline == nil || d.Timeline.Fields != TimelinePixelsPerBeat|TimelineSnapToGrid {
				t.Errorf("Timeline patch = %+v, want PixelsPerBeat|SnapToGrid", d.Timeline)
			}
		}},
		{"viewport width", func(s *SceneState) { s.Viewport.Width = 1024 }, func(t *testing.T, d SceneDiff) {
			if d.Viewport == nil || d.Viewport.Fields != ViewportWidth {
				t.Errorf("Viewport patch = %+v, want Width only", d.Viewport)
			}
		}},
		{"playhead time", func(s *SceneState) { s.Playhead.CurrentTime = 3 }, func(t *testing.T, d SceneDiff) {
			if d.Playhead == nil || d.Playhead.Fields != PlayheadCurrentTime || d.Playhead.Value.CurrentTime != 3 {
				t.Errorf("Playhead patch = %+v, want CurrentTime=3", d.Playhead)
			}
		}},
		{"time range replaced", func(s *SceneState) { s.Selection.TimeRange = &TimeRange{1, 2} }, func(t *testing.T, d SceneDiff) {
			if d.Selection == nil || d.Selection.Fields != SelectionTimeRange {
				t.Errorf("Selection patch = %+v, want TimeRange only", d.Selection)
			}
		}},
		{"tool", func(s *SceneState) { s.Tools.ActiveTool = "cut" }, func(t *testing.T, d SceneDiff) {
			if d.Tools == nil || d.Tools.Fields != ToolsActiveTool {
				t.Errorf("Tools patch = %+v, want ActiveTool only", d.Tools)
			}
		}},
		{"timestamp ignored", func(s *SceneState) { s.LastUpdateTimestamp = 12345 }, func(t *testing.T, d SceneDiff) {
			if !d.Empty() {
				t.Errorf("diff = %+v, want empty", d)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := baseState()
			next := baseState()
			tt.mutate(next)
			tt.check(t, CalculateDiff(prev, next))
		})
	}
}

func TestCalculateDiffCollections(t *testing.T) {
	prev := baseState()
	prev.Tracks = append(prev.Tracks, Track{ID: "t2", Name: "Bass", Y: 80, Height: 80})
	prev.Clips = []Clip{
		{ID: "a", TrackID: "t1", Duration: 1},
		{ID: "b", TrackID: "t1", Duration: 1},
		{ID: "c", TrackID: "t2", Duration: 1},
	}

	next := baseState()
	next.Tracks = append(next.Tracks, Track{ID: "t2", Name: "Bass", Y: 80, Height: 80})
	next.Clips = []Clip{
		{ID: "a", TrackID: "t1", Duration: 1},
		{ID: "c", TrackID: "t1", StartTime: 2, Duration: 1},
		{ID: "d", TrackID: "t2", Duration: 2},
	}

	d := CalculateDiff(prev, next)

	if !d.Tracks.Empty() {
		t.Errorf("Tracks diff = %+v, want empty", d.Tracks)
	}
	if len(d.Clips.Added) != 1 || d.Clips.Added[0].ID != "d" {
		t.Errorf("Clips.Added = %+v, want [d]", d.Clips.Added)
	}
	if !slices.Equal(d.Clips.Removed, []string{"b"}) {
		t.Errorf("Clips.Removed = %v, want [b]", d.Clips.Removed)
	}
	if len(d.Clips.Updated) != 1 {
		t.Fatalf("len(Clips.Updated) = %d, want 1", len(d.Clips.Updated))
	}
	u := d.Clips.Updated[0]
	if u.ID != "c" || u.Fields != ClipTrackID|ClipStartTime {
		t.Errorf("update = {%s %b}, want {c TrackID|StartTime}", u.ID, u.Fields)
	}
	if u.Value.TrackID != "t1" {
		t.Errorf("update value TrackID = %q, want t1", u.Value.TrackID)
	}
	if d.Viewport != nil || d.Timeline != nil || d.Selection != nil {
		t.Error("scalar groups should be unchanged")
	}
}

func TestCalculateDiffAudioAndCursors(t *testing.T) {
	prev := withClip(baseState(), Clip{ID: "c1", TrackID: "t1", Duration: 4,
		Audio: &AudioSummary{WaveformPoints: []float64{0, 1}}})
	next := withClip(baseState(), Clip{ID: "c1", TrackID: "t1", Duration: 4,
		Audio:   &AudioSummary{WaveformPoints: []float64{0, 0.5}},
		Cursors: []CursorMarker{{CollaboratorID: "u1", Time: 1}}})

	d := CalculateDiff(prev, next)
	if len(d.Clips.Updated) != 1 || d.Clips.Updated[0].Fields != ClipAudio|ClipCursors {
		t.Errorf("Clips.Updated = %+v, want Audio|Cursors", d.Clips.Updated)
	}
}

func TestCalculateDiffIdentityStability(t *testing.T) {
	a := withClip(baseState(), Clip{ID: "clip-1", TrackID: "t1", Name: "kick", Duration: 4})
	b := baseState()
	c := withClip(baseState(), Clip{ID: "clip-1", TrackID: "t1", Name: "snare", Duration: 2})

	d1 := CalculateDiff(a, b)
	if !slices.Equal(d1.Clips.Removed, []string{"clip-1"}) {
		t.Errorf("first diff removed = %v, want [clip-1]", d1.Clips.Removed)
	}
	d2 := CalculateDiff(b, c)
	if len(d2.Clips.Added) != 1 || len(d2.Clips.Updated) != 0 {
		t.Errorf("second diff added=%d updated=%d, want 1/0", len(d2.Clips.Added), len(d2.Clips.Updated))
	}
}

func TestCalculateDiffHintsPropagateOnChange(t *testing.T) {
	on := baseState()
	on.ShouldRedrawWaveforms = true
	off := baseState()

	tests := []struct {
		name       string
		prev, next *SceneState
		want       *bool
	}{
		{"false to true", off, on, ptr(true)},
		{"true to true", on, on, nil},
		{"true to false", on, off, ptr(false)},
		{"false to false", off, off, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDiff(tt.prev, tt.next).ShouldRedrawWaveforms
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("ShouldRedrawWaveforms = %v, want %v", deref(got), deref(tt.want))
			}
		})
	}
}

func TestDifferIgnoreCollaborators(t *testing.T) {
	prev := baseState()
	next := baseState()
	next.Collaborators = []Collaborator{{ID: "u1", Cursor: &Cursor{X: 1, Y: 2, Visible: true}}}

	df := Differ{IgnoreCollaborators: true}
	if d := df.CalculateDiff(prev, next); !d.Empty() {
		t.Errorf("diff = %+v, want empty", d)
	}
	if d := df.CalculateDiff(nil, next); len(d.Collaborators.Added) != 0 {
		t.Errorf("first frame Collaborators.Added = %d, want 0", len(d.Collaborators.Added))
	}
	if d := (Differ{}).CalculateDiff(prev, next); len(d.Collaborators.Added) != 1 {
		t.Errorf("Collaborators.Added = %d, want 1", len(d.Collaborators.Added))
	}
}

func TestCalculateDiffCollaboratorCursorMove(t *testing.T) {
	prev := baseState()
	prev.Collaborators = []Collaborator{{ID: "u1", Cursor: &Cursor{X: 1, Y: 2, Visible: true}}}
	next := baseState()
	next.Collaborators = []Collaborator{{ID: "u1", Cursor: &Cursor{X: 5, Y: 2, Visible: true}}}

	d := CalculateDiff(prev, next)
	if len(d.Collaborators.Updated) != 1 || d.Collaborators.Updated[0].Fields != CollaboratorCursor {
		t.Errorf("Collaborators.Updated = %+v, want Cursor", d.Collaborators.Updated)
	}
}

// Adding a clip to a snapshot with one track reports only the clip.
func TestCalculateDiffAddClipToTrack(t *testing.T) {
	a := baseState()
	b := withClip(a, Clip{ID: "c1", TrackID: "t1", StartTime: 0, Duration: 4})

	d := CalculateDiff(a, b)
	if len(d.Clips.Added) != 1 || d.Clips.Added[0].ID != "c1" {
		t.Errorf("Clips.Added = %+v, want [c1]", d.Clips.Added)
	}
	if !d.Tracks.Empty() {
		t.Errorf("Tracks diff = %+v, want empty", d.Tracks)
	}
}

// Removing a track that a clip still references leaves the clip unchanged.
func TestCalculateDiffRemoveReferencedTrack(t *testing.T) {
	a := withClip(baseState(), Clip{ID: "c1", TrackID: "t1", Duration: 4})
	b := *a
	b.Tracks = nil

	d := CalculateDiff(a, &b)
	if !slices.Equal(d.Tracks.Removed, []string{"t1"}) {
		t.Errorf("Tracks.Removed = %v, want [t1]", d.Tracks.Removed)
	}
	if !d.Clips.Empty() {
		t.Errorf("Clips diff = %+v, want empty", d.Clips)
	}
}

func TestCalculateDiffSelectionOnly(t *testing.T) {
	a := withClip(baseState(), Clip{ID: "c1", TrackID: "t1", Duration: 4})
	a.Selection = Selection{ClipIDs: []string{}}
	b := *a
	b.Selection = Selection{ClipIDs: []string{"c1"}}

	d := CalculateDiff(a, &b)
	if d.Selection == nil || d.Selection.Fields != SelectionClipIDs {
		t.Fatalf("Selection patch = %+v, want ClipIDs", d.Selection)
	}
	d.Selection = nil
	if !d.Empty() {
		t.Errorf("diff without selection = %+v, want empty", d)
	}
}

func TestCalculateDiffDuplicateRemovedOnce(t *testing.T) {
	prev := baseState()
	prev.Markers = []Marker{{ID: "m"}, {ID: "m", Time: 1}}
	next := baseState()

	d := CalculateDiff(prev, next)
	if !slices.Equal(d.Markers.Removed, []string{"m"}) {
		t.Errorf("Markers.Removed = %v, want [m]", d.Markers.Removed)
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := ClipName | ClipColor
	if !f.Has(ClipColor) {
		t.Error("Has(ClipColor) = false, want true")
	}
	if f.Has(ClipSelected) {
		t.Error("Has(ClipSelected) = true, want false")
	}
	if got := f.Count(); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
	if got := allFields(timelineFieldCount).Count(); got != 7 {
		t.Errorf("allFields(timeline).Count = %d, want 7", got)
	}
}

func ptr[T any](v T) *T { return &v }

func deref(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
