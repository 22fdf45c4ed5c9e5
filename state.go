package timeline

// SceneState is one immutable snapshot of everything the timeline draws.
// A snapshot is produced once per caller-visible change and handed wholesale
// to Renderer.RenderScene; it must not be mutated afterwards.
//
// Times (StartTime, Duration, CurrentTime, marker and region positions) are
// expressed in beats. Horizontal pixel positions are time * PixelsPerBeat.
type SceneState struct {
	Viewport      Viewport
	Timeline      TimelineView
	Tracks        []Track
	Clips         []Clip
	Playhead      Playhead
	Selection     Selection
	Tools         Tools
	Collaborators []Collaborator
	Markers       []Marker
	Regions       []Region

	// Redraw hints. They propagate through the diff only when their value
	// changes, so a caller that needs a repeated redraw must re-assert them.
	ShouldRedrawWaveforms bool
	ShouldRedrawGrid      bool

	// LastUpdateTimestamp is the producer's wall-clock time in milliseconds.
	// It is informational and never diffed.
	LastUpdateTimestamp int64
}

// Viewport is the drawing surface size.
type Viewport struct {
	Width      float64
	Height     float64
	Resolution float64
	PixelRatio float64
}

// TimeRange is a half-open span of beats.
type TimeRange struct {
	Start, End float64
}

// TimelineView holds scroll and zoom for the timeline.
type TimelineView struct {
	ScrollX         float64
	ScrollY         float64
	PixelsPerBeat   float64
	BeatsPerMeasure int
	SnapToGrid      bool
	GridResolution  float64 // grid spacing in beats, e.g. 0.25 for sixteenths
	VisibleRange    TimeRange
}

// Track is one horizontal lane. ID is a stable identity key across snapshots.
type Track struct {
	ID            string
	Name          string
	Y             float64
	Height        float64
	Color         Color
	Muted         bool
	Solo          bool
	Selected      bool
	Volume        float64
	Collapsed     bool
	Collaborators []string // collaborator ids currently focused on this track
}

// AudioSummary is a precomputed reduction of a clip's audio.
type AudioSummary struct {
	WaveformPoints []float64 // amplitudes in [-1, 1], evenly spaced across the clip
	Peaks          []float64 // per-bucket peak magnitudes in [0, 1]
}

// CursorMarker is a collaborator's position inside a clip.
type CursorMarker struct {
	CollaboratorID string
	Time           float64 // beats, absolute
	Color          Color
}

// Clip is a region of audio on a track. TrackID must reference a track in the
// same snapshot; StartTime >= 0 and Duration > 0 are assumed, not validated.
type Clip struct {
	ID        string
	TrackID   string
	Name      string
	StartTime float64
	Duration  float64
	Color     Color
	Selected  bool
	Dragging  bool
	Resizing  bool
	Audio     *AudioSummary
	Cursors   []CursorMarker
}

// Playhead is the transport position indicator.
type Playhead struct {
	CurrentTime float64
	Visible     bool
	Playing     bool
	Color       Color
}

// Selection is the current editing selection.
type Selection struct {
	ClipIDs   []string
	TrackIDs  []string
	TimeRange *TimeRange
}

// Tools describes the active editing tool.
type Tools struct {
	ActiveTool string
	Settings   map[string]string
}

// Cursor is a collaborator's pointer position in content coordinates.
type Cursor struct {
	X, Y    float64
	Visible bool
}

// Collaborator is another user present in the session.
type Collaborator struct {
	ID     string
	Name   string
	Color  Color
	Cursor *Cursor
}

// Marker is a labelled point on the ruler.
type Marker struct {
	ID    string
	Time  float64
	Label string
	Color Color
}

// Region is a labelled span on the ruler (loop range, song section).
type Region struct {
	ID    string
	Start float64
	End   float64
	Label string
	Color Color
}

// EndTime returns StartTime + Duration.
func (c Clip) EndTime() float64 {
	return c.StartTime + c.Duration
}
