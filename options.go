package timeline

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// OrphanPolicy selects how clips whose track visual is missing are handled.
type OrphanPolicy string

const (
	// OrphanOmit silently leaves orphaned clips out of the visual tree.
	OrphanOmit OrphanPolicy = "omit"
	// OrphanReport omits orphaned clips and reports ErrOrphanClip.
	OrphanReport OrphanPolicy = "report"
)

// PowerPreference is an advisory hint passed to the drawing surface.
type PowerPreference string

const (
	PowerDefault         PowerPreference = "default"
	PowerLow             PowerPreference = "low-power"
	PowerHighPerformance PowerPreference = "high-performance"
)

// SurfaceConfig configures the drawing surface.
type SurfaceConfig struct {
	Width           int             `yaml:"width"`
	Height          int             `yaml:"height"`
	BackgroundColor string          `yaml:"background_color"`
	Antialias       bool            `yaml:"antialias"`
	PowerPreference PowerPreference `yaml:"power_preference"`
}

// Options configures a Renderer. Every toggle is purely behavioral.
type Options struct {
	// EnableDebugMode shows the stats overlay and logs per-frame draw stats
	// at Debug level.
	EnableDebugMode bool `yaml:"enable_debug_mode"`
	// MaxFPS throttles the render loop tick. 0 means unthrottled.
	MaxFPS int `yaml:"max_fps"`
	// PerformanceModeFPS is the tick cap while performance mode is on.
	PerformanceModeFPS int `yaml:"performance_mode_fps"`
	// EnableWaveformCaching rasterises each waveform once and reuses the
	// image instead of rebuilding vector geometry on every waveform redraw.
	EnableWaveformCaching bool `yaml:"enable_waveform_caching"`
	// EnableCollaboratorCursors turns collaborator diffing and drawing on.
	EnableCollaboratorCursors bool `yaml:"enable_collaborator_cursors"`
	// OrphanClipPolicy handles clips whose track is missing.
	OrphanClipPolicy OrphanPolicy `yaml:"orphan_clip_policy"`
	// CursorBroadcastInterval rate-limits collaborator cursor events.
	// 0 emits on every pointer move.
	CursorBroadcastInterval time.Duration `yaml:"cursor_broadcast_interval"`
	// ScreenshotDir is where Renderer.Screenshot writes PNG captures.
	ScreenshotDir string `yaml:"screenshot_dir"`

	Surface SurfaceConfig `yaml:"surface"`

	Logger     *slog.Logger          `yaml:"-"`
	Reporter   ErrorReporter         `yaml:"-"`
	Registerer prometheus.Registerer `yaml:"-"`
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time `yaml:"-"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	o := Options{
		MaxFPS:                    60,
		EnableWaveformCaching:     true,
		EnableCollaboratorCursors: true,
		Surface:                   SurfaceConfig{Antialias: true},
	}
	o.defaults()
	return o
}

func (o *Options) defaults() {
	if o.MaxFPS < 0 {
		o.MaxFPS = 0
	}
	if o.PerformanceModeFPS <= 0 {
		o.PerformanceModeFPS = 30
	}
	if o.OrphanClipPolicy == "" {
		o.OrphanClipPolicy = OrphanOmit
	}
	if o.CursorBroadcastInterval < 0 {
		o.CursorBroadcastInterval = 0
	}
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = "screenshots"
	}
	if o.Surface.Width <= 0 {
		o.Surface.Width = 1280
	}
	if o.Surface.Height <= 0 {
		o.Surface.Height = 720
	}
	if o.Surface.BackgroundColor == "" {
		o.Surface.BackgroundColor = "#1e1e24"
	}
	if o.Surface.PowerPreference == "" {
		o.Surface.PowerPreference = PowerDefault
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Reporter == nil {
		o.Reporter = NewLogReporter(o.Logger)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// validate checks enumerated values.
func (o *Options) validate() error {
	switch o.OrphanClipPolicy {
	case OrphanOmit, OrphanReport:
	default:
		return fmt.Errorf("orphan_clip_policy: unknown value %q", o.OrphanClipPolicy)
	}
	switch o.Surface.PowerPreference {
	case PowerDefault, PowerLow, PowerHighPerformance:
	default:
		return fmt.Errorf("surface.power_preference: unknown value %q", o.Surface.PowerPreference)
	}
	return nil
}

// ParseOptions decodes YAML on top of DefaultOptions.
func ParseOptions(data []byte) (Options, error) {
	o := DefaultOptions()
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	o.defaults()
	if err := o.validate(); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	return o, nil
}

// LoadOptionsFile reads a YAML options file.
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("load options: %w", err)
	}
	return ParseOptions(data)
}
