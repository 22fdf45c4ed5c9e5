package timeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.MaxFPS != 60 || o.PerformanceModeFPS != 30 {
		t.Errorf("fps = %d/%d, want 60/30", o.MaxFPS, o.PerformanceModeFPS)
	}
	if !o.EnableWaveformCaching || !o.EnableCollaboratorCursors {
		t.Error("waveform caching and collaborator cursors should default on")
	}
	if o.OrphanClipPolicy != OrphanOmit {
		t.Errorf("OrphanClipPolicy = %q, want omit", o.OrphanClipPolicy)
	}
	if o.Surface.Width != 1280 || o.Surface.Height != 720 || !o.Surface.Antialias {
		t.Errorf("Surface = %+v, want 1280x720 antialiased", o.Surface)
	}
	if o.Logger == nil || o.Reporter == nil || o.Clock == nil {
		t.Error("Logger, Reporter and Clock should be set")
	}
	if o.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want screenshots", o.ScreenshotDir)
	}
}

func TestParseOptions(t *testing.T) {
	data := []byte(`
enable_debug_mode: true
max_fps: 120
enable_waveform_caching: false
orphan_clip_policy: report
cursor_broadcast_interval: 50ms
surface:
  width: 1024
  background_color: "#102030"
  power_preference: low-power
`)
	o, err := ParseOptions(data)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if !o.EnableDebugMode || o.MaxFPS != 120 || o.EnableWaveformCaching {
		t.Errorf("toggles = (%v, %d, %v), want (true, 120, false)", o.EnableDebugMode, o.MaxFPS, o.EnableWaveformCaching)
	}
	if !o.EnableCollaboratorCursors {
		t.Error("unset fields should keep their defaults")
	}
	if o.OrphanClipPolicy != OrphanReport {
		t.Errorf("OrphanClipPolicy = %q, want report", o.OrphanClipPolicy)
	}
	if o.CursorBroadcastInterval != 50*time.Millisecond {
		t.Errorf("CursorBroadcastInterval = %v, want 50ms", o.CursorBroadcastInterval)
	}
	if o.Surface.Width != 1024 || o.Surface.Height != 720 {
		t.Errorf("surface size = %dx%d, want 1024x720", o.Surface.Width, o.Surface.Height)
	}
	if o.Surface.PowerPreference != PowerLow {
		t.Errorf("PowerPreference = %q, want low-power", o.Surface.PowerPreference)
	}
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad yaml", "max_fps: [", "parse options"},
		{"orphan policy", "orphan_clip_policy: panic", "orphan_clip_policy"},
		{"power preference", "surface:\n  power_preference: turbo", "power_preference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseOptions should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseOptionsClampsNegatives(t *testing.T) {
	o, err := ParseOptions([]byte("max_fps: -5\nperformance_mode_fps: -1\n"))
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if o.MaxFPS != 0 || o.PerformanceModeFPS != 30 {
		t.Errorf("fps = %d/%d, want 0/30", o.MaxFPS, o.PerformanceModeFPS)
	}
}

func TestLoadOptionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.yaml")
	if err := os.WriteFile(path, []byte("max_fps: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("LoadOptionsFile: %v", err)
	}
	if o.MaxFPS != 30 {
		t.Errorf("MaxFPS = %d, want 30", o.MaxFPS)
	}

	if _, err := LoadOptionsFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadOptionsFile on a missing file should fail")
	}
}
