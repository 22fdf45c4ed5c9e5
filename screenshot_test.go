package timeline

import (
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-drag", "after-drag"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"back\\slash", "back_slash"},
		{"special!@#$%", "special_____"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
		{"MixedCase123", "MixedCase123"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnpremultiply(t *testing.T) {
	pixels := []byte{
		255, 0, 0, 255, // opaque red
		64, 32, 0, 128, // half-transparent
		0, 0, 0, 0, // transparent
	}
	img := unpremultiply(pixels, 3, 1)
	want := []byte{
		255, 0, 0, 255,
		127, 63, 0, 128,
		0, 0, 0, 0,
	}
	if !slices.Equal(img.Pix, want) {
		t.Errorf("Pix = %v, want %v", img.Pix, want)
	}
}

func TestWritePNG(t *testing.T) {
	img := unpremultiply([]byte{10, 20, 30, 255, 40, 50, 60, 255}, 2, 1)
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := writePNG(path, img); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := got.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Errorf("bounds = %v, want 2x1", b)
	}
}

func TestWritePNGMissingDir(t *testing.T) {
	img := unpremultiply(nil, 1, 1)
	if err := writePNG(filepath.Join(t.TempDir(), "missing", "shot.png"), img); err == nil {
		t.Error("writePNG into a missing directory should fail")
	}
}

func TestScreenshotQueue(t *testing.T) {
	r, _, _ := newTestRenderer(t, Options{})
	r.Screenshot("a")
	r.Screenshot("b")
	if !slices.Equal(r.screenshots, []string{"a", "b"}) {
		t.Errorf("queue = %v, want [a b]", r.screenshots)
	}
	r.Destroy()
	r.Screenshot("c")
	if len(r.screenshots) != 0 {
		t.Errorf("queue after Destroy = %v, want empty", r.screenshots)
	}
}
