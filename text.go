package timeline

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// defaultFontSize is used when a text node is created with a size <= 0.
const defaultFontSize = 12

var (
	fontOnce   sync.Once
	fontSource *text.GoTextFaceSource
	fontErr    error
)

// labelFace returns the Go Regular face at the given size. The face source is
// parsed once and shared; faces themselves are cheap value wrappers.
func labelFace(size float64) (*text.GoTextFace, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if fontErr != nil {
			fontErr = fmt.Errorf("timeline: failed to parse label font: %w", fontErr)
		}
	})
	if fontErr != nil {
		return nil, fontErr
	}
	if size <= 0 {
		size = defaultFontSize
	}
	return &text.GoTextFace{Source: fontSource, Size: size}, nil
}

// measureText returns the rendered size of a single-line label. Falls back to
// a monospace estimate if the font could not be loaded.
func measureText(s string, size float64) (w, h float64) {
	if s == "" {
		return 0, 0
	}
	if size <= 0 {
		size = defaultFontSize
	}
	face, err := labelFace(size)
	if err != nil {
		return float64(len([]rune(s))) * size * 0.6, size * 1.2
	}
	m := face.Metrics()
	return text.Measure(s, face, m.HAscent+m.HDescent+m.HLineGap)
}

// truncateText shortens s with a trailing ellipsis so that it fits maxWidth.
// Returns "" when not even the ellipsis fits.
func truncateText(s string, size, maxWidth float64) string {
	if w, _ := measureText(s, size); w <= maxWidth {
		return s
	}
	runes := []rune(s)
	for i := len(runes) - 1; i > 0; i-- {
		candidate := string(runes[:i]) + "…"
		if w, _ := measureText(candidate, size); w <= maxWidth {
			return candidate
		}
	}
	return ""
}
