package timeline

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gg"
)

// waveformAmplitude is the fraction of half the clip height a full-scale
// sample reaches.
const waveformAmplitude = 0.9

// maxWaveformWidth bounds rasterised waveform images at extreme zoom.
const maxWaveformWidth = 8192

// waveformKey identifies one rasterised waveform. The sample hash covers
// both points and peaks so that equal audio shares the key.
type waveformKey struct {
	width, height int
	hash          uint64
	color         Color
}

type waveformEntry struct {
	key waveformKey
	img image.Image
}

// waveformCache keeps one rasterised image per clip and rebuilds it only
// when the clip's audio, pixel size or colour change.
type waveformCache struct {
	entries map[string]waveformEntry
	hits    int
	misses  int
}

func newWaveformCache() *waveformCache {
	return &waveformCache{entries: make(map[string]waveformEntry)}
}

// image returns the cached image for clipID, rasterising on a miss.
func (c *waveformCache) image(clipID string, audio *AudioSummary, width, height int, clr Color) (image.Image, error) {
	key := waveformKey{width: width, height: height, hash: audioHash(audio), color: clr}
	if e, ok := c.entries[clipID]; ok && e.key == key {
		c.hits++
		return e.img, nil
	}
	c.misses++
	img, err := rasterizeWaveform(audio, width, height, clr)
	if err != nil {
		return nil, err
	}
	c.entries[clipID] = waveformEntry{key: key, img: img}
	return img, nil
}

func (c *waveformCache) evict(clipID string) {
	delete(c.entries, clipID)
}

func (c *waveformCache) reset() {
	clear(c.entries)
}

func (c *waveformCache) len() int {
	return len(c.entries)
}

func audioHash(a *AudioSummary) uint64 {
	if a == nil {
		return 0
	}
	d := xxhash.New()
	var buf [8]byte
	for _, v := range a.WaveformPoints {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	// Separator so that moving a sample between the two slices changes the hash.
	_, _ = d.Write([]byte{0xff})
	for _, v := range a.Peaks {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// waveformSamples picks the signal to draw: the waveform points when
// present, otherwise the peaks.
func waveformSamples(a *AudioSummary) []float64 {
	if a == nil {
		return nil
	}
	if len(a.WaveformPoints) > 0 {
		return a.WaveformPoints
	}
	return a.Peaks
}

// waveformPath maps samples onto a width x height box centred vertically.
func waveformPath(samples []float64, width, height float64) []Vec2 {
	if len(samples) < 2 || width <= 0 || height <= 0 {
		return nil
	}
	mid := height / 2
	step := width / float64(len(samples)-1)
	pts := make([]Vec2, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		pts[i] = Vec2{X: float64(i) * step, Y: mid - s*mid*waveformAmplitude}
	}
	return pts
}

// rasterizeWaveform draws the sample path and, when present, mirrored peak
// bars into a CPU image.
func rasterizeWaveform(a *AudioSummary, width, height int, clr Color) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rasterize waveform: invalid size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	defer func() { _ = dc.Close() }()

	w, h := float64(width), float64(height)
	mid := h / 2
	if a != nil && len(a.Peaks) > 0 {
		dc.SetRGBA(clr.R, clr.G, clr.B, clr.A*0.35)
		bar := w / float64(len(a.Peaks))
		for i, p := range a.Peaks {
			amp := math.Max(0, math.Min(1, p)) * mid * waveformAmplitude
			dc.DrawRectangle(float64(i)*bar, mid-amp, math.Max(bar-1, 1), amp*2)
		}
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("rasterize waveform peaks: %w", err)
		}
	}
	if pts := waveformPath(waveformSamples(a), w, h); len(pts) > 0 {
		dc.SetRGBA(clr.R, clr.G, clr.B, clr.A)
		dc.SetLineWidth(1)
		dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("rasterize waveform path: %w", err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("rasterize waveform flush: %w", err)
	}
	return dc.Image(), nil
}
