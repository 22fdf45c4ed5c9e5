package timeline

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// overlayInterval is how often the debug overlay text is refreshed, in
// seconds.
const overlayInterval = 0.5

// debugOverlay formats the stats line shown in the overlay layer while
// debug mode is on. It is refreshed every overlayInterval seconds.
type debugOverlay struct {
	elapsed float64
	primed  bool
}

// update advances the overlay clock by dt and reports whether the text
// should be rebuilt.
func (o *debugOverlay) update(dt float64) bool {
	o.elapsed += dt
	if o.primed && o.elapsed < overlayInterval {
		return false
	}
	o.primed = true
	o.elapsed = 0
	return true
}

// overlayText formats the overlay line. actualFPS and actualTPS are the
// loop's measured rates as reported by Ebitengine.
func overlayText(m Metrics, actualFPS, actualTPS float64, tool string) string {
	if tool == "" {
		tool = "-"
	}
	return fmt.Sprintf("FPS %.1f (loop %.1f, tps %.1f) | frame %.1fms | objects %d | draws %d | heap %.1fMiB | tool %s",
		m.FPS, actualFPS, actualTPS,
		float64(m.FrameTime.Microseconds())/1000,
		m.TotalObjects, m.DrawCalls,
		float64(m.MemoryUsage)/(1<<20),
		tool)
}

// refreshOverlay rebuilds the overlay text from the latest metrics.
func (r *Renderer) refreshOverlay(dt float64) {
	if !r.overlay.update(dt) {
		return
	}
	r.graph.SetDebugText(overlayText(r.perf.Metrics(), ebiten.ActualFPS(), ebiten.ActualTPS(), r.graph.ActiveTool()))
}
