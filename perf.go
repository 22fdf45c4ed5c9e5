package timeline

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	fpsWindow         = time.Second
	memSampleInterval = time.Second
)

// Metrics is a pull-based snapshot of render performance. It is advisory
// and never drives rendering decisions.
type Metrics struct {
	FPS          float64
	FrameTime    time.Duration
	DrawCalls    int // estimated, one per submitted primitive
	TotalObjects int
	// MemoryUsage is the Go heap in bytes, sampled at most once per second.
	MemoryUsage    uint64
	LastUpdateTime time.Time
	Recoveries     int
}

type perfGauges struct {
	fps       prometheus.Gauge
	frameTime prometheus.Histogram
	drawCalls prometheus.Gauge
	objects   prometheus.Gauge
	memory    prometheus.Gauge
	updates   prometheus.Counter
	recovered prometheus.Counter
}

func (g *perfGauges) collectors() []prometheus.Collector {
	return []prometheus.Collector{g.fps, g.frameTime, g.drawCalls, g.objects, g.memory, g.updates, g.recovered}
}

func newPerfGauges(reg prometheus.Registerer) *perfGauges {
	f := promauto.With(reg)
	return &perfGauges{
		fps: f.NewGauge(prometheus.GaugeOpts{
			Name: "timeline_fps",
			Help: "Frames drawn per second over the last window",
		}),
		frameTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "timeline_frame_seconds",
			Help:    "Time between consecutive frames",
			Buckets: []float64{0.004, 0.008, 0.016, 0.033, 0.05, 0.1, 0.25},
		}),
		drawCalls: f.NewGauge(prometheus.GaugeOpts{
			Name: "timeline_draw_calls",
			Help: "Estimated draw calls in the last frame",
		}),
		objects: f.NewGauge(prometheus.GaugeOpts{
			Name: "timeline_scene_objects",
			Help: "Nodes in the retained scene tree",
		}),
		memory: f.NewGauge(prometheus.GaugeOpts{
			Name: "timeline_heap_bytes",
			Help: "Go heap in use, sampled at most once per second",
		}),
		updates: f.NewCounter(prometheus.CounterOpts{
			Name: "timeline_scene_updates_total",
			Help: "Snapshots applied to the scene graph",
		}),
		recovered: f.NewCounter(prometheus.CounterOpts{
			Name: "timeline_recoveries_total",
			Help: "Full clear-and-redraw recovery passes",
		}),
	}
}

// PerformanceMonitor samples frame timing and scene size.
type PerformanceMonitor struct {
	clock   func() time.Time
	readMem func() uint64
	reg     prometheus.Registerer
	gauges  *perfGauges

	metrics       Metrics
	windowStart   time.Time
	windowFrames  int
	lastFrame     time.Time
	lastMemSample time.Time
	destroyed     bool
}

// NewPerformanceMonitor creates a monitor. When reg is non-nil its metrics
// are also exported as Prometheus collectors registered on reg.
func NewPerformanceMonitor(clock func() time.Time, reg prometheus.Registerer) *PerformanceMonitor {
	if clock == nil {
		clock = time.Now
	}
	return &PerformanceMonitor{
		clock:   clock,
		readMem: heapAlloc,
		reg:     reg,
		gauges:  newPerfGauges(reg),
	}
}

func heapAlloc() uint64 {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return mem.HeapAlloc
}

// RecordFrame samples one drawn frame.
func (p *PerformanceMonitor) RecordFrame(drawCalls, objects int) {
	if p.destroyed {
		return
	}
	now := p.clock()
	if !p.lastFrame.IsZero() {
		p.metrics.FrameTime = now.Sub(p.lastFrame)
		p.gauges.frameTime.Observe(p.metrics.FrameTime.Seconds())
	}
	p.lastFrame = now

	if p.windowStart.IsZero() {
		p.windowStart = now
	}
	p.windowFrames++
	if elapsed := now.Sub(p.windowStart); elapsed >= fpsWindow {
		p.metrics.FPS = float64(p.windowFrames) / elapsed.Seconds()
		p.windowStart = now
		p.windowFrames = 0
		p.gauges.fps.Set(p.metrics.FPS)
	}

	p.metrics.DrawCalls = drawCalls
	p.metrics.TotalObjects = objects
	p.gauges.drawCalls.Set(float64(drawCalls))
	p.gauges.objects.Set(float64(objects))

	if p.lastMemSample.IsZero() || now.Sub(p.lastMemSample) >= memSampleInterval {
		p.lastMemSample = now
		p.metrics.MemoryUsage = p.readMem()
		p.gauges.memory.Set(float64(p.metrics.MemoryUsage))
	}
}

// RecordUpdate marks a snapshot as applied.
func (p *PerformanceMonitor) RecordUpdate() {
	if p.destroyed {
		return
	}
	p.metrics.LastUpdateTime = p.clock()
	p.gauges.updates.Inc()
}

// RecordRecovery counts a recovery pass.
func (p *PerformanceMonitor) RecordRecovery() {
	if p.destroyed {
		return
	}
	p.metrics.Recoveries++
	p.gauges.recovered.Inc()
}

// Metrics returns the latest snapshot.
func (p *PerformanceMonitor) Metrics() Metrics {
	return p.metrics
}

// Destroy unregisters exported collectors. Safe to call more than once.
func (p *PerformanceMonitor) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	if p.reg == nil {
		return
	}
	for _, c := range p.gauges.collectors() {
		p.reg.Unregister(c)
	}
}
