package timeline

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestMonitor(reg prometheus.Registerer) (*PerformanceMonitor, *manualClock, *int) {
	clock := &manualClock{now: time.Unix(1000, 0)}
	p := NewPerformanceMonitor(clock.Now, reg)
	reads := 0
	p.readMem = func() uint64 {
		reads++
		return uint64(reads) * 1024
	}
	return p, clock, &reads
}

func TestPerformanceMonitorFPS(t *testing.T) {
	p, clock, _ := newTestMonitor(nil)
	for i := 0; i < 32; i++ {
		p.RecordFrame(10, 100)
		clock.advance(time.Second / 30)
	}
	m := p.Metrics()
	if m.FPS < 29 || m.FPS > 31 {
		t.Errorf("FPS = %v, want ~30", m.FPS)
	}
	if m.FrameTime != time.Second/30 {
		t.Errorf("FrameTime = %v, want %v", m.FrameTime, time.Second/30)
	}
	if m.DrawCalls != 10 || m.TotalObjects != 100 {
		t.Errorf("DrawCalls/TotalObjects = %d/%d, want 10/100", m.DrawCalls, m.TotalObjects)
	}
}

func TestPerformanceMonitorMemorySampling(t *testing.T) {
	p, clock, reads := newTestMonitor(nil)
	for i := 0; i < 10; i++ {
		p.RecordFrame(1, 1)
		clock.advance(50 * time.Millisecond)
	}
	if *reads != 1 {
		t.Errorf("memory reads = %d, want 1 within a second", *reads)
	}
	clock.advance(time.Second)
	p.RecordFrame(1, 1)
	if *reads != 2 {
		t.Errorf("memory reads = %d, want 2", *reads)
	}
	if got := p.Metrics().MemoryUsage; got != 2048 {
		t.Errorf("MemoryUsage = %d, want 2048", got)
	}
}

func TestPerformanceMonitorUpdatesAndRecoveries(t *testing.T) {
	p, clock, _ := newTestMonitor(nil)
	p.RecordUpdate()
	if got := p.Metrics().LastUpdateTime; !got.Equal(clock.now) {
		t.Errorf("LastUpdateTime = %v, want %v", got, clock.now)
	}
	p.RecordRecovery()
	p.RecordRecovery()
	if got := p.Metrics().Recoveries; got != 2 {
		t.Errorf("Recoveries = %d, want 2", got)
	}
}

func TestPerformanceMonitorPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, clock, _ := newTestMonitor(reg)

	p.RecordFrame(7, 42)
	clock.advance(time.Second)
	p.RecordFrame(9, 40)
	p.RecordUpdate()
	p.RecordRecovery()

	if got := testutil.ToFloat64(p.gauges.drawCalls); got != 9 {
		t.Errorf("timeline_draw_calls = %v, want 9", got)
	}
	if got := testutil.ToFloat64(p.gauges.objects); got != 40 {
		t.Errorf("timeline_scene_objects = %v, want 40", got)
	}
	if got := testutil.ToFloat64(p.gauges.fps); got != 2 {
		t.Errorf("timeline_fps = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.gauges.updates); got != 1 {
		t.Errorf("timeline_scene_updates_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.gauges.recovered); got != 1 {
		t.Errorf("timeline_recoveries_total = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(p.gauges.frameTime); got != 1 {
		t.Errorf("frame histogram series = %d, want 1", got)
	}

	p.Destroy()
	p.Destroy()
	if n, err := testutil.GatherAndCount(reg); err != nil || n != 0 {
		t.Errorf("GatherAndCount after Destroy = (%d, %v), want (0, nil)", n, err)
	}
	p.RecordFrame(1, 1)
	if got := p.Metrics().DrawCalls; got != 9 {
		t.Errorf("DrawCalls after Destroy = %d, want unchanged 9", got)
	}
}
