package timeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// frameLimiter gates per-tick work to a target rate.
type frameLimiter struct {
	interval time.Duration
	last     time.Time
}

func fpsInterval(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}

// allow reports whether a tick may run at now. A tenth of the interval is
// tolerated so that a vsync-paced loop at exactly the target rate is not
// halved by jitter.
func (l *frameLimiter) allow(now time.Time) bool {
	if l.interval <= 0 || l.last.IsZero() || now.Sub(l.last) >= l.interval-l.interval/10 {
		l.last = now
		return true
	}
	return false
}

// Renderer owns a drawing surface and composes the differ, scene graph,
// interaction manager and performance monitor around it. It implements
// ebiten.Game. All methods must be called from the game loop goroutine.
type Renderer struct {
	opts    Options
	surface Surface
	graph   *SceneGraph
	input   *InteractionManager
	perf    *PerformanceMonitor
	differ  Differ

	last     *SceneState
	logger   *slog.Logger
	reporter ErrorReporter

	limiter     frameLimiter
	lastTick    time.Time
	overlay     debugOverlay
	script      *ScriptRunner
	screenshots []string

	perfMode  bool
	running   bool
	destroyed bool
}

// NewRenderer builds a renderer over surface. A nil surface creates an
// EbitenSurface from opts.Surface.
func NewRenderer(surface Surface, opts Options) (*Renderer, error) {
	opts.defaults()
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}
	if surface == nil {
		surface = NewEbitenSurface(opts.Surface)
	}
	w, h := surface.Size()
	r := &Renderer{
		opts:     opts,
		surface:  surface,
		differ:   Differ{IgnoreCollaborators: !opts.EnableCollaboratorCursors},
		logger:   opts.Logger.With("component", "timeline"),
		reporter: opts.Reporter,
		limiter:  frameLimiter{interval: fpsInterval(opts.MaxFPS)},
	}
	r.graph = NewSceneGraph(SceneGraphConfig{
		Width:           float64(w),
		Height:          float64(h),
		Background:      ParseColor(opts.Surface.BackgroundColor),
		Antialias:       opts.Surface.Antialias,
		WaveformCaching: opts.EnableWaveformCaching,
		OrphanPolicy:    opts.OrphanClipPolicy,
		Reporter:        opts.Reporter,
		Logger:          opts.Logger,
		Debug:           opts.EnableDebugMode,
	})
	r.input = NewInteractionManager(surface, r.graph, InteractionConfig{
		CursorBroadcastInterval: opts.CursorBroadcastInterval,
		Clock:                   opts.Clock,
	})
	r.perf = NewPerformanceMonitor(opts.Clock, opts.Registerer)
	return r, nil
}

// Graph returns the scene graph.
func (r *Renderer) Graph() *SceneGraph {
	return r.graph
}

// Surface returns the drawing surface.
func (r *Renderer) Surface() Surface {
	return r.surface
}

// SetInteractionCallback sets the single interaction callback. The last
// call wins; nil drops events.
func (r *Renderer) SetInteractionCallback(fn func(InteractionEvent)) {
	r.input.SetCallback(fn)
}

// Metrics returns the latest performance snapshot.
func (r *Renderer) Metrics() Metrics {
	return r.perf.Metrics()
}

// RenderScene diffs next against the last rendered snapshot and applies the
// difference. On failure the error is reported, the scene graph is cleared
// and next is rendered again as a first frame. Only a failure of that
// recovery pass is returned, wrapped in ErrRecoveryFailed. next must not be
// mutated after the call.
func (r *Renderer) RenderScene(next *SceneState) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if next == nil {
		return nil
	}
	if err := r.applySafe(next); err != nil {
		r.reporter.Report(err, "component", "timeline", "phase", "render")
		r.perf.RecordRecovery()
		r.graph.Clear()
		r.last = nil
		if err := r.apply(next); err != nil {
			return fmt.Errorf("%w: %w", ErrRecoveryFailed, err)
		}
	}
	cp := *next
	r.last = &cp
	r.perf.RecordUpdate()
	return nil
}

// applySafe runs apply and turns a panic into an error.
func (r *Renderer) applySafe(next *SceneState) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("render scene: panic: %v", v)
		}
	}()
	return r.apply(next)
}

func (r *Renderer) apply(next *SceneState) error {
	d := r.differ.CalculateDiff(r.last, next)
	if d.Empty() {
		return nil
	}
	if err := r.graph.Apply(&d, next); err != nil {
		return fmt.Errorf("render scene: %w", err)
	}
	if p := d.Viewport; p != nil && p.Fields.Has(ViewportWidth|ViewportHeight) {
		r.followViewport(int(next.Viewport.Width), int(next.Viewport.Height))
	}
	return nil
}

// followViewport resizes the surface, and the window while running, to a
// snapshot's viewport. The graph has already been resized by Apply.
func (r *Renderer) followViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if w, h := r.surface.Size(); w == width && h == height {
		return
	}
	r.surface.Resize(width, height)
	if r.running {
		ebiten.SetWindowSize(width, height)
	}
}

// Resize resizes the surface and re-derives the scene's background and grid.
func (r *Renderer) Resize(width, height int) {
	if r.destroyed {
		return
	}
	r.resize(width, height)
	if r.running {
		ebiten.SetWindowSize(width, height)
	}
}

func (r *Renderer) resize(width, height int) {
	r.surface.Resize(width, height)
	r.graph.HandleResize(float64(width), float64(height))
}

// SetPerformanceMode caps the loop rate at Options.PerformanceModeFPS and
// reduces clip fidelity while on.
func (r *Renderer) SetPerformanceMode(on bool) {
	if r.destroyed || r.perfMode == on {
		return
	}
	r.perfMode = on
	fps := r.opts.MaxFPS
	if on {
		fps = r.opts.PerformanceModeFPS
	}
	r.limiter.interval = fpsInterval(fps)
	if r.running && fps > 0 {
		ebiten.SetTPS(fps)
	}
	r.graph.SetReducedFidelity(on)
	r.logger.Info("performance mode", "enabled", on, "fps", fps)
}

// PerformanceMode reports whether performance mode is on.
func (r *Renderer) PerformanceMode() bool {
	return r.perfMode
}

// Update is the loop tick: input poll, then animation advance at the
// limited rate.
func (r *Renderer) Update() error {
	if r.destroyed {
		return ebiten.Termination
	}
	if r.script != nil {
		if inj, ok := r.surface.(Injector); ok {
			r.script.step(inj, r.Screenshot)
		}
	}
	r.surface.Poll()
	now := r.opts.Clock()
	if !r.limiter.allow(now) {
		return nil
	}
	dt := 1 / float64(ebiten.TPS())
	if !r.lastTick.IsZero() {
		dt = now.Sub(r.lastTick).Seconds()
	}
	r.lastTick = now
	r.graph.Tick(dt)
	if r.opts.EnableDebugMode {
		r.refreshOverlay(dt)
	}
	return nil
}

// Draw submits the retained tree and samples frame metrics.
func (r *Renderer) Draw(screen *ebiten.Image) {
	if r.destroyed {
		return
	}
	stats := r.graph.Draw(screen)
	r.perf.RecordFrame(stats.DrawCalls, r.graph.ObjectCount())
	r.flushScreenshots(screen)
}

// Layout reports the surface size as the logical screen size. While Run is
// active, a resized window resizes the surface.
func (r *Renderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := r.surface.Size()
	if r.running && !r.destroyed && outsideWidth > 0 && outsideHeight > 0 &&
		(outsideWidth != w || outsideHeight != h) {
		r.resize(outsideWidth, outsideHeight)
		return outsideWidth, outsideHeight
	}
	return w, h
}

// Run opens a window and runs the render loop until Destroy is called or
// the window is closed.
func (r *Renderer) Run(title string) error {
	return r.RunGame(title, r)
}

// RunGame is Run with game driving the loop in place of the renderer. game
// must forward Update, Draw and Layout to the renderer so that window
// resizes and viewport changes reach the surface.
func (r *Renderer) RunGame(title string, game ebiten.Game) error {
	if r.destroyed {
		return ErrDestroyed
	}
	w, h := r.surface.Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if r.opts.MaxFPS > 0 {
		ebiten.SetTPS(r.opts.MaxFPS)
	}
	r.running = true
	defer func() { r.running = false }()
	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// Destroy tears down the scene graph, the interaction manager, the
// performance monitor and the surface, in that order.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.graph.Destroy()
	r.input.Destroy()
	r.perf.Destroy()
	r.surface.Destroy()
	r.last = nil
	r.script = nil
	r.screenshots = nil
}
