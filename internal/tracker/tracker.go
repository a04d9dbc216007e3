package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
)

// DefaultQueueSize bounds the event channel.
const DefaultQueueSize = 64

// State is the tracker's focus state.
type State int

const (
	// StateIdle means no focused window is known.
	StateIdle State = iota
	// StateTracking means the focused window and its display are cached.
	StateTracking
)

func (s State) String() string {
	if s == StateTracking {
		return "tracking"
	}
	return "idle"
}

// DisplaySource enumerates the current displays.
type DisplaySource interface {
	Displays() ([]overlay.DisplayInfo, error)
}

// DisplaySourceFunc adapts a function to DisplaySource.
type DisplaySourceFunc func() ([]overlay.DisplayInfo, error)

func (f DisplaySourceFunc) Displays() ([]overlay.DisplayInfo, error) {
	return f()
}

// Renderer applies overlay states to on-screen surfaces.
type Renderer interface {
	RebuildForTopology(displays []overlay.DisplayInfo, cfg overlay.CalculationConfig) error
	UpdateOverlays(states []overlay.DisplayState) error
	HideAll()
	Stats() renderer.Stats
}

// Options configures a Tracker.
type Options struct {
	Displays  DisplaySource
	Renderer  Renderer
	Config    overlay.CalculationConfig
	Paused    bool
	QueueSize int
	Logger    *slog.Logger

	// OnPauseChanged runs on the tracker goroutine after the pause state
	// actually changes.
	OnPauseChanged func(paused bool)
}

// Status is a point-in-time copy of the tracker state, safe to read from any
// goroutine.
type Status struct {
	State          string                `json:"state"`
	Paused         bool                  `json:"paused"`
	Mode           string                `json:"mode"`
	FocusedWindow  uint32                `json:"focused_window,omitempty"`
	FocusedDisplay int                   `json:"focused_display"`
	FocusedBounds  geometry.Rect         `json:"focused_bounds"`
	Displays       []overlay.DisplayInfo `json:"displays"`
	Events         uint64                `json:"events"`
	Renders        uint64                `json:"renders"`
	Rebuilds       uint64                `json:"rebuilds"`
	Renderer       renderer.Stats        `json:"renderer"`
}

// Tracker turns focus, geometry, topology and pause notifications into
// overlay updates. Notifications may be posted from any goroutine; all state
// is owned by the goroutine running Run.
type Tracker struct {
	displays       DisplaySource
	renderer       Renderer
	logger         *slog.Logger
	onPauseChanged func(bool)

	events chan Event
	calc   *overlay.Calculator

	// Owned by the Run goroutine.
	cfg          overlay.CalculationConfig
	topology     []overlay.DisplayInfo
	state        State
	window       uint32
	bounds       geometry.Rect
	focusedIndex int
	paused       bool
	eventCount   uint64
	renderCount  uint64
	rebuildCount uint64

	mu     sync.RWMutex
	status Status
}

// New creates a tracker. Run must be called to start processing events.
func New(opts Options) *Tracker {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		displays:       opts.Displays,
		renderer:       opts.Renderer,
		logger:         logger,
		onPauseChanged: opts.OnPauseChanged,
		events:         make(chan Event, size),
		calc:           overlay.NewCalculator(0),
		cfg:            opts.Config,
		focusedIndex:   overlay.NoDisplay,
		paused:         opts.Paused,
	}
	t.publish(true)
	return t
}

// Post queues ev for the tracker goroutine, blocking while the queue is full.
func (t *Tracker) Post(ctx context.Context, ev Event) error {
	select {
	case t.events <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("post %s event: %w", ev.Kind, ctx.Err())
	}
}

// Run enumerates displays, builds the surface pool and processes events
// until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	t.logger.Info("tracker started",
		"mode", t.cfg.Mode.String(),
		"paused", t.paused)

	t.safely(func() { t.rebuildTopology() })

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopped")
			return
		case ev := <-t.events:
			t.safely(func() { t.handle(ev) })
		}
	}
}

// Status returns a copy of the latest published state.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.status
	s.Displays = append([]overlay.DisplayInfo(nil), t.status.Displays...)
	return s
}

func (t *Tracker) safely(fn func()) {
	// Recover from panics to keep the daemon running
	defer func() {
		if err := recover(); err != nil {
			t.logger.Error("tracker panic recovered", "error", err)
		}
	}()
	fn()
}

func (t *Tracker) handle(ev Event) {
	t.eventCount++
	switch ev.Kind {
	case EventForegroundChanged:
		t.handleForeground(ev.Window, ev.Bounds)
	case EventGeometryChanged:
		t.handleGeometry(ev.Window, ev.Bounds)
	case EventTopologyChanged:
		t.rebuildTopology()
	case EventPauseRequested:
		t.setPaused(ev.Paused)
	case EventPauseToggled:
		t.setPaused(!t.paused)
	case EventConfigChanged:
		t.cfg = ev.Config
		t.logger.Info("dimming config changed", "mode", t.cfg.Mode.String())
		t.render(true)
		t.publish(false)
	default:
		t.logger.Warn("unknown tracker event", "kind", ev.Kind.String())
	}
}

func (t *Tracker) handleForeground(window uint32, bounds geometry.Rect) {
	if window == 0 {
		if t.state == StateIdle {
			return
		}
		t.logger.Debug("focus lost")
		t.state = StateIdle
		t.window = 0
		t.bounds = geometry.Rect{}
		t.focusedIndex = overlay.NoDisplay
		t.render(true)
		return
	}

	idx := t.resolveDisplay(bounds)
	unchanged := t.state == StateTracking && idx == t.focusedIndex && bounds == t.bounds
	t.state = StateTracking
	t.window = window
	if unchanged {
		t.publish(false)
		return
	}

	t.logger.Debug("foreground changed", "window", window, "display", idx)
	t.bounds = bounds
	t.focusedIndex = idx
	t.render(true)
}

func (t *Tracker) handleGeometry(window uint32, bounds geometry.Rect) {
	if t.state != StateTracking || window != t.window {
		return
	}
	if bounds == t.bounds {
		return
	}
	idx := t.resolveDisplay(bounds)
	t.bounds = bounds

	// Only display identity matters when whole displays are dimmed.
	if t.cfg.Mode == overlay.ModeFullScreen && idx == t.focusedIndex {
		return
	}
	t.focusedIndex = idx
	t.render(true)
}

func (t *Tracker) setPaused(paused bool) {
	if paused == t.paused {
		return
	}
	t.paused = paused
	t.logger.Info("pause state changed", "paused", paused)
	if paused {
		t.renderer.HideAll()
	} else {
		t.render(true)
	}
	t.publish(false)
	if t.onPauseChanged != nil {
		t.onPauseChanged(paused)
	}
}

// rebuildTopology re-enumerates displays, rebuilds the surface pool and
// re-renders with the cached focus.
func (t *Tracker) rebuildTopology() {
	displays, err := t.displays.Displays()
	if err != nil {
		t.logger.Error("display enumeration failed", "error", err)
		return
	}
	t.topology = displays
	t.rebuildCount++
	t.calc.Reset()

	if err := t.renderer.RebuildForTopology(displays, t.cfg); err != nil {
		t.logger.Warn("surface pool partially rebuilt", "error", err)
	}

	if t.state == StateTracking {
		t.focusedIndex = t.resolveDisplay(t.bounds)
	} else {
		t.focusedIndex = overlay.NoDisplay
	}
	t.logger.Info("display topology updated",
		"displays", len(displays),
		"focused_display", t.focusedIndex)

	t.render(false)
	t.publish(true)
}

// render recalculates and applies overlays. A stale display index or an
// update the renderer cannot place triggers one full topology rebuild when
// allowRebuild is set.
func (t *Tracker) render(allowRebuild bool) {
	if t.paused {
		return
	}
	if t.focusedIndex != overlay.NoDisplay && !t.hasDisplay(t.focusedIndex) {
		if allowRebuild {
			t.logger.Warn("focused display no longer exists, rebuilding", "display", t.focusedIndex)
			t.rebuildTopology()
			return
		}
		t.focusedIndex = overlay.NoDisplay
	}

	var focused *geometry.Rect
	if t.state == StateTracking {
		focused = &t.bounds
	}
	states := t.calc.Calculate(t.topology, focused, t.focusedIndex, t.cfg)
	err := t.renderer.UpdateOverlays(states)
	t.renderCount++
	if err != nil {
		if errors.Is(err, renderer.ErrUnknownDisplay) && allowRebuild {
			t.logger.Warn("surface pool out of date, rebuilding", "error", err)
			t.rebuildTopology()
			return
		}
		t.logger.Warn("overlay update incomplete", "error", err)
	}
	t.publish(false)
}

// resolveDisplay picks the display holding the window's center, falling back
// to the one with the largest overlap.
func (t *Tracker) resolveDisplay(bounds geometry.Rect) int {
	cx, cy := bounds.Center()
	for i := range t.topology {
		if t.topology[i].Bounds.ContainsPoint(cx, cy) {
			return t.topology[i].Index
		}
	}
	best, bestArea := overlay.NoDisplay, 0
	for i := range t.topology {
		if area := bounds.Intersect(t.topology[i].Bounds).Area(); area > bestArea {
			best, bestArea = t.topology[i].Index, area
		}
	}
	return best
}

func (t *Tracker) hasDisplay(index int) bool {
	for i := range t.topology {
		if t.topology[i].Index == index {
			return true
		}
	}
	return false
}

// publish mirrors owner state into the status snapshot. The display list is
// only copied when it changed.
func (t *Tracker) publish(displays bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.State = t.state.String()
	t.status.Paused = t.paused
	t.status.Mode = t.cfg.Mode.String()
	t.status.FocusedWindow = t.window
	t.status.FocusedDisplay = t.focusedIndex
	t.status.FocusedBounds = t.bounds
	t.status.Events = t.eventCount
	t.status.Renders = t.renderCount
	t.status.Rebuilds = t.rebuildCount
	if t.renderer != nil {
		t.status.Renderer = t.renderer.Stats()
	}
	if displays {
		t.status.Displays = append(t.status.Displays[:0:0], t.topology...)
	}
}
