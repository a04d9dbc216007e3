package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
)

type fakeDisplays struct {
	displays []overlay.DisplayInfo
	err      error
	calls    int
}

func (f *fakeDisplays) Displays() ([]overlay.DisplayInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]overlay.DisplayInfo(nil), f.displays...), nil
}

type fakeRenderer struct {
	rebuilds  int
	rebuiltTo []overlay.DisplayInfo
	updates   [][]overlay.DisplayState
	hides     int
	updateErr error
}

func (f *fakeRenderer) RebuildForTopology(displays []overlay.DisplayInfo, cfg overlay.CalculationConfig) error {
	f.rebuilds++
	f.rebuiltTo = append([]overlay.DisplayInfo(nil), displays...)
	return nil
}

func (f *fakeRenderer) UpdateOverlays(states []overlay.DisplayState) error {
	f.updates = append(f.updates, append([]overlay.DisplayState(nil), states...))
	err := f.updateErr
	f.updateErr = nil
	return err
}

func (f *fakeRenderer) HideAll() { f.hides++ }

func (f *fakeRenderer) Stats() renderer.Stats { return renderer.Stats{Updates: uint64(len(f.updates))} }

func (f *fakeRenderer) last() []overlay.DisplayState {
	if len(f.updates) == 0 {
		return nil
	}
	return f.updates[len(f.updates)-1]
}

var dualHead = []overlay.DisplayInfo{
	{Index: 0, Bounds: geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
	{Index: 1, Bounds: geometry.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}},
}

func newTestTracker(t *testing.T, mode overlay.Mode) (*Tracker, *fakeDisplays, *fakeRenderer) {
	t.Helper()
	src := &fakeDisplays{displays: dualHead}
	rend := &fakeRenderer{}
	tr := New(Options{
		Displays: src,
		Renderer: rend,
		Config: overlay.CalculationConfig{
			Mode:            mode,
			InactiveOpacity: 153,
			ActiveOpacity:   102,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	tr.rebuildTopology()
	return tr, src, rend
}

func TestInitialTopologyRendersIdle(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	if rend.rebuilds != 1 || len(rend.updates) != 1 {
		t.Fatalf("rebuilds=%d updates=%d", rend.rebuilds, len(rend.updates))
	}
	for _, s := range rend.last() {
		if !s.Overlays[overlay.RegionFullScreen].Visible {
			t.Fatalf("idle display %d not dimmed", s.DisplayIndex)
		}
	}
	if st := tr.Status(); st.State != "idle" || len(st.Displays) != 2 {
		t.Fatalf("status = %+v", st)
	}
}

func TestForegroundResolvesDisplay(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}
	tr.handle(ForegroundChanged(42, win))

	if tr.focusedIndex != 1 || tr.state != StateTracking {
		t.Fatalf("focused=%d state=%v", tr.focusedIndex, tr.state)
	}
	states := rend.last()
	if states[1].VisibleCount() != 4 || states[0].VisibleCount() != 1 {
		t.Fatalf("visible counts = %d/%d", states[0].VisibleCount(), states[1].VisibleCount())
	}
}

func TestForegroundStraddlingUsesCenter(t *testing.T) {
	tr, _, _ := newTestTracker(t, overlay.ModePartial)
	// Center at x=1950 lies on display 1 even though most of the left half is on 0.
	tr.handle(ForegroundChanged(7, geometry.Rect{X: 1700, Y: 0, Width: 500, Height: 400}))
	if tr.focusedIndex != 1 {
		t.Fatalf("focused = %d, want 1", tr.focusedIndex)
	}
}

func TestDuplicateForegroundIsNoop(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	win := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	tr.handle(ForegroundChanged(42, win))
	n := len(rend.updates)

	tr.handle(ForegroundChanged(42, win))
	tr.handle(ForegroundChanged(43, win))
	if len(rend.updates) != n {
		t.Fatalf("duplicate foreground rendered %d more times", len(rend.updates)-n)
	}
	if tr.window != 43 {
		t.Fatalf("window = %d, want 43", tr.window)
	}
}

func TestGeometryRecalculatesInPartialModes(t *testing.T) {
	for _, mode := range []overlay.Mode{overlay.ModePartial, overlay.ModePartialWithActive} {
		tr, _, rend := newTestTracker(t, mode)
		win := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
		tr.handle(ForegroundChanged(42, win))
		n := len(rend.updates)

		for i := 1; i <= 5; i++ {
			win.X += 10
			tr.handle(GeometryChanged(42, win))
		}
		if got := len(rend.updates) - n; got != 5 {
			t.Fatalf("%v: %d renders for 5 drag events", mode, got)
		}
		left := rend.last()[0].Overlays[overlay.RegionLeft]
		if left.Bounds.Width != 150 {
			t.Fatalf("%v: left width = %d, want 150", mode, left.Bounds.Width)
		}
	}
}

func TestGeometrySkippedInFullScreenMode(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModeFullScreen)
	win := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	tr.handle(ForegroundChanged(42, win))
	n := len(rend.updates)

	for i := 0; i < 20; i++ {
		win.X += 5
		tr.handle(GeometryChanged(42, win))
	}
	if len(rend.updates) != n {
		t.Fatalf("fullscreen drag rendered %d times", len(rend.updates)-n)
	}

	// Crossing to the other display does matter.
	win.X = 2500
	tr.handle(GeometryChanged(42, win))
	if len(rend.updates) != n+1 || tr.focusedIndex != 1 {
		t.Fatalf("display change not rendered: updates=%d focused=%d", len(rend.updates)-n, tr.focusedIndex)
	}
}

func TestGeometryOfOtherWindowIgnored(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}))
	n := len(rend.updates)
	tr.handle(GeometryChanged(99, geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}))
	if len(rend.updates) != n {
		t.Fatalf("geometry of unfocused window rendered")
	}
}

func TestFocusLostReturnsToIdle(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}))
	tr.handle(ForegroundChanged(0, geometry.Rect{}))
	if tr.state != StateIdle || tr.focusedIndex != overlay.NoDisplay {
		t.Fatalf("state=%v focused=%d", tr.state, tr.focusedIndex)
	}
	for _, s := range rend.last() {
		if s.VisibleCount() != 1 {
			t.Fatalf("display %d visible = %d", s.DisplayIndex, s.VisibleCount())
		}
	}
}

func TestTopologyShrinkFallsBack(t *testing.T) {
	tr, src, rend := newTestTracker(t, overlay.ModePartial)
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}))

	src.displays = dualHead[:1]
	tr.handle(TopologyChanged())

	if rend.rebuilds != 2 || len(rend.rebuiltTo) != 1 {
		t.Fatalf("renderer not rebuilt for new topology: rebuilds=%d", rend.rebuilds)
	}
	if tr.focusedIndex != overlay.NoDisplay {
		t.Fatalf("focused = %d, want %d", tr.focusedIndex, overlay.NoDisplay)
	}
	last := rend.last()
	if len(last) != 1 || last[0].VisibleCount() != 1 {
		t.Fatalf("remaining display should be fully dimmed: %+v", last)
	}
}

func TestTopologyKeepsFocusOnSurvivingDisplay(t *testing.T) {
	tr, src, rend := newTestTracker(t, overlay.ModePartial)
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}))
	src.displays = dualHead[:1]
	tr.handle(TopologyChanged())
	if tr.focusedIndex != 0 {
		t.Fatalf("focused = %d, want 0", tr.focusedIndex)
	}
	if rend.last()[0].VisibleCount() != 4 {
		t.Fatalf("focused display should keep its edges")
	}
}

func TestStaleDisplayTriggersRebuild(t *testing.T) {
	tr, src, rend := newTestTracker(t, overlay.ModePartial)
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}))

	// Display 1 vanished before the topology notification arrived.
	src.displays = dualHead[:1]
	tr.topology = tr.topology[:1]
	tr.handle(ConfigChanged(tr.cfg))

	if rend.rebuilds != 2 {
		t.Fatalf("stale index did not rebuild: rebuilds=%d", rend.rebuilds)
	}
	if tr.focusedIndex != overlay.NoDisplay {
		t.Fatalf("focused = %d", tr.focusedIndex)
	}
}

func TestUnknownDisplayErrorTriggersRebuild(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	rend.updateErr = renderer.ErrUnknownDisplay
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}))
	if rend.rebuilds != 2 {
		t.Fatalf("rebuilds = %d, want 2", rend.rebuilds)
	}
}

func TestEnumerationFailureKeepsTopology(t *testing.T) {
	tr, src, rend := newTestTracker(t, overlay.ModePartial)
	src.err = errors.New("randr unavailable")
	tr.handle(TopologyChanged())
	if rend.rebuilds != 1 || len(tr.topology) != 2 {
		t.Fatalf("failed enumeration changed state")
	}
}

func TestPauseHidesAndResumeRenders(t *testing.T) {
	var changes []bool
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	tr.onPauseChanged = func(p bool) { changes = append(changes, p) }
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}))

	tr.handle(PauseRequested(true))
	if rend.hides != 1 {
		t.Fatalf("hides = %d", rend.hides)
	}
	n := len(rend.updates)
	tr.handle(ForegroundChanged(43, geometry.Rect{X: 2100, Y: 100, Width: 800, Height: 600}))
	tr.handle(GeometryChanged(43, geometry.Rect{X: 2200, Y: 100, Width: 800, Height: 600}))
	if len(rend.updates) != n {
		t.Fatalf("rendered while paused")
	}

	tr.handle(PauseRequested(true))
	if rend.hides != 1 {
		t.Fatalf("repeated pause hid again")
	}

	tr.handle(PauseToggled())
	if len(rend.updates) != n+1 {
		t.Fatalf("resume did not render immediately")
	}
	if rend.last()[1].Overlays[overlay.RegionLeft].Bounds.Width != 280 {
		t.Fatalf("resume did not use cached focus: %+v", rend.last()[1].Overlays[overlay.RegionLeft])
	}
	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Fatalf("pause callbacks = %v", changes)
	}
}

func TestConfigChangeRerenders(t *testing.T) {
	tr, _, rend := newTestTracker(t, overlay.ModePartial)
	tr.handle(ForegroundChanged(42, geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}))
	cfg := tr.cfg
	cfg.Mode = overlay.ModePartialWithActive
	tr.handle(ConfigChanged(cfg))
	if rend.last()[0].VisibleCount() != 5 {
		t.Fatalf("config change not applied")
	}
	if tr.Status().Mode != overlay.ModeNamePartialWithActive {
		t.Fatalf("status mode = %q", tr.Status().Mode)
	}
}

func TestRunProcessesPostedEvents(t *testing.T) {
	src := &fakeDisplays{displays: dualHead}
	rend := &fakeRenderer{}
	tr := New(Options{
		Displays:  src,
		Renderer:  rend,
		Config:    overlay.CalculationConfig{Mode: overlay.ModePartial},
		QueueSize: 1,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	for i := 0; i < 10; i++ {
		win := geometry.Rect{X: 100 + i, Y: 100, Width: 800, Height: 600}
		if err := tr.Post(ctx, ForegroundChanged(42, win)); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if err := tr.Post(ctx, PauseRequested(true)); err != nil {
		t.Fatalf("Post: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !tr.Status().Paused {
		if time.Now().After(deadline) {
			t.Fatalf("tracker did not process events: %+v", tr.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}
	st := tr.Status()
	if st.Events != 11 || st.FocusedDisplay != 0 || st.State != "tracking" {
		t.Fatalf("status = %+v", st)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	if err := tr.Post(ctx, TopologyChanged()); err == nil {
		// The queue may still have room; a full queue must report the cancellation.
		for i := 0; i < 4; i++ {
			if err = tr.Post(ctx, TopologyChanged()); err != nil {
				break
			}
		}
		if err == nil {
			t.Fatalf("Post on cancelled context never failed")
		}
	}
}

// nullSurfaces accepts every surface call without recording it.
type nullSurfaces struct {
	next  renderer.Surface
	batch nullBatch
}

type nullBatch struct{}

func (nullBatch) Queue(renderer.Surface, geometry.Rect, bool) error { return nil }
func (nullBatch) Commit() error                                     { return nil }
func (nullBatch) Release()                                          {}

func (n *nullSurfaces) CreateSurface(int, overlay.Region, geometry.Color, uint8) (renderer.Surface, error) {
	n.next++
	return n.next, nil
}
func (n *nullSurfaces) DestroySurface(renderer.Surface)                             {}
func (n *nullSurfaces) BeginBatch(int) (renderer.Batch, error)                      { return &n.batch, nil }
func (n *nullSurfaces) SetGeometry(renderer.Surface, geometry.Rect, bool) error     { return nil }
func (n *nullSurfaces) SetAppearance(renderer.Surface, geometry.Color, uint8) error { return nil }
func (n *nullSurfaces) Repaint(renderer.Surface) error                              { return nil }

func TestGeometryDragDoesNotAllocate(t *testing.T) {
	for _, mode := range []overlay.Mode{overlay.ModeFullScreen, overlay.ModePartial, overlay.ModePartialWithActive} {
		t.Run(mode.String(), func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			tr := New(Options{
				Displays: &fakeDisplays{displays: dualHead},
				Renderer: renderer.New(&nullSurfaces{}, logger),
				Config: overlay.CalculationConfig{
					Mode:            mode,
					InactiveOpacity: 153,
					ActiveOpacity:   102,
				},
				Logger: logger,
			})
			tr.rebuildTopology()

			win := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
			tr.handle(ForegroundChanged(42, win))
			before := tr.renderCount

			allocs := testing.AllocsPerRun(200, func() {
				win.X++
				win.Height--
				tr.handle(GeometryChanged(42, win))
			})
			if allocs != 0 {
				t.Fatalf("drag allocated %.1f times per event", allocs)
			}
			if mode != overlay.ModeFullScreen && tr.renderCount == before {
				t.Fatalf("drag events were not rendered")
			}
		})
	}
}
