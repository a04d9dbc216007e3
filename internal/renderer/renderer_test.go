package renderer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
)

type call struct {
	op      string
	surface Surface
	bounds  geometry.Rect
	visible bool
	color   geometry.Color
	opacity uint8
}

type fakeBatch struct {
	b         *fakeBackend
	queued    []call
	committed bool
	released  int
}

func (fb *fakeBatch) Queue(s Surface, bounds geometry.Rect, visible bool) error {
	if fb.b.failQueue != 0 && s == fb.b.failQueue {
		return ErrSurfaceInvalid
	}
	fb.queued = append(fb.queued, call{op: "queue", surface: s, bounds: bounds, visible: visible})
	return nil
}

func (fb *fakeBatch) Commit() error {
	fb.b.calls = append(fb.b.calls, call{op: "commit"})
	if fb.b.failCommit != nil {
		return fb.b.failCommit
	}
	fb.committed = true
	fb.b.calls = append(fb.b.calls, fb.queued...)
	return nil
}

func (fb *fakeBatch) Release() {
	fb.released++
}

type fakeBackend struct {
	next       Surface
	calls      []call
	live       map[Surface]bool
	batches    []*fakeBatch
	failBegin  error
	failQueue  Surface
	failCommit error
	failCreate map[int]int
	invalid    map[Surface]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		live:       make(map[Surface]bool),
		failCreate: make(map[int]int),
		invalid:    make(map[Surface]bool),
	}
}

func (f *fakeBackend) CreateSurface(display int, region overlay.Region, color geometry.Color, opacity uint8) (Surface, error) {
	if n := f.failCreate[display]; n != 0 {
		if n > 0 {
			f.failCreate[display] = n - 1
		}
		return 0, errors.New("out of resources")
	}
	f.next++
	f.live[f.next] = true
	f.calls = append(f.calls, call{op: "create", surface: f.next, color: color, opacity: opacity})
	return f.next, nil
}

func (f *fakeBackend) DestroySurface(s Surface) {
	delete(f.live, s)
	f.calls = append(f.calls, call{op: "destroy", surface: s})
}

func (f *fakeBackend) BeginBatch(n int) (Batch, error) {
	f.calls = append(f.calls, call{op: "begin"})
	if f.failBegin != nil {
		return nil, f.failBegin
	}
	b := &fakeBatch{b: f}
	f.batches = append(f.batches, b)
	return b, nil
}

func (f *fakeBackend) SetGeometry(s Surface, bounds geometry.Rect, visible bool) error {
	if f.invalid[s] {
		return ErrSurfaceInvalid
	}
	f.calls = append(f.calls, call{op: "geometry", surface: s, bounds: bounds, visible: visible})
	return nil
}

func (f *fakeBackend) SetAppearance(s Surface, color geometry.Color, opacity uint8) error {
	f.calls = append(f.calls, call{op: "appearance", surface: s, color: color, opacity: opacity})
	return nil
}

func (f *fakeBackend) Repaint(s Surface) error {
	f.calls = append(f.calls, call{op: "repaint", surface: s})
	return nil
}

func (f *fakeBackend) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeBackend) reset() {
	f.calls = nil
	f.batches = nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testDisplays = []overlay.DisplayInfo{
	{Index: 0, Bounds: geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
	{Index: 1, Bounds: geometry.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}},
}

func partialConfig() overlay.CalculationConfig {
	return overlay.CalculationConfig{
		Mode:            overlay.ModePartial,
		InactiveColor:   geometry.Black,
		InactiveOpacity: 153,
		ActiveColor:     geometry.Color{R: 255, G: 255, B: 255},
		ActiveOpacity:   102,
	}
}

func setup(t *testing.T) (*Renderer, *fakeBackend, *overlay.Calculator) {
	t.Helper()
	backend := newFakeBackend()
	r := New(backend, testLogger())
	if err := r.RebuildForTopology(testDisplays, partialConfig()); err != nil {
		t.Fatalf("RebuildForTopology: %v", err)
	}
	backend.reset()
	return r, backend, overlay.NewCalculator(len(testDisplays))
}

func TestRebuildCreatesHiddenPool(t *testing.T) {
	backend := newFakeBackend()
	r := New(backend, testLogger())
	if err := r.RebuildForTopology(testDisplays, partialConfig()); err != nil {
		t.Fatalf("RebuildForTopology: %v", err)
	}
	if got := backend.count("create"); got != 2*overlay.RegionCount {
		t.Fatalf("created %d surfaces, want %d", got, 2*overlay.RegionCount)
	}
	def, ok := r.Applied(1, overlay.RegionCenter)
	if !ok || def.Visible || def.Opacity != 102 {
		t.Fatalf("center slot = %+v, ok=%v", def, ok)
	}

	if err := r.RebuildForTopology(testDisplays[:1], partialConfig()); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if len(backend.live) != overlay.RegionCount {
		t.Fatalf("%d live surfaces after shrinking, want %d", len(backend.live), overlay.RegionCount)
	}
	if _, ok := r.Applied(1, overlay.RegionTop); ok {
		t.Fatalf("removed display still has surfaces")
	}
}

func TestUpdateUsesSingleBatch(t *testing.T) {
	r, backend, calc := setup(t)
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}

	if err := r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig())); err != nil {
		t.Fatalf("UpdateOverlays: %v", err)
	}
	if len(backend.batches) != 1 {
		t.Fatalf("opened %d batches, want 1", len(backend.batches))
	}
	b := backend.batches[0]
	if !b.committed || b.released == 0 {
		t.Fatalf("batch committed=%v released=%d", b.committed, b.released)
	}
	if len(b.queued) != 5 {
		t.Fatalf("queued %d changes, want 5", len(b.queued))
	}
	if backend.count("geometry") != 0 || backend.count("appearance") != 0 {
		t.Fatalf("unexpected individual calls: %+v", backend.calls)
	}

	def, _ := r.Applied(1, overlay.RegionRight)
	if !def.Visible || def.Bounds != (geometry.Rect{X: 2820, Y: 100, Width: 1020, Height: 600}) {
		t.Fatalf("right slot not persisted: %+v", def)
	}
}

func TestUpdateIdenticalStatesIsNoop(t *testing.T) {
	r, backend, calc := setup(t)
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}
	cfg := partialConfig()
	cfg.Mode = overlay.ModePartialWithActive

	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, cfg))
	backend.reset()

	if err := r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, cfg)); err != nil {
		t.Fatalf("UpdateOverlays: %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("second update made %d calls: %+v", len(backend.calls), backend.calls)
	}
}

func TestUpdateDragOnlyMovesChangedSlots(t *testing.T) {
	r, backend, calc := setup(t)
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}
	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	backend.reset()

	// Horizontal drag: top and bottom keep their bounds.
	win.X += 40
	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	if len(backend.batches) != 1 || len(backend.batches[0].queued) != 2 {
		t.Fatalf("expected one batch with left+right, got %+v", backend.batches)
	}
}

func TestAppearanceChangeRecolorsVisibleOnly(t *testing.T) {
	r, backend, calc := setup(t)
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}
	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	backend.reset()

	cfg := partialConfig()
	cfg.InactiveOpacity = 200
	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, cfg))

	if backend.count("begin") != 0 {
		t.Fatalf("recolor must not open a batch")
	}
	if got := backend.count("appearance"); got != 5 {
		t.Fatalf("appearance calls = %d, want 5", got)
	}
	if got := backend.count("repaint"); got != 5 {
		t.Fatalf("repaint calls = %d, want 5", got)
	}
	def, _ := r.Applied(0, overlay.RegionFullScreen)
	if def.Opacity != 200 {
		t.Fatalf("opacity not persisted: %+v", def)
	}
}

func TestHiddenBoundsChangeIgnored(t *testing.T) {
	r, backend, _ := setup(t)
	states := []overlay.DisplayState{{DisplayIndex: 0, DisplayBounds: testDisplays[0].Bounds}}
	for i := range states[0].Overlays {
		states[0].Overlays[i] = overlay.Definition{Region: overlay.Region(i), Bounds: geometry.Rect{X: 5, Y: 5, Width: 10, Height: 10}}
	}
	if err := r.UpdateOverlays(states); err != nil {
		t.Fatalf("UpdateOverlays: %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("hidden slots caused calls: %+v", backend.calls)
	}
}

func TestBeginFailureFallsBack(t *testing.T) {
	r, backend, calc := setup(t)
	backend.failBegin = errors.New("server grab refused")
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}

	if err := r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig())); err != nil {
		t.Fatalf("UpdateOverlays: %v", err)
	}
	if got := backend.count("geometry"); got != 5 {
		t.Fatalf("fallback applied %d surfaces, want 5", got)
	}
	if r.Stats().Fallbacks != 1 {
		t.Fatalf("fallbacks = %d", r.Stats().Fallbacks)
	}

	backend.failBegin = nil
	backend.reset()
	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	if len(backend.calls) != 0 {
		t.Fatalf("fallback state was not persisted: %+v", backend.calls)
	}
}

func TestQueueFailureReleasesBatch(t *testing.T) {
	r, backend, calc := setup(t)
	backend.failQueue = 2 // second surface of display 0
	win := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}

	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 0, partialConfig()))
	if len(backend.batches) != 1 {
		t.Fatalf("batches = %d", len(backend.batches))
	}
	b := backend.batches[0]
	if b.committed {
		t.Fatalf("failed batch must not commit")
	}
	if b.released == 0 {
		t.Fatalf("failed batch was not released")
	}
	if got := backend.count("geometry"); got != 5 {
		t.Fatalf("fallback applied %d surfaces, want 5", got)
	}
}

func TestCommitFailureReleasesBatch(t *testing.T) {
	r, backend, calc := setup(t)
	backend.failCommit = errors.New("connection reset")
	win := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}

	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 0, partialConfig()))
	if b := backend.batches[0]; b.released == 0 {
		t.Fatalf("batch not released after commit failure")
	}
	if backend.count("geometry") == 0 {
		t.Fatalf("expected fallback after commit failure")
	}
}

func TestInvalidSurfaceRecreated(t *testing.T) {
	r, backend, calc := setup(t)
	backend.failBegin = errors.New("no batch")
	backend.invalid[1] = true // display 0 fullscreen
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}

	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	if backend.live[1] {
		t.Fatalf("invalid surface not destroyed")
	}
	if backend.count("create") != 1 {
		t.Fatalf("invalid surface not recreated")
	}
	def, ok := r.Applied(0, overlay.RegionFullScreen)
	if !ok || def.Visible {
		t.Fatalf("recreated slot = %+v ok=%v, want live and hidden", def, ok)
	}

	backend.reset()
	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	if backend.count("geometry") != 1 {
		t.Fatalf("recreated surface not shown on next update: %+v", backend.calls)
	}
}

func TestHideAll(t *testing.T) {
	r, backend, calc := setup(t)
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}
	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	backend.reset()

	r.HideAll()
	if len(backend.batches) != 1 || len(backend.batches[0].queued) != 5 {
		t.Fatalf("HideAll should hide 5 surfaces in one batch")
	}
	for _, c := range backend.batches[0].queued {
		if c.visible {
			t.Fatalf("HideAll queued a visible surface")
		}
	}

	backend.reset()
	r.HideAll()
	if len(backend.calls) != 0 {
		t.Fatalf("second HideAll made calls")
	}

	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	if len(backend.batches) != 1 || len(backend.batches[0].queued) != 5 {
		t.Fatalf("update after HideAll should show 5 surfaces")
	}
}

func TestCreateFailureDisablesOnlyThatDisplay(t *testing.T) {
	backend := newFakeBackend()
	backend.failCreate[1] = -1
	r := New(backend, testLogger())

	err := r.RebuildForTopology(testDisplays, partialConfig())
	if err == nil {
		t.Fatalf("expected error for display 1")
	}
	if len(backend.live) != overlay.RegionCount {
		t.Fatalf("live surfaces = %d, want %d", len(backend.live), overlay.RegionCount)
	}
	if r.Stats().DisabledDisplays != 1 {
		t.Fatalf("disabled = %d", r.Stats().DisabledDisplays)
	}

	backend.reset()
	calc := overlay.NewCalculator(2)
	win := geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	if err := r.UpdateOverlays(calc.Calculate(testDisplays, &win, 0, partialConfig())); err != nil {
		t.Fatalf("UpdateOverlays: %v", err)
	}
	if len(backend.batches) != 1 || len(backend.batches[0].queued) != 4 {
		t.Fatalf("display 0 should still render its 4 edges: %+v", backend.batches)
	}
}

func TestCreateRetried(t *testing.T) {
	backend := newFakeBackend()
	backend.failCreate[0] = 1
	r := New(backend, testLogger())
	if err := r.RebuildForTopology(testDisplays[:1], partialConfig()); err != nil {
		t.Fatalf("single transient failure should be retried: %v", err)
	}
	if len(backend.live) != overlay.RegionCount {
		t.Fatalf("live = %d", len(backend.live))
	}
}

func TestUnknownDisplay(t *testing.T) {
	r, _, _ := setup(t)
	states := []overlay.DisplayState{{DisplayIndex: 7}}
	if err := r.UpdateOverlays(states); !errors.Is(err, ErrUnknownDisplay) {
		t.Fatalf("err = %v, want ErrUnknownDisplay", err)
	}
}

func TestClose(t *testing.T) {
	r, backend, _ := setup(t)
	r.Close()
	if len(backend.live) != 0 {
		t.Fatalf("%d surfaces leaked", len(backend.live))
	}
}

func TestInvalidSurfaceInCommittedBatchRecreated(t *testing.T) {
	r, backend, calc := setup(t)
	backend.failCommit = fmt.Errorf("%w: BadWindow", ErrSurfaceInvalid)
	backend.invalid[1] = true // display 0 fullscreen
	win := geometry.Rect{X: 2020, Y: 100, Width: 800, Height: 600}

	r.UpdateOverlays(calc.Calculate(testDisplays, &win, 1, partialConfig()))
	if backend.live[1] {
		t.Fatalf("surface rejected by the server not destroyed")
	}
	if backend.count("create") != 1 {
		t.Fatalf("surface rejected by the server not recreated")
	}
	if st := r.Stats(); st.Fallbacks != 1 || st.Failures != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if def, ok := r.Applied(1, overlay.RegionTop); !ok || !def.Visible {
		t.Fatalf("healthy surface not applied by fallback: %+v ok=%v", def, ok)
	}
}
