package renderer

import (
	"errors"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
)

var (
	// ErrBatchUnavailable is returned by BeginBatch when the window system
	// cannot open an atomic update.
	ErrBatchUnavailable = errors.New("batch update unavailable")

	// ErrSurfaceInvalid reports that a surface handle no longer refers to a
	// live on-screen surface.
	ErrSurfaceInvalid = errors.New("surface handle invalid")

	// ErrUnknownDisplay is returned by UpdateOverlays when a state names a
	// display the surface pool was not built for.
	ErrUnknownDisplay = errors.New("display not in surface pool; rebuild required")
)

// Surface is an opaque handle to one on-screen overlay surface.
type Surface uint32

// SurfaceBackend is the window-system side of the renderer. Surfaces are
// always-on-top, input-transparent rectangles that start hidden.
type SurfaceBackend interface {
	CreateSurface(displayIndex int, region overlay.Region, color geometry.Color, opacity uint8) (Surface, error)
	DestroySurface(s Surface)

	// BeginBatch opens an atomic positional update sized for n surfaces.
	BeginBatch(n int) (Batch, error)

	// SetGeometry applies one positional change outside of a batch.
	SetGeometry(s Surface, bounds geometry.Rect, visible bool) error
	SetAppearance(s Surface, color geometry.Color, opacity uint8) error
	Repaint(s Surface) error
}

// Batch collects positional changes that become visible together on Commit.
// Release must be called on every path; it is a no-op after Commit and safe
// to call more than once.
//
// For Queue and SetGeometry, bounds are ignored when visible is false.
type Batch interface {
	Queue(s Surface, bounds geometry.Rect, visible bool) error
	Commit() error
	Release()
}
