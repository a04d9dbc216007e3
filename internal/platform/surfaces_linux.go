//go:build linux

package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/geometry"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/overlay"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/renderer"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/x11"
)

// X11Surfaces implements renderer.SurfaceBackend with override-redirect
// windows. A batch holds a server grab from BeginBatch until Commit or
// Release, so every queued change reaches the screen in one step.
//
// X11Surfaces is used only from the tracker goroutine.
type X11Surfaces struct {
	conn    *x11.Connection
	live    map[renderer.Surface]struct{}
	pending []*xgb.Cookie
}

var _ renderer.SurfaceBackend = (*X11Surfaces)(nil)

// NewX11Surfaces creates a surface backend on conn.
func NewX11Surfaces(conn *x11.Connection) *X11Surfaces {
	return &X11Surfaces{conn: conn, live: make(map[renderer.Surface]struct{})}
}

func (s *X11Surfaces) CreateSurface(display int, region overlay.Region, color geometry.Color, opacity uint8) (renderer.Surface, error) {
	wid, err := s.conn.CreateOverlayWindow(color, opacity)
	if err != nil {
		return 0, fmt.Errorf("display %d %s overlay: %w", display, region, err)
	}
	id := renderer.Surface(wid)
	s.live[id] = struct{}{}
	return id, nil
}

func (s *X11Surfaces) DestroySurface(id renderer.Surface) {
	delete(s.live, id)
	s.conn.DestroyOverlayWindow(xproto.Window(id))
}

func (s *X11Surfaces) BeginBatch(n int) (renderer.Batch, error) {
	if err := s.conn.GrabServer(); err != nil {
		return nil, fmt.Errorf("%w: %w", renderer.ErrBatchUnavailable, err)
	}
	s.pending = s.pending[:0]
	return &x11Batch{s: s, grabbed: true}, nil
}

func (s *X11Surfaces) SetGeometry(id renderer.Surface, bounds geometry.Rect, visible bool) error {
	if _, ok := s.live[id]; !ok {
		return renderer.ErrSurfaceInvalid
	}
	return surfaceError(s.conn.SetOverlayGeometry(xproto.Window(id), bounds, visible))
}

func (s *X11Surfaces) SetAppearance(id renderer.Surface, color geometry.Color, opacity uint8) error {
	if _, ok := s.live[id]; !ok {
		return renderer.ErrSurfaceInvalid
	}
	return surfaceError(s.conn.SetOverlayAppearance(xproto.Window(id), color, opacity))
}

func (s *X11Surfaces) Repaint(id renderer.Surface) error {
	return surfaceError(s.conn.RepaintOverlay(xproto.Window(id)))
}

type x11Batch struct {
	s         *X11Surfaces
	grabbed   bool
	committed bool
}

func (b *x11Batch) Queue(id renderer.Surface, bounds geometry.Rect, visible bool) error {
	if _, ok := b.s.live[id]; !ok {
		return renderer.ErrSurfaceInvalid
	}
	b.s.pending = b.s.conn.QueueOverlayGeometry(xproto.Window(id), bounds, visible, b.s.pending)
	return nil
}

func (b *x11Batch) Commit() error {
	if b.committed {
		return nil
	}
	b.committed = true
	b.ungrab()
	// A BadWindow from any queued request fails the commit; the renderer
	// then retries surfaces one by one and replaces the invalid one.
	return surfaceError(b.s.conn.CheckQueued(b.s.pending))
}

func (b *x11Batch) Release() {
	b.ungrab()
}

func (b *x11Batch) ungrab() {
	if !b.grabbed {
		return
	}
	b.grabbed = false
	b.s.conn.UngrabServer()
}

func surfaceError(err error) error {
	if err == nil {
		return nil
	}
	if x11.IsBadWindow(err) {
		return fmt.Errorf("%w: %w", renderer.ErrSurfaceInvalid, err)
	}
	return err
}
